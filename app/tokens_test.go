package app_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cloudmeter/cloudmeter/adapters/clock"
	"github.com/cloudmeter/cloudmeter/adapters/hasher"
	"github.com/cloudmeter/cloudmeter/adapters/idgen"
	"github.com/cloudmeter/cloudmeter/adapters/memory"
	"github.com/cloudmeter/cloudmeter/adapters/random"
	"github.com/cloudmeter/cloudmeter/app"
	"github.com/cloudmeter/cloudmeter/domain/token"
	"github.com/cloudmeter/cloudmeter/ports"
)

func newTokenService(t *testing.T) *app.TokenService {
	t.Helper()
	return app.NewTokenService(
		memory.NewTokenStore(),
		hasher.Fake{},
		idgen.NewSequential("tok-"),
		random.NewFake(),
		clock.NewFake(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)),
		"cm_",
		zerolog.Nop(),
	)
}

func TestMintAndVerify(t *testing.T) {
	svc := newTokenService(t)

	tok, secret, err := svc.Mint(ctx, "u-1")
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if !strings.HasPrefix(secret, "cm_") {
		t.Errorf("secret = %q, want cm_ prefix", secret)
	}
	if len(secret) < len("cm_")+token.SecretLen {
		t.Errorf("len(secret) = %d, want at least %d", len(secret), len("cm_")+token.SecretLen)
	}
	if tok.Prefix != secret[:token.PrefixLen] {
		t.Errorf("stored prefix = %q, want %q", tok.Prefix, secret[:token.PrefixLen])
	}
	if tok.UserID != "u-1" {
		t.Errorf("UserID = %q, want u-1", tok.UserID)
	}

	got, ok := svc.Verify(ctx, secret)
	if !ok {
		t.Fatal("Verify() = false, want true")
	}
	if got.ID != tok.ID {
		t.Errorf("verified token ID = %s, want %s", got.ID, tok.ID)
	}
}

func TestVerify_RejectsBadSecrets(t *testing.T) {
	svc := newTokenService(t)
	_, secret, err := svc.Mint(ctx, "u-1")
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	if _, ok := svc.Verify(ctx, "cm_"+strings.Repeat("f", token.SecretLen)); ok {
		t.Error("unknown secret should not verify")
	}
	if _, ok := svc.Verify(ctx, "zz_"+strings.Repeat("f", token.SecretLen)); ok {
		t.Error("wrong scheme prefix should not verify")
	}
	if _, ok := svc.Verify(ctx, secret[:10]); ok {
		t.Error("truncated secret should not verify")
	}
}

func TestRevoke(t *testing.T) {
	svc := newTokenService(t)
	tok, secret, err := svc.Mint(ctx, "u-1")
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	if err := svc.Revoke(ctx, tok.ID); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if _, ok := svc.Verify(ctx, secret); ok {
		t.Error("revoked secret should not verify")
	}

	if err := svc.Revoke(ctx, "tok-missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Revoke() error = %v, want ErrNotFound", err)
	}
}
