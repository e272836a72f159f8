package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cloudmeter/cloudmeter/domain/token"
	"github.com/cloudmeter/cloudmeter/ports"
)

// TokenService mints and verifies API auth tokens. Secrets are shown once
// at mint time; only a lookup prefix and a bcrypt hash are stored.
type TokenService struct {
	tokens ports.TokenStore
	hasher ports.Hasher
	idgen  ports.IDGenerator
	random ports.Random
	clock  ports.Clock
	prefix string
	logger zerolog.Logger
}

// NewTokenService creates a token service. prefix is the literal secret
// prefix, e.g. "cm_".
func NewTokenService(
	tokens ports.TokenStore,
	hasher ports.Hasher,
	idgen ports.IDGenerator,
	random ports.Random,
	clock ports.Clock,
	prefix string,
	logger zerolog.Logger,
) *TokenService {
	return &TokenService{
		tokens: tokens,
		hasher: hasher,
		idgen:  idgen,
		random: random,
		clock:  clock,
		prefix: prefix,
		logger: logger.With().Str("service", "token").Logger(),
	}
}

// Mint creates a token for a user and returns it together with the
// plaintext secret. The secret cannot be recovered later.
func (s *TokenService) Mint(ctx context.Context, userID string) (token.Token, string, error) {
	randomPart, err := s.random.String(token.SecretLen)
	if err != nil {
		return token.Token{}, "", fmt.Errorf("generate secret: %w", err)
	}
	secret := s.prefix + randomPart

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return token.Token{}, "", fmt.Errorf("hash secret: %w", err)
	}

	prefix, ok := token.ValidateFormat(secret, s.prefix)
	if !ok {
		return token.Token{}, "", fmt.Errorf("generated secret has invalid format")
	}

	t := token.Token{
		ID:         s.idgen.New(),
		UserID:     userID,
		Prefix:     prefix,
		SecretHash: hash,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.tokens.Create(ctx, t); err != nil {
		return token.Token{}, "", fmt.Errorf("store token: %w", err)
	}

	s.logger.Info().Str("token_id", t.ID).Str("user_id", userID).Msg("minted auth token")
	return t, secret, nil
}

// Verify resolves a presented secret to its token. Returns false for
// unknown, malformed, or revoked secrets.
func (s *TokenService) Verify(ctx context.Context, secret string) (token.Token, bool) {
	prefix, ok := token.ValidateFormat(secret, s.prefix)
	if !ok {
		return token.Token{}, false
	}

	candidates, err := s.tokens.GetByPrefix(ctx, prefix)
	if err != nil {
		s.logger.Error().Err(err).Msg("token lookup failed")
		return token.Token{}, false
	}

	now := s.clock.Now()
	for _, t := range candidates {
		if !s.hasher.Compare(t.SecretHash, secret) {
			continue
		}
		result := token.Validate(t, now)
		if !result.Valid {
			return token.Token{}, false
		}
		return t, true
	}
	return token.Token{}, false
}

// Revoke marks a token as revoked from now on.
func (s *TokenService) Revoke(ctx context.Context, id string) error {
	return s.tokens.Revoke(ctx, id, s.clock.Now())
}
