package bootstrap_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudmeter/cloudmeter/bootstrap"
	"github.com/cloudmeter/cloudmeter/config"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Database.Driver = "memory"
	cfg.Database.DSN = ""
	cfg.Auth.Enabled = false
	return cfg
}

func TestNewForTest_MemoryDriver(t *testing.T) {
	a, err := bootstrap.NewForTest(memoryConfig())
	if err != nil {
		t.Fatalf("NewForTest() error = %v", err)
	}
	defer a.Close()

	if a.Accounts == nil || a.Instances == nil || a.Events == nil || a.TokenStore == nil {
		t.Error("stores not wired")
	}
	if a.Reports == nil || a.Meter == nil || a.Tokens == nil {
		t.Error("services not wired")
	}
	if a.DB != nil {
		t.Error("memory driver should not open a database")
	}
	if a.Metrics == nil {
		t.Error("metrics enabled by default")
	}
}

func TestNewForTest_ServesAPI(t *testing.T) {
	a, err := bootstrap.NewForTest(memoryConfig())
	if err != nil {
		t.Fatalf("NewForTest() error = %v", err)
	}
	defer a.Close()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestNew_RejectsUnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = "postgres"

	if _, err := bootstrap.NewForTest(cfg); err == nil {
		t.Error("NewForTest() = nil error, want failure for unknown driver")
	}
}
