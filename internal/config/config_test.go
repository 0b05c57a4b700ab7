package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaultsForOmittedFields(t *testing.T) {
	path := writeConfig(t, `{"client_eori": "EU.EORI.CLIENT", "database_url": "postgres://localhost/ar"}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ListenAddress != defaultListenAddress {
		t.Errorf("ListenAddress = %q, want %q", cfg.ListenAddress, defaultListenAddress)
	}
	if cfg.JWTExpirySecs != defaultJWTExpiry {
		t.Errorf("JWTExpirySecs = %d, want %d", cfg.JWTExpirySecs, defaultJWTExpiry)
	}
	if cfg.DEExpirySecs != defaultDEExpiry {
		t.Errorf("DEExpirySecs = %d, want %d", cfg.DEExpirySecs, defaultDEExpiry)
	}
	if cfg.DeployRoute != defaultDeployRoute {
		t.Errorf("DeployRoute = %q, want %q", cfg.DeployRoute, defaultDeployRoute)
	}
	if cfg.ClientEORI != "EU.EORI.CLIENT" {
		t.Errorf("ClientEORI = %q, want EU.EORI.CLIENT", cfg.ClientEORI)
	}
}

func TestLoad_KeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `{"listen_address": "127.0.0.1:9000", "jwt_expiry_seconds": 60, "deploy_route": "/v1"}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ListenAddress != "127.0.0.1:9000" {
		t.Errorf("ListenAddress = %q, want 127.0.0.1:9000", cfg.ListenAddress)
	}
	if cfg.JWTExpirySecs != 60 {
		t.Errorf("JWTExpirySecs = %d, want 60", cfg.JWTExpirySecs)
	}
	if cfg.DeployRoute != "/v1" {
		t.Errorf("DeployRoute = %q, want /v1", cfg.DeployRoute)
	}
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestLoad_EnvOverridesWinOverFile(t *testing.T) {
	path := writeConfig(t, `{"client_eori": "EU.EORI.FILE", "jwt_expiry_seconds": 60}`)
	t.Setenv("AR_CLIENT_EORI", "EU.EORI.ENV")
	t.Setenv("AR_JWT_EXPIRY_SECONDS", "900")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ClientEORI != "EU.EORI.ENV" {
		t.Errorf("ClientEORI = %q, want EU.EORI.ENV", cfg.ClientEORI)
	}
	if cfg.JWTExpirySecs != 900 {
		t.Errorf("JWTExpirySecs = %d, want 900", cfg.JWTExpirySecs)
	}
}

func TestLoad_InvalidEnvIntReturnsError(t *testing.T) {
	path := writeConfig(t, `{}`)
	t.Setenv("AR_JWT_EXPIRY_SECONDS", "not-a-number")

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a non-numeric AR_JWT_EXPIRY_SECONDS")
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "client_eori: EU.EORI.CLIENT\ndatabase_url: postgres://localhost/ar\njwt_expiry_seconds: 120\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing yaml fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ClientEORI != "EU.EORI.CLIENT" {
		t.Errorf("ClientEORI = %q, want EU.EORI.CLIENT", cfg.ClientEORI)
	}
	if cfg.JWTExpirySecs != 120 {
		t.Errorf("JWTExpirySecs = %d, want 120", cfg.JWTExpirySecs)
	}
	if cfg.ListenAddress != defaultListenAddress {
		t.Errorf("ListenAddress = %q, want %q", cfg.ListenAddress, defaultListenAddress)
	}
}
