package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("POLL_MAX_ATTEMPTS", "")
	t.Setenv("PROVIDERS_FILE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q", cfg.Port)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Fatalf("PollInterval mismatch: got %s", cfg.PollInterval)
	}
	if cfg.PollMaxAttempts != 30 {
		t.Fatalf("PollMaxAttempts mismatch: got %d", cfg.PollMaxAttempts)
	}
	if len(cfg.Providers) != 0 {
		t.Fatalf("expected no provider overrides, got %#v", cfg.Providers)
	}
}

func TestLoadConfigRejectsNonPositivePolling(t *testing.T) {
	t.Setenv("POLL_MAX_ATTEMPTS", "0")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for POLL_MAX_ATTEMPTS=0")
	}
}

func TestCredentialsIgnoreBlankValues(t *testing.T) {
	t.Setenv("STABLE_API_KEY", "sk-test")
	t.Setenv("XAI_API_KEY", "   ")
	t.Setenv("REPLICATE_API_TOKEN", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	creds := cfg.Credentials()
	if creds["STABLE_API_KEY"] != "sk-test" {
		t.Fatalf("expected STABLE_API_KEY to be available")
	}
	if _, ok := creds["XAI_API_KEY"]; ok {
		t.Fatalf("blank XAI_API_KEY must not count as configured")
	}
	if _, ok := creds["REPLICATE_API_TOKEN"]; ok {
		t.Fatalf("unset REPLICATE_API_TOKEN must not count as configured")
	}
}

func TestLoadConfigReadsProvidersFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "providers.yaml")
	content := `providers:
  - name: Replicate
    poll_interval: 500ms
    max_attempts: 4
  - name: stability
    enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write providers file: %v", err)
	}
	t.Setenv("PROVIDERS_FILE", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if len(cfg.Providers) != 2 {
		t.Fatalf("expected 2 overrides, got %d", len(cfg.Providers))
	}
	first := cfg.Providers[0]
	if first.Name != "replicate" {
		t.Fatalf("names must be normalised, got %q", first.Name)
	}
	if first.PollInterval == nil || *first.PollInterval != 500*time.Millisecond {
		t.Fatalf("poll interval mismatch: %#v", first.PollInterval)
	}
	if first.MaxAttempts == nil || *first.MaxAttempts != 4 {
		t.Fatalf("max attempts mismatch: %#v", first.MaxAttempts)
	}
	second := cfg.Providers[1]
	if second.Enabled == nil || *second.Enabled {
		t.Fatalf("expected stability to be disabled: %#v", second.Enabled)
	}
}

func TestLoadProviderOverridesRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	content := "providers:\n  - name: flux\n  - name: FLUX\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write providers file: %v", err)
	}

	if _, err := LoadProviderOverrides(path); err == nil {
		t.Fatalf("expected duplicate provider error")
	}
}
