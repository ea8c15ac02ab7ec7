package internal

import (
	"strings"
	"testing"
)

func TestAdminConfig_DisabledMode(t *testing.T) {
	cfg := AdminConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.Enabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAdminConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AdminConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAdminConfig_TokenModeValid(t *testing.T) {
	cfg := AdminConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.Enabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAdminConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AdminConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAdminConfig_InvalidMode(t *testing.T) {
	cfg := AdminConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestSiteConfig_RejectsRelativeBaseURL(t *testing.T) {
	cfg := SiteConfig{BaseURL: "/notes", SettingsPath: "./settings.yaml"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("relative base_url should fail")
	}
}

func TestHTTPConfig_PortRange(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := HTTPConfig{Port: port}
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d should fail validation", port)
		}
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestFullConfig_AdminValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Admin.Mode = "token"
	cfg.Admin.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("Config.Validate should surface admin validation errors")
	}
}

func TestHTTPConfig_Address(t *testing.T) {
	cfg := HTTPConfig{Port: 9090}
	if got := cfg.Address(); got != ":9090" {
		t.Errorf("Address() = %q", got)
	}
}
