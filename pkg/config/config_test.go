package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

type validatedConfig struct {
	Port int `yaml:"port"`
}

func (c *validatedConfig) Validate() error {
	if c.Port <= 0 {
		return fmt.Errorf("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "name: ansuz\nport: 9090\n")

	cfg := testConfig{Name: "default", Port: 8080}
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "ansuz" || cfg.Port != 9090 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_KeepsDefaultsForAbsentKeys(t *testing.T) {
	path := writeConfig(t, "name: ansuz\n")

	cfg := testConfig{Port: 8080}
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want default preserved", cfg.Port)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_SITE_NAME", "from-env")
	path := writeConfig(t, "name: ${TEST_SITE_NAME}\n")

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "from-env" {
		t.Errorf("name = %q", cfg.Name)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, "port: -1\n")

	cfg := validatedConfig{}
	if err := Load(path, &cfg); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadIfExists_MissingFile(t *testing.T) {
	cfg := validatedConfig{Port: 8080}
	if err := LoadIfExists(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d", cfg.Port)
	}
}

func TestLoadIfExists_MissingFileStillValidates(t *testing.T) {
	cfg := validatedConfig{}
	if err := LoadIfExists(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err == nil {
		t.Fatal("invalid defaults should fail validation")
	}
}
