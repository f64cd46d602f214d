// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"testing"
)

func TestParseFlags_EnvVars(t *testing.T) {
	// Set env vars
	os.Setenv("PORT", "9000")
	os.Setenv("DATABASE_URL", "votelive.db")
	os.Setenv("ADMIN_KEY", "test-admin")
	os.Setenv("VOTER_SALT", "test-salt")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected default sqlite, got %s", cfg.DatabaseType)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	os.Setenv("PORT", "9000")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-admin-key", "k1", "-voter-salt", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
}

func TestParseFlags_MissingRequired(t *testing.T) {
	os.Clearenv()

	tests := []struct {
		name string
		args []string
	}{
		{"no database", []string{"-admin-key", "k", "-voter-salt", "s"}},
		{"no admin key", []string{"-d", "test.db", "-voter-salt", "s"}},
		{"no voter salt", []string{"-d", "test.db", "-admin-key", "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected error for missing required setting")
			}
		})
	}
}

func TestParseFlags_DatabaseType(t *testing.T) {
	os.Clearenv()

	base := []string{"-d", "x", "-admin-key", "k", "-voter-salt", "s"}

	cfg, err := ParseFlags(append([]string{"-t", "postgres"}, base...))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DriverName() != "postgres" {
		t.Errorf("expected driver postgres, got %s", cfg.DriverName())
	}

	cfg, err = ParseFlags(append([]string{"-t", "sqlite"}, base...))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DriverName() != "sqlite" {
		t.Errorf("expected driver sqlite, got %s", cfg.DriverName())
	}

	if _, err := ParseFlags(append([]string{"-t", "mysql"}, base...)); err == nil {
		t.Error("expected error for unsupported database type")
	}
}
