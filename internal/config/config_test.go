package config

import (
	"reflect"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid development config without secret",
			config: &Config{
				Environment: "development",
				JWT:         JWTConfig{TokenDuration: 12 * time.Hour},
			},
			wantErr: false,
		},
		{
			name: "production requires JWT secret",
			config: &Config{
				Environment: "production",
				JWT:         JWTConfig{TokenDuration: 12 * time.Hour},
			},
			wantErr: true,
		},
		{
			name: "production with secret",
			config: &Config{
				Environment: "production",
				JWT:         JWTConfig{Secret: "s3cret", TokenDuration: time.Hour},
			},
			wantErr: false,
		},
		{
			name: "zero token duration rejected",
			config: &Config{
				Environment: "development",
				JWT:         JWTConfig{Secret: "s3cret"},
			},
			wantErr: true,
		},
		{
			name: "negative rate limit rejected",
			config: &Config{
				Environment: "development",
				JWT:         JWTConfig{Secret: "s3cret", TokenDuration: time.Hour},
				RateLimit:   RateLimitConfig{RequestsPerSecond: -1},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidate_DevelopmentSecretFallback(t *testing.T) {
	cfg := &Config{
		Environment: "development",
		JWT:         JWTConfig{TokenDuration: time.Hour},
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.JWT.Secret == "" {
		t.Error("expected a fallback secret outside production")
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"single origin", "http://localhost:3000", []string{"http://localhost:3000"}},
		{
			"multiple with whitespace",
			"http://localhost:3000, https://app.example.com ,",
			[]string{"http://localhost:3000", "https://app.example.com"},
		},
		{"only separators", ", ,", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitAndTrim(tt.raw)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitAndTrim(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDatabaseConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DatabaseConfig)
		wantErr bool
	}{
		{"defaults are valid", func(c *DatabaseConfig) {}, false},
		{"empty path", func(c *DatabaseConfig) { c.Path = "" }, true},
		{"empty migrations path", func(c *DatabaseConfig) { c.MigrationsPath = "" }, true},
		{"zero open conns", func(c *DatabaseConfig) { c.MaxOpenConns = 0 }, true},
		{"zero idle conns", func(c *DatabaseConfig) { c.MaxIdleConns = 0 }, true},
		{"lifetime too short", func(c *DatabaseConfig) { c.ConnMaxLifetime = time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDatabaseConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDatabaseConfigFromEnv(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/custom.db")
	t.Setenv("DB_MAX_OPEN_CONNS", "4")
	t.Setenv("DB_CONN_MAX_LIFETIME", "30m")
	t.Setenv("DB_AUTO_MIGRATE", "false")

	cfg := LoadDatabaseConfigFromEnv()

	if cfg.Path != "/tmp/custom.db" {
		t.Errorf("Path = %s, want /tmp/custom.db", cfg.Path)
	}
	if cfg.MaxOpenConns != 4 {
		t.Errorf("MaxOpenConns = %d, want 4", cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime != 30*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want 30m", cfg.ConnMaxLifetime)
	}
	if cfg.AutoMigrate {
		t.Error("AutoMigrate = true, want false")
	}
}
