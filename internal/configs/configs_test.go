package configs

import (
	"testing"
	"time"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := FromEnv(envMap(nil))
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development environment, got %q", cfg.Environment)
	}
	if cfg.Port != 8080 {
		t.Fatalf("unexpected port: %d", cfg.Port)
	}
	if cfg.SessionBackend != SessionBackendMemory {
		t.Fatalf("unexpected session backend: %q", cfg.SessionBackend)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Fatalf("unexpected api timeout: %s", cfg.APITimeout)
	}
	if cfg.SecureCookies {
		t.Fatal("expected insecure cookies in development")
	}
	if cfg.S3Enabled() {
		t.Fatal("expected s3 disabled without settings")
	}
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "privileged port", env: map[string]string{"PORT": "80"}},
		{name: "non numeric port", env: map[string]string{"PORT": "abc"}},
		{name: "production without secret", env: map[string]string{"ENVIRONMENT": "production"}},
		{name: "bad api url", env: map[string]string{"API_BASE_URL": "not a url"}},
		{name: "bad backend", env: map[string]string{"SESSION_BACKEND": "etcd"}},
		{name: "bad duration", env: map[string]string{"SESSION_TTL": "forever"}},
		{name: "partial s3", env: map[string]string{"S3_BUCKET_NAME": "previews"}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := FromEnv(envMap(tc.env)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFromEnvPostgresDevelopmentDSN(t *testing.T) {
	t.Parallel()

	cfg, err := FromEnv(envMap(map[string]string{
		"SESSION_BACKEND":      "postgres",
		"ALLOWED_ORIGINS":      " https://a.example , ,https://b.example",
		"API_BASE_URL":         "https://api.example/",
		"SESSION_TTL":          "2h",
		"REDIS_DB":             "3",
		"IP_LOOKUP_URL":        "https://ip.example/json",
		"S3_BUCKET_NAME":       "b",
		"S3_ENDPOINT":          "https://s3.example",
		"S3_ACCESS_KEY_ID":     "id",
		"S3_SECRET_ACCESS_KEY": "secret",
	}))
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.DatabaseDSN == "" {
		t.Fatal("expected development DSN default")
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
	if cfg.APIBaseURL != "https://api.example" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
	if cfg.SessionTTL != 2*time.Hour || cfg.RedisDB != 3 {
		t.Fatalf("unexpected ttl/db: %s %d", cfg.SessionTTL, cfg.RedisDB)
	}
	if !cfg.S3Enabled() {
		t.Fatal("expected s3 enabled")
	}
}
