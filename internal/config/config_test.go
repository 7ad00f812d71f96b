package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var managedKeys = []string{
	"CONFIG_ENV_PATH", "MYSQL_DSN", "REDIS_ADDR", "REPLICATE_API_TOKEN", "REPLICATE_BASE_URL",
	"RAZORPAY_KEY_ID", "RAZORPAY_KEY_SECRET", "STORAGE_DRIVER",
	"S3_REGION", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_PUBLIC_BASE_URL",
	"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET", "MINIO_PUBLIC_BASE_URL",
	"GENERATION_TIMEOUT_SECONDS", "DEFAULT_CREDITS", "PAYMENT_CURRENCY", "CORS_ALLOWED_ORIGINS",
	"ADMIN_USERNAME", "ADMIN_PASSWORD", "TRUSTED_PROXIES",
}

// clearEnv registers every key with t.Setenv so values written by
// godotenv.Overload are restored after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		t.Setenv(key, "")
	}
}

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/thumblify?parseTime=true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REPLICATE_API_TOKEN", "r8_test")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "secret")
	t.Setenv("S3_REGION", "us-east-1")
	t.Setenv("S3_ACCESS_KEY", "ak")
	t.Setenv("S3_SECRET_KEY", "sk")
	t.Setenv("S3_BUCKET", "thumbs")
	t.Setenv("S3_PUBLIC_BASE_URL", "https://cdn.example.com")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageDriver != StorageDriverS3 {
		t.Fatalf("storage driver = %q, want s3", cfg.StorageDriver)
	}
	if cfg.DefaultCredits != 5 {
		t.Fatalf("default credits = %d, want 5", cfg.DefaultCredits)
	}
	if cfg.PaymentCurrency != "INR" {
		t.Fatalf("currency = %q, want INR", cfg.PaymentCurrency)
	}
	if cfg.ReplicateBaseURL != "https://api.replicate.com" {
		t.Fatalf("replicate base url = %q", cfg.ReplicateBaseURL)
	}
	if cfg.GenerationTimeout != 180*time.Second {
		t.Fatalf("generation timeout = %v", cfg.GenerationTimeout)
	}
	if cfg.AdminUsername != "" || cfg.AdminPassword != "" {
		t.Fatal("admin credentials should be empty by default")
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("allowed origins = %v", cfg.AllowedOrigins)
	}
}

func TestAllowedOriginsList(t *testing.T) {
	clearEnv(t)
	setBaseEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://app.example.com/ ,, http://localhost:3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"https://app.example.com", "http://localhost:3000"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("allowed origins = %v", cfg.AllowedOrigins)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Fatalf("allowed origins = %v, want %v", cfg.AllowedOrigins, want)
		}
	}
}

func TestLoadReportsAllMissing(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for empty environment")
	}
	for _, key := range []string{"MYSQL_DSN", "REDIS_ADDR", "REPLICATE_API_TOKEN", "RAZORPAY_KEY_SECRET", "S3_BUCKET"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("error %q does not mention %s", err, key)
		}
	}
}

func TestLoadMinioDriverRequiresMinioSettings(t *testing.T) {
	clearEnv(t)
	setBaseEnv(t)
	t.Setenv("STORAGE_DRIVER", "minio")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "MINIO_ENDPOINT") {
		t.Fatalf("expected missing MINIO_ENDPOINT, got %v", err)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	clearEnv(t)
	setBaseEnv(t)
	t.Setenv("STORAGE_DRIVER", "ftp")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	setBaseEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "REPLICATE_BASE_URL=replicate.internal\nDEFAULT_CREDITS=9\nPAYMENT_CURRENCY=usd\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CONFIG_ENV_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ReplicateBaseURL != "https://replicate.internal" {
		t.Fatalf("replicate base url = %q", cfg.ReplicateBaseURL)
	}
	if cfg.DefaultCredits != 9 {
		t.Fatalf("default credits = %d, want 9", cfg.DefaultCredits)
	}
	if cfg.PaymentCurrency != "USD" {
		t.Fatalf("currency = %q, want USD", cfg.PaymentCurrency)
	}
}

func TestTrustedProxies(t *testing.T) {
	clearEnv(t)
	setBaseEnv(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[0].String() != "10.0.0.0/8" || cfg.TrustedProxies[1].String() != "127.0.0.1/32" {
		t.Fatalf("trusted proxies = %v", cfg.TrustedProxies)
	}

	t.Setenv("TRUSTED_PROXIES", "not-an-ip")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "TRUSTED_PROXIES") {
		t.Fatalf("expected TRUSTED_PROXIES error, got %v", err)
	}
}
