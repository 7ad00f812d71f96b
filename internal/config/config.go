package config

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverS3    = "s3"
	StorageDriverMinio = "minio"
)

// Config aggregates runtime configuration for the API and supporting services.
type Config struct {
	ListenAddr      string
	LogLevel        string
	MySQLDSN        string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	TrustedProxies  []netip.Prefix

	SessionCookieName   string
	SessionCookieSecure bool
	SessionTTL          time.Duration
	SessionPrefix       string

	DefaultCredits int
	DefaultPlan    string

	ReplicateAPIToken string
	ReplicateBaseURL  string
	ReplicateModel    string
	GenerationTimeout time.Duration
	ScratchDir        string
	MaxImageBytes     int64

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	PaymentCurrency   string

	RateLimitAuthPerMinute     int
	RateLimitGeneratePerMinute int
	RateLimitPrefix            string

	AdminListenAddr string
	AdminUsername   string
	AdminPassword   string

	StorageDriver      string
	StoragePrefix      string
	S3Endpoint         string
	S3Region           string
	S3AccessKey        string
	S3SecretKey        string
	S3Bucket           string
	S3PublicBaseURL    string
	S3UsePathStyle     bool
	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioBucket        string
	MinioUseSSL        bool
	MinioPublicBaseURL string
}

// Load reads configuration from environment variables, applying sane defaults.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	const defaultReplicateBaseURL = "https://api.replicate.com"

	cfg := Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":5000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		MySQLDSN:        os.Getenv("MYSQL_DSN"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         getInt("REDIS_DB", 0),
		RequestTimeout:  time.Second * time.Duration(getInt("HTTP_TIMEOUT_SECONDS", 30)),
		ShutdownTimeout: time.Second * time.Duration(getInt("SHUTDOWN_TIMEOUT_SECONDS", 10)),
		AllowedOrigins:  getList("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "thumblify.sid"),
		SessionCookieSecure: getBool("SESSION_COOKIE_SECURE", false),
		SessionTTL:          time.Hour * time.Duration(getInt("SESSION_TTL_HOURS", 24*7)),
		SessionPrefix:       getEnv("SESSION_PREFIX", "thumblify:sess"),

		DefaultCredits: getInt("DEFAULT_CREDITS", 5),
		DefaultPlan:    getEnv("DEFAULT_PLAN", "Free"),

		ReplicateAPIToken: os.Getenv("REPLICATE_API_TOKEN"),
		ReplicateBaseURL:  normalizeBaseURL(getEnv("REPLICATE_BASE_URL", defaultReplicateBaseURL), defaultReplicateBaseURL),
		ReplicateModel:    getEnv("REPLICATE_MODEL", "black-forest-labs/flux-2-pro"),
		GenerationTimeout: time.Second * time.Duration(getInt("GENERATION_TIMEOUT_SECONDS", 180)),
		ScratchDir:        getEnv("SCRATCH_DIR", "images"),
		MaxImageBytes:     int64(getInt("MAX_IMAGE_BYTES", 20<<20)),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:   strings.TrimRight(getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"), "/"),
		PaymentCurrency:   strings.ToUpper(getEnv("PAYMENT_CURRENCY", "INR")),

		RateLimitAuthPerMinute:     getInt("RATE_LIMIT_AUTH_PER_MINUTE", 20),
		RateLimitGeneratePerMinute: getInt("RATE_LIMIT_GENERATE_PER_MINUTE", 10),
		RateLimitPrefix:            getEnv("RATE_LIMIT_PREFIX", "thumblify:ratelimit"),

		AdminListenAddr: getEnv("ADMIN_LISTEN_ADDR", ":8080"),
		AdminUsername:   os.Getenv("ADMIN_USERNAME"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),

		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverS3)),
		StoragePrefix:      getEnv("STORAGE_PREFIX", "thumbnails"),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3Region:           os.Getenv("S3_REGION"),
		S3AccessKey:        os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:        os.Getenv("S3_SECRET_KEY"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3PublicBaseURL:    os.Getenv("S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:     getBool("S3_USE_PATH_STYLE", false),
		MinioEndpoint:      os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:     os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:     os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:        os.Getenv("MINIO_BUCKET"),
		MinioUseSSL:        getBool("MINIO_USE_SSL", true),
		MinioPublicBaseURL: os.Getenv("MINIO_PUBLIC_BASE_URL"),
	}

	proxies, err := parseTrustedProxies(getList("TRUSTED_PROXIES", ""))
	if err != nil {
		return Config{}, err
	}
	cfg.TrustedProxies = proxies

	var missing []string
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	require("MYSQL_DSN", cfg.MySQLDSN)
	require("REDIS_ADDR", cfg.RedisAddr)
	require("REPLICATE_API_TOKEN", cfg.ReplicateAPIToken)
	require("RAZORPAY_KEY_ID", cfg.RazorpayKeyID)
	require("RAZORPAY_KEY_SECRET", cfg.RazorpayKeySecret)

	switch cfg.StorageDriver {
	case StorageDriverS3:
		require("S3_REGION", cfg.S3Region)
		require("S3_ACCESS_KEY", cfg.S3AccessKey)
		require("S3_SECRET_KEY", cfg.S3SecretKey)
		require("S3_BUCKET", cfg.S3Bucket)
		require("S3_PUBLIC_BASE_URL", cfg.S3PublicBaseURL)
	case StorageDriverMinio:
		require("MINIO_ENDPOINT", cfg.MinioEndpoint)
		require("MINIO_ACCESS_KEY", cfg.MinioAccessKey)
		require("MINIO_SECRET_KEY", cfg.MinioSecretKey)
		require("MINIO_BUCKET", cfg.MinioBucket)
		require("MINIO_PUBLIC_BASE_URL", cfg.MinioPublicBaseURL)
	default:
		return Config{}, fmt.Errorf("unsupported STORAGE_DRIVER %q (want %q or %q)", cfg.StorageDriver, StorageDriverS3, StorageDriverMinio)
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}
	if cfg.DefaultCredits < 0 {
		return Config{}, fmt.Errorf("DEFAULT_CREDITS must not be negative")
	}

	return cfg, nil
}

// normalizeBaseURL fills in a missing scheme and strips trailing slashes so
// path joins in the API clients stay predictable.
func normalizeBaseURL(raw string, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fallback
	}

	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}
	if parsed.Host == "" {
		parsed.Host = parsed.Path
		parsed.Path = ""
	}

	return strings.TrimRight(parsed.String(), "/")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// parseTrustedProxies accepts CIDRs and bare addresses. Empty means no
// proxy is trusted and forwarded headers are ignored.
func parseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func getList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.TrimRight(part, "/"))
		}
	}
	return out
}

// loadEnvFile applies the first env file found. Running without one is fine:
// containers get their configuration from the real environment.
func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	return nil
}
