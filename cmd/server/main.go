package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/digkill/thumblify/internal/admin"
	"github.com/digkill/thumblify/internal/api"
	"github.com/digkill/thumblify/internal/config"
	"github.com/digkill/thumblify/internal/database"
	"github.com/digkill/thumblify/internal/models"
	"github.com/digkill/thumblify/internal/ratelimit"
	"github.com/digkill/thumblify/internal/razorpay"
	"github.com/digkill/thumblify/internal/replicate"
	"github.com/digkill/thumblify/internal/repository"
	"github.com/digkill/thumblify/internal/service"
	"github.com/digkill/thumblify/internal/session"
	"github.com/digkill/thumblify/internal/storage"
	"github.com/digkill/thumblify/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New(cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		log.Fatalf("redis ping: %v", err)
	}

	media, err := newMediaStore(ctx, cfg)
	if err != nil {
		log.Fatalf("media store: %v", err)
	}
	scratch, err := storage.NewScratch(cfg.ScratchDir)
	if err != nil {
		log.Fatalf("scratch dir: %v", err)
	}

	replicateClient := replicate.NewClient(replicate.Config{
		APIToken:     cfg.ReplicateAPIToken,
		BaseURL:      cfg.ReplicateBaseURL,
		Model:        cfg.ReplicateModel,
		Timeout:      cfg.GenerationTimeout,
		MaxImageSize: cfg.MaxImageBytes,
	}, logr)
	razorpayClient := razorpay.NewClient(razorpay.Config{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		BaseURL:   cfg.RazorpayBaseURL,
		Timeout:   cfg.RequestTimeout,
	}, logr)

	userRepo := repository.NewUserRepository(db)
	thumbnailRepo := repository.NewThumbnailRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	planService := service.NewPlanService()
	authService := service.NewAuthService(userRepo, cfg.DefaultCredits, models.PlanID(cfg.DefaultPlan))
	thumbnailService := service.NewThumbnailService(logr, userRepo, thumbnailRepo, replicateClient, media, scratch, cfg.GenerationTimeout)
	paymentService := service.NewPaymentService(logr, planService, userRepo, paymentRepo, razorpayClient, cfg.PaymentCurrency)
	userService := service.NewUserService(userRepo, thumbnailRepo)

	authLimiter, err := ratelimit.NewFixedWindow(rdb, cfg.RateLimitPrefix+":auth", cfg.RateLimitAuthPerMinute, time.Minute)
	if err != nil {
		log.Fatalf("auth rate limiter: %v", err)
	}
	generateLimiter, err := ratelimit.NewFixedWindow(rdb, cfg.RateLimitPrefix+":generate", cfg.RateLimitGeneratePerMinute, time.Minute)
	if err != nil {
		log.Fatalf("generate rate limiter: %v", err)
	}

	sessions := session.NewManager(
		session.NewStore(rdb, cfg.SessionPrefix, cfg.SessionTTL),
		cfg.SessionCookieName,
		cfg.SessionCookieSecure,
	)

	apiServer := api.NewServer(api.Config{
		Addr:            cfg.ListenAddr,
		ReadTimeout:     cfg.RequestTimeout,
		WriteTimeout:    cfg.GenerationTimeout + cfg.RequestTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		AllowedOrigins:  cfg.AllowedOrigins,
		TrustedProxies:  cfg.TrustedProxies,
	}, logr, api.Deps{
		Sessions:        sessions,
		Auth:            authService,
		Thumbnails:      thumbnailService,
		Payments:        paymentService,
		Plans:           planService,
		AuthLimiter:     authLimiter,
		GenerateLimiter: generateLimiter,
	})

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		adminServer := admin.NewServer(cfg.AdminListenAddr, cfg.AdminUsername, cfg.AdminPassword, logr, userService, planService)
		go func() {
			if err := adminServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logr.Error("admin server stopped", "err", err)
			}
		}()
	} else {
		logr.Warn("admin credentials not set, admin panel disabled")
	}

	if err := apiServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("api server stopped", "err", err)
	}
}

func newMediaStore(ctx context.Context, cfg config.Config) (storage.MediaStore, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMinio:
		return storage.NewMinioUploader(ctx, storage.MinioConfig{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			Bucket:        cfg.MinioBucket,
			UseSSL:        cfg.MinioUseSSL,
			PublicBaseURL: cfg.MinioPublicBaseURL,
			Prefix:        cfg.StoragePrefix,
		})
	case config.StorageDriverS3, "":
		return storage.NewS3Uploader(storage.S3Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
			Prefix:        cfg.StoragePrefix,
		})
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
