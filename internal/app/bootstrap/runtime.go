package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cacheadapter "github.com/placemesh/listing-intake-service/internal/adapters/cache"
	eventadapter "github.com/placemesh/listing-intake-service/internal/adapters/events"
	httpadapter "github.com/placemesh/listing-intake-service/internal/adapters/http"
	"github.com/placemesh/listing-intake-service/internal/adapters/postgres"
	"github.com/placemesh/listing-intake-service/internal/adapters/schema"
	"github.com/placemesh/listing-intake-service/internal/adapters/security"
	"github.com/placemesh/listing-intake-service/internal/application"
	"github.com/placemesh/listing-intake-service/internal/domain"
	"github.com/placemesh/listing-intake-service/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	outbox     *eventadapter.OutboxWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping listing intake service", "http_port", cfg.HTTPPort)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := pool.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	repos := postgres.NewRepositories(pool)

	sessionVerifier, err := security.NewJWTVerifier(cfg.SessionJWTSecret)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init session verifier: %w", err)
	}
	csrfCodec, err := security.NewCSRFCodec(cfg.CSRFHashKey)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init csrf codec: %w", err)
	}

	sanitizer := schema.NewHTMLSanitizer()
	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			HoneypotField:        cfg.HoneypotField,
			GateAppliesOnEdit:    cfg.GateAppliesOnEdit,
			SubmissionLimit:      cfg.SubmissionLimit,
			SubmissionWindow:     cfg.SubmissionWindow,
			RequireTitle:         cfg.RequireTitle,
			RequireContent:       cfg.RequireContent,
			RequireCategory:      cfg.RequireCategory,
			RequireFeaturedImage: cfg.RequireFeaturedImage,
			MinContentLength:     cfg.MinContentLength,
			MaxUploadBytes:       cfg.MaxUploadBytes,
			AllowedImageTypes:    cfg.AllowedImageTypes,
			DefaultStatus:        domain.ListingStatus(cfg.DefaultStatus),
			ElevatedRoles:        cfg.ElevatedRoles,
			AnonymousHashKey:     cfg.AnonymousHashKey,
			FlashTTL:             cfg.FlashTTL,
		},
		Listings:  repos.Listings,
		Media:     repos.Attachments,
		Outbox:    repos.Outbox,
		Limiter:   cacheadapter.NewRedisRateLimitStore(redisClient),
		Flash:     cacheadapter.NewRedisFlashStore(redisClient),
		Schema:    schema.NewRegistry(sanitizer),
		Sanitizer: sanitizer,
		Sessions:  sessionVerifier,
		Timing:    security.NewTimingToken(cfg.FormTokenSecret, cfg.MinFormElapsed, cfg.MaxFormTokenAge),
		Resolver:  security.NewProxyResolver(cfg.TrustedProxies),
		CSRF:      csrfCodec,
	})

	handler := httpadapter.NewHandler(svc, httpadapter.HandlerConfig{
		MaxUploadBytes: cfg.MaxUploadBytes,
		BurstPerMinute: cfg.BurstPerMinute,
		Burst:          cfg.Burst,
	})
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var publisher ports.EventPublisher
	var closePublisher func() error
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			"listing.submitted":        "listings.submissions",
			"submission.spam_rejected": "listings.spam-audit",
		})
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		publisher = kafkaPublisher
		closePublisher = kafkaPublisher.Close
	} else {
		logger.Warn("no kafka brokers configured; events are logged only")
		publisher = eventadapter.NewLoggingPublisher(logger)
	}

	outbox := eventadapter.NewOutboxWorker(
		logger,
		repos.Outbox,
		publisher,
		cfg.OutboxPollInterval,
		cfg.OutboxBatchSize,
		cfg.OutboxClaimTTL,
		cfg.OutboxMaxRetries,
	)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		outbox:     outbox,
		cleanupFn: func(ctx context.Context) {
			if closePublisher != nil {
				_ = closePublisher()
			}
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("outbox worker started")
	err := r.outbox.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}
