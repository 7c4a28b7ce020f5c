package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tixgo/internal/auth"
	"github.com/kirinyoku/tixgo/internal/config"
	"github.com/kirinyoku/tixgo/internal/gateway/razorpay"
	"github.com/kirinyoku/tixgo/internal/mailer"
	"github.com/kirinyoku/tixgo/internal/mq"
	"github.com/kirinyoku/tixgo/internal/obs"
	"github.com/kirinyoku/tixgo/internal/postgres"
	redisx "github.com/kirinyoku/tixgo/internal/redis"
	postgresrepo "github.com/kirinyoku/tixgo/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/tixgo/internal/repository/redis"
	"github.com/kirinyoku/tixgo/internal/service"
	"github.com/kirinyoku/tixgo/internal/service/admin"
	"github.com/kirinyoku/tixgo/internal/service/checkout"
	"github.com/kirinyoku/tixgo/internal/service/payment"
	"github.com/kirinyoku/tixgo/internal/service/query"
	"github.com/kirinyoku/tixgo/internal/ticketpdf"
	httpgin "github.com/kirinyoku/tixgo/internal/transport/http/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server

	pool           *pgxpool.Pool
	rdb            *redis.Client
	cache          *redisrepo.Cache
	pubsub         *redisrepo.ChangesPubSub
	publisher      *mq.Publisher
	shutdownTracer func(context.Context) error
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	shutdownTracer, err := obs.InitTracer(ctx, obs.Config{
		ServiceName: cfg.OTel.ServiceName,
		Version:     cfg.Version,
		Environment: cfg.Env,
		Endpoint:    cfg.OTel.ExporterOTLPEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// Initialize dependencies
	pgxPool, err := postgres.New(ctx, postgres.Config{
		DSN:      cfg.Postgres.DSN(),
		MaxConns: cfg.Postgres.MaxConns,
	})
	if err != nil {
		_ = shutdownTracer(ctx)
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redisx.New(ctx, redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		pgxPool.Close()
		_ = shutdownTracer(ctx)
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewChangesPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "orders", cfg.Orders.RateLimit, cfg.Orders.RateWindow)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, cfg.Idempotency.TTL)

	// Initialize adapters
	if cfg.Razorpay.KeyID == "" || cfg.Razorpay.KeySecret == "" {
		logger.Warn("razorpay credentials missing, payment endpoints will fail")
	}
	gw := razorpay.New(razorpay.Config{
		KeyID:     cfg.Razorpay.KeyID,
		KeySecret: cfg.Razorpay.KeySecret,
	})

	renderer := ticketpdf.New(ticketpdf.Config{
		Brand:     cfg.Ticket.Brand,
		VerifyURL: cfg.Ticket.VerifyURL,
	})

	mail := mailer.New(mailer.Config{
		APIKey:  cfg.Resend.APIKey,
		From:    cfg.Resend.From,
		Timeout: cfg.Resend.Timeout,
	}, logger)

	deps := service.Deps{
		Store:    store,
		Cache:    cache,
		PubSub:   pubsub,
		Gateway:  gw,
		Renderer: renderer,
		Mailer:   mail,
	}

	var publisher *mq.Publisher
	if cfg.AMQP.URL != "" {
		publisher, err = mq.NewPublisher(cfg.AMQP.URL, mq.ExchangeBookings)
		if err != nil {
			// booking events are optional
			logger.Warn("amqp unavailable, booking events disabled", slog.String("error", err.Error()))
		} else {
			deps.Publisher = publisher
		}
	}

	// Initialize services
	services := service.NewServices(deps, service.Config{
		Checkout: checkout.Config{MaxAmount: cfg.Orders.MaxAmount},
		Payment:  payment.Config{SignatureSecret: cfg.Razorpay.KeySecret},
		Query: query.Config{
			EventSummaryTTL: cfg.Cache.EventTTL,
			EventListTTL:    cfg.Cache.EventListTTL,
		},
		Admin: admin.Config{AnalyticsTTL: cfg.Cache.AnalyticsTTL},
		Auth: auth.Config{
			Username:     cfg.Admin.Username,
			PasswordHash: cfg.Admin.PasswordHash,
			Secret:       cfg.Admin.JWTSecret,
			TokenTTL:     cfg.Admin.TokenTTL,
		},
	}, logger)

	// Initialize Gin router
	router := httpgin.NewRouter(services, httpgin.RouterDeps{
		Idempotency: idempotencyStore,
		OrderLimit:  limiter,
	}, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    cfg.Server.Addr(),
			Handler: router,
		},
		pool:           pgxPool,
		rdb:            rdb,
		cache:          cache,
		pubsub:         pubsub,
		publisher:      publisher,
		shutdownTracer: shutdownTracer,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "addr", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Cache invalidation from other instances
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, a.onChange)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("changes subscription: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	err := g.Wait()
	a.close()
	return err
}

func (a *App) onChange(ctx context.Context, c redisrepo.Change) {
	if err := a.cache.Apply(ctx, c); err != nil {
		a.logger.Warn("cache invalidation failed",
			slog.String("type", c.Type),
			slog.Int64("event_id", c.EventID),
			slog.String("error", err.Error()),
		)
	}
}

func (a *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.publisher != nil {
		_ = a.publisher.Close()
	}
	_ = a.rdb.Close()
	a.pool.Close()
	if err := a.shutdownTracer(ctx); err != nil {
		a.logger.Warn("tracer shutdown", slog.String("error", err.Error()))
	}
}
