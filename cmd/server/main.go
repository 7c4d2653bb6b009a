package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/auth-service/internal/auth"
	"github.com/iliyamo/auth-service/internal/config"
	"github.com/iliyamo/auth-service/internal/database"
	"github.com/iliyamo/auth-service/internal/handler"
	"github.com/iliyamo/auth-service/internal/logging"
	"github.com/iliyamo/auth-service/internal/metrics"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/queue"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/router"
	"github.com/iliyamo/auth-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	// A broken auth core must stop startup, not fail per request.
	hasher, err := auth.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.TokenTTL,
	})
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	users := repository.NewUserRepo(db)
	verifier, err := auth.NewCredentialVerifier(users, hasher)
	if err != nil {
		return err
	}
	gw := auth.NewGateway(tokens, router.UserVoters()...)
	m := metrics.New()

	rlCfg := config.LoadRateLimitConfig()
	var rdb *redis.Client
	if rlCfg.Enabled {
		rdb, err = config.NewRedisClient(ctx, config.LoadRedisConfig())
		if err != nil {
			log.WithError(err).Warn("redis unavailable; login rate limiting disabled")
		} else {
			defer rdb.Close()
		}
	}
	limiter := middleware.NewTokenBucket(rlCfg, rdb, log)

	g, ctx := errgroup.WithContext(ctx)

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		d := service.NewDispatcher(service.AMQPPublisher{URL: cfg.AMQPURL}, log, 256)
		g.Go(func() error { return d.Run(ctx) })
		events = d
	}
	if cfg.AuditConsumerEnabled {
		g.Go(func() error {
			if err := queue.StartAuditConsumer(ctx, cfg.AMQPURL, log); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	e := router.New(log)
	router.RegisterRoutes(e)
	router.RegisterMetrics(e, m.Handler())
	router.RegisterAuth(e, &handler.AuthHandler{
		Registrar: auth.NewRegistrar(users, hasher, cfg.DefaultRoles),
		Verifier:  verifier,
		Tokens:    tokens,
		Events:    events,
		Metrics:   m,
		Log:       log,
	}, limiter)
	router.RegisterUsers(e, &handler.UsersHandler{Users: users}, gw, log, m)

	addr := ":" + cfg.Port
	g.Go(func() error {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
