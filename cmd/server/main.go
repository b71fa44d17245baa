// Command smartbin-server starts the detection-to-reward pipeline server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/ecosort/smartbin/internal/config"
	"github.com/ecosort/smartbin/internal/dedupe"
	"github.com/ecosort/smartbin/internal/ingest"
	"github.com/ecosort/smartbin/internal/metrics"
	"github.com/ecosort/smartbin/internal/migrate"
	"github.com/ecosort/smartbin/internal/repository/postgres"
	"github.com/ecosort/smartbin/internal/server/httpapi"
	"github.com/ecosort/smartbin/internal/service"
	"github.com/ecosort/smartbin/internal/session"
	"github.com/ecosort/smartbin/internal/stats"
	"github.com/ecosort/smartbin/internal/ws"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, runs migrations, connects the device channel,
// and serves HTTP until interrupted.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.ListenAddr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer pool.Close()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// Repositories
	db := &postgres.DB{Pool: pool}
	ledgerRepo := postgres.NewLedgerRepo(db)
	userRepo := postgres.NewUserRepo(db)
	detectionLog := postgres.NewDetectionLogRepo(db)

	// In-memory state
	sessions := session.NewRegistry()
	aggregator := stats.NewAggregator(cfg.HistoryCapacity)
	hub := ws.NewHub(logger)

	// Optional dedupe window over Redis
	var (
		ddp         dedupe.Deduper = dedupe.Noop{}
		redisPing   httpapi.Pinger
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ddp = dedupe.NewRedis(redisClient, cfg.DedupeWindow)
		redisPing = redisPinger{redisClient}
		logger.Info("dedupe enabled",
			zap.String("redis", cfg.RedisAddr),
			zap.Duration("window", cfg.DedupeWindow),
		)
	}

	// Services
	rewardsSvc := service.NewRewardsService(ledgerRepo, sessions, hub)
	gateway := ingest.New(logger, aggregator, sessions, ledgerRepo, hub, ddp, detectionLog)

	// Device channel
	opts := ingest.NewClientOptions(cfg.MQTT, logger, func(c mqtt.Client) {
		if err := gateway.Subscribe(ctx, c); err != nil {
			logger.Error("subscribe", zap.Error(err))
		}
	})
	mqttClient := mqtt.NewClient(opts)
	go func() {
		// ConnectRetry keeps trying until the broker is reachable; the HTTP
		// surface stays up in the meantime.
		if tok := mqttClient.Connect(); tok.Wait() && tok.Error() != nil {
			logger.Error("mqtt connect", zap.Error(tok.Error()))
		}
	}()

	srv := httpapi.New(httpapi.Deps{
		Log:     logger,
		Rewards: rewardsSvc,
		Stats:   aggregator,
		Users:   userRepo,
		Auth:    httpapi.NewAuthenticator([]byte(cfg.JWTKey)),
		WS:      hub.Handler(),
		DB:      pool,
		Redis:   redisPing,
		MQTT:    mqttClient,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.Start(cfg.ListenAddr)
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
		mqttClient.Disconnect(250)
		if redisClient != nil {
			_ = redisClient.Close()
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}

// redisPinger adapts the redis client to the health endpoint's Pinger.
type redisPinger struct{ c *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.c.Ping(ctx).Err() }
