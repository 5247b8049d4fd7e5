package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fekuna/omnipos-storefront/config"
	"github.com/fekuna/omnipos-storefront/internal/bootstrap"
	"github.com/fekuna/omnipos-storefront/internal/catalog/listener"
	"github.com/fekuna/omnipos-storefront/internal/gateway"
	"github.com/fekuna/omnipos-storefront/internal/localstore"
	"github.com/fekuna/omnipos-storefront/internal/server"
	"github.com/fekuna/omnipos-storefront/internal/session"
	"github.com/fekuna/omnipos-storefront/internal/state"
	"github.com/fekuna/omnipos-storefront/pkg/broker"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Open the local durable store
	local, err := localstore.Open(ctx, localstore.Options{
		Driver: cfg.LocalStore.Driver,
		DSN:    cfg.LocalStore.DSN,
		Redis: localstore.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.LocalStore.Prefix,
		},
		ConnectAttempts: cfg.Remote.ConnectAttempts,
		ConnectDelay:    cfg.Remote.ConnectBaseDelay,
	})
	if err != nil {
		appLogger.Fatal("Could not open local store", zap.String("driver", cfg.LocalStore.Driver), zap.Error(err))
	}
	defer local.Close()
	appLogger.Info("Opened local store", zap.String("driver", cfg.LocalStore.Driver))

	// 4. Session guard
	guard, err := session.Open(ctx, localstore.TokenPersister{Store: local},
		session.WithMinter(session.HMACMinter{Secret: []byte(cfg.JWT.SecretKey), TTL: cfg.JWT.ElevatedTTL}),
		session.WithLogger(appLogger),
	)
	if err != nil {
		appLogger.Fatal("Could not restore session", zap.Error(err))
	}

	// 5. Gateway and state
	gw := gateway.New(ctx, gateway.Config{
		BaseURL:          cfg.Remote.BaseURL,
		Timeout:          cfg.Remote.Timeout,
		ConnectAttempts:  cfg.Remote.ConnectAttempts,
		ConnectBaseDelay: cfg.Remote.ConnectBaseDelay,
	}, guard, local, appLogger)

	store := state.NewStore(state.State{}, appLogger)

	// 6. Catalog change feed
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaConsumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		catListener := listener.NewCatalogListener(kafkaConsumer, store, appLogger)
		go catListener.Start(ctx)
	}

	// 7. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}

	grpcServer, healthServer := server.New(appLogger)

	appLogger.Info("Starting gRPC server", zap.String("port", port))
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// 8. Bootstrap
	go func() {
		bootCtx, bootCancel := context.WithTimeout(ctx, cfg.Bootstrap.Timeout)
		defer bootCancel()

		if !gw.RemoteAvailable() {
			gw.Connect(bootCtx)
		}

		boot := bootstrap.New(bootstrap.Config{PageSize: cfg.Bootstrap.PageSize}, gw, guard, store, appLogger)
		out := boot.Run(bootCtx)
		server.MarkServing(healthServer)
		appLogger.Info("Storefront ready",
			zap.Stringer("phase", out.Phase),
			zap.Bool("remote_available", gw.RemoteAvailable()),
			zap.Int("products", len(store.Snapshot().Products)),
		)
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
