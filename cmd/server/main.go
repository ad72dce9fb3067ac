package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/auth"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/config"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/database"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/events"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/pubsub"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/realtime"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/repository"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/router"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, envFile, addr string

	flagSet := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "YAML file overlaid on the environment configuration")
	flagSet.StringVar(&envFile, "env-file", "", "load variables from this .env file before reading the environment")
	flagSet.StringVar(&addr, "addr", "", "listen address (default: :$PORT)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// Load configuration
	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}
	}
	cfg := config.Load()
	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			return err
		}
	}
	if addr == "" {
		addr = ":" + cfg.Port
	}

	logger := newLogger(cfg)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	if err := database.MigrateDatabase(db); err != nil {
		return err
	}

	bus, err := newBus(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer bus.Close()

	roomRepo := repository.NewRoomRepository(db)
	proposalRepo := repository.NewProposalRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)

	authenticator := auth.NewAuthenticator(auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL), userRepo)
	gateway := realtime.NewGateway(bus, services.NewMembership(roomRepo), authenticator, realtime.Options{
		AllowedOrigins: cfg.AllowedOrigins,
	}, logger)
	defer gateway.Shutdown()

	dispatcher := events.NewDispatcher()
	notificationService := services.NewNotificationService(notificationRepo, userRepo, roomRepo, bus, dispatcher, logger)
	friendshipService := services.NewFriendshipService(friendshipRepo, userRepo, notificationService, logger)
	friendshipService.RegisterHandlers(dispatcher)

	r := router.NewRouter(router.Deps{
		Rooms:          services.NewRoomService(roomRepo, notificationService, gateway, logger),
		Proposals:      services.NewProposalService(roomRepo, proposalRepo, notificationService, gateway, logger),
		Friendships:    friendshipService,
		Notifications:  notificationService,
		Users:          services.NewUserService(userRepo, gateway, logger),
		Authenticator:  authenticator,
		Gateway:        gateway,
		AllowedOrigins: cfg.AllowedOrigins,
		DevLogin:       cfg.DevLogin,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr, "db_driver", cfg.DBDriver, "pubsub_driver", cfg.PubSubDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func newBus(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pubsub.Bus, error) {
	switch cfg.PubSubDriver {
	case "memory", "":
		return pubsub.NewMemoryBus(), nil
	case "redis":
		return pubsub.NewRedisBus(cfg.RedisAddr(), cfg.RedisPassword, logger)
	case "postgres":
		dsn := cfg.DBDSN
		if cfg.DBDriver != "postgres" || dsn == "" {
			dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
				cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		}
		return pubsub.NewPostgresBus(ctx, dsn, logger)
	default:
		return nil, fmt.Errorf("unsupported pubsub driver %q", cfg.PubSubDriver)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
