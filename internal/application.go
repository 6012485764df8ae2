package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-server/internal/config"
	"github.com/rocketscienceinc/tictactoe-server/internal/repository"
	"github.com/rocketscienceinc/tictactoe-server/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-server/internal/service"
	"github.com/rocketscienceinc/tictactoe-server/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-server/transport/bus"
	"github.com/rocketscienceinc/tictactoe-server/transport/rest"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application until SIGINT or SIGTERM.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var redisStorage *redis.Client
	if conf.NeedsRedis() {
		redisAddrString := conf.Redis.GetRedisAddr()
		if conf.Redis.Host == "" {
			return ErrAddrNotFound
		}

		var err error
		redisStorage, err = storage.New(ctx, redisAddrString, conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()
	}

	accountRepo := repository.NewMemoryAccountRepository()
	if conf.Accounts.Storage == config.StorageRedis {
		accountRepo = repository.NewRedisAccountRepository(redisStorage)
	}

	accountService := service.NewAccountService(logger, accountRepo)
	gameRegistry := usecase.NewGameRegistry(logger, accountService, repository.NewGameRepository())

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		httpServer := rest.NewServer(logger, conf.HTTP.Port, rest.Timeouts{
			Read:    conf.HTTP.ReadTimeout,
			Write:   conf.HTTP.WriteTimeout,
			Idle:    conf.HTTP.IdleTimeout,
			Handler: conf.HTTP.HandlerTimeout,
		}, gameRegistry, accountService)

		log.Info("Starting HTTP server", "port", conf.HTTP.Port)
		httpErrCh <- httpServer.Start(ctx)
	}()

	// run message bus
	busErrCh := make(chan error, 1)
	if conf.Bus.Enabled {
		go func() {
			busServer := bus.New(logger, redisStorage, bus.Options{
				RequestChannel: conf.Bus.RequestChannel,
				ReplyChannel:   conf.Bus.ReplyChannel,
				Prefix:         conf.Bus.Prefix,
			}, gameRegistry, accountService)

			log.Info("Starting message bus", "channel", conf.Bus.RequestChannel)
			busErrCh <- busServer.Start(ctx)
		}()
	}

	select {
	case err := <-httpErrCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case err := <-busErrCh:
		if err != nil {
			return fmt.Errorf("message bus error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		// let the HTTP server finish its graceful shutdown
		if err := <-httpErrCh; err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	}
}
