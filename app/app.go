// Package app wires the reference collector: HTTP ingestion, the Redpanda
// backed worker pool and ClickHouse storage.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/leshachaplin/tracklog/app/waiter"
	"github.com/leshachaplin/tracklog/internal/config"
	"github.com/leshachaplin/tracklog/internal/domain"
	appServer "github.com/leshachaplin/tracklog/internal/server/http"
	"github.com/leshachaplin/tracklog/internal/service"
	"github.com/leshachaplin/tracklog/internal/storage/event/clickhouse"
	"github.com/leshachaplin/tracklog/internal/worker"
	"github.com/leshachaplin/tracklog/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/tracklog/internal/worker/redpanda/producer"
)

const (
	serviceName     = "tracklog-collector"
	defaultAddr     = ":8080"
	shutdownTimeout = time.Minute
)

type LoadConfigFn func() (config.Config, error)

type App struct {
	cfg      config.Config
	logger   zerolog.Logger
	server   *appServer.Server
	waiter   waiter.Waiter
	ctx      context.Context
	cancelFn context.CancelFunc
}

func New(loadConfigFn LoadConfigFn) *App {
	ctx, cancelFn := context.WithCancel(context.Background())
	cfg, err := loadConfigFn()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}

	logger := NewZeroLogger(Level(cfg.LogLevel))

	w := waiter.NewWaiter(ctx, cancelFn)

	return &App{
		cfg:      cfg,
		logger:   logger,
		waiter:   w,
		ctx:      w.Context(),
		cancelFn: w.CancelFunc(),
	}
}

func (a *App) Start() {
	defer a.cancelFn()

	if a.cfg.Tracing {
		shutdownTracer, err := initTracer()
		if err != nil {
			a.logger.Fatal().Err(err).Msg("Could not setup tracing.")
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(ctx); err != nil {
				a.logger.Warn().Err(err).Msg("could not flush traces")
			}
		}()
	}

	eventStorage, err := clickhouse.New(a.ctx, a.cfg.Clickhouse)
	if err != nil {
		a.logger.Fatal().Err(err).Msg("Could not setup event storage.")
	}
	defer eventStorage.Close()

	if err = eventStorage.Migrate(a.ctx); err != nil {
		a.logger.Fatal().Err(err).Msg("Could not migrate event storage.")
	}

	consumerErrorChan := make(chan error, 1)
	eventConsumer, err := consumer.NewConsumer(a.cfg.EventConsumer, consumerErrorChan)
	if err != nil {
		a.logger.Fatal().Err(err).Msg("Could not setup event consumer.")
	}
	defer eventConsumer.Close()

	eventProducer, err := producer.NewProducer(
		a.ctx,
		a.cfg.EventProducer,
		a.logger.With().Str("event producer", "Publish").Logger(),
	)
	if err != nil {
		a.logger.Fatal().Err(err).Msg("Could not setup event producer.")
	}
	defer eventProducer.Close()

	eventQueue := worker.NewRedpandaQueue[domain.Batch](eventProducer, eventConsumer)
	l := a.logger.With().Str("WORKER", "EVENT").Logger()
	eventWorker := worker.New[domain.Batch](a.ctx, a.cfg.EventWorker, eventQueue, l)

	ingest := service.New(a.cfg.Token, eventWorker, eventStorage, a.logger)
	handler := appServer.NewHandler(ingest, a.logger)

	a.server = appServer.New(handler)

	a.waitForServer()
	a.waitForWorker(eventWorker)
	a.waitForConsumerErrors(consumerErrorChan)

	if err = a.waiter.Wait(); err != nil {
		a.logger.Fatal().Err(err).Msg("App crash.")
	}
}

func (a *App) Stop() {
	a.cancelFn()
}

func (a *App) middlewares() []func(http.Handler) http.Handler {
	if !a.cfg.Tracing {
		return nil
	}
	return []func(http.Handler) http.Handler{
		func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, serviceName)
		},
	}
}

func (a *App) waitForServer() {
	a.waiter.Add(func(ctx context.Context) error {
		defer a.logger.Debug().Msg("server has been shutdown")

		group, gCtx := errgroup.WithContext(ctx)
		group.Go(func() error {
			defer a.logger.Debug().Msg("public server exited")
			a.logger.Info().Str("addr", a.cfg.Addr).Msg("starting server")
			err := a.server.ServePublic(a.cfg.Addr, a.middlewares()...)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		group.Go(func() error {
			<-gCtx.Done()
			a.logger.Debug().Msg("shutting down the server")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := a.server.ShutdownPublic(ctx); err != nil {
				a.logger.Warn().Err(err).Msg("error while shutting down the server")
			}
			return nil
		})

		return group.Wait()
	})
}

func (a *App) waitForWorker(eventWorker worker.WorkerPool[domain.Batch]) {
	a.waiter.Add(func(ctx context.Context) error {
		<-ctx.Done()
		eventWorker.GracefulStop()
		return nil
	})
}

func (a *App) waitForConsumerErrors(errs <-chan error) {
	a.waiter.Add(func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case err := <-errs:
				a.logger.Error().Err(err).Msg("event consumer")
			}
		}
	})
}
