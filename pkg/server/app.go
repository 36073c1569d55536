package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradyxa/internal/usecase"
	pkgch "tradyxa/pkg/clickhouse"
	"tradyxa/pkg/config"
	xhttp "tradyxa/pkg/http"
	pkgkafka "tradyxa/pkg/kafka"
	applogger "tradyxa/pkg/logger"
	"tradyxa/pkg/queue"
)

const defaultRefreshInterval = 5 * time.Minute

// App encapsulates the entire application lifecycle: the tick collector, the
// Kafka consumer, the periodic snapshot refresher and the HTTP API.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	collector   *usecase.TickCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	pipeline    *usecase.SnapshotPipeline
	refreshQ    *queue.RedisQueue
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	TickProc    *usecase.TickProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	pipeline *usecase.SnapshotPipeline,
	refreshQ *queue.RedisQueue,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		pipeline:  pipeline,
		refreshQ:  refreshQ,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Live tick ingestion only runs when a stream key is configured;
	// synthetic-only deployments serve snapshots without it.
	if a.collector != nil && a.cfg.Stream.APIKey != "" {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.log.Error("collector error", applogger.Error(err))
			}
		}()
		a.log.Info("collector started", applogger.Strings("symbols", a.cfg.Stream.Symbols))
	}

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start the refresh queue workers when redis is wired.
	if a.refreshQ != nil {
		if err := a.refreshQ.Start(); err != nil {
			a.log.Error("refresh queue start error", applogger.Error(err))
			a.refreshQ = nil
		}
	}

	// Periodic snapshot refresher.
	if a.pipeline != nil {
		go a.refreshLoop(ctx)
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// refreshLoop rebuilds every configured ticker snapshot on an interval. With
// redis wired, tickers are enqueued as jobs so failures retry with backoff;
// otherwise the pipeline fans out in-process.
func (a *App) refreshLoop(ctx context.Context) {
	interval := a.cfg.Pipeline.RefreshInterval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}

	a.refreshAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.refreshAll(ctx)
		}
	}
}

func (a *App) refreshAll(ctx context.Context) {
	if a.refreshQ != nil {
		job := usecase.SnapshotRefreshJob{}
		for _, t := range a.cfg.Pipeline.Tickers {
			if err := a.refreshQ.Enqueue(ctx, job.Type(), usecase.RefreshPayload{Ticker: t}); err != nil {
				a.log.Error("enqueue refresh error", applogger.String("ticker", t), applogger.Error(err))
			}
		}
		return
	}
	if err := a.pipeline.RunAll(ctx); err != nil {
		a.log.Error("snapshot refresh error", applogger.Error(err))
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.log.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.log.Warn("collector stop error", applogger.Error(err))
		}
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	// Stop refresh queue workers
	if a.refreshQ != nil {
		if err := a.refreshQ.Stop(shutdownCtx); err != nil {
			a.log.Warn("refresh queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Close tick processor resources (publisher/storage)
	if a.TickProc != nil {
		a.TickProc.Close()
	}

	a.log.Info("shutdown complete")
	return nil
}
