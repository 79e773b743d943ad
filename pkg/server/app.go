package server

import (
	"context"
	"fmt"
	"time"

	"ShotTrace/internal/usecase"
	"ShotTrace/pkg/config"
	xhttp "ShotTrace/pkg/http"
	pkgkafka "ShotTrace/pkg/kafka"
	applogger "ShotTrace/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// App owns the lifecycle of the HTTP API, the analyses consumer and the
// live device collector.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	processor  *usecase.RoundProcessor
	collector  *usecase.RoundCollector
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
}

// New creates an App. collector, consumer and kh may be nil when the device
// feed or the kafka backend are disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	processor *usecase.RoundProcessor,
	collector *usecase.RoundCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{
		cfg:        cfg,
		l:          l,
		httpServer: httpServer,
		processor:  processor,
		collector:  collector,
		consumer:   consumer,
		kh:         kh,
	}
}

// Run blocks until ctx is cancelled or a component fails, then stops
// everything it started.
func (a *App) Run(ctx context.Context) error {
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.httpServer.Run(gctx) })

	if a.consumer != nil && a.kh != nil {
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, cancel := a.shutdownContext(gctx)
			defer cancel()
			return a.consumer.Stop(stopCtx)
		})
	}

	if a.collector != nil {
		g.Go(func() error {
			if !a.startCollector(gctx) {
				return nil
			}
			<-gctx.Done()
			stopCtx, cancel := a.shutdownContext(gctx)
			defer cancel()
			return a.collector.Shutdown(stopCtx)
		})
	}

	err := g.Wait()
	if a.processor != nil {
		a.processor.Close()
	}
	if err != nil {
		a.l.Error("app stopped with error", applogger.Error(err))
		return err
	}
	a.l.Info("shutdown complete")
	return nil
}

// startCollector keeps trying to reach the device gateway until it answers
// or ctx ends. The API keeps serving meanwhile.
func (a *App) startCollector(ctx context.Context) bool {
	delay := a.cfg.Device.ReconnectDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	for {
		err := a.collector.Start(ctx)
		if err == nil {
			a.l.Info("round collector started", applogger.Strings("devices", a.cfg.Device.Devices))
			return true
		}
		a.l.Error("round collector start failed", applogger.Error(err))
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
	}
}

func (a *App) shutdownContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
