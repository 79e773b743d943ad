package usecase

import (
	"context"
	"time"

	"ShotTrace/internal/domain/models"
	drepo "ShotTrace/internal/domain/repository"
	mid "ShotTrace/internal/middleware"
)

// RoundCollector reads the live device feed and pushes frames through the
// device pipeline into the assembler.
type RoundCollector struct {
	stream    drepo.DeviceStream
	assembler *RoundAssembler
	metrics   drepo.Metrics
	pipe      *mid.DevicePipeline
	maxIdle   time.Duration
}

func NewRoundCollector(stream drepo.DeviceStream, assembler *RoundAssembler, metrics drepo.Metrics, pipe *mid.DevicePipeline, maxIdle time.Duration) *RoundCollector {
	if maxIdle <= 0 {
		maxIdle = 6 * time.Hour
	}
	return &RoundCollector{stream: stream, assembler: assembler, metrics: metrics, pipe: pipe, maxIdle: maxIdle}
}

func (c *RoundCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *RoundCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	msgCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, msgCh, errCh)
	go c.evictLoop(ctx)
	return nil
}

func (c *RoundCollector) consume(ctx context.Context, msgCh <-chan *models.DeviceMessage, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				c.metrics.RecordError("stream")
				if !c.reconnect(ctx) {
					return
				}
				msgCh, errCh = c.stream.Read(ctx)
			}
		case m, ok := <-msgCh:
			if !ok {
				msgCh = nil
				continue
			}
			if m == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, m)
			} else {
				_ = c.assembler.Handle(ctx, m)
			}
		}
	}
}

// reconnect keeps retrying until it succeeds or ctx is done. The stream
// applies its own reconnect delay.
func (c *RoundCollector) reconnect(ctx context.Context) bool {
	for ctx.Err() == nil {
		if err := c.stream.Reconnect(ctx); err == nil {
			return true
		}
		c.metrics.RecordError("stream_reconnect")
	}
	return false
}

func (c *RoundCollector) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(c.maxIdle / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.evictIdle()
		}
	}
}

func (c *RoundCollector) evictIdle() {
	for _, id := range c.assembler.EvictIdle(c.maxIdle) {
		if c.pipe != nil {
			c.pipe.Forget(id)
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *RoundCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
