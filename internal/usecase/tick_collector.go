package usecase

import (
	"context"

	"tradyxa/internal/domain/models"
	drepo "tradyxa/internal/domain/repository"
	mid "tradyxa/internal/middleware"
)

// TickCollector collects ticks from the market stream and processes them.
type TickCollector struct {
	stream  drepo.MarketStream
	proc    *TickProcessor
	metrics drepo.Metrics
	pipe    *mid.RealtimePipeline
}

// NewTickCollector creates a new TickCollector instance.
func NewTickCollector(stream drepo.MarketStream, proc *TickProcessor, metrics drepo.Metrics, pipe *mid.RealtimePipeline) *TickCollector {
	return &TickCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the market stream is connected.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	tkCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tkCh, errCh)
	return nil
}

func (c *TickCollector) consume(ctx context.Context, tkCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case t := <-tkCh:
			if t == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, t)
			} else {
				_ = c.proc.Process(ctx, t)
			}
			c.metrics.RecordLastPrice(t.Symbol, t.Price)
		}
	}
}

func (c *TickCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying TickProcessor for lifecycle management.
func (c *TickCollector) Processor() *TickProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *TickCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
