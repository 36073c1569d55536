package repository

import (
	"context"
	"time"

	"tradyxa/internal/domain/models"
)

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type Publisher interface {
	Publish(ctx context.Context, t *models.Tick) error
	PublishBatch(ctx context.Context, ticks []*models.Tick) error
	Close() error
}

type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, t *models.Tick) error
	StoreBatch(ctx context.Context, ticks []*models.Tick) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Tick, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// SnapshotStore persists and serves per-ticker analytics snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, snap *models.TickerSnapshot) error
	Load(ctx context.Context, ticker string) (*models.TickerSnapshot, error)
	List(ctx context.Context) ([]string, error)
}

// VerdictAudit records evaluated verdicts for later analysis.
type VerdictAudit interface {
	Record(ctx context.Context, snap *models.TickerSnapshot) error
}

// VerdictEvents broadcasts evaluated verdicts to downstream consumers.
type VerdictEvents interface {
	PublishVerdict(ctx context.Context, snap *models.TickerSnapshot) error
}

type Metrics interface {
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
