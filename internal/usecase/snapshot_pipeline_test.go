package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"tradyxa/internal/domain/models"
	domrepo "tradyxa/internal/domain/repository"
	"tradyxa/internal/services/slippage"
	"tradyxa/internal/services/synthetic"
	"tradyxa/internal/verdict"
	"tradyxa/pkg/config"
	"tradyxa/pkg/logger"
)

type memSnapshotStore struct {
	mu    sync.Mutex
	snaps map[string]*models.TickerSnapshot
}

func newMemSnapshotStore() *memSnapshotStore {
	return &memSnapshotStore{snaps: map[string]*models.TickerSnapshot{}}
}

func (s *memSnapshotStore) Save(_ context.Context, snap *models.TickerSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.Ticker] = snap
	return nil
}

func (s *memSnapshotStore) Load(_ context.Context, ticker string) (*models.TickerSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[ticker]
	if !ok {
		return nil, fmt.Errorf("no snapshot for %s", ticker)
	}
	return snap, nil
}

func (s *memSnapshotStore) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.snaps))
	for t := range s.snaps {
		out = append(out, t)
	}
	return out, nil
}

var _ domrepo.SnapshotStore = (*memSnapshotStore)(nil)

type failingFeatureStore struct{}

func (failingFeatureStore) GetCandles(context.Context, string, time.Time, time.Time, domrepo.Timeframe) ([]models.Candle, error) {
	return nil, fmt.Errorf("store down")
}

func (failingFeatureStore) GetLatestNCandles(context.Context, string, int, domrepo.Timeframe) ([]models.Candle, error) {
	return nil, fmt.Errorf("store down")
}

func testPipelineConfig(tickers ...string) *config.Config {
	cfg := &config.Config{}
	cfg.Environment = "test"
	cfg.Backend.Type = "clickhouse"
	cfg.Pipeline.Tickers = tickers
	cfg.Pipeline.DataDir = "/tmp"
	cfg.Pipeline.NotionalSizes = []float64{100_000, 250_000}
	cfg.Pipeline.Workers = 2
	cfg.Pipeline.Synthetic.Enabled = true
	cfg.Verdict = verdict.DefaultConfig()
	return cfg
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestPipeline(t *testing.T, cfg *config.Config, snaps domrepo.SnapshotStore) *SnapshotPipeline {
	t.Helper()
	gen := &synthetic.Generator{Bars: 200, StartPrice: 500}
	return NewSnapshotPipeline(nil, snaps, nil, nil, nil, gen, slippage.NewEstimator(), cfg, testLogger(t))
}

func TestBuildSnapshot_SyntheticPath(t *testing.T) {
	cfg := testPipelineConfig("NIFTY")
	p := newTestPipeline(t, cfg, newMemSnapshotStore())

	snap, err := p.BuildSnapshot(context.Background(), "NIFTY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Ticker != "NIFTY" {
		t.Fatalf("wrong ticker: %s", snap.Ticker)
	}
	if snap.Meta.Source != "synthetic" {
		t.Fatalf("expected synthetic source, got %s", snap.Meta.Source)
	}
	if snap.Meta.Bars != 200 {
		t.Fatalf("expected 200 bars, got %d", snap.Meta.Bars)
	}
	if len(snap.Slippage) != 2 || len(snap.MonteCarlo) != 2 {
		t.Fatalf("expected slippage ladder per notional, got %d/%d", len(snap.Slippage), len(snap.MonteCarlo))
	}
	if snap.Sizing < 0 || snap.Sizing > 1 {
		t.Fatalf("sizing multiplier out of range: %v", snap.Sizing)
	}
	if len(snap.Verdict.Components) != 4 {
		t.Fatalf("expected 4 components without enrichment, got %d", len(snap.Verdict.Components))
	}
	if !snap.Verdict.Samples.IsBreakdown() {
		t.Fatal("pipeline must report per-source sample counts")
	}
	if snap.Regime != nil || snap.Meta.EnrichApplied {
		t.Fatal("no enrichment configured, none must be applied")
	}
}

func TestRun_PersistsSnapshot(t *testing.T) {
	cfg := testPipelineConfig("NIFTY")
	snaps := newMemSnapshotStore()
	p := newTestPipeline(t, cfg, snaps)

	snap, err := p.Run(context.Background(), "NIFTY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, err := snaps.Load(context.Background(), "NIFTY")
	if err != nil {
		t.Fatalf("snapshot not persisted: %v", err)
	}
	if stored.Verdict.Direction != snap.Verdict.Direction {
		t.Fatal("stored snapshot differs from returned one")
	}
}

func TestRunAll_RefreshesEveryTicker(t *testing.T) {
	cfg := testPipelineConfig("NIFTY", "BANKNIFTY", "RELIANCE")
	snaps := newMemSnapshotStore()
	p := newTestPipeline(t, cfg, snaps)

	if err := p.RunAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := snaps.List(context.Background())
	if len(got) != 3 {
		t.Fatalf("expected 3 snapshots, got %d (%v)", len(got), got)
	}
}

func TestBuildSnapshot_FallsBackWhenStoreFails(t *testing.T) {
	cfg := testPipelineConfig("NIFTY")
	cfg.Pipeline.Synthetic.Enabled = false
	snaps := newMemSnapshotStore()
	gen := &synthetic.Generator{Bars: 200, StartPrice: 500}
	p := NewSnapshotPipeline(failingFeatureStore{}, snaps, nil, nil, nil, gen, slippage.NewEstimator(), cfg, testLogger(t))

	snap, err := p.BuildSnapshot(context.Background(), "NIFTY")
	if err != nil {
		t.Fatalf("store failure must fall back to synthetic: %v", err)
	}
	if snap.Meta.Source != "synthetic" {
		t.Fatalf("expected synthetic fallback, got %s", snap.Meta.Source)
	}
}
