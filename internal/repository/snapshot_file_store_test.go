package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tradyxa/internal/domain/models"
	"tradyxa/internal/verdict"
)

func sampleSnapshot(ticker string) *models.TickerSnapshot {
	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	return &models.TickerSnapshot{
		Ticker:      ticker,
		GeneratedAt: ts,
		Verdict: verdict.Verdict{
			Timestamp:   ts,
			Direction:   verdict.DirectionBullish,
			Points:      7.3,
			Error:       2.1,
			Confidence:  0.62,
			DataQuality: verdict.QualityGood,
			Samples:     verdict.Breakdown(120, 400, 500),
			Components: []verdict.Component{
				{Name: "momentum", Weight: 0.45, Value: 10, Contribution: 4.5},
			},
		},
		DisplayPoints: 7.3,
		Sizing:        0.55,
		Slippage: []models.SlippageEstimate{
			{Notional: 100_000, Median: 0.001, P10: 0.0005, P90: 0.002, NSamples: 120},
		},
		Meta: models.SnapshotMeta{Source: "synthetic", Bars: 500},
	}
}

func TestFileSnapshotStore_RoundTrip(t *testing.T) {
	store, err := NewFileSnapshotStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	want := sampleSnapshot("NIFTY")
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx, "NIFTY")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Ticker != want.Ticker || got.Verdict.Direction != want.Verdict.Direction {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Verdict.Points != want.Verdict.Points {
		t.Fatalf("points mismatch: %v", got.Verdict.Points)
	}
	if !got.Verdict.Samples.IsBreakdown() {
		t.Fatal("sample breakdown lost in round trip")
	}
	s, m, f := got.Verdict.Samples.Counts()
	if s != 120 || m != 400 || f != 500 {
		t.Fatalf("sample counts mismatch: %d %d %d", s, m, f)
	}
}

func TestFileSnapshotStore_WritesLadderFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileSnapshotStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Save(context.Background(), sampleSnapshot("NIFTY")); err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, name := range []string{"NIFTY.json", "NIFTY_slippage.json", "NIFTY_monte_slippage.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestFileSnapshotStore_OverwriteIsAtomic(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileSnapshotStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	first := sampleSnapshot("NIFTY")
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := sampleSnapshot("NIFTY")
	second.Verdict.Points = 99
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := store.Load(ctx, "NIFTY")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Verdict.Points != 99 {
		t.Fatalf("expected overwritten snapshot, got %v", got.Verdict.Points)
	}

	// No temp files may survive a completed save.
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("leftover temp file: %s", e.Name())
		}
	}
}

func TestFileSnapshotStore_List(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileSnapshotStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	for _, ticker := range []string{"NIFTY", "BANKNIFTY"} {
		if err := store.Save(ctx, sampleSnapshot(ticker)); err != nil {
			t.Fatalf("save %s: %v", ticker, err)
		}
	}
	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots, got %v", got)
	}
}

func TestFileSnapshotStore_LoadMissing(t *testing.T) {
	store, err := NewFileSnapshotStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Load(context.Background(), "GHOST"); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}

func TestFileSnapshotStore_RejectsEmptyTicker(t *testing.T) {
	store, err := NewFileSnapshotStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Save(context.Background(), &models.TickerSnapshot{}); err == nil {
		t.Fatal("expected error for snapshot without ticker")
	}
}
