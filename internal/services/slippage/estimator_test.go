package slippage

import (
	"math"
	"reflect"
	"testing"
	"time"

	"tradyxa/internal/domain/models"
)

func mkRows(n int, close, volume, vol float64) []models.FeatureRow {
	base := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	rows := make([]models.FeatureRow, n)
	for i := range rows {
		rows[i] = models.FeatureRow{
			Bucket:     base.Add(time.Duration(i) * 5 * time.Minute),
			Symbol:     "TEST",
			Close:      close,
			Volume:     volume,
			Volatility: vol,
		}
	}
	return rows
}

func TestDeterministic_Reproducible(t *testing.T) {
	e := NewEstimator()
	rows := mkRows(100, 200, 50000, 0.002)
	a := e.Deterministic(rows, 250_000)
	b := e.Deterministic(rows, 250_000)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same input must yield identical estimate: %+v vs %+v", a, b)
	}
}

func TestDeterministic_LargerNotionalCostsMore(t *testing.T) {
	e := NewEstimator()
	rows := mkRows(100, 200, 50000, 0) // no noise
	small := e.Deterministic(rows, 100_000)
	big := e.Deterministic(rows, 1_000_000)
	if big.Median <= small.Median {
		t.Fatalf("impact must grow with notional: %v vs %v", small.Median, big.Median)
	}
}

func TestDeterministic_NonNegativeAndOrderedPercentiles(t *testing.T) {
	e := NewEstimator()
	rows := mkRows(60, 150, 20000, 0.01)
	est := e.Deterministic(rows, 500_000)
	if est.P10 < 0 || est.Median < 0 || est.P90 < 0 {
		t.Fatalf("impact must be non-negative: %+v", est)
	}
	if est.P10 > est.Median || est.Median > est.P90 {
		t.Fatalf("percentiles out of order: %+v", est)
	}
	if est.NSamples != 60 {
		t.Fatalf("expected 60 samples, got %d", est.NSamples)
	}
}

func TestDeterministic_LowDataFlags(t *testing.T) {
	e := NewEstimator()

	thin := e.Deterministic(mkRows(5, 200, 50000, 0), 100_000)
	if !thin.LowData {
		t.Fatal("fewer than 10 bars must flag low data")
	}

	// Notional far beyond average dollar volume.
	rows := mkRows(100, 10, 100, 0) // avg dv = 1000
	huge := e.Deterministic(rows, 1_000_000)
	if !huge.LowData {
		t.Fatal("notional above 10x average dollar volume must flag low data")
	}

	ok := e.Deterministic(mkRows(100, 200, 50000, 0), 100_000)
	if ok.LowData {
		t.Fatal("ample data must not flag low data")
	}
}

func TestDeterministic_EmptyInputFallsBack(t *testing.T) {
	e := NewEstimator()
	est := e.Deterministic(nil, 100_000)
	if est.NSamples == 0 {
		t.Fatal("fallback must produce samples")
	}
	if est.Median != e.FallbackCost {
		t.Fatalf("expected fallback cost %v, got %v", e.FallbackCost, est.Median)
	}
}

func TestMonteCarlo_SeededByNotional(t *testing.T) {
	e := NewEstimator()
	rows := mkRows(100, 200, 50000, 0.002)
	a := e.MonteCarlo(rows, 250_000, 400)
	b := e.MonteCarlo(rows, 250_000, 400)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same notional must yield identical Monte Carlo estimate")
	}
	c := e.MonteCarlo(rows, 500_000, 400)
	if reflect.DeepEqual(a, c) {
		t.Fatal("different notionals should not collide")
	}
}

func TestMonteCarlo_LowDataBySampleCount(t *testing.T) {
	e := NewEstimator()
	rows := mkRows(100, 200, 50000, 0.002)
	thin := e.MonteCarlo(rows, 250_000, 30)
	if !thin.LowData {
		t.Fatal("fewer than 50 simulations must flag low data")
	}
	full := e.MonteCarlo(rows, 250_000, 400)
	if full.LowData {
		t.Fatal("400 simulations must not flag low data")
	}
	if full.NSamples != 400 {
		t.Fatalf("expected 400 samples, got %d", full.NSamples)
	}
}

func TestLadder(t *testing.T) {
	e := NewEstimator()
	rows := mkRows(100, 200, 50000, 0.002)
	sizes := []float64{100_000, 250_000, 500_000, 1_000_000}
	det, monte := e.Ladder(rows, sizes, 400)
	if len(det) != len(sizes) || len(monte) != len(sizes) {
		t.Fatalf("expected %d estimates each, got %d/%d", len(sizes), len(det), len(monte))
	}
	for i, s := range sizes {
		if det[i].Notional != s || monte[i].Notional != s {
			t.Fatalf("estimate %d does not carry its notional", i)
		}
	}
}

func TestPercentile(t *testing.T) {
	samples := []float64{4, 1, 3, 2}
	if got := Percentile(samples, 50); got != 2.5 {
		t.Fatalf("expected median 2.5, got %v", got)
	}
	if got := Percentile(samples, 0); got != 1 {
		t.Fatalf("expected min, got %v", got)
	}
	if got := Percentile(samples, 100); got != 4 {
		t.Fatalf("expected max, got %v", got)
	}
	if got := Percentile(nil, 50); got != 0 {
		t.Fatalf("empty input must yield 0, got %v", got)
	}
	if got := Percentile([]float64{7}, 90); got != 7 {
		t.Fatalf("single sample: %v", got)
	}
	got := Percentile([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 90)
	if math.Abs(got-9.1) > 1e-9 {
		t.Fatalf("expected 9.1, got %v", got)
	}
}
