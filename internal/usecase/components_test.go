package usecase

import (
	"math"
	"testing"
	"time"

	"tradyxa/internal/domain/models"
)

func featureRows(closes []float64, vol, mfc, flow float64) []models.FeatureRow {
	base := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	rows := make([]models.FeatureRow, len(closes))
	for i, c := range closes {
		rows[i] = models.FeatureRow{
			Bucket:     base.Add(time.Duration(i) * 5 * time.Minute),
			Symbol:     "TEST",
			Close:      c,
			Volume:     1000,
			Volatility: vol,
			MFC:        mfc,
			CoordFlow:  flow,
		}
	}
	return rows
}

func TestMomentumSignal_Direction(t *testing.T) {
	up := featureRows([]float64{100, 101, 102, 103, 104, 105, 106}, 0.002, 0.5, 0)
	if s := momentumSignal(up); s <= 0 {
		t.Fatalf("rising closes should give positive momentum, got %v", s)
	}
	down := featureRows([]float64{106, 105, 104, 103, 102, 101, 100}, 0.002, 0.5, 0)
	if s := momentumSignal(down); s >= 0 {
		t.Fatalf("falling closes should give negative momentum, got %v", s)
	}
	if s := momentumSignal(featureRows([]float64{100}, 0.002, 0.5, 0)); s != 0 {
		t.Fatalf("single bar has no momentum, got %v", s)
	}
}

func TestMomentumSignal_Capped(t *testing.T) {
	// Huge move on tiny volatility must clamp to 1.
	rows := featureRows([]float64{100, 120, 150, 180, 220, 300}, 0.0001, 0.5, 0)
	if s := momentumSignal(rows); s != 1 {
		t.Fatalf("expected cap at 1, got %v", s)
	}
}

func TestFlowSignal(t *testing.T) {
	pos := flowSignal(models.FeatureRow{CoordFlow: 3})
	neg := flowSignal(models.FeatureRow{CoordFlow: -3})
	if pos <= 0 || neg >= 0 {
		t.Fatalf("flow sign must follow coordinated flow: %v %v", pos, neg)
	}
	if pos > 1 || neg < -1 {
		t.Fatalf("tanh output out of range: %v %v", pos, neg)
	}
}

func TestImpactSignal_NonPositive(t *testing.T) {
	cheap := impactSignal(models.SlippageEstimate{Median: 0.0001, NSamples: 100})
	dear := impactSignal(models.SlippageEstimate{Median: 0.05, NSamples: 100})
	if cheap > 0 || dear > 0 {
		t.Fatalf("impact must never be positive: %v %v", cheap, dear)
	}
	if dear >= cheap {
		t.Fatalf("higher slippage must penalize more: cheap=%v dear=%v", cheap, dear)
	}
	if got := impactSignal(models.SlippageEstimate{}); got != 0 {
		t.Fatalf("no samples means no impact signal, got %v", got)
	}
}

func TestVerdictComponents_EnrichmentOptional(t *testing.T) {
	rows := featureRows([]float64{100, 101, 102, 103, 104, 105, 106}, 0.002, 0.5, 0.5)
	det := models.SlippageEstimate{Median: 0.001, NSamples: 100}

	base := verdictComponents(rows, det, nil, nil)
	if len(base) != 4 {
		t.Fatalf("expected 4 base components, got %d", len(base))
	}

	regime := &models.RegimeSignal{State: "bear", Score: -0.25, Confidence: 0.8}
	slip := &models.SlippageEstimate{Median: 0.002, NSamples: 50}
	full := verdictComponents(rows, det, regime, slip)
	if len(full) != 6 {
		t.Fatalf("expected 6 components with enrichment, got %d", len(full))
	}
	for _, c := range full {
		if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
			t.Fatalf("component %s not finite: %v", c.Name, c.Value)
		}
	}
	// The regime penalty must push the aggregate down.
	var basePts, fullPts float64
	for _, c := range base {
		basePts += c.Weight * c.Value
	}
	for _, c := range full {
		fullPts += c.Weight * c.Value
	}
	if fullPts >= basePts {
		t.Fatalf("bear regime and predicted slippage must reduce points: %v vs %v", fullPts, basePts)
	}
}
