package models

import (
	"time"

	"tradyxa/internal/verdict"
)

// SlippageEstimate summarizes expected execution cost for one notional size.
// Values are fractions of notional (0.01 = 1%).
type SlippageEstimate struct {
	Notional float64 `json:"notional"`
	Median   float64 `json:"median"`
	P10      float64 `json:"p10"`
	P90      float64 `json:"p90"`
	NSamples int     `json:"n_samples"`
	LowData  bool    `json:"low_data"`
}

// RegimeSignal is the optional ML enrichment attached to a snapshot.
type RegimeSignal struct {
	State      string  `json:"state"` // "bull", "bear", "volatile", "quiet"
	Score      float64 `json:"score"` // signed, bullish positive
	Confidence float64 `json:"confidence"`
}

// SnapshotMeta records provenance for a snapshot.
type SnapshotMeta struct {
	Source       string        `json:"source"` // "synthetic", "stream"
	Bars         int           `json:"bars"`
	Window       time.Duration `json:"window"`
	EnrichApplied bool         `json:"enrich_applied"`
}

// TickerSnapshot is the full per-ticker analytics artifact: the verdict plus
// the slippage ladders and provenance it was derived from. This is what the
// API serves and the file store persists.
type TickerSnapshot struct {
	Ticker        string             `json:"ticker"`
	GeneratedAt   time.Time          `json:"generated_at"`
	Verdict       verdict.Verdict    `json:"verdict"`
	DisplayPoints float64            `json:"display_points"`
	Sizing        float64            `json:"sizing_multiplier"`
	Slippage      []SlippageEstimate `json:"slippage"`
	MonteCarlo    []SlippageEstimate `json:"monte_carlo"`
	Regime        *RegimeSignal      `json:"regime,omitempty"`
	AnnualizedVol float64            `json:"annualized_vol"`
	Meta          SnapshotMeta       `json:"meta"`
}
