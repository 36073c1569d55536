package service

import (
	"context"

	"tradyxa/internal/domain/models"
)

// RegimeDetector classifies the prevailing market regime from a returns
// series. Implementations may call out to a model service; a nil result with
// nil error is not allowed, degraded callers should skip enrichment instead.
type RegimeDetector interface {
	Detect(ctx context.Context, symbol string, returns []float64) (models.RegimeSignal, error)
}

// SlippageForecaster predicts expected slippage for a notional from features,
// complementing the empirical estimators.
type SlippageForecaster interface {
	Forecast(ctx context.Context, symbol string, features map[string]float64, notional float64) (models.SlippageEstimate, error)
}
