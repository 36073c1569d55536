package usecase

import (
	"math"

	"tradyxa/internal/domain/models"
	"tradyxa/internal/services/features"
	"tradyxa/internal/verdict"
)

// Verdict component weights. Momentum dominates; the ML components only
// participate when enrichment is available.
const (
	weightMomentum  = 0.45
	weightFlow      = 0.25
	weightLiquidity = 0.15
	weightImpact    = 0.15
	weightRegime    = 0.10
	weightSlipML    = 0.05

	flowScale    = 2.0
	momentumZCap = 3.0
	recentBars   = 5
)

// verdictComponents normalizes the latest feature state, the deterministic
// slippage estimate and the optional enrichment into [-1,1] signal values,
// then scales them into point space. Every value is finite for finite input.
func verdictComponents(rows []models.FeatureRow, det models.SlippageEstimate, regime *models.RegimeSignal, slipML *models.SlippageEstimate) []verdict.ComponentInput {
	last := rows[len(rows)-1]
	scale := pointsScale(rows)

	comps := []verdict.ComponentInput{
		{Name: "momentum", Weight: weightMomentum, Value: momentumSignal(rows) * scale},
		{Name: "flow", Weight: weightFlow, Value: flowSignal(last) * scale},
		{Name: "liquidity", Weight: weightLiquidity, Value: liquiditySignal(rows) * scale},
		{Name: "impact_cost", Weight: weightImpact, Value: impactSignal(det) * scale},
	}
	if regime != nil {
		comps = append(comps, verdict.ComponentInput{
			Name: "ml_regime", Weight: weightRegime, Value: regime.Score * scale,
		})
	}
	if slipML != nil {
		comps = append(comps, verdict.ComponentInput{
			Name: "ml_slippage", Weight: weightSlipML, Value: -slipML.Median * 5 * scale,
		})
	}
	return comps
}

// momentumSignal is the recent return expressed in volatility units, capped
// to [-1,1].
func momentumSignal(rows []models.FeatureRow) float64 {
	n := len(rows)
	k := recentBars
	if n-1 < k {
		k = n - 1
	}
	if k <= 0 {
		return 0
	}
	base := rows[n-1-k].Close
	if base <= 0 {
		return 0
	}
	recent := rows[n-1].Close/base - 1

	vol := rows[n-1].Volatility
	if vol <= 0 {
		vol = 0.001
	}
	z := recent / (vol + 1e-9)
	return clampSym(z / momentumZCap)
}

func flowSignal(last models.FeatureRow) float64 {
	return math.Tanh(last.CoordFlow / flowScale)
}

// liquiditySignal combines market friction with a depth proxy derived from
// the lambda series; deep, frictionless books score positive.
func liquiditySignal(rows []models.FeatureRow) float64 {
	last := rows[len(rows)-1]
	lambdas := make([]float64, len(rows))
	for i, r := range rows {
		lambdas[i] = r.Lambda
	}
	norm := features.NormalizeTo01(lambdas)
	depth := norm[len(norm)-1]

	raw := (1 - clamp01f(last.MFC)) * (1 - depth)
	return clampSym(raw*2 - 1)
}

// impactSignal penalizes expected execution cost: a sigmoid over the median
// slippage in percent, always non-positive.
func impactSignal(det models.SlippageEstimate) float64 {
	if det.NSamples == 0 {
		return 0
	}
	scaled := det.Median * 100
	penal := 1 / (1 + math.Exp(-(scaled-0.5)*4))
	return -clamp01f(penal)
}

// pointsScale converts normalized signals into point space: an ATR proxy from
// spot and realized volatility, tempered by the volatility environment.
func pointsScale(rows []models.FeatureRow) float64 {
	last := rows[len(rows)-1]
	realized := last.Volatility
	if realized <= 0 {
		realized = 0.005
	}
	atr := last.Close * realized
	base := math.Max(1, atr)

	// Volatility environment scale; without an index feed this stays at the
	// long-run default.
	volScale := math.Max(0.2, math.Min(3.0, 15.0/20.0))
	return base * volScale
}

func clampSym(f float64) float64 {
	if f < -1 {
		return -1
	}
	if f > 1 {
		return 1
	}
	return f
}

func clamp01f(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
