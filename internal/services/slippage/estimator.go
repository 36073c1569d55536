// Package slippage estimates execution cost for a notional order size from
// per-bar dollar volume, via a deterministic impact curve and a Monte Carlo
// variant. Both are fully seeded: same bars and notional always produce the
// same estimate.
package slippage

import (
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"strconv"

	"tradyxa/internal/domain/models"
)

type Estimator struct {
	// Deterministic impact curve: impact = K * rel^Alpha.
	K     float64
	Alpha float64

	// Monte Carlo curve and participation-rate range.
	MCK          float64
	MCAlphaPow   float64
	ParticipMin  float64
	ParticipMax  float64
	DefaultSims  int
	NoiseScale   float64 // volatility multiplier on the noise term
	FallbackCost float64 // impact assumed when no bars are available
}

func NewEstimator() *Estimator {
	return &Estimator{
		K:            0.8,
		Alpha:        0.9,
		MCK:          0.9,
		MCAlphaPow:   0.9,
		ParticipMin:  0.05,
		ParticipMax:  0.6,
		DefaultSims:  400,
		NoiseScale:   0.5,
		FallbackCost: 0.02,
	}
}

// Deterministic walks every bar and prices the full notional against that
// bar's dollar volume. Noise is seeded per bar so estimates are reproducible.
func (e *Estimator) Deterministic(rows []models.FeatureRow, notional float64) models.SlippageEstimate {
	avgDV := averageDollarVolume(rows)

	samples := make([]float64, 0, len(rows))
	for _, row := range rows {
		dv := row.Close * row.Volume
		if dv <= 0 {
			dv = avgDV
		}
		rel := notional / math.Max(dv, 1.0)
		impact := e.K * math.Pow(rel, e.Alpha)

		rnd := rand.New(rand.NewSource(seedFor(row.Bucket.String())))
		impact += rnd.NormFloat64() * row.Volatility * e.NoiseScale
		if impact < 0 {
			impact = 0
		}
		samples = append(samples, impact)
	}
	if len(samples) == 0 {
		samples = fallbackSamples(e.FallbackCost, 10)
	}

	est := summarize(samples, notional)
	est.LowData = len(samples) < 10 || notional > 10*avgDV
	return est
}

// MonteCarlo simulates partial executions against randomly drawn bars with a
// random participation rate, seeded by the notional.
func (e *Estimator) MonteCarlo(rows []models.FeatureRow, notional float64, sims int) models.SlippageEstimate {
	if sims <= 0 {
		sims = e.DefaultSims
	}
	rnd := rand.New(rand.NewSource(seedFor(strconv.FormatFloat(notional, 'f', -1, 64))))

	samples := make([]float64, 0, sims)
	if len(rows) == 0 {
		samples = fallbackSamples(e.FallbackCost, sims)
	} else {
		meanDV := averageDollarVolume(rows)
		for i := 0; i < sims; i++ {
			row := rows[rnd.Intn(len(rows))]
			particip := e.ParticipMin + rnd.Float64()*(e.ParticipMax-e.ParticipMin)

			dv := row.Close * row.Volume
			if dv <= 0 {
				dv = meanDV
			}
			execVal := math.Min(notional, particip*dv)
			rel := execVal / math.Max(dv, 1.0)
			impact := e.MCK * math.Pow(rel, e.MCAlphaPow)

			impact += rnd.NormFloat64() * row.Volatility * e.NoiseScale
			if impact < 0 {
				impact = 0
			}
			samples = append(samples, impact)
		}
	}

	est := summarize(samples, notional)
	est.LowData = len(samples) < 50
	return est
}

// Ladder runs both estimators over every notional size.
func (e *Estimator) Ladder(rows []models.FeatureRow, notionals []float64, sims int) (det, monte []models.SlippageEstimate) {
	det = make([]models.SlippageEstimate, 0, len(notionals))
	monte = make([]models.SlippageEstimate, 0, len(notionals))
	for _, n := range notionals {
		det = append(det, e.Deterministic(rows, n))
		monte = append(monte, e.MonteCarlo(rows, n, sims))
	}
	return det, monte
}

func summarize(samples []float64, notional float64) models.SlippageEstimate {
	return models.SlippageEstimate{
		Notional: notional,
		Median:   Percentile(samples, 50),
		P10:      Percentile(samples, 10),
		P90:      Percentile(samples, 90),
		NSamples: len(samples),
	}
}

func averageDollarVolume(rows []models.FeatureRow) float64 {
	var sum float64
	var n int
	for _, row := range rows {
		dv := row.Close * row.Volume
		if dv > 0 {
			sum += dv
			n++
		}
	}
	if n == 0 {
		return 1e6
	}
	return sum / float64(n)
}

func fallbackSamples(cost float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = cost
	}
	return out
}

// Percentile computes the p-th percentile (0..100) with linear interpolation
// between closest ranks. Empty input yields 0.
func Percentile(samples []float64, p float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func seedFor(s string) int64 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int64(h.Sum32())
}
