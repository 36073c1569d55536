// Package verdict converts a set of weighted market-microstructure signals
// into a directional call with a point estimate, an error band, a confidence
// score, a data-quality grade and a trade-sizing multiplier.
//
// The engine is a pure transform: no I/O, no shared state, no implicit clock.
// Same inputs always produce the same Verdict.
package verdict

import "time"

// Direction is the aggregate directional call.
type Direction string

const (
	DirectionBullish Direction = "BULLISH"
	DirectionBearish Direction = "BEARISH"
	DirectionNeutral Direction = "NEUTRAL"
)

// DataQuality grades sample sufficiency, independent of confidence.
type DataQuality string

const (
	QualityGood         DataQuality = "GOOD"
	QualityLow          DataQuality = "LOW"
	QualityInsufficient DataQuality = "INSUFFICIENT"
)

// ComponentInput is one weighted signal as supplied by the caller.
// Weight may be negative to represent an inverse relationship.
type ComponentInput struct {
	Name   string
	Weight float64
	Value  float64
}

// Component is a scored signal inside a Verdict. Contribution is always
// Weight*Value; no component carries hidden state.
type Component struct {
	Name         string  `json:"name"`
	Weight       float64 `json:"weight"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
}

// Verdict is the aggregate output of one evaluation. It is constructed
// entirely from its inputs and never mutated afterwards.
type Verdict struct {
	Timestamp   time.Time      `json:"timestamp"`
	Direction   Direction      `json:"direction"`
	Points      float64        `json:"points"`
	Error       float64        `json:"error"`
	Confidence  float64        `json:"confidence"`
	Components  []Component    `json:"components"`
	Explanation string         `json:"explanation"`
	DataQuality DataQuality    `json:"data_quality"`
	Samples     SampleCounts   `json:"n_samples"`
	Params      map[string]any `json:"params,omitempty"`
}

// DisplayPoints returns the presentation value for Points. When confidence is
// below the configured cutoff the value is rounded to the configured
// granularity to avoid conveying false precision. The stored raw Points is
// never changed by this.
func (v *Verdict) DisplayPoints(cfg Config) float64 {
	return roundForDisplay(v.Points, v.Confidence, cfg)
}
