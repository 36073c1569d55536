package verdict

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrInvalidInput marks malformed or semantically invalid engine input
// (empty component set, non-finite value, forbidden negative weight).
// Thin evidence is NOT an error: it surfaces as DataQuality, so callers
// always receive a renderable verdict for valid input.
var ErrInvalidInput = errors.New("invalid input")

// Thresholds are sample-count cutoffs below which data quality degrades.
type Thresholds struct {
	Low          int `yaml:"low"`
	Insufficient int `yaml:"insufficient"`
}

// Config carries the recognized evaluation options. Rounding cutoff and
// granularity are presentation heuristics carried over from the upstream
// pipeline; they are configurable rather than hard-coded.
type Config struct {
	ConfidenceThresholds      Thresholds  `yaml:"confidence_thresholds"`
	DirectionThreshold        float64     `yaml:"direction_threshold"`
	RoundingConfidenceCutoff  float64     `yaml:"rounding_confidence_cutoff"`
	RoundingGranularity       float64     `yaml:"rounding_granularity"`
	RequireNonNegativeWeights bool        `yaml:"require_non_negative_weights"`
	Sizing                    SizingCurve `yaml:"sizing"`

	// ConfidenceScale is the sample count at which the evidence term of
	// confidence reaches 0.5. Larger values demand more samples.
	ConfidenceScale float64 `yaml:"confidence_scale"`
}

// DefaultConfig mirrors the upstream pipeline defaults.
func DefaultConfig() Config {
	return Config{
		ConfidenceThresholds:     Thresholds{Low: 50, Insufficient: 10},
		DirectionThreshold:       5,
		RoundingConfidenceCutoff: 0.4,
		RoundingGranularity:      5,
		ConfidenceScale:          50,
		Sizing:                   DefaultSizingCurve(),
	}
}

// Evaluate aggregates the weighted components into a Verdict. The timestamp
// is supplied by the caller so evaluations stay reproducible under test.
func Evaluate(components []ComponentInput, samples SampleCounts, cfg Config, ts time.Time) (Verdict, error) {
	if len(components) == 0 {
		return Verdict{}, fmt.Errorf("%w: empty component set", ErrInvalidInput)
	}

	scored := make([]Component, 0, len(components))
	for _, in := range components {
		if !isFinite(in.Value) {
			return Verdict{}, fmt.Errorf("%w: component %q: non-finite value", ErrInvalidInput, in.Name)
		}
		if !isFinite(in.Weight) {
			return Verdict{}, fmt.Errorf("%w: component %q: non-finite weight", ErrInvalidInput, in.Name)
		}
		if cfg.RequireNonNegativeWeights && in.Weight < 0 {
			return Verdict{}, fmt.Errorf("%w: component %q: negative weight", ErrInvalidInput, in.Name)
		}
		scored = append(scored, Component{
			Name:         in.Name,
			Weight:       in.Weight,
			Value:        in.Value,
			Contribution: in.Weight * in.Value,
		})
	}

	points := 0.0
	for _, c := range scored {
		points += c.Contribution
	}

	errBand := weightedStdDev(scored)
	confidence := confidenceScore(points, errBand, scored, samples, cfg)
	direction := directionFor(points, cfg.DirectionThreshold)
	quality := gradeQuality(samples, cfg.ConfidenceThresholds)

	// Largest absolute contribution first; ties keep input order.
	sort.SliceStable(scored, func(i, j int) bool {
		return math.Abs(scored[i].Contribution) > math.Abs(scored[j].Contribution)
	})

	v := Verdict{
		Timestamp:   ts,
		Direction:   direction,
		Points:      points,
		Error:       errBand,
		Confidence:  confidence,
		Components:  scored,
		DataQuality: quality,
		Samples:     samples,
		Params:      paramsFor(scored, cfg),
	}
	v.Explanation = explain(v)
	return v, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// weightedStdDev is the |weight|-weighted standard deviation of the
// contributions: the dispersion of what the signals individually say.
func weightedStdDev(cs []Component) float64 {
	var wSum, mean float64
	for _, c := range cs {
		w := math.Abs(c.Weight)
		wSum += w
		mean += w * c.Contribution
	}
	if wSum == 0 {
		return 0
	}
	mean /= wSum
	var varSum float64
	for _, c := range cs {
		w := math.Abs(c.Weight)
		d := c.Contribution - mean
		varSum += w * d * d
	}
	return math.Sqrt(varSum / wSum)
}

// confidenceScore combines three monotone terms:
//   - evidence: saturating in the total sample count,
//   - signal: |points| against the error band,
//   - agreement: fraction of components whose contribution sign matches points.
func confidenceScore(points, errBand float64, cs []Component, samples SampleCounts, cfg Config) float64 {
	scale := cfg.ConfidenceScale
	if scale <= 0 {
		scale = 50
	}
	n := float64(samples.Total())
	evidence := n / (n + scale)

	var signal float64
	if mag := math.Abs(points); mag > 0 || errBand > 0 {
		signal = math.Abs(points) / (math.Abs(points) + errBand)
	}

	agree := 0
	for _, c := range cs {
		if c.Contribution == 0 || sameSign(c.Contribution, points) {
			agree++
		}
	}
	agreement := float64(agree) / float64(len(cs))

	return clamp01(evidence * signal * agreement)
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0) || (a == 0 && b == 0)
}

func directionFor(points, threshold float64) Direction {
	switch {
	case points >= threshold:
		return DirectionBullish
	case points <= -threshold:
		return DirectionBearish
	default:
		return DirectionNeutral
	}
}

// gradeQuality applies the insufficient cutoff before the low cutoff so the
// most severe grade wins. The minimum per-source count is the relevant one.
func gradeQuality(samples SampleCounts, t Thresholds) DataQuality {
	n := samples.Min()
	switch {
	case n < t.Insufficient:
		return QualityInsufficient
	case n < t.Low:
		return QualityLow
	default:
		return QualityGood
	}
}

// explain composes a deterministic one-line summary from the other fields.
func explain(v Verdict) string {
	lead := v.Components[0]
	if len(v.Components) >= 2 {
		second := v.Components[1]
		return fmt.Sprintf("%s at %.2f pts (±%.2f), led by %s (%+.2f) and %s (%+.2f); confidence %.2f, data %s.",
			v.Direction, v.Points, v.Error,
			lead.Name, lead.Contribution, second.Name, second.Contribution,
			v.Confidence, v.DataQuality)
	}
	return fmt.Sprintf("%s at %.2f pts (±%.2f), led by %s (%+.2f); confidence %.2f, data %s.",
		v.Direction, v.Points, v.Error,
		lead.Name, lead.Contribution,
		v.Confidence, v.DataQuality)
}

func paramsFor(cs []Component, cfg Config) map[string]any {
	weights := make(map[string]float64, len(cs))
	for _, c := range cs {
		weights[c.Name] = c.Weight
	}
	return map[string]any{
		"weights":             weights,
		"direction_threshold": cfg.DirectionThreshold,
		"thresholds": map[string]int{
			"low":          cfg.ConfidenceThresholds.Low,
			"insufficient": cfg.ConfidenceThresholds.Insufficient,
		},
		"rounding": map[string]float64{
			"confidence_cutoff": cfg.RoundingConfidenceCutoff,
			"granularity":       cfg.RoundingGranularity,
		},
	}
}

func roundForDisplay(points, confidence float64, cfg Config) float64 {
	if cfg.RoundingGranularity <= 0 || confidence >= cfg.RoundingConfidenceCutoff {
		return points
	}
	return math.Round(points/cfg.RoundingGranularity) * cfg.RoundingGranularity
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
