package verdict

import "math"

// SizingCurve maps confidence (and the relative error band) to the fraction
// of available capital judged safe to deploy. The mapping is monotone:
// increasing confidence never lowers the multiplier, increasing error never
// raises it. The result is always clamped to [0,1].
type SizingCurve struct {
	// Exponent bends the confidence term; values above 1 make the curve
	// conservative at low confidence.
	Exponent float64 `yaml:"exponent"`
	// ErrorPenalty scales the haircut applied for the error band relative
	// to the points magnitude.
	ErrorPenalty float64 `yaml:"error_penalty"`
}

// DefaultSizingCurve matches the upstream trade_sizing_multiplier behavior:
// linear in confidence with a half-weight error haircut.
func DefaultSizingCurve() SizingCurve {
	return SizingCurve{Exponent: 1, ErrorPenalty: 0.5}
}

// SizingMultiplier computes the trade-sizing multiplier for a verdict.
// A second pure function over the same signal set; it never mutates v.
func SizingMultiplier(v Verdict, curve SizingCurve) float64 {
	return curve.Multiplier(v.Confidence, relativeError(v.Points, v.Error))
}

// Multiplier maps (confidence, relative error) to [0,1].
func (c SizingCurve) Multiplier(confidence, relError float64) float64 {
	exp := c.Exponent
	if exp <= 0 {
		exp = 1
	}
	base := math.Pow(clamp01(confidence), exp)
	haircut := c.ErrorPenalty * clamp01(relError)
	return clamp01(base * (1 - haircut))
}

// relativeError expresses the error band as a fraction of the total
// evidence magnitude; 0 when there is no error, 1 when error swamps points.
func relativeError(points, errBand float64) float64 {
	mag := math.Abs(points)
	if mag == 0 && errBand == 0 {
		return 0
	}
	return errBand / (mag + errBand)
}
