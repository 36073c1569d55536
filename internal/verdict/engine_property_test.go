package verdict

import (
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genComponents produces signal sets of varying size with mixed-sign weights.
func genComponents() gopter.Gen {
	return gen.SliceOf(gen.Float64Range(-10, 10)).Map(func(vals []float64) []ComponentInput {
		comps := make([]ComponentInput, len(vals))
		for i, v := range vals {
			w := 0.1 + 0.3*float64(i%5)
			if i%2 == 1 {
				w = -w
			}
			comps[i] = ComponentInput{Name: fmt.Sprintf("sig%d", i), Weight: w, Value: v}
		}
		return comps
	})
}

func TestEvaluateProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)
	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	cfg := DefaultConfig()

	properties.Property("evaluation is deterministic", prop.ForAll(
		func(comps []ComponentInput, n int) bool {
			a, errA := Evaluate(comps, Count(n), cfg, ts)
			b, errB := Evaluate(comps, Count(n), cfg, ts)
			if errA != nil || errB != nil {
				return (errA == nil) == (errB == nil)
			}
			return reflect.DeepEqual(a, b)
		},
		genComponents(), gen.IntRange(0, 10000),
	))

	properties.Property("points is the exact sum of contributions", prop.ForAll(
		func(comps []ComponentInput) bool {
			v, err := Evaluate(comps, Count(100), cfg, ts)
			if err != nil {
				return len(comps) == 0
			}
			sum := 0.0
			for _, c := range comps {
				sum += c.Weight * c.Value
			}
			return v.Points == sum
		},
		genComponents(),
	))

	properties.Property("direction is consistent with points and threshold", prop.ForAll(
		func(comps []ComponentInput) bool {
			v, err := Evaluate(comps, Count(100), cfg, ts)
			if err != nil {
				return len(comps) == 0
			}
			switch {
			case v.Points >= cfg.DirectionThreshold:
				return v.Direction == DirectionBullish
			case v.Points <= -cfg.DirectionThreshold:
				return v.Direction == DirectionBearish
			default:
				return v.Direction == DirectionNeutral
			}
		},
		genComponents(),
	))

	properties.Property("confidence and multiplier stay in [0,1]", prop.ForAll(
		func(comps []ComponentInput, n int) bool {
			v, err := Evaluate(comps, Count(n), cfg, ts)
			if err != nil {
				return len(comps) == 0
			}
			m := SizingMultiplier(v, cfg.Sizing)
			return v.Confidence >= 0 && v.Confidence <= 1 && m >= 0 && m <= 1
		},
		genComponents(), gen.IntRange(0, 10000),
	))

	properties.Property("confidence never decreases with more samples", prop.ForAll(
		func(comps []ComponentInput, n1, n2 int) bool {
			if len(comps) == 0 {
				return true
			}
			if n1 > n2 {
				n1, n2 = n2, n1
			}
			a, errA := Evaluate(comps, Count(n1), cfg, ts)
			b, errB := Evaluate(comps, Count(n2), cfg, ts)
			if errA != nil || errB != nil {
				return false
			}
			return a.Confidence <= b.Confidence
		},
		genComponents(), gen.IntRange(0, 10000), gen.IntRange(0, 10000),
	))

	properties.Property("components are ordered by descending |contribution|", prop.ForAll(
		func(comps []ComponentInput) bool {
			v, err := Evaluate(comps, Count(100), cfg, ts)
			if err != nil {
				return len(comps) == 0
			}
			for i := 1; i < len(v.Components); i++ {
				if math.Abs(v.Components[i-1].Contribution) < math.Abs(v.Components[i].Contribution) {
					return false
				}
			}
			return true
		},
		genComponents(),
	))

	properties.Property("error band is non-negative and finite", prop.ForAll(
		func(comps []ComponentInput) bool {
			v, err := Evaluate(comps, Count(100), cfg, ts)
			if err != nil {
				return len(comps) == 0
			}
			return v.Error >= 0 && !math.IsNaN(v.Error) && !math.IsInf(v.Error, 0)
		},
		genComponents(),
	))

	properties.Property("sizing multiplier is monotone in confidence", prop.ForAll(
		func(c1, c2, relErr float64) bool {
			if c1 > c2 {
				c1, c2 = c2, c1
			}
			curve := cfg.Sizing
			return curve.Multiplier(c1, relErr) <= curve.Multiplier(c2, relErr)
		},
		gen.Float64Range(0, 1), gen.Float64Range(0, 1), gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}
