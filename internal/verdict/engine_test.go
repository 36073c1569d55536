package verdict

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

var testTS = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DirectionThreshold = 5
	return cfg
}

func TestEvaluate_BullishAboveThreshold(t *testing.T) {
	comps := []ComponentInput{
		{Name: "momentum", Weight: 2.0, Value: 5.0},
		{Name: "volatility", Weight: -1.0, Value: 3.0},
	}
	v, err := Evaluate(comps, Count(100), testConfig(), testTS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Points != 7.0 {
		t.Fatalf("expected points 7.0, got %v", v.Points)
	}
	if v.Direction != DirectionBullish {
		t.Fatalf("expected BULLISH, got %s", v.Direction)
	}
	if v.Components[0].Name != "momentum" || v.Components[0].Contribution != 10.0 {
		t.Fatalf("expected momentum contribution 10.0 first, got %+v", v.Components[0])
	}
	if v.Components[1].Contribution != -3.0 {
		t.Fatalf("expected volatility contribution -3.0, got %v", v.Components[1].Contribution)
	}
	if !v.Timestamp.Equal(testTS) {
		t.Fatalf("timestamp not injected: %v", v.Timestamp)
	}
}

func TestEvaluate_NeutralBelowThreshold(t *testing.T) {
	comps := []ComponentInput{
		{Name: "momentum", Weight: 2.0, Value: 5.0},
		{Name: "volatility", Weight: -1.0, Value: 3.0},
	}
	cfg := testConfig()
	cfg.DirectionThreshold = 10
	v, err := Evaluate(comps, Count(100), cfg, testTS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Direction != DirectionNeutral {
		t.Fatalf("expected NEUTRAL for 7.0 < 10, got %s", v.Direction)
	}
}

func TestEvaluate_BearishAtNegativeThreshold(t *testing.T) {
	comps := []ComponentInput{{Name: "flow", Weight: 1.0, Value: -5.0}}
	v, err := Evaluate(comps, Count(100), testConfig(), testTS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Direction != DirectionBearish {
		t.Fatalf("expected BEARISH at points=-5 threshold=5, got %s", v.Direction)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	comps := []ComponentInput{
		{Name: "momentum", Weight: 0.45, Value: 0.8},
		{Name: "flow", Weight: 0.25, Value: -0.2},
		{Name: "liquidity", Weight: 0.15, Value: 0.5},
	}
	a, err := Evaluate(comps, Breakdown(120, 400, 500), testConfig(), testTS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Evaluate(comps, Breakdown(120, 400, 500), testConfig(), testTS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("repeated evaluation produced different verdicts")
	}
}

func TestEvaluate_RejectsEmptyComponents(t *testing.T) {
	_, err := Evaluate(nil, Count(100), testConfig(), testTS)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEvaluate_RejectsNonFinite(t *testing.T) {
	cases := []struct {
		name  string
		value float64
	}{
		{"nan", math.NaN()},
		{"pos_inf", math.Inf(1)},
		{"neg_inf", math.Inf(-1)},
	}
	for _, tc := range cases {
		comps := []ComponentInput{
			{Name: "momentum", Weight: 1.0, Value: 1.0},
			{Name: "broken", Weight: 1.0, Value: tc.value},
		}
		_, err := Evaluate(comps, Count(100), testConfig(), testTS)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestEvaluate_NegativeWeightPolicy(t *testing.T) {
	comps := []ComponentInput{{Name: "inverse", Weight: -1.0, Value: 2.0}}

	// Negative weights are valid inverse signals by default.
	if _, err := Evaluate(comps, Count(100), testConfig(), testTS); err != nil {
		t.Fatalf("negative weight should be allowed by default: %v", err)
	}

	cfg := testConfig()
	cfg.RequireNonNegativeWeights = true
	if _, err := Evaluate(comps, Count(100), cfg, testTS); !errors.Is(err, ErrInvalidInput) {
		t.Fatal("expected ErrInvalidInput when config forbids negative weights")
	}
}

func TestEvaluate_DataQualityGrades(t *testing.T) {
	cfg := testConfig()
	cfg.ConfidenceThresholds = Thresholds{Low: 100, Insufficient: 20}
	comps := []ComponentInput{{Name: "momentum", Weight: 1.0, Value: 1.0}}

	cases := []struct {
		n    int
		want DataQuality
	}{
		{150, QualityGood},
		{100, QualityGood},
		{50, QualityLow},
		{20, QualityLow},
		{19, QualityInsufficient},
		{10, QualityInsufficient},
		{0, QualityInsufficient},
	}
	for _, tc := range cases {
		v, err := Evaluate(comps, Count(tc.n), cfg, testTS)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", tc.n, err)
		}
		if v.DataQuality != tc.want {
			t.Errorf("n=%d: expected %s, got %s", tc.n, tc.want, v.DataQuality)
		}
	}
}

func TestEvaluate_QualityUsesWeakestSource(t *testing.T) {
	cfg := testConfig()
	cfg.ConfidenceThresholds = Thresholds{Low: 100, Insufficient: 20}
	comps := []ComponentInput{{Name: "momentum", Weight: 1.0, Value: 1.0}}

	v, err := Evaluate(comps, Breakdown(10, 400, 500), cfg, testTS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.DataQuality != QualityInsufficient {
		t.Fatalf("10 slippage samples should grade INSUFFICIENT, got %s", v.DataQuality)
	}
}

func TestEvaluate_OrderingStableOnTies(t *testing.T) {
	comps := []ComponentInput{
		{Name: "a", Weight: 1.0, Value: 2.0},
		{Name: "b", Weight: -1.0, Value: 2.0},
		{Name: "c", Weight: 1.0, Value: 3.0},
	}
	v, err := Evaluate(comps, Count(100), testConfig(), testTS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []string{v.Components[0].Name, v.Components[1].Name, v.Components[2].Name}
	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
}

func TestEvaluate_ThinEvidenceIsNotAnError(t *testing.T) {
	comps := []ComponentInput{{Name: "momentum", Weight: 1.0, Value: 1.0}}
	v, err := Evaluate(comps, Count(0), testConfig(), testTS)
	if err != nil {
		t.Fatalf("zero samples must not error: %v", err)
	}
	if v.DataQuality != QualityInsufficient {
		t.Fatalf("expected INSUFFICIENT, got %s", v.DataQuality)
	}
	if v.Confidence != 0 {
		t.Fatalf("expected zero confidence with zero samples, got %v", v.Confidence)
	}
}

func TestDisplayPoints_RoundsOnlyBelowCutoff(t *testing.T) {
	cfg := testConfig()
	cfg.RoundingConfidenceCutoff = 0.4
	cfg.RoundingGranularity = 5

	v := Verdict{Points: 7.3, Confidence: 0.25}
	if got := v.DisplayPoints(cfg); got != 5 {
		t.Fatalf("expected display 5 for raw 7.3 at low confidence, got %v", got)
	}
	if v.Points != 7.3 {
		t.Fatalf("raw points must not change, got %v", v.Points)
	}

	v.Confidence = 0.6
	if got := v.DisplayPoints(cfg); got != 7.3 {
		t.Fatalf("expected raw points above cutoff, got %v", got)
	}
}

func TestEvaluate_ExplanationNamesTopContributors(t *testing.T) {
	comps := []ComponentInput{
		{Name: "momentum", Weight: 2.0, Value: 5.0},
		{Name: "volatility", Weight: -1.0, Value: 3.0},
	}
	a, err := Evaluate(comps, Count(100), testConfig(), testTS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := Evaluate(comps, Count(100), testConfig(), testTS)
	if a.Explanation == "" {
		t.Fatal("expected non-empty explanation")
	}
	if a.Explanation != b.Explanation {
		t.Fatal("explanation must be deterministic")
	}
}

func TestSizingMultiplier_Bounds(t *testing.T) {
	curve := DefaultSizingCurve()
	cases := []Verdict{
		{Points: 7, Error: 3, Confidence: 0.9},
		{Points: 0, Error: 0, Confidence: 0},
		{Points: -100, Error: 500, Confidence: 1},
		{Points: 1, Error: 0, Confidence: 1},
	}
	for _, v := range cases {
		m := SizingMultiplier(v, curve)
		if m < 0 || m > 1 {
			t.Errorf("multiplier out of [0,1]: %v for %+v", m, v)
		}
	}
	full := SizingMultiplier(Verdict{Points: 1, Error: 0, Confidence: 1}, curve)
	if full != 1 {
		t.Errorf("expected full multiplier for perfect confidence and zero error, got %v", full)
	}
}
