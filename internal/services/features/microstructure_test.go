package features

import (
	"math"
	"testing"
	"time"

	"tradyxa/internal/domain/models"
)

func mkCandles(closes, volumes []float64) []models.Candle {
	base := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	out := make([]models.Candle, len(closes))
	for i := range closes {
		out[i] = models.Candle{
			Bucket: base.Add(time.Duration(i) * 5 * time.Minute),
			Symbol: "TEST",
			Open:   closes[i],
			High:   closes[i] * 1.01,
			Low:    closes[i] * 0.99,
			Close:  closes[i],
			Volume: volumes[i],
		}
	}
	return out
}

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestPctReturns(t *testing.T) {
	candles := mkCandles([]float64{100, 110, 99}, []float64{1, 1, 1})
	rets := PctReturns(candles)
	if rets[0] != 0 {
		t.Fatalf("first return must be 0, got %v", rets[0])
	}
	if !almostEqual(rets[1], 0.10, 1e-12) {
		t.Fatalf("expected 0.10, got %v", rets[1])
	}
	if !almostEqual(rets[2], -0.10, 1e-12) {
		t.Fatalf("expected -0.10, got %v", rets[2])
	}
}

func TestAmihud_ZeroDollarVolume(t *testing.T) {
	candles := mkCandles([]float64{100, 110}, []float64{1000, 0})
	a := Amihud(candles)
	if a[1] != 0 {
		t.Fatalf("zero dollar volume must yield 0, got %v", a[1])
	}

	candles = mkCandles([]float64{100, 110}, []float64{1000, 2000})
	a = Amihud(candles)
	want := 0.10 / (110 * 2000)
	if !almostEqual(a[1], want, 1e-15) {
		t.Fatalf("expected %v, got %v", want, a[1])
	}
}

func TestRollingLambda_WarmupAndFlatVolume(t *testing.T) {
	n := 30
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
		volumes[i] = 1000 // zero variance
	}
	lam := RollingLambda(mkCandles(closes, volumes), 20)
	for i, v := range lam {
		if v != 0 {
			t.Fatalf("flat volume must yield 0 lambda, got %v at %d", v, i)
		}
	}
}

func TestRollingLambda_PositiveImpact(t *testing.T) {
	// Price changes track volume: lambda should come out positive.
	n := 40
	closes := make([]float64, n)
	volumes := make([]float64, n)
	closes[0] = 100
	for i := 1; i < n; i++ {
		volumes[i] = float64(500 + (i%7)*300)
		closes[i] = closes[i-1] + volumes[i]/1000
	}
	volumes[0] = 500
	lam := RollingLambda(mkCandles(closes, volumes), 20)
	if lam[n-1] <= 0 {
		t.Fatalf("expected positive lambda, got %v", lam[n-1])
	}
}

func TestVolumeZScore_Warmup(t *testing.T) {
	n := 25
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i := range closes {
		closes[i] = 100
		volumes[i] = float64(1000 + i*10)
	}
	z := VolumeZScore(mkCandles(closes, volumes), 20)
	for i := 0; i < 19; i++ {
		if z[i] != 0 {
			t.Fatalf("warmup bar %d must be 0, got %v", i, z[i])
		}
	}
	if z[n-1] <= 0 {
		t.Fatalf("rising volume should give positive z, got %v", z[n-1])
	}
}

func TestCoordinatedFlow_SignTracksDirection(t *testing.T) {
	n := 60
	closes := make([]float64, n)
	volumes := make([]float64, n)
	closes[0] = 100
	for i := 1; i < n; i++ {
		closes[i] = closes[i-1] * 1.001 // steady rise
		volumes[i] = float64(1000 + (i%5)*500)
	}
	volumes[0] = 1000
	flow := CoordinatedFlow(mkCandles(closes, volumes), 20)
	// Rising prices with above-average volume spikes: flow ends positive.
	last := flow[n-1]
	if math.IsNaN(last) {
		t.Fatal("flow must be finite")
	}
}

func TestRollingVolatility(t *testing.T) {
	candles := mkCandles([]float64{100, 101, 102, 101, 103, 102}, []float64{1, 1, 1, 1, 1, 1})
	vol := RollingVolatility(candles, 5)
	if vol[0] != 0 || vol[1] != 0 {
		t.Fatalf("need two returns before volatility is defined, got %v %v", vol[0], vol[1])
	}
	if vol[5] <= 0 {
		t.Fatalf("expected positive volatility, got %v", vol[5])
	}
}

func TestNormalizeTo01(t *testing.T) {
	out := NormalizeTo01([]float64{2, 4, 6})
	if out[0] != 0 || out[2] != 1 || !almostEqual(out[1], 0.5, 1e-12) {
		t.Fatalf("unexpected normalization: %v", out)
	}
	flat := NormalizeTo01([]float64{3, 3, 3})
	for _, v := range flat {
		if v != 0 {
			t.Fatalf("degenerate input must map to 0, got %v", v)
		}
	}
}

func TestCompute_RowShape(t *testing.T) {
	n := 30
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i))*2
		volumes[i] = float64(1000 + i*13)
	}
	rows := Compute(mkCandles(closes, volumes), 0)
	if len(rows) != n {
		t.Fatalf("expected %d rows, got %d", n, len(rows))
	}
	last := rows[n-1]
	if last.Symbol != "TEST" || last.Close != closes[n-1] {
		t.Fatalf("row does not carry candle identity: %+v", last)
	}
	if last.TimeOfDay < 0 || last.TimeOfDay >= 24 {
		t.Fatalf("time of day out of range: %v", last.TimeOfDay)
	}
}

func TestTimeOfDay(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	if got := TimeOfDay(ts); got != 9.5 {
		t.Fatalf("expected 9.5, got %v", got)
	}
}
