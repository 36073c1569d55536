package features

import (
	"math"
	"time"

	"tradyxa/internal/domain/models"
)

// DefaultWindow is the rolling window (in bars) shared by the
// microstructure features below.
const DefaultWindow = 20

// PctReturns computes simple returns r_t = C_t/C_{t-1} - 1 with r_0 = 0.
func PctReturns(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev <= 0 {
			continue
		}
		out[i] = candles[i].Close/prev - 1
	}
	return out
}

// HLCRatios computes (High-Low)/Close per bar, 0 when Close is 0.
func HLCRatios(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		if c.Close == 0 {
			continue
		}
		out[i] = (c.High - c.Low) / c.Close
	}
	return out
}

// Amihud computes the Amihud illiquidity proxy |r_t| / (Close_t * Volume_t).
// Bars with zero dollar volume (and the first bar) yield 0.
func Amihud(candles []models.Candle) []float64 {
	rets := PctReturns(candles)
	out := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		dv := candles[i].Close * candles[i].Volume
		if dv == 0 {
			continue
		}
		out[i] = math.Abs(rets[i]) / dv
	}
	return out
}

// RollingLambda computes the rolling price-impact proxy
// cov(ΔClose, Volume) / var(Volume) over a trailing window. The covariance is
// population-style, the variance sample-style; the first window bars are 0.
func RollingLambda(candles []models.Candle, window int) []float64 {
	n := len(candles)
	out := make([]float64, n)
	if window <= 1 {
		return out
	}
	dp := make([]float64, n)
	for i := 1; i < n; i++ {
		dp[i] = candles[i].Close - candles[i-1].Close
	}
	for i := window; i < n; i++ {
		var dpMean, vMean float64
		for j := i - window + 1; j <= i; j++ {
			dpMean += dp[j]
			vMean += candles[j].Volume
		}
		w := float64(window)
		dpMean /= w
		vMean /= w

		var cov, vVar float64
		for j := i - window + 1; j <= i; j++ {
			dv := candles[j].Volume - vMean
			cov += (dp[j] - dpMean) * dv
			vVar += dv * dv
		}
		cov /= w
		vVar /= w - 1
		if vVar <= 0 {
			continue
		}
		out[i] = cov / vVar
	}
	return out
}

// MFC computes the market friction coefficient: the rolling mean of
// |ΔClose|/Volume scaled by sqrt(window). Zero volumes are forward-filled,
// falling back to 1.
func MFC(candles []models.Candle, window int) []float64 {
	n := len(candles)
	out := make([]float64, n)
	if n == 0 || window <= 0 {
		return out
	}
	ratio := make([]float64, n)
	lastVol := 1.0
	for i := 0; i < n; i++ {
		var dp float64
		if i > 0 {
			dp = math.Abs(candles[i].Close - candles[i-1].Close)
		}
		vol := candles[i].Volume
		if vol == 0 {
			vol = lastVol
		} else {
			lastVol = vol
		}
		ratio[i] = dp / vol
	}
	scale := math.Sqrt(float64(window))
	var sum float64
	for i := 0; i < n; i++ {
		sum += ratio[i]
		if i >= window {
			sum -= ratio[i-window]
		}
		count := i + 1
		if count > window {
			count = window
		}
		out[i] = sum / float64(count) * scale
	}
	return out
}

// VolumeZScore computes (V_t - mean)/std over a trailing full window.
// Bars before the window fills, or with zero dispersion, yield 0.
func VolumeZScore(candles []models.Candle, window int) []float64 {
	n := len(candles)
	out := make([]float64, n)
	if window <= 1 {
		return out
	}
	for i := window - 1; i < n; i++ {
		var sum, sum2 float64
		for j := i - window + 1; j <= i; j++ {
			v := candles[j].Volume
			sum += v
			sum2 += v * v
		}
		w := float64(window)
		mean := sum / w
		variance := (sum2 - w*mean*mean) / (w - 1)
		if variance <= 0 {
			continue
		}
		out[i] = (candles[i].Volume - mean) / math.Sqrt(variance)
	}
	return out
}

// CoordinatedFlow computes the rolling mean of sign(r_t) * volumeZ_t:
// positive when heavy volume rides rising prices.
func CoordinatedFlow(candles []models.Candle, window int) []float64 {
	n := len(candles)
	out := make([]float64, n)
	if n == 0 || window <= 0 {
		return out
	}
	rets := PctReturns(candles)
	volZ := VolumeZScore(candles, window)
	signed := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case rets[i] > 0:
			signed[i] = volZ[i]
		case rets[i] < 0:
			signed[i] = -volZ[i]
		}
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += signed[i]
		if i >= window {
			sum -= signed[i-window]
		}
		count := i + 1
		if count > window {
			count = window
		}
		out[i] = sum / float64(count)
	}
	return out
}

// RollingVolatility computes the trailing sample standard deviation of simple
// returns. Bars with fewer than two returns in the window yield 0.
func RollingVolatility(candles []models.Candle, window int) []float64 {
	n := len(candles)
	out := make([]float64, n)
	if window <= 0 {
		return out
	}
	rets := PctReturns(candles)
	for i := 1; i < n; i++ {
		lo := i - window + 1
		if lo < 1 {
			lo = 1
		}
		count := i - lo + 1
		if count < 2 {
			continue
		}
		var sum, sum2 float64
		for j := lo; j <= i; j++ {
			sum += rets[j]
			sum2 += rets[j] * rets[j]
		}
		cn := float64(count)
		mean := sum / cn
		variance := (sum2 - cn*mean*mean) / (cn - 1)
		if variance < 0 {
			variance = 0
		}
		out[i] = math.Sqrt(variance)
	}
	return out
}

// TimeOfDay returns the fractional hour of t (9:30 -> 9.5).
func TimeOfDay(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60.0
}

// NormalizeTo01 rescales xs to [0,1] by min/max. Degenerate input maps to 0.
func NormalizeTo01(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	mn, mx := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < mn {
			mn = x
		}
		if x > mx {
			mx = x
		}
	}
	if mx-mn < 1e-12 {
		return out
	}
	for i, x := range xs {
		out[i] = (x - mn) / (mx - mn)
	}
	return out
}

// Compute derives the full feature set for a candle series.
func Compute(candles []models.Candle, window int) []models.FeatureRow {
	if window <= 0 {
		window = DefaultWindow
	}
	rets := PctReturns(candles)
	hlc := HLCRatios(candles)
	amihud := Amihud(candles)
	lambda := RollingLambda(candles, window)
	mfc := MFC(candles, window)
	volZ := VolumeZScore(candles, window)
	vol := RollingVolatility(candles, window)
	flow := CoordinatedFlow(candles, window)

	rows := make([]models.FeatureRow, len(candles))
	for i, c := range candles {
		rows[i] = models.FeatureRow{
			Bucket:     c.Bucket,
			Symbol:     c.Symbol,
			Close:      c.Close,
			Volume:     c.Volume,
			Returns:    rets[i],
			HLCRatio:   hlc[i],
			Amihud:     amihud[i],
			Lambda:     lambda[i],
			MFC:        mfc[i],
			VolumeZ:    volZ[i],
			Volatility: vol[i],
			CoordFlow:  flow[i],
			TimeOfDay:  TimeOfDay(c.Bucket),
		}
	}
	return rows
}
