// Package synthetic generates deterministic OHLCV series for development and
// for tickers with no live data. The series is seeded by ticker (or an
// explicit seed) so repeated runs produce identical bars.
package synthetic

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"tradyxa/internal/domain/models"
)

const (
	BarInterval     = 5 * time.Minute
	DefaultBars     = 78 * 30 // ~30 trading days of 5m bars
	DefaultStart    = 20000.0
	baseVolume      = 1_000_000
	volumePeakHour  = 13.0
	volumePeakWidth = 3.0
)

type Generator struct {
	Bars       int
	StartPrice float64
	// Seed overrides the per-ticker hash seed when non-zero.
	Seed int64
}

func NewGenerator() *Generator {
	return &Generator{Bars: DefaultBars, StartPrice: DefaultStart}
}

// Generate produces bars ending at `end` (truncated to the minute). The same
// ticker, bar count and end time always produce the same series.
func (g *Generator) Generate(ticker string, end time.Time) []models.Candle {
	bars := g.Bars
	if bars <= 0 {
		bars = DefaultBars
	}
	start := g.StartPrice
	if start <= 0 {
		start = DefaultStart
	}
	seed := g.Seed
	if seed == 0 {
		seed = tickerSeed(ticker)
	}
	rnd := rand.New(rand.NewSource(seed))

	end = end.UTC().Truncate(time.Minute)
	first := end.Add(-time.Duration(bars-1) * BarInterval)

	candles := make([]models.Candle, bars)
	price := start
	prevClose := start
	for i := 0; i < bars; i++ {
		ret := 0.00001 + rnd.NormFloat64()*0.0002 + rnd.NormFloat64()*0.0015
		price *= 1 + ret

		high := price * (1 + math.Abs(rnd.NormFloat64()*0.0008))
		low := price * (1 - math.Abs(rnd.NormFloat64()*0.0008))

		ts := first.Add(time.Duration(i) * BarInterval)
		hour := float64(ts.Hour()) + float64(ts.Minute())/60.0
		profile := math.Exp(-math.Pow(hour-volumePeakHour, 2) / (2 * volumePeakWidth * volumePeakWidth))
		volume := math.Floor(baseVolume * profile * (0.5 + rnd.Float64()))

		open := prevClose
		if i == 0 {
			open = price
		}
		candles[i] = models.Candle{
			Bucket: ts,
			Symbol: ticker,
			Open:   open,
			High:   math.Max(high, math.Max(open, price)),
			Low:    math.Min(low, math.Min(open, price)),
			Close:  price,
			Volume: volume,
		}
		prevClose = price
	}
	return candles
}

func tickerSeed(ticker string) int64 {
	h := fnv.New32a()
	h.Write([]byte(ticker))
	return int64(h.Sum32())
}
