package synthetic

import (
	"reflect"
	"testing"
	"time"
)

var genEnd = time.Date(2025, 3, 14, 16, 0, 0, 0, time.UTC)

func TestGenerate_Deterministic(t *testing.T) {
	g := NewGenerator()
	a := g.Generate("NIFTY", genEnd)
	b := g.Generate("NIFTY", genEnd)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same ticker and end must produce identical series")
	}
	c := g.Generate("BANKNIFTY", genEnd)
	if reflect.DeepEqual(a, c) {
		t.Fatal("different tickers must diverge")
	}
}

func TestGenerate_BarShape(t *testing.T) {
	g := &Generator{Bars: 100, StartPrice: 500}
	candles := g.Generate("TEST", genEnd)
	if len(candles) != 100 {
		t.Fatalf("expected 100 bars, got %d", len(candles))
	}
	for i, c := range candles {
		if c.High < c.Low {
			t.Fatalf("bar %d: high %v below low %v", i, c.High, c.Low)
		}
		if c.High < c.Close || c.Low > c.Close {
			t.Fatalf("bar %d: close %v outside [%v,%v]", i, c.Close, c.Low, c.High)
		}
		if c.Volume < 0 {
			t.Fatalf("bar %d: negative volume", i)
		}
		if c.Symbol != "TEST" {
			t.Fatalf("bar %d: wrong symbol %q", i, c.Symbol)
		}
		if i > 0 {
			want := candles[i-1].Bucket.Add(BarInterval)
			if !c.Bucket.Equal(want) {
				t.Fatalf("bar %d: gap in series, got %v want %v", i, c.Bucket, want)
			}
			if c.Open != candles[i-1].Close {
				t.Fatalf("bar %d: open must equal previous close", i)
			}
		}
	}
	last := candles[len(candles)-1]
	if !last.Bucket.Equal(genEnd.Truncate(time.Minute)) {
		t.Fatalf("series must end at the requested time, got %v", last.Bucket)
	}
}

func TestGenerate_ExplicitSeedOverridesTicker(t *testing.T) {
	a := (&Generator{Bars: 50, StartPrice: 500, Seed: 7}).Generate("AAA", genEnd)
	b := (&Generator{Bars: 50, StartPrice: 500, Seed: 7}).Generate("BBB", genEnd)
	for i := range a {
		if a[i].Close != b[i].Close {
			t.Fatal("explicit seed must make series ticker-independent")
		}
	}
}
