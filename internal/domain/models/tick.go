package models

import "time"

// Tick is a single trade print as received from the market stream.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
}

// Candle is an OHLCV bar aggregated from ticks (or generated synthetically).
type Candle struct {
	Bucket time.Time `json:"bucket"`
	Symbol string    `json:"symbol"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}
