package mlenrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"tradyxa/internal/domain/models"
	domsvc "tradyxa/internal/domain/service"
	pkgcache "tradyxa/pkg/cache"
	"tradyxa/pkg/config"
)

type HTTPSlippageForecaster struct {
	base  *HTTPServiceBase
	cache pkgcache.Service
	ttl   time.Duration
}

func NewHTTPSlippageForecaster(cfg *config.Config) *HTTPSlippageForecaster {
	return &HTTPSlippageForecaster{base: NewHTTPServiceBase(cfg)}
}

// SetCache enables short-lived caching of forecasts per symbol and notional.
func (f *HTTPSlippageForecaster) SetCache(c pkgcache.Service, ttl time.Duration) {
	f.cache = c
	f.ttl = ttl
}

type slippageRequest struct {
	Symbol   string             `json:"symbol"`
	Features map[string]float64 `json:"features"`
	Notional float64            `json:"notional"`
}

type slippageResponse struct {
	Median   float64 `json:"median"`
	P10      float64 `json:"p10"`
	P90      float64 `json:"p90"`
	NSamples int     `json:"n_samples"`
}

func (f *HTTPSlippageForecaster) Forecast(ctx context.Context, symbol string, features map[string]float64, notional float64) (models.SlippageEstimate, error) {
	key := pkgcache.GenerateKeyWithParams("enrich:slippage", symbol, strconv.FormatFloat(notional, 'f', 0, 64))

	var sr slippageResponse
	if f.cache != nil {
		var cached string
		if err := f.cache.Get(ctx, key, &cached); err == nil {
			if err := json.Unmarshal([]byte(cached), &sr); err == nil {
				return f.toEstimate(sr, notional), nil
			}
		}
	}
	if err := f.base.PostJSONWithRetry(ctx, "/slippage/predict", slippageRequest{Symbol: symbol, Features: features, Notional: notional}, &sr, 3); err != nil {
		return models.SlippageEstimate{}, fmt.Errorf("post slippage: %w", err)
	}
	if f.cache != nil && f.ttl > 0 {
		if b, err := json.Marshal(sr); err == nil {
			_ = f.cache.Set(ctx, key, string(b), f.ttl)
		}
	}
	return f.toEstimate(sr, notional), nil
}

func (f *HTTPSlippageForecaster) toEstimate(sr slippageResponse, notional float64) models.SlippageEstimate {
	return models.SlippageEstimate{
		Notional: notional,
		Median:   sr.Median,
		P10:      sr.P10,
		P90:      sr.P90,
		NSamples: sr.NSamples,
	}
}

var _ domsvc.SlippageForecaster = (*HTTPSlippageForecaster)(nil)
