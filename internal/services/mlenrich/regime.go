package mlenrich

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tradyxa/internal/domain/models"
	domsvc "tradyxa/internal/domain/service"
	pkgcache "tradyxa/pkg/cache"
	"tradyxa/pkg/config"
)

type HTTPRegimeDetector struct {
	base  *HTTPServiceBase
	cache pkgcache.Service
	ttl   time.Duration
}

func NewHTTPRegimeDetector(cfg *config.Config) *HTTPRegimeDetector {
	return &HTTPRegimeDetector{base: NewHTTPServiceBase(cfg)}
}

// SetCache enables short-lived caching of regime responses per symbol.
func (d *HTTPRegimeDetector) SetCache(c pkgcache.Service, ttl time.Duration) {
	d.cache = c
	d.ttl = ttl
}

type regimeRequest struct {
	Symbol  string    `json:"symbol"`
	Returns []float64 `json:"returns"`
}

type regimeResponse struct {
	State      string  `json:"state"`
	Confidence float64 `json:"confidence"`
}

// regimeScore maps a regime label to a signed verdict contribution: calm
// regimes help the bull case, stressed regimes penalize it.
var regimeScore = map[string]float64{
	"quiet":    0.1,
	"bull":     0.0,
	"volatile": -0.15,
	"bear":     -0.25,
}

func (d *HTTPRegimeDetector) Detect(ctx context.Context, symbol string, returns []float64) (models.RegimeSignal, error) {
	key := pkgcache.GenerateKey("enrich:regime", symbol)

	var rr regimeResponse
	if d.cache != nil {
		var cached string
		if err := d.cache.Get(ctx, key, &cached); err == nil {
			if err := json.Unmarshal([]byte(cached), &rr); err == nil {
				return d.toSignal(rr), nil
			}
		}
	}
	if err := d.base.PostJSONWithRetry(ctx, "/regime/detect", regimeRequest{Symbol: symbol, Returns: returns}, &rr, 3); err != nil {
		return models.RegimeSignal{}, fmt.Errorf("post regime: %w", err)
	}
	if d.cache != nil && d.ttl > 0 {
		if b, err := json.Marshal(rr); err == nil {
			_ = d.cache.Set(ctx, key, string(b), d.ttl)
		}
	}
	return d.toSignal(rr), nil
}

func (d *HTTPRegimeDetector) toSignal(rr regimeResponse) models.RegimeSignal {
	return models.RegimeSignal{
		State:      rr.State,
		Score:      regimeScore[rr.State],
		Confidence: rr.Confidence,
	}
}

var _ domsvc.RegimeDetector = (*HTTPRegimeDetector)(nil)
