package api

import (
	"encoding/json"
	"net/http"
	"time"

	models "tradyxa/internal/domain/models"
	domrepo "tradyxa/internal/domain/repository"
	icache "tradyxa/internal/service/cache"
	"tradyxa/internal/service/metrics"
	"tradyxa/internal/service/ratelimit"
	"tradyxa/internal/services/features"
	"tradyxa/internal/usecase"
	xhttp "tradyxa/pkg/http"
	xlogger "tradyxa/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SnapshotsEchoHandler serves the per-ticker analytics snapshots: the stored
// verdicts, the slippage ladders and on-demand refreshes.
type SnapshotsEchoHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.SnapshotPipeline
	snaps    domrepo.SnapshotStore
	candles  *usecase.CandlesUseCase
	cache    icache.BytesCache
	rl       *ratelimit.Limiter
}

func NewSnapshotsEchoHandler(
	logger *xlogger.Logger,
	pipeline *usecase.SnapshotPipeline,
	snaps domrepo.SnapshotStore,
	candles *usecase.CandlesUseCase,
) *SnapshotsEchoHandler {
	metrics.Register()
	return &SnapshotsEchoHandler{
		logger:   logger,
		pipeline: pipeline,
		snaps:    snaps,
		candles:  candles,
		rl:       ratelimit.New(),
	}
}

// SetCache injects an optional response cache.
func (h *SnapshotsEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *SnapshotsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/tickers", h.List)
	g.GET("/tickers/:ticker", h.Snapshot)
	g.GET("/tickers/:ticker/verdict", h.Verdict)
	g.GET("/tickers/:ticker/slippage", h.Slippage)
	g.POST("/tickers/:ticker/refresh", h.Refresh)
	if h.candles != nil {
		g.GET("/candles", h.Candles)
	}
}

func (h *SnapshotsEchoHandler) observe(endpoint string, start time.Time) {
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (h *SnapshotsEchoHandler) List(c echo.Context) error {
	defer h.observe("tickers_list", time.Now())
	tickers, err := h.snaps.List(c.Request().Context())
	if err != nil {
		metrics.APIErrors.WithLabelValues("tickers_list").Inc()
		h.logger.Error("list snapshots error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]any{"tickers": tickers})
}

func (h *SnapshotsEchoHandler) Snapshot(c echo.Context) error {
	defer h.observe("snapshot", time.Now())
	req := &models.SnapshotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":snapshot", 10, 5) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	cacheKey := "snapshot:" + req.Ticker
	if b, ok := h.cachedBytes(cacheKey); ok {
		return c.JSONBlob(http.StatusOK, b)
	}

	snap, err := h.snaps.Load(c.Request().Context(), req.Ticker)
	if err != nil {
		metrics.APIErrors.WithLabelValues("snapshot").Inc()
		h.logger.Warn("snapshot not found", xlogger.String("ticker", req.Ticker), xlogger.Error(err))
		return echo.NewHTTPError(http.StatusNotFound, "no snapshot for "+req.Ticker)
	}

	// Cache the wrapped body so hits serve byte-identical responses.
	h.storeCached(cacheKey, xhttp.APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    snap,
	}, 15*time.Second)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, snap)
}

func (h *SnapshotsEchoHandler) Verdict(c echo.Context) error {
	defer h.observe("verdict", time.Now())
	req := &models.VerdictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	snap, err := h.snaps.Load(c.Request().Context(), req.Ticker)
	if err != nil {
		metrics.APIErrors.WithLabelValues("verdict").Inc()
		return echo.NewHTTPError(http.StatusNotFound, "no snapshot for "+req.Ticker)
	}
	return xhttp.SuccessResponse(c, map[string]any{
		"verdict":           snap.Verdict,
		"display_points":    snap.DisplayPoints,
		"sizing_multiplier": snap.Sizing,
	})
}

func (h *SnapshotsEchoHandler) Slippage(c echo.Context) error {
	defer h.observe("slippage", time.Now())
	req := &models.SlippageRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":slippage", 5, 2) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	det, monte, err := h.pipeline.Slippage(c.Request().Context(), req.Ticker, req.Notional, req.Sims)
	if err != nil {
		metrics.APIErrors.WithLabelValues("slippage").Inc()
		h.logger.Error("slippage estimate error", xlogger.String("ticker", req.Ticker), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]any{
		"ticker":        req.Ticker,
		"deterministic": det,
		"monte_carlo":   monte,
	})
}

func (h *SnapshotsEchoHandler) Refresh(c echo.Context) error {
	defer h.observe("refresh", time.Now())
	req := &models.SnapshotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":refresh", 2, 0.2) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	snap, err := h.pipeline.Run(c.Request().Context(), req.Ticker)
	if err != nil {
		metrics.APIErrors.WithLabelValues("refresh").Inc()
		metrics.SnapshotRefreshes.WithLabelValues("error").Inc()
		h.logger.Error("refresh error", xlogger.String("ticker", req.Ticker), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	metrics.SnapshotRefreshes.WithLabelValues("ok").Inc()
	return xhttp.SuccessResponse(c, snap)
}

func (h *SnapshotsEchoHandler) Candles(c echo.Context) error {
	defer h.observe("candles", time.Now())
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)
	to := xhttp.ParseTimeDefault(req.To, time.Now().UTC())
	from := xhttp.ParseTimeDefault(req.From, to.Add(-time.Duration(req.N)*tfDuration(tf)))
	from, to = features.AlignFromTo(from, to, string(tf))

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: tf,
		Limit:     req.N,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues("candles").Inc()
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SnapshotsEchoHandler) cachedBytes(key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		h.logger.Warn("cache get error", xlogger.String("key", key), xlogger.Error(err))
		return nil, false
	}
	return b, ok
}

func (h *SnapshotsEchoHandler) storeCached(key string, v any, ttl time.Duration) {
	if h.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := h.cache.SetBytes(key, b, ttl); err != nil {
		h.logger.Warn("cache set error", xlogger.String("key", key), xlogger.Error(err))
	}
}

func tfDuration(tf domrepo.Timeframe) time.Duration {
	switch tf {
	case domrepo.TF1s:
		return time.Second
	case domrepo.TF5m:
		return 5 * time.Minute
	default:
		return time.Minute
	}
}
