package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tradyxa/internal/domain/models"
	domrepo "tradyxa/internal/domain/repository"
	domsvc "tradyxa/internal/domain/service"
	"tradyxa/internal/services/features"
	"tradyxa/internal/services/slippage"
	"tradyxa/internal/services/synthetic"
	"tradyxa/internal/verdict"
	"tradyxa/pkg/config"
	"tradyxa/pkg/logger"
)

// SnapshotPipeline builds per-ticker analytics snapshots: candles -> features
// -> slippage ladders -> verdict. It prefers stored candles and falls back to
// the synthetic generator when the store is empty (or synthetic mode is on).
type SnapshotPipeline struct {
	store  domrepo.FeatureStore
	snaps  domrepo.SnapshotStore
	audit  domrepo.VerdictAudit // optional
	regime domsvc.RegimeDetector
	slipML domsvc.SlippageForecaster
	gen    *synthetic.Generator
	est    *slippage.Estimator
	events domrepo.VerdictEvents // optional
	cfg    *config.Config
	log    *logger.Logger
}

func NewSnapshotPipeline(
	store domrepo.FeatureStore,
	snaps domrepo.SnapshotStore,
	audit domrepo.VerdictAudit,
	regime domsvc.RegimeDetector,
	slipML domsvc.SlippageForecaster,
	gen *synthetic.Generator,
	est *slippage.Estimator,
	cfg *config.Config,
	log *logger.Logger,
) *SnapshotPipeline {
	return &SnapshotPipeline{
		store:  store,
		snaps:  snaps,
		audit:  audit,
		regime: regime,
		slipML: slipML,
		gen:    gen,
		est:    est,
		cfg:    cfg,
		log:    log,
	}
}

// SetVerdictEvents enables verdict event publication after each refresh.
func (p *SnapshotPipeline) SetVerdictEvents(ev domrepo.VerdictEvents) { p.events = ev }

func (p *SnapshotPipeline) notionals() []float64 {
	if len(p.cfg.Pipeline.NotionalSizes) > 0 {
		return p.cfg.Pipeline.NotionalSizes
	}
	return []float64{100_000, 250_000, 500_000, 1_000_000}
}

func (p *SnapshotPipeline) lookback() int {
	if p.cfg.Pipeline.LookbackBars > 0 {
		return p.cfg.Pipeline.LookbackBars
	}
	return synthetic.DefaultBars
}

// candles loads the lookback window from the feature store, falling back to
// the synthetic generator.
func (p *SnapshotPipeline) candles(ctx context.Context, ticker string) ([]models.Candle, string, error) {
	if !p.cfg.Pipeline.Synthetic.Enabled && p.store != nil {
		cs, err := p.store.GetLatestNCandles(ctx, ticker, p.lookback(), domrepo.TF5m)
		if err == nil && len(cs) > 0 {
			return cs, "stream", nil
		}
		if err != nil {
			p.log.Warn("candle fetch failed, falling back to synthetic",
				logger.String("ticker", ticker), logger.Error(err))
		}
	}
	if p.gen == nil {
		return nil, "", fmt.Errorf("no candles for %s and synthetic generator disabled", ticker)
	}
	return p.gen.Generate(ticker, time.Now().UTC()), "synthetic", nil
}

// BuildSnapshot runs the full pipeline for one ticker without persisting.
func (p *SnapshotPipeline) BuildSnapshot(ctx context.Context, ticker string) (*models.TickerSnapshot, error) {
	candles, source, err := p.candles(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("empty candle series for %s", ticker)
	}

	rows := features.Compute(candles, features.DefaultWindow)

	sizes := p.notionals()
	det, monte := p.est.Ladder(rows, sizes, 0) // 0 = estimator default sims
	firstDet := det[0]
	firstMonte := monte[0]

	regimeSig, slipMLEst := p.enrich(ctx, ticker, rows, sizes[0])

	comps := verdictComponents(rows, firstDet, regimeSig, slipMLEst)
	samples := verdict.Breakdown(firstDet.NSamples, firstMonte.NSamples, len(rows))

	v, err := verdict.Evaluate(comps, samples, p.cfg.Verdict, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("evaluate verdict for %s: %w", ticker, err)
	}

	logRets := features.ComputeLogReturns(candles)
	annVol := features.RealizedVolatility(logRets, features.DefaultWindow, features.BarsPerYearForTF("5m"))

	snap := &models.TickerSnapshot{
		Ticker:        ticker,
		GeneratedAt:   v.Timestamp,
		Verdict:       v,
		DisplayPoints: v.DisplayPoints(p.cfg.Verdict),
		Sizing:        verdict.SizingMultiplier(v, p.cfg.Verdict.Sizing),
		Slippage:      det,
		MonteCarlo:    monte,
		Regime:        regimeSig,
		AnnualizedVol: annVol,
		Meta: models.SnapshotMeta{
			Source:        source,
			Bars:          len(candles),
			Window:        time.Duration(len(candles)) * synthetic.BarInterval,
			EnrichApplied: regimeSig != nil || slipMLEst != nil,
		},
	}
	return snap, nil
}

// enrich calls the optional model service. Failures degrade to nil, never to
// a pipeline error.
func (p *SnapshotPipeline) enrich(ctx context.Context, ticker string, rows []models.FeatureRow, notional float64) (*models.RegimeSignal, *models.SlippageEstimate) {
	if !p.cfg.Enrich.Enabled {
		return nil, nil
	}
	var regimeSig *models.RegimeSignal
	var slipEst *models.SlippageEstimate

	if p.regime != nil {
		rets := make([]float64, 0, len(rows))
		for _, r := range rows {
			rets = append(rets, r.Returns)
		}
		if sig, err := p.regime.Detect(ctx, ticker, rets); err != nil {
			p.log.Warn("regime enrichment failed", logger.String("ticker", ticker), logger.Error(err))
		} else {
			regimeSig = &sig
		}
	}
	if p.slipML != nil {
		last := rows[len(rows)-1]
		feats := map[string]float64{
			"amihud":     last.Amihud,
			"lambda":     last.Lambda,
			"mfc":        last.MFC,
			"volume_z":   last.VolumeZ,
			"volatility": last.Volatility,
			"coord_flow": last.CoordFlow,
		}
		if est, err := p.slipML.Forecast(ctx, ticker, feats, notional); err != nil {
			p.log.Warn("slippage enrichment failed", logger.String("ticker", ticker), logger.Error(err))
		} else {
			slipEst = &est
		}
	}
	return regimeSig, slipEst
}

// Slippage computes an on-demand estimate pair for a single notional without
// touching the snapshot store.
func (p *SnapshotPipeline) Slippage(ctx context.Context, ticker string, notional float64, sims int) (det, monte models.SlippageEstimate, err error) {
	candles, _, err := p.candles(ctx, ticker)
	if err != nil {
		return det, monte, err
	}
	rows := features.Compute(candles, features.DefaultWindow)
	return p.est.Deterministic(rows, notional), p.est.MonteCarlo(rows, notional, sims), nil
}

// Run builds and persists the snapshot for one ticker.
func (p *SnapshotPipeline) Run(ctx context.Context, ticker string) (*models.TickerSnapshot, error) {
	start := time.Now()
	snap, err := p.BuildSnapshot(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if err := p.snaps.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot for %s: %w", ticker, err)
	}
	if p.audit != nil {
		if err := p.audit.Record(ctx, snap); err != nil {
			p.log.Warn("verdict audit failed", logger.String("ticker", ticker), logger.Error(err))
		}
	}
	if p.events != nil {
		if err := p.events.PublishVerdict(ctx, snap); err != nil {
			p.log.Warn("verdict event publish failed", logger.String("ticker", ticker), logger.Error(err))
		}
	}
	p.log.Info("snapshot built",
		logger.String("ticker", ticker),
		logger.String("direction", string(snap.Verdict.Direction)),
		logger.Float64("points", snap.Verdict.Points),
		logger.Float64("confidence", snap.Verdict.Confidence),
		logger.String("data_quality", string(snap.Verdict.DataQuality)),
		logger.Duration("took", time.Since(start)))
	return snap, nil
}

// RunAll refreshes every configured ticker with a bounded worker pool.
// Per-ticker failures are logged and counted, not fatal.
func (p *SnapshotPipeline) RunAll(ctx context.Context) error {
	tickers := p.cfg.Pipeline.Tickers
	workers := p.cfg.Pipeline.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(tickers) {
		workers = len(tickers)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failed int

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				if _, err := p.Run(ctx, ticker); err != nil {
					p.log.Error("snapshot refresh failed",
						logger.String("ticker", ticker), logger.Error(err))
					mu.Lock()
					failed++
					mu.Unlock()
				}
			}
		}()
	}

	for _, t := range tickers {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- t:
		}
	}
	close(jobs)
	wg.Wait()

	if failed == len(tickers) && len(tickers) > 0 {
		return fmt.Errorf("all %d ticker refreshes failed", failed)
	}
	return nil
}
