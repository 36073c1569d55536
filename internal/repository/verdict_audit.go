package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"tradyxa/internal/domain/models"
	domrepo "tradyxa/internal/domain/repository"
)

// ClickHouseVerdictAudit appends every evaluated verdict to an audit table
// for offline analysis of signal quality over time.
type ClickHouseVerdictAudit struct {
	db    *sql.DB
	table string
}

func NewClickHouseVerdictAudit(db *sql.DB, table string) *ClickHouseVerdictAudit {
	if table == "" {
		table = "tradyxa.verdict_audit"
	}
	return &ClickHouseVerdictAudit{db: db, table: table}
}

func (a *ClickHouseVerdictAudit) Record(ctx context.Context, snap *models.TickerSnapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	components, err := json.Marshal(snap.Verdict.Components)
	if err != nil {
		return fmt.Errorf("marshal components: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO %s
        (ts, ticker, direction, points, error, confidence, data_quality, sizing, source, components)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, a.table)
	_, err = a.db.ExecContext(ctx, q,
		snap.GeneratedAt,
		snap.Ticker,
		string(snap.Verdict.Direction),
		snap.Verdict.Points,
		snap.Verdict.Error,
		snap.Verdict.Confidence,
		string(snap.Verdict.DataQuality),
		snap.Sizing,
		snap.Meta.Source,
		string(components),
	)
	if err != nil {
		return fmt.Errorf("insert verdict audit: %w", err)
	}
	return nil
}

var _ domrepo.VerdictAudit = (*ClickHouseVerdictAudit)(nil)
