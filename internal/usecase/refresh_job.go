package usecase

import (
	"context"
	"fmt"

	"tradyxa/pkg/queue"
)

// RefreshPayload identifies the ticker a queued refresh applies to.
type RefreshPayload struct {
	Ticker string `json:"ticker"`
}

// SnapshotRefreshJob rebuilds one ticker snapshot from a queued message.
// Failures are retried by the queue with backoff and land in the DLQ after
// the retry limit.
type SnapshotRefreshJob struct {
	pipeline *SnapshotPipeline
}

func NewSnapshotRefreshJob(pipeline *SnapshotPipeline) *SnapshotRefreshJob {
	return &SnapshotRefreshJob{pipeline: pipeline}
}

func (j *SnapshotRefreshJob) Name() string { return "snapshot_refresh" }

func (j *SnapshotRefreshJob) Type() string { return "snapshot.refresh" }

func (j *SnapshotRefreshJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RefreshPayload](payload)
	if err != nil {
		return fmt.Errorf("parse refresh payload: %w", err)
	}
	if p.Ticker == "" {
		return fmt.Errorf("refresh payload missing ticker")
	}
	if _, err := j.pipeline.Run(ctx, p.Ticker); err != nil {
		return fmt.Errorf("refresh %s: %w", p.Ticker, err)
	}
	return nil
}

var _ queue.Job = (*SnapshotRefreshJob)(nil)
