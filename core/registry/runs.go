package registry

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Runs persists sync run history.
type Runs struct {
	db *gorm.DB
}

// NewRuns creates a run store backed by db.
func NewRuns(db *gorm.DB) *Runs {
	return &Runs{db: db}
}

// Start inserts a running entry.
func (r *Runs) Start(ctx context.Context, run *SyncRun) error {
	if run.Status == "" {
		run.Status = RunRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("create sync run: %w", err)
	}
	return nil
}

// Finish stores the final counts and status of a run.
func (r *Runs) Finish(ctx context.Context, run *SyncRun) error {
	now := time.Now()
	run.FinishedAt = &now
	if err := r.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("finish sync run %s: %w", run.ID, err)
	}
	return nil
}

// List returns the most recent runs, optionally filtered by source.
func (r *Runs) List(ctx context.Context, source string, limit int) ([]SyncRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if source != "" {
		q = q.Where("source = ?", source)
	}

	var runs []SyncRun
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return runs, nil
}

// Get loads one run by id. It returns gorm.ErrRecordNotFound when absent.
func (r *Runs) Get(ctx context.Context, id string) (*SyncRun, error) {
	var run SyncRun
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}
