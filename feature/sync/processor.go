package sync

import (
	"context"
	"fmt"

	"asset-sync/core/batch"
	"asset-sync/core/database"
	"asset-sync/core/device"
	"asset-sync/core/enrich"
	"asset-sync/core/metrics"
	"asset-sync/core/reconcile"
	"asset-sync/core/registry"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Processor runs the devices of one chunk through normalize, reconcile and enrich.
type Processor struct {
	db         *gorm.DB
	reconciler *reconcile.Reconciler
	merger     *enrich.Merger
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewProcessor creates a chunk processor. merger and mx may be nil.
func NewProcessor(db *gorm.DB, reconciler *reconcile.Reconciler, merger *enrich.Merger, mx *metrics.Metrics, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{db: db, reconciler: reconciler, merger: merger, metrics: mx, logger: logger}
}

// ProcessChunk handles the chunk's devices strictly in order. Per-device
// failures are logged and counted; only an unreachable store fails the chunk.
func (p *Processor) ProcessChunk(ctx context.Context, chunk batch.Chunk[device.Payload]) (batch.Counts, error) {
	var counts batch.Counts

	if err := database.Ping(ctx, p.db); err != nil {
		return counts, fmt.Errorf("store unavailable: %w", err)
	}

	for _, payload := range chunk.Items {
		counts.Processed++
		p.process(ctx, payload, &counts)
	}
	return counts, nil
}

func (p *Processor) process(ctx context.Context, payload device.Payload, counts *batch.Counts) {
	source := string(payload.Source)
	log := p.logger.With(zap.String("source", source), zap.String("name", device.PayloadName(payload)))

	rec, err := device.Normalize(payload)
	for _, w := range rec.Warnings {
		log.Warn("Device payload warning", zap.String("serial", rec.SerialNumber), zap.String("warning", w))
	}
	if err == nil {
		log = log.With(zap.String("serial", rec.SerialNumber))
		var res reconcile.Result
		res, err = p.reconciler.Reconcile(ctx, rec)
		if err == nil {
			p.applied(ctx, res, counts, log)
			p.metrics.Device(source, string(res.Outcome))
			return
		}
	}

	counts.Errors++
	if device.IsSkip(err) {
		counts.Skipped++
		p.metrics.Device(source, string(reconcile.OutcomeSkipped))
		log.Warn("Skipping device without serial number")
		return
	}
	p.metrics.Device(source, string(reconcile.OutcomeError))
	log.Error("Failed to sync device", zap.Error(err))
}

func (p *Processor) applied(ctx context.Context, res reconcile.Result, counts *batch.Counts, log *zap.Logger) {
	counts.Synced++
	switch res.Outcome {
	case reconcile.OutcomeCreated:
		counts.Created++
	case reconcile.OutcomeUpdated:
		counts.Updated++
	}
	if res.Restored {
		counts.Restored++
	}

	if p.merger == nil {
		return
	}
	outcome, err := p.merger.Merge(ctx, registry.Asset{ID: res.AssetID, Serial: res.Serial})
	if err != nil {
		log.Warn("Inline enrichment failed", zap.Uint("asset_id", res.AssetID), zap.Error(err))
		return
	}
	if outcome == enrich.OutcomeCleared {
		counts.Cleared++
	}
}
