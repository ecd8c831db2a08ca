package sync

import (
	"context"
	"errors"
	"fmt"
	"path"
	gosync "sync"
	"time"

	"asset-sync/core/batch"
	"asset-sync/core/cache"
	"asset-sync/core/device"
	"asset-sync/core/enrich"
	"asset-sync/core/logger"
	"asset-sync/core/metrics"
	"asset-sync/core/reconcile"
	"asset-sync/core/registry"
	"asset-sync/core/storage"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrRunInProgress is returned when a source is already being synced.
	ErrRunInProgress = errors.New("a run for this source is already in progress")
	// ErrRunNotFound is returned for an unknown run id.
	ErrRunNotFound = errors.New("sync run not found")
	// ErrNoStorage is returned when a snapshot must come from object storage but none is configured.
	ErrNoStorage = errors.New("object storage is not configured")
)

// Settings groups the configuration sections used by a sync.
type Settings struct {
	Sync     batch.Config
	Intune   reconcile.SourceConfig
	Jamf     reconcile.JamfConfig
	Huntress enrich.Config
}

// Input selects the snapshot of a run. Data wins over File and File over Key.
// When all are empty the latest object in the source folder is used.
type Input struct {
	Data []byte
	File string
	Key  string
}

// Report is the document uploaded to object storage after a run.
type Report struct {
	Run     *registry.SyncRun `json:"run"`
	Summary *batch.RunSummary `json:"summary,omitempty"`
	Totals  *enrich.Totals    `json:"totals,omitempty"`
}

// Service coordinates sync runs.
type Service struct {
	db         *gorm.DB
	snapshots  *storage.Snapshots
	runs       *registry.Runs
	resolver   *reconcile.Resolver
	reconciler *reconcile.Reconciler
	settings   Settings
	metrics    *metrics.Metrics
	logger     *zap.Logger

	mu      gosync.Mutex
	running map[device.Source]bool
}

// NewService creates a sync service. snapshots and mx may be nil.
func NewService(db *gorm.DB, snapshots *storage.Snapshots, settings Settings, mx *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	overrides := map[device.Source]reconcile.Overrides{
		device.SourceIntune: settings.Intune.Overrides(),
		device.SourceJamf:   settings.Jamf.Overrides(),
	}
	ttl := settings.Sync.CacheTTL()
	resolver := reconcile.NewResolver(cache.NewMemory(ttl), ttl, overrides, logger)

	return &Service{
		db:         db,
		snapshots:  snapshots,
		runs:       registry.NewRuns(db),
		resolver:   resolver,
		reconciler: reconcile.NewReconciler(db, resolver, registry.NewUsers(db), logger),
		settings:   settings,
		metrics:    mx,
		logger:     logger,
		running:    make(map[device.Source]bool),
	}
}

// Sync runs a full sync of one source and returns the persisted run.
// The run is returned alongside the error when it could be recorded.
func (s *Service) Sync(ctx context.Context, source device.Source, in Input) (*registry.SyncRun, error) {
	if !source.Valid() {
		return nil, fmt.Errorf("%w: %q", device.ErrUnknownSource, source)
	}
	if !s.acquire(source) {
		return nil, ErrRunInProgress
	}
	defer s.release(source)

	run := &registry.SyncRun{ID: uuid.NewString(), Source: string(source)}
	if err := s.runs.Start(ctx, run); err != nil {
		return nil, err
	}
	log := logger.ForRun(s.logger, run.ID, run.Source)
	log.Info("Sync run started")

	report := &Report{Run: run}
	err := s.execute(ctx, source, in, run, report, log)

	run.Status = registry.RunCompleted
	if err != nil {
		run.Status = registry.RunFailed
		run.Error = err.Error()
		log.Error("Sync run failed", zap.Error(err))
	}

	persist := context.WithoutCancel(ctx)
	if ferr := s.runs.Finish(persist, run); ferr != nil {
		return run, errors.Join(err, ferr)
	}
	s.upload(persist, report, log)

	log.Info("Sync run finished",
		zap.String("status", run.Status),
		zap.Int("processed", run.Processed),
		zap.Int("created", run.Created),
		zap.Int("updated", run.Updated),
		zap.Int("errors", run.Errors))
	return run, err
}

func (s *Service) execute(ctx context.Context, source device.Source, in Input, run *registry.SyncRun, report *Report, log *zap.Logger) error {
	raw, name, err := s.load(ctx, source, in)
	run.Snapshot = name
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	if source == device.SourceHuntress {
		totals, err := s.enrichAll(ctx, raw, log)
		report.Totals = &totals
		run.Processed = totals.Processed
		run.Updated = totals.Updated
		run.Cleared = totals.Cleared
		run.Skipped = totals.Skipped
		run.Errors = totals.Errors
		return err
	}

	summary, err := s.reconcileAll(ctx, source, raw, log)
	if summary != nil {
		report.Summary = summary
		run.Processed = summary.Processed
		run.Synced = summary.Synced
		run.Created = summary.Created
		run.Updated = summary.Updated
		run.Restored = summary.Restored
		run.Skipped = summary.Skipped
		run.Errors = summary.Errors
		run.Cleared = summary.Cleared
		if chunks, merr := json.Marshal(summary.Summaries); merr == nil {
			run.Chunks = datatypes.JSON(chunks)
		}
	}
	return err
}

func (s *Service) reconcileAll(ctx context.Context, source device.Source, raw []byte, log *zap.Logger) (*batch.RunSummary, error) {
	kinds := Kinds{Computers: s.settings.Jamf.SyncComputers, MobileDevices: s.settings.Jamf.SyncMobileDevices}
	payloads, err := DecodePayloads(source, raw, kinds)
	if err != nil {
		return nil, err
	}

	s.resolver.Reset()

	proc := NewProcessor(s.db, s.reconciler, s.inlineMerger(ctx, log), s.metrics, log)
	chunks := batch.Partition(payloads, s.settings.Sync.ChunkSize)
	log.Info("Dispatching chunks", zap.Int("devices", len(payloads)), zap.Int("chunks", len(chunks)))

	observe := func(sum batch.Summary, took time.Duration) {
		s.metrics.Chunk(string(source), sum.Error == "", took)
	}
	d := batch.NewDispatcher[device.Payload](s.settings.Sync.Options(), observe, log)

	summary, err := d.Run(ctx, chunks, proc.ProcessChunk)
	return &summary, err
}

func (s *Service) enrichAll(ctx context.Context, raw []byte, log *zap.Logger) (enrich.Totals, error) {
	agents, err := DecodeAgents(raw)
	if err != nil {
		return enrich.Totals{}, err
	}
	log.Info("Loaded agent snapshot", zap.Int("agents", agents.Len()))

	merger := enrich.NewMerger(s.db, agents, s.settings.Huntress.Options(), s.metrics, log)
	return merger.Run(ctx, s.settings.Huntress.BatchSize)
}

// inlineMerger loads the latest agent snapshot when inline enrichment is on.
func (s *Service) inlineMerger(ctx context.Context, log *zap.Logger) *enrich.Merger {
	if !s.settings.Sync.EnrichInline || s.snapshots == nil {
		return nil
	}
	raw, key, err := s.snapshots.ReadLatest(ctx, string(device.SourceHuntress))
	if errors.Is(err, storage.ErrNoSnapshot) {
		log.Debug("No agent snapshot available; inline enrichment disabled")
		return nil
	}
	if err != nil {
		log.Warn("Failed to load agent snapshot; inline enrichment disabled", zap.Error(err))
		return nil
	}
	agents, err := DecodeAgents(raw)
	if err != nil {
		log.Warn("Malformed agent snapshot; inline enrichment disabled", zap.String("key", key), zap.Error(err))
		return nil
	}
	return enrich.NewMerger(s.db, agents, s.settings.Huntress.Options(), s.metrics, log)
}

func (s *Service) load(ctx context.Context, source device.Source, in Input) ([]byte, string, error) {
	switch {
	case in.Data != nil:
		return in.Data, "request", nil
	case in.File != "":
		data, err := storage.ReadFile(in.File)
		return data, in.File, err
	case s.snapshots == nil:
		return nil, "", ErrNoStorage
	case in.Key != "":
		data, err := s.snapshots.Read(ctx, in.Key)
		return data, in.Key, err
	default:
		return s.snapshots.ReadLatest(ctx, string(source))
	}
}

func (s *Service) upload(ctx context.Context, report *Report, log *zap.Logger) {
	if s.snapshots == nil {
		return
	}
	key, err := s.snapshots.WriteReport(ctx, path.Join(report.Run.Source, report.Run.ID), report)
	if err != nil {
		log.Warn("Failed to upload run report", zap.Error(err))
		return
	}
	log.Info("Uploaded run report", zap.String("key", key))
}

// Runs lists recent runs, optionally filtered by source.
func (s *Service) Runs(ctx context.Context, source string, limit int) ([]registry.SyncRun, error) {
	return s.runs.List(ctx, source, limit)
}

// Run returns one run by id.
func (s *Service) Run(ctx context.Context, id string) (*registry.SyncRun, error) {
	run, err := s.runs.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	return run, err
}

func (s *Service) acquire(source device.Source) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[source] {
		return false
	}
	s.running[source] = true
	return true
}

func (s *Service) release(source device.Source) {
	s.mu.Lock()
	delete(s.running, source)
	s.mu.Unlock()
}
