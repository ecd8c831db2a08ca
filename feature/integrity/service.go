package integrity

import (
	"context"
	"errors"

	"asset-sync/core/registry"
	"asset-sync/core/storage"
	"asset-sync/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNoStorage is returned by storage checks when no bucket client is configured.
	ErrNoStorage = errors.New("storage is not configured")
	// ErrNoDatabase is returned by registry checks when no database is connected.
	ErrNoDatabase = errors.New("database is not connected")
)

// Service handles integrity checks.
type Service struct {
	client  storage.Client
	bucket  string
	folders []string
	db      *gorm.DB
	columns []string
	logger  *zap.Logger
}

// NewService creates a new integrity service. columns are the enrichment
// columns expected on the assets table.
func NewService(client storage.Client, cfg storage.Config, db *gorm.DB, columns []string, logger *zap.Logger) *Service {
	return &Service{
		client:  client,
		bucket:  cfg.Bucket,
		folders: checks.Folders(cfg),
		db:      db,
		columns: columns,
		logger:  logger,
	}
}

// CheckStructure returns a list of missing folders.
func (s *Service) CheckStructure(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, ErrNoStorage
	}
	return checks.CheckStructure(ctx, s.client, s.bucket, s.folders)
}

// FixStructure creates the missing folders.
func (s *Service) FixStructure(ctx context.Context, missing []string) error {
	if s.client == nil {
		return ErrNoStorage
	}
	return checks.FixStructure(ctx, s.client, s.bucket, s.logger, missing)
}

// CheckSchema compares every registry table to its model.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	return checks.CheckSchema(s.db, registry.Models())
}

// CheckColumns returns the enrichment columns missing from the assets table.
func (s *Service) CheckColumns() ([]string, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	return checks.CheckColumns(s.db, s.columns)
}

// FixColumns provisions the given enrichment columns.
func (s *Service) FixColumns(missing []string) ([]string, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	return checks.FixColumns(s.db, s.logger, missing)
}

// CheckSerials lists live serials that collide once normalized.
func (s *Service) CheckSerials(ctx context.Context) ([]checks.DuplicateSerial, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	return checks.CheckSerials(ctx, s.db)
}

// CheckAll runs every check and collects the outcome of each under its name.
// A failing check is reported in place and does not stop the others.
func (s *Service) CheckAll(ctx context.Context) map[string]any {
	report := make(map[string]any)

	if missing, err := s.CheckStructure(ctx); err != nil {
		report["structure"] = failed(err)
	} else {
		report["structure"] = map[string]any{"status": status(len(missing) == 0), "missing": missing}
	}

	if schema, err := s.CheckSchema(); err != nil {
		report["schema"] = failed(err)
	} else {
		report["schema"] = schema
	}

	if missing, err := s.CheckColumns(); err != nil {
		report["columns"] = failed(err)
	} else {
		report["columns"] = map[string]any{"status": status(len(missing) == 0), "missing": missing}
	}

	if dups, err := s.CheckSerials(ctx); err != nil {
		report["serials"] = failed(err)
	} else {
		report["serials"] = map[string]any{"status": status(len(dups) == 0), "duplicates": dups}
	}

	return report
}

func failed(err error) map[string]any {
	return map[string]any{"status": "error", "error": err.Error()}
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "warning"
}
