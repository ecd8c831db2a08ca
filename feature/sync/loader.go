package sync

import (
	"asset-sync/core/metrics"
	"asset-sync/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new Sync feature.
func NewFeature(db *gorm.DB, snapshots *storage.Snapshots, settings Settings, mx *metrics.Metrics, logger *zap.Logger) *Feature {
	svc := NewService(db, snapshots, settings, mx, logger)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "sync"
}

// IsEnabled reports whether the registry database is available.
func (f *Feature) IsEnabled() bool {
	return f.service.db != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Service exposes the feature's service to CLI commands.
func (f *Feature) Service() *Service {
	return f.service
}
