package integrity

import (
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

// NewFeature creates a new Integrity feature.
func NewFeature(client storage.Client, cfg storage.Config, db *gorm.DB, columns []string, logger *zap.Logger) *Feature {
	svc := NewService(client, cfg, db, columns, logger)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "integrity"
}

// IsEnabled returns true when at least one backend can be checked.
func (f *Feature) IsEnabled() bool {
	return f.service.client != nil || f.service.db != nil
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
