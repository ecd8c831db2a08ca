package integrity

import (
	"errors"

	"asset-sync/core/logger"
	"asset-sync/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	// Force import for Swagger
	var _ = checks.SchemaReport{}
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/structure", h.HandleStructureCheck)
	group.Get("/schema", h.HandleSchemaCheck)
	group.Get("/columns", h.HandleColumnsCheck)
	group.Get("/serials", h.HandleSerialsCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs every integrity check (Structure, Schema, Columns, Serials) and returns a combined report.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	return c.JSON(h.service.CheckAll(c.Context()))
}

// HandleStructureCheck checks and optionally fixes structure.
// @Summary Check Structure
// @Description Checks that the snapshot and report folders exist in the storage bucket. Optionally fixes missing folders.
// @Tags integrity
// @Accept json
// @Produce json
// @Param fix query boolean false "Fix missing folders"
// @Success 200 {object} map[string]interface{} "Structure Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Failure 503 {object} map[string]string "Storage not configured"
// @Router /integrity/structure [get]
func (h *Handler) HandleStructureCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	missing, err := h.service.CheckStructure(c.Context())
	if err != nil {
		l.Error("Structure check failed", zap.Error(err))
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	if len(missing) > 0 {
		l.Warn("Missing folders detected", zap.Strings("missing", missing))

		if fix {
			l.Info("Attempting to fix missing folders")
			if err := h.service.FixStructure(c.Context(), missing); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Failed to fix structure",
					"details": err.Error(),
					"missing": missing,
				})
			}
			return c.JSON(fiber.Map{
				"status": "fixed",
				"fixed":  missing,
			})
		}
	}

	return c.JSON(fiber.Map{
		"status":  "checked",
		"missing": missing,
	})
}

// HandleSchemaCheck checks registry schema integrity.
// @Summary Check Registry Schema
// @Description Checks that every registry table exists and carries the columns and types of its model.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} checks.SchemaReport "Schema Check Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Failure 503 {object} map[string]string "Database not connected"
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Starting registry schema check")

	report, err := h.service.CheckSchema()
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}

// HandleColumnsCheck checks and optionally provisions enrichment columns.
// @Summary Check Enrichment Columns
// @Description Checks that every enrichment column exists on the assets table. Optionally adds missing columns.
// @Tags integrity
// @Accept json
// @Produce json
// @Param fix query boolean false "Provision missing columns"
// @Success 200 {object} map[string]interface{} "Columns Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Failure 503 {object} map[string]string "Database not connected"
// @Router /integrity/columns [get]
func (h *Handler) HandleColumnsCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	missing, err := h.service.CheckColumns()
	if err != nil {
		l.Error("Columns check failed", zap.Error(err))
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	if len(missing) > 0 {
		l.Warn("Missing enrichment columns detected", zap.Int("count", len(missing)))

		if fix {
			added, err := h.service.FixColumns(missing)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Failed to provision columns",
					"details": err.Error(),
					"added":   added,
				})
			}
			return c.JSON(fiber.Map{
				"status": "fixed",
				"fixed":  added,
			})
		}
	}

	return c.JSON(fiber.Map{
		"status":  "checked",
		"missing": missing,
	})
}

// HandleSerialsCheck lists duplicate serials.
// @Summary Check Duplicate Serials
// @Description Lists serials shared by more than one live asset, ignoring case and surrounding whitespace.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Serials Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Failure 503 {object} map[string]string "Database not connected"
// @Router /integrity/serials [get]
func (h *Handler) HandleSerialsCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	dups, err := h.service.CheckSerials(c.Context())
	if err != nil {
		l.Error("Serials check failed", zap.Error(err))
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if len(dups) > 0 {
		l.Warn("Duplicate serials detected", zap.Int("count", len(dups)))
	}

	return c.JSON(fiber.Map{
		"status":     "checked",
		"duplicates": dups,
	})
}

func errorStatus(err error) int {
	if errors.Is(err, ErrNoStorage) || errors.Is(err, ErrNoDatabase) {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}
