package sync

import (
	"errors"

	"asset-sync/core/device"
	"asset-sync/core/logger"
	"asset-sync/core/registry"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for sync runs.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	// Force import for Swagger
	var _ = registry.SyncRun{}
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Get("/runs", h.HandleListRuns)
	group.Get("/runs/:id", h.HandleGetRun)
	group.Post("/:source", h.HandleSync)
}

// HandleListRuns returns recent sync runs.
// @Summary List Sync Runs
// @Description Returns the most recent sync runs, newest first.
// @Tags sync
// @Produce json
// @Param source query string false "Filter by source (intune, jamf, huntress)"
// @Param limit query int false "Maximum number of runs (default 50, max 200)"
// @Success 200 {array} registry.SyncRun "Runs"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/runs [get]
func (h *Handler) HandleListRuns(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	runs, err := h.service.Runs(c.Context(), c.Query("source"), c.QueryInt("limit", 50))
	if err != nil {
		l.Error("Listing sync runs failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(runs)
}

// HandleGetRun returns one sync run.
// @Summary Get Sync Run
// @Description Returns a sync run with its per-chunk summaries.
// @Tags sync
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} registry.SyncRun "Run"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/runs/{id} [get]
func (h *Handler) HandleGetRun(c *fiber.Ctx) error {
	run, err := h.service.Run(c.Context(), c.Params("id"))
	if errors.Is(err, ErrRunNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Loading sync run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(run)
}

// HandleSync runs a full sync of one source.
// @Summary Run Sync
// @Description Reconciles a source snapshot into the asset registry. The snapshot is the request body when present, otherwise the object named by key, otherwise the latest export of the source. This operation may take a long time.
// @Tags sync
// @Accept json
// @Produce json
// @Param source path string true "Source (intune, jamf, huntress)"
// @Param key query string false "Snapshot object key"
// @Success 200 {object} registry.SyncRun "Completed run"
// @Failure 400 {object} map[string]string "Unknown source"
// @Failure 409 {object} map[string]string "Run in progress"
// @Failure 500 {object} map[string]interface{} "Failed run"
// @Router /sync/{source} [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	source := device.Source(c.Params("source"))
	l := logger.WithRayID(h.service.logger, c).With(zap.String("source", string(source)))

	if !source.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown source"})
	}

	in := Input{Key: c.Query("key")}
	if body := c.Body(); len(body) > 0 {
		in.Data = append([]byte(nil), body...)
	}

	l.Info("Triggering sync")
	run, err := h.service.Sync(c.Context(), source, in)
	switch {
	case errors.Is(err, ErrRunInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil && run == nil:
		l.Error("Sync failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error(), "run": run})
	}
	return c.JSON(run)
}
