package cmd

import (
	"log"
	"time"

	"asset-sync/core/database"
	"asset-sync/core/enrich"
	"asset-sync/core/loader"
	"asset-sync/core/logger"
	"asset-sync/core/metrics"
	"asset-sync/core/middleware/auth"
	"asset-sync/core/middleware/rayid"

	"asset-sync/feature/integrity"
	syncfeature "asset-sync/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "asset-sync/docs/swagger"
)

// @title Asset Sync API
// @version 1.0
// @description API for syncing device inventories into the asset registry.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the asset sync server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration, Logger and Backends (database optional)
		rt, err := bootstrap(false)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		logg := rt.log
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 2. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
			ReadTimeout:           rt.cfg.Server.ReadTimeout(),
			BodyLimit:             rt.cfg.Server.BodyLimit(),
		})

		var mx *metrics.Metrics
		if rt.cfg.Metrics.Enabled {
			mx = metrics.New()
		}

		// 3. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(syncfeature.NewFeature(rt.db, rt.snapshots, rt.settings(), mx, logg))
		mgr.Register(integrity.NewFeature(rt.store, rt.cfg.Storage, rt.db, enrich.Columns(rt.cfg.Huntress.Prefix), logg))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			start := time.Now()
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			l.Info("Request handled",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
				zap.Int("status", c.Response().StatusCode()),
				zap.Duration("took", time.Since(start)),
			)
			return err
		})

		// 3. Metrics
		if mx != nil {
			app.Use(mx.Middleware())
			app.Get(rt.cfg.Metrics.Path, mx.Handler())
		}

		// 4. Public endpoints
		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Get("/health", func(c *fiber.Ctx) error {
			status := fiber.Map{"status": "ok", "database": "disabled"}
			if rt.db != nil {
				status["database"] = "ok"
				if err := database.Ping(c.Context(), rt.db); err != nil {
					status["status"] = "degraded"
					status["database"] = err.Error()
					return c.Status(fiber.StatusServiceUnavailable).JSON(status)
				}
			}
			return c.JSON(status)
		})

		// 5. Auth (Protect API)
		app.Use(auth.New(auth.Config{
			ApiKey: rt.cfg.Server.ApiKey,
			Skip:   []string{"/health", rt.cfg.Metrics.Path},
		}))
		if !rt.cfg.Server.AuthEnabled() {
			logg.Warn("API key is empty, requests are not authenticated")
		}

		// 6. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 7. Start Server
		go func() {
			logg.Info("Starting server", zap.String("addr", rt.cfg.Server.Addr()))
			if err := app.Listen(rt.cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		<-cmd.Context().Done()
		logg.Info("Shutting down server...")
		_ = app.ShutdownWithTimeout(30 * time.Second)
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
