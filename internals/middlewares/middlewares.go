package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"barangayku_backend/internals/middlewares/logger"
)

// SetupMiddlewares installs the base middleware chain for the whole app.
func SetupMiddlewares(app *fiber.App) {
	app.Use(RecoveryMiddleware())
	app.Use(CorsMiddleware())
	app.Use(logger.LoggerMiddleware())
	app.Use(GlobalRateLimiter())
}
