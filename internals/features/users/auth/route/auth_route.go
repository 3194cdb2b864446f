// file: internals/features/users/auth/route/auth_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	controller "barangayku_backend/internals/features/users/auth/controller"
	rateLimiter "barangayku_backend/internals/middlewares"
)

func AuthRoutes(app *fiber.App, db *gorm.DB) {
	authController := controller.NewAuthController(db)

	// Base: /api/auth (public, no JWT)
	base := app.Group("/api/auth")

	base.Post("/register", rateLimiter.RegisterRateLimiter(), authController.Register)
	base.Post("/login", rateLimiter.LoginRateLimiter(), authController.Login)
	base.Post("/login-google", rateLimiter.LoginRateLimiter(), authController.LoginGoogle)
	base.Post("/forgot-password/reset", authController.ResetPassword)

	// refresh + logout live on the cookie path, CSRF enforced in the service
	base.Post("/refresh-token", authController.RefreshToken)
	base.Post("/logout", authController.Logout)
}

// Authenticated auth actions mounted under /api/u.
func AuthUserRoutes(router fiber.Router, db *gorm.DB) {
	authController := controller.NewAuthController(db)

	router.Post("/auth/change-password", authController.ChangePassword)
}
