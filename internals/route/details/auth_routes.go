package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authRoute "barangayku_backend/internals/features/users/auth/route"
)

func AuthRoutes(app *fiber.App, db *gorm.DB) {
	authRoute.AuthRoutes(app, db)
}

func AuthUserRoutes(router fiber.Router, db *gorm.DB) {
	authRoute.AuthUserRoutes(router, db)
}
