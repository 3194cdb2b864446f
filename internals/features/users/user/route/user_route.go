// file: internals/features/users/user/route/user_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	controller "barangayku_backend/internals/features/users/user/controller"
)

// UserRoutes mounts the self-service profile endpoints under /api/u.
func UserRoutes(router fiber.Router, db *gorm.DB) {
	userController := controller.NewUserController(db)

	router.Get("/users/me", userController.GetProfile)
	router.Put("/users/me", userController.UpdateProfile)
}

// UserAdminRoutes mounts resident management under /api/a.
func UserAdminRoutes(router fiber.Router, db *gorm.DB) {
	userController := controller.NewUserController(db)

	router.Get("/users", userController.ListUsers)
	router.Patch("/users/:id/active", userController.ToggleActive)
	router.Delete("/users/:id", userController.DeleteUser)
}
