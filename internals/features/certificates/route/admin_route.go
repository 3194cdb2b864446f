// file: internals/features/certificates/route/admin_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	controller "barangayku_backend/internals/features/certificates/controller"
	"barangayku_backend/internals/events"
)

// CertificateAdminRoutes mounts request review and fee management under /api/a.
func CertificateAdminRoutes(router fiber.Router, db *gorm.DB, publisher *events.Publisher) {
	adminController := controller.NewAdminCertificateController(db, publisher)

	grp := router.Group("/certificates")

	grp.Put("/fees", adminController.UpdateFees)

	grp.Get("/", adminController.ListRequests)
	grp.Patch("/:type/:id/status", adminController.UpdateStatus)
	grp.Delete("/:type/:id", adminController.DeleteRequest)
}
