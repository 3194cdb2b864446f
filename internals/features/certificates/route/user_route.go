// file: internals/features/certificates/route/user_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	controller "barangayku_backend/internals/features/certificates/controller"
	"barangayku_backend/internals/helpers/storage"
)

// CertificateUserRoutes mounts request submission and tracking under /api/u.
func CertificateUserRoutes(router fiber.Router, db *gorm.DB, blob storage.BlobService) {
	certController := controller.NewCertificateController(db, blob)

	grp := router.Group("/certificates")

	grp.Post("/barangay-certificate", certController.SubmitBarangayCertificate)
	grp.Post("/barangay-clearance", certController.SubmitBarangayClearance)
	grp.Post("/business-permit", certController.SubmitBusinessPermit)
	grp.Post("/residency-certificate", certController.SubmitResidencyCertificate)

	grp.Get("/fees", certController.GetFees)
	grp.Get("/", certController.TrackRequests)
}
