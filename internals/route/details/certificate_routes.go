package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"barangayku_backend/internals/events"
	certRoute "barangayku_backend/internals/features/certificates/route"
	"barangayku_backend/internals/helpers/storage"
)

func CertificateUserRoutes(router fiber.Router, db *gorm.DB, blob storage.BlobService) {
	certRoute.CertificateUserRoutes(router, db, blob)
}

func CertificateAdminRoutes(router fiber.Router, db *gorm.DB, publisher *events.Publisher) {
	certRoute.CertificateAdminRoutes(router, db, publisher)
}
