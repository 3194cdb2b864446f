// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"barangayku_backend/internals/events"
	paymentController "barangayku_backend/internals/features/payments/controller"
	paymentService "barangayku_backend/internals/features/payments/service"
	"barangayku_backend/internals/helpers/storage"
	authMiddleware "barangayku_backend/internals/middlewares/auth"
	routeDetails "barangayku_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB, provider paymentService.Provider, publisher *events.Publisher) {
	startTime = time.Now()

	BaseRoutes(app, db)

	// ===================== PUBLIC =====================
	log.Println("[INFO] Setting up AuthRoutes...")
	routeDetails.AuthRoutes(app, db)

	log.Println("[INFO] Setting up payment redirect pages...")
	routeDetails.PaymentPublicRoutes(app)

	// ===================== GROUPS =====================
	log.Println("[INFO] Setting up PRIVATE group (/api/u)...")
	private := app.Group("/api/u", authMiddleware.AuthMiddleware(db))

	log.Println("[INFO] Setting up ADMIN group (/api/a)...")
	admin := app.Group("/api/a",
		authMiddleware.AuthMiddleware(db),
		authMiddleware.OnlyRoles("Admin access required", "admin", "staff"),
	)

	// blob storage for uploaded IDs and supporting documents
	blob := loadBlobService()

	// one payment controller for both mounts so they share the flow registry
	pc := paymentController.NewPaymentController(db, provider, publisher)

	// ===================== MOUNT ROUTES =====================
	log.Println("[INFO] Mounting User routes...")
	routeDetails.AuthUserRoutes(private, db)
	routeDetails.UserRoutes(private, db)
	routeDetails.UserAdminRoutes(admin, db)

	log.Println("[INFO] Mounting Certificate routes...")
	routeDetails.CertificateUserRoutes(private, db, blob)
	routeDetails.CertificateAdminRoutes(admin, db, publisher)

	log.Println("[INFO] Mounting Payment routes...")
	routeDetails.PaymentUserRoutes(private, pc)
	routeDetails.PaymentAdminRoutes(admin, pc)
}

// loadBlobService wires OSS from env; without credentials uploads would
// fail at request time anyway, so fall back to the in-memory stub and log.
func loadBlobService() storage.BlobService {
	svc, err := storage.NewOSSBlobServiceFromEnv("residents")
	if err != nil {
		log.Printf("[STORAGE] OSS not configured, document uploads are stubbed: %v", err)
		return &storage.MockBlobService{}
	}
	return svc
}
