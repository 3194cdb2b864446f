package details

import (
	"github.com/gofiber/fiber/v2"

	paymentController "barangayku_backend/internals/features/payments/controller"
	paymentRoute "barangayku_backend/internals/features/payments/route"
)

func PaymentPublicRoutes(app *fiber.App) {
	paymentRoute.PaymentPublicRoutes(app)
}

func PaymentUserRoutes(router fiber.Router, pc *paymentController.PaymentController) {
	paymentRoute.PaymentUserRoutes(router, pc)
}

func PaymentAdminRoutes(router fiber.Router, pc *paymentController.PaymentController) {
	paymentRoute.PaymentAdminRoutes(router, pc)
}
