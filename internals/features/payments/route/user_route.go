// file: internals/features/payments/route/user_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	controller "barangayku_backend/internals/features/payments/controller"
	rateLimiter "barangayku_backend/internals/middlewares"
)

// PaymentUserRoutes mounts checkout, navigation reporting and history
// under /api/u. The controller is shared with the admin mount so both
// sides see the same in-memory flow registry.
func PaymentUserRoutes(router fiber.Router, pc *controller.PaymentController) {
	grp := router.Group("/payments")

	grp.Post("/checkout", rateLimiter.CheckoutRateLimiter(), pc.BeginCheckout)
	grp.Post("/checkout/:payment_id/navigation", pc.OnNavigation)
	grp.Get("/", pc.MyPayments)
}

// PaymentAdminRoutes mounts the full ledger listing under /api/a.
func PaymentAdminRoutes(router fiber.Router, pc *controller.PaymentController) {
	router.Get("/payments", pc.ListPayments)
}

// PaymentPublicRoutes serves the provider redirect landing pages. The
// embedded browser is expected to intercept these URLs before they load;
// the pages only matter when a user opens checkout in a plain browser.
func PaymentPublicRoutes(app *fiber.App) {
	app.Get("/api/payments/paypal/return", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString("<html><body><p>Payment approved. You can return to the app.</p></body></html>")
	})
	app.Get("/api/payments/paypal/cancel", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString("<html><body><p>Payment cancelled. You can return to the app.</p></body></html>")
	})
}
