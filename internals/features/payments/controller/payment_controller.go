package controller

import (
	"errors"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"barangayku_backend/internals/events"
	certController "barangayku_backend/internals/features/certificates/controller"
	paymentDTO "barangayku_backend/internals/features/payments/dto"
	paymentModel "barangayku_backend/internals/features/payments/model"
	paymentService "barangayku_backend/internals/features/payments/service"
	helpers "barangayku_backend/internals/helpers"
)

type PaymentController struct {
	DB        *gorm.DB
	Ledger    paymentService.Ledger
	Provider  paymentService.Provider
	Xendit    *paymentService.XenditClient
	Publisher *events.Publisher
	Registry  *paymentService.FlowRegistry
	Validate  *validator.Validate
}

func NewPaymentController(db *gorm.DB, provider paymentService.Provider, publisher *events.Publisher) *PaymentController {
	return &PaymentController{
		DB:        db,
		Ledger:    paymentService.NewGormLedger(db),
		Provider:  provider,
		Xendit:    paymentService.NewXenditClientFromEnv(),
		Publisher: publisher,
		Registry:  paymentService.NewFlowRegistry(),
		Validate:  validator.New(),
	}
}

func (pc *PaymentController) audit() paymentService.AuditFunc {
	return func(paymentID, provider, eventType string, externalID *string, payload []byte, status string, err error) {
		paymentService.LogGatewayEvent(pc.DB, paymentID, provider, eventType, externalID, payload, status, err)
	}
}

/* ===================== Checkout ===================== */

// POST /api/u/payments/checkout
// Creates the initiated ledger record, opens a hosted session, and returns
// the URL plus the payment id the navigation endpoint will be keyed by.
func (pc *PaymentController) BeginCheckout(c *fiber.Ctx) error {
	userID, err := helpers.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var req paymentDTO.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := pc.Validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := map[string][]string{}
			for _, fe := range verrs {
				name := strings.ToLower(fe.Field())
				fields[name] = append(fields[name], fe.Tag())
			}
			return helpers.JsonValidationError(c, fields)
		}
		return helpers.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	if req.Method == "" {
		req.Method = paymentModel.PaymentMethodPayPal
	}

	// the type must be routable before any money moves
	if _, ok := paymentService.ResolveCertificateTarget(req.CertificateType); !ok {
		return helpers.JsonError(c, fiber.StatusBadRequest, "Unknown certificate type")
	}

	// fee comes from server-side settings, never from the client
	fees, err := certController.LoadFees(pc.DB)
	if err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to load fees")
	}
	amount, ok := fees[req.CertificateType]
	if !ok || amount <= 0 {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "No fee configured for this certificate type")
	}

	if req.Method == paymentModel.PaymentMethodGCash {
		return pc.beginGcashCheckout(c, userID, amount, req)
	}

	flow := paymentService.NewCheckoutFlow(pc.Ledger, pc.Provider, pc.Publisher,
		userID, amount, req.Method, req.CertificateType)
	flow.SetAudit(pc.audit())

	paymentID, err := flow.Begin(c.Context())
	if err != nil {
		return helpers.JsonError(c, fiber.StatusServiceUnavailable,
			"Could not record the payment attempt. Nothing was charged; please try again.")
	}

	checkoutURL, err := flow.OpenCheckout(c.Context())
	if err != nil {
		return helpers.JsonError(c, fiber.StatusBadGateway,
			"Payment provider is unavailable. Please try again later.")
	}

	pc.Registry.Put(flow)

	return helpers.JsonCreated(c, "Checkout created", paymentDTO.CheckoutResponse{
		PaymentID:   paymentID,
		CheckoutURL: checkoutURL,
	})
}

// beginGcashCheckout wires the e-wallet path. It stays behind a flag until
// the webhook-based completion for GCash ships.
func (pc *PaymentController) beginGcashCheckout(c *fiber.Ctx, userID uuid.UUID, amount int64, req paymentDTO.CheckoutRequest) error {
	if strings.TrimSpace(os.Getenv("GCASH_ENABLED")) != "1" {
		return helpers.JsonError(c, fiber.StatusServiceUnavailable, "GCash payments are not yet available")
	}

	flow := paymentService.NewCheckoutFlow(pc.Ledger, pc.Provider, pc.Publisher,
		userID, amount, paymentModel.PaymentMethodGCash, req.CertificateType)
	flow.SetAudit(pc.audit())

	paymentID, err := flow.Begin(c.Context())
	if err != nil {
		return helpers.JsonError(c, fiber.StatusServiceUnavailable,
			"Could not record the payment attempt. Nothing was charged; please try again.")
	}

	chargeID, checkoutURL, err := pc.Xendit.CreateGcashCharge(c.Context(), amount, paymentID, req.GcashNumber)
	if err != nil {
		paymentService.LogGatewayEvent(pc.DB, paymentID, "xendit", "create_charge", nil, nil,
			paymentModel.GatewayEventStatusFailed, err)
		_ = pc.Ledger.Update(c.Context(), paymentID, map[string]any{
			"payment_status": paymentModel.PaymentStatusFailed,
		})
		return helpers.JsonError(c, fiber.StatusBadGateway, "GCash charge could not be created")
	}
	paymentService.LogGatewayEvent(pc.DB, paymentID, "xendit", "create_charge", &chargeID, nil,
		paymentModel.GatewayEventStatusProcessed, nil)

	_ = pc.Ledger.Update(c.Context(), paymentID, map[string]any{
		"payment_provider_ref": chargeID,
		"payment_checkout_url": checkoutURL,
	})
	pc.Registry.Put(flow)

	return helpers.JsonCreated(c, "Checkout created", paymentDTO.CheckoutResponse{
		PaymentID:   paymentID,
		CheckoutURL: checkoutURL,
	})
}

/* ===================== Navigation events ===================== */

// POST /api/u/payments/checkout/:payment_id/navigation
// The embedded browser posts every redirect it sees; most produce no
// transition.
func (pc *PaymentController) OnNavigation(c *fiber.Ctx) error {
	userID, err := helpers.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	paymentID := strings.TrimSpace(c.Params("payment_id"))
	if paymentID == "" {
		return helpers.JsonError(c, fiber.StatusBadRequest, "payment_id is required")
	}

	var req paymentDTO.NavigationRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		return helpers.JsonError(c, fiber.StatusBadRequest, "url is required")
	}

	flow, ok := pc.Registry.Get(paymentID)
	if ok {
		if flow.UserID() != userID {
			return helpers.JsonError(c, fiber.StatusForbidden, "Payment does not belong to this account")
		}
	} else {
		// registry lost (restart) or expired; resume from the ledger
		rec, err := pc.Ledger.Get(c.Context(), paymentID)
		if err != nil || rec == nil {
			return helpers.JsonError(c, fiber.StatusNotFound, "Unknown payment attempt")
		}
		if rec.PaymentUserID != userID {
			return helpers.JsonError(c, fiber.StatusForbidden, "Payment does not belong to this account")
		}
		if paymentModel.IsTerminalStatus(rec.PaymentStatus) {
			return helpers.JsonOK(c, "No outcome", fiber.Map{"outcome": "none"})
		}
		flow = paymentService.ResumeCheckoutFlow(pc.Ledger, pc.Provider, pc.Publisher, rec)
		flow.SetAudit(pc.audit())
		pc.Registry.Put(flow)
	}

	outcome := flow.OnNavigation(c.Context(), req.URL)
	if !outcome.Decided {
		return helpers.JsonOK(c, "No outcome", fiber.Map{"outcome": "none"})
	}

	// terminal outcome signaled; this attempt is finished
	pc.Registry.Remove(paymentID)

	if outcome.Success {
		return helpers.JsonOK(c, "Payment completed", fiber.Map{
			"success":        true,
			"target":         outcome.Target,
			"payment_id":     outcome.PaymentID,
			"transaction_id": outcome.TransactionID,
		})
	}
	return helpers.JsonOK(c, "Payment not completed", fiber.Map{
		"success": false,
		"message": outcome.Message,
	})
}

/* ===================== History ===================== */

// GET /api/u/payments
func (pc *PaymentController) MyPayments(c *fiber.Ctx) error {
	userID, err := helpers.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	paging := helpers.ResolvePaging(c, 20, 100)

	q := pc.DB.Model(&paymentModel.PaymentRecord{}).Where("payment_user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to count payments")
	}

	var rows []paymentModel.PaymentRecord
	if err := q.Order("payment_created_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&rows).Error; err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to load payments")
	}

	p := helpers.BuildPaginationFromPage(total, paging.Page, paging.PerPage)
	return helpers.JsonList(c, "Payments retrieved", paymentDTO.ToPaymentResponses(rows), &p)
}

// GET /api/a/payments?status=&method=&certificate_type=
func (pc *PaymentController) ListPayments(c *fiber.Ctx) error {
	paging := helpers.ResolvePaging(c, 20, 100)

	q := pc.DB.Model(&paymentModel.PaymentRecord{})
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("payment_status = ?", status)
	}
	if method := strings.TrimSpace(c.Query("method")); method != "" {
		q = q.Where("payment_method = ?", method)
	}
	if ct := strings.TrimSpace(c.Query("certificate_type")); ct != "" {
		q = q.Where("payment_certificate_type = ?", ct)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to count payments")
	}

	var rows []paymentModel.PaymentRecord
	if err := q.Order("payment_created_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&rows).Error; err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "Failed to load payments")
	}

	p := helpers.BuildPaginationFromPage(total, paging.Page, paging.PerPage)
	return helpers.JsonList(c, "Payments retrieved", paymentDTO.ToPaymentResponses(rows), &p)
}
