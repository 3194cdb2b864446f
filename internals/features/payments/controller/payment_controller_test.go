package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	paymentModel "barangayku_backend/internals/features/payments/model"
	paymentService "barangayku_backend/internals/features/payments/service"
)

/* ===================== fakes ===================== */

type navLedger struct {
	records map[string]*paymentModel.PaymentRecord
}

func newNavLedger() *navLedger {
	return &navLedger{records: map[string]*paymentModel.PaymentRecord{}}
}

func (l *navLedger) Get(ctx context.Context, paymentID string) (*paymentModel.PaymentRecord, error) {
	rec, ok := l.records[paymentID]
	if !ok {
		return nil, paymentService.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (l *navLedger) Create(ctx context.Context, rec *paymentModel.PaymentRecord) error {
	cp := *rec
	l.records[rec.PaymentID] = &cp
	return nil
}

func (l *navLedger) Update(ctx context.Context, paymentID string, fields map[string]any) error {
	rec, ok := l.records[paymentID]
	if !ok {
		return paymentService.ErrRecordNotFound
	}
	for col, v := range fields {
		switch col {
		case "payment_status":
			rec.PaymentStatus = v.(string)
		case "payment_transaction_id":
			s := v.(string)
			rec.PaymentTransactionID = &s
		case "payment_verification_method":
			s := v.(string)
			rec.PaymentVerificationMethod = &s
		case "payment_paypal_payment_id":
			s := v.(string)
			rec.PaymentPaypalPaymentID = &s
		case "payment_provider_ref":
			s := v.(string)
			rec.PaymentProviderRef = &s
		case "payment_checkout_url":
			s := v.(string)
			rec.PaymentCheckoutURL = &s
		case "payment_completed_at":
			ts := v.(time.Time)
			rec.PaymentCompletedAt = &ts
		}
	}
	return nil
}

func (l *navLedger) status(paymentID string) string {
	rec, ok := l.records[paymentID]
	if !ok {
		return ""
	}
	return rec.PaymentStatus
}

type navProvider struct {
	execCalls int
}

func (p *navProvider) CreateSession(ctx context.Context, amountCentavos int64, currency, reference string) (string, string, error) {
	return "PAYID-NAV1", "https://www.sandbox.paypal.com/checkout?token=EC-NAV", nil
}

func (p *navProvider) Execute(ctx context.Context, providerPaymentID, payerID string) (string, error) {
	p.execCalls++
	return "approved", nil
}

func (p *navProvider) Lookup(ctx context.Context, providerPaymentID string) (string, error) {
	return "created", nil
}

/* ===================== fixtures ===================== */

// newNavApp mounts the navigation endpoint behind a stub auth layer that
// reads the user id from a header, the way the JWT middleware stores it.
func newNavApp(pc *PaymentController) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", c.Get("X-Test-User"))
		return c.Next()
	})
	app.Post("/payments/checkout/:payment_id/navigation", pc.OnNavigation)
	return app
}

func newNavController(ledger paymentService.Ledger, provider paymentService.Provider) *PaymentController {
	return &PaymentController{
		Ledger:   ledger,
		Provider: provider,
		Registry: paymentService.NewFlowRegistry(),
		Validate: validator.New(),
	}
}

func postNavigation(t *testing.T, app *fiber.App, userID uuid.UUID, paymentID, rawURL string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"url": rawURL})
	req := httptest.NewRequest(http.MethodPost,
		"/payments/checkout/"+paymentID+"/navigation", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", userID.String())
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

// beginOwnedFlow starts a checkout for owner and registers the live flow,
// returning its payment id.
func beginOwnedFlow(t *testing.T, pc *PaymentController, owner uuid.UUID) string {
	t.Helper()
	flow := paymentService.NewCheckoutFlow(pc.Ledger, pc.Provider, nil,
		owner, 10000, paymentModel.PaymentMethodPayPal, "Barangay Certificate")
	paymentID, err := flow.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := flow.OpenCheckout(context.Background()); err != nil {
		t.Fatalf("OpenCheckout: %v", err)
	}
	pc.Registry.Put(flow)
	return paymentID
}

const navCancelURL = "https://barangayku.app/payment-cancel?token=EC-NAV"
const navSuccessURL = "https://barangayku.app/payment-success?paymentId=PAYID-NAV1&PayerID=PAYER9"

/* ===================== ownership ===================== */

func TestNavigationRejectsForeignUserOnLiveFlow(t *testing.T) {
	ledger := newNavLedger()
	provider := &navProvider{}
	pc := newNavController(ledger, provider)
	app := newNavApp(pc)

	owner := uuid.New()
	attacker := uuid.New()
	paymentID := beginOwnedFlow(t, pc, owner)

	resp := postNavigation(t, app, attacker, paymentID, navCancelURL)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	if got := ledger.status(paymentID); got != paymentModel.PaymentStatusInitiated {
		t.Errorf("foreign navigation changed status to %q", got)
	}
	if _, ok := pc.Registry.Get(paymentID); !ok {
		t.Error("flow was dropped from the registry by a foreign request")
	}

	// a crafted success URL must not reach the provider either
	resp = postNavigation(t, app, attacker, paymentID, navSuccessURL)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	if provider.execCalls != 0 {
		t.Errorf("execute called %d times by a foreign user", provider.execCalls)
	}
}

func TestNavigationRejectsForeignUserOnResume(t *testing.T) {
	ledger := newNavLedger()
	provider := &navProvider{}
	pc := newNavController(ledger, provider)
	app := newNavApp(pc)

	owner := uuid.New()
	attacker := uuid.New()

	// no live flow; only the ledger record survives (restart scenario)
	paymentID := paymentModel.NewPaymentID()
	if err := ledger.Create(context.Background(), &paymentModel.PaymentRecord{
		PaymentID:              paymentID,
		PaymentUserID:          owner,
		PaymentAmountCentavos:  10000,
		PaymentCurrency:        "PHP",
		PaymentMethod:          paymentModel.PaymentMethodPayPal,
		PaymentCertificateType: "Barangay Certificate",
		PaymentStatus:          paymentModel.PaymentStatusInitiated,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp := postNavigation(t, app, attacker, paymentID, navSuccessURL)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	if provider.execCalls != 0 {
		t.Errorf("execute called %d times by a foreign user", provider.execCalls)
	}
	if got := ledger.status(paymentID); got != paymentModel.PaymentStatusInitiated {
		t.Errorf("foreign navigation changed status to %q", got)
	}
}

func TestNavigationOwnerCancels(t *testing.T) {
	ledger := newNavLedger()
	pc := newNavController(ledger, &navProvider{})
	app := newNavApp(pc)

	owner := uuid.New()
	paymentID := beginOwnedFlow(t, pc, owner)

	resp := postNavigation(t, app, owner, paymentID, navCancelURL)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := ledger.status(paymentID); got != paymentModel.PaymentStatusCancelled {
		t.Errorf("status = %q, want cancelled", got)
	}
	if _, ok := pc.Registry.Get(paymentID); ok {
		t.Error("decided flow should be dropped from the registry")
	}
}

func TestNavigationUnknownPaymentIs404(t *testing.T) {
	pc := newNavController(newNavLedger(), &navProvider{})
	app := newNavApp(pc)

	resp := postNavigation(t, app, uuid.New(), "PAY_missing", navCancelURL)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
