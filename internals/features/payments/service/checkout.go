// file: internals/features/payments/service/checkout.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"barangayku_backend/internals/events"
	paymentModel "barangayku_backend/internals/features/payments/model"
)

/* ===================== Routing table ===================== */

// certificateTargets maps a paid certificate type to the form screen the
// client finalizes on. A miss is a configuration bug, not a user mistake.
var certificateTargets = map[string]string{
	"Barangay Certificate":  "BarangayCertificate",
	"Barangay Clearance":    "BarangayClearance",
	"Business Permit":       "BusinessPermit",
	"Residency Certificate": "BarangayResidency",
}

// ResolveCertificateTarget exposes the routing table to callers that need to
// validate a type before money moves.
func ResolveCertificateTarget(certificateType string) (string, bool) {
	t, ok := certificateTargets[certificateType]
	return t, ok
}

/* ===================== Outcome ===================== */

// Outcome is what one navigation event produced. Decided=false means the
// event caused no state transition (mid-flow redirect, duplicate, dropped).
type Outcome struct {
	Decided       bool   `json:"decided"`
	Success       bool   `json:"success"`
	Target        string `json:"target,omitempty"`
	PaymentID     string `json:"payment_id,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	Message       string `json:"message,omitempty"`
}

/* ===================== CheckoutFlow ===================== */

// AuditFunc records one provider interaction outcome (gateway event log).
type AuditFunc func(paymentID, provider, eventType string, externalID *string, payload []byte, status string, err error)

// CheckoutFlow owns the lifecycle of a single checkout attempt from
// initiation to a terminal state and signals the caller exactly once.
// One instance per attempt; state is never module-level.
type CheckoutFlow struct {
	ledger    Ledger
	provider  Provider
	publisher *events.Publisher
	audit     AuditFunc // optional

	paymentID       string
	userID          uuid.UUID
	amountCentavos  int64
	method          string
	certificateType string

	mu        sync.Mutex
	inFlight  bool                // coarse reentrancy guard over the whole flow
	processed map[string]struct{} // provider payment ids already reconciled
	signaled  bool

	// read-after-write wait used by updateStatus; shortened in tests
	retryDelay time.Duration
}

func NewCheckoutFlow(ledger Ledger, provider Provider, publisher *events.Publisher, userID uuid.UUID, amountCentavos int64, method, certificateType string) *CheckoutFlow {
	return &CheckoutFlow{
		ledger:          ledger,
		provider:        provider,
		publisher:       publisher,
		userID:          userID,
		amountCentavos:  amountCentavos,
		method:          method,
		certificateType: certificateType,
		processed:       map[string]struct{}{},
		retryDelay:      2 * time.Second,
	}
}

// ResumeCheckoutFlow rebuilds a flow instance for an existing ledger record,
// e.g. after a process restart dropped the in-memory registry. The durable
// ledger-status guard keeps the resumed instance capture-safe.
func ResumeCheckoutFlow(ledger Ledger, provider Provider, publisher *events.Publisher, rec *paymentModel.PaymentRecord) *CheckoutFlow {
	f := NewCheckoutFlow(ledger, provider, publisher,
		rec.PaymentUserID, rec.PaymentAmountCentavos, rec.PaymentMethod, rec.PaymentCertificateType)
	f.paymentID = rec.PaymentID
	return f
}

// SetAudit attaches the gateway event logger.
func (f *CheckoutFlow) SetAudit(a AuditFunc) { f.audit = a }

func (f *CheckoutFlow) PaymentID() string { return f.paymentID }

// UserID returns the owner of this attempt; callers must reject navigation
// events from anyone else.
func (f *CheckoutFlow) UserID() uuid.UUID { return f.userID }

func (f *CheckoutFlow) logAudit(eventType string, externalID *string, payload []byte, status string, err error) {
	if f.audit != nil {
		f.audit(f.paymentID, strings.ToLower(f.method), eventType, externalID, payload, status, err)
	}
}

/* ===================== begin ===================== */

// Begin writes the initiated ledger record, verifies the write by re-reading
// it, and returns the new payment id. ErrLedgerWrite aborts the attempt
// before any checkout opens.
func (f *CheckoutFlow) Begin(ctx context.Context) (string, error) {
	id := paymentModel.NewPaymentID()

	rec := &paymentModel.PaymentRecord{
		PaymentID:              id,
		PaymentUserID:          f.userID,
		PaymentAmountCentavos:  f.amountCentavos,
		PaymentCurrency:        "PHP",
		PaymentMethod:          f.method,
		PaymentCertificateType: f.certificateType,
		PaymentStatus:          paymentModel.PaymentStatusInitiated,
	}
	if err := f.ledger.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("%w: %v", ErrLedgerWrite, err)
	}

	// verify-read: the record must be visible before we let money move
	got, err := f.ledger.Get(ctx, id)
	if err != nil || got == nil {
		return "", ErrLedgerWrite
	}

	f.paymentID = id
	return id, nil
}

/* ===================== openCheckout ===================== */

// OpenCheckout creates the hosted session and returns the URL to load in the
// embedded browser. On provider failure the record is marked failed before
// the error surfaces.
func (f *CheckoutFlow) OpenCheckout(ctx context.Context) (string, error) {
	providerID, approvalURL, err := f.provider.CreateSession(ctx, f.amountCentavos, "PHP", f.paymentID)
	if err != nil {
		f.logAudit("create_session", nil, nil, paymentModel.GatewayEventStatusFailed, err)
		f.updateStatus(ctx, paymentModel.PaymentStatusFailed)
		if errors.Is(err, ErrProvider) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}

	f.logAudit("create_session", &providerID, nil, paymentModel.GatewayEventStatusProcessed, nil)

	// best effort; losing these fields only weakens the sweep, not the flow
	if err := f.ledger.Update(ctx, f.paymentID, map[string]any{
		"payment_provider_ref": providerID,
		"payment_checkout_url": approvalURL,
	}); err != nil {
		log.Printf("[PAYMENT] %s: storing provider ref failed: %v", f.paymentID, err)
	}

	return approvalURL, nil
}

/* ===================== onNavigation ===================== */

type navKind int

const (
	navIgnore navKind = iota
	navSuccessCandidate
	navCancel
	navIncidentalClose
)

// classifyNavigation interprets one redirect URL. The redirect is a hint
// only; nothing is trusted until the provider confirms the capture.
func classifyNavigation(rawURL string) (kind navKind, providerPaymentID, payerID string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return navIgnore, "", ""
	}
	path := strings.ToLower(u.Path)
	q := u.Query()
	pid := q.Get("paymentId")
	payer := q.Get("PayerID")

	successPath := strings.Contains(path, "payment-success") ||
		strings.Contains(path, "logout") ||
		strings.Contains(path, "signout")

	switch {
	case successPath && pid != "" && payer != "":
		return navSuccessCandidate, pid, payer
	case strings.Contains(path, "payment-cancel"):
		return navCancel, "", ""
	case strings.Contains(path, "logout") || strings.Contains(path, "signout"):
		// the hosted surface closed without an outcome; no state change
		return navIncidentalClose, "", ""
	default:
		return navIgnore, "", ""
	}
}

// OnNavigation is invoked for every redirect/navigation event from the
// embedded browser. Concurrent events are dropped, not queued: one coarse
// guard covers the whole flow instance.
func (f *CheckoutFlow) OnNavigation(ctx context.Context, rawURL string) Outcome {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return Outcome{}
	}
	f.inFlight = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight = false
		f.mu.Unlock()
	}()

	kind, pid, payer := classifyNavigation(rawURL)
	switch kind {
	case navSuccessCandidate:
		return f.handleSuccessCandidate(ctx, pid, payer)
	case navCancel:
		return f.handleCancellation(ctx)
	default:
		return Outcome{}
	}
}

/* ===================== success path ===================== */

// handleSuccessCandidate is the idempotency-critical path: at most one
// capture call and one completed write per provider payment id, regardless
// of how many duplicate redirects arrive.
func (f *CheckoutFlow) handleSuccessCandidate(ctx context.Context, providerPaymentID, payerID string) Outcome {
	// intra-session duplicate suppression
	if _, done := f.processed[providerPaymentID]; done {
		return Outcome{}
	}

	// durable guard: if the ledger already shows a terminal state (process
	// restart, sweep raced us), never call capture again
	if rec, err := f.ledger.Get(ctx, f.paymentID); err == nil && rec != nil {
		if paymentModel.IsTerminalStatus(rec.PaymentStatus) {
			f.processed[providerPaymentID] = struct{}{}
			return Outcome{}
		}
	}

	state, err := f.provider.Execute(ctx, providerPaymentID, payerID)
	if err != nil {
		f.logAudit("execute", &providerPaymentID, nil, paymentModel.GatewayEventStatusFailed, err)
		f.updateStatus(ctx, paymentModel.PaymentStatusFailed)
		return f.signal(Outcome{
			Decided:   true,
			Success:   false,
			PaymentID: f.paymentID,
			Message:   "Payment could not be verified. Please try again.",
		})
	}
	if state != "approved" {
		err := fmt.Errorf("%w: state %q", ErrPaymentNotApproved, state)
		f.logAudit("execute", &providerPaymentID, nil, paymentModel.GatewayEventStatusFailed, err)
		f.updateStatus(ctx, paymentModel.PaymentStatusFailed)
		f.publisher.Publish(events.KeyPaymentFailed, map[string]any{
			"payment_id": f.paymentID,
			"state":      state,
		})
		return f.signal(Outcome{
			Decided:   true,
			Success:   false,
			PaymentID: f.paymentID,
			Message:   "Payment was not approved. Please try again.",
		})
	}

	f.processed[providerPaymentID] = struct{}{}
	f.logAudit("execute", &providerPaymentID, nil, paymentModel.GatewayEventStatusProcessed, nil)

	// capture succeeded; everything past here is local bookkeeping and must
	// never trigger another capture
	transactionID := paymentModel.NewTransactionID()
	now := time.Now().UTC()
	updateErr := f.ledger.Update(ctx, f.paymentID, map[string]any{
		"payment_status":              paymentModel.PaymentStatusCompleted,
		"payment_transaction_id":      transactionID,
		"payment_verification_method": "paypal_execute",
		"payment_paypal_payment_id":   providerPaymentID,
		"payment_completed_at":        now,
	})

	// verify-read: confirm the completed write actually landed
	verified := false
	if updateErr == nil {
		if rec, err := f.ledger.Get(ctx, f.paymentID); err == nil && rec != nil &&
			rec.PaymentStatus == paymentModel.PaymentStatusCompleted {
			verified = true
		}
	}
	if !verified {
		log.Printf("[PAYMENT] %s: %v (provider id %s)", f.paymentID, ErrStatusPersistence, providerPaymentID)
		return f.signal(Outcome{
			Decided:   true,
			Success:   false,
			PaymentID: f.paymentID,
			Message:   "Payment went through but could not be recorded. Please contact support.",
		})
	}

	target, ok := certificateTargets[f.certificateType]
	if !ok {
		log.Printf("[PAYMENT] %s: %v (%q)", f.paymentID, ErrUnknownCertificateType, f.certificateType)
		return f.signal(Outcome{
			Decided:   true,
			Success:   false,
			PaymentID: f.paymentID,
			Message:   "Payment recorded, but the request type is not recognized. Please contact support.",
		})
	}

	f.publisher.Publish(events.KeyPaymentCompleted, map[string]any{
		"payment_id":       f.paymentID,
		"transaction_id":   transactionID,
		"user_id":          f.userID,
		"certificate_type": f.certificateType,
		"amount_centavos":  f.amountCentavos,
	})

	return f.signal(Outcome{
		Decided:       true,
		Success:       true,
		Target:        target,
		PaymentID:     f.paymentID,
		TransactionID: transactionID,
	})
}

/* ===================== cancellation ===================== */

func (f *CheckoutFlow) handleCancellation(ctx context.Context) Outcome {
	f.updateStatus(ctx, paymentModel.PaymentStatusCancelled)
	return f.signal(Outcome{
		Decided:   true,
		Success:   false,
		PaymentID: f.paymentID,
		Message:   "Payment cancelled.",
	})
}

/* ===================== updateStatus ===================== */

// updateStatus is the defensive helper used by failure paths. It reads the
// record first and retries once after a short wait when the read misses
// (read-after-write latency). It never propagates an error: the underlying
// payment may have succeeded with the provider even when this write fails.
func (f *CheckoutFlow) updateStatus(ctx context.Context, status string) {
	rec, err := f.ledger.Get(ctx, f.paymentID)
	if err != nil {
		time.Sleep(f.retryDelay)
		rec, err = f.ledger.Get(ctx, f.paymentID)
	}
	if err != nil || rec == nil {
		log.Printf("[PAYMENT] %s: record not found, cannot set %s", f.paymentID, status)
		return
	}
	if paymentModel.IsTerminalStatus(rec.PaymentStatus) {
		// terminal states are monotonic
		return
	}
	if err := f.ledger.Update(ctx, f.paymentID, map[string]any{"payment_status": status}); err != nil {
		log.Printf("[PAYMENT] %s: status write %s failed: %v", f.paymentID, status, err)
	}
}

/* ===================== exactly-once signal ===================== */

func (f *CheckoutFlow) signal(o Outcome) Outcome {
	if f.signaled {
		return Outcome{}
	}
	f.signaled = true
	return o
}

/* ===================== FlowRegistry ===================== */

// FlowRegistry holds the in-flight checkout attempts, keyed by payment id.
// Flows are dropped once a terminal outcome was signaled or after expiry.
type FlowRegistry struct {
	mu    sync.Mutex
	flows map[string]*registryEntry
	ttl   time.Duration
}

type registryEntry struct {
	flow    *CheckoutFlow
	addedAt time.Time
}

func NewFlowRegistry() *FlowRegistry {
	return &FlowRegistry{
		flows: map[string]*registryEntry{},
		ttl:   6 * time.Hour, // PayPal's own session expires well before this
	}
}

func (r *FlowRegistry) Put(f *CheckoutFlow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[f.PaymentID()] = &registryEntry{flow: f, addedAt: time.Now()}
	// opportunistic expiry, the map stays small
	for id, e := range r.flows {
		if time.Since(e.addedAt) > r.ttl {
			delete(r.flows, id)
		}
	}
}

func (r *FlowRegistry) Get(paymentID string) (*CheckoutFlow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.flows[paymentID]
	if !ok {
		return nil, false
	}
	return e.flow, true
}

func (r *FlowRegistry) Remove(paymentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.flows, paymentID)
}
