package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	paymentModel "barangayku_backend/internals/features/payments/model"
)

/* ===================== fakes ===================== */

type fakeLedger struct {
	mu      sync.Mutex
	records map[string]*paymentModel.PaymentRecord

	createErr error
	getErr    error
	updateErr error

	// fail only the next N Get calls, then recover
	getFailures int

	updateCalls int
	statusSets  []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: map[string]*paymentModel.PaymentRecord{}}
}

func (l *fakeLedger) Get(ctx context.Context, paymentID string) (*paymentModel.PaymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.getFailures > 0 {
		l.getFailures--
		return nil, errors.New("read timeout")
	}
	if l.getErr != nil {
		return nil, l.getErr
	}
	rec, ok := l.records[paymentID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (l *fakeLedger) Create(ctx context.Context, rec *paymentModel.PaymentRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.createErr != nil {
		return l.createErr
	}
	cp := *rec
	l.records[rec.PaymentID] = &cp
	return nil
}

func (l *fakeLedger) Update(ctx context.Context, paymentID string, fields map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updateCalls++
	if l.updateErr != nil {
		return l.updateErr
	}
	rec, ok := l.records[paymentID]
	if !ok {
		return ErrRecordNotFound
	}
	for col, v := range fields {
		switch col {
		case "payment_status":
			s := v.(string)
			rec.PaymentStatus = s
			l.statusSets = append(l.statusSets, s)
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

func (l *fakeLedger) status(paymentID string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[paymentID]
	if !ok {
		return ""
	}
	return rec.PaymentStatus
}

type fakeProvider struct {
	mu sync.Mutex

	createErr error
	execErr   error
	execState string
	lookState string
	lookErr   error

	createCalls int
	execCalls   int
	lookCalls   int
}

func (p *fakeProvider) CreateSession(ctx context.Context, amountCentavos int64, currency, reference string) (string, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createCalls++
	if p.createErr != nil {
		return "", "", p.createErr
	}
	return "PAYID-TEST1", "https://www.sandbox.paypal.com/checkout?token=EC-123", nil
}

func (p *fakeProvider) Execute(ctx context.Context, providerPaymentID, payerID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.execCalls++
	if p.execErr != nil {
		return "", p.execErr
	}
	if p.execState == "" {
		return "approved", nil
	}
	return p.execState, nil
}

func (p *fakeProvider) Lookup(ctx context.Context, providerPaymentID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lookCalls++
	if p.lookErr != nil {
		return "", p.lookErr
	}
	if p.lookState == "" {
		return "created", nil
	}
	return p.lookState, nil
}

func newTestFlow(t *testing.T, ledger Ledger, provider Provider) *CheckoutFlow {
	t.Helper()
	f := NewCheckoutFlow(ledger, provider, nil, uuid.New(), 10000,
		paymentModel.PaymentMethodPayPal, "Barangay Certificate")
	f.retryDelay = time.Millisecond
	return f
}

const successURL = "https://barangayku.app/payment-success?paymentId=PAYID-TEST1&PayerID=PAYER9"
const cancelURL = "https://barangayku.app/payment-cancel?token=EC-123"

/* ===================== begin ===================== */

func TestBeginCreatesInitiatedRecord(t *testing.T) {
	ledger := newFakeLedger()
	f := newTestFlow(t, ledger, &fakeProvider{})

	id, err := f.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !strings.HasPrefix(id, "PAY_") {
		t.Errorf("payment id %q does not carry the PAY_ prefix", id)
	}
	if got := ledger.status(id); got != paymentModel.PaymentStatusInitiated {
		t.Errorf("status = %q, want initiated", got)
	}
}

func TestBeginFailsWhenCreateFails(t *testing.T) {
	ledger := newFakeLedger()
	ledger.createErr = errors.New("connection refused")
	f := newTestFlow(t, ledger, &fakeProvider{})

	if _, err := f.Begin(context.Background()); !errors.Is(err, ErrLedgerWrite) {
		t.Fatalf("err = %v, want ErrLedgerWrite", err)
	}
}

func TestBeginFailsWhenVerifyReadFails(t *testing.T) {
	ledger := newFakeLedger()
	ledger.getErr = errors.New("read timeout")
	f := newTestFlow(t, ledger, &fakeProvider{})

	if _, err := f.Begin(context.Background()); !errors.Is(err, ErrLedgerWrite) {
		t.Fatalf("err = %v, want ErrLedgerWrite on verify-read", err)
	}
	// no checkout should ever open for an unverified record
	if f.PaymentID() != "" {
		t.Errorf("paymentID = %q, want empty after failed Begin", f.PaymentID())
	}
}

/* ===================== open checkout ===================== */

func TestOpenCheckoutStoresProviderRef(t *testing.T) {
	ledger := newFakeLedger()
	f := newTestFlow(t, ledger, &fakeProvider{})

	id, err := f.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	url, err := f.OpenCheckout(context.Background())
	if err != nil {
		t.Fatalf("OpenCheckout: %v", err)
	}
	if url == "" {
		t.Fatal("empty approval URL")
	}

	rec, _ := ledger.Get(context.Background(), id)
	if rec.PaymentProviderRef == nil || *rec.PaymentProviderRef != "PAYID-TEST1" {
		t.Errorf("provider ref not stored: %+v", rec.PaymentProviderRef)
	}
	if rec.PaymentCheckoutURL == nil || *rec.PaymentCheckoutURL != url {
		t.Errorf("checkout url not stored")
	}
}

func TestOpenCheckoutProviderFailureMarksFailed(t *testing.T) {
	ledger := newFakeLedger()
	provider := &fakeProvider{createErr: fmt.Errorf("%w: oauth 401", ErrProvider)}
	f := newTestFlow(t, ledger, provider)

	id, err := f.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := f.OpenCheckout(context.Background()); !errors.Is(err, ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
	if got := ledger.status(id); got != paymentModel.PaymentStatusFailed {
		t.Errorf("status = %q, want failed", got)
	}
}

func TestOpenCheckoutWrapsProviderErrorOnce(t *testing.T) {
	ledger := newFakeLedger()
	provider := &fakeProvider{createErr: fmt.Errorf("%w: oauth 401", ErrProvider)}
	f := newTestFlow(t, ledger, provider)

	if _, err := f.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	_, err := f.OpenCheckout(context.Background())
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
	if n := strings.Count(err.Error(), ErrProvider.Error()); n != 1 {
		t.Errorf("sentinel appears %d times, the error was re-wrapped: %v", n, err)
	}

	// bare transport errors still get classified under the sentinel
	ledger2 := newFakeLedger()
	f2 := newTestFlow(t, ledger2, &fakeProvider{createErr: errors.New("dial tcp: i/o timeout")})
	if _, err := f2.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := f2.OpenCheckout(context.Background()); !errors.Is(err, ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
}

/* ===================== navigation classification ===================== */

func TestClassifyNavigation(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want navKind
	}{
		{"success with both params", successURL, navSuccessCandidate},
		{"success missing payer", "https://x/payment-success?paymentId=PAYID-1", navIgnore},
		{"success missing payment id", "https://x/payment-success?PayerID=P", navIgnore},
		{"cancel", cancelURL, navCancel},
		{"logout with params", "https://x/logout?paymentId=PAYID-1&PayerID=P", navSuccessCandidate},
		{"bare logout", "https://x/logout", navIncidentalClose},
		{"bare signout", "https://x/signout", navIncidentalClose},
		{"paypal interstitial", "https://www.sandbox.paypal.com/checkoutnow?token=EC-123", navIgnore},
		{"unparseable", "://not a url", navIgnore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, _, _ := classifyNavigation(tt.url)
			if kind != tt.want {
				t.Errorf("classifyNavigation(%q) = %v, want %v", tt.url, kind, tt.want)
			}
		})
	}
}

/* ===================== success path ===================== */

func runToCheckout(t *testing.T, f *CheckoutFlow) string {
	t.Helper()
	id, err := f.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := f.OpenCheckout(context.Background()); err != nil {
		t.Fatalf("OpenCheckout: %v", err)
	}
	return id
}

func TestSuccessRedirectCompletesPayment(t *testing.T) {
	ledger := newFakeLedger()
	provider := &fakeProvider{}
	f := newTestFlow(t, ledger, provider)
	id := runToCheckout(t, f)

	out := f.OnNavigation(context.Background(), successURL)
	if !out.Decided || !out.Success {
		t.Fatalf("outcome = %+v, want decided success", out)
	}
	if out.Target != "BarangayCertificate" {
		t.Errorf("target = %q, want BarangayCertificate", out.Target)
	}
	if !strings.HasPrefix(out.TransactionID, "TR_") {
		t.Errorf("transaction id %q does not carry the TR_ prefix", out.TransactionID)
	}
	if provider.execCalls != 1 {
		t.Errorf("execute calls = %d, want 1", provider.execCalls)
	}

	rec, _ := ledger.Get(context.Background(), id)
	if rec.PaymentStatus != paymentModel.PaymentStatusCompleted {
		t.Errorf("status = %q, want completed", rec.PaymentStatus)
	}
	if rec.PaymentVerificationMethod == nil || *rec.PaymentVerificationMethod != "paypal_execute" {
		t.Errorf("verification method = %v, want paypal_execute", rec.PaymentVerificationMethod)
	}
	if rec.PaymentCompletedAt == nil {
		t.Error("completed_at not set")
	}
}

func TestDuplicateSuccessRedirectCapturesOnce(t *testing.T) {
	ledger := newFakeLedger()
	provider := &fakeProvider{}
	f := newTestFlow(t, ledger, provider)
	runToCheckout(t, f)

	first := f.OnNavigation(context.Background(), successURL)
	second := f.OnNavigation(context.Background(), successURL)
	third := f.OnNavigation(context.Background(), successURL)

	if !first.Decided {
		t.Fatal("first redirect should decide the outcome")
	}
	if second.Decided || third.Decided {
		t.Errorf("duplicates decided again: %+v / %+v", second, third)
	}
	if provider.execCalls != 1 {
		t.Errorf("execute calls = %d, want exactly 1", provider.execCalls)
	}
	// one completed write; duplicates must not touch the ledger
	completed := 0
	for _, s := range ledger.statusSets {
		if s == paymentModel.PaymentStatusCompleted {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("completed writes = %d, want 1", completed)
	}
}

func TestResumedFlowHonorsDurableGuard(t *testing.T) {
	ledger := newFakeLedger()
	provider := &fakeProvider{}
	f := newTestFlow(t, ledger, provider)
	id := runToCheckout(t, f)

	if out := f.OnNavigation(context.Background(), successURL); !out.Success {
		t.Fatalf("first capture failed: %+v", out)
	}

	// simulate a restart: fresh instance, empty processed set
	rec, _ := ledger.Get(context.Background(), id)
	resumed := ResumeCheckoutFlow(ledger, provider, nil, rec)
	resumed.retryDelay = time.Millisecond

	out := resumed.OnNavigation(context.Background(), successURL)
	if out.Decided {
		t.Errorf("resumed duplicate decided again: %+v", out)
	}
	if provider.execCalls != 1 {
		t.Errorf("execute calls = %d, want 1 across restart", provider.execCalls)
	}
}

func TestNotApprovedStateFailsPayment(t *testing.T) {
	ledger := newFakeLedger()
	provider := &fakeProvider{execState: "failed"}
	f := newTestFlow(t, ledger, provider)
	id := runToCheckout(t, f)

	out := f.OnNavigation(context.Background(), successURL)
	if !out.Decided || out.Success {
		t.Fatalf("outcome = %+v, want decided failure", out)
	}
	if !strings.Contains(out.Message, "not approved") {
		t.Errorf("message = %q", out.Message)
	}
	if got := ledger.status(id); got != paymentModel.PaymentStatusFailed {
		t.Errorf("status = %q, want failed", got)
	}
}

func TestExecuteErrorFailsPayment(t *testing.T) {
	ledger := newFakeLedger()
	provider := &fakeProvider{execErr: fmt.Errorf("%w: 500", ErrProvider)}
	f := newTestFlow(t, ledger, provider)
	id := runToCheckout(t, f)

	out := f.OnNavigation(context.Background(), successURL)
	if !out.Decided || out.Success {
		t.Fatalf("outcome = %+v, want decided failure", out)
	}
	if got := ledger.status(id); got != paymentModel.PaymentStatusFailed {
		t.Errorf("status = %q, want failed", got)
	}
}

func TestCompletedWriteFailureSignalsSupport(t *testing.T) {
	ledger := newFakeLedger()
	provider := &fakeProvider{}
	f := newTestFlow(t, ledger, provider)
	runToCheckout(t, f)

	ledger.updateErr = errors.New("connection reset")

	out := f.OnNavigation(context.Background(), successURL)
	if !out.Decided || out.Success {
		t.Fatalf("outcome = %+v, want decided failure", out)
	}
	if !strings.Contains(out.Message, "contact support") {
		t.Errorf("message = %q, want a contact-support message", out.Message)
	}

	// money moved once; a later duplicate must never re-capture
	ledger.updateErr = nil
	dup := f.OnNavigation(context.Background(), successURL)
	if dup.Decided {
		t.Errorf("duplicate after persistence failure decided again: %+v", dup)
	}
	if provider.execCalls != 1 {
		t.Errorf("execute calls = %d, want 1", provider.execCalls)
	}
}

func TestUnknownCertificateTypeKeepsPaymentCompleted(t *testing.T) {
	ledger := newFakeLedger()
	provider := &fakeProvider{}
	f := NewCheckoutFlow(ledger, provider, nil, uuid.New(), 10000,
		paymentModel.PaymentMethodPayPal, "Marriage Certificate")
	f.retryDelay = time.Millisecond
	id := runToCheckout(t, f)

	out := f.OnNavigation(context.Background(), successURL)
	if !out.Decided || out.Success {
		t.Fatalf("outcome = %+v, want decided failure", out)
	}
	if !strings.Contains(out.Message, "contact support") {
		t.Errorf("message = %q", out.Message)
	}
	// the charge is real even when routing is broken
	if got := ledger.status(id); got != paymentModel.PaymentStatusCompleted {
		t.Errorf("status = %q, want completed", got)
	}
}

/* ===================== cancellation ===================== */

func TestCancellationMarksCancelled(t *testing.T) {
	ledger := newFakeLedger()
	provider := &fakeProvider{}
	f := newTestFlow(t, ledger, provider)
	id := runToCheckout(t, f)

	out := f.OnNavigation(context.Background(), cancelURL)
	if !out.Decided || out.Success {
		t.Fatalf("outcome = %+v, want decided failure", out)
	}
	if got := ledger.status(id); got != paymentModel.PaymentStatusCancelled {
		t.Errorf("status = %q, want cancelled", got)
	}
	if provider.execCalls != 0 {
		t.Errorf("execute calls = %d, want 0 on cancel", provider.execCalls)
	}
}

func TestSuccessAfterCancellationIsIgnored(t *testing.T) {
	ledger := newFakeLedger()
	provider := &fakeProvider{}
	f := newTestFlow(t, ledger, provider)
	id := runToCheckout(t, f)

	f.OnNavigation(context.Background(), cancelURL)
	out := f.OnNavigation(context.Background(), successURL)

	if out.Decided {
		t.Errorf("post-cancel success decided again: %+v", out)
	}
	if provider.execCalls != 0 {
		t.Errorf("execute calls = %d, want 0", provider.execCalls)
	}
	if got := ledger.status(id); got != paymentModel.PaymentStatusCancelled {
		t.Errorf("status = %q, want cancelled to stick", got)
	}
}

func TestIncidentalCloseCausesNoTransition(t *testing.T) {
	ledger := newFakeLedger()
	provider := &fakeProvider{}
	f := newTestFlow(t, ledger, provider)
	id := runToCheckout(t, f)

	out := f.OnNavigation(context.Background(), "https://barangayku.app/logout")
	if out.Decided {
		t.Errorf("incidental close decided an outcome: %+v", out)
	}
	if got := ledger.status(id); got != paymentModel.PaymentStatusInitiated {
		t.Errorf("status = %q, want initiated", got)
	}
}

/* ===================== updateStatus ===================== */

func TestUpdateStatusRetriesAfterReadMiss(t *testing.T) {
	ledger := newFakeLedger()
	f := newTestFlow(t, ledger, &fakeProvider{})
	id := runToCheckout(t, f)

	// first read fails, retry succeeds
	ledger.getFailures = 1
	f.updateStatus(context.Background(), paymentModel.PaymentStatusFailed)
	if got := ledger.status(id); got != paymentModel.PaymentStatusFailed {
		t.Errorf("status = %q, want failed after retry", got)
	}
}

func TestUpdateStatusNeverDowngradesTerminal(t *testing.T) {
	ledger := newFakeLedger()
	f := newTestFlow(t, ledger, &fakeProvider{})
	id := runToCheckout(t, f)

	if err := ledger.Update(context.Background(), id, map[string]any{
		"payment_status": paymentModel.PaymentStatusCompleted,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	before := ledger.updateCalls

	f.updateStatus(context.Background(), paymentModel.PaymentStatusFailed)
	if ledger.updateCalls != before {
		t.Error("terminal status was overwritten")
	}
	if got := ledger.status(id); got != paymentModel.PaymentStatusCompleted {
		t.Errorf("status = %q, want completed", got)
	}
}

/* ===================== registry ===================== */

func TestFlowRegistryLifecycle(t *testing.T) {
	r := NewFlowRegistry()
	ledger := newFakeLedger()
	f := newTestFlow(t, ledger, &fakeProvider{})
	if _, err := f.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	r.Put(f)
	got, ok := r.Get(f.PaymentID())
	if !ok || got != f {
		t.Fatal("registry did not return the stored flow")
	}

	r.Remove(f.PaymentID())
	if _, ok := r.Get(f.PaymentID()); ok {
		t.Error("flow still present after Remove")
	}
}

func TestFlowRegistryExpiresOldEntries(t *testing.T) {
	r := NewFlowRegistry()
	r.ttl = time.Millisecond

	ledger := newFakeLedger()
	old := newTestFlow(t, ledger, &fakeProvider{})
	if _, err := old.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	r.Put(old)

	time.Sleep(5 * time.Millisecond)

	fresh := newTestFlow(t, ledger, &fakeProvider{})
	if _, err := fresh.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	r.Put(fresh)

	if _, ok := r.Get(old.PaymentID()); ok {
		t.Error("expired flow still present")
	}
	if _, ok := r.Get(fresh.PaymentID()); !ok {
		t.Error("fresh flow missing")
	}
}

/* ===================== routing table ===================== */

func TestResolveCertificateTarget(t *testing.T) {
	tests := []struct {
		in     string
		target string
		ok     bool
	}{
		{"Barangay Certificate", "BarangayCertificate", true},
		{"Barangay Clearance", "BarangayClearance", true},
		{"Business Permit", "BusinessPermit", true},
		{"Residency Certificate", "BarangayResidency", true},
		{"Marriage Certificate", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		target, ok := ResolveCertificateTarget(tt.in)
		if target != tt.target || ok != tt.ok {
			t.Errorf("ResolveCertificateTarget(%q) = %q,%v want %q,%v", tt.in, target, ok, tt.target, tt.ok)
		}
	}
}
