package service

import (
	"context"
	"errors"
	"testing"

	paymentModel "barangayku_backend/internals/features/payments/model"
)

func TestSettleWritesNonTerminalRecord(t *testing.T) {
	ledger := newFakeLedger()
	f := newTestFlow(t, ledger, &fakeProvider{})
	id := runToCheckout(t, f)

	settle(context.Background(), ledger, id, map[string]any{
		"payment_status": paymentModel.PaymentStatusFailed,
	})
	if got := ledger.status(id); got != paymentModel.PaymentStatusFailed {
		t.Errorf("status = %q, want failed", got)
	}
}

func TestSettleSkipsTerminalRecord(t *testing.T) {
	ledger := newFakeLedger()
	f := newTestFlow(t, ledger, &fakeProvider{})
	id := runToCheckout(t, f)

	if err := ledger.Update(context.Background(), id, map[string]any{
		"payment_status": paymentModel.PaymentStatusCompleted,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	settle(context.Background(), ledger, id, map[string]any{
		"payment_status": paymentModel.PaymentStatusCancelled,
	})
	if got := ledger.status(id); got != paymentModel.PaymentStatusCompleted {
		t.Errorf("status = %q, sweep overwrote a completed payment", got)
	}
}

func TestSettleToleratesMissingRecord(t *testing.T) {
	ledger := newFakeLedger()
	// must not panic or write anything
	settle(context.Background(), ledger, "PAY_missing", map[string]any{
		"payment_status": paymentModel.PaymentStatusCancelled,
	})
	if ledger.updateCalls != 0 {
		t.Errorf("update calls = %d, want 0", ledger.updateCalls)
	}
}

func TestStatusForErr(t *testing.T) {
	if got := statusForErr(nil); got != paymentModel.GatewayEventStatusProcessed {
		t.Errorf("statusForErr(nil) = %q", got)
	}
	if got := statusForErr(errors.New("boom")); got != paymentModel.GatewayEventStatusFailed {
		t.Errorf("statusForErr(err) = %q", got)
	}
}
