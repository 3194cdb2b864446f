package model

import (
	"strings"
	"testing"
)

func TestIsTerminalStatus(t *testing.T) {
	terminal := []string{PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled}
	for _, s := range terminal {
		if !IsTerminalStatus(s) {
			t.Errorf("IsTerminalStatus(%q) = false, want true", s)
		}
	}
	if IsTerminalStatus(PaymentStatusInitiated) {
		t.Error("initiated must not be terminal")
	}
	if IsTerminalStatus("refunded") {
		t.Error("unknown status must not be terminal")
	}
}

func TestIDGenerators(t *testing.T) {
	pay := NewPaymentID()
	tr := NewTransactionID()

	if !strings.HasPrefix(pay, "PAY_") {
		t.Errorf("payment id %q missing PAY_ prefix", pay)
	}
	if !strings.HasPrefix(tr, "TR_") {
		t.Errorf("transaction id %q missing TR_ prefix", tr)
	}
	if len(pay) > 40 || len(tr) > 40 {
		t.Errorf("id longer than the column width: %q / %q", pay, tr)
	}

	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		id := NewPaymentID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate payment id %q", id)
		}
		seen[id] = struct{}{}
	}
}
