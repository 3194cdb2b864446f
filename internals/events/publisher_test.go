package events

import "testing"

// Callers pass the publisher around without nil checks; both no-op shapes
// must be safe.
func TestNilPublisherIsNoOp(t *testing.T) {
	var p *Publisher
	p.Publish(KeyPaymentCompleted, map[string]any{"payment_id": "PAY_1"})
	p.Close()

	empty := &Publisher{}
	empty.Publish(KeyPaymentFailed, nil)
	empty.Close()
}

func TestNewPublisherFromEnvWithoutURL(t *testing.T) {
	t.Setenv("RABBIT_URL", "")
	p, err := NewPublisherFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Fatal("expected nil publisher when RABBIT_URL is unset")
	}
}
