package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestPayPal(t *testing.T, handler http.Handler) (*PayPalClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &PayPalClient{
		BaseURL:   srv.URL,
		ClientID:  "client",
		Secret:    "secret",
		ReturnURL: "https://barangayku.app/payment-success",
		CancelURL: "https://barangayku.app/payment-cancel",
		HTTP:      srv.Client(),
	}, srv
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func TestCentavosToDecimal(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{10000, "100.00"},
		{15050, "150.50"},
		{1, "0.01"},
		{99, "0.99"},
		{100, "1.00"},
	}
	for _, tt := range tests {
		if got := CentavosToDecimal(tt.in); got != tt.want {
			t.Errorf("CentavosToDecimal(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreateSessionReturnsApprovalURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "client" || pass != "secret" {
			writeJSON(w, http.StatusUnauthorized, `{}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"access_token":"A.B.C","expires_in":32400}`)
	})
	mux.HandleFunc("/v1/payments/payment", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer A.B.C" {
			writeJSON(w, http.StatusUnauthorized, `{}`)
			return
		}
		writeJSON(w, http.StatusCreated, `{
			"id": "PAY-5YK922393D847794YKER7MUI",
			"state": "created",
			"links": [
				{"href": "https://api.sandbox.paypal.com/v1/payments/payment/PAY-5YK", "rel": "self"},
				{"href": "https://www.sandbox.paypal.com/cgi-bin/webscr?cmd=_express-checkout&token=EC-60U", "rel": "approval_url"},
				{"href": "https://api.sandbox.paypal.com/v1/payments/payment/PAY-5YK/execute", "rel": "execute"}
			]
		}`)
	})

	p, _ := newTestPayPal(t, mux)
	id, approval, err := p.CreateSession(context.Background(), 10000, "PHP", "PAY_1_ab")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if id != "PAY-5YK922393D847794YKER7MUI" {
		t.Errorf("id = %q", id)
	}
	if approval != "https://www.sandbox.paypal.com/cgi-bin/webscr?cmd=_express-checkout&token=EC-60U" {
		t.Errorf("approval = %q", approval)
	}
}

func TestCreateSessionWithoutApprovalURLFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"access_token":"T","expires_in":3600}`)
	})
	mux.HandleFunc("/v1/payments/payment", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"id":"PAY-1","state":"created","links":[]}`)
	})

	p, _ := newTestPayPal(t, mux)
	if _, _, err := p.CreateSession(context.Background(), 10000, "PHP", "r"); !errors.Is(err, ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
}

func TestExecuteReturnsState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"access_token":"T","expires_in":3600}`)
	})
	mux.HandleFunc("/v1/payments/payment/PAY-1/execute", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, `{}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"id":"PAY-1","state":"approved"}`)
	})

	p, _ := newTestPayPal(t, mux)
	state, err := p.Execute(context.Background(), "PAY-1", "PAYER9")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if state != "approved" {
		t.Errorf("state = %q, want approved", state)
	}
}

func TestExecuteFailureWrapsErrProvider(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"access_token":"T","expires_in":3600}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"name":"PAYMENT_ALREADY_DONE"}`)
	})

	p, _ := newTestPayPal(t, mux)
	if _, err := p.Execute(context.Background(), "PAY-1", "PAYER9"); !errors.Is(err, ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
}

func TestLookupReturnsState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"access_token":"T","expires_in":3600}`)
	})
	mux.HandleFunc("/v1/payments/payment/PAY-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"PAY-1","state":"expired"}`)
	})

	p, _ := newTestPayPal(t, mux)
	state, err := p.Lookup(context.Background(), "PAY-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if state != "expired" {
		t.Errorf("state = %q, want expired", state)
	}
}

func TestTokenIsCachedAcrossCalls(t *testing.T) {
	var tokenCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		writeJSON(w, http.StatusOK, `{"access_token":"T","expires_in":3600}`)
	})
	mux.HandleFunc("/v1/payments/payment/PAY-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"PAY-1","state":"created"}`)
	})

	p, _ := newTestPayPal(t, mux)
	for i := 0; i < 3; i++ {
		if _, err := p.Lookup(context.Background(), "PAY-1"); err != nil {
			t.Fatalf("Lookup %d: %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&tokenCalls); n != 1 {
		t.Errorf("token endpoint hit %d times, want 1", n)
	}
}

func TestExpiredTokenIsRefreshed(t *testing.T) {
	var tokenCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		writeJSON(w, http.StatusOK, `{"access_token":"T","expires_in":3600}`)
	})
	mux.HandleFunc("/v1/payments/payment/PAY-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"PAY-1","state":"created"}`)
	})

	p, _ := newTestPayPal(t, mux)
	if _, err := p.Lookup(context.Background(), "PAY-1"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	p.mu.Lock()
	p.tokenExpiry = time.Now().Add(-time.Minute)
	p.mu.Unlock()

	if _, err := p.Lookup(context.Background(), "PAY-1"); err != nil {
		t.Fatalf("Lookup after expiry: %v", err)
	}
	if n := atomic.LoadInt32(&tokenCalls); n != 2 {
		t.Errorf("token endpoint hit %d times, want 2", n)
	}
}

func TestOAuthFailureSurfacesErrProvider(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":"invalid_client"}`)
	})

	p, _ := newTestPayPal(t, mux)
	if _, err := p.Lookup(context.Background(), "PAY-1"); !errors.Is(err, ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
}
