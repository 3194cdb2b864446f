// file: internals/features/payments/service/paypal.go
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"barangayku_backend/internals/configs"
)

// Provider is the hosted-checkout surface the flow talks to. "approved" is
// the only success signal recognized from Execute/Lookup.
type Provider interface {
	// CreateSession opens a hosted session scoped to amount/reference and
	// returns the provider's payment id plus the URL to load in the WebView.
	CreateSession(ctx context.Context, amountCentavos int64, currency, reference string) (providerPaymentID, approvalURL string, err error)
	// Execute finalizes a previously authorized payment and returns its state.
	Execute(ctx context.Context, providerPaymentID, payerID string) (state string, err error)
	// Lookup reads the current state without capturing. Used by the sweep.
	Lookup(ctx context.Context, providerPaymentID string) (state string, err error)
}

/* ===================== PayPal REST v1 client ===================== */

type PayPalClient struct {
	BaseURL   string
	ClientID  string
	Secret    string
	ReturnURL string
	CancelURL string

	HTTP *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewPayPalClientFromEnv() *PayPalClient {
	return &PayPalClient{
		BaseURL:   strings.TrimRight(configs.PayPalBaseURL, "/"),
		ClientID:  configs.PayPalClientID,
		Secret:    configs.PayPalSecret,
		ReturnURL: configs.PayPalReturnURL,
		CancelURL: configs.PayPalCancelURL,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
}

// CentavosToDecimal renders integer centavos as the provider's decimal string.
func CentavosToDecimal(c int64) string {
	return fmt.Sprintf("%d.%02d", c/100, c%100)
}

/* ---------- OAuth token (cached until shortly before expiry) ---------- */

func (p *PayPalClient) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && time.Now().Before(p.tokenExpiry) {
		return p.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.ClientID, p.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: oauth: %v", ErrProvider, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: oauth status %d", ErrProvider, resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := sonic.Unmarshal(body, &out); err != nil || out.AccessToken == "" {
		return "", fmt.Errorf("%w: oauth malformed response", ErrProvider)
	}

	p.accessToken = out.AccessToken
	p.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn-60) * time.Second)
	return p.accessToken, nil
}

func (p *PayPalClient) doJSON(ctx context.Context, method, path string, in any, out any) error {
	tok, err := p.token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := sonic.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s -> %d", ErrProvider, method, path, resp.StatusCode)
	}
	if out != nil {
		if err := sonic.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: malformed response", ErrProvider)
		}
	}
	return nil
}

/* ---------- Payments API ---------- */

type paypalPayment struct {
	ID    string `json:"id"`
	State string `json:"state"`
	Links []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
}

func (p *PayPalClient) CreateSession(ctx context.Context, amountCentavos int64, currency, reference string) (string, string, error) {
	payload := map[string]any{
		"intent": "sale",
		"payer":  map[string]any{"payment_method": "paypal"},
		"transactions": []map[string]any{{
			"amount": map[string]any{
				"total":    CentavosToDecimal(amountCentavos),
				"currency": currency,
			},
			"custom":      reference,
			"description": "Barangay certificate request fee",
		}},
		"redirect_urls": map[string]any{
			"return_url": p.ReturnURL,
			"cancel_url": p.CancelURL,
		},
	}

	var out paypalPayment
	if err := p.doJSON(ctx, http.MethodPost, "/v1/payments/payment", payload, &out); err != nil {
		return "", "", err
	}
	if out.ID == "" {
		return "", "", fmt.Errorf("%w: create returned no payment id", ErrProvider)
	}
	for _, l := range out.Links {
		if l.Rel == "approval_url" {
			return out.ID, l.Href, nil
		}
	}
	return "", "", fmt.Errorf("%w: create returned no approval_url", ErrProvider)
}

func (p *PayPalClient) Execute(ctx context.Context, providerPaymentID, payerID string) (string, error) {
	var out paypalPayment
	err := p.doJSON(ctx, http.MethodPost,
		"/v1/payments/payment/"+url.PathEscape(providerPaymentID)+"/execute",
		map[string]any{"payer_id": payerID}, &out)
	if err != nil {
		return "", err
	}
	return out.State, nil
}

func (p *PayPalClient) Lookup(ctx context.Context, providerPaymentID string) (string, error) {
	var out paypalPayment
	err := p.doJSON(ctx, http.MethodGet,
		"/v1/payments/payment/"+url.PathEscape(providerPaymentID), nil, &out)
	if err != nil {
		return "", err
	}
	return out.State, nil
}
