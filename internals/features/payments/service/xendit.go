// file: internals/features/payments/service/xendit.go
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"barangayku_backend/internals/configs"
)

/*
  GCash e-wallet charge via Xendit. The mobile flow currently exposes PayPal
  only; this path stays wired so enabling GCash is a UI change, not a backend
  change.
*/

type XenditClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewXenditClientFromEnv() *XenditClient {
	return &XenditClient{
		BaseURL: strings.TrimRight(configs.XenditAPIURL, "/"),
		APIKey:  configs.XenditAPIKey,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

var gcashDigits = regexp.MustCompile(`^09\d{9}$`)

// FormatGcashNumber normalizes a PH mobile number for the e-wallet API:
// a leading 0 becomes +63, and exactly 11 digits starting with 09 are
// required on input.
func FormatGcashNumber(raw string) (string, error) {
	n := strings.TrimSpace(raw)
	n = strings.ReplaceAll(n, " ", "")
	n = strings.ReplaceAll(n, "-", "")
	if !gcashDigits.MatchString(n) {
		return "", fmt.Errorf("gcash number must be 11 digits starting with 09")
	}
	return "+63" + n[1:], nil
}

type xenditCharge struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Actions struct {
		DesktopWebCheckoutURL string `json:"desktop_web_checkout_url"`
		MobileWebCheckoutURL  string `json:"mobile_web_checkout_url"`
	} `json:"actions"`
}

// CreateGcashCharge opens an e-wallet charge and returns the charge id plus
// the checkout URL for the WebView.
func (x *XenditClient) CreateGcashCharge(ctx context.Context, amountCentavos int64, reference, phone string) (string, string, error) {
	normalized, err := FormatGcashNumber(phone)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrProvider, err)
	}

	payload := map[string]any{
		"reference_id":    reference,
		"currency":        "PHP",
		"amount":          json.Number(CentavosToDecimal(amountCentavos)),
		"checkout_method": "ONE_TIME_PAYMENT",
		"channel_code":    "PH_GCASH",
		"channel_properties": map[string]any{
			"mobile_number":        normalized,
			"success_redirect_url": configs.PayPalReturnURL,
			"failure_redirect_url": configs.PayPalCancelURL,
		},
	}
	b, err := sonic.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		x.BaseURL+"/ewallets/charges", bytes.NewReader(b))
	if err != nil {
		return "", "", err
	}
	req.SetBasicAuth(x.APIKey, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.HTTP.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", fmt.Errorf("%w: ewallet charge -> %d", ErrProvider, resp.StatusCode)
	}

	var out xenditCharge
	if err := sonic.Unmarshal(raw, &out); err != nil || out.ID == "" {
		return "", "", fmt.Errorf("%w: malformed charge response", ErrProvider)
	}

	checkoutURL := out.Actions.MobileWebCheckoutURL
	if checkoutURL == "" {
		checkoutURL = out.Actions.DesktopWebCheckoutURL
	}
	if checkoutURL == "" {
		return "", "", fmt.Errorf("%w: charge returned no checkout url", ErrProvider)
	}
	return out.ID, checkoutURL, nil
}
