package dto

import (
	"time"

	"github.com/google/uuid"

	paymentModel "barangayku_backend/internals/features/payments/model"
	paymentService "barangayku_backend/internals/features/payments/service"
)

/* ===================== Checkout ===================== */

type CheckoutRequest struct {
	CertificateType string `json:"certificate_type" validate:"required"`
	Method          string `json:"method" validate:"omitempty,oneof=PayPal GCash"`
	GcashNumber     string `json:"gcash_number" validate:"omitempty"`
}

type CheckoutResponse struct {
	PaymentID   string `json:"payment_id"`
	CheckoutURL string `json:"checkout_url"`
}

type NavigationRequest struct {
	URL string `json:"url" validate:"required"`
}

/* ===================== History ===================== */

type PaymentResponse struct {
	PaymentID       string     `json:"payment_id"`
	UserID          uuid.UUID  `json:"user_id"`
	AmountCentavos  int64      `json:"amount_centavos"`
	AmountDisplay   string     `json:"amount_display"`
	Currency        string     `json:"currency"`
	Method          string     `json:"method"`
	CertificateType string     `json:"certificate_type"`
	Status          string     `json:"status"`
	TransactionID   *string    `json:"transaction_id,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	LastUpdated     time.Time  `json:"last_updated"`
}

func ToPaymentResponse(r *paymentModel.PaymentRecord) PaymentResponse {
	return PaymentResponse{
		PaymentID:       r.PaymentID,
		UserID:          r.PaymentUserID,
		AmountCentavos:  r.PaymentAmountCentavos,
		AmountDisplay:   "PHP " + paymentService.CentavosToDecimal(r.PaymentAmountCentavos),
		Currency:        r.PaymentCurrency,
		Method:          r.PaymentMethod,
		CertificateType: r.PaymentCertificateType,
		Status:          r.PaymentStatus,
		TransactionID:   r.PaymentTransactionID,
		CompletedAt:     r.PaymentCompletedAt,
		CreatedAt:       r.PaymentCreatedAt,
		LastUpdated:     r.PaymentLastUpdated,
	}
}

func ToPaymentResponses(list []paymentModel.PaymentRecord) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(list))
	for i := range list {
		out = append(out, ToPaymentResponse(&list[i]))
	}
	return out
}
