package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

/* ===================== Enums (string) ===================== */
/* Aligned with the payment_status / payment_method ENUMs in PostgreSQL. */

const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

const (
	PaymentMethodPayPal = "PayPal"
	PaymentMethodGCash  = "GCash"
)

// IsTerminalStatus reports whether a status permits no further transition.
func IsTerminalStatus(s string) bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

/* ===================== Model ===================== */

// PaymentRecord is the ledger row for one checkout attempt. The flow creates
// and mutates it; nothing ever deletes it.
type PaymentRecord struct {
	// locally generated, PAY_<timestamp>_<random>
	PaymentID string `gorm:"column:payment_id;type:varchar(40);primaryKey" json:"payment_id"`

	PaymentUserID uuid.UUID `gorm:"column:payment_user_id;type:uuid;not null;index" json:"payment_user_id"`

	// integer centavos, no floats anywhere near money
	PaymentAmountCentavos int64  `gorm:"column:payment_amount_centavos;not null;check:payment_amount_centavos > 0" json:"payment_amount_centavos"`
	PaymentCurrency       string `gorm:"column:payment_currency;type:varchar(8);not null;default:PHP" json:"payment_currency"`

	PaymentMethod          string `gorm:"column:payment_method;type:varchar(20);not null" json:"payment_method"`
	PaymentCertificateType string `gorm:"column:payment_certificate_type;type:varchar(50);not null" json:"payment_certificate_type"`

	PaymentStatus string `gorm:"column:payment_status;type:varchar(20);not null;default:'initiated';index" json:"payment_status"`

	// provider-side payment id, known once the checkout session exists
	PaymentProviderRef *string `gorm:"column:payment_provider_ref;type:varchar(100);index" json:"payment_provider_ref,omitempty"`
	PaymentCheckoutURL *string `gorm:"column:payment_checkout_url" json:"payment_checkout_url,omitempty"`

	// set only on completion
	PaymentTransactionID      *string    `gorm:"column:payment_transaction_id;type:varchar(40);uniqueIndex" json:"payment_transaction_id,omitempty"`
	PaymentVerificationMethod *string    `gorm:"column:payment_verification_method;type:varchar(30)" json:"payment_verification_method,omitempty"`
	PaymentPaypalPaymentID    *string    `gorm:"column:payment_paypal_payment_id;type:varchar(100)" json:"payment_paypal_payment_id,omitempty"`
	PaymentCompletedAt        *time.Time `gorm:"column:payment_completed_at" json:"payment_completed_at,omitempty"`

	PaymentCreatedAt   time.Time `gorm:"column:payment_created_at;autoCreateTime" json:"payment_created_at"`
	PaymentLastUpdated time.Time `gorm:"column:payment_last_updated;autoUpdateTime" json:"payment_last_updated"`
}

func (PaymentRecord) TableName() string {
	return "payment_records"
}

/* ===================== Id generators ===================== */

func randSuffix() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewPaymentID returns a fresh ledger id, PAY_<unix-millis>_<random>.
func NewPaymentID() string {
	return fmt.Sprintf("PAY_%d_%s", time.Now().UnixMilli(), randSuffix())
}

// NewTransactionID returns a completion id, TR_<unix-millis>_<random>.
// Distinct from the provider's own payment id.
func NewTransactionID() string {
	return fmt.Sprintf("TR_%d_%s", time.Now().UnixMilli(), randSuffix())
}
