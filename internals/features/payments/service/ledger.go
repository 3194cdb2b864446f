package service

import (
	"context"
	"errors"
	"log"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	paymentModel "barangayku_backend/internals/features/payments/model"
)

// ErrRecordNotFound is returned by Ledger.Get when no row exists.
var ErrRecordNotFound = errors.New("payment record not found")

// Ledger is the document-store surface the checkout flow consumes.
// Last-write-wins, no cross-record transactions.
type Ledger interface {
	Get(ctx context.Context, paymentID string) (*paymentModel.PaymentRecord, error)
	Create(ctx context.Context, rec *paymentModel.PaymentRecord) error
	Update(ctx context.Context, paymentID string, fields map[string]any) error
}

/* ===================== GORM implementation ===================== */

type GormLedger struct {
	DB *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{DB: db}
}

func (l *GormLedger) Get(ctx context.Context, paymentID string) (*paymentModel.PaymentRecord, error) {
	var rec paymentModel.PaymentRecord
	err := l.DB.WithContext(ctx).First(&rec, "payment_id = ?", paymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (l *GormLedger) Create(ctx context.Context, rec *paymentModel.PaymentRecord) error {
	return l.DB.WithContext(ctx).Create(rec).Error
}

func (l *GormLedger) Update(ctx context.Context, paymentID string, fields map[string]any) error {
	return l.DB.WithContext(ctx).
		Model(&paymentModel.PaymentRecord{}).
		Where("payment_id = ?", paymentID).
		Updates(fields).Error
}

/* ===================== Gateway event log ===================== */

// LogGatewayEvent appends one provider-interaction outcome to the audit log.
// Best-effort: a failed insert is logged and swallowed.
func LogGatewayEvent(db *gorm.DB, paymentID, provider, eventType string, externalID *string, payload []byte, status string, procErr error) {
	if db == nil {
		return
	}
	ev := paymentModel.PaymentGatewayEvent{
		GatewayEventProvider:   provider,
		GatewayEventType:       eventType,
		GatewayEventExternalID: externalID,
		GatewayEventStatus:     status,
	}
	if paymentID != "" {
		ev.GatewayEventPaymentID = &paymentID
	}
	if len(payload) > 0 {
		ev.GatewayEventPayload = datatypes.JSON(payload)
	}
	if procErr != nil {
		msg := procErr.Error()
		ev.GatewayEventError = &msg
	}
	if err := db.Create(&ev).Error; err != nil {
		log.Printf("[PAYMENT] gateway event insert failed: %v", err)
	}
}
