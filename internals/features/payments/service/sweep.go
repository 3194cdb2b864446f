// file: internals/features/payments/service/sweep.go
package service

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"

	"barangayku_backend/internals/events"
	paymentModel "barangayku_backend/internals/features/payments/model"
)

/*
  Periodic reconciliation sweep. Records stuck in `initiated` have no other
  recovery path: the redirect was lost, or the capture landed but the local
  write did not. The sweep asks the provider for the truth and settles each
  stale record exactly once.
*/

// StartCheckoutSweep launches the background reconciler.
func StartCheckoutSweep(db *gorm.DB, provider Provider, publisher *events.Publisher) {
	go func() {
		interval := 15 * time.Minute
		if v := os.Getenv("PAYMENT_SWEEP_INTERVAL_MINUTES"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				interval = time.Duration(n) * time.Minute
			}
		}

		ledger := NewGormLedger(db)
		for {
			time.Sleep(interval)
			sweepOnce(context.Background(), db, ledger, provider, publisher)
		}
	}()
}

// sweepOnce settles every stale initiated record it can decide.
func sweepOnce(ctx context.Context, db *gorm.DB, ledger Ledger, provider Provider, publisher *events.Publisher) {
	staleAfter := 30 * time.Minute
	abandonAfter := 24 * time.Hour
	cutoff := time.Now().UTC().Add(-staleAfter)

	var stale []paymentModel.PaymentRecord
	if err := db.WithContext(ctx).
		Where("payment_status = ? AND payment_created_at < ?", paymentModel.PaymentStatusInitiated, cutoff).
		Limit(100).
		Find(&stale).Error; err != nil {
		log.Printf("[SWEEP] query failed: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}
	log.Printf("[SWEEP] reconciling %d stale initiated records", len(stale))

	for i := range stale {
		rec := &stale[i]

		// never reached the provider; nothing to ask, settle as cancelled
		// once clearly abandoned
		if rec.PaymentProviderRef == nil || *rec.PaymentProviderRef == "" {
			if time.Since(rec.PaymentCreatedAt) > abandonAfter {
				settle(ctx, ledger, rec.PaymentID, map[string]any{
					"payment_status": paymentModel.PaymentStatusCancelled,
				})
			}
			continue
		}

		state, err := provider.Lookup(ctx, *rec.PaymentProviderRef)
		LogGatewayEvent(db, rec.PaymentID, "paypal", "sweep_lookup", rec.PaymentProviderRef, nil,
			statusForErr(err), err)
		if err != nil {
			// provider unreachable, leave the record for the next pass
			continue
		}

		switch state {
		case "approved":
			// capture landed, the local completed write was lost
			transactionID := paymentModel.NewTransactionID()
			now := time.Now().UTC()
			settle(ctx, ledger, rec.PaymentID, map[string]any{
				"payment_status":              paymentModel.PaymentStatusCompleted,
				"payment_transaction_id":      transactionID,
				"payment_verification_method": "sweep_verified",
				"payment_paypal_payment_id":   *rec.PaymentProviderRef,
				"payment_completed_at":        now,
			})
			publisher.Publish(events.KeyPaymentCompleted, map[string]any{
				"payment_id":       rec.PaymentID,
				"transaction_id":   transactionID,
				"user_id":          rec.PaymentUserID,
				"certificate_type": rec.PaymentCertificateType,
				"amount_centavos":  rec.PaymentAmountCentavos,
			})
		case "failed", "expired":
			settle(ctx, ledger, rec.PaymentID, map[string]any{
				"payment_status": paymentModel.PaymentStatusFailed,
			})
			publisher.Publish(events.KeyPaymentFailed, map[string]any{
				"payment_id": rec.PaymentID,
				"state":      state,
			})
		default:
			// "created" etc: the session was opened and never finished
			if time.Since(rec.PaymentCreatedAt) > abandonAfter {
				settle(ctx, ledger, rec.PaymentID, map[string]any{
					"payment_status": paymentModel.PaymentStatusCancelled,
				})
			}
		}
	}
}

// settle re-checks the status right before writing so a capture racing the
// sweep never gets overwritten.
func settle(ctx context.Context, ledger Ledger, paymentID string, fields map[string]any) {
	rec, err := ledger.Get(ctx, paymentID)
	if err != nil || rec == nil {
		return
	}
	if paymentModel.IsTerminalStatus(rec.PaymentStatus) {
		return
	}
	if err := ledger.Update(ctx, paymentID, fields); err != nil {
		log.Printf("[SWEEP] %s: settle failed: %v", paymentID, err)
	}
}

func statusForErr(err error) string {
	if err != nil {
		return paymentModel.GatewayEventStatusFailed
	}
	return paymentModel.GatewayEventStatusProcessed
}
