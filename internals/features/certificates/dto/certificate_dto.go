package dto

import (
	"time"

	"github.com/google/uuid"
)

/* ===================== Submit payloads ===================== */

// SubmitBarangayCertificateRequest is plain JSON; the other three arrive as
// multipart/form-data because they carry a document upload.
type SubmitBarangayCertificateRequest struct {
	PaymentID   string `json:"payment_id" validate:"required"`
	FullName    string `json:"full_name" validate:"required,min=3,max=100"`
	BirthDate   string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Phone       string `json:"phone" validate:"required,min=7,max=20"`
	Gender      string `json:"gender" validate:"required,oneof=Male Female"`
	CivilStatus string `json:"civil_status" validate:"required,oneof=Single Married Widowed Separated"`
	Purpose     string `json:"purpose" validate:"required,max=255"`
}

/* ===================== Track / list item ===================== */

// TrackedRequest is the unified row returned by the tracking and admin
// endpoints, merged across the four request tables.
type TrackedRequest struct {
	ID              uuid.UUID `json:"id"`
	CertificateType string    `json:"certificate_type"`
	FullName        string    `json:"full_name"`
	PaymentID       string    `json:"payment_id"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

/* ===================== Fees ===================== */

type FeeItem struct {
	CertificateType string `json:"certificate_type"`
	AmountCentavos  int64  `json:"amount_centavos"`
	AmountDisplay   string `json:"amount_display"`
}

type UpdateFeesRequest struct {
	Fees []struct {
		CertificateType string `json:"certificate_type" validate:"required"`
		AmountCentavos  int64  `json:"amount_centavos" validate:"required,gt=0"`
	} `json:"fees" validate:"required,min=1,dive"`
}

/* ===================== Status update ===================== */

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING APPROVED REJECTED"`
}
