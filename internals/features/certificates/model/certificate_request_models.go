package model

import (
	"time"

	"github.com/google/uuid"
)

/* ===================== Request status ===================== */

const (
	RequestStatusPending  = "PENDING"
	RequestStatusApproved = "APPROVED"
	RequestStatusRejected = "REJECTED"
)

func IsValidRequestStatus(s string) bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

/* ===================== Certificate types ===================== */

const (
	TypeBarangayCertificate  = "Barangay Certificate"
	TypeBarangayClearance    = "Barangay Clearance"
	TypeBusinessPermit       = "Business Permit"
	TypeResidencyCertificate = "Residency Certificate"
)

// AllCertificateTypes lists every request category, in display order.
var AllCertificateTypes = []string{
	TypeBarangayCertificate,
	TypeBarangayClearance,
	TypeBusinessPermit,
	TypeResidencyCertificate,
}

/* ===================== Barangay Certificate ===================== */

type BarangayCertificateRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	PaymentID string    `gorm:"type:varchar(40);not null;index" json:"payment_id"`

	FullName    string    `gorm:"size:100;not null" json:"full_name"`
	BirthDate   time.Time `gorm:"type:date;not null" json:"birth_date"`
	Age         int       `gorm:"not null" json:"age"`
	Phone       string    `gorm:"size:20;not null" json:"phone"`
	Gender      string    `gorm:"size:10;not null" json:"gender"`
	CivilStatus string    `gorm:"size:20;not null" json:"civil_status"`
	Purpose     string    `gorm:"size:255;not null" json:"purpose"`

	Status    string    `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BarangayCertificateRequest) TableName() string {
	return "barangay_certificate_requests"
}

/* ===================== Barangay Clearance ===================== */

type BarangayClearanceRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	PaymentID string    `gorm:"type:varchar(40);not null;index" json:"payment_id"`

	FullName     string    `gorm:"size:100;not null" json:"full_name"`
	BirthDate    time.Time `gorm:"type:date;not null" json:"birth_date"`
	PlaceOfBirth string    `gorm:"size:100;not null" json:"place_of_birth"`
	Age          int       `gorm:"not null" json:"age"`
	Nationality  string    `gorm:"size:50;not null" json:"nationality"`
	Address      string    `gorm:"size:255;not null" json:"address"`
	Phone        string    `gorm:"size:20;not null" json:"phone"`
	Email        string    `gorm:"size:255" json:"email"`
	Gender       string    `gorm:"size:10;not null" json:"gender"`
	CivilStatus  string    `gorm:"size:20;not null" json:"civil_status"`
	Purpose      string    `gorm:"size:255;not null" json:"purpose"`

	// blob store URL of the uploaded valid ID photo
	ValidIDURL string `gorm:"size:512" json:"valid_id_url"`

	Status    string    `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BarangayClearanceRequest) TableName() string {
	return "barangay_clearance_requests"
}

/* ===================== Business Permit ===================== */

type BusinessPermitRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	PaymentID string    `gorm:"type:varchar(40);not null;index" json:"payment_id"`

	FullName            string `gorm:"size:100;not null" json:"full_name"`
	Position            string `gorm:"size:100;not null" json:"position"`
	CompanyName         string `gorm:"size:150;not null" json:"company_name"`
	Phone               string `gorm:"size:20;not null" json:"phone"`
	Email               string `gorm:"size:255" json:"email"`
	BusinessType        string `gorm:"size:100;not null" json:"business_type"`
	BusinessDescription string `gorm:"size:500" json:"business_description"`
	EmployeeCount       int    `gorm:"not null;default:0" json:"employee_count"`

	// blob store URL of the uploaded supporting document
	SupportingDocURL string `gorm:"size:512" json:"supporting_doc_url"`

	Status    string    `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BusinessPermitRequest) TableName() string {
	return "business_permit_requests"
}

/* ===================== Residency Certificate ===================== */

type ResidencyCertificateRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	PaymentID string    `gorm:"type:varchar(40);not null;index" json:"payment_id"`

	FullName        string    `gorm:"size:100;not null" json:"full_name"`
	BirthDate       time.Time `gorm:"type:date;not null" json:"birth_date"`
	Age             int       `gorm:"not null" json:"age"`
	Phone           string    `gorm:"size:20;not null" json:"phone"`
	Gender          string    `gorm:"size:10;not null" json:"gender"`
	CivilStatus     string    `gorm:"size:20;not null" json:"civil_status"`
	Occupation      string    `gorm:"size:100" json:"occupation"`
	CurrentAddress  string    `gorm:"size:255;not null" json:"current_address"`
	LengthOfStay    string    `gorm:"size:50;not null" json:"length_of_stay"`
	PreviousAddress string    `gorm:"size:255" json:"previous_address"`
	Reason          string    `gorm:"size:255;not null" json:"reason"`

	// blob store URL of the uploaded proof of residency
	ProofURL string `gorm:"size:512" json:"proof_url"`

	Status    string    `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ResidencyCertificateRequest) TableName() string {
	return "residency_certificate_requests"
}
