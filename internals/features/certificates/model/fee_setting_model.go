package model

import (
	"time"
)

// FeeSetting holds the per-type request fee, in integer centavos.
// Read by the form before checkout; updated by admins.
type FeeSetting struct {
	CertificateType string    `gorm:"column:certificate_type;type:varchar(50);primaryKey" json:"certificate_type"`
	AmountCentavos  int64     `gorm:"column:amount_centavos;not null;check:amount_centavos > 0" json:"amount_centavos"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FeeSetting) TableName() string {
	return "certificate_fee_settings"
}

// DefaultFees seeds first-run installs; amounts are in centavos.
var DefaultFees = map[string]int64{
	TypeBarangayCertificate:  10000, // PHP 100.00
	TypeBarangayClearance:    15000,
	TypeBusinessPermit:       50000,
	TypeResidencyCertificate: 15000,
}
