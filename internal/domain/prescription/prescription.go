package prescription

import (
	"time"

	"github.com/google/uuid"

	"github.com/healthpass/healthpass/internal/domain/patient"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusDispensed Status = "DISPENSED"
)

// Prescription is created ACTIVE with a computed expiry. A pickup code and QR
// path are attached once by issuance (both together, never one without the
// other), and the dispense transition to DISPENSED is terminal.
type Prescription struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	PatientID uuid.UUID        `gorm:"column:patient_id;type:uuid;not null;index"`
	Patient   *patient.Patient `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE"`

	DrugName     string `gorm:"column:drug_name;type:varchar(255);not null"`
	Dosage       string `gorm:"column:dosage;type:varchar(255);not null"`
	Instructions string `gorm:"column:instructions;type:text"`

	Status Status `gorm:"column:status;type:varchar(32);not null;default:'ACTIVE';index"`

	PickupCode   *string `gorm:"column:pickup_code;type:varchar(64);uniqueIndex"`
	PickupQRPath *string `gorm:"column:pickup_qr_path;type:text"`

	ExpiresAt  *time.Time `gorm:"column:expires_at"`
	PickedUpAt *time.Time `gorm:"column:picked_up_at"`
}

func (Prescription) TableName() string {
	return "prescriptions"
}

func (p *Prescription) IsDispensed() bool {
	return p.Status == StatusDispensed
}

// IsExpired reports whether the prescription's expiry is strictly before the
// given instant. Prescriptions without an expiry never expire.
func (p *Prescription) IsExpired(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
}

// HasPickupArtifact reports whether both the pickup code and the QR path are
// attached. They are set together or not at all.
func (p *Prescription) HasPickupArtifact() bool {
	return p.PickupCode != nil && *p.PickupCode != "" &&
		p.PickupQRPath != nil && *p.PickupQRPath != ""
}

type CreatePrescriptionCommand struct {
	HealthCardNo string
	DrugName     string
	Dosage       string
	Instructions string
	DaysValid    int
}
