package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient is a person registered by a doctor. The health card number is the
// unique business key; it is stored in an obfuscated hex encoding at the
// persistence boundary and exposed as plaintext everywhere above it.
type Patient struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	HealthCardNo string    `gorm:"column:health_card_no;type:varchar(128);uniqueIndex;not null"`
	FirstName    string    `gorm:"column:first_name;type:varchar(100);not null"`
	LastName     string    `gorm:"column:last_name;type:varchar(100);not null"`
	DateOfBirth  time.Time `gorm:"column:date_of_birth;not null"`

	// Contact channels are optional; empty means absent. The pharmacist can
	// backfill them while sending a pickup notification.
	Phone string `gorm:"column:phone;type:varchar(30)"`
	Email string `gorm:"column:email;type:varchar(255)"`
}

func (Patient) TableName() string {
	return "patients"
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type RegisterPatientCommand struct {
	HealthCardNo string
	FirstName    string
	LastName     string
	DateOfBirth  time.Time
	Phone        string
	Email        string
}
