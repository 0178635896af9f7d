package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEvent tags a state-changing action in the audit log.
type AuditEvent string

const (
	EventPatientCreated  AuditEvent = "PATIENT_CREATED"
	EventPatientContact  AuditEvent = "PATIENT_CONTACT_UPDATED"
	EventRxCreated       AuditEvent = "RX_CREATED"
	EventQRGenerated     AuditEvent = "QR_GENERATED"
	EventRxDispensed     AuditEvent = "RX_DISPENSED"
	EventNotifyQR        AuditEvent = "NOTIFY_QR"
	EventNotifyEmail     AuditEvent = "NOTIFY_EMAIL"
	EventNotifyEmailSkip AuditEvent = "NOTIFY_EMAIL_SKIPPED"
	EventNotifySMS       AuditEvent = "NOTIFY_SMS"
	EventNotifySMSSkip   AuditEvent = "NOTIFY_SMS_SKIPPED"
	EventReportGenerated AuditEvent = "REPORT_DISPENSED_GENERATED"
	EventReportExported  AuditEvent = "REPORT_DISPENSED_EXPORTED"
)

// AuditLog is an append-only record of a state-changing action. Entries carry
// entity ids as text inside Payload rather than as foreign keys, so an audit
// write can never fail on a referential constraint.
type AuditLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	EventType AuditEvent `gorm:"column:event_type;type:varchar(64);not null;index"`
	// Payload is a semicolon-delimited key=value string,
	// e.g. "prescription_id=…;pickup_code=…".
	Payload string `gorm:"column:payload;type:text;not null"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}
