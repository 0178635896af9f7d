package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthpass/healthpass/internal/domain"
	"github.com/healthpass/healthpass/internal/domain/patient"
	"github.com/healthpass/healthpass/internal/domain/prescription"
)

// Notifier tells a patient their prescription is ready for pickup. All
// implementations are logging stubs: they record intent, they do not
// deliver. Missing contact information is audited as a skip, never an error.
type Notifier interface {
	// NotifyPrescriptionReady notifies for the given prescription. recipient
	// optionally overrides (and backfills) the patient's stored contact for
	// the channel; pass "" to use the stored value.
	NotifyPrescriptionReady(ctx context.Context, prescriptionID uuid.UUID, recipient string) error
	Channel() string
}

// PickupIssuer is the slice of PickupService the QR notifier needs.
type PickupIssuer interface {
	EnsurePickupArtifact(ctx context.Context, prescriptionID uuid.UUID) (string, string, error)
}

// NewNotifier builds the channel implementation selected by configuration.
// The choice is made once at startup and passed to call sites explicitly.
func NewNotifier(
	kind string,
	patientRepo patient.Repository,
	rxRepo prescription.Repository,
	issuer PickupIssuer,
	auditSvc *AuditService,
	log *zap.Logger,
) (Notifier, error) {
	switch kind {
	case "qr":
		return &QRNotifier{rxRepo: rxRepo, issuer: issuer, auditSvc: auditSvc, log: log}, nil
	case "email":
		return &EmailNotifier{patientRepo: patientRepo, rxRepo: rxRepo, auditSvc: auditSvc, log: log}, nil
	case "sms":
		return &SMSNotifier{patientRepo: patientRepo, rxRepo: rxRepo, auditSvc: auditSvc, log: log}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNotifier, kind)
	}
}

// QRNotifier notifies by ensuring the pickup artifact exists; the printed QR
// image is the notification.
type QRNotifier struct {
	rxRepo   prescription.Repository
	issuer   PickupIssuer
	auditSvc *AuditService
	log      *zap.Logger
}

func (n *QRNotifier) Channel() string { return "qr" }

func (n *QRNotifier) NotifyPrescriptionReady(ctx context.Context, prescriptionID uuid.UUID, _ string) error {
	code, path, err := n.issuer.EnsurePickupArtifact(ctx, prescriptionID)
	if err != nil {
		return err
	}

	n.log.Info("QR notification ready",
		zap.String("prescription_id", prescriptionID.String()),
		zap.String("pickup_code", code),
		zap.String("path", path),
	)

	n.auditSvc.Record(ctx, domain.EventNotifyQR,
		fmt.Sprintf("prescription_id=%s;path=%s", prescriptionID, path))
	return nil
}

type EmailNotifier struct {
	patientRepo patient.Repository
	rxRepo      prescription.Repository
	auditSvc    *AuditService
	log         *zap.Logger
}

func (n *EmailNotifier) Channel() string { return "email" }

func (n *EmailNotifier) NotifyPrescriptionReady(ctx context.Context, prescriptionID uuid.UUID, recipient string) error {
	p, pat, err := loadPrescriptionPatient(ctx, n.rxRepo, n.patientRepo, prescriptionID)
	if err != nil {
		return err
	}

	email := pat.Email
	if recipient != "" {
		email = recipient
		if pat.Email == "" {
			if err := n.patientRepo.UpdateContact(ctx, pat.ID, nil, &recipient); err != nil {
				n.log.Warn("failed to backfill patient email", zap.Error(err))
			}
		}
	}

	if email == "" {
		n.auditSvc.Record(ctx, domain.EventNotifyEmailSkip,
			fmt.Sprintf("patient_id=%s;reason=no_email", pat.ID))
		n.log.Info("email notification skipped: patient has no email",
			zap.String("patient_id", pat.ID.String()))
		return nil
	}

	code, qrPath := pickupDetails(p)
	n.log.Info("would send email",
		zap.String("to", email),
		zap.String("pickup_code", code),
		zap.String("qr_path", qrPath),
	)

	n.auditSvc.Record(ctx, domain.EventNotifyEmail,
		fmt.Sprintf("patient_id=%s;to=%s;pickup_code=%s;qr_included=%t", pat.ID, email, code, qrPath != ""))
	return nil
}

type SMSNotifier struct {
	patientRepo patient.Repository
	rxRepo      prescription.Repository
	auditSvc    *AuditService
	log         *zap.Logger
}

func (n *SMSNotifier) Channel() string { return "sms" }

func (n *SMSNotifier) NotifyPrescriptionReady(ctx context.Context, prescriptionID uuid.UUID, recipient string) error {
	p, pat, err := loadPrescriptionPatient(ctx, n.rxRepo, n.patientRepo, prescriptionID)
	if err != nil {
		return err
	}

	phone := pat.Phone
	if recipient != "" {
		phone = recipient
		if pat.Phone == "" {
			if err := n.patientRepo.UpdateContact(ctx, pat.ID, &recipient, nil); err != nil {
				n.log.Warn("failed to backfill patient phone", zap.Error(err))
			}
		}
	}

	if phone == "" {
		n.auditSvc.Record(ctx, domain.EventNotifySMSSkip,
			fmt.Sprintf("patient_id=%s;reason=no_phone", pat.ID))
		n.log.Info("SMS notification skipped: patient has no phone",
			zap.String("patient_id", pat.ID.String()))
		return nil
	}

	code, qrPath := pickupDetails(p)
	n.log.Info("would send SMS",
		zap.String("to", phone),
		zap.String("pickup_code", code),
		zap.String("qr_path", qrPath),
	)

	n.auditSvc.Record(ctx, domain.EventNotifySMS,
		fmt.Sprintf("patient_id=%s;to=%s;pickup_code=%s;qr_included=%t", pat.ID, phone, code, qrPath != ""))
	return nil
}

func loadPrescriptionPatient(
	ctx context.Context,
	rxRepo prescription.Repository,
	patientRepo patient.Repository,
	prescriptionID uuid.UUID,
) (*prescription.Prescription, *patient.Patient, error) {
	p, err := rxRepo.GetByID(ctx, prescriptionID)
	if err != nil {
		return nil, nil, err
	}
	pat, err := patientRepo.GetByID(ctx, p.PatientID)
	if err != nil {
		return nil, nil, err
	}
	return p, pat, nil
}

func pickupDetails(p *prescription.Prescription) (code, qrPath string) {
	if p.PickupCode != nil {
		code = *p.PickupCode
	}
	if p.PickupQRPath != nil {
		qrPath = *p.PickupQRPath
	}
	return code, qrPath
}
