package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthpass/healthpass/internal/domain"
	"github.com/healthpass/healthpass/internal/domain/patient"
	"github.com/healthpass/healthpass/internal/domain/prescription"
)

// DefaultDaysValid is applied at input boundaries when no validity period is
// given for a new prescription.
const DefaultDaysValid = 7

type PrescriptionService struct {
	repo        prescription.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	log         *zap.Logger
	now         func() time.Time
}

func NewPrescriptionService(
	repo prescription.Repository,
	patientRepo patient.Repository,
	auditSvc *AuditService,
	log *zap.Logger,
) *PrescriptionService {
	return &PrescriptionService{
		repo:        repo,
		patientRepo: patientRepo,
		auditSvc:    auditSvc,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create issues a new ACTIVE prescription for the patient identified by
// health card number, with expiry computed from DaysValid.
func (s *PrescriptionService) Create(ctx context.Context, cmd *prescription.CreatePrescriptionCommand) (*prescription.Prescription, error) {
	if err := validateCreateCommand(cmd); err != nil {
		return nil, err
	}

	pat, err := s.patientRepo.GetByHealthCard(ctx, cmd.HealthCardNo)
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(time.Duration(cmd.DaysValid) * 24 * time.Hour)

	p := &prescription.Prescription{
		PatientID:    pat.ID,
		DrugName:     strings.TrimSpace(cmd.DrugName),
		Dosage:       strings.TrimSpace(cmd.Dosage),
		Instructions: strings.TrimSpace(cmd.Instructions),
		Status:       prescription.StatusActive,
		ExpiresAt:    &expiresAt,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create prescription", zap.Error(err))
		return nil, fmt.Errorf("creating prescription: %w", err)
	}

	s.auditSvc.Record(ctx, domain.EventRxCreated,
		fmt.Sprintf("prescription_id=%s;patient_id=%s", p.ID, pat.ID))

	s.log.Info("prescription created",
		zap.String("prescription_id", p.ID.String()),
		zap.String("patient_id", pat.ID.String()),
	)

	return p, nil
}

// Dispense transitions an ACTIVE prescription, looked up by pickup code, to
// DISPENSED. The transition is terminal; expired prescriptions are refused
// with no grace period.
func (s *PrescriptionService) Dispense(ctx context.Context, pickupCode string) (*prescription.Prescription, error) {
	p, err := s.repo.GetByPickupCode(ctx, pickupCode)
	if err != nil {
		return nil, err
	}

	if p.IsDispensed() {
		return nil, prescription.ErrAlreadyDispensed
	}

	now := s.now()
	if p.IsExpired(now) {
		return nil, prescription.ErrPrescriptionExpired
	}

	if err := s.repo.MarkDispensed(ctx, p.ID, now); err != nil {
		s.log.Error("failed to mark prescription dispensed", zap.Error(err))
		return nil, fmt.Errorf("marking dispensed: %w", err)
	}
	p.Status = prescription.StatusDispensed
	p.PickedUpAt = &now

	s.auditSvc.Record(ctx, domain.EventRxDispensed,
		fmt.Sprintf("prescription_id=%s;pickup_code=%s", p.ID, pickupCode))

	s.log.Info("prescription dispensed",
		zap.String("prescription_id", p.ID.String()),
		zap.String("pickup_code", pickupCode),
	)

	return p, nil
}

func (s *PrescriptionService) GetByID(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PrescriptionService) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*prescription.Prescription, error) {
	return s.repo.ListForPatient(ctx, patientID)
}

func validateCreateCommand(cmd *prescription.CreatePrescriptionCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.HealthCardNo) == "" {
		errs = append(errs, "health_card_no is required")
	}
	if strings.TrimSpace(cmd.DrugName) == "" {
		errs = append(errs, "drug_name is required")
	}
	if strings.TrimSpace(cmd.Dosage) == "" {
		errs = append(errs, "dosage is required")
	}
	if cmd.DaysValid <= 0 {
		errs = append(errs, "days_valid must be positive")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
