package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthpass/healthpass/internal/domain"
	"github.com/healthpass/healthpass/internal/domain/patient"
)

type PatientService struct {
	repo     patient.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewPatientService(repo patient.Repository, auditSvc *AuditService, log *zap.Logger) *PatientService {
	return &PatientService{repo: repo, auditSvc: auditSvc, log: log}
}

// Register creates a new patient. The health card number is the unique
// business key; registering an already-used one fails without creating a
// second row.
func (s *PatientService) Register(ctx context.Context, cmd *patient.RegisterPatientCommand) (*patient.Patient, error) {
	if err := validateRegisterCommand(cmd); err != nil {
		return nil, err
	}

	_, err := s.repo.GetByHealthCard(ctx, cmd.HealthCardNo)
	if err == nil {
		return nil, patient.ErrPatientAlreadyExists
	}
	if !errors.Is(err, patient.ErrPatientNotFound) {
		s.log.Error("failed to check health card uniqueness", zap.Error(err))
		return nil, fmt.Errorf("checking uniqueness: %w", err)
	}

	p := &patient.Patient{
		HealthCardNo: strings.TrimSpace(cmd.HealthCardNo),
		FirstName:    strings.TrimSpace(cmd.FirstName),
		LastName:     strings.TrimSpace(cmd.LastName),
		DateOfBirth:  cmd.DateOfBirth,
		Phone:        strings.TrimSpace(cmd.Phone),
		Email:        strings.ToLower(strings.TrimSpace(cmd.Email)),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, patient.ErrPatientAlreadyExists) {
			return nil, err
		}
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	s.auditSvc.Record(ctx, domain.EventPatientCreated,
		fmt.Sprintf("patient_id=%s;hcn=%s", p.ID, p.HealthCardNo))

	s.log.Info("patient registered", zap.String("patient_id", p.ID.String()))

	return p, nil
}

func (s *PatientService) GetByHealthCard(ctx context.Context, healthCardNo string) (*patient.Patient, error) {
	return s.repo.GetByHealthCard(ctx, healthCardNo)
}

// UpdateContact backfills missing phone/email, typically while a pharmacist
// sends a pickup notification. Nil fields are left unchanged.
func (s *PatientService) UpdateContact(ctx context.Context, id uuid.UUID, phone, email *string) error {
	if phone == nil && email == nil {
		return nil
	}
	if err := s.repo.UpdateContact(ctx, id, phone, email); err != nil {
		return err
	}

	s.auditSvc.Record(ctx, domain.EventPatientContact,
		fmt.Sprintf("patient_id=%s;phone_set=%t;email_set=%t", id, phone != nil, email != nil))
	return nil
}

func validateRegisterCommand(cmd *patient.RegisterPatientCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.HealthCardNo) == "" {
		errs = append(errs, "health_card_no is required")
	}
	if strings.TrimSpace(cmd.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	if cmd.DateOfBirth.IsZero() {
		errs = append(errs, "date_of_birth is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
