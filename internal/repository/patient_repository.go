package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/healthpass/healthpass/internal/domain/patient"
)

type PatientRepository struct {
	db *gorm.DB
}

var _ patient.Repository = (*PatientRepository)(nil)

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	rec := *p
	rec.HealthCardNo = encodeHealthCard(p.HealthCardNo)

	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return patient.ErrPatientAlreadyExists
		}
		return fmt.Errorf("inserting patient: %w", err)
	}

	p.ID = rec.ID
	p.CreatedAt = rec.CreatedAt
	return nil
}

func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var rec patient.Patient
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("querying patient by id: %w", err)
	}
	return r.decode(&rec)
}

func (r *PatientRepository) GetByHealthCard(ctx context.Context, healthCardNo string) (*patient.Patient, error) {
	var rec patient.Patient
	err := r.db.WithContext(ctx).
		First(&rec, "health_card_no = ?", encodeHealthCard(healthCardNo)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("querying patient by health card: %w", err)
	}
	return r.decode(&rec)
}

func (r *PatientRepository) UpdateContact(ctx context.Context, id uuid.UUID, phone, email *string) error {
	updates := map[string]any{}
	if phone != nil {
		updates["phone"] = *phone
	}
	if email != nil {
		updates["email"] = *email
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("updating patient contact: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) decode(rec *patient.Patient) (*patient.Patient, error) {
	plain, err := decodeHealthCard(rec.HealthCardNo)
	if err != nil {
		return nil, err
	}
	rec.HealthCardNo = plain
	return rec, nil
}
