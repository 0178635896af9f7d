package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/healthpass/healthpass/internal/domain/prescription"
)

type PrescriptionRepository struct {
	db *gorm.DB
}

var _ prescription.Repository = (*PrescriptionRepository)(nil)

func NewPrescriptionRepository(db *gorm.DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

func (r *PrescriptionRepository) Create(ctx context.Context, p *prescription.Prescription) error {
	if err := r.db.WithContext(ctx).Omit("Patient").Create(p).Error; err != nil {
		return fmt.Errorf("inserting prescription: %w", err)
	}
	return nil
}

func (r *PrescriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	var rec prescription.Prescription
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, prescription.ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("querying prescription by id: %w", err)
	}
	return &rec, nil
}

func (r *PrescriptionRepository) GetByPickupCode(ctx context.Context, code string) (*prescription.Prescription, error) {
	var rec prescription.Prescription
	err := r.db.WithContext(ctx).First(&rec, "pickup_code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, prescription.ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("querying prescription by pickup code: %w", err)
	}
	return &rec, nil
}

func (r *PrescriptionRepository) SetPickupArtifact(ctx context.Context, id uuid.UUID, code, qrPath string) error {
	res := r.db.WithContext(ctx).
		Model(&prescription.Prescription{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"pickup_code":    code,
			"pickup_qr_path": qrPath,
		})
	if res.Error != nil {
		return fmt.Errorf("attaching pickup artifact: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return prescription.ErrPrescriptionNotFound
	}
	return nil
}

func (r *PrescriptionRepository) MarkDispensed(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&prescription.Prescription{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       prescription.StatusDispensed,
			"picked_up_at": at,
		})
	if res.Error != nil {
		return fmt.Errorf("marking prescription dispensed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return prescription.ErrPrescriptionNotFound
	}
	return nil
}

func (r *PrescriptionRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*prescription.Prescription, error) {
	var recs []*prescription.Prescription
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("listing prescriptions for patient: %w", err)
	}
	return recs, nil
}

func (r *PrescriptionRepository) ListDispensed(ctx context.Context) ([]*prescription.Prescription, error) {
	var recs []*prescription.Prescription
	err := r.db.WithContext(ctx).
		Where("status = ?", prescription.StatusDispensed).
		Order("picked_up_at DESC NULLS LAST, created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("listing dispensed prescriptions: %w", err)
	}
	return recs, nil
}
