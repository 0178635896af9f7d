package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/healthpass/healthpass/internal/domain"
	"github.com/healthpass/healthpass/internal/domain/patient"
	"github.com/healthpass/healthpass/internal/domain/prescription"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func newRxService(repo *mockPrescriptionRepo, patients *mockPatientRepo) (*PrescriptionService, *mockAuditRepo) {
	auditSvc, audit := newTestAudit()
	svc := NewPrescriptionService(repo, patients, auditSvc, zap.NewNop())
	svc.now = fixedNow
	return svc, audit
}

func TestPrescriptionService_Create(t *testing.T) {
	pat := &patient.Patient{ID: uuid.New(), HealthCardNo: "HCN123"}
	patients := &mockPatientRepo{
		GetByHealthCardFunc: func(_ context.Context, hcn string) (*patient.Patient, error) {
			assert.Equal(t, "HCN123", hcn)
			return pat, nil
		},
	}
	repo := &mockPrescriptionRepo{}
	svc, audit := newRxService(repo, patients)

	p, err := svc.Create(context.Background(), &prescription.CreatePrescriptionCommand{
		HealthCardNo: "HCN123",
		DrugName:     "Ibuprofen",
		Dosage:       "200mg",
		Instructions: "After meals",
		DaysValid:    7,
	})
	require.NoError(t, err)

	assert.Equal(t, pat.ID, p.PatientID)
	assert.Equal(t, prescription.StatusActive, p.Status)
	assert.Nil(t, p.PickupCode)
	assert.Nil(t, p.PickedUpAt)
	require.NotNil(t, p.ExpiresAt)
	assert.Equal(t, fixedNow().Add(7*24*time.Hour), *p.ExpiresAt)

	require.True(t, audit.has(domain.EventRxCreated))
	assert.Contains(t, audit.last().Payload, "prescription_id="+p.ID.String())
}

func TestPrescriptionService_Create_UnknownPatient(t *testing.T) {
	repo := &mockPrescriptionRepo{}
	svc, audit := newRxService(repo, &mockPatientRepo{})

	_, err := svc.Create(context.Background(), &prescription.CreatePrescriptionCommand{
		HealthCardNo: "NOPE",
		DrugName:     "Ibuprofen",
		Dosage:       "200mg",
		DaysValid:    7,
	})
	require.ErrorIs(t, err, patient.ErrPatientNotFound)
	assert.Equal(t, 0, repo.CreateCalls)
	assert.Empty(t, audit.entries)
}

func TestPrescriptionService_Create_Validation(t *testing.T) {
	svc, _ := newRxService(&mockPrescriptionRepo{}, &mockPatientRepo{})

	_, err := svc.Create(context.Background(), &prescription.CreatePrescriptionCommand{
		HealthCardNo: "HCN123",
		DaysValid:    -1,
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "drug_name is required")
	assert.Contains(t, verr.Fields, "dosage is required")
	assert.Contains(t, verr.Fields, "days_valid must be positive")
}

func activePrescription(code string) *prescription.Prescription {
	expires := fixedNow().Add(24 * time.Hour)
	return &prescription.Prescription{
		ID:         uuid.New(),
		PatientID:  uuid.New(),
		DrugName:   "Ibuprofen",
		Dosage:     "200mg",
		Status:     prescription.StatusActive,
		PickupCode: &code,
		ExpiresAt:  &expires,
	}
}

func TestPrescriptionService_Dispense(t *testing.T) {
	rx := activePrescription("ABC123DEF4")
	repo := &mockPrescriptionRepo{
		GetByPickupCodeFunc: func(_ context.Context, code string) (*prescription.Prescription, error) {
			assert.Equal(t, "ABC123DEF4", code)
			return rx, nil
		},
	}
	svc, audit := newRxService(repo, &mockPatientRepo{})

	p, err := svc.Dispense(context.Background(), "ABC123DEF4")
	require.NoError(t, err)

	assert.Equal(t, prescription.StatusDispensed, p.Status)
	require.NotNil(t, p.PickedUpAt)
	assert.Equal(t, fixedNow(), *p.PickedUpAt)
	assert.Equal(t, 1, repo.MarkDispensedCalls)

	require.True(t, audit.has(domain.EventRxDispensed))
	assert.Contains(t, audit.last().Payload, "pickup_code=ABC123DEF4")
}

func TestPrescriptionService_Dispense_AlreadyDispensed(t *testing.T) {
	rx := activePrescription("ABC123DEF4")
	pickedUp := fixedNow().Add(-time.Hour)
	rx.Status = prescription.StatusDispensed
	rx.PickedUpAt = &pickedUp

	repo := &mockPrescriptionRepo{
		GetByPickupCodeFunc: func(_ context.Context, _ string) (*prescription.Prescription, error) {
			return rx, nil
		},
	}
	svc, audit := newRxService(repo, &mockPatientRepo{})

	_, err := svc.Dispense(context.Background(), "ABC123DEF4")
	require.ErrorIs(t, err, prescription.ErrAlreadyDispensed)

	// First pickup timestamp is preserved and nothing is re-audited.
	assert.Equal(t, 0, repo.MarkDispensedCalls)
	assert.Equal(t, pickedUp, *rx.PickedUpAt)
	assert.False(t, audit.has(domain.EventRxDispensed))
}

func TestPrescriptionService_Dispense_Expired(t *testing.T) {
	rx := activePrescription("ABC123DEF4")
	expired := fixedNow().Add(-time.Minute)
	rx.ExpiresAt = &expired

	repo := &mockPrescriptionRepo{
		GetByPickupCodeFunc: func(_ context.Context, _ string) (*prescription.Prescription, error) {
			return rx, nil
		},
	}
	svc, audit := newRxService(repo, &mockPatientRepo{})

	_, err := svc.Dispense(context.Background(), "ABC123DEF4")
	require.ErrorIs(t, err, prescription.ErrPrescriptionExpired)

	assert.Equal(t, 0, repo.MarkDispensedCalls)
	assert.Equal(t, prescription.StatusActive, rx.Status)
	assert.Empty(t, audit.entries)
}

func TestPrescriptionService_Dispense_UnknownCode(t *testing.T) {
	svc, audit := newRxService(&mockPrescriptionRepo{}, &mockPatientRepo{})

	_, err := svc.Dispense(context.Background(), "ZZZZZZZZZZ")
	require.ErrorIs(t, err, prescription.ErrPrescriptionNotFound)
	assert.False(t, audit.has(domain.EventRxDispensed))
}
