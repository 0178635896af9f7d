package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/healthpass/healthpass/internal/domain"
	"github.com/healthpass/healthpass/internal/domain/patient"
	"github.com/healthpass/healthpass/internal/domain/prescription"
)

// Exercises the full doctor-to-pharmacist flow against the in-memory repos:
// register, prescribe, issue the pickup artifact, dispense, then verify the
// second dispense and the report.
func TestPrescriptionWorkflow(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	patients := newMemPatientRepo()
	prescriptions := newMemPrescriptionRepo()
	auditSvc, audit := newTestAudit()

	patientSvc := NewPatientService(patients, auditSvc, log)
	rxSvc := NewPrescriptionService(prescriptions, patients, auditSvc, log)
	fetcher := &fakeFetcher{payload: []byte("png-bytes")}
	pickupSvc := NewPickupService(prescriptions, fetcher, t.TempDir(), auditSvc, log)
	reportSvc := NewReportService(prescriptions, auditSvc, log)

	pat, err := patientSvc.Register(ctx, &patient.RegisterPatientCommand{
		HealthCardNo: "HCN123",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		DateOfBirth:  time.Date(1990, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = patientSvc.Register(ctx, &patient.RegisterPatientCommand{
		HealthCardNo: "HCN123",
		FirstName:    "Someone",
		LastName:     "Else",
		DateOfBirth:  time.Date(1980, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, patient.ErrPatientAlreadyExists)

	rx, err := rxSvc.Create(ctx, &prescription.CreatePrescriptionCommand{
		HealthCardNo: "HCN123",
		DrugName:     "Ibuprofen",
		Dosage:       "200mg",
		DaysValid:    7,
	})
	require.NoError(t, err)
	assert.Equal(t, pat.ID, rx.PatientID)

	code, _, err := pickupSvc.EnsurePickupArtifact(ctx, rx.ID)
	require.NoError(t, err)
	require.NotEmpty(t, code)

	dispensed, err := rxSvc.Dispense(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, prescription.StatusDispensed, dispensed.Status)
	require.NotNil(t, dispensed.PickedUpAt)

	_, err = rxSvc.Dispense(ctx, code)
	require.ErrorIs(t, err, prescription.ErrAlreadyDispensed)

	listed, err := rxSvc.ListForPatient(ctx, pat.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, prescription.StatusDispensed, listed[0].Status)

	report, err := reportSvc.ListDispensed(ctx)
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, rx.ID, report[0].ID)

	for _, event := range []domain.AuditEvent{
		domain.EventPatientCreated,
		domain.EventRxCreated,
		domain.EventQRGenerated,
		domain.EventRxDispensed,
		domain.EventReportGenerated,
	} {
		assert.True(t, audit.has(event), "missing audit event %s", event)
	}
}
