package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthpass/healthpass/internal/domain"
	"github.com/healthpass/healthpass/internal/domain/patient"
	"github.com/healthpass/healthpass/internal/domain/prescription"
)

// --- mockPatientRepo ---

var _ patient.Repository = (*mockPatientRepo)(nil)

type mockPatientRepo struct {
	CreateFunc          func(ctx context.Context, p *patient.Patient) error
	GetByIDFunc         func(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	GetByHealthCardFunc func(ctx context.Context, hcn string) (*patient.Patient, error)
	UpdateContactFunc   func(ctx context.Context, id uuid.UUID, phone, email *string) error

	CreateCalls        int
	UpdateContactCalls int
}

func (m *mockPatientRepo) Create(ctx context.Context, p *patient.Patient) error {
	m.CreateCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	return nil
}

func (m *mockPatientRepo) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, patient.ErrPatientNotFound
}

func (m *mockPatientRepo) GetByHealthCard(ctx context.Context, hcn string) (*patient.Patient, error) {
	if m.GetByHealthCardFunc != nil {
		return m.GetByHealthCardFunc(ctx, hcn)
	}
	return nil, patient.ErrPatientNotFound
}

func (m *mockPatientRepo) UpdateContact(ctx context.Context, id uuid.UUID, phone, email *string) error {
	m.UpdateContactCalls++
	if m.UpdateContactFunc != nil {
		return m.UpdateContactFunc(ctx, id, phone, email)
	}
	return nil
}

// --- mockPrescriptionRepo ---

var _ prescription.Repository = (*mockPrescriptionRepo)(nil)

type mockPrescriptionRepo struct {
	CreateFunc            func(ctx context.Context, p *prescription.Prescription) error
	GetByIDFunc           func(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error)
	GetByPickupCodeFunc   func(ctx context.Context, code string) (*prescription.Prescription, error)
	SetPickupArtifactFunc func(ctx context.Context, id uuid.UUID, code, qrPath string) error
	MarkDispensedFunc     func(ctx context.Context, id uuid.UUID, at time.Time) error
	ListForPatientFunc    func(ctx context.Context, patientID uuid.UUID) ([]*prescription.Prescription, error)
	ListDispensedFunc     func(ctx context.Context) ([]*prescription.Prescription, error)

	CreateCalls            int
	SetPickupArtifactCalls int
	MarkDispensedCalls     int
}

func (m *mockPrescriptionRepo) Create(ctx context.Context, p *prescription.Prescription) error {
	m.CreateCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	return nil
}

func (m *mockPrescriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, prescription.ErrPrescriptionNotFound
}

func (m *mockPrescriptionRepo) GetByPickupCode(ctx context.Context, code string) (*prescription.Prescription, error) {
	if m.GetByPickupCodeFunc != nil {
		return m.GetByPickupCodeFunc(ctx, code)
	}
	return nil, prescription.ErrPrescriptionNotFound
}

func (m *mockPrescriptionRepo) SetPickupArtifact(ctx context.Context, id uuid.UUID, code, qrPath string) error {
	m.SetPickupArtifactCalls++
	if m.SetPickupArtifactFunc != nil {
		return m.SetPickupArtifactFunc(ctx, id, code, qrPath)
	}
	return nil
}

func (m *mockPrescriptionRepo) MarkDispensed(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.MarkDispensedCalls++
	if m.MarkDispensedFunc != nil {
		return m.MarkDispensedFunc(ctx, id, at)
	}
	return nil
}

func (m *mockPrescriptionRepo) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*prescription.Prescription, error) {
	if m.ListForPatientFunc != nil {
		return m.ListForPatientFunc(ctx, patientID)
	}
	return nil, nil
}

func (m *mockPrescriptionRepo) ListDispensed(ctx context.Context) ([]*prescription.Prescription, error) {
	if m.ListDispensedFunc != nil {
		return m.ListDispensedFunc(ctx)
	}
	return nil, nil
}

// --- audit capture ---

type mockAuditRepo struct {
	entries []*domain.AuditLog
}

func (m *mockAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) has(event domain.AuditEvent) bool {
	for _, e := range m.entries {
		if e.EventType == event {
			return true
		}
	}
	return false
}

func (m *mockAuditRepo) last() *domain.AuditLog {
	if len(m.entries) == 0 {
		return nil
	}
	return m.entries[len(m.entries)-1]
}

func newTestAudit() (*AuditService, *mockAuditRepo) {
	repo := &mockAuditRepo{}
	return NewAuditService(repo, zap.NewNop()), repo
}

// --- in-memory stateful repos for end-to-end workflow tests ---

var _ patient.Repository = (*memPatientRepo)(nil)

type memPatientRepo struct {
	byID map[uuid.UUID]*patient.Patient
}

func newMemPatientRepo() *memPatientRepo {
	return &memPatientRepo{byID: make(map[uuid.UUID]*patient.Patient)}
}

func (m *memPatientRepo) Create(_ context.Context, p *patient.Patient) error {
	for _, existing := range m.byID {
		if existing.HealthCardNo == p.HealthCardNo {
			return patient.ErrPatientAlreadyExists
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPatientRepo) GetByHealthCard(_ context.Context, hcn string) (*patient.Patient, error) {
	for _, p := range m.byID {
		if p.HealthCardNo == hcn {
			cp := *p
			return &cp, nil
		}
	}
	return nil, patient.ErrPatientNotFound
}

func (m *memPatientRepo) UpdateContact(_ context.Context, id uuid.UUID, phone, email *string) error {
	p, ok := m.byID[id]
	if !ok {
		return patient.ErrPatientNotFound
	}
	if phone != nil {
		p.Phone = *phone
	}
	if email != nil {
		p.Email = *email
	}
	return nil
}

var _ prescription.Repository = (*memPrescriptionRepo)(nil)

type memPrescriptionRepo struct {
	byID map[uuid.UUID]*prescription.Prescription
}

func newMemPrescriptionRepo() *memPrescriptionRepo {
	return &memPrescriptionRepo{byID: make(map[uuid.UUID]*prescription.Prescription)}
}

func (m *memPrescriptionRepo) Create(_ context.Context, p *prescription.Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPrescriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, prescription.ErrPrescriptionNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPrescriptionRepo) GetByPickupCode(_ context.Context, code string) (*prescription.Prescription, error) {
	for _, p := range m.byID {
		if p.PickupCode != nil && *p.PickupCode == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, prescription.ErrPrescriptionNotFound
}

func (m *memPrescriptionRepo) SetPickupArtifact(_ context.Context, id uuid.UUID, code, qrPath string) error {
	p, ok := m.byID[id]
	if !ok {
		return prescription.ErrPrescriptionNotFound
	}
	for otherID, other := range m.byID {
		if otherID != id && other.PickupCode != nil && *other.PickupCode == code {
			return errors.New("duplicate pickup code")
		}
	}
	p.PickupCode = &code
	p.PickupQRPath = &qrPath
	return nil
}

func (m *memPrescriptionRepo) MarkDispensed(_ context.Context, id uuid.UUID, at time.Time) error {
	p, ok := m.byID[id]
	if !ok {
		return prescription.ErrPrescriptionNotFound
	}
	p.Status = prescription.StatusDispensed
	p.PickedUpAt = &at
	return nil
}

func (m *memPrescriptionRepo) ListForPatient(_ context.Context, patientID uuid.UUID) ([]*prescription.Prescription, error) {
	var out []*prescription.Prescription
	for _, p := range m.byID {
		if p.PatientID == patientID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memPrescriptionRepo) ListDispensed(_ context.Context) ([]*prescription.Prescription, error) {
	var out []*prescription.Prescription
	for _, p := range m.byID {
		if p.Status == prescription.StatusDispensed {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].PickedUpAt, out[j].PickedUpAt
		switch {
		case pi != nil && pj != nil && !pi.Equal(*pj):
			return pi.After(*pj)
		case pi != nil && pj == nil:
			return true
		case pi == nil && pj != nil:
			return false
		default:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
	})
	return out, nil
}

// --- QR fetcher stub ---

type fakeFetcher struct {
	payload  []byte
	err      error
	calls    int
	lastData string
}

func (f *fakeFetcher) Fetch(_ context.Context, data string) ([]byte, error) {
	f.calls++
	f.lastData = data
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}
