package prescription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	GetByPickupCode(ctx context.Context, code string) (*Prescription, error)

	// SetPickupArtifact attaches the pickup code and QR path in a single
	// update so that no window exists where only one is set.
	SetPickupArtifact(ctx context.Context, id uuid.UUID, code, qrPath string) error

	// MarkDispensed sets status to DISPENSED and picked_up_at in one update.
	MarkDispensed(ctx context.Context, id uuid.UUID, at time.Time) error

	// ListForPatient returns the patient's prescriptions, newest first.
	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error)

	// ListDispensed returns dispensed prescriptions ordered by pickup time
	// descending with nulls last, then creation time descending.
	ListDispensed(ctx context.Context) ([]*Prescription, error)
}
