package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new patient. Returns ErrPatientAlreadyExists on a
	// duplicate health card number.
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound
	// if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// GetByHealthCard retrieves a patient by plaintext health card number.
	GetByHealthCard(ctx context.Context, healthCardNo string) (*Patient, error)

	// UpdateContact applies a partial update of the contact channels. A nil
	// field is left untouched; passing both as nil is a no-op.
	UpdateContact(ctx context.Context, id uuid.UUID, phone, email *string) error
}
