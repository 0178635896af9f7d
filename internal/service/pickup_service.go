package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthpass/healthpass/internal/domain"
	"github.com/healthpass/healthpass/internal/domain/prescription"
)

// QRFetcher retrieves a rendered QR image for the given payload from an
// external endpoint.
type QRFetcher interface {
	Fetch(ctx context.Context, data string) ([]byte, error)
}

// PickupService guarantees that at most one pickup code and one QR artifact
// ever exist per prescription. Issuance is idempotent: once both are
// attached, subsequent calls return them without touching the endpoint.
type PickupService struct {
	repo      prescription.Repository
	fetcher   QRFetcher
	outputDir string
	auditSvc  *AuditService
	log       *zap.Logger
}

func NewPickupService(
	repo prescription.Repository,
	fetcher QRFetcher,
	outputDir string,
	auditSvc *AuditService,
	log *zap.Logger,
) *PickupService {
	return &PickupService{
		repo:      repo,
		fetcher:   fetcher,
		outputDir: outputDir,
		auditSvc:  auditSvc,
		log:       log,
	}
}

// EnsurePickupArtifact returns the prescription's pickup code and QR image
// path, generating both on first call. On any fetch failure nothing is
// persisted and the prescription keeps both fields unset.
//
// The read and the final update are not covered by a claim: two concurrent
// callers can both observe "not yet issued" and race on the update. The
// unique constraint on pickup_code is the only guard; the loser surfaces a
// persistence error and may leave an orphaned image file behind.
func (s *PickupService) EnsurePickupArtifact(ctx context.Context, prescriptionID uuid.UUID) (string, string, error) {
	p, err := s.repo.GetByID(ctx, prescriptionID)
	if err != nil {
		return "", "", err
	}

	if p.HasPickupArtifact() {
		return *p.PickupCode, *p.PickupQRPath, nil
	}

	code := generatePickupCode()

	img, err := s.fetcher.Fetch(ctx, code)
	if err != nil {
		s.log.Error("QR endpoint fetch failed",
			zap.String("prescription_id", prescriptionID.String()),
			zap.Error(err),
		)
		return "", "", fmt.Errorf("%w: %v", ErrQRGenerationFailed, err)
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating QR output directory: %w", err)
	}

	path := filepath.Join(s.outputDir, fmt.Sprintf("prescription_%s_%s.png", prescriptionID, code))
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return "", "", fmt.Errorf("writing QR image: %w", err)
	}

	if err := s.repo.SetPickupArtifact(ctx, prescriptionID, code, path); err != nil {
		return "", "", fmt.Errorf("attaching pickup artifact: %w", err)
	}

	s.auditSvc.Record(ctx, domain.EventQRGenerated,
		fmt.Sprintf("prescription_id=%s;pickup_code=%s;path=%s", prescriptionID, code, path))

	s.log.Info("pickup artifact issued",
		zap.String("prescription_id", prescriptionID.String()),
		zap.String("pickup_code", code),
		zap.String("path", path),
	)

	return code, path, nil
}

// generatePickupCode derives a 10-character uppercase alphanumeric token
// from a random 128-bit identifier. Collisions are left to the unique
// constraint on pickup_code.
func generatePickupCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:10])
}
