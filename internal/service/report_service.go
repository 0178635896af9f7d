package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/healthpass/healthpass/internal/domain"
	"github.com/healthpass/healthpass/internal/domain/prescription"
)

var csvHeader = []string{
	"id", "patient_id", "drug_name", "dosage", "status",
	"pickup_code", "picked_up_at", "created_at", "expires_at",
}

type ReportService struct {
	repo     prescription.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewReportService(repo prescription.Repository, auditSvc *AuditService, log *zap.Logger) *ReportService {
	return &ReportService{repo: repo, auditSvc: auditSvc, log: log}
}

// ListDispensed returns dispensed prescriptions, most recently picked up
// first. Each invocation audits the generated report with its row count.
func (s *ReportService) ListDispensed(ctx context.Context) ([]*prescription.Prescription, error) {
	rows, err := s.repo.ListDispensed(ctx)
	if err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, domain.EventReportGenerated,
		fmt.Sprintf("count=%d", len(rows)))

	return rows, nil
}

// ExportCSV overwrites the file at path with one row per prescription.
// Optional timestamps are rendered as RFC 3339 or left empty.
func (s *ReportService) ExportCSV(ctx context.Context, path string, rows []*prescription.Prescription) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}

	for _, p := range rows {
		record := []string{
			p.ID.String(),
			p.PatientID.String(),
			p.DrugName,
			p.Dosage,
			string(p.Status),
			stringOrEmpty(p.PickupCode),
			timeOrEmpty(p.PickedUpAt),
			p.CreatedAt.Format(time.RFC3339),
			timeOrEmpty(p.ExpiresAt),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing report row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing report: %w", err)
	}

	s.auditSvc.Record(ctx, domain.EventReportExported,
		fmt.Sprintf("path=%s;count=%d", path, len(rows)))

	s.log.Info("dispensed report exported",
		zap.String("path", path),
		zap.Int("count", len(rows)),
	)

	return nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
