package v1

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/healthpass/healthpass/internal/service"
)

type ReportHandler struct {
	svc        *service.ReportService
	exportPath string
	log        *zap.Logger
}

func NewReportHandler(svc *service.ReportService, exportPath string, log *zap.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, exportPath: exportPath, log: log}
}

func (h *ReportHandler) ListDispensed(c *gin.Context) {
	rows, err := h.svc.ListDispensed(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]prescriptionResponse, 0, len(rows))
	for _, p := range rows {
		out = append(out, toPrescriptionResponse(p))
	}
	respondOK(c, out)
}

type exportRequest struct {
	// Path overrides the configured export location when set.
	Path string `json:"path"`
}

func (h *ReportHandler) ExportDispensed(c *gin.Context) {
	// The body is optional; an empty POST exports to the configured path.
	var req exportRequest
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, &req) {
			return
		}
	}
	path := req.Path
	if path == "" {
		path = h.exportPath
	}

	rows, err := h.svc.ListDispensed(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := h.svc.ExportCSV(c.Request.Context(), path, rows); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"path": path, "count": len(rows)})
}
