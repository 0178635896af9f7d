package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthpass/healthpass/internal/domain/prescription"
	"github.com/healthpass/healthpass/internal/service"
	"github.com/healthpass/healthpass/pkg/metrics"
)

type PrescriptionHandler struct {
	svc        *service.PrescriptionService
	patientSvc *service.PatientService
	pickupSvc  *service.PickupService
	notifier   service.Notifier
	collector  *metrics.Collector
	log        *zap.Logger
}

func NewPrescriptionHandler(
	svc *service.PrescriptionService,
	patientSvc *service.PatientService,
	pickupSvc *service.PickupService,
	notifier service.Notifier,
	collector *metrics.Collector,
	log *zap.Logger,
) *PrescriptionHandler {
	return &PrescriptionHandler{
		svc:        svc,
		patientSvc: patientSvc,
		pickupSvc:  pickupSvc,
		notifier:   notifier,
		collector:  collector,
		log:        log,
	}
}

type createPrescriptionRequest struct {
	HealthCardNo string `json:"health_card_no" binding:"required"`
	DrugName     string `json:"drug_name" binding:"required"`
	Dosage       string `json:"dosage" binding:"required"`
	Instructions string `json:"instructions"`
	DaysValid    int    `json:"days_valid"`
}

type prescriptionResponse struct {
	ID           string `json:"id"`
	PatientID    string `json:"patient_id"`
	DrugName     string `json:"drug_name"`
	Dosage       string `json:"dosage"`
	Instructions string `json:"instructions,omitempty"`
	Status       string `json:"status"`
	PickupCode   string `json:"pickup_code,omitempty"`
	PickupQRPath string `json:"pickup_qr_path,omitempty"`
	ExpiresAt    string `json:"expires_at,omitempty"`
	CreatedAt    string `json:"created_at"`
	PickedUpAt   string `json:"picked_up_at,omitempty"`
}

func toPrescriptionResponse(p *prescription.Prescription) prescriptionResponse {
	r := prescriptionResponse{
		ID:           p.ID.String(),
		PatientID:    p.PatientID.String(),
		DrugName:     p.DrugName,
		Dosage:       p.Dosage,
		Instructions: p.Instructions,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
	if p.PickupCode != nil {
		r.PickupCode = *p.PickupCode
	}
	if p.PickupQRPath != nil {
		r.PickupQRPath = *p.PickupQRPath
	}
	if p.ExpiresAt != nil {
		r.ExpiresAt = p.ExpiresAt.Format(time.RFC3339)
	}
	if p.PickedUpAt != nil {
		r.PickedUpAt = p.PickedUpAt.Format(time.RFC3339)
	}
	return r
}

func (h *PrescriptionHandler) Create(c *gin.Context) {
	var req createPrescriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.DaysValid <= 0 {
		req.DaysValid = service.DefaultDaysValid
	}

	p, err := h.svc.Create(c.Request.Context(), &prescription.CreatePrescriptionCommand{
		HealthCardNo: req.HealthCardNo,
		DrugName:     req.DrugName,
		Dosage:       req.Dosage,
		Instructions: req.Instructions,
		DaysValid:    req.DaysValid,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.PrescriptionsCreatedTotal.Inc()
	respondCreated(c, toPrescriptionResponse(p))
}

func (h *PrescriptionHandler) ListForPatient(c *gin.Context) {
	hcn := c.Param("hcn")

	pat, err := h.patientSvc.GetByHealthCard(c.Request.Context(), hcn)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	rows, err := h.svc.ListForPatient(c.Request.Context(), pat.ID)
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

type pickupArtifactResponse struct {
	PrescriptionID string `json:"prescription_id"`
	PickupCode     string `json:"pickup_code"`
	QRPath         string `json:"qr_path"`
}

// EnsurePickupArtifact is idempotent: re-posting returns the already-issued
// pair without a new artifact being generated.
func (h *PrescriptionHandler) EnsurePickupArtifact(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	code, path, err := h.pickupSvc.EnsurePickupArtifact(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.PickupCodesIssuedTotal.Inc()
	respondOK(c, pickupArtifactResponse{
		PrescriptionID: id.String(),
		PickupCode:     code,
		QRPath:         path,
	})
}

type dispenseRequest struct {
	PickupCode string `json:"pickup_code" binding:"required"`
}

func (h *PrescriptionHandler) Dispense(c *gin.Context) {
	var req dispenseRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.Dispense(c.Request.Context(), req.PickupCode)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.PrescriptionsDispensedTotal.Inc()
	respondOK(c, toPrescriptionResponse(p))
}

type notifyRequest struct {
	PrescriptionID string `json:"prescription_id" binding:"required"`
	Recipient      string `json:"recipient"`
}

func (h *PrescriptionHandler) Notify(c *gin.Context) {
	var req notifyRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := uuid.Parse(req.PrescriptionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "prescription_id must be a valid UUID"})
		return
	}

	if err := h.notifier.NotifyPrescriptionReady(c.Request.Context(), id, req.Recipient); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"channel": h.notifier.Channel()})
}
