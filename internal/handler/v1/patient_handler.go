package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/healthpass/healthpass/internal/domain/patient"
	"github.com/healthpass/healthpass/internal/service"
	"github.com/healthpass/healthpass/pkg/metrics"
)

type PatientHandler struct {
	svc       *service.PatientService
	collector *metrics.Collector
	log       *zap.Logger
}

func NewPatientHandler(svc *service.PatientService, collector *metrics.Collector, log *zap.Logger) *PatientHandler {
	return &PatientHandler{svc: svc, collector: collector, log: log}
}

type registerPatientRequest struct {
	HealthCardNo string `json:"health_card_no" binding:"required"`
	FirstName    string `json:"first_name" binding:"required"`
	LastName     string `json:"last_name" binding:"required"`
	DateOfBirth  string `json:"date_of_birth" binding:"required"` // YYYY-MM-DD
	Phone        string `json:"phone"`
	Email        string `json:"email"`
}

type patientResponse struct {
	ID           string `json:"id"`
	HealthCardNo string `json:"health_card_no"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	DateOfBirth  string `json:"date_of_birth"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func toPatientResponse(p *patient.Patient) patientResponse {
	return patientResponse{
		ID:           p.ID.String(),
		HealthCardNo: p.HealthCardNo,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		DateOfBirth:  p.DateOfBirth.Format("2006-01-02"),
		Phone:        p.Phone,
		Email:        p.Email,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
}

func (h *PatientHandler) Register(c *gin.Context) {
	var req registerPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "date_of_birth must be YYYY-MM-DD"})
		return
	}

	p, err := h.svc.Register(c.Request.Context(), &patient.RegisterPatientCommand{
		HealthCardNo: req.HealthCardNo,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DateOfBirth:  dob,
		Phone:        req.Phone,
		Email:        req.Email,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.PatientsRegisteredTotal.Inc()
	respondCreated(c, toPatientResponse(p))
}
