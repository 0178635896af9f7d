package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/healthpass/healthpass/internal/config"
	"github.com/healthpass/healthpass/pkg/metrics"
)

type RouterDeps struct {
	Patients      *PatientHandler
	Prescriptions *PrescriptionHandler
	Reports       *ReportHandler
	Collector     *metrics.Collector
	Log           *zap.Logger
}

func NewRouter(cfg *config.Config, deps RouterDeps) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestMetrics(deps.Collector))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.App.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")
	{
		api.POST("/patients", deps.Patients.Register)
		api.GET("/patients/:hcn/prescriptions", deps.Prescriptions.ListForPatient)

		api.POST("/prescriptions", deps.Prescriptions.Create)
		api.POST("/prescriptions/:id/pickup-artifact", deps.Prescriptions.EnsurePickupArtifact)

		api.POST("/dispense", deps.Prescriptions.Dispense)
		api.POST("/notifications", deps.Prescriptions.Notify)

		api.GET("/reports/dispensed", deps.Reports.ListDispensed)
		api.POST("/reports/dispensed/export", deps.Reports.ExportDispensed)
	}

	return r
}

func requestMetrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		collector.InFlightGauge.Inc()

		c.Next()

		collector.InFlightGauge.Dec()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		collector.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		collector.RequestDuration.WithLabelValues(c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
	}
}
