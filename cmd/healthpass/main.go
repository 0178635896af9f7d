package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/healthpass/healthpass/internal/cli"
	"github.com/healthpass/healthpass/internal/config"
	v1 "github.com/healthpass/healthpass/internal/handler/v1"
	"github.com/healthpass/healthpass/internal/repository"
	"github.com/healthpass/healthpass/internal/service"
	"github.com/healthpass/healthpass/pkg/database"
	"github.com/healthpass/healthpass/pkg/logger"
	"github.com/healthpass/healthpass/pkg/metrics"
	"github.com/healthpass/healthpass/pkg/qrclient"
	"github.com/healthpass/healthpass/pkg/tracer"
)

func main() {
	root := &cobra.Command{
		Use:           "healthpass",
		Short:         "Prescription pickup workflow for doctors and pharmacists",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd(), consoleCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB

	patientSvc *service.PatientService
	rxSvc      *service.PrescriptionService
	pickupSvc  *service.PickupService
	reportSvc  *service.ReportService
	notifier   service.Notifier
}

func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, log); err != nil {
		return nil, err
	}

	patientRepo := repository.NewPatientRepository(db)
	rxRepo := repository.NewPrescriptionRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditSvc := service.NewAuditService(auditRepo, log)
	patientSvc := service.NewPatientService(patientRepo, auditSvc, log)
	rxSvc := service.NewPrescriptionService(rxRepo, patientRepo, auditSvc, log)

	fetcher := qrclient.New(cfg.QR.BaseURL, cfg.QR.ImageSize, cfg.QR.FetchTimeout)
	pickupSvc := service.NewPickupService(rxRepo, fetcher, cfg.QR.OutputDir, auditSvc, log)

	reportSvc := service.NewReportService(rxRepo, auditSvc, log)

	notifier, err := service.NewNotifier(cfg.Notify.Kind, patientRepo, rxRepo, pickupSvc, auditSvc, log)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		log:        log,
		db:         db,
		patientSvc: patientSvc,
		rxSvc:      rxSvc,
		pickupSvc:  pickupSvc,
		reportSvc:  reportSvc,
		notifier:   notifier,
	}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.log.Sync() //nolint:errcheck

			tp, err := tracer.Init(a.cfg.Tracing)
			if err != nil {
				return err
			}
			defer func() {
				_ = tp.Shutdown(context.Background())
			}()

			collector := metrics.NewCollector("healthpass")

			router := v1.NewRouter(a.cfg, v1.RouterDeps{
				Patients:      v1.NewPatientHandler(a.patientSvc, collector, a.log),
				Prescriptions: v1.NewPrescriptionHandler(a.rxSvc, a.patientSvc, a.pickupSvc, a.notifier, collector, a.log),
				Reports:       v1.NewReportHandler(a.reportSvc, a.cfg.Report.ExportPath, a.log),
				Collector:     collector,
				Log:           a.log,
			})

			srv := &http.Server{
				Addr:         a.cfg.Server.Address(),
				Handler:      router,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
				IdleTimeout:  a.cfg.Server.IdleTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				a.log.Info("shutting down", zap.String("signal", sig.String()))
			}

			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
}

func consoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Run the interactive doctor/pharmacist console",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.log.Sync() //nolint:errcheck

			console := cli.NewConsole(
				a.patientSvc, a.rxSvc, a.pickupSvc, a.reportSvc, a.notifier,
				a.cfg.Report.ExportPath, a.log, os.Stdin, os.Stdout,
			)
			console.Run(cmd.Context())
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			db, err := database.Connect(cfg.Database)
			if err != nil {
				return err
			}
			return database.Migrate(db, log)
		},
	}
}
