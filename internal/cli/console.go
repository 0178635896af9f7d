// Package cli implements the interactive role-based console: doctors
// register patients and create prescriptions, pharmacists dispense and
// notify. Action failures are printed and control returns to the menu; no
// failure terminates the process. Exhausted input terminates every menu.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthpass/healthpass/internal/domain/patient"
	"github.com/healthpass/healthpass/internal/domain/prescription"
	"github.com/healthpass/healthpass/internal/service"
)

type Console struct {
	patientSvc *service.PatientService
	rxSvc      *service.PrescriptionService
	pickupSvc  *service.PickupService
	reportSvc  *service.ReportService
	notifier   service.Notifier
	exportPath string
	log        *zap.Logger

	in  *bufio.Reader
	out io.Writer
}

func NewConsole(
	patientSvc *service.PatientService,
	rxSvc *service.PrescriptionService,
	pickupSvc *service.PickupService,
	reportSvc *service.ReportService,
	notifier service.Notifier,
	exportPath string,
	log *zap.Logger,
	in io.Reader,
	out io.Writer,
) *Console {
	return &Console{
		patientSvc: patientSvc,
		rxSvc:      rxSvc,
		pickupSvc:  pickupSvc,
		reportSvc:  reportSvc,
		notifier:   notifier,
		exportPath: exportPath,
		log:        log,
		in:         bufio.NewReader(in),
		out:        out,
	}
}

func (c *Console) Run(ctx context.Context) {
	for {
		c.printf("\n=== HealthPass Role Selection ===\n1) Doctor\n2) Pharmacist\n0) Exit\n")
		choice, ok := c.readLine("Select role: ")
		if !ok {
			return
		}
		switch choice {
		case "1":
			c.doctorMenu(ctx)
		case "2":
			c.pharmacistMenu(ctx)
		case "0":
			c.printf("Goodbye.\n")
			return
		default:
			c.printf("Invalid choice. Please select a valid option.\n")
		}
	}
}

func (c *Console) doctorMenu(ctx context.Context) {
	for {
		c.printf("\n=== Doctor Menu ===\n1) Add patient\n2) Add prescription\n3) List prescriptions for patient\n4) Generate pickup QR\n0) Back to role selection\n")
		choice, ok := c.readLine("Select option: ")
		if !ok {
			return
		}
		switch choice {
		case "1":
			c.addPatient(ctx)
		case "2":
			c.addPrescription(ctx)
		case "3":
			c.listPrescriptions(ctx)
		case "4":
			c.generateQR(ctx)
		case "0":
			return
		default:
			c.printf("Invalid choice. Please select a valid option.\n")
		}
	}
}

func (c *Console) pharmacistMenu(ctx context.Context) {
	for {
		c.printf("\n=== Pharmacist Menu ===\n1) List prescriptions for patient\n2) Dispense prescription by pickup code\n3) Notify prescription ready\n4) Dispensed report\n0) Back to role selection\n")
		choice, ok := c.readLine("Select option: ")
		if !ok {
			return
		}
		switch choice {
		case "1":
			c.listPrescriptions(ctx)
		case "2":
			c.dispense(ctx)
		case "3":
			c.notify(ctx)
		case "4":
			c.dispensedReport(ctx)
		case "0":
			return
		default:
			c.printf("Invalid choice. Please select a valid option.\n")
		}
	}
}

func (c *Console) addPatient(ctx context.Context) {
	c.printf("\n== Add Patient ==\n")
	hcn, ok := c.readNonEmpty("Health card number: ")
	if !ok {
		return
	}
	firstName, ok := c.readNonEmpty("First name: ")
	if !ok {
		return
	}
	lastName, ok := c.readNonEmpty("Last name: ")
	if !ok {
		return
	}
	dob, ok := c.readDate("Date of birth (YYYY-MM-DD): ")
	if !ok {
		return
	}
	phone, ok := c.readLine("Phone (optional): ")
	if !ok {
		return
	}
	email, ok := c.readLine("Email (optional): ")
	if !ok {
		return
	}

	cmd := &patient.RegisterPatientCommand{
		HealthCardNo: hcn,
		FirstName:    firstName,
		LastName:     lastName,
		DateOfBirth:  dob,
		Phone:        phone,
		Email:        email,
	}

	if _, err := c.patientSvc.Register(ctx, cmd); err != nil {
		c.printf("Error while creating patient: %v\n", err)
		return
	}
	c.printf("Patient created.\n")
}

func (c *Console) addPrescription(ctx context.Context) {
	c.printf("\n== New Prescription ==\n")
	hcn, ok := c.readNonEmpty("Patient health card number: ")
	if !ok {
		return
	}
	drugName, ok := c.readNonEmpty("Drug name: ")
	if !ok {
		return
	}
	dosage, ok := c.readNonEmpty("Dosage: ")
	if !ok {
		return
	}
	instructions, ok := c.readLine("Instructions (optional): ")
	if !ok {
		return
	}
	daysValid, ok := c.readIntDefault("Days valid (default 7): ", service.DefaultDaysValid)
	if !ok {
		return
	}

	cmd := &prescription.CreatePrescriptionCommand{
		HealthCardNo: hcn,
		DrugName:     drugName,
		Dosage:       dosage,
		Instructions: instructions,
		DaysValid:    daysValid,
	}

	if _, err := c.rxSvc.Create(ctx, cmd); err != nil {
		c.printf("Error while creating prescription: %v\n", err)
		return
	}
	c.printf("Prescription created.\n")
}

func (c *Console) listPrescriptions(ctx context.Context) {
	c.printf("\n== List Prescriptions ==\n")
	hcn, ok := c.readNonEmpty("Patient health card number: ")
	if !ok {
		return
	}

	pat, err := c.patientSvc.GetByHealthCard(ctx, hcn)
	if err != nil {
		c.printf("Error: %v\n", err)
		return
	}

	rows, err := c.rxSvc.ListForPatient(ctx, pat.ID)
	if err != nil {
		c.printf("Error while listing prescriptions: %v\n", err)
		return
	}
	if len(rows) == 0 {
		c.printf("No prescriptions found for this patient.\n")
		return
	}

	c.printf("\nPrescriptions for %s:\n", pat.FullName())
	for _, p := range rows {
		code := "-"
		if p.PickupCode != nil {
			code = *p.PickupCode
		}
		c.printf("- ID=%s, drug=%s, dosage=%s, status=%s, pickup_code=%s\n",
			p.ID, p.DrugName, p.Dosage, p.Status, code)
	}
}

func (c *Console) generateQR(ctx context.Context) {
	c.printf("\n== Generate Pickup QR ==\n")
	id, ok := c.readUUID("Prescription ID: ")
	if !ok {
		return
	}

	code, path, err := c.pickupSvc.EnsurePickupArtifact(ctx, id)
	if err != nil {
		c.printf("Error while generating QR: %v\n", err)
		return
	}
	c.printf("Pickup code: %s, Path: %s\n", code, path)
}

func (c *Console) dispense(ctx context.Context) {
	c.printf("\n== Dispense Prescription ==\n")
	code, ok := c.readNonEmpty("Pickup code (from QR or printed text): ")
	if !ok {
		return
	}

	if _, err := c.rxSvc.Dispense(ctx, code); err != nil {
		c.printf("Error while dispensing prescription: %v\n", err)
		return
	}
	c.printf("Prescription dispensed successfully.\n")
}

func (c *Console) notify(ctx context.Context) {
	c.printf("\n== Notify: Prescription Ready ==\n")
	id, ok := c.readUUID("Prescription ID: ")
	if !ok {
		return
	}
	recipient, ok := c.readLine("Recipient email/phone (optional, used for email/SMS): ")
	if !ok {
		return
	}

	if err := c.notifier.NotifyPrescriptionReady(ctx, id, recipient); err != nil {
		c.printf("Error while notifying: %v\n", err)
		return
	}
	c.printf("Notification executed via %s notifier.\n", c.notifier.Channel())
}

func (c *Console) dispensedReport(ctx context.Context) {
	c.printf("\n== Dispensed Report ==\n")

	rows, err := c.reportSvc.ListDispensed(ctx)
	if err != nil {
		c.printf("Error while generating report: %v\n", err)
		return
	}
	if len(rows) == 0 {
		c.printf("No dispensed prescriptions.\n")
		return
	}

	for _, p := range rows {
		pickedUp := "-"
		if p.PickedUpAt != nil {
			pickedUp = p.PickedUpAt.Format(time.RFC3339)
		}
		c.printf("- ID=%s, drug=%s, dosage=%s, picked_up_at=%s\n",
			p.ID, p.DrugName, p.Dosage, pickedUp)
	}

	answer, ok := c.readLine("Export to CSV? (y/N): ")
	if !ok || !strings.EqualFold(answer, "y") {
		return
	}
	if err := c.reportSvc.ExportCSV(ctx, c.exportPath, rows); err != nil {
		c.printf("Error while exporting report: %v\n", err)
		return
	}
	c.printf("Report exported to %s.\n", c.exportPath)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// readLine prompts and reads one line. ok is false once input is exhausted;
// every prompt loop must stop then, otherwise EOF on stdin would spin the
// menu forever.
func (c *Console) readLine(prompt string) (value string, ok bool) {
	c.printf("%s", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

func (c *Console) readNonEmpty(prompt string) (string, bool) {
	for {
		v, ok := c.readLine(prompt)
		if !ok {
			return "", false
		}
		if v != "" {
			return v, true
		}
		c.printf("Value cannot be empty.\n")
	}
}

func (c *Console) readIntDefault(prompt string, fallback int) (int, bool) {
	for {
		s, ok := c.readLine(prompt)
		if !ok {
			return 0, false
		}
		if s == "" {
			return fallback, true
		}
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n, true
		}
		c.printf("Please enter a valid positive integer.\n")
	}
}

func (c *Console) readDate(prompt string) (time.Time, bool) {
	for {
		s, ok := c.readLine(prompt)
		if !ok {
			return time.Time{}, false
		}
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t, true
		}
		c.printf("Use format YYYY-MM-DD (e.g., 1990-01-31).\n")
	}
}

func (c *Console) readUUID(prompt string) (uuid.UUID, bool) {
	s, ok := c.readLine(prompt)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		c.printf("Invalid prescription ID: %v\n", err)
		return uuid.Nil, false
	}
	return id, true
}
