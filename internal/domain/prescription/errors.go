package prescription

import "errors"

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrAlreadyDispensed     = errors.New("prescription already dispensed")
	ErrPrescriptionExpired  = errors.New("prescription has expired and cannot be dispensed")
)
