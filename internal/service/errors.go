package service

import (
	"errors"
	"strings"
)

// ErrQRGenerationFailed marks a failure of the external QR rendering
// endpoint (non-2xx response, transport error, or timeout). Issuance
// persists nothing when this is returned.
var ErrQRGenerationFailed = errors.New("QR generation failed")

var ErrUnknownNotifier = errors.New("unknown notifier type")

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}
