package errors

import (
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound             = fmt.Errorf("not found")
	ErrDuplicate            = fmt.Errorf("duplicate")
	ErrInvalidInput         = fmt.Errorf("invalid input")
	ErrForbidden            = fmt.Errorf("forbidden")
	ErrUnauthorized         = fmt.Errorf("unauthorized")
	ErrInvalidTransition    = fmt.Errorf("invalid status transition")
	ErrUnsupportedKind      = fmt.Errorf("unsupported object kind")
	ErrDuplicateReview      = fmt.Errorf("review for this deal already exists")
	ErrOfferAlreadyApproved = fmt.Errorf("another offer is already approved")
	ErrNoApprovedOffer      = fmt.Errorf("transport application has no approved offer")
	ErrDealClosed           = fmt.Errorf("deal is closed")
)

// ValidationError carries field-keyed messages for client-correctable input.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// Required marks every listed field as missing.
func Required(fields ...string) *ValidationError {
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f] = "required field"
	}
	return &ValidationError{Fields: m}
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

func (v *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
