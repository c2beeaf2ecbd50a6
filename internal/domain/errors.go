package domain

import "errors"

var (
	ErrNoMedia          = errors.New("no usable media")
	ErrTemplateNotFound = errors.New("report template not found")
	ErrPaymentRequired  = errors.New("payment required")
	ErrNotFound         = errors.New("not found")
)

// ValidationError carries a field-level message for a rejected payload.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}
