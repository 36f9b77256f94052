package model

import (
	"errors"
	"strings"
)

// Field names reported in validation failures.
const (
	FieldAmount   = "amount"
	FieldMerchant = "merchant"
	FieldCategory = "category"
	FieldName     = "name"
	FieldDate     = "date"
)

// Validation codes.
const (
	CodeAmountMissing     = "amount_missing"
	CodeAmountInvalid     = "amount_invalid"
	CodeAmountNotPositive = "amount_not_positive"
	CodeMerchantEmpty     = "merchant_empty"
	CodeCategoryMissing   = "category_missing"
	CodeCategoryStale     = "category_stale"
	CodeCategoryUnknown   = "category_unknown"
	CodeNameEmpty         = "name_empty"
)

var (
	// ErrValidation matches any *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrStaleCategory matches a ValidationError whose category no longer resolves.
	ErrStaleCategory = errors.New("selected category no longer exists")
)

// FieldError is a single rejected field.
type FieldError struct {
	Field   string
	Code    string
	Message string
}

// ValidationError collects every field that failed a check.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError with a single field failure.
func NewValidationError(field, code, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Code: code, Message: msg}}}
}

// Add records another field failure.
func (e *ValidationError) Add(field, code, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Code: code, Message: msg})
}

// Empty reports whether no failures were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Has reports whether any failure carries the given code.
func (e *ValidationError) Has(code string) bool {
	if e == nil {
		return false
	}
	for _, f := range e.Fields {
		if f.Code == code {
			return true
		}
	}
	return false
}

// For returns the first failure recorded for field.
func (e *ValidationError) For(field string) (FieldError, bool) {
	if e == nil {
		return FieldError{}, false
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return f, true
		}
	}
	return FieldError{}, false
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

// Is lets errors.Is match ErrValidation, and ErrStaleCategory when a
// stale category was reported.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return true
	case ErrStaleCategory:
		return e.Has(CodeCategoryStale)
	}
	return false
}

// PersistenceOp names the store operation that failed.
type PersistenceOp string

const (
	OpRead  PersistenceOp = "read"
	OpWrite PersistenceOp = "write"
)

// PersistenceError wraps a durable store failure.
type PersistenceError struct {
	Op  PersistenceOp
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return "store " + string(e.Op) + " " + e.Key + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
