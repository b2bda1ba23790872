package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation          = errors.New("invoice validation failed")
	ErrMissingFont         = errors.New("required font is unavailable")
	ErrLayoutOverflow      = errors.New("content cannot be placed on a page")
	ErrInvalidAsset        = errors.New("asset could not be decoded")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrMissingHeader       = errors.New("input is missing its header row")
	ErrInvalidHeader       = errors.New("input header does not match the expected columns")
	ErrEmptyInput          = errors.New("input contains no data rows")
	ErrNoDocuments         = errors.New("no invoice in the batch could be generated")
	ErrPublishFailed       = errors.New("archive upload to storage failed")
	ErrPublishDisabled     = errors.New("archive publishing is not enabled")
)

// FieldError describes one failing input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
	Value  string `json:"value,omitempty"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// FieldErrors collects every validation failure of one record.
type FieldErrors struct {
	Fields []FieldError `json:"fields"`
}

// Add appends a failure for field.
func (e *FieldErrors) Add(field, reason, value string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason, Value: value})
}

// Len returns the number of collected failures.
func (e *FieldErrors) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Fields)
}

// Err returns e as an error, or nil when nothing was collected.
func (e *FieldErrors) Err() error {
	if e.Len() == 0 {
		return nil
	}
	return e
}

func (e *FieldErrors) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, "; ")
}

func (e *FieldErrors) Unwrap() error { return ErrValidation }

// RenderErrorKind classifies a failure while laying out or rendering a document.
type RenderErrorKind string

const (
	RenderMissingFont    RenderErrorKind = "missing_font"
	RenderLayoutOverflow RenderErrorKind = "layout_overflow"
	RenderInvalidAsset   RenderErrorKind = "invalid_asset"
)

// RenderError is fatal for one document but never for a batch.
type RenderError struct {
	Kind   RenderErrorKind
	Detail string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *RenderError) Unwrap() error {
	switch e.Kind {
	case RenderMissingFont:
		return ErrMissingFont
	case RenderLayoutOverflow:
		return ErrLayoutOverflow
	case RenderInvalidAsset:
		return ErrInvalidAsset
	default:
		return nil
	}
}

// NewRenderError builds a RenderError with a formatted detail.
func NewRenderError(kind RenderErrorKind, format string, args ...any) *RenderError {
	return &RenderError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
