package domain

// RowErrorKind classifies why a batch row produced no document.
type RowErrorKind string

const (
	RowErrorValidation RowErrorKind = "validation"
	RowErrorDuplicate  RowErrorKind = "duplicate"
	RowErrorRender     RowErrorKind = "render"
)

// RowError is one entry of a batch error report.
type RowError struct {
	Row       int          `json:"row"`
	InvoiceNo string       `json:"invoice_no,omitempty"`
	Kind      RowErrorKind `json:"kind"`
	Detail    string       `json:"detail"`
	Fields    []FieldError `json:"fields,omitempty"`
}

// ArchiveEntry describes a document that made it into a batch archive.
type ArchiveEntry struct {
	Row       int    `json:"row"`
	InvoiceNo string `json:"invoice_no"`
	Name      string `json:"name"`
	Size      int    `json:"size"`
}

// BatchSummary is the caller-facing report of one batch run.
type BatchSummary struct {
	BatchID   string         `json:"batch_id"`
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Entries   []ArchiveEntry `json:"entries"`
	Errors    []RowError     `json:"errors"`
}

// ValidationReport is the outcome of a dry run over batch rows.
type ValidationReport struct {
	Total   int        `json:"total"`
	Valid   int        `json:"valid"`
	Invalid int        `json:"invalid"`
	Errors  []RowError `json:"errors"`
}
