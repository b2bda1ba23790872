package csvexport

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"invoicegen/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// ReportName is the archive entry name of the batch error report.
const ReportName = "errors.csv"

// columns defines the error report header row.
var columns = []string{"row", "invoice_no", "kind", "field", "detail"}

// Writer wraps csv.Writer for exporting batch row errors.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteRowErrors writes one line per failing field, or one line for
// errors without field detail.
func (w *Writer) WriteRowErrors(errs []domain.RowError) error {
	for i := range errs {
		for _, row := range rowErrorToRows(&errs[i]) {
			if err := w.csv.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func rowErrorToRows(e *domain.RowError) [][]string {
	row := strconv.Itoa(e.Row)
	if len(e.Fields) == 0 {
		return [][]string{{row, e.InvoiceNo, string(e.Kind), "", e.Detail}}
	}
	out := make([][]string, len(e.Fields))
	for i, f := range e.Fields {
		detail := f.Reason
		if f.Value != "" {
			detail += " (got " + strconv.Quote(f.Value) + ")"
		}
		out[i] = []string{row, e.InvoiceNo, string(e.Kind), f.Field, detail}
	}
	return out
}

// Report renders errs as a complete CSV document with a BOM.
func Report(errs []domain.RowError) ([]byte, error) {
	var b strings.Builder
	b.Write(BOM)
	w := NewWriter(&b)
	if err := w.WriteHeader(); err != nil {
		return nil, err
	}
	if err := w.WriteRowErrors(errs); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}
