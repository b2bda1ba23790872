// Package archive packages rendered documents into a zip file.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// epoch is the entry timestamp when none is given; the zip format cannot
// store earlier dates.
var epoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Writer builds a zip archive in memory. Entry timestamps are fixed so
// identical input yields identical bytes.
type Writer struct {
	buf      bytes.Buffer
	zw       *zip.Writer
	modified time.Time
	names    map[string]bool
}

// NewWriter creates a Writer stamping every entry with modified.
func NewWriter(modified time.Time) *Writer {
	if modified.Before(epoch) {
		modified = epoch
	}
	w := &Writer{modified: modified, names: map[string]bool{}}
	w.zw = zip.NewWriter(&w.buf)
	return w
}

// Add stores data under name. Names must be unique.
func (w *Writer) Add(name string, data []byte) error {
	if w.names[name] {
		return fmt.Errorf("archive: duplicate entry %q", name)
	}
	f, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: w.modified,
	})
	if err != nil {
		return fmt.Errorf("archive: creating %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("archive: writing %s: %w", name, err)
	}
	w.names[name] = true
	return nil
}

// Len returns the number of entries added.
func (w *Writer) Len() int { return len(w.names) }

// Has reports whether an entry called name exists.
func (w *Writer) Has(name string) bool { return w.names[name] }

// Close finishes the archive and returns its bytes.
func (w *Writer) Close() ([]byte, error) {
	if err := w.zw.Close(); err != nil {
		return nil, fmt.Errorf("archive: closing: %w", err)
	}
	return w.buf.Bytes(), nil
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename replaces characters other than ASCII letters, digits,
// hyphen and underscore with _, collapses consecutive underscores and
// truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// DocumentName returns the entry name for an invoice: invoice_<no>.pdf.
// Numbers that sanitize to nothing use the row number instead.
func DocumentName(invoiceNo string, row int) string {
	s := SanitizeFilename(invoiceNo)
	if s == "" {
		s = fmt.Sprintf("row%d", row)
	}
	return "invoice_" + s + ".pdf"
}

// UniqueName returns name, or name with a _<row> suffix before the
// extension when taken reports it as used.
func UniqueName(name string, row int, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	base, ext := name, ""
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		base, ext = name[:i], name[i:]
	}
	candidate := fmt.Sprintf("%s_%d%s", base, row, ext)
	for n := 2; taken(candidate); n++ {
		candidate = fmt.Sprintf("%s_%d_%d%s", base, row, n, ext)
	}
	return candidate
}
