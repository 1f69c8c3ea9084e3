// Package export serializes network snapshots to downloadable files and
// delivers them to a destination.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HerbHall/netscope/pkg/models"
)

// ErrUnknownFormat is returned for a format other than json, csv, or pdf.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatCSV, FormatPDF}

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatJSON, FormatCSV, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext is the file extension without the dot.
func (f Format) Ext() string { return string(f) }

// MIME is the content type of the encoded file.
func (f Format) MIME() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Label is the upper-case name used in notifications.
func (f Format) Label() string { return strings.ToUpper(string(f)) }

// File is an encoded export ready for delivery.
type File struct {
	Name    string
	MIME    string
	Content []byte
}

// FileName builds the export file name for a snapshot exported at t, e.g.
// network-data-2026-01-15T10-30-00.json. Colons are replaced so the name
// is valid on every filesystem.
func FileName(t time.Time, f Format) string {
	return "network-data-" + t.UTC().Format("2006-01-02T15-04-05") + "." + f.Ext()
}

// Encode serializes snap in format f. exportedAt is recorded in the file
// and used for its name.
func Encode(snap *models.Snapshot, f Format, exportedAt time.Time) (File, error) {
	if snap == nil {
		return File{}, errors.New("no snapshot to export")
	}
	var (
		content []byte
		err     error
	)
	switch f {
	case FormatJSON:
		content, err = EncodeJSON(snap, exportedAt)
	case FormatCSV:
		content, err = EncodeCSV(snap, exportedAt)
	case FormatPDF:
		content, err = EncodePDF(snap, exportedAt)
	default:
		return File{}, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return File{}, fmt.Errorf("encode %s: %w", f, err)
	}
	return File{Name: FileName(exportedAt, f), MIME: f.MIME(), Content: content}, nil
}
