// Package export renders checklist reports as PDF or DOCX files.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ChecklistDocument is the assembled report content. The caller builds
// it from the project and checklist records; this package only renders.
type ChecklistDocument struct {
	ProjectID             string
	ProjectName           string
	Description           string
	DeploymentEnvironment string
	GeneratorVersion      string
	ChecklistHash         string
	GeneratedAt           time.Time
	Counts                map[string]int
	Items                 []ChecklistItem
}

// ChecklistItem is one rendered checklist row.
type ChecklistItem struct {
	Title    string
	Domain   string
	PackID   string
	Severity string
	Status   string
	Owner    string
	Notes    string
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates DOCX export runtime dependencies are unavailable.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
)
