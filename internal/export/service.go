package export

import (
	"context"
	"fmt"
)

// Service renders checklist documents into downloadable files.
type Service struct{}

// NewService creates a new export service
func NewService() *Service {
	return &Service{}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, doc ChecklistDocument, format Format) (*Result, error) {
	html, err := RenderChecklistHTML(doc)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch format {
	case FormatPDF:
		return exportPDF(ctx, html, doc.ProjectName)
	case FormatDOCX:
		return exportDOCX(html, doc.ProjectName)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
