package export

import (
	"strings"
	"testing"
	"time"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello-World"},
		{"My Project v1.2", "My-Project-v12"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "checklist"},
		{"Very Long Title That Exceeds Fifty Characters Limit", "Very-Long-Title-That-Exceeds-Fifty-Characters-Limi"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},       // Spaces encoded as %20, not +
		{"test+sign", "test%2Bsign"},           // + signs are encoded
		{"special<>", "special%3C%3E"},         // Special chars encoded
		{"normal-text.txt", "normal-text.txt"}, // Unreserved chars pass through
		{"", ""},                               // Empty string
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := percentEncodeForDataURL(tt.input)
			if result != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRenderChecklistHTML(t *testing.T) {
	doc := ChecklistDocument{
		ProjectID:             "acme-rag-20250101-120000",
		ProjectName:           "Acme RAG Assistant",
		Description:           "Customer support assistant rollout",
		DeploymentEnvironment: "AWS Native",
		GeneratorVersion:      "gen-2",
		ChecklistHash:         "abc123",
		GeneratedAt:           time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Counts:                map[string]int{"total": 2},
		Items: []ChecklistItem{
			{Title: "Encrypt data at rest", Domain: "security", PackID: "baseline", Severity: "high", Status: "todo"},
			{Title: "Log prompt inputs", Domain: "privacy", PackID: "logging", Severity: "medium", Status: "done", Owner: "dana", Notes: "via CloudTrail"},
		},
	}

	html, err := RenderChecklistHTML(doc)
	if err != nil {
		t.Fatalf("RenderChecklistHTML() error = %v", err)
	}

	for _, want := range []string{
		"Acme RAG Assistant",
		"Customer support assistant rollout",
		"acme-rag-20250101-120000",
		"AWS Native",
		"Encrypt data at rest",
		"security/baseline",
		"via CloudTrail",
		"checklist abc123",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}

	if !strings.Contains(html, `class="severity-high"`) {
		t.Error("severity class should be lower-cased for styling")
	}
	if !strings.Contains(html, `class="status-done"`) {
		t.Error("status class should be lower-cased for styling")
	}
}

func TestRenderChecklistHTMLEscapesUserContent(t *testing.T) {
	doc := ChecklistDocument{
		ProjectName: "Injection <script>alert(1)</script>",
		GeneratedAt: time.Now(),
		Items: []ChecklistItem{
			{Title: "<img src=x onerror=alert(1)>", Severity: "low", Status: "todo"},
		},
	}

	html, err := RenderChecklistHTML(doc)
	if err != nil {
		t.Fatalf("RenderChecklistHTML() error = %v", err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("project name should be HTML-escaped")
	}
	if strings.Contains(html, "<img src=x") {
		t.Error("item title should be HTML-escaped")
	}
}
