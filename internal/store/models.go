package store

import "time"

type User struct {
	ID            string
	DisplayName   string
	Email         string
	PasswordHash  string
	Role          string
	DeactivatedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Project struct {
	ID                    string
	Name                  string
	Description           string
	UseCaseID             string
	IndustryID            string
	SegmentID             string
	DeploymentEnvironment string
	SelectedLLMs          []string
	SelectedPacks         []PackRef
	Context               map[string]any
	CreatedBy             string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// PackRef names one selected policy pack, pinned to a version.
type PackRef struct {
	Domain  string `json:"domain"`
	PackID  string `json:"pack_id"`
	Version string `json:"version"`
}

// Checklist is the generated control set attached to a project. The
// fingerprint fields record the catalog inputs the items were derived
// from so regeneration can be detected without diffing items.
type Checklist struct {
	ProjectID        string
	GeneratorVersion string
	TaxonomyHash     string
	PacksHash        string
	ChecklistHash    string
	Counts           map[string]int
	GeneratedAt      time.Time
}

type ChecklistItem struct {
	ID          string
	ProjectID   string
	MergeKey    string
	Domain      string
	PackID      string
	PackVersion string
	Title       string
	Description string
	Severity    string
	Refs        []string
	Status      string
	Owner       string
	Notes       string
	Evidence    []EvidenceFile
	SortOrder   int
}

// EvidenceFile is the stored metadata for one uploaded artifact.
type EvidenceFile struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	SHA256      string    `json:"sha256"`
	StorageKey  string    `json:"storage_key"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// AuditEntry rows are append-only; the database rejects UPDATE and
// DELETE on the audit_log table.
type AuditEntry struct {
	ID        int64
	ProjectID string
	Action    string
	Actor     string
	Payload   map[string]any
	CreatedAt time.Time
}

type RefreshSession struct {
	JTI       string
	UserID    string
	ExpiresAt time.Time
}
