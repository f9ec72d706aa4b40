package store

import (
	"context"
	"database/sql"
	"testing"
	"time"
)

// TestItemAndEvidenceWritesTouchProjectUpdatedAt verifies that the
// projects.updated_at column is rewritten by the item-state and
// evidence transactions, not just by direct project updates.
func TestItemAndEvidenceWritesTouchProjectUpdatedAt(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	databaseURL := getTestDatabaseURL(t)
	db, err := Open(ctx, databaseURL)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	pg := NewPostgresStore(db)
	const projectID = "proj-touch-test"

	defer func() {
		_, _ = db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
	}()

	project := Project{
		ID:                    projectID,
		Name:                  "Touch Test",
		UseCaseID:             "uc_kyc",
		IndustryID:            "ind_fin",
		SegmentID:             "seg_retail",
		DeploymentEnvironment: "AWS Native",
		SelectedLLMs:          []string{"gpt-4o"},
		SelectedPacks:         []PackRef{{Domain: "security", PackID: "baseline", Version: "1.0.0"}},
		Context:               map[string]any{"industry": "ind_fin"},
	}
	checklist := Checklist{
		ProjectID:        projectID,
		GeneratorVersion: "test",
		TaxonomyHash:     "t",
		PacksHash:        "p",
		ChecklistHash:    "c",
		Counts:           map[string]int{"total": 1, "status:todo": 1},
		GeneratedAt:      time.Now().UTC(),
	}
	item := ChecklistItem{
		ID:          "itm_touch01",
		ProjectID:   projectID,
		MergeKey:    "security:baseline:prompt-injection",
		Domain:      "security",
		PackID:      "baseline",
		PackVersion: "1.0.0",
		Title:       "Harden against prompt injection",
		Severity:    "high",
		Status:      "todo",
	}
	if err := pg.InsertProjectAndChecklist(ctx, project, checklist, []ChecklistItem{item}); err != nil {
		t.Fatalf("insert project: %v", err)
	}

	stamp := projectUpdatedAt(ctx, t, db, projectID)

	// NOW() is the transaction start time; a short pause keeps the
	// comparison strict even on a coarse clock.
	time.Sleep(20 * time.Millisecond)
	counts := map[string]int{"total": 1, "status:done": 1}
	if err := pg.UpdateChecklistItemState(ctx, projectID, item.ID, "done", "Dana", "", counts); err != nil {
		t.Fatalf("update item state: %v", err)
	}
	touched := projectUpdatedAt(ctx, t, db, projectID)
	if !touched.After(stamp) {
		t.Fatalf("expected item patch to advance updated_at, got %v -> %v", stamp, touched)
	}
	stamp = touched

	time.Sleep(20 * time.Millisecond)
	file := EvidenceFile{
		ID:          "ev_touch01",
		FileName:    "scan.pdf",
		ContentType: "application/pdf",
		SizeBytes:   6,
		SHA256:      "deadbeef",
		StorageKey:  projectID + "/itm_touch01/scan.pdf",
		UploadedBy:  "Dana",
		UploadedAt:  time.Now().UTC(),
	}
	if err := pg.AppendEvidence(ctx, projectID, item.ID, file); err != nil {
		t.Fatalf("append evidence: %v", err)
	}
	touched = projectUpdatedAt(ctx, t, db, projectID)
	if !touched.After(stamp) {
		t.Fatalf("expected evidence upload to advance updated_at, got %v -> %v", stamp, touched)
	}
}

func projectUpdatedAt(ctx context.Context, t *testing.T, db *sql.DB, projectID string) time.Time {
	t.Helper()
	var updatedAt time.Time
	if err := db.QueryRowContext(ctx, `SELECT updated_at FROM projects WHERE id = $1`, projectID).Scan(&updatedAt); err != nil {
		t.Fatalf("read updated_at: %v", err)
	}
	return updatedAt
}
