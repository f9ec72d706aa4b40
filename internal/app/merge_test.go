package app

import (
	"testing"
	"time"

	"truststack/api/internal/store"
)

func item(id, mergeKey, title, severity string) store.ChecklistItem {
	return store.ChecklistItem{ID: id, MergeKey: mergeKey, Title: title, Severity: severity, Status: "todo"}
}

func TestMergeFirstGenerationPassesThrough(t *testing.T) {
	newItems := []store.ChecklistItem{
		item("itm_a", "privacy:p:a", "A", "high"),
		item("itm_b", "privacy:p:b", "B", "low"),
	}

	merged := mergeChecklistItems(newItems, nil)
	if len(merged) != 2 {
		t.Fatalf("expected 2 items, got %d", len(merged))
	}
	for i := range newItems {
		if merged[i].ID != newItems[i].ID || merged[i].Status != "todo" {
			t.Fatalf("item %d altered on first generation: %+v", i, merged[i])
		}
	}
}

func TestMergeCarriesHumanStateByItemID(t *testing.T) {
	prior := []store.ChecklistItem{
		{ID: "itm_a", MergeKey: "privacy:p:a", Title: "A (old title)", Severity: "medium",
			Status: "in_progress", Owner: "dana", Notes: "waiting on vendor",
			Evidence: []store.EvidenceFile{{ID: "ev_1", FileName: "report.pdf", UploadedAt: time.Now()}}},
	}
	newItems := []store.ChecklistItem{
		item("itm_a", "privacy:p:a", "A (revised)", "high"),
		item("itm_b", "privacy:p:b", "B", "low"),
	}

	merged := mergeChecklistItems(newItems, prior)
	if len(merged) != 2 {
		t.Fatalf("expected 2 items, got %d", len(merged))
	}

	carried := merged[0]
	if carried.Status != "in_progress" || carried.Owner != "dana" || carried.Notes != "waiting on vendor" {
		t.Fatalf("human fields not carried: %+v", carried)
	}
	if len(carried.Evidence) != 1 || carried.Evidence[0].ID != "ev_1" {
		t.Fatalf("evidence not carried: %+v", carried.Evidence)
	}
	// Structural fields always come from the new generation.
	if carried.Title != "A (revised)" || carried.Severity != "high" {
		t.Fatalf("structural fields not adopted: %+v", carried)
	}

	fresh := merged[1]
	if fresh.Status != "todo" || fresh.Owner != "" || fresh.Notes != "" || len(fresh.Evidence) != 0 {
		t.Fatalf("new item should keep generator defaults: %+v", fresh)
	}
}

func TestMergeDropsItemsNoLongerGenerated(t *testing.T) {
	prior := []store.ChecklistItem{
		{ID: "itm_gone", MergeKey: "privacy:p:gone", Title: "Gone", Severity: "high",
			Status: "done", Owner: "lee", Notes: "historical"},
		item("itm_a", "privacy:p:a", "A", "high"),
	}
	newItems := []store.ChecklistItem{item("itm_a", "privacy:p:a", "A", "high")}

	merged := mergeChecklistItems(newItems, prior)
	if len(merged) != 1 {
		t.Fatalf("expected 1 item, got %d", len(merged))
	}
	if merged[0].ID != "itm_a" {
		t.Fatalf("unexpected survivor: %s", merged[0].ID)
	}
}

func TestMergeIsDeterministic(t *testing.T) {
	prior := []store.ChecklistItem{item("itm_a", "k", "A", "high")}
	newItems := []store.ChecklistItem{item("itm_a", "k", "A2", "low"), item("itm_b", "k2", "B", "high")}

	first := mergeChecklistItems(newItems, prior)
	second := mergeChecklistItems(newItems, prior)
	if len(first) != len(second) {
		t.Fatalf("non-deterministic length")
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Title != second[i].Title {
			t.Fatalf("merge output differs at %d", i)
		}
	}
}
