package app

import (
	"testing"

	"truststack/api/internal/packs"
	"truststack/api/internal/store"
	"truststack/api/internal/taxonomy"
)

func TestTaxonomyHashIsStableAndOrderSensitive(t *testing.T) {
	industries := []taxonomy.Industry{
		{ID: "ind_fin", Name: "Financial Services", Segments: []taxonomy.Segment{{ID: "seg_retail", Name: "Retail"}}},
		{ID: "ind_health", Name: "Healthcare"},
	}

	first := taxonomyHash(industries)
	second := taxonomyHash(industries)
	if first != second {
		t.Fatalf("hash not stable: %s vs %s", first, second)
	}

	reversed := []taxonomy.Industry{industries[1], industries[0]}
	if taxonomyHash(reversed) == first {
		t.Fatal("reordering industries should change the hash")
	}
}

func TestPacksHashReflectsSelectionOrder(t *testing.T) {
	a := packs.Pack{Domain: "privacy", ID: "gdpr-core", Version: "1.0.0", ContentHash: "aaa"}
	b := packs.Pack{Domain: "security", ID: "llm-sec", Version: "0.3.0", ContentHash: "bbb"}

	forward := packsHash([]packs.Pack{a, b})
	backward := packsHash([]packs.Pack{b, a})
	if forward == backward {
		t.Fatal("selection order is part of the fingerprint")
	}
	if forward != packsHash([]packs.Pack{a, b}) {
		t.Fatal("hash not stable for identical input")
	}
}

func TestPacksHashTracksContentHash(t *testing.T) {
	a := packs.Pack{Domain: "privacy", ID: "gdpr-core", Version: "1.0.0", ContentHash: "aaa"}
	edited := a
	edited.ContentHash = "ccc"

	if packsHash([]packs.Pack{a}) == packsHash([]packs.Pack{edited}) {
		t.Fatal("edited pack content must change the fingerprint")
	}
}

func TestChecklistHashIgnoresHumanFields(t *testing.T) {
	items := []store.ChecklistItem{
		{MergeKey: "privacy:gdpr-core:dpia", Severity: "high", Title: "Run a DPIA", Status: "todo"},
		{MergeKey: "security:llm-sec:prompt-injection", Severity: "high", Title: "Mitigate prompt injection", Status: "todo"},
	}
	base := checklistHash(items)

	items[0].Status = "done"
	items[0].Owner = "sam"
	items[0].Notes = "completed last sprint"
	if checklistHash(items) != base {
		t.Fatal("status/owner/notes must not move the checklist hash")
	}

	items[0].Title = "Run a DPIA (revised)"
	if checklistHash(items) == base {
		t.Fatal("structural title change must move the checklist hash")
	}
}

func TestChecklistHashIsOrderSensitive(t *testing.T) {
	a := store.ChecklistItem{MergeKey: "a", Severity: "low", Title: "A"}
	b := store.ChecklistItem{MergeKey: "b", Severity: "low", Title: "B"}

	if checklistHash([]store.ChecklistItem{a, b}) == checklistHash([]store.ChecklistItem{b, a}) {
		t.Fatal("item order is part of the hashed representation")
	}
}
