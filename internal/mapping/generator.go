package mapping

import (
	"crypto/sha256"
	"encoding/hex"

	"truststack/api/internal/packs"
	"truststack/api/internal/store"
)

// StatusTodo is the generator default for a freshly produced item.
const StatusTodo = "todo"

// Generator expands loaded packs into checklist items. Version is
// stamped onto every checklist it produces so a reader can tell which
// mapping logic generated a given item set.
type Generator struct {
	Version string
}

func NewGenerator(version string) *Generator {
	return &Generator{Version: version}
}

// Generate produces items in pack-selection order, then control order
// within each pack. Controls scoped to specific deployment
// environments are skipped when the context's environment is not
// listed. Item IDs are derived from the merge key, so the same control
// yields the same ID across regenerations.
func (g *Generator) Generate(context map[string]any, loaded []packs.Pack) []store.ChecklistItem {
	environment, _ := context["deployment_environment"].(string)

	items := make([]store.ChecklistItem, 0)
	for _, pack := range loaded {
		for _, control := range pack.Controls {
			if !controlApplies(control, environment) {
				continue
			}
			mergeKey := pack.Domain + ":" + pack.ID + ":" + control.Key
			items = append(items, store.ChecklistItem{
				ID:          ItemID(mergeKey),
				MergeKey:    mergeKey,
				Domain:      pack.Domain,
				PackID:      pack.ID,
				PackVersion: pack.Version,
				Title:       control.Title,
				Description: control.Description,
				Severity:    control.Severity,
				Refs:        control.Refs,
				Status:      StatusTodo,
				SortOrder:   len(items),
			})
		}
	}
	return items
}

func controlApplies(control packs.Control, environment string) bool {
	if len(control.Environments) == 0 {
		return true
	}
	for _, allowed := range control.Environments {
		if allowed == environment {
			return true
		}
	}
	return false
}

// ItemID derives the stable item identifier for a merge key.
func ItemID(mergeKey string) string {
	sum := sha256.Sum256([]byte(mergeKey))
	return "itm_" + hex.EncodeToString(sum[:6])
}

// Summarize recomputes checklist counts from scratch. Counts are never
// carried over from a prior checklist.
func Summarize(items []store.ChecklistItem) map[string]int {
	counts := map[string]int{"total": len(items)}
	for _, item := range items {
		counts["status:"+item.Status]++
		if item.Severity != "" {
			counts["severity:"+item.Severity]++
		}
	}
	return counts
}
