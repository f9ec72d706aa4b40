package app

import "truststack/api/internal/store"

// mergeChecklistItems carries human-entered tracking state from a
// prior checklist onto a freshly generated one. Output order is the
// generator's order. Structural fields always come from the new item;
// status, owner, notes and evidence come from the prior item with the
// same ID when one exists. Prior items the new generation no longer
// produces are dropped along with their state.
func mergeChecklistItems(newItems, priorItems []store.ChecklistItem) []store.ChecklistItem {
	if len(priorItems) == 0 {
		return newItems
	}

	prior := make(map[string]store.ChecklistItem, len(priorItems))
	for _, item := range priorItems {
		prior[item.ID] = item
	}

	merged := make([]store.ChecklistItem, 0, len(newItems))
	for _, item := range newItems {
		if previous, ok := prior[item.ID]; ok {
			item.Status = previous.Status
			item.Owner = previous.Owner
			item.Notes = previous.Notes
			item.Evidence = previous.Evidence
		}
		merged = append(merged, item)
	}
	return merged
}
