// Package mapping turns project inputs and policy packs into a
// concrete requirement checklist.
package mapping

import (
	"truststack/api/internal/taxonomy"
)

// BuildContext assembles the immutable generation context captured at
// project creation. Regeneration reuses this context unchanged, so the
// checklist always reflects the scoping answers given at creation
// time.
func BuildContext(projectName, industryID, segmentID string, useCase taxonomy.UseCase, scopeAnswers map[string]any) map[string]any {
	context := map[string]any{
		"project_name": projectName,
		"industry_id":  industryID,
		"segment_id":   segmentID,
		"use_case": map[string]any{
			"id":   useCase.ID,
			"name": useCase.Name,
		},
	}
	if len(scopeAnswers) > 0 {
		answers := make(map[string]any, len(scopeAnswers))
		for key, value := range scopeAnswers {
			answers[key] = value
		}
		context["scope_answers"] = answers
	}
	return context
}
