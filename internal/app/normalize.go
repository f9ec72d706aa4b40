package app

import (
	"fmt"
	"strings"
	"time"

	"truststack/api/internal/util"
)

// AllowedDeploymentEnvironments is the closed set of deployment
// targets a project may declare.
var AllowedDeploymentEnvironments = []string{
	"AWS Native",
	"GCP Native",
	"Azure Native",
	"Custom Stack",
}

// deriveProjectID slugifies the name and appends a second-precision
// UTC timestamp. Uniqueness is practical, not guaranteed: two creates
// with the same name inside the same second collide, which is
// acceptable for this system's usage pattern.
func deriveProjectID(name string, now time.Time) string {
	slug := util.Slug(name, "project")
	return slug + "-" + now.UTC().Format("20060102-150405")
}

// normalizeSelectedLLMs drops blank entries and deduplicates
// case-insensitively, keeping first-seen order and the casing of the
// first occurrence.
func normalizeSelectedLLMs(values []string) []string {
	seen := map[string]bool{}
	normalized := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if seen[key] {
			continue
		}
		seen[key] = true
		normalized = append(normalized, trimmed)
	}
	return normalized
}

// normalizeDeploymentEnvironment trims the value and checks it against
// the allowed set. Empty input yields "" — required-ness at creation
// is enforced by the caller, not here.
func normalizeDeploymentEnvironment(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	for _, allowed := range AllowedDeploymentEnvironments {
		if trimmed == allowed {
			return trimmed, nil
		}
	}
	return "", validationError(
		fmt.Sprintf("Unsupported deployment_environment: %s", trimmed),
		map[string]any{"allowed": AllowedDeploymentEnvironments},
	)
}
