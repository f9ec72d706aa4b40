package util

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
)

func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9]+`)
	slugCollapse = regexp.MustCompile(`-{2,}`)
)

// Slug lowercases the input and reduces it to hyphen-separated
// alphanumeric runs. Empty or fully-stripped input yields fallback.
func Slug(value, fallback string) string {
	slug := strings.ToLower(strings.TrimSpace(value))
	slug = slugInvalid.ReplaceAllString(slug, "-")
	slug = slugCollapse.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fallback
	}
	return slug
}
