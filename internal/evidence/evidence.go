// Package evidence stores uploaded evidence artifacts and returns the
// metadata the checklist keeps per file.
package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"

	"truststack/api/internal/util"
)

// newStorageKey builds the object key for one upload. The random id
// segment keeps repeated uploads of the same filename distinct.
func newStorageKey(projectID, itemID, filename string) (id, key string) {
	id = util.NewID("ev")
	return id, path.Join(projectID, itemID, id+"_"+sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	cleaned := make([]rune, 0, len(base))
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			cleaned = append(cleaned, r)
		case r == '.', r == '-', r == '_':
			cleaned = append(cleaned, r)
		default:
			cleaned = append(cleaned, '_')
		}
	}
	name = strings.Trim(string(cleaned), "._")
	if name == "" {
		return "upload"
	}
	return name
}

func contentDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
