package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"truststack/api/internal/packs"
	"truststack/api/internal/store"
	"truststack/api/internal/taxonomy"
)

// taxonomyHash fingerprints the industry hierarchy. The canonical form
// is the JSON encoding of the ordered industry listing, so a renamed
// segment or reordered catalog changes the hash.
func taxonomyHash(industries []taxonomy.Industry) string {
	raw, _ := json.Marshal(industries)
	return hexDigest(raw)
}

// packsHash fingerprints the loaded pack set in selection order.
// Reordering the selection changes the hash: the order is part of the
// configuration record.
func packsHash(loaded []packs.Pack) string {
	parts := make([]string, 0, len(loaded))
	for _, pack := range loaded {
		parts = append(parts, pack.Domain+":"+pack.ID+":"+pack.Version+":"+pack.ContentHash)
	}
	return hexDigest([]byte(strings.Join(parts, "|")))
}

// checklistHash fingerprints structural checklist identity: the
// ordered (merge_key, severity, title) triples. Human-entered fields
// are deliberately excluded, so editing status, owner or notes never
// moves the hash.
func checklistHash(items []store.ChecklistItem) string {
	triples := make([][3]string, 0, len(items))
	for _, item := range items {
		triples = append(triples, [3]string{item.MergeKey, item.Severity, item.Title})
	}
	raw, _ := json.Marshal(triples)
	return hexDigest(raw)
}

func hexDigest(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
