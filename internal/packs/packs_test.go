package packs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const samplePack = `domain: privacy
id: gdpr-core
version: "1.2.0"
title: GDPR Core Controls
controls:
  - key: dpia
    title: Complete a data protection impact assessment
    severity: high
    refs: ["GDPR Art. 35"]
  - key: retention
    title: Define retention limits for personal data
    severity: medium
    environments: ["AWS Native", "GCP Native"]
`

func writePack(t *testing.T, dir, domain, name, contents string) {
	t.Helper()
	packDir := filepath.Join(dir, domain)
	if err := os.MkdirAll(packDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(packDir, name), []byte(contents), 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}
}

func TestLoadResolvesPack(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "privacy", "gdpr-core@1.2.0.yaml", samplePack)

	loader := NewLoader(dir)
	pack, err := loader.Load("privacy", "gdpr-core", "1.2.0")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if pack.Domain != "privacy" || pack.ID != "gdpr-core" || pack.Version != "1.2.0" {
		t.Fatalf("unexpected identity: %s:%s:%s", pack.Domain, pack.ID, pack.Version)
	}
	if len(pack.Controls) != 2 {
		t.Fatalf("expected 2 controls, got %d", len(pack.Controls))
	}
	if pack.ContentHash == "" {
		t.Fatal("expected content hash to be set")
	}
}

func TestLoadContentHashIsStable(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "privacy", "gdpr-core@1.2.0.yaml", samplePack)

	loader := NewLoader(dir)
	first, err := loader.Load("privacy", "gdpr-core", "1.2.0")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second, err := loader.Load("privacy", "gdpr-core", "1.2.0")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if first.ContentHash != second.ContentHash {
		t.Fatalf("hash changed between loads: %s vs %s", first.ContentHash, second.ContentHash)
	}
}

func TestLoadUnknownPack(t *testing.T) {
	loader := NewLoader(t.TempDir())
	_, err := loader.Load("privacy", "missing", "0.0.1")
	if !errors.Is(err, ErrUnknownPack) {
		t.Fatalf("expected ErrUnknownPack, got %v", err)
	}
}

func TestLoadRejectsIdentityMismatch(t *testing.T) {
	dir := t.TempDir()
	// File named as 2.0.0 but declaring 1.2.0.
	writePack(t, dir, "privacy", "gdpr-core@2.0.0.yaml", samplePack)

	loader := NewLoader(dir)
	if _, err := loader.Load("privacy", "gdpr-core", "2.0.0"); err == nil {
		t.Fatal("expected identity mismatch to fail")
	}
}
