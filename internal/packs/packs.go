// Package packs resolves versioned compliance pack definitions from
// an on-disk registry of YAML files.
package packs

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrUnknownPack is returned when a (domain, id, version) tuple does
// not resolve to a pack file in the registry.
var ErrUnknownPack = errors.New("unknown pack")

// Control is one requirement carried by a pack. Environments, when
// non-empty, restricts the control to specific deployment targets.
type Control struct {
	Key          string   `yaml:"key"`
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Severity     string   `yaml:"severity"`
	Refs         []string `yaml:"refs"`
	Environments []string `yaml:"environments"`
}

type Pack struct {
	Domain      string    `yaml:"domain"`
	ID          string    `yaml:"id"`
	Version     string    `yaml:"version"`
	Title       string    `yaml:"title"`
	Controls    []Control `yaml:"controls"`
	ContentHash string    `yaml:"-"`
}

// Loader reads packs from <dir>/<domain>/<id>@<version>.yaml.
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

func (l *Loader) Load(domain, id, version string) (Pack, error) {
	path := filepath.Join(l.dir, domain, fmt.Sprintf("%s@%s.yaml", id, version))
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Pack{}, fmt.Errorf("%w: %s:%s:%s", ErrUnknownPack, domain, id, version)
	}
	if err != nil {
		return Pack{}, fmt.Errorf("read pack %s:%s:%s: %w", domain, id, version, err)
	}

	pack, err := parsePack(raw)
	if err != nil {
		return Pack{}, fmt.Errorf("pack %s:%s:%s: %w", domain, id, version, err)
	}
	if pack.Domain != domain || pack.ID != id || pack.Version != version {
		return Pack{}, fmt.Errorf("pack %s:%s:%s: file declares %s:%s:%s", domain, id, version, pack.Domain, pack.ID, pack.Version)
	}
	return pack, nil
}

func parsePack(raw []byte) (Pack, error) {
	var pack Pack
	if err := yaml.Unmarshal(raw, &pack); err != nil {
		return Pack{}, fmt.Errorf("parse: %w", err)
	}
	if pack.Domain == "" || pack.ID == "" || pack.Version == "" {
		return Pack{}, errors.New("missing domain, id or version")
	}

	// The content hash fingerprints the pack file bytes, so any edit
	// to a published version is detectable downstream.
	sum := sha256.Sum256(raw)
	pack.ContentHash = hex.EncodeToString(sum[:])
	return pack, nil
}
