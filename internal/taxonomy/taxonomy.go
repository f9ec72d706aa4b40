// Package taxonomy loads the industry/segment/use-case catalog that
// project creation validates against.
package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Segment struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type Industry struct {
	ID       string    `yaml:"id" json:"id"`
	Name     string    `yaml:"name" json:"name"`
	Segments []Segment `yaml:"segments" json:"segments"`
}

type UseCase struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	IndustryID  string `yaml:"industry_id" json:"industry_id"`
	SegmentID   string `yaml:"segment_id" json:"segment_id"`
	Description string `yaml:"description" json:"description"`
}

type Catalog struct {
	industries []Industry
	useCases   map[string]UseCase
}

type catalogFile struct {
	Industries []Industry `yaml:"industries"`
	UseCases   []UseCase  `yaml:"use_cases"`
}

func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}

	catalog := &Catalog{
		industries: file.Industries,
		useCases:   make(map[string]UseCase, len(file.UseCases)),
	}
	for _, useCase := range file.UseCases {
		if useCase.ID == "" {
			return nil, fmt.Errorf("parse taxonomy: use case with empty id")
		}
		if _, exists := catalog.useCases[useCase.ID]; exists {
			return nil, fmt.Errorf("parse taxonomy: duplicate use case %s", useCase.ID)
		}
		catalog.useCases[useCase.ID] = useCase
	}
	return catalog, nil
}

func (c *Catalog) GetUseCase(id string) (UseCase, bool) {
	useCase, ok := c.useCases[id]
	return useCase, ok
}

// ListIndustries returns the industry hierarchy in catalog file order.
// The ordering is part of the taxonomy fingerprint, so it must stay
// stable for a given catalog file.
func (c *Catalog) ListIndustries() []Industry {
	return c.industries
}
