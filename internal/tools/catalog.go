package tools

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Category struct {
	Tags     []string `yaml:"tags"`
	Fallback string   `yaml:"fallback"`
}

type Catalog struct {
	Default   Category            `yaml:"default"`
	Interests map[string]Category `yaml:"interests"`
}

// LoadCatalog parses a YAML interest catalog.
func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Default.Tags) == 0 {
		return nil, fmt.Errorf("catalog: default category has no tags")
	}
	return &c, nil
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the category for interest, or the default category.
func (c *Catalog) Lookup(interest string) Category {
	if cat, ok := c.Interests[strings.ToLower(interest)]; ok {
		return cat
	}
	return c.Default
}
