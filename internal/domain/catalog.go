package domain

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ModelDescriptor describes one comparable model.
type ModelDescriptor struct {
	ID        string   `yaml:"id"         json:"id"`
	MaxTokens int      `yaml:"max_tokens" json:"max_tokens"`
	Endpoint  Endpoint `yaml:"endpoint"   json:"endpoint"`
}

// CatalogEntry pairs a descriptor with its pricing rule.
type CatalogEntry struct {
	ModelDescriptor `yaml:",inline"`

	Pricing PricingRule `yaml:"pricing"`
}

// ModelCatalog is the static model registry.
type ModelCatalog struct {
	Baseline []CatalogEntry `yaml:"baseline"`
	Premium  []CatalogEntry `yaml:"premium"`
}

// LoadCatalog reads a catalog from path, or the built-in catalog when path is empty.
func LoadCatalog(path string) (*ModelCatalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model catalog: %w", err)
	}

	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog document.
func ParseCatalog(data []byte) (*ModelCatalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var catalog ModelCatalog
	if err := dec.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("failed to parse model catalog: %w", err)
	}

	if err := catalog.validate(); err != nil {
		return nil, err
	}

	return &catalog, nil
}

func (c *ModelCatalog) validate() error {
	if len(c.Baseline) == 0 {
		return errors.New("model catalog needs at least one baseline model")
	}

	seen := make(map[string]bool)
	for _, e := range c.entries() {
		if e.ID == "" {
			return errors.New("model catalog entry without id")
		}
		if seen[e.ID] {
			return fmt.Errorf("model %s listed twice in catalog", e.ID)
		}
		seen[e.ID] = true

		if e.MaxTokens <= 0 {
			return fmt.Errorf("model %s needs a positive max_tokens", e.ID)
		}
		switch e.Endpoint {
		case EndpointChat, EndpointCompletion:
		default:
			return fmt.Errorf("model %s has unknown endpoint %q", e.ID, e.Endpoint)
		}
	}

	return nil
}

func (c *ModelCatalog) entries() []CatalogEntry {
	all := make([]CatalogEntry, 0, len(c.Premium)+len(c.Baseline))
	all = append(all, c.Premium...)
	return append(all, c.Baseline...)
}

// Select returns the models to compare given the identifiers a credential can access.
// Premium models present in available come first, then the whole baseline.
func (c *ModelCatalog) Select(available []string) []ModelDescriptor {
	accessible := make(map[string]bool, len(available))
	for _, id := range available {
		accessible[id] = true
	}

	selected := make([]ModelDescriptor, 0, len(c.Premium)+len(c.Baseline))
	for _, e := range c.Premium {
		if accessible[e.ID] {
			selected = append(selected, e.ModelDescriptor)
		}
	}
	for _, e := range c.Baseline {
		selected = append(selected, e.ModelDescriptor)
	}

	return selected
}

// Descriptor looks up a model by identifier.
func (c *ModelCatalog) Descriptor(id string) (ModelDescriptor, bool) {
	for _, e := range c.entries() {
		if e.ID == id {
			return e.ModelDescriptor, true
		}
	}
	return ModelDescriptor{}, false
}

// RegisterPricing registers every catalog pricing rule with the registry.
// Entries without a pricing block stay unpriced.
func (c *ModelCatalog) RegisterPricing(ctx context.Context, registry PricingRegistry) error {
	for _, e := range c.entries() {
		if e.Pricing == (PricingRule{}) {
			continue
		}
		if err := registry.RegisterPricing(ctx, e.ID, e.Pricing); err != nil {
			return fmt.Errorf("failed to register pricing for model %s: %w", e.ID, err)
		}
	}
	return nil
}
