package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aluiziolira/go-abridge-books/models"
)

// Catalog is a read-only lookup of per-model pricing, keyed by provider and
// model. It is loaded once at startup and never mutated afterwards; a missing
// entry means the cost is unknown, never zero.
type Catalog struct {
	entries map[string]models.PricingEntry
}

func catalogKey(provider, model string) string {
	return provider + "/" + model
}

// DefaultCatalog returns the builtin pricing table. Local providers are
// listed with explicit zero prices so their cost reports as a known $0 rather
// than unknown.
func DefaultCatalog() *Catalog {
	return &Catalog{entries: map[string]models.PricingEntry{
		catalogKey("openrouter", "openai/gpt-4o"):                  {InputPerMTokens: 2.50, OutputPerMTokens: 10.00},
		catalogKey("openrouter", "openai/gpt-4o-mini"):             {InputPerMTokens: 0.15, OutputPerMTokens: 0.60},
		catalogKey("openrouter", "anthropic/claude-sonnet-4"):      {InputPerMTokens: 3.00, OutputPerMTokens: 15.00},
		catalogKey("openrouter", "google/gemini-2.5-pro"):          {InputPerMTokens: 1.25, OutputPerMTokens: 10.00},
		catalogKey("openrouter", "google/gemini-2.5-flash"):        {InputPerMTokens: 0.30, OutputPerMTokens: 2.50},
		catalogKey("openrouter", "meta-llama/llama-3.3-70b-instruct"): {InputPerMTokens: 0.10, OutputPerMTokens: 0.30},
		catalogKey("ollama", "llama3"):                             {},
		catalogKey("ollama", "llama3.1"):                           {},
		catalogKey("ollama", "mistral"):                            {},
	}}
}

// NewCatalog builds a catalog from explicit per-provider entries.
func NewCatalog(pricing map[string]map[string]models.PricingEntry) *Catalog {
	entries := make(map[string]models.PricingEntry)
	for provider, byModel := range pricing {
		for model, entry := range byModel {
			entries[catalogKey(provider, model)] = entry
		}
	}
	return &Catalog{entries: entries}
}

// catalogFile is the YAML shape of a pricing override file:
//
//	pricing:
//	  openrouter:
//	    openai/gpt-4o: {input_per_million: 2.5, output_per_million: 10}
type catalogFile struct {
	Pricing map[string]map[string]models.PricingEntry `yaml:"pricing"`
}

// LoadCatalog reads a pricing file and merges it over the builtin table.
// File entries win on conflict.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse pricing file %q: %w", path, err)
	}

	catalog := DefaultCatalog()
	for provider, entries := range file.Pricing {
		for model, entry := range entries {
			if entry.InputPerMTokens < 0 || entry.OutputPerMTokens < 0 {
				return nil, fmt.Errorf("pricing for %s/%s cannot be negative", provider, model)
			}
			catalog.entries[catalogKey(provider, model)] = entry
		}
	}
	return catalog, nil
}

// Lookup returns the pricing entry for a provider/model pair. The second
// return value is false when the pair is not in the catalog.
func (c *Catalog) Lookup(provider, model string) (models.PricingEntry, bool) {
	if c == nil {
		return models.PricingEntry{}, false
	}
	entry, ok := c.entries[catalogKey(provider, model)]
	return entry, ok
}

// Len reports how many entries the catalog holds.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}
