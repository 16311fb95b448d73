// Package scoring implements the burnout questionnaire: the fixed 14-item
// catalog, the sub-scale scoring engine, both risk classification rules and
// the recommendation blocks derived from sub-scores. It is intentionally
// dependency-free within internal/ and can be tested without a database.
package scoring

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Category is the sub-scale a question contributes to.
type Category string

const (
	CategoryExhaustion        Category = "exhaustion"
	CategoryDepersonalization Category = "depersonalization"
	CategoryAccomplishment    Category = "accomplishment"
)

// Answer bounds. Unanswered only exists while a client is still collecting
// answers; the engine rejects it like any other out-of-range value.
const (
	MinAnswer  = 0
	MaxAnswer  = 6
	Unanswered = -1

	// ItemCount is the fixed length of every answer set.
	ItemCount = 14
)

// categoryCounts is the required composition of the catalog. The sub-scale
// maxima (30/24/30) follow from it.
var categoryCounts = map[Category]int{
	CategoryExhaustion:        5,
	CategoryDepersonalization: 4,
	CategoryAccomplishment:    5,
}

// Question is one catalog item. ID is stable across catalog versions and is
// what clients should key answers by.
type Question struct {
	ID            string   `yaml:"id"       json:"id"`
	Text          string   `yaml:"text"     json:"text"`
	Category      Category `yaml:"category" json:"category"`
	ReverseScored bool     `yaml:"reverse"  json:"reverse_scored"`
}

// Catalog is the ordered question list plus the answer scale labels
// (index 0 = "never" ... index 6 = "always").
type Catalog struct {
	Version   string     `yaml:"version"   json:"version"`
	Scale     []string   `yaml:"scale"     json:"scale"`
	Questions []Question `yaml:"questions" json:"questions"`

	index map[string]int
}

// ParseCatalog decodes a YAML catalog and validates it. Call this once at
// startup, not per request.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.index = make(map[string]int, len(c.Questions))
	for i, q := range c.Questions {
		c.index[q.ID] = i
	}
	return &c, nil
}

// Validate checks the catalog shape: a version, a 7-point scale, exactly
// ItemCount questions with unique IDs, the 5/4/5 category split and reverse
// scoring on every accomplishment item (and only there).
func (c *Catalog) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("catalog: version must not be empty")
	}
	if len(c.Scale) != MaxAnswer-MinAnswer+1 {
		return fmt.Errorf("catalog: scale has %d labels, want %d", len(c.Scale), MaxAnswer-MinAnswer+1)
	}
	if len(c.Questions) != ItemCount {
		return fmt.Errorf("catalog: %d questions, want %d", len(c.Questions), ItemCount)
	}

	seen := make(map[string]struct{}, len(c.Questions))
	counts := make(map[Category]int, len(categoryCounts))
	for i, q := range c.Questions {
		if q.ID == "" {
			return fmt.Errorf("catalog: questions[%d] has no id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("catalog: duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}

		if q.Text == "" {
			return fmt.Errorf("catalog: question %q has no text", q.ID)
		}
		if _, ok := categoryCounts[q.Category]; !ok {
			return fmt.Errorf("catalog: question %q has unknown category %q", q.ID, q.Category)
		}
		if q.ReverseScored != (q.Category == CategoryAccomplishment) {
			return fmt.Errorf("catalog: question %q: reverse scoring must be set on accomplishment items only", q.ID)
		}
		counts[q.Category]++
	}

	for cat, want := range categoryCounts {
		if counts[cat] != want {
			return fmt.Errorf("catalog: category %s has %d questions, want %d", cat, counts[cat], want)
		}
	}
	return nil
}

// Position returns the answer-set index of the question with the given ID.
func (c *Catalog) Position(id string) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}

var defaultCatalog = mustParseCatalog(catalogYAML)

func mustParseCatalog(raw []byte) *Catalog {
	c, err := ParseCatalog(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCatalog returns the embedded production catalog. Callers must not
// modify the returned value.
func DefaultCatalog() *Catalog { return defaultCatalog }

// CatalogVersion is the version string of the embedded catalog. It is stored
// next to every persisted result.
func CatalogVersion() string { return defaultCatalog.Version }
