// Package catalog holds the curated crop and fertilizer norms used as a
// trusted fallback when no uploaded document matches a query.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Graph is immutable after construction and safe for concurrent use.
type Graph struct {
	crops       []domain.CropNorm
	fertilizers []domain.FertilizerNorm
}

type fileFormat struct {
	Crops       []domain.CropNorm       `yaml:"crops"`
	Fertilizers []domain.FertilizerNorm `yaml:"fertilizers"`
}

// New copies its input and lower-cases crop keywords.
func New(crops []domain.CropNorm, fertilizers []domain.FertilizerNorm) (*Graph, error) {
	g := &Graph{
		crops:       make([]domain.CropNorm, 0, len(crops)),
		fertilizers: make([]domain.FertilizerNorm, 0, len(fertilizers)),
	}
	seen := make(map[string]struct{}, len(crops)+len(fertilizers))
	for _, c := range crops {
		if strings.TrimSpace(c.ID) == "" {
			return nil, fmt.Errorf("catalog: crop %q has no id", c.CropName)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate id %q", c.ID)
		}
		seen[c.ID] = struct{}{}

		keywords := make([]string, 0, len(c.Keywords))
		for _, k := range c.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		c.Keywords = keywords
		g.crops = append(g.crops, c)
	}
	for _, f := range fertilizers {
		if strings.TrimSpace(f.ID) == "" {
			return nil, fmt.Errorf("catalog: fertilizer %q has no id", f.Name)
		}
		// An empty name is contained in every query.
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("catalog: fertilizer %q has no name", f.ID)
		}
		if _, dup := seen[f.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate id %q", f.ID)
		}
		seen[f.ID] = struct{}{}
		g.fertilizers = append(g.fertilizers, f)
	}
	return g, nil
}

// Default returns the catalog compiled into the binary.
func Default() (*Graph, error) {
	return LoadYAML(bytes.NewReader(defaultCatalog))
}

func LoadYAML(r io.Reader) (*Graph, error) {
	var f fileFormat
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog yaml: %w", err)
	}
	return New(f.Crops, f.Fertilizers)
}

func LoadFile(path string) (*Graph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer file.Close()
	return LoadYAML(file)
}

// Search returns the first crop with a keyword contained in the query,
// otherwise the first fertilizer whose name contains or is contained in the
// query, or whose id equals a query token.
func (g *Graph) Search(query string) (domain.CatalogMatch, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return domain.CatalogMatch{}, false
	}

	for i := range g.crops {
		for _, k := range g.crops[i].Keywords {
			if strings.Contains(q, k) {
				crop := g.crops[i]
				return domain.CatalogMatch{Crop: &crop}, true
			}
		}
	}

	tokens := tokenize(q)
	for i := range g.fertilizers {
		name := strings.ToLower(g.fertilizers[i].Name)
		id := strings.ToLower(g.fertilizers[i].ID)
		if strings.Contains(name, q) || strings.Contains(q, name) || q == id {
			fert := g.fertilizers[i]
			return domain.CatalogMatch{Fertilizer: &fert}, true
		}
		if _, ok := tokens[id]; ok {
			fert := g.fertilizers[i]
			return domain.CatalogMatch{Fertilizer: &fert}, true
		}
	}
	return domain.CatalogMatch{}, false
}

func (g *Graph) CropNames() []string {
	out := make([]string, 0, len(g.crops))
	for _, c := range g.crops {
		out = append(out, c.CropName)
	}
	return out
}

func (g *Graph) FertilizerNames() []string {
	out := make([]string, 0, len(g.fertilizers))
	for _, f := range g.fertilizers {
		out = append(out, f.Name)
	}
	return out
}

// Crops and Fertilizers return copies, used to seed other catalog sources.
func (g *Graph) Crops() []domain.CropNorm {
	return append([]domain.CropNorm(nil), g.crops...)
}

func (g *Graph) Fertilizers() []domain.FertilizerNorm {
	return append([]domain.FertilizerNorm(nil), g.fertilizers...)
}

func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}
