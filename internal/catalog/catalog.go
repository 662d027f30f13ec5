// Package catalog holds the fixed, ordered list of stimulus pages shown
// during the study. The core treats the catalog as a read-only external
// resource of length N; only the randomized order in which pages are
// visited varies per participant.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Page describes one stimulus page.
type Page struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	ImageRef string `yaml:"image"`
}

// Catalog is the ordered stimulus page set.
type Catalog []Page

// Default returns the built-in stimulus set.
func Default() Catalog {
	return Catalog{
		{ID: 0, Name: "zalando", ImageRef: "assets/zalando.png"},
		{ID: 1, Name: "eu_health", ImageRef: "assets/eu_health.png"},
		{ID: 2, Name: "santander", ImageRef: "assets/santander.png"},
	}
}

// Load reads a catalog from a YAML file: a top-level `pages` list.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var doc struct {
		Pages []Page `yaml:"pages"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("catalog %s: no pages defined", path)
	}
	return Catalog(doc.Pages), nil
}

// Len returns the number of stimulus pages.
func (c Catalog) Len() int { return len(c) }

// Page returns the page at the given catalog index.
func (c Catalog) Page(i int) (Page, bool) {
	if i < 0 || i >= len(c) {
		return Page{}, false
	}
	return c[i], true
}
