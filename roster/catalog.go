// Package roster loads the competition catalogs: the teams of each
// competition and the pot they were seeded into.
//
// Three catalogs are embedded in the binary. Additional or replacement
// catalogs can be loaded from a directory of *.toml files with the same
// layout:
//
//	slug = "champions-league"
//	name = "UEFA Champions League"
//
//	[[teams]]
//	id = 1
//	name = "Paris Saint-Germain"
//	country = "France"
//	country_code = "FRA"
//	pot = 1
package roster

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/Dosada05/league-draw/draw"
	"github.com/Dosada05/league-draw/models"
)

const (
	ChampionsLeague  = "champions-league"
	EuropaLeague     = "europa-league"
	ConferenceLeague = "conference-league"
)

var (
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrInvalidCatalog      = errors.New("invalid roster catalog")
)

//go:embed catalog/*.toml
var embedded embed.FS

// Catalog is an immutable set of competitions keyed by slug.
type Catalog struct {
	bySlug map[string]*models.Competition
	slugs  []string
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalogs. It panics if they do not decode,
// which can only happen with a broken build.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := LoadEmbedded()
		if err != nil {
			panic(fmt.Sprintf("roster: embedded catalogs: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadEmbedded decodes the catalogs compiled into the binary.
func LoadEmbedded() (*Catalog, error) {
	return loadFS(embedded, "catalog", nil)
}

// LoadDir decodes every *.toml file in dir on top of base. A competition in
// dir replaces the one with the same slug in base. base may be nil.
func LoadDir(dir string, base *Catalog) (*Catalog, error) {
	return loadFS(os.DirFS(dir), ".", base)
}

func loadFS(fsys fs.FS, root string, base *Catalog) (*Catalog, error) {
	c := &Catalog{bySlug: make(map[string]*models.Competition)}
	if base != nil {
		for _, slug := range base.slugs {
			c.add(base.bySlug[slug])
		}
	}

	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(root, e.Name())))
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", e.Name(), err)
		}
		comp, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", e.Name(), err)
		}
		c.add(comp)
	}
	return c, nil
}

func (c *Catalog) add(comp *models.Competition) {
	if _, exists := c.bySlug[comp.Slug]; !exists {
		c.slugs = append(c.slugs, comp.Slug)
		sort.Strings(c.slugs)
	}
	c.bySlug[comp.Slug] = comp
}

// Decode parses one TOML catalog and validates it.
func Decode(data []byte) (*models.Competition, error) {
	var comp models.Competition
	md, err := toml.Decode(string(data), &comp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidCatalog, strings.Join(keys, ", "))
	}
	if err := Validate(&comp); err != nil {
		return nil, err
	}
	return &comp, nil
}

// Validate checks the catalog metadata and that its teams form a drawable
// roster.
func Validate(comp *models.Competition) error {
	if comp.Slug == "" {
		return fmt.Errorf("%w: slug is required", ErrInvalidCatalog)
	}
	if comp.Name == "" {
		return fmt.Errorf("%w: %s: name is required", ErrInvalidCatalog, comp.Slug)
	}
	for _, t := range comp.Teams {
		if t.Name == "" || t.Country == "" {
			return fmt.Errorf("%w: %s: team %d needs a name and a country", ErrInvalidCatalog, comp.Slug, t.ID)
		}
	}
	if err := draw.CheckRoster(comp.Teams); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, comp.Slug, err)
	}
	return nil
}

// List returns the competitions ordered by slug.
func (c *Catalog) List() []*models.Competition {
	out := make([]*models.Competition, len(c.slugs))
	for i, slug := range c.slugs {
		out[i] = c.bySlug[slug]
	}
	return out
}

func (c *Catalog) Get(slug string) (*models.Competition, error) {
	comp, ok := c.bySlug[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCompetitionNotFound, slug)
	}
	return comp, nil
}
