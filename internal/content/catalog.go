// Package content loads the static content tables (question banks, recommendations,
// documentation links and level tips) that drive an assessment.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/ashureev/skillpath/internal/domain"
	"gopkg.in/yaml.v3"
)

// Domain is the content of one technology domain.
type Domain struct {
	Name      string              `yaml:"name"`
	Title     string              `yaml:"title"`
	Summary   string              `yaml:"summary"`
	Order     int                 `yaml:"order"`
	Aliases   []string            `yaml:"aliases"`
	Questions []domain.Question   `yaml:"questions"`
	Topics    []string            `yaml:"topics"`
	Projects  []string            `yaml:"projects"`
	Docs      []domain.DocLink    `yaml:"docs"`
	Tips      map[string][]string `yaml:"tips"`
}

// TipsFor returns the improvement tips for a level, falling back to generic advice.
func (d *Domain) TipsFor(level domain.Level) []string {
	if tips := d.Tips[strings.ToLower(string(level))]; len(tips) > 0 {
		return tips
	}
	return []string{d.Name + " fundamentals", "Best practices", "Hands-on projects"}
}

// Catalog is an immutable, ordered set of domains. It is shared read-only
// across sessions; callers must not mutate returned slices.
type Catalog struct {
	domains []*Domain
	byName  map[string]*Domain
}

// Domain looks up a domain by its lower-case name.
func (c *Catalog) Domain(name string) (*Domain, bool) {
	d, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// Domains returns the domains in display order.
func (c *Catalog) Domains() []*Domain {
	return c.domains
}

// Names returns the domain names in display order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.domains))
	for i, d := range c.domains {
		names[i] = d.Name
	}
	return names
}

// Source provides the current catalog.
type Source interface {
	Catalog() *Catalog
}

// Static is a Source that never changes.
type Static struct {
	catalog *Catalog
}

// NewStatic wraps a loaded catalog.
func NewStatic(c *Catalog) *Static {
	return &Static{catalog: c}
}

// Catalog returns the wrapped catalog.
func (s *Static) Catalog() *Catalog {
	return s.catalog
}

// Load parses every *.yaml / *.yml file at the root of fsys into a catalog.
func Load(fsys fs.FS) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}

	var domains []*Domain
	for _, e := range entries {
		if e.IsDir() || !isContentFile(e.Name()) {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		d, err := parseDomain(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		domains = append(domains, d)
	}

	return newCatalog(domains)
}

func isContentFile(name string) bool {
	ext := path.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

func parseDomain(data []byte) (*Domain, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var d Domain
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}

	d.Name = strings.ToLower(strings.TrimSpace(d.Name))
	if d.Title == "" {
		d.Title = d.Name
	}
	for i, a := range d.Aliases {
		d.Aliases[i] = strings.ToLower(strings.TrimSpace(a))
	}
	for i := range d.Questions {
		q := &d.Questions[i]
		if q.ID == "" {
			q.ID = fmt.Sprintf("%s-%02d", strings.ReplaceAll(d.Name, " ", "-"), i+1)
		}
		if q.Weight == 0 {
			q.Weight = 1
		}
	}
	return &d, nil
}

func newCatalog(domains []*Domain) (*Catalog, error) {
	if len(domains) == 0 {
		return nil, errors.New("no domains defined")
	}

	sort.SliceStable(domains, func(i, j int) bool {
		if domains[i].Order != domains[j].Order {
			return domains[i].Order < domains[j].Order
		}
		return domains[i].Name < domains[j].Name
	})

	c := &Catalog{domains: domains, byName: make(map[string]*Domain, len(domains))}
	for _, d := range domains {
		if err := validateDomain(d); err != nil {
			return nil, fmt.Errorf("domain %q: %w", d.Name, err)
		}
		if _, dup := c.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate domain %q", d.Name)
		}
		c.byName[d.Name] = d
	}
	return c, nil
}

func validateDomain(d *Domain) error {
	if d.Name == "" {
		return errors.New("name is required")
	}
	if len(d.Questions) == 0 {
		return errors.New("at least one question is required")
	}
	seen := make(map[string]struct{}, len(d.Questions))
	for _, q := range d.Questions {
		if strings.TrimSpace(q.Prompt) == "" {
			return fmt.Errorf("question %s has an empty prompt", q.ID)
		}
		if q.Weight < 0 {
			return fmt.Errorf("question %s has a negative weight", q.ID)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("duplicate question id %s", q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}
