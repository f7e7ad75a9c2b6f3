// Package reference holds the static code-to-label tables used to classify wounds
// and to populate selection inputs.
package reference

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table names.
const (
	WoundRegion     = "wound_region"
	WoundSubregion  = "wound_subregion"
	WoundType       = "wound_type"
	ExudateAmount   = "exudate_amount"
	ExudateType     = "exudate_type"
	TissueType      = "tissue_type"
	WoundEdges      = "wound_edges"
	SkinAround      = "skin_around"
	DressingChanges = "dressing_changes"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// ErrUnknownTable is returned when a table name is not part of the catalog.
var ErrUnknownTable = errors.New("unknown reference table")

// Option is one selectable code of a reference table.
type Option struct {
	Code   string `yaml:"code" json:"code"`
	Label  string `yaml:"label" json:"label"`
	Parent string `yaml:"parent,omitempty" json:"parent,omitempty"`
}

// Catalog is a read-only set of reference tables. It is safe for concurrent use
// because nothing mutates it after Load.
type Catalog struct {
	tables map[string][]Option
	labels map[string]map[string]string
}

type catalogFile struct {
	Tables map[string][]Option `yaml:"tables"`
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(embeddedCatalog)
	if err != nil {
		panic(fmt.Sprintf("reference: embedded catalog invalid: %v", err))
	}
	return c
}

// LoadFile reads a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a catalog from r.
func Load(r io.Reader) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse builds a catalog from YAML bytes. Codes must be unique within a table.
func Parse(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Tables) == 0 {
		return nil, errors.New("catalog has no tables")
	}

	c := &Catalog{
		tables: make(map[string][]Option, len(file.Tables)),
		labels: make(map[string]map[string]string, len(file.Tables)),
	}
	for name, opts := range file.Tables {
		name = strings.TrimSpace(name)
		labels := make(map[string]string, len(opts))
		for i, opt := range opts {
			code := strings.TrimSpace(opt.Code)
			if code == "" {
				return nil, fmt.Errorf("table %s: entry %d has empty code", name, i)
			}
			if _, dup := labels[code]; dup {
				return nil, fmt.Errorf("table %s: duplicate code %q", name, code)
			}
			opts[i].Code = code
			labels[code] = opt.Label
		}
		c.tables[name] = opts
		c.labels[name] = labels
	}
	return c, nil
}

// Tables lists table names in sorted order.
func (c *Catalog) Tables() []string {
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options returns a copy of a table's entries in catalog order.
func (c *Catalog) Options(table string) ([]Option, error) {
	opts, ok := c.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return append([]Option(nil), opts...), nil
}

// Children returns entries of table whose parent is the given code.
func (c *Catalog) Children(table, parent string) []Option {
	var out []Option
	for _, opt := range c.tables[table] {
		if opt.Parent == parent {
			out = append(out, opt)
		}
	}
	return out
}

// Label resolves a code to its display label.
func (c *Catalog) Label(table, code string) (string, bool) {
	label, ok := c.labels[table][code]
	return label, ok
}

// Has reports whether code exists in table.
func (c *Catalog) Has(table, code string) bool {
	_, ok := c.labels[table][code]
	return ok
}

// ParentOf returns the parent code of an entry, if any.
func (c *Catalog) ParentOf(table, code string) string {
	for _, opt := range c.tables[table] {
		if opt.Code == code {
			return opt.Parent
		}
	}
	return ""
}
