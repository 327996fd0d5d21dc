// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package telecommand

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default firmware tree layout, relative to the repository root
const (
	DefaultDefinitionsFile = "firmware/Core/Src/telecommands/telecommand_definitions.c"
	DefaultSourceDir       = "firmware"
)

// Options controls where Build looks for the telecommand table and the
// documented handler functions.
type Options struct {
	// DefinitionsFile is the file holding the telecommand table.
	DefinitionsFile string
	// SourceDir is scanned for handler docstrings.
	SourceDir string
	// SourceExtensions selects which files under SourceDir are scanned.
	SourceExtensions []string
	// SkipDirs are directory names never entered while scanning.
	SkipDirs []string
}

// DefaultOptions returns the layout of the CTS-SAT-1 firmware repository.
func DefaultOptions() Options {
	return Options{
		DefinitionsFile:  DefaultDefinitionsFile,
		SourceDir:        DefaultSourceDir,
		SourceExtensions: []string{".c"},
		SkipDirs:         []string{".git", "build"},
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.DefinitionsFile == "" {
		o.DefinitionsFile = def.DefinitionsFile
	}
	if o.SourceDir == "" {
		o.SourceDir = def.SourceDir
	}
	if len(o.SourceExtensions) == 0 {
		o.SourceExtensions = def.SourceExtensions
	}
	if o.SkipDirs == nil {
		o.SkipDirs = def.SkipDirs
	}
	return o
}

// Catalog is an immutable snapshot of the telecommand table, in table order.
// A new snapshot is produced by Build or Reload; nothing is cached globally.
type Catalog struct {
	root    string
	opts    Options
	defs    []Definition
	byName  map[string]int
	builtAt time.Time
}

// Build reads the firmware tree at root and returns a fresh catalog.
//
// A missing or duplicated telecommand table is a *StructuralParseError and
// no catalog is returned. Incomplete entries are kept and flagged; use
// Catalog.Strict to reject them.
func Build(root string, opts Options) (*Catalog, error) {
	opts = opts.withDefaults()

	definitionsPath := filepath.Join(root, filepath.FromSlash(opts.DefinitionsFile))
	table, err := os.ReadFile(definitionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read telecommand definitions: %w", err)
	}

	sources, err := ReadSources(filepath.Join(root, filepath.FromSlash(opts.SourceDir)), opts.SourceExtensions, opts.SkipDirs)
	if err != nil {
		return nil, err
	}

	cat, err := BuildFromSource(string(table), sources.Joined())
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", opts.DefinitionsFile, err)
	}
	cat.root = root
	cat.opts = opts
	return cat, nil
}

// BuildFromSource builds a catalog from in-memory text: the file holding the
// telecommand table and the concatenated source holding the handler docstrings.
func BuildFromSource(table, source string) (*Catalog, error) {
	defs, err := ParseDefinitions(table)
	if err != nil {
		return nil, err
	}

	for i := range defs {
		doc, ok := ExtractDocstring(defs[i].HandlerSymbol, source)
		if !ok {
			continue
		}
		defs[i].Docstring = doc
		defs[i].HasDocstring = true
		defs[i].ArgumentDescriptions, defs[i].ArgumentsDocumented = ExtractArgumentList(doc)
	}

	return newCatalog(defs), nil
}

func newCatalog(defs []Definition) *Catalog {
	c := &Catalog{
		defs:    defs,
		byName:  make(map[string]int, len(defs)),
		builtAt: time.Now(),
	}
	for i, d := range defs {
		if d.Name == "" {
			continue
		}
		if _, seen := c.byName[d.Name]; !seen {
			c.byName[d.Name] = i
		}
	}
	return c
}

// Reload rebuilds the catalog from the same tree and options. Catalogs built
// from in-memory source cannot be reloaded.
func (c *Catalog) Reload() (*Catalog, error) {
	if c.root == "" {
		return nil, errors.New("catalog was not built from a firmware tree")
	}
	return Build(c.root, c.opts)
}

// Root returns the firmware tree the catalog was built from.
func (c *Catalog) Root() string { return c.root }

// BuiltAt returns when the snapshot was taken.
func (c *Catalog) BuiltAt() time.Time { return c.builtAt }

// Len returns the number of entries, flagged ones included.
func (c *Catalog) Len() int { return len(c.defs) }

// Definitions returns a copy of every entry in table order.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, len(c.defs))
	for i, d := range c.defs {
		out[i] = d.clone()
	}
	return out
}

// Names returns the telecommand names in table order, skipping unnamed entries.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.defs))
	for _, d := range c.defs {
		if d.Name != "" {
			names = append(names, d.Name)
		}
	}
	return names
}

// Lookup returns the first definition with the given name.
func (c *Catalog) Lookup(name string) (Definition, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i].clone(), true
}

// MaxArgumentCount returns the largest argument count in the catalog.
func (c *Catalog) MaxArgumentCount() int {
	max := 0
	for _, d := range c.defs {
		if d.ArgumentCount > max {
			max = d.ArgumentCount
		}
	}
	return max
}

// Incomplete returns the flagged entries.
func (c *Catalog) Incomplete() []Definition {
	var out []Definition
	for _, d := range c.defs {
		if !d.Complete() {
			out = append(out, d.clone())
		}
	}
	return out
}

// Strict returns an *IncompleteCatalogError if any entry is flagged.
func (c *Catalog) Strict() error {
	if bad := c.Incomplete(); len(bad) > 0 {
		return &IncompleteCatalogError{Entries: bad}
	}
	return nil
}

// IncompleteCatalogError lists every table entry with missing required fields.
type IncompleteCatalogError struct {
	Entries []Definition
}

func (e *IncompleteCatalogError) Error() string {
	parts := make([]string, 0, len(e.Entries))
	for _, d := range e.Entries {
		parts = append(parts, fmt.Sprintf("%s (%s)", d.DisplayName(), strings.Join(d.MissingFields(), ", ")))
	}
	return fmt.Sprintf("%d telecommand struct(s) missing required fields: %s",
		len(e.Entries), strings.Join(parts, "; "))
}
