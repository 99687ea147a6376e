package plugin

import (
	"fmt"
	"sort"
)

// Catalog is a native load unit: a private table of class descriptors and
// typed factories. Plugin packages build a fresh catalog on demand instead
// of registering into process-wide state.
type Catalog struct {
	name    string
	entries map[string]catalogEntry
}

type catalogEntry struct {
	desc    Descriptor
	factory Factory
}

// NewCatalog creates an empty catalog.
func NewCatalog(name string) *Catalog {
	return &Catalog{
		name:    name,
		entries: make(map[string]catalogEntry),
	}
}

// Register adds a class to the catalog.
func (c *Catalog) Register(desc Descriptor, factory Factory) error {
	if desc.Class == "" {
		return fmt.Errorf("catalog %q: class name required", c.name)
	}
	if _, exists := c.entries[desc.Class]; exists {
		return fmt.Errorf("catalog %q: %w: %s", c.name, ErrDuplicateClass, desc.Class)
	}
	c.entries[desc.Class] = catalogEntry{desc: desc.withDefaults(), factory: factory}
	return nil
}

// MustRegister is like Register but panics on error. Intended for catalog
// constructors whose class names are static.
func (c *Catalog) MustRegister(desc Descriptor, factory Factory) *Catalog {
	if err := c.Register(desc, factory); err != nil {
		panic(err)
	}
	return c
}

// Name implements Unit.
func (c *Catalog) Name() string {
	return c.name
}

// Classes implements Unit.
func (c *Catalog) Classes() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve implements Unit.
func (c *Catalog) Resolve(class string) (Descriptor, Factory, error) {
	e, ok := c.entries[class]
	if !ok {
		return Descriptor{}, Factory{}, &NotFoundError{Unit: c.name, Class: class}
	}
	return e.desc, e.factory, nil
}

// Close implements Unit. Catalogs hold no resources.
func (c *Catalog) Close() error {
	return nil
}
