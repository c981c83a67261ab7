package catalog

import (
	"fmt"
	"slices"
	"sync"
)

// Catalog is a registry of targets keyed by kind and name.
type Catalog struct {
	mu      sync.RWMutex
	targets map[Kind]map[string]*Target
}

// New creates a catalog holding the targets.
func New(targets ...*Target) *Catalog {
	c := &Catalog{targets: make(map[Kind]map[string]*Target)}
	for _, t := range targets {
		c.Register(t)
	}
	return c
}

// Register adds a target. It panics on a nil or unnamed target and on a
// second target of the same kind and name.
func (c *Catalog) Register(t *Target) {
	if t == nil {
		panic("target must not be nil")
	}
	if t.Name == "" {
		panic("target name must be provided")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	byName := c.targets[t.Kind]
	if byName == nil {
		byName = make(map[string]*Target)
		c.targets[t.Kind] = byName
	}
	if _, ok := byName[t.Name]; ok {
		panic(fmt.Sprintf("multiple %ss registered for: %q", t.Kind, t.Name))
	}
	byName[t.Name] = t
}

// Lookup returns the target of the kind registered under name.
func (c *Catalog) Lookup(kind Kind, name string) (*Target, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.targets[kind][name]
	return t, ok
}

// Names returns the sorted names of all targets of the kind.
func (c *Catalog) Names(kind Kind) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.targets[kind]))
	for name := range c.targets[kind] {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
