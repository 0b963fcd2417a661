package provider

import "sync"

// Manifest is the startup-time "kind -> name -> factory" table that
// replaces the source's dynamic package-metadata discovery (spec §9,
// first Design Note). Built-in providers register themselves into the
// global manifest from an init() in their package; out-of-tree providers
// register through the same Register call from a plugin's init(), giving
// a single discovery surface for both.
type Manifest struct {
	mu      sync.RWMutex
	entries map[Kind]map[string]Descriptor
}

var global = NewManifest()

func NewManifest() *Manifest {
	return &Manifest{entries: make(map[Kind]map[string]Descriptor)}
}

// Register adds a descriptor to the manifest. Panics on duplicate
// (kind, name) because that is a build-time programming error,
// not a runtime condition — mirrors how the teacher's adapter maps are
// built up in package-level init()s.
func (m *Manifest) Register(d Descriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[d.Kind] == nil {
		m.entries[d.Kind] = make(map[string]Descriptor)
	}
	if _, exists := m.entries[d.Kind][d.Name]; exists {
		panic("provider: duplicate registration for " + d.FullName())
	}
	m.entries[d.Kind][d.Name] = d
}

func (m *Manifest) Descriptors(kind Kind) []Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Descriptor, 0, len(m.entries[kind]))
	for _, d := range m.entries[kind] {
		out = append(out, d)
	}
	return out
}

func (m *Manifest) Lookup(kind Kind, name string) (Descriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.entries[kind][name]
	return d, ok
}

// Global returns the process-wide manifest that built-in provider
// packages register into from init().
func Global() *Manifest { return global }

// Register is sugar for Global().Register, used by provider package
// init() functions.
func Register(d Descriptor) { global.Register(d) }
