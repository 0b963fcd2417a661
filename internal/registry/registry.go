// Package registry implements the provider registry algorithm of spec
// §4.1: config is the sole gate on instantiation, a failing provider is
// logged and omitted rather than aborting startup, and hot reload applies
// an (add, remove, keep) diff under a write lock.
package registry

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/corvid-assistant/corvid/internal/config"
	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/provider"
	"github.com/corvid-assistant/corvid/pkg/logger"
)

// Instance is a live, instantiated provider alongside the descriptor it
// was built from.
type Instance struct {
	Descriptor provider.Descriptor
	Value      any
}

// Registry holds the live instances for one capability kind, keyed by
// name. Reads take the read lock; hot-reload takes the write lock for the
// duration of the diff application only, never while calling a factory.
type Registry struct {
	mu     sync.RWMutex
	kind   provider.Kind
	byName map[string]Instance
	log    *logger.Logger

	// inflight collapses concurrent instantiate calls for the same
	// provider full-name, so a Reload triggered by a config hot-reload
	// that overlaps the initial Scan (both racing on this registry)
	// never constructs the same provider's factory twice.
	inflight singleflight.Group
}

func New(kind provider.Kind, log *logger.Logger) *Registry {
	return &Registry{kind: kind, byName: make(map[string]Instance), log: log}
}

// Scan intersects the manifest's descriptors for this kind with
// config.ProviderEnabled, instantiates each, probes IsAvailable, and logs
// + omits any that fail — never aborting the scan (spec §4.1).
func (r *Registry) Scan(m *provider.Manifest, settings *config.Settings) {
	fresh := make(map[string]Instance)
	for _, d := range m.Descriptors(r.kind) {
		if !settings.ProviderEnabled(string(r.kind), d.Name) {
			continue
		}
		opts := settings.Providers[string(r.kind)][d.Name].Options
		inst, err := r.instantiateOnce(d, opts)
		if err != nil {
			r.log.With("kind", r.kind, "name", d.Name, "error", err).
				Warnw("provider instantiation failed, omitting")
			continue
		}
		fresh[d.Name] = inst
	}

	r.mu.Lock()
	r.byName = fresh
	r.mu.Unlock()
}

// instantiateOnce collapses concurrent instantiate calls for the same
// descriptor through r.inflight, so Scan and Reload racing on the same
// registry never double-construct one provider.
func (r *Registry) instantiateOnce(d provider.Descriptor, opts map[string]any) (Instance, error) {
	v, err, _ := r.inflight.Do(d.FullName(), func() (any, error) {
		return instantiate(d, opts)
	})
	if err != nil {
		return Instance{}, err
	}
	return v.(Instance), nil
}

func instantiate(d provider.Descriptor, opts map[string]any) (Instance, error) {
	v, err := d.Factory(opts)
	if err != nil {
		return Instance{}, corerrors.Wrap(corerrors.ProviderFaulted, "factory failed for "+d.FullName(), err)
	}
	base, ok := v.(provider.Base)
	if !ok {
		return Instance{}, corerrors.New(corerrors.Internal, d.FullName()+" does not implement provider.Base")
	}
	if !base.IsAvailable() {
		return Instance{}, corerrors.New(corerrors.ProviderUnavailable, d.FullName()+" reported unavailable")
	}
	return Instance{Descriptor: d, Value: v}, nil
}

// Get returns the live instance for name, or ProviderNotFound.
func (r *Registry) Get(name string) (Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.byName[name]
	if !ok {
		return Instance{}, corerrors.New(corerrors.ProviderNotFound, string(r.kind)+"."+name+" not in registry")
	}
	return inst, nil
}

// Names returns every currently-live provider name for this kind.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	return names
}

// Reload recomputes the (add, remove, keep) diff against a new settings
// snapshot: instances whose config entry is unchanged and still enabled
// are kept without re-instantiating; newly-enabled names are
// instantiated; newly-disabled or no-longer-declared names are dropped.
func (r *Registry) Reload(m *provider.Manifest, settings *config.Settings) {
	r.mu.RLock()
	kept := make(map[string]Instance, len(r.byName))
	for name, inst := range r.byName {
		kept[name] = inst
	}
	r.mu.RUnlock()

	fresh := make(map[string]Instance)
	for _, d := range m.Descriptors(r.kind) {
		if !settings.ProviderEnabled(string(r.kind), d.Name) {
			continue
		}
		if existing, ok := kept[d.Name]; ok {
			fresh[d.Name] = existing
			continue
		}
		opts := settings.Providers[string(r.kind)][d.Name].Options
		inst, err := r.instantiateOnce(d, opts)
		if err != nil {
			r.log.With("kind", r.kind, "name", d.Name, "error", err).
				Warnw("provider instantiation failed on reload, omitting")
			continue
		}
		fresh[d.Name] = inst
	}

	r.mu.Lock()
	r.byName = fresh
	r.mu.Unlock()
}
