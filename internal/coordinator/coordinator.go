// Package coordinator implements the Universal Coordinator pattern of
// spec §4.2: one coordinator per capability, wrapping a registry with
// default-provider selection, fallback-on-fault, and the tie-break
// policies (unknown parameter dropped, language mismatch falls back,
// streaming request served buffered unless strict).
package coordinator

import (
	"sync"
	"sync/atomic"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/provider"
	"github.com/corvid-assistant/corvid/internal/registry"
	"github.com/corvid-assistant/corvid/pkg/logger"
)

// ProviderInfo is what list_providers() exposes per name (spec §4.2).
type ProviderInfo struct {
	Name         string
	Available    bool
	Parameters   []provider.ParameterSpec
	Capabilities provider.Capabilities
}

// Coordinator is the generic capability-agnostic half of the Universal
// Coordinator: default-name selection, fallback order, and atomic
// set_default. Capability-specific Invoke wrappers (ASR/TTS/Audio/LLM)
// embed this and add the typed operation on top.
type Coordinator struct {
	reg  *registry.Registry
	log  *logger.Logger

	mu            sync.RWMutex
	defaultName   atomic.Pointer[string]
	fallbackOrder []string
}

func New(reg *registry.Registry, log *logger.Logger, defaultName string, fallbackOrder []string) *Coordinator {
	c := &Coordinator{reg: reg, log: log, fallbackOrder: append([]string(nil), fallbackOrder...)}
	c.defaultName.Store(&defaultName)
	return c
}

// DefaultName returns the currently configured default provider name.
func (c *Coordinator) DefaultName() string {
	p := c.defaultName.Load()
	if p == nil {
		return ""
	}
	return *p
}

// SetDefault validates name is loaded in the registry, then atomically
// swaps the default (spec §4.2 set_default).
func (c *Coordinator) SetDefault(name string) error {
	if _, err := c.reg.Get(name); err != nil {
		return err
	}
	c.defaultName.Store(&name)
	return nil
}

// ListProviders returns availability/parameters/capabilities for every
// live provider name (spec §4.2 list_providers).
func (c *Coordinator) ListProviders() []ProviderInfo {
	names := c.reg.Names()
	out := make([]ProviderInfo, 0, len(names))
	for _, name := range names {
		inst, err := c.reg.Get(name)
		if err != nil {
			continue
		}
		base, ok := inst.Value.(provider.Base)
		if !ok {
			continue
		}
		out = append(out, ProviderInfo{
			Name:         name,
			Available:    base.IsAvailable(),
			Parameters:   base.GetParameterSchema(),
			Capabilities: base.GetCapabilities(),
		})
	}
	return out
}

// candidateOrder returns the name to try first (the explicit request, or
// the default) followed by fallback_order, skipping duplicates and names
// already tried.
func (c *Coordinator) candidateOrder(requested string) []string {
	c.mu.RLock()
	fallback := append([]string(nil), c.fallbackOrder...)
	c.mu.RUnlock()

	first := requested
	if first == "" {
		first = c.DefaultName()
	}

	seen := map[string]bool{}
	order := make([]string, 0, 1+len(fallback))
	if first != "" {
		order = append(order, first)
		seen[first] = true
	}
	for _, n := range fallback {
		if !seen[n] {
			order = append(order, n)
			seen[n] = true
		}
	}
	return order
}

// resolve walks the candidate order, calling attempt for each live
// provider instance in turn; it stops at the first success, the first
// error that is not Recoverable, or after exhausting all candidates
// (spec §4.2 invoke fallback rule).
func resolve[T any](c *Coordinator, requested string, attempt func(inst registry.Instance) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for _, name := range c.candidateOrder(requested) {
		inst, err := c.reg.Get(name)
		if err != nil {
			lastErr = err
			continue
		}
		result, err := attempt(inst)
		if err == nil {
			return result, nil
		}
		if !corerrors.Recoverable(err) {
			return zero, err
		}
		c.log.With("provider", name, "error", err).Warnw("provider faulted, trying fallback")
		lastErr = err
	}

	if lastErr == nil {
		lastErr = corerrors.New(corerrors.ProviderNotFound, "no candidate provider available")
	}
	return zero, lastErr
}
