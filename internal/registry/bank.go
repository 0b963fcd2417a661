package registry

import (
	"golang.org/x/sync/errgroup"

	"github.com/corvid-assistant/corvid/internal/config"
	"github.com/corvid-assistant/corvid/internal/provider"
	"github.com/corvid-assistant/corvid/pkg/logger"
)

// Bank owns one Registry per capability kind and wires hot reload to a
// config.Store, so a single config change fans out to every kind's diff
// in one pass (spec §4.1 registry algorithm + §3 hot-reload contract).
type Bank struct {
	manifest *provider.Manifest
	log      *logger.Logger

	ASR      *Registry
	TTS      *Registry
	Audio    *Registry
	LLM      *Registry
	WakeWord *Registry
}

func NewBank(m *provider.Manifest, log *logger.Logger) *Bank {
	return &Bank{
		manifest: m,
		log:      log,
		ASR:      New(provider.KindASR, log),
		TTS:      New(provider.KindTTS, log),
		Audio:    New(provider.KindAudio, log),
		LLM:      New(provider.KindLLM, log),
		WakeWord: New(provider.KindWakeWord, log),
	}
}

func (b *Bank) all() []*Registry {
	return []*Registry{b.ASR, b.TTS, b.Audio, b.LLM, b.WakeWord}
}

// ScanAll performs the startup scan for every kind concurrently — each
// Registry owns an independent map, so the five kinds' scans (each of
// which may dial out to construct a provider client) don't need to run
// one after another.
func (b *Bank) ScanAll(settings *config.Settings) {
	var g errgroup.Group
	for _, r := range b.all() {
		r := r
		g.Go(func() error {
			r.Scan(b.manifest, settings)
			return nil
		})
	}
	_ = g.Wait()
}

// ReloadAll performs the hot-reload diff for every kind concurrently.
// Intended as a config.Store.OnChange callback.
func (b *Bank) ReloadAll(_, next *config.Settings) {
	var g errgroup.Group
	for _, r := range b.all() {
		r := r
		g.Go(func() error {
			r.Reload(b.manifest, next)
			return nil
		})
	}
	_ = g.Wait()
}

// AttachTo registers ReloadAll as a config.Store change listener.
func (b *Bank) AttachTo(store *config.Store) {
	store.OnChange(func(prev, next *config.Settings) {
		b.ReloadAll(prev, next)
	})
}
