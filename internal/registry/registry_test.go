package registry

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/corvid-assistant/corvid/internal/config"
	"github.com/corvid-assistant/corvid/internal/provider"
	"github.com/corvid-assistant/corvid/pkg/logger"
)

type fakeProvider struct {
	available bool
}

func (f *fakeProvider) IsAvailable() bool                          { return f.available }
func (f *fakeProvider) GetParameterSchema() []provider.ParameterSpec { return nil }
func (f *fakeProvider) GetCapabilities() provider.Capabilities     { return provider.Capabilities{} }

func testManifest(available bool) *provider.Manifest {
	m := provider.NewManifest()
	m.Register(provider.Descriptor{
		Kind: provider.KindASR,
		Name: "ok",
		Factory: func(cfg map[string]any) (any, error) {
			return &fakeProvider{available: available}, nil
		},
	})
	m.Register(provider.Descriptor{
		Kind: provider.KindASR,
		Name: "disabled",
		Factory: func(cfg map[string]any) (any, error) {
			return &fakeProvider{available: true}, nil
		},
	})
	return m
}

func testSettings(enabledNames ...string) *config.Settings {
	byName := make(map[string]config.ProviderConfig)
	for _, n := range enabledNames {
		byName[n] = config.ProviderConfig{Enabled: true}
	}
	return &config.Settings{
		Providers: map[string]map[string]config.ProviderConfig{
			"asr": byName,
		},
	}
}

func TestRegistryScanOnlyEnabled(t *testing.T) {
	m := testManifest(true)
	settings := testSettings("ok")
	r := New(provider.KindASR, logger.New(true))

	r.Scan(m, settings)

	if _, err := r.Get("ok"); err != nil {
		t.Fatalf("expected enabled provider to be live, got error: %v", err)
	}
	if _, err := r.Get("disabled"); err == nil {
		t.Error("expected disabled provider to be absent from registry")
	}
}

func TestRegistryScanOmitsUnavailable(t *testing.T) {
	m := testManifest(false)
	settings := testSettings("ok")
	r := New(provider.KindASR, logger.New(true))

	r.Scan(m, settings)

	if _, err := r.Get("ok"); err == nil {
		t.Error("expected unavailable provider to be omitted, not erroring startup")
	}
}

func TestRegistryReloadKeepsExistingInstance(t *testing.T) {
	m := testManifest(true)
	r := New(provider.KindASR, logger.New(true))
	r.Scan(m, testSettings("ok"))

	before, err := r.Get("ok")
	if err != nil {
		t.Fatalf("expected ok to be live before reload: %v", err)
	}

	r.Reload(m, testSettings("ok"))

	after, err := r.Get("ok")
	if err != nil {
		t.Fatalf("expected ok to still be live after reload: %v", err)
	}
	if before.Value != after.Value {
		t.Error("expected reload to keep the same instance when config is unchanged")
	}
}

func TestInstantiateOnceCollapsesConcurrentCalls(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{}, 8)
	release := make(chan struct{})

	m := provider.NewManifest()
	m.Register(provider.Descriptor{
		Kind: provider.KindASR,
		Name: "ok",
		Factory: func(cfg map[string]any) (any, error) {
			calls.Add(1)
			entered <- struct{}{}
			<-release
			return &fakeProvider{available: true}, nil
		},
	})
	settings := testSettings("ok")
	r := New(provider.KindASR, logger.New(true))

	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			r.Scan(m, settings)
		}()
	}

	// Wait for at least one factory call to be in flight, then give the
	// rest of the goroutines a moment to queue up behind singleflight
	// before releasing the one real factory call.
	<-entered
	close(release)
	wg.Wait()

	if _, err := r.Get("ok"); err != nil {
		t.Fatalf("expected ok to be live after concurrent scans: %v", err)
	}
	if got := calls.Load(); got >= n {
		t.Errorf("expected singleflight to collapse concurrent factory calls below %d goroutines, got %d calls", n, got)
	}
}

func TestRegistryReloadRemovesDisabled(t *testing.T) {
	m := testManifest(true)
	r := New(provider.KindASR, logger.New(true))
	r.Scan(m, testSettings("ok", "disabled"))

	if len(r.Names()) != 2 {
		t.Fatalf("expected 2 live providers, got %v", r.Names())
	}

	r.Reload(m, testSettings("ok"))

	if _, err := r.Get("disabled"); err == nil {
		t.Error("expected 'disabled' to be removed after reload drops it from config")
	}
}
