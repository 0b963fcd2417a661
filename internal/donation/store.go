package donation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/pkg/logger"
)

// Snapshot is one immutable view of every loaded donation plus its
// compiled per-language matcher, swapped atomically on reload (mirrors
// config.Store's "never hand out a partially-updated view" discipline).
type Snapshot struct {
	// ByHandlerLanguage[handler][language] is the raw donation document.
	ByHandlerLanguage map[string]map[string]Donation
	// Matchers[language] is compiled from every handler's donation for
	// that language.
	Matchers map[string]*Matcher
}

func (s *Snapshot) donation(handler, language string) (Donation, bool) {
	byLang, ok := s.ByHandlerLanguage[handler]
	if !ok {
		return Donation{}, false
	}
	d, ok := byLang[language]
	return d, ok
}

// languages returns every distinct language present across handlers, so
// a fresh Store can compile one matcher per language even before any
// edit touches it.
func (s *Snapshot) languages() []string {
	set := make(map[string]bool)
	for _, byLang := range s.ByHandlerLanguage {
		for lang := range byLang {
			set[lang] = true
		}
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Store is the on-disk donation root (spec §4.5): one file per
// (handler, language), hot-reloadable and admin-editable, with the same
// atomic-snapshot-swap discipline as config.Store.
type Store struct {
	root      string
	threshold float64
	strict    bool
	log       *logger.Logger

	current atomic.Pointer[Snapshot]

	mu        sync.Mutex
	listeners []func(prev, next *Snapshot)
}

// NewStore loads every donation file under root (layout:
// root/<handler>/<language>.json) and compiles a matcher per language.
func NewStore(root string, threshold float64, strict bool, log *logger.Logger) (*Store, error) {
	snap, err := loadSnapshot(root, threshold, strict)
	if err != nil {
		return nil, err
	}
	st := &Store{root: root, threshold: threshold, strict: strict, log: log}
	st.current.Store(snap)
	return st, nil
}

// Get returns the current immutable snapshot.
func (s *Store) Get() *Snapshot {
	return s.current.Load()
}

// OnChange registers a callback invoked after a successful reload or
// admin edit, so the pipeline can pick up the new matcher without a
// restart.
func (s *Store) OnChange(fn func(prev, next *Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Reload re-reads every donation file from disk. A validation failure
// anywhere leaves the previous snapshot active (spec §4.5: a donation
// reload is all-or-nothing per the same ConfigInvalid-style policy
// config reload uses).
func (s *Store) Reload() error {
	next, err := loadSnapshot(s.root, s.threshold, s.strict)
	if err != nil {
		s.log.With("error", err).Warnw("donation reload failed, keeping previous version")
		return err
	}
	s.swap(next)
	s.log.Infow("donations reloaded")
	return nil
}

// ApplyEdit validates candidate against the immutable-key invariant and
// the lemma-sync/schema rules, then writes it to disk, recompiles the
// affected language's matcher, and swaps it in.
func (s *Store) ApplyEdit(handler, language string, candidate Donation) ([]ValidationWarning, error) {
	candidate.HandlerDomain = handler
	candidate.Language = language

	current := s.current.Load()
	if prev, ok := current.donation(handler, language); ok {
		if err := ValidateImmutableEdit(prev, candidate); err != nil {
			return nil, err
		}
	}

	warnings, err := Validate(candidate, ValidationOpts{Strict: s.strict})
	if err != nil {
		return nil, err
	}

	if err := writeDonationFile(s.root, handler, language, candidate); err != nil {
		return warnings, err
	}

	next := current.clone()
	byLang, ok := next.ByHandlerLanguage[handler]
	if !ok {
		byLang = make(map[string]Donation)
		next.ByHandlerLanguage[handler] = byLang
	}
	byLang[language] = candidate
	next.Matchers[language] = compileLanguage(next, language, s.threshold)

	s.swap(next)
	return warnings, nil
}

func (s *Store) swap(next *Snapshot) {
	prev := s.current.Swap(next)

	s.mu.Lock()
	listeners := append([]func(prev, next *Snapshot){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(prev, next)
	}
}

func (snap *Snapshot) clone() *Snapshot {
	out := &Snapshot{
		ByHandlerLanguage: make(map[string]map[string]Donation, len(snap.ByHandlerLanguage)),
		Matchers:          make(map[string]*Matcher, len(snap.Matchers)),
	}
	for handler, byLang := range snap.ByHandlerLanguage {
		copied := make(map[string]Donation, len(byLang))
		for lang, d := range byLang {
			copied[lang] = d
		}
		out.ByHandlerLanguage[handler] = copied
	}
	for lang, m := range snap.Matchers {
		out.Matchers[lang] = m
	}
	return out
}

func compileLanguage(snap *Snapshot, language string, threshold float64) *Matcher {
	var donations []Donation
	for _, byLang := range snap.ByHandlerLanguage {
		if d, ok := byLang[language]; ok {
			donations = append(donations, d)
		}
	}
	return Compile(donations, threshold)
}

func loadSnapshot(root string, threshold float64, strict bool) (*Snapshot, error) {
	snap := &Snapshot{
		ByHandlerLanguage: make(map[string]map[string]Donation),
		Matchers:          make(map[string]*Matcher),
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return snap, nil
		}
		return nil, corerrors.Wrap(corerrors.Internal, "failed to read donations root", err)
	}

	for _, handlerEntry := range entries {
		if !handlerEntry.IsDir() {
			continue
		}
		handler := handlerEntry.Name()
		handlerDir := filepath.Join(root, handler)

		files, err := os.ReadDir(handlerDir)
		if err != nil {
			return nil, corerrors.Wrap(corerrors.Internal, "failed to read handler donation dir", err)
		}

		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
				continue
			}
			language := strings.TrimSuffix(f.Name(), ".json")

			d, err := readDonationFile(filepath.Join(handlerDir, f.Name()))
			if err != nil {
				return nil, err
			}
			if _, err := Validate(d, ValidationOpts{Strict: strict}); err != nil {
				return nil, corerrors.Wrap(corerrors.DonationInvalid,
					fmt.Sprintf("donation %s/%s failed validation", handler, language), err)
			}

			if snap.ByHandlerLanguage[handler] == nil {
				snap.ByHandlerLanguage[handler] = make(map[string]Donation)
			}
			snap.ByHandlerLanguage[handler][language] = d
		}
	}

	for _, lang := range snap.languages() {
		snap.Matchers[lang] = compileLanguage(snap, lang, threshold)
	}
	return snap, nil
}

func readDonationFile(path string) (Donation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Donation{}, corerrors.Wrap(corerrors.Internal, "failed to read donation file", err)
	}
	var d Donation
	if err := json.Unmarshal(raw, &d); err != nil {
		return Donation{}, corerrors.Wrap(corerrors.DonationInvalid, "malformed donation file "+path, err)
	}
	return d, nil
}

func writeDonationFile(root, handler, language string, d Donation) error {
	dir := filepath.Join(root, handler)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return corerrors.Wrap(corerrors.Internal, "failed to create handler donation dir", err)
	}

	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return corerrors.Wrap(corerrors.Internal, "failed to encode donation", err)
	}

	path := filepath.Join(dir, language+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return corerrors.Wrap(corerrors.Internal, "failed to write donation file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return corerrors.Wrap(corerrors.Internal, "failed to finalize donation file", err)
	}
	return nil
}
