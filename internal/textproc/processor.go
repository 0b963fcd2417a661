package textproc

import "github.com/corvid-assistant/corvid/internal/corerrors"

// Processor applies every enabled normalizer whose stage set includes the
// requested stage, in configuration order (spec §4.3).
type Processor struct {
	chain []Normalizer
}

// NewProcessor builds a processor from an ordered, already-filtered
// normalizer chain. Config-driven enable/disable and ordering happens at
// construction time in the caller (internal/config-aware wiring), so the
// processor itself stays a pure function of its chain.
func NewProcessor(chain []Normalizer) *Processor {
	return &Processor{chain: append([]Normalizer(nil), chain...)}
}

// Apply runs text through every normalizer in the chain that declares the
// given stage, in order, short-circuiting on the first error.
func (p *Processor) Apply(text string, stage Stage) (string, error) {
	out := text
	for _, n := range p.chain {
		if !n.Stages()[stage] {
			continue
		}
		next, err := n.Normalize(out, stage)
		if err != nil {
			return "", corerrors.Wrap(corerrors.Internal, "normalizer "+n.Name()+" failed", err)
		}
		out = next
	}
	return out, nil
}
