package coordinator

import (
	"context"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/provider"
	"github.com/corvid-assistant/corvid/internal/registry"
)

// LLM wraps the Universal Coordinator for the LLM capability.
type LLM struct {
	*Coordinator
}

func NewLLM(c *Coordinator) *LLM { return &LLM{Coordinator: c} }

func (l *LLM) Enhance(ctx context.Context, text, task string, providerName string, opts provider.LLMOpts) (string, error) {
	return resolve(l.Coordinator, providerName, func(inst registry.Instance) (string, error) {
		llm, ok := inst.Value.(provider.LLM)
		if !ok {
			return "", notLLM(inst)
		}
		if !supportsTask(llm.SupportedTasks(), task) {
			return "", corerrors.New(corerrors.ProviderFaulted, inst.Descriptor.FullName()+" does not support task "+task)
		}
		opts.Extra = l.filterKnownParams(inst.Descriptor.Name, llm.GetParameterSchema(), opts.Extra)
		return llm.Enhance(ctx, text, task, opts)
	})
}

func (l *LLM) Chat(ctx context.Context, messages []provider.ChatMessage, providerName string, opts provider.LLMOpts) (string, error) {
	return resolve(l.Coordinator, providerName, func(inst registry.Instance) (string, error) {
		llm, ok := inst.Value.(provider.LLM)
		if !ok {
			return "", notLLM(inst)
		}
		opts.Extra = l.filterKnownParams(inst.Descriptor.Name, llm.GetParameterSchema(), opts.Extra)
		return llm.Chat(ctx, messages, opts)
	})
}

func supportsTask(supported []string, want string) bool {
	if want == "" {
		return true
	}
	for _, s := range supported {
		if s == want {
			return true
		}
	}
	return false
}
