// Package ollama implements the built-in "ollama" LLM provider (spec
// §4.1), grounded on the teacher's pkg/assistant/providers/ollama: a
// multi-endpoint ollamafarm pool in front of the ollama API client,
// picking the first online farm member per call.
package ollama

import (
	"context"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/presbrey/ollamafarm"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/provider"
)

func init() {
	provider.Register(provider.Descriptor{
		Kind: provider.KindLLM,
		Name: "ollama",
		Factory: func(cfg map[string]any) (any, error) {
			return New(cfg), nil
		},
		PlatformDependencies: map[string][]string{"linux": {"ollama"}, "darwin": {"ollama"}},
		CredentialKeys:       nil, // ollama is unauthenticated by default
		SupportedPlatforms:   []string{"linux", "darwin", "windows"},
	})
}

// Provider wraps an ollamafarm.Farm, registering every configured
// endpoint once at construction (spec §4.1: "New must be total and
// perform no I/O" — RegisterURL only records the endpoint, the actual
// network probe happens lazily per request).
type Provider struct {
	farm         *ollamafarm.Farm
	defaultModel string
	endpoints    []string
}

// New builds a Provider from the provider's Options table:
// endpoints ([]string of base URLs) and default_model.
func New(cfg map[string]any) *Provider {
	farm := ollamafarm.New()
	endpoints := provider.StringSliceOpt(cfg, "endpoints", []string{"http://localhost:11434"})
	for _, ep := range endpoints {
		_ = farm.RegisterURL(ep, nil) // a dead endpoint is skipped at call time, not here
	}
	return &Provider{
		farm:         farm,
		defaultModel: provider.StringOpt(cfg, "default_model", "llama3"),
		endpoints:    endpoints,
	}
}

func (p *Provider) client() *ollamafarm.Client {
	return p.farm.First(&ollamafarm.Where{Offline: false})
}

// IsAvailable reports whether at least one registered endpoint answered
// online at farm-construction time or the last health sweep.
func (p *Provider) IsAvailable() bool {
	return p.client() != nil
}

func (p *Provider) GetParameterSchema() []provider.ParameterSpec {
	return []provider.ParameterSpec{
		{Name: "model", Kind: "string", Default: p.defaultModel},
		{Name: "temperature", Kind: "float", Default: 0.7},
	}
}

func (p *Provider) GetCapabilities() provider.Capabilities {
	return provider.Capabilities{Streaming: true, Concurrent: true}
}

func (p *Provider) AvailableModels() []string {
	client := p.client()
	if client == nil {
		return nil
	}
	list, err := client.Client().List(context.Background())
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		names = append(names, m.Name)
	}
	return names
}

func (p *Provider) SupportedTasks() []string {
	return []string{"enhance", "rewrite", "summarize"}
}

// Chat runs a single-shot chat completion, collecting the streamed
// response chunks ollama's client.Chat delivers via callback into one
// string (spec §4.1 LLM.chat contract is request/response, not
// streaming, at the coordinator boundary).
func (p *Provider) Chat(ctx context.Context, messages []provider.ChatMessage, opts provider.LLMOpts) (string, error) {
	client := p.client()
	if client == nil {
		return "", corerrors.New(corerrors.ProviderUnavailable, "ollama: no online farm endpoint")
	}

	model := opts.Model
	if model == "" {
		model = p.defaultModel
	}

	req := api.ChatRequest{
		Model:    model,
		Messages: toOllamaMessages(messages),
		Options: map[string]any{
			"temperature": floatOrDefault(opts.Temperature, 0.7),
		},
	}

	var sb strings.Builder
	fn := func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	}
	if err := client.Client().Chat(ctx, &req, fn); err != nil {
		return "", corerrors.Wrap(corerrors.ProviderFaulted, "ollama chat failed", err)
	}
	return sb.String(), nil
}

// Enhance asks the model to perform task against text, wrapping it as a
// single system-instructed chat turn.
func (p *Provider) Enhance(ctx context.Context, text string, task string, opts provider.LLMOpts) (string, error) {
	messages := []provider.ChatMessage{
		{Role: provider.RoleSystem, Content: "You are a text " + task + " assistant. Respond with only the transformed text."},
		{Role: provider.RoleUser, Content: text},
	}
	return p.Chat(ctx, messages, opts)
}

func toOllamaMessages(in []provider.ChatMessage) []api.Message {
	out := make([]api.Message, 0, len(in))
	for _, m := range in {
		out = append(out, api.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func floatOrDefault(v float32, def float64) float64 {
	if v == 0 {
		return def
	}
	return float64(v)
}
