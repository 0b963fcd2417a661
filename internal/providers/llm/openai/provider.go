// Package openai implements the built-in "openai" LLM provider (spec
// §4.1), grounded on lookatitude-beluga-ai's openaicompat.Model: a thin
// wrapper around the openai-go Chat Completions client. The same
// client construction is reused by internal/providers/asr/openai for
// the Whisper-API ASR provider (spec §11: "also usable as an ASR
// (Whisper API) provider").
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/provider"
)

func init() {
	provider.Register(provider.Descriptor{
		Kind: provider.KindLLM,
		Name: "openai",
		Factory: func(cfg map[string]any) (any, error) {
			return New(cfg)
		},
		CredentialKeys:     []string{"api_key"},
		SupportedPlatforms: []string{"linux", "darwin", "windows"},
	})
}

// Provider wraps an openai.Client for chat completions.
type Provider struct {
	client       openai.Client
	defaultModel string
}

func New(cfg map[string]any) (*Provider, error) {
	apiKey := provider.StringOpt(cfg, "api_key", "")
	if apiKey == "" {
		return nil, corerrors.New(corerrors.DependencyMissing, "openai: providers.llm.openai.api_key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := provider.StringOpt(cfg, "base_url", ""); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Provider{
		client:       openai.NewClient(opts...),
		defaultModel: provider.StringOpt(cfg, "default_model", "gpt-4o-mini"),
	}, nil
}

func (p *Provider) IsAvailable() bool { return true }

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
	return []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1"}
}

func (p *Provider) SupportedTasks() []string {
	return []string{"enhance", "rewrite", "summarize"}
}

func (p *Provider) Chat(ctx context.Context, messages []provider.ChatMessage, opts provider.LLMOpts) (string, error) {
	model := opts.Model
	if model == "" {
		model = p.defaultModel
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toOpenAIMessages(messages),
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(float64(opts.Temperature))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", corerrors.Wrap(corerrors.ProviderFaulted, "openai chat failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", corerrors.New(corerrors.ProviderFaulted, "openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) Enhance(ctx context.Context, text string, task string, opts provider.LLMOpts) (string, error) {
	messages := []provider.ChatMessage{
		{Role: provider.RoleSystem, Content: "You are a text " + task + " assistant. Respond with only the transformed text."},
		{Role: provider.RoleUser, Content: text},
	}
	return p.Chat(ctx, messages, opts)
}

func toOpenAIMessages(in []provider.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(in))
	for _, m := range in {
		switch m.Role {
		case provider.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case provider.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
