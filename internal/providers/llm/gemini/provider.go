// Package gemini implements the built-in "gemini" LLM provider (spec
// §4.1), grounded on the teacher's pkg/assistant/providers/gemini: a
// thin genai.Client wrapper authenticated via option.WithAPIKey.
package gemini

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/provider"
)

func init() {
	provider.Register(provider.Descriptor{
		Kind: provider.KindLLM,
		Name: "gemini",
		Factory: func(cfg map[string]any) (any, error) {
			return New(cfg)
		},
		CredentialKeys:     []string{"api_key"},
		SupportedPlatforms: []string{"linux", "darwin", "windows"},
	})
}

// Provider wraps a genai.Client. Construction requires an API key, so
// unlike ollama a missing key fails New outright rather than surfacing
// as IsAvailable()==false — the registry's "log and omit" path (spec
// §4.1) is exactly what absorbs this.
type Provider struct {
	client       *genai.Client
	defaultModel string
}

func New(cfg map[string]any) (*Provider, error) {
	apiKey := provider.StringOpt(cfg, "api_key", "")
	if apiKey == "" {
		return nil, corerrors.New(corerrors.DependencyMissing, "gemini: providers.llm.gemini.api_key is required")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, corerrors.Wrap(corerrors.ProviderFaulted, "gemini: client init failed", err)
	}
	return &Provider{
		client:       client,
		defaultModel: provider.StringOpt(cfg, "default_model", "gemini-1.5-flash-latest"),
	}, nil
}

func (p *Provider) IsAvailable() bool { return p.client != nil }

func (p *Provider) GetParameterSchema() []provider.ParameterSpec {
	return []provider.ParameterSpec{
		{Name: "model", Kind: "string", Default: p.defaultModel},
		{Name: "temperature", Kind: "float", Default: 0.7},
	}
}

func (p *Provider) GetCapabilities() provider.Capabilities {
	return provider.Capabilities{Streaming: false, Concurrent: true}
}

func (p *Provider) AvailableModels() []string {
	return []string{"gemini-1.5-flash-latest", "gemini-pro"}
}

func (p *Provider) SupportedTasks() []string {
	return []string{"enhance", "rewrite", "summarize"}
}

func (p *Provider) model(name string) *genai.GenerativeModel {
	if name == "" {
		name = p.defaultModel
	}
	m := p.client.GenerativeModel(name)
	return m
}

func (p *Provider) Chat(ctx context.Context, messages []provider.ChatMessage, opts provider.LLMOpts) (string, error) {
	m := p.model(opts.Model)
	m.SetTemperature(temperatureOrDefault(opts.Temperature))

	cs := m.StartChat()
	cs.History = toGeminiHistory(messages[:max(0, len(messages)-1)])

	var last provider.ChatMessage
	if len(messages) > 0 {
		last = messages[len(messages)-1]
	}

	resp, err := cs.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", corerrors.Wrap(corerrors.ProviderFaulted, "gemini chat failed", err)
	}
	return extractText(resp), nil
}

func (p *Provider) Enhance(ctx context.Context, text string, task string, opts provider.LLMOpts) (string, error) {
	m := p.model(opts.Model)
	m.SetTemperature(temperatureOrDefault(opts.Temperature))
	prompt := "Perform a " + task + " on the following text. Respond with only the transformed text.\n\n" + text

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", corerrors.Wrap(corerrors.ProviderFaulted, "gemini enhance failed", err)
	}
	return extractText(resp), nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String()
}

func toGeminiHistory(messages []provider.ChatMessage) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == provider.RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return out
}

func temperatureOrDefault(v float32) float32 {
	if v == 0 {
		return 0.7
	}
	return v
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
