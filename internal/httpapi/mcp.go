package httpapi

import (
	"context"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/corvid-assistant/corvid/internal/provider"
)

// newMCPHandler exposes the LLM coordinator's operations as MCP tools
// (spec §4.7/§11: "expose enhance/chat over MCP for agent clients"),
// using the official SDK's server-side API. Only client-side usage of
// this SDK is present in the pack (an MCP host connecting outbound to
// external servers); this file's server construction follows the same
// library's well-known public surface for the inbound direction.
func newMCPHandler(deps Dependencies) http.Handler {
	impl := &mcpsdk.Implementation{Name: "corvid", Version: "0.1.0"}
	server := mcpsdk.NewServer(impl, nil)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "enhance_text",
		Description: "Run the configured LLM's text-enhancement task over a transcript or draft response.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in enhanceInput) (*mcpsdk.CallToolResult, enhanceOutput, error) {
		text, err := deps.LLM.Enhance(ctx, in.Text, in.Task, in.Provider, provider.LLMOpts{})
		if err != nil {
			return nil, enhanceOutput{}, err
		}
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
		}, enhanceOutput{Text: text}, nil
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "chat",
		Description: "Send a chat-style message list to the configured LLM and return its reply.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in chatInput) (*mcpsdk.CallToolResult, chatOutput, error) {
		messages := make([]provider.ChatMessage, 0, len(in.Messages))
		for _, m := range in.Messages {
			messages = append(messages, provider.ChatMessage{Role: provider.ChatRole(m.Role), Content: m.Content})
		}
		reply, err := deps.LLM.Chat(ctx, messages, in.Provider, provider.LLMOpts{})
		if err != nil {
			return nil, chatOutput{}, err
		}
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: reply}},
		}, chatOutput{Reply: reply}, nil
	})

	return mcpsdk.NewStreamableHTTPHandler(func(r *http.Request) *mcpsdk.Server { return server }, nil)
}

type enhanceInput struct {
	Text     string `json:"text"`
	Task     string `json:"task"`
	Provider string `json:"provider,omitempty"`
}

type enhanceOutput struct {
	Text string `json:"text"`
}

type chatMessageInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatInput struct {
	Messages []chatMessageInput `json:"messages"`
	Provider string             `json:"provider,omitempty"`
}

type chatOutput struct {
	Reply string `json:"reply"`
}
