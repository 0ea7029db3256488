// Package anthropic implements llm.Provider against the Anthropic Claude
// Messages API, using the official anthropic-sdk-go client rather than a
// hand-rolled HTTP+SSE transport. Grounded on agentflow's standalone Claude
// provider (Messages API has no OpenAI-compatible shape: system prompt is a
// top-level field, not a message with role "system"), trimmed to the
// single grounded-answer completion/stream path — no tool calling.
package anthropic

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/fedquery/gateway/llm"
)

// Config configures the Anthropic provider.
type Config struct {
	APIKey       string
	BaseURL      string // empty uses the SDK default
	DefaultModel string
	Timeout      time.Duration
}

// Provider implements llm.Provider against Anthropic's Messages API.
type Provider struct {
	client anthropic.Client
	cfg    Config
	logger *zap.Logger
}

// New creates a new Anthropic provider.
func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Provider{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
		logger: logger,
	}
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) model(req *llm.ChatRequest) anthropic.Model {
	if req.Model != "" {
		return anthropic.Model(req.Model)
	}
	if p.cfg.DefaultModel != "" {
		return anthropic.Model(p.cfg.DefaultModel)
	}
	return anthropic.ModelClaudeSonnet4_5
}

// split pulls any system-role messages out, since Anthropic carries the
// system prompt as a top-level field instead of a message in the array.
func split(msgs []llm.Message) (system string, turns []anthropic.MessageParam) {
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		case llm.RoleUser:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case llm.RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return system, turns
}

func wrapErr(err error) *llm.Error {
	return &llm.Error{Code: "LLM_ERROR", Message: err.Error(), HTTPStatus: 502, Retryable: true, Cause: err}
}

// Completion performs a non-streaming Messages API call.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	system, turns := split(req.Messages)
	maxTokens := int64(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:     p.model(req),
		MaxTokens: maxTokens,
		Messages:  turns,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapErr(err)
	}

	content := ""
	for _, block := range msg.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &llm.ChatResponse{
		ID:       msg.ID,
		Provider: p.Name(),
		Model:    string(msg.Model),
		Content:  content,
		Usage: llm.ChatUsage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
		CreatedAt: time.Now(),
	}, nil
}

// Stream performs a streaming Messages API call, translating Anthropic's
// message_start/content_block_delta/message_stop event sequence into
// llm.StreamChunk.
func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	system, turns := split(req.Messages)
	maxTokens := int64(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:     p.model(req),
		MaxTokens: maxTokens,
		Messages:  turns,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	stream := p.client.Messages.NewStreaming(ctx, params)

	ch := make(chan llm.StreamChunk)
	go func() {
		defer close(ch)
		for stream.Next() {
			event := stream.Current()
			switch delta := event.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				select {
				case <-ctx.Done():
					return
				case ch <- llm.StreamChunk{Delta: delta.Text}:
				}
			}
			if event.Type == "message_stop" {
				select {
				case <-ctx.Done():
				case ch <- llm.StreamChunk{FinishReason: "stop"}:
				}
				return
			}
		}
		if err := stream.Err(); err != nil {
			select {
			case <-ctx.Done():
			case ch <- llm.StreamChunk{Err: wrapErr(err)}:
			}
		}
	}()
	return ch, nil
}

// HealthCheck sends a minimal one-token completion to confirm reachability.
func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model(&llm.ChatRequest{}),
		MaxTokens: 1,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("ping"))},
	})
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}
