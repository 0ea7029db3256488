package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fedquery/gateway/llm"
	"github.com/fedquery/gateway/types"
)

// Assembler turns a question, ranked evidence, and chat history into a
// grounded answer via an llm.Provider.
type Assembler struct {
	provider llm.Provider
	model    string
	cfg      Config
	logger   *zap.Logger
}

// New builds an Assembler.
func New(provider llm.Provider, model string, cfg Config, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HistoryTurns == 0 {
		cfg = DefaultConfig()
	}
	return &Assembler{provider: provider, model: model, cfg: cfg, logger: logger}
}

func (a *Assembler) request(question string, history []types.ChatTurn, records []types.Record) (*llm.ChatRequest, PreflightResult, error) {
	sanitized, result, err := Preflight(question, a.cfg.MaxQueryChars)
	if err != nil {
		return nil, result, err
	}
	if result.HighRisk() {
		a.logger.Warn("rag: high-risk query flagged by preflight",
			zap.Int("match_count", result.MatchCount),
			zap.Strings("categories", result.Categories))
	}

	req := &llm.ChatRequest{
		Model: a.model,
		Messages: []types.Message{
			types.NewSystemMessage(BuildSystemPrompt()),
			types.NewUserMessage(BuildUserMessage(a.cfg, history, records, sanitized)),
		},
	}
	return req, result, nil
}

// Answer produces a full, non-streamed grounded completion.
func (a *Assembler) Answer(ctx context.Context, question string, records []types.Record, history []types.ChatTurn) (string, error) {
	req, _, err := a.request(question, history, records)
	if err != nil {
		return "", err
	}

	resp, err := a.provider.Completion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("rag: completion: %w", err)
	}
	return resp.Content, nil
}

// StreamAnswer produces the answer as incremental token chunks, passed
// through from the provider unchanged. The caller (the gateway) wraps
// these chunks in the SSE event envelope.
func (a *Assembler) StreamAnswer(ctx context.Context, question string, records []types.Record, history []types.ChatTurn) (<-chan llm.StreamChunk, error) {
	req, _, err := a.request(question, history, records)
	if err != nil {
		return nil, err
	}

	stream, err := a.provider.Stream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("rag: stream: %w", err)
	}
	return stream, nil
}

// NoEvidenceNotice says that no evidence was retrieved and the answer
// relies on chat history alone. Nothing in this module appends it; the
// gateway's chat handler adds its own gateway.NoEvidenceNote instead.
const NoEvidenceNotice = "No evidence was retrieved for this question from any configured service; this answer relies on conversation history only."
