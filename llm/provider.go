// Package llm provides the answer-generation provider abstraction used by
// the RAG assembler. It is deliberately narrow: no tool calling, no
// multimodal content, no provider registry — one grounded chat completion
// in, one answer (or stream of chunks) out.
package llm

import (
	"context"
	"time"

	"github.com/fedquery/gateway/types"
)

// Re-export the shared message/error types so callers only need to import
// one package for the common case.
type (
	Message   = types.Message
	Role      = types.Role
	Error     = types.Error
	ErrorCode = types.ErrorCode
)

const (
	RoleSystem    = types.RoleSystem
	RoleUser      = types.RoleUser
	RoleAssistant = types.RoleAssistant
)

// Provider is the unified interface every answer-generation backend
// implements: Anthropic, an OpenAI-compatible endpoint, or a test double.
type Provider interface {
	// Completion sends a synchronous chat request and returns the full answer.
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Stream sends a chat request and returns a channel of incremental
	// chunks. The channel is closed when the response completes or the
	// context is canceled.
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error)

	// HealthCheck performs a lightweight liveness check against the provider.
	HealthCheck(ctx context.Context) (*HealthStatus, error)

	// Name returns the provider's identifier, used in logs and metrics labels.
	Name() string
}

// HealthStatus is a provider-level health check result.
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
}

// ChatRequest is a request to generate a grounded answer.
type ChatRequest struct {
	RequestID   string    `json:"request_id"`
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

// ChatResponse is a complete, non-streamed answer.
type ChatResponse struct {
	ID        string    `json:"id,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model"`
	Content   string    `json:"content"`
	Usage     ChatUsage `json:"usage"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatUsage reports token accounting for a completion.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamChunk is one incremental piece of a streamed answer.
type StreamChunk struct {
	Delta        string `json:"delta"`
	FinishReason string `json:"finish_reason,omitempty"`
	Err          *Error `json:"error,omitempty"`
}

// IsRetryable reports whether err is a retryable provider error.
func IsRetryable(err error) bool {
	return types.IsRetryable(err)
}
