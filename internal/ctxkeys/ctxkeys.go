package ctxkeys

import "context"

// contextKey is the key type used to store values on a context.
type contextKey string

const (
	traceIDKey             contextKey = "trace_id"
	runIDKey               contextKey = "run_id"
	promptBundleVersionKey contextKey = "prompt_bundle_version"
	llmModelKey            contextKey = "llm_model"
	userIDKey              contextKey = "user_id"
	rolesKey               contextKey = "roles"
)

// WithTraceID attaches a trace ID to ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID reads the trace ID attached by WithTraceID.
func TraceID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(traceIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithRunID attaches a run ID to ctx.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID reads the run ID attached by WithRunID.
func RunID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithPromptBundleVersion attaches the active prompt bundle version to ctx.
func WithPromptBundleVersion(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, promptBundleVersionKey, version)
}

// PromptBundleVersion reads the prompt bundle version attached by
// WithPromptBundleVersion.
func PromptBundleVersion(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(promptBundleVersionKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithLLMModel attaches an LLM model override to ctx.
func WithLLMModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, llmModelKey, model)
}

// LLMModel reads the LLM model override attached by WithLLMModel.
func LLMModel(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(llmModelKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithUserID attaches the authenticated user ID (from a JWT claim) to ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID reads the authenticated user ID attached by WithUserID.
func UserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithRoles attaches the authenticated user's roles (from a JWT claim) to ctx.
func WithRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, rolesKey, roles)
}

// Roles reads the authenticated user's roles attached by WithRoles.
func Roles(ctx context.Context) ([]string, bool) {
	v, ok := ctx.Value(rolesKey).([]string)
	if !ok || len(v) == 0 {
		return nil, false
	}
	return v, true
}
