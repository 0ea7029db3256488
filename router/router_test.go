package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedquery/gateway/llm"
	"github.com/fedquery/gateway/types"
)

type stubProvider struct {
	content string
	err     error
}

func (p *stubProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.ChatResponse{Content: p.content}, nil
}

func (p *stubProvider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	ch := make(chan llm.StreamChunk)
	close(ch)
	return ch, nil
}

func (p *stubProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}

func (p *stubProvider) Name() string { return "stub" }

func TestTierAMatchesTicketKey(t *testing.T) {
	analysis, ok := TierA("any update on ABC-123?")
	require.True(t, ok)
	assert.Equal(t, types.IntentTicketLookup, analysis.Intent)
	assert.Equal(t, []types.Source{types.SourceTickets}, analysis.RecommendedSources)
	assert.Equal(t, 0.95, analysis.Confidence)
}

func TestTierAMatchesDocumentationPhrase(t *testing.T) {
	analysis, ok := TierA("how to configure SSO")
	require.True(t, ok)
	assert.Equal(t, types.IntentDocumentation, analysis.Intent)
}

func TestTierANoMatch(t *testing.T) {
	_, ok := TierA("what did the team decide about pricing last quarter")
	assert.False(t, ok)
}

func TestTierBExtractsJSONAndReordersWebLast(t *testing.T) {
	p := &stubProvider{content: "here you go:\n```json\n" +
		`{"intent":"code_related","entities":["parser"],"sources":["web","code","wiki"],"per_source_queries":{},"confidence":0.7,"reasoning":"symbol lookup"}` +
		"\n```"}

	analysis, err := TierB(context.Background(), p, "test-model", "where is the parser defined")
	require.NoError(t, err)
	assert.Equal(t, types.IntentCodeRelated, analysis.Intent)
	require.Len(t, analysis.RecommendedSources, 3)
	assert.Equal(t, types.SourceWeb, analysis.RecommendedSources[2], "web must be reordered to last")
}

func TestTierBNoJSONReturnsError(t *testing.T) {
	p := &stubProvider{content: "I cannot classify this."}
	_, err := TierB(context.Background(), p, "test-model", "hello")
	assert.Error(t, err)
}

func TestRouteFallsBackWhenTierAAndTierBFail(t *testing.T) {
	p := &stubProvider{content: "no json here"}
	r := New(p, "test-model", nil, nil)
	decision := r.Route(context.Background(), "what did the team decide about pricing last quarter")
	assert.Equal(t, types.IntentGeneralKnowledge, decision.Analysis.Intent)
	assert.Equal(t, "fallback", decision.Analysis.Tier)
	assert.False(t, decision.RequiresSetup)
}

func TestRouteRequiresSetupWhenTicketSourceUnavailable(t *testing.T) {
	available := func(s types.Source) bool { return s != types.SourceTickets }
	r := New(nil, "", available, nil)
	decision := r.Route(context.Background(), "status of ABC-999")
	assert.True(t, decision.RequiresSetup)
	assert.Equal(t, types.SourceTickets, decision.MissingSource)
}

func TestRouteProceedsWhenRequiredSourceAvailable(t *testing.T) {
	r := New(nil, "", nil, nil)
	decision := r.Route(context.Background(), "status of ABC-999")
	assert.False(t, decision.RequiresSetup)
	assert.Equal(t, types.IntentTicketLookup, decision.Analysis.Intent)
}
