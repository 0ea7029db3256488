package rag

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
	chunks  []string
	err     error
}

func (p *stubProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.ChatResponse{Content: p.content}, nil
}

func (p *stubProvider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	if p.err != nil {
		return nil, p.err
	}
	ch := make(chan llm.StreamChunk, len(p.chunks))
	for _, c := range p.chunks {
		ch <- llm.StreamChunk{Delta: c}
	}
	close(ch)
	return ch, nil
}

func (p *stubProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}

func (p *stubProvider) Name() string { return "stub" }

func TestAssemblerAnswerReturnsCompletion(t *testing.T) {
	p := &stubProvider{content: "VPN certs renew via the self-service portal (VPN Policy)."}
	a := New(p, "test-model", DefaultConfig(), nil)

	answer, err := a.Answer(context.Background(), "how do I renew my VPN cert",
		[]types.Record{{Source: types.SourceWiki, Title: "VPN Policy", Content: "renew via self-service portal"}}, nil)
	require.NoError(t, err)
	assert.Contains(t, answer, "self-service portal")
}

func TestAssemblerAnswerRejectsOverlongQuery(t *testing.T) {
	p := &stubProvider{content: "irrelevant"}
	a := New(p, "test-model", DefaultConfig(), nil)

	long := make([]byte, MaxQueryChars+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := a.Answer(context.Background(), string(long), nil, nil)
	assert.Error(t, err)
}

func TestAssemblerStreamAnswerPassesChunksThrough(t *testing.T) {
	p := &stubProvider{chunks: []string{"hel", "lo"}}
	a := New(p, "test-model", DefaultConfig(), nil)

	stream, err := a.StreamAnswer(context.Background(), "hi", nil, nil)
	require.NoError(t, err)

	var got string
	for chunk := range stream {
		got += chunk.Delta
	}
	assert.Equal(t, "hello", got)
}
