package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fedquery/gateway/types"
)

func TestBuildSystemPromptIncludesPreambleAndRole(t *testing.T) {
	prompt := BuildSystemPrompt()
	assert.Contains(t, prompt, "fixed for this session")
	assert.Contains(t, prompt, "Cite the source")
}

func TestBuildUserMessageIncludesHistoryEvidenceAndQuestion(t *testing.T) {
	cfg := DefaultConfig()
	history := []types.ChatTurn{
		{Role: types.RoleUser, Content: "what is our VPN policy"},
		{Role: types.RoleAssistant, Content: "see the security wiki"},
	}
	records := []types.Record{
		{Source: types.SourceWiki, Title: "VPN Policy", Content: strings.Repeat("x", 600)},
	}

	msg := BuildUserMessage(cfg, history, records, "how do I renew my VPN cert")

	assert.Contains(t, msg, "Prior conversation")
	assert.Contains(t, msg, "VPN Policy")
	assert.Contains(t, msg, "how do I renew my VPN cert")
	assert.Contains(t, msg, "…", "content beyond ExcerptChars must be truncated")
}

func TestBuildUserMessageNoEvidence(t *testing.T) {
	msg := BuildUserMessage(DefaultConfig(), nil, nil, "anything")
	assert.Contains(t, msg, "none retrieved")
}

func TestLastNTruncatesToMostRecent(t *testing.T) {
	turns := []types.ChatTurn{{Content: "1"}, {Content: "2"}, {Content: "3"}}
	got := lastN(turns, 2)
	assert.Equal(t, []types.ChatTurn{{Content: "2"}, {Content: "3"}}, got)
}
