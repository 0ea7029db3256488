// Copyright 2026 Fedquery Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

// Package chunk implements recursive, token-bounded document splitting
// for LLM context fit. It is generalized from agentflow's
// rag/chunking.go recursive splitter, extended with the separator
// hierarchy this system's specification prescribes (adding "; " and
// ", " tiers the original lacked) and narrowed to the single strategy
// the RAG assembler needs: recursive splitting with optional overlap,
// plus a greedy context-fitting helper for assembling evidence into a
// token budget.
package chunk

// separators is the recursive splitter's priority hierarchy, coarsest
// first. A part that alone exceeds the budget after a split recurses
// into the next entry.
var separators = []string{"\n\n\n", "\n\n", "\n", ". ", "! ", "? ", "; ", ", ", " "}

// Config tunes the chunker. Zero-value fields fall back to DefaultConfig.
type Config struct {
	MaxChunkSize    int // target max tokens per chunk (default 512)
	MinChunkSize    int // target min tokens per chunk (default 100)
	MaxChunksPerDoc int // hard cap on chunks emitted per document (default 50)
	ChunkOverlap    int // tokens of neighbour context injected at boundaries (default 0, disabled)
}

// DefaultConfig matches the specification's defaults.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize:    512,
		MinChunkSize:    100,
		MaxChunksPerDoc: 50,
		ChunkOverlap:    0,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = 512
	}
	if c.MinChunkSize <= 0 {
		c.MinChunkSize = 100
	}
	if c.MaxChunksPerDoc <= 0 {
		c.MaxChunksPerDoc = 50
	}
	return c
}

// Chunk is one splitter output: the text plus its estimated token count.
type Chunk struct {
	Text   string
	Tokens int
	Index  int
}

// Chunker splits documents for LLM context fit.
type Chunker struct {
	cfg       Config
	tokenizer Tokenizer
}

// New builds a Chunker. If tokenizer is nil, a chars-per-token
// Estimator is used.
func New(cfg Config, tokenizer Tokenizer) *Chunker {
	if tokenizer == nil {
		tokenizer = NewEstimator(4.0)
	}
	return &Chunker{cfg: cfg.withDefaults(), tokenizer: tokenizer}
}

// Split recursively splits text into chunks bounded by cfg.MaxChunkSize
// tokens, re-aggregating undersized parts up to the budget and
// recursing into finer separators when a part alone exceeds it. Falls
// back to a forced character split when all separators are exhausted.
func (c *Chunker) Split(text string) []Chunk {
	if text == "" {
		return nil
	}

	parts := c.recursiveSplit(text, 0)
	chunks := make([]Chunk, 0, len(parts))
	for i, p := range parts {
		if i >= c.cfg.MaxChunksPerDoc {
			break
		}
		chunks = append(chunks, Chunk{Text: p, Tokens: c.tokenizer.CountTokens(p), Index: i})
	}

	if c.cfg.ChunkOverlap > 0 {
		chunks = c.addOverlap(chunks)
	}
	return chunks
}

// recursiveSplit implements the separator hierarchy: split on
// separators[level], greedily re-aggregate pieces up to MaxChunkSize
// tokens, and recurse into level+1 for any piece that alone exceeds the
// budget. Exhausting all separators forces a character-boundary split.
func (c *Chunker) recursiveSplit(text string, level int) []string {
	if c.tokenizer.CountTokens(text) <= c.cfg.MaxChunkSize {
		return []string{text}
	}
	if level >= len(separators) {
		return c.forceSplit(text)
	}

	sep := separators[level]
	pieces := splitKeepDelim(text, sep)

	var out []string
	var current string
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		candidate := current + piece
		if c.tokenizer.CountTokens(candidate) <= c.cfg.MaxChunkSize {
			current = candidate
			continue
		}

		if current != "" {
			out = append(out, current)
			current = ""
		}

		if c.tokenizer.CountTokens(piece) > c.cfg.MaxChunkSize {
			out = append(out, c.recursiveSplit(piece, level+1)...)
		} else {
			current = piece
		}
	}
	if current != "" {
		out = append(out, current)
	}
	return mergeUndersized(out, c.cfg.MinChunkSize, c.cfg.MaxChunkSize, c.tokenizer)
}

// splitKeepDelim splits s on sep, reattaching sep to the end of each
// piece except the last so no separator characters are lost.
func splitKeepDelim(s, sep string) []string {
	if sep == "" {
		return []string{s}
	}
	var out []string
	for {
		idx := indexOf(s, sep)
		if idx < 0 {
			out = append(out, s)
			return out
		}
		out = append(out, s[:idx+len(sep)])
		s = s[idx+len(sep):]
	}
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// mergeUndersized coalesces adjacent pieces so runs below MinChunkSize
// tokens don't surface as their own chunk where avoidable, without ever
// pushing a merged piece over MaxChunkSize.
func mergeUndersized(pieces []string, minTokens, maxTokens int, tok Tokenizer) []string {
	if len(pieces) <= 1 {
		return pieces
	}
	var out []string
	current := pieces[0]
	for _, next := range pieces[1:] {
		if tok.CountTokens(current) < minTokens && tok.CountTokens(current+next) <= maxTokens {
			current += next
			continue
		}
		out = append(out, current)
		current = next
	}
	out = append(out, current)
	return out
}

// forceSplit is the last-resort character-based split used once every
// separator tier has been exhausted and a piece still exceeds the
// budget (e.g. one unbroken run of text with no whitespace).
func (c *Chunker) forceSplit(text string) []string {
	budgetChars := c.cfg.MaxChunkSize * 4 // chars-per-token approximation for sizing only
	if budgetChars <= 0 {
		budgetChars = 2048
	}
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); {
		end := start + budgetChars
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		start = end
	}
	return out
}

// addOverlap prepends/appends a trailing/leading excerpt (approximately
// ChunkOverlap tokens, estimated via chars-per-token) of each neighbour
// to preserve cross-boundary context.
func (c *Chunker) addOverlap(chunks []Chunk) []Chunk {
	overlapChars := c.cfg.ChunkOverlap * 4
	if overlapChars <= 0 {
		return chunks
	}
	out := make([]Chunk, len(chunks))
	for i, ch := range chunks {
		text := ch.Text
		if i > 0 {
			text = trailingExcerpt(chunks[i-1].Text, overlapChars) + text
		}
		if i < len(chunks)-1 {
			text = text + leadingExcerpt(chunks[i+1].Text, overlapChars)
		}
		out[i] = Chunk{Text: text, Tokens: c.tokenizer.CountTokens(text), Index: ch.Index}
	}
	return out
}

func trailingExcerpt(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[len(r)-maxChars:])
}

func leadingExcerpt(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[:maxChars])
}

// FitDocument is one candidate for context fitting: an identifier plus
// its text.
type FitDocument struct {
	ID   string
	Text string
}

// FitResult is one document accepted into a token budget, truncated if
// it was the partial final entry.
type FitResult struct {
	ID        string
	Text      string
	Tokens    int
	Truncated bool
}

// FitToBudget greedily accepts documents, in order, until the next
// would exceed budget tokens. The document that doesn't fully fit is
// truncated to exactly fill the remaining space, provided at least 100
// tokens of budget remain; otherwise it is dropped.
func (c *Chunker) FitToBudget(docs []FitDocument, budget int) []FitResult {
	const minPartialTokens = 100

	var out []FitResult
	remaining := budget
	for _, d := range docs {
		tokens := c.tokenizer.CountTokens(d.Text)
		if tokens <= remaining {
			out = append(out, FitResult{ID: d.ID, Text: d.Text, Tokens: tokens})
			remaining -= tokens
			continue
		}

		if remaining < minPartialTokens {
			break
		}
		truncated := c.truncateToTokens(d.Text, remaining)
		out = append(out, FitResult{ID: d.ID, Text: truncated, Tokens: c.tokenizer.CountTokens(truncated), Truncated: true})
		break
	}
	return out
}

// truncateToTokens trims text to approximately maxTokens by binary
// search on a chars-per-token estimate, refined against the real
// tokenizer count.
func (c *Chunker) truncateToTokens(text string, maxTokens int) string {
	runes := []rune(text)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if c.tokenizer.CountTokens(string(runes[:mid])) <= maxTokens {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return string(runes[:lo])
}
