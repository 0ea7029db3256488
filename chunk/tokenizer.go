// Copyright 2026 Fedquery Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

package chunk

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer estimates or counts tokens for a target model family. The
// chunker never calls out to the model itself; token counts only bound
// how text is split.
type Tokenizer interface {
	// CountTokens returns the estimated or exact token count for text.
	CountTokens(text string) int
	// Name identifies the tokenizer for logging.
	Name() string
}

// modelEncodings maps recognized model-name prefixes to a tiktoken
// encoding, mirroring the OpenAI-family table the teacher's tokenizer
// package carries.
var modelEncodings = map[string]string{
	"gpt-4o":        "o200k_base",
	"gpt-4-turbo":   "cl100k_base",
	"gpt-4":         "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
	"claude":        "cl100k_base",
}

// TiktokenCounter counts tokens precisely via github.com/pkoukk/tiktoken-go.
// Initialization is lazy: the encoding table loads on first use.
type TiktokenCounter struct {
	model    string
	encoding string

	once    sync.Once
	enc     *tiktoken.Tiktoken
	initErr error
}

// NewTiktokenCounter returns a precise counter for model, resolving its
// tiktoken encoding by longest known prefix match, defaulting to
// cl100k_base when the model family is unrecognized.
func NewTiktokenCounter(model string) *TiktokenCounter {
	encoding := "cl100k_base"
	best := 0
	for prefix, enc := range modelEncodings {
		if len(prefix) > best && len(model) >= len(prefix) && model[:len(prefix)] == prefix {
			encoding = enc
			best = len(prefix)
		}
	}
	return &TiktokenCounter{model: model, encoding: encoding}
}

func (t *TiktokenCounter) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("chunk: init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

// CountTokens implements Tokenizer. On encoding-table load failure it
// falls back to the chars-per-token estimate rather than propagating an
// error the chunker interface has no room for.
func (t *TiktokenCounter) CountTokens(text string) int {
	if err := t.init(); err != nil {
		return NewEstimator(4.0).CountTokens(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

func (t *TiktokenCounter) Name() string { return "tiktoken[" + t.encoding + "]" }

// Estimator is the chars-per-token fallback used when no tiktoken
// encoding applies to the target model family. It distinguishes CJK
// from ASCII runs for a materially better estimate than a flat divide.
type Estimator struct {
	charsPerToken float64
}

// NewEstimator returns a character-count estimator. ratio is the
// default chars-per-token for non-CJK text; spec default is 4.0.
func NewEstimator(ratio float64) *Estimator {
	if ratio <= 0 {
		ratio = 4.0
	}
	return &Estimator{charsPerToken: ratio}
}

func (e *Estimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	total := utf8.RuneCountInString(text)
	cjk := 0
	for _, r := range text {
		if isCJK(r) {
			cjk++
		}
	}
	cjkTokens := float64(cjk) / 1.5
	asciiTokens := float64(total-cjk) / e.charsPerToken
	n := int(cjkTokens + asciiTokens)
	if n == 0 && total > 0 {
		n = 1
	}
	return n
}

func (e *Estimator) Name() string { return "estimator" }

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x3000 && r <= 0x303F) ||
		(r >= 0xFF00 && r <= 0xFFEF)
}

// ForModel returns the best available Tokenizer for model: a precise
// tiktoken counter for recognized families, the chars-per-token
// estimator otherwise.
func ForModel(model string) Tokenizer {
	for prefix := range modelEncodings {
		if len(model) >= len(prefix) && model[:len(prefix)] == prefix {
			return NewTiktokenCounter(model)
		}
	}
	return NewEstimator(4.0)
}
