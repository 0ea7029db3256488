package rag

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fedquery/gateway/types"
)

// MaxQueryChars is the default length cap a question must clear before
// reaching prompt assembly.
const MaxQueryChars = 10000

// injectionPattern is one detection rule evaluated against an incoming
// question. Detection here is advisory: matches are logged and the input
// is sanitized, never silently rejected.
type injectionPattern struct {
	re          *regexp.Regexp
	description string
}

var injectionPatterns = []injectionPattern{
	{regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above|earlier)\s+(instructions?|prompts?|rules?)`), "instruction override"},
	{regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above|earlier)\s*(instructions?|prompts?|rules?)?`), "instruction override"},
	{regexp.MustCompile(`(?i)forget\s+(everything|all|what)\s*(you\s+)?(know|learned|were\s+told)?`), "instruction override"},
	{regexp.MustCompile(`(?i)(new|updated|override)\s+instructions?`), "instruction override"},
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|the)\b`), "role switching"},
	{regexp.MustCompile(`(?i)act\s+as\s+(if\s+you\s+are\s+)?(a|an|the)\b`), "role switching"},
	{regexp.MustCompile(`(?i)pretend\s+(to\s+be|you\s+are)\b`), "role switching"},
	{regexp.MustCompile(`(?i)^\s*system\s*:\s*`), "system prompt extraction"},
	{regexp.MustCompile(`(?i)^\s*assistant\s*:\s*`), "role marker injection"},
	{regexp.MustCompile(`(?i)reveal\s+(your\s+)?(system\s+prompt|instructions)`), "system prompt extraction"},
	{regexp.MustCompile(`(?i)<\s*system\s*>`), "delimiter marker"},
	{regexp.MustCompile(`(?i)\[\s*system\s*\]`), "delimiter marker"},
	{regexp.MustCompile(`(?i)###\s*system`), "delimiter marker"},
	{regexp.MustCompile(`(?i)(do\s+)?anything\s+now\b`), "jailbreak"},
	{regexp.MustCompile(`(?i)\bjailbreak\b`), "jailbreak"},
	{regexp.MustCompile(`(?i)\bDAN\b`), "jailbreak"},
	{regexp.MustCompile(`<\|[^|]*\|>`), "token marker"},
}

// repeatRun flags a single character repeated 20+ times, a cheap signal
// for adversarial padding attacks rather than natural language.
var repeatRun = regexp.MustCompile(`(.)\1{19,}`)

// PreflightResult reports what the security preflight observed in a query.
type PreflightResult struct {
	Flagged      bool
	MatchCount   int
	Categories   []string
	LengthCapped bool
}

// HighRisk reports whether the query crossed the advisory risk threshold:
// three or more distinct pattern hits, or a repetition red flag.
func (r PreflightResult) HighRisk() bool {
	return r.MatchCount >= 3 || r.Flagged
}

// Preflight runs the length cap, injection detector, and sanitizer over a
// raw user question. It never blocks on detection alone: err is returned
// only when the query exceeds maxChars, which the gateway surfaces as a
// 400 invalid-input response.
func Preflight(query string, maxChars int) (sanitized string, result PreflightResult, err error) {
	if maxChars <= 0 {
		maxChars = MaxQueryChars
	}
	if len(query) > maxChars {
		return "", PreflightResult{LengthCapped: true}, errQueryTooLong(len(query), maxChars)
	}

	result = detect(query)
	sanitized = sanitize(query)
	return sanitized, result, nil
}

func detect(query string) PreflightResult {
	seen := make(map[string]bool)
	var categories []string
	count := 0
	for _, p := range injectionPatterns {
		if p.re.MatchString(query) {
			count++
			if !seen[p.description] {
				seen[p.description] = true
				categories = append(categories, p.description)
			}
		}
	}
	repeated := repeatRun.MatchString(query)
	return PreflightResult{
		Flagged:    repeated,
		MatchCount: count,
		Categories: categories,
	}
}

var (
	nullByte        = "\x00"
	excessNewlines  = regexp.MustCompile(`\n{4,}`)
	tokenMarker     = regexp.MustCompile(`<\|[^|]*\|>`)
	systemDelimiter = regexp.MustCompile(`(?i)(^\s*system\s*:|###\s*system\b|\[\s*system\s*\])`)
)

func errQueryTooLong(got, max int) error {
	return types.NewError(types.ErrInvalidInput, fmt.Sprintf("query length %d exceeds the %d character cap", got, max))
}

// sanitize strips null bytes, collapses runs of 4+ newlines to 3, removes
// token-style markers, and defangs literal system-role delimiters.
func sanitize(query string) string {
	s := strings.ReplaceAll(query, nullByte, "")
	s = excessNewlines.ReplaceAllString(s, "\n\n\n")
	s = tokenMarker.ReplaceAllString(s, "")
	s = systemDelimiter.ReplaceAllString(s, "[defanged-system-marker]")
	return s
}
