// Package summarizer produces bounded natural-language summaries of
// commits, transcripts and source files. It never returns an error: when
// the model is unavailable it degrades to a deterministic keyword
// classifier, trading precision for availability.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// FallbackMarker is appended to every summary produced without the model,
// so callers and users can tell the degraded path was taken.
const FallbackMarker = "(Fallback: AI unavailable)"

const maxSummaryLen = 500

// Generator is the generative model dependency.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	gen Generator
	log *slog.Logger
}

func NewService(gen Generator, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{gen: gen, log: log}
}

const commitPrompt = `Analyze this Git commit and provide a concise, helpful summary. Focus on:
1. What type of change this is (feature, bugfix, refactor, etc.)
2. The main purpose and impact of the changes
3. Any important technical details

Keep the summary under 150 words and use a professional, informative tone.

Commit data:
%s`

// Summarize returns a summary of at most 500 characters. Model failures
// are absorbed here and never propagate.
func (s *Service) Summarize(ctx context.Context, text string) string {
	out, err := s.gen.Generate(ctx, fmt.Sprintf(commitPrompt, text))
	if err != nil {
		s.log.Warn("model summarization failed, using fallback", "error", err)
		return truncate(fallbackSummary(text))
	}
	return truncate(strings.TrimSpace(out))
}

const codePrompt = `You are onboarding a junior engineer. Explain in at most 100 words the purpose and role of the file %s within its project. Here is the code:

%s`

// SummarizeCode describes a source file's role, with the same degradation
// contract as Summarize.
func (s *Service) SummarizeCode(ctx context.Context, fileName, source string) string {
	out, err := s.gen.Generate(ctx, fmt.Sprintf(codePrompt, fileName, source))
	if err != nil {
		s.log.Warn("model code summarization failed, using fallback",
			"file", fileName, "error", err)
		return truncate(fmt.Sprintf("Source file %s. %s", fileName, FallbackMarker))
	}
	return truncate(strings.TrimSpace(out))
}

// fallbackCategory pairs are scanned in order against the whole text;
// the first match wins. The ordering is load-bearing: "fix test
// flakiness" classifies as a bug fix, not tests.
var fallbackCategories = []struct {
	keywords []string
	sentence string
}{
	{[]string{"fix", "bug", "error"}, "Bug fix or error correction."},
	{[]string{"feat", "add", "new"}, "New feature or functionality added."},
	{[]string{"update", "modify", "change"}, "Existing code updated or modified."},
	{[]string{"remove", "delete"}, "Code or features removed."},
	{[]string{"refactor"}, "Code refactored for better structure."},
	{[]string{"doc", "readme"}, "Documentation updated."},
	{[]string{"test"}, "Tests added or updated."},
	{[]string{"merge"}, "Branch merge with multiple changes."},
}

func fallbackSummary(text string) string {
	lower := strings.ToLower(text)

	sentence := "General improvements and updates."
	for _, cat := range fallbackCategories {
		if containsAny(lower, cat.keywords) {
			sentence = cat.sentence
			break
		}
	}
	return "Code changes detected. " + sentence + " " + FallbackMarker
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func truncate(s string) string {
	if len(s) <= maxSummaryLen {
		return s
	}
	// Back up to a rune boundary so the cut never splits a multi-byte
	// character in model output.
	cut := maxSummaryLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
