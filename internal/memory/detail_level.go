// detail_level.go provides the verbosity levels and response footers shared
// by the pscale tools.
//
//   - summary: coordinates only
//   - standard: coordinates with truncated content
//   - full: complete content
package memory

import (
	"fmt"
	"unicode/utf8"
)

// Detail level constants.
const (
	DetailSummary  = "summary"
	DetailStandard = "standard"
	DetailFull     = "full"
)

// StandardSnippet is the content length shown per coordinate at the
// standard detail level.
const StandardSnippet = 200

// DetailLevelValues returns the enum values for MCP tool definitions.
func DetailLevelValues() []string {
	return []string{DetailSummary, DetailStandard, DetailFull}
}

// ParseDetailLevel normalizes a detail_level string, defaulting to "standard"
// for empty or unrecognized values.
func ParseDetailLevel(s string) string {
	switch s {
	case DetailSummary, DetailFull:
		return s
	default:
		return DetailStandard
	}
}

// Snippet renders content for a detail level.
func Snippet(content, level string) string {
	switch level {
	case DetailSummary:
		return ""
	case DetailFull:
		return content
	default:
		return Truncate(content, StandardSnippet)
	}
}

// Truncate shortens s to at most max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

// SummaryFooter is appended to summary-mode responses.
const SummaryFooter = "\n---\n💡 Use detail_level: standard or full to see content."

// NavigationHint returns a one-line footer when results are capped by a limit.
// Returns an empty string when all results fit or total is 0.
func NavigationHint(showing, total int, hint string) string {
	if total <= 0 || showing >= total {
		return ""
	}
	if hint != "" {
		return fmt.Sprintf("\n📊 Showing %d of %d. %s", showing, total, hint)
	}
	return fmt.Sprintf("\n📊 Showing %d of %d.", showing, total)
}

// ─── Token Estimation ───────────────────────────────────────────────────────

// EstimateTokens approximates the token count for a text string using the
// chars/4 heuristic. Returns 0 for empty strings, at least 1 otherwise.
func EstimateTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	tokens := n / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TokenFooter returns a one-line footer with the estimated token count
// for a tool response.
func TokenFooter(estimatedTokens int) string {
	return fmt.Sprintf("\n📏 ~%s tokens", formatNumber(estimatedTokens))
}

// BudgetFooter reports that a listing stopped at its token budget.
func BudgetFooter(tokensUsed, budget, shown, total int) string {
	return fmt.Sprintf("\n⚡ Budget: ~%s/%s tokens used. %d of %d coordinates shown. Narrow the pattern or raise max_tokens.",
		formatNumber(tokensUsed), formatNumber(budget), shown, total)
}

// formatNumber formats an integer with comma separators.
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if n < 1000 {
		return s
	}
	var out []byte
	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return string(out)
}
