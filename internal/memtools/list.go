package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/pscale/internal/memory"
)

// ListTool handles the pscale_list MCP tool.
type ListTool struct {
	store *memory.Store
}

// NewListTool creates a ListTool.
func NewListTool(store *memory.Store) *ListTool {
	return &ListTool{store: store}
}

// Definition returns the MCP tool definition for pscale_list.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("pscale_list",
		mcp.WithDescription(
			"List written coordinates and literal keys in address order. Filter with a prefix "+
				"('S:0.2') or a glob ('S:0.2*', 'M:1?').",
		),
		mcp.WithString("pattern",
			mcp.Description("Address prefix or glob. Default: everything"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max entries (default: 50)"),
		),
		mcp.WithNumber("max_tokens",
			mcp.Description("Stop listing once the response reaches roughly this many tokens"),
		),
		detailLevelOption(),
	)
}

// Handle processes the pscale_list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pattern := req.GetString("pattern", "")
	limit := intArg(req, "limit", 50)
	budget := intArg(req, "max_tokens", 0)
	level := memory.ParseDetailLevel(req.GetString("detail_level", ""))

	entries, err := t.store.List(pattern)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No coordinates found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %d coordinates\n\n", len(entries))
	shown := 0
	for _, e := range entries {
		if limit > 0 && shown >= limit {
			break
		}
		if budget > 0 && memory.EstimateTokens(b.String()) >= budget {
			b.WriteString(memory.BudgetFooter(memory.EstimateTokens(b.String()), budget, shown, len(entries)))
			return mcp.NewToolResultText(b.String()), nil
		}

		line := "- " + e.Coordinate
		if len(e.Channels) > 1 {
			line += " [" + strings.Join(e.Channels, " ") + "]"
		}
		if e.Literal {
			line += " (literal)"
		}
		if snippet := memory.Snippet(e.Content, level); snippet != "" {
			line += ": " + snippet
		}
		b.WriteString(line + "\n")
		shown++
	}

	b.WriteString(memory.NavigationHint(shown, len(entries), "Narrow the pattern or raise the limit."))
	if level == memory.DetailSummary {
		b.WriteString(memory.SummaryFooter)
	}
	b.WriteString(memory.TokenFooter(memory.EstimateTokens(b.String())))
	return mcp.NewToolResultText(b.String()), nil
}
