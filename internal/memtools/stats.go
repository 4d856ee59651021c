package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/pscale/internal/memory"
)

// StatsTool handles the pscale_stats MCP tool.
type StatsTool struct {
	store *memory.Store
}

// NewStatsTool creates a StatsTool with the given store.
func NewStatsTool(store *memory.Store) *StatsTool {
	return &StatsTool{store: store}
}

// Definition returns the MCP tool definition for pscale_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("pscale_stats",
		mcp.WithDescription(
			"Show store statistics: namespaces with their place, written coordinates, extra channels and literal keys.",
		),
	)
}

// Handle processes the pscale_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := t.store.Stats()

	var sb strings.Builder
	sb.WriteString("## pscale Statistics\n\n")
	sb.WriteString(fmt.Sprintf("- **Namespaces**: %d\n", stats.TotalNamespaces))
	sb.WriteString(fmt.Sprintf("- **Coordinates**: %d\n", stats.TotalCoordinates))
	sb.WriteString(fmt.Sprintf("- **Channels**: %d\n", stats.TotalChannels))
	sb.WriteString(fmt.Sprintf("- **Literals**: %d\n\n", stats.TotalLiterals))

	sb.WriteString("| Namespace | Place | Coordinates | Channels | Literals | Bytes |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for _, n := range stats.Namespaces {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %d |\n",
			n.Prefix, n.Place, n.Coordinates, n.Channels, n.Literals, n.Bytes))
	}
	return mcp.NewToolResultText(sb.String()), nil
}
