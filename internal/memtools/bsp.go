package memtools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/pscale/internal/memory"
	"github.com/HendryAvila/pscale/internal/tree"
)

// BSPTool handles the pscale_bsp MCP tool.
type BSPTool struct {
	store *memory.Store
}

// NewBSPTool creates a BSPTool.
func NewBSPTool(store *memory.Store) *BSPTool {
	return &BSPTool{store: store}
}

// Definition returns the MCP tool definition for pscale_bsp.
func (t *BSPTool) Definition() mcp.Tool {
	return mcp.NewTool("pscale_bsp",
		mcp.WithDescription(
			"Block/spindle/point resolution over one namespace. With no spindle, returns the whole "+
				"tree (block). With a spindle such as '0.21', walks each digit from the root and returns "+
				"the text at every level, labelled by pscale (spindle). Adding a point returns only the "+
				"level whose pscale matches, or the deepest level reached.",
		),
		mcp.WithString("namespace",
			mcp.Description("Namespace prefix (e.g. 'S'). Default: the default namespace"),
		),
		mcp.WithString("spindle",
			mcp.Description("Digit path to walk, e.g. '0.21' or '23.41'. Every digit is a step, including a leading 0"),
		),
		mcp.WithNumber("point",
			mcp.Description("Pscale level to extract from the spindle (e.g. 0, -1)"),
		),
	)
}

// Handle processes the pscale_bsp tool call.
func (t *BSPTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix := strings.TrimSuffix(strings.TrimSpace(req.GetString("namespace", "")), ":")
	q := tree.Query{}

	switch v := req.GetArguments()["spindle"].(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			q.Spindle, q.HasSpindle = v, true
		}
	case float64:
		q.Spindle, q.HasSpindle = strconv.FormatFloat(v, 'f', 10, 64), true
	}
	if hasArg(req, "point") {
		if !q.HasSpindle {
			return mcp.NewToolResultError("'point' needs a 'spindle'"), nil
		}
		q.Point, q.HasPoint = intArg(req, "point", 0), true
	}

	res := t.store.BSP(prefix, q)
	if prefix == "" {
		prefix = t.store.DefaultNamespace()
	}

	switch res.Mode {
	case tree.ModeBlock:
		data, err := json.MarshalIndent(res.Block, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode block: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("## Block %s (place %d)\n\n```json\n%s\n```", prefix, res.Place, data)), nil

	case tree.ModePoint:
		if res.Point == nil {
			return mcp.NewToolResultText(fmt.Sprintf("Spindle %s:%s reaches nothing.", prefix, q.Spindle)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("[%d] %s", res.Point.Pscale, res.Point.Content)), nil
	}

	if len(res.Steps) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Spindle %s:%s reaches nothing.", prefix, q.Spindle)), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## Spindle %s:%s\n\n", prefix, q.Spindle)
	for _, s := range res.Steps {
		fmt.Fprintf(&b, "[%d] %d: %s\n", s.Pscale, s.Digit, s.Content)
	}
	return mcp.NewToolResultText(b.String()), nil
}
