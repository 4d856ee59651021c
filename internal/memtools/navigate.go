package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/pscale/internal/memory"
)

// ChildrenTool handles the pscale_children MCP tool.
type ChildrenTool struct {
	store *memory.Store
}

// NewChildrenTool creates a ChildrenTool.
func NewChildrenTool(store *memory.Store) *ChildrenTool {
	return &ChildrenTool{store: store}
}

// Definition returns the MCP tool definition for pscale_children.
func (t *ChildrenTool) Definition() mcp.Tool {
	return mcp.NewTool("pscale_children",
		mcp.WithDescription(
			"List the written child coordinates one level below an address, in digit order. "+
				"No children means the address is a frontier open for new detail.",
		),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Parent coordinate (e.g. 'S:0', 'S:' for the namespace root)"),
		),
		detailLevelOption(),
	)
}

// Handle processes the pscale_children tool call.
func (t *ChildrenTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	addr, errRes := addressArg(req)
	if errRes != nil {
		return errRes, nil
	}
	level := memory.ParseDetailLevel(req.GetString("detail_level", ""))

	kids := t.store.Children(addr)
	if len(kids) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("%s has no children: it is a frontier.", addr)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Children of %s (%d)\n\n", addr, len(kids))
	writeCoords(&b, t.store, kids, level)
	if level == memory.DetailSummary {
		b.WriteString(memory.SummaryFooter)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── SiblingsTool ───────────────────────────────────────────────────────────

// SiblingsTool handles the pscale_siblings MCP tool.
type SiblingsTool struct {
	store *memory.Store
}

// NewSiblingsTool creates a SiblingsTool.
func NewSiblingsTool(store *memory.Store) *SiblingsTool {
	return &SiblingsTool{store: store}
}

// Definition returns the MCP tool definition for pscale_siblings.
func (t *SiblingsTool) Definition() mcp.Tool {
	return mcp.NewTool("pscale_siblings",
		mcp.WithDescription(
			"List the other written coordinates that share the address's parent.",
		),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Coordinate whose siblings to list"),
		),
		detailLevelOption(),
	)
}

// Handle processes the pscale_siblings tool call.
func (t *SiblingsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	addr, errRes := addressArg(req)
	if errRes != nil {
		return errRes, nil
	}
	level := memory.ParseDetailLevel(req.GetString("detail_level", ""))

	sibs := t.store.Siblings(addr)
	if len(sibs) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("%s has no siblings.", addr)), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## Siblings of %s (%d)\n\n", addr, len(sibs))
	writeCoords(&b, t.store, sibs, level)
	return mcp.NewToolResultText(b.String()), nil
}

// ─── ParentTool ─────────────────────────────────────────────────────────────

// ParentTool handles the pscale_parent MCP tool.
type ParentTool struct {
	store *memory.Store
}

// NewParentTool creates a ParentTool.
func NewParentTool(store *memory.Store) *ParentTool {
	return &ParentTool{store: store}
}

// Definition returns the MCP tool definition for pscale_parent.
func (t *ParentTool) Definition() mcp.Tool {
	return mcp.NewTool("pscale_parent",
		mcp.WithDescription(
			"Step one level up from an address: 'S:0.21' → 'S:0.2', 'M:5' → 'M:'. "+
				"The parent's text is shown when it exists.",
		),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Coordinate whose parent to find"),
		),
	)
}

// Handle processes the pscale_parent tool call.
func (t *ParentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	addr, errRes := addressArg(req)
	if errRes != nil {
		return errRes, nil
	}
	p, ok := t.store.Parent(addr)
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("%s is a namespace root or a literal key: it has no parent.", addr)), nil
	}
	response := p.String()
	if text, ok := t.store.Read(p.String(), ""); ok {
		response += "\n\n" + text
	}
	return mcp.NewToolResultText(response), nil
}

// ─── ContextTool ────────────────────────────────────────────────────────────

// ContextTool handles the pscale_context MCP tool.
type ContextTool struct {
	store *memory.Store
}

// NewContextTool creates a ContextTool.
func NewContextTool(store *memory.Store) *ContextTool {
	return &ContextTool{store: store}
}

// Definition returns the MCP tool definition for pscale_context.
func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("pscale_context",
		mcp.WithDescription(
			"Show the chain from the most general written ancestor down to an address, "+
				"one line per level, each with its pscale and text. Use this to orient before writing.",
		),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Coordinate to contextualize"),
		),
		detailLevelOption(),
	)
}

// Handle processes the pscale_context tool call.
func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	addr, errRes := addressArg(req)
	if errRes != nil {
		return errRes, nil
	}
	level := memory.ParseDetailLevel(req.GetString("detail_level", ""))

	layers := t.store.ContextContent(addr)
	if len(layers) == 0 {
		chain := t.store.Context(addr)
		if len(chain) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("%s is a literal key: it has no context chain.", addr)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s: namespace is empty.", chain[len(chain)-1])), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Context of %s\n\n", addr)
	for _, l := range layers {
		snippet := memory.Snippet(l.Content, level)
		if snippet == "" {
			fmt.Fprintf(&b, "- [%d] %s\n", l.Pscale, l.Coordinate)
			continue
		}
		fmt.Fprintf(&b, "- [%d] %s: %s\n", l.Pscale, l.Coordinate, snippet)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── DimensionsTool ─────────────────────────────────────────────────────────

// DimensionsTool handles the pscale_dimensions MCP tool.
type DimensionsTool struct {
	store *memory.Store
}

// NewDimensionsTool creates a DimensionsTool.
func NewDimensionsTool(store *memory.Store) *DimensionsTool {
	return &DimensionsTool{store: store}
}

// Definition returns the MCP tool definition for pscale_dimensions.
func (t *DimensionsTool) Definition() mcp.Tool {
	return mcp.NewTool("pscale_dimensions",
		mcp.WithDescription(
			"List the channels written at a coordinate. '_' is the main text; other channels "+
				"(e.g. '_v' for a version, '_conv' for a transcript) sit alongside it.",
		),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Coordinate to inspect"),
		),
		mcp.WithBoolean("with_content",
			mcp.Description("Include each channel's text (default: false)"),
		),
	)
}

// Handle processes the pscale_dimensions tool call.
func (t *DimensionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	addr, errRes := addressArg(req)
	if errRes != nil {
		return errRes, nil
	}
	dims := t.store.Dimensions(addr)
	if len(dims) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No channels at %s.", addr)), nil
	}
	if !boolArg(req, "with_content", false) {
		return mcp.NewToolResultText(strings.Join(dims, ", ")), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Channels at %s\n\n", addr)
	for _, ch := range dims {
		text, _ := t.store.Read(addr, ch)
		fmt.Fprintf(&b, "### %s\n%s\n\n", ch, text)
	}
	return mcp.NewToolResultText(b.String()), nil
}
