package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/pscale/internal/memory"
	"github.com/HendryAvila/pscale/internal/tree"
)

// NextMemoryTool handles the pscale_next_memory MCP tool.
type NextMemoryTool struct {
	store *memory.Store
}

// NewNextMemoryTool creates a NextMemoryTool.
func NewNextMemoryTool(store *memory.Store) *NextMemoryTool {
	return &NextMemoryTool{store: store}
}

// Definition returns the MCP tool definition for pscale_next_memory.
func (t *NextMemoryTool) Definition() mcp.Tool {
	return mcp.NewTool("pscale_next_memory",
		mcp.WithDescription(
			"Propose the next slot of an append-only log namespace. Slots 10, 20, 100, ... are "+
				"summary slots: write a summary of the listed entries there instead of a new entry.",
		),
		mcp.WithString("namespace",
			mcp.Description("Log namespace prefix (default: 'M')"),
		),
	)
}

// Handle processes the pscale_next_memory tool call.
func (t *NextMemoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix := strings.TrimSuffix(strings.TrimSpace(req.GetString("namespace", "")), ":")
	p := t.store.NextMemory(prefix)

	if p.Type == tree.ProposalEntry {
		return mcp.NewToolResultText(fmt.Sprintf("Next entry: %s", p.Coordinate)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Summary slot: %s\n\nSummarize these %d entries:\n", p.Coordinate, len(p.Summarize))
	writeCoords(&b, t.store, p.Summarize, memory.DetailStandard)
	return mcp.NewToolResultText(b.String()), nil
}

// ─── CompressionCheckTool ───────────────────────────────────────────────────

// CompressionCheckTool handles the pscale_compression_check MCP tool.
type CompressionCheckTool struct {
	store *memory.Store
}

// NewCompressionCheckTool creates a CompressionCheckTool.
func NewCompressionCheckTool(store *memory.Store) *CompressionCheckTool {
	return &CompressionCheckTool{store: store}
}

// Definition returns the MCP tool definition for pscale_compression_check.
func (t *CompressionCheckTool) Definition() mcp.Tool {
	return mcp.NewTool("pscale_compression_check",
		mcp.WithDescription(
			"Check whether a coordinate has all nine children 1-9 written. A full node is ready "+
				"to be compressed: read the children and write a synthesis with pscale_synthesize.",
		),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Coordinate to check (e.g. 'M:1', 'S:0')"),
		),
		detailLevelOption(),
	)
}

// Handle processes the pscale_compression_check tool call.
func (t *CompressionCheckTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	addr, errRes := addressArg(req)
	if errRes != nil {
		return errRes, nil
	}
	f := t.store.CheckFullness(addr)
	if !f.Full {
		n := 0
		for _, c := range t.store.Children(addr) {
			if c.Digit(c.Depth()-1) != 0 {
				n++
			}
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s is not full: %d of 9 children written.", addr, n)), nil
	}

	level := memory.ParseDetailLevel(req.GetString("detail_level", ""))
	var b strings.Builder
	fmt.Fprintf(&b, "%s is full. Synthesize these children:\n\n", addr)
	writeCoords(&b, t.store, f.Children, level)
	return mcp.NewToolResultText(b.String()), nil
}

// ─── SynthesizeTool ─────────────────────────────────────────────────────────

// SynthesizeTool handles the pscale_synthesize MCP tool.
type SynthesizeTool struct {
	store *memory.Store
}

// NewSynthesizeTool creates a SynthesizeTool.
func NewSynthesizeTool(store *memory.Store) *SynthesizeTool {
	return &SynthesizeTool{store: store}
}

// Definition returns the MCP tool definition for pscale_synthesize.
func (t *SynthesizeTool) Definition() mcp.Tool {
	return mcp.NewTool("pscale_synthesize",
		mcp.WithDescription(
			"Store a synthesis of a node's children as the node's own text. The synthesis "+
				"replaces the node's main channel; it never takes a new digit.",
		),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Coordinate whose children were summarized"),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("The synthesis text"),
		),
	)
}

// Handle processes the pscale_synthesize tool call.
func (t *SynthesizeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	addr, errRes := addressArg(req)
	if errRes != nil {
		return errRes, nil
	}
	summary := req.GetString("summary", "")
	if summary == "" {
		return mcp.NewToolResultError("'summary' is required"), nil
	}

	f, err := t.store.Synthesize(ctx, addr, summary)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to synthesize: %v", err)), nil
	}
	response := fmt.Sprintf("Synthesis stored at %s", addr)
	if !f.Full {
		response += " (note: the node was not full)"
	}
	return mcp.NewToolResultText(response), nil
}
