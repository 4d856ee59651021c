package memtools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/pscale/internal/memory"
)

// ReadTool handles the pscale_read MCP tool.
type ReadTool struct {
	store *memory.Store
}

// NewReadTool creates a ReadTool with the given store.
func NewReadTool(store *memory.Store) *ReadTool {
	return &ReadTool{store: store}
}

// Definition returns the MCP tool definition for pscale_read.
func (t *ReadTool) Definition() mcp.Tool {
	return mcp.NewTool("pscale_read",
		mcp.WithDescription(
			"Read the text stored at a pscale coordinate. Addresses are 'PREFIX:digits' "+
				"(e.g. 'S:0.21', 'M:12') or a bare number in the default namespace. "+
				"An empty result means the coordinate is unwritten: a creative frontier.",
		),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Coordinate to read (e.g. 'S:0.21', 'M:', '12')"),
		),
		mcp.WithString("channel",
			mcp.Description("Dimension to read (e.g. 'v' or '_v'). Default: the main channel"),
		),
	)
}

// Handle processes the pscale_read tool call.
func (t *ReadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	addr, errRes := addressArg(req)
	if errRes != nil {
		return errRes, nil
	}
	channel := req.GetString("channel", "")

	text, ok := t.store.Read(addr, channel)
	if ok {
		return mcp.NewToolResultText(text), nil
	}

	msg := fmt.Sprintf("Nothing written at %s", addr)
	if channel != "" {
		msg += fmt.Sprintf(" on channel %q", channel)
		dims := t.store.Dimensions(addr)
		if s := suggestChannel(channel, dims); s != "" {
			msg += fmt.Sprintf(". Did you mean %q?", s)
		} else if len(dims) > 0 {
			msg += fmt.Sprintf(". Channels here: %s", strings.Join(dims, ", "))
		}
	}
	return mcp.NewToolResultText(msg + "."), nil
}

// ─── WriteTool ──────────────────────────────────────────────────────────────

// WriteTool handles the pscale_write MCP tool.
type WriteTool struct {
	store *memory.Store
}

// NewWriteTool creates a WriteTool.
func NewWriteTool(store *memory.Store) *WriteTool {
	return &WriteTool{store: store}
}

// Definition returns the MCP tool definition for pscale_write.
func (t *WriteTool) Definition() mcp.Tool {
	return mcp.NewTool("pscale_write",
		mcp.WithDescription(
			"Write text to a pscale coordinate. Missing parents are created; a coordinate that "+
				"gains a child keeps its own text as its summary. Writing 'M:' with channel 'conv' "+
				"stores the conversation transcript. Use pscale_next_memory to pick the next log slot.",
		),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Coordinate to write (e.g. 'S:0.21', 'M:13')"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Text to store"),
		),
		mcp.WithString("channel",
			mcp.Description("Dimension to write (e.g. 'v'). Default: the main channel"),
		),
	)
}

// Handle processes the pscale_write tool call.
func (t *WriteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	addr, errRes := addressArg(req)
	if errRes != nil {
		return errRes, nil
	}
	content := req.GetString("content", "")
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}
	channel := req.GetString("channel", "")

	if err := t.store.Write(ctx, addr, content, channel); err != nil {
		if errors.Is(err, memory.ErrInvalidNamespace) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to write: %v", err)), nil
	}

	response := fmt.Sprintf("Written to %s", addr)
	if channel != "" {
		response += fmt.Sprintf(" (channel %s)", channel)
	}
	return mcp.NewToolResultText(response), nil
}

// ─── DeleteTool ─────────────────────────────────────────────────────────────

// DeleteTool handles the pscale_delete MCP tool.
type DeleteTool struct {
	store *memory.Store
}

// NewDeleteTool creates a DeleteTool.
func NewDeleteTool(store *memory.Store) *DeleteTool {
	return &DeleteTool{store: store}
}

// Definition returns the MCP tool definition for pscale_delete.
func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("pscale_delete",
		mcp.WithDescription(
			"Remove one channel from a coordinate. Parents left empty are pruned. "+
				"Children of the coordinate are kept.",
		),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Coordinate to delete from"),
		),
		mcp.WithString("channel",
			mcp.Description("Dimension to remove. Default: the main channel"),
		),
	)
}

// Handle processes the pscale_delete tool call.
func (t *DeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	addr, errRes := addressArg(req)
	if errRes != nil {
		return errRes, nil
	}
	removed, err := t.store.Delete(ctx, addr, req.GetString("channel", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete: %v", err)), nil
	}
	if !removed {
		return mcp.NewToolResultText(fmt.Sprintf("Nothing to delete at %s.", addr)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted %s", addr)), nil
}
