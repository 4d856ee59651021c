// Package memtools provides MCP tool handlers over the pscale store.
//
// Each tool handler follows the same pattern:
// - A struct with dependencies (memory.Store) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Bad input is reported as a tool-result error, never as a Go error. The
// tools never interpret content: they move text in and out of coordinates
// for the model that called them.
package memtools

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/pscale/internal/coord"
	"github.com/HendryAvila/pscale/internal/memory"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// hasArg reports whether key was sent at all.
func hasArg(req mcp.CallToolRequest, key string) bool {
	_, ok := req.GetArguments()[key]
	return ok
}

// minSuggestion is the similarity below which no channel is suggested.
const minSuggestion = 0.7

// suggestChannel returns the channel in have closest to want, or "".
func suggestChannel(want string, have []string) string {
	want = strings.TrimPrefix(want, "_")
	best, bestScore := "", float32(0)
	for _, ch := range have {
		score, err := edlib.StringsSimilarity(want, strings.TrimPrefix(ch, "_"), edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = ch, score
		}
	}
	if bestScore < minSuggestion {
		return ""
	}
	return best
}

// addressArg reads the required "address" argument.
func addressArg(req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	addr := strings.TrimSpace(req.GetString("address", ""))
	if addr == "" {
		return "", mcp.NewToolResultError("'address' is required")
	}
	return addr, nil
}

// writeCoords renders a coordinate list, one per line, with each default
// channel shown at the requested detail level.
func writeCoords(b *strings.Builder, store *memory.Store, cs []coord.Coordinate, level string) {
	for _, c := range cs {
		text, _ := store.Read(c.String(), "")
		snippet := memory.Snippet(text, level)
		if snippet == "" {
			fmt.Fprintf(b, "- %s\n", c)
			continue
		}
		fmt.Fprintf(b, "- %s: %s\n", c, snippet)
	}
}

func detailLevelOption() mcp.ToolOption {
	return mcp.WithString("detail_level",
		mcp.Description(
			"Level of detail: 'summary' (coordinates only), "+
				"'standard' (default, 200-char snippets), 'full' (complete content).",
		),
		mcp.Enum(memory.DetailLevelValues()...),
	)
}
