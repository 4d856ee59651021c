// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the store from configuration
// and injects it into the tools, prompts and resources that depend on it.
// No business logic lives here, only wiring.
package server

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/pscale/internal/config"
	"github.com/HendryAvila/pscale/internal/memory"
	"github.com/HendryAvila/pscale/internal/memtools"
	"github.com/HendryAvila/pscale/internal/prompts"
	"github.com/HendryAvila/pscale/internal/resources"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the store and must be called on
// shutdown (typically via defer). It is always non-nil.
func New(cfg *config.Config, logger *slog.Logger) (*server.MCPServer, func(), error) {
	store, err := memory.New(cfg.Memory(logger))
	if err != nil {
		return nil, noop, fmt.Errorf("opening store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("store close failed", "error", err)
		}
	}

	s := server.NewMCPServer(
		"pscale",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerTools(s, store)

	// --- Register prompts ---

	orientPrompt := prompts.NewOrientPrompt()
	s.AddPrompt(orientPrompt.Definition(), orientPrompt.Handle)

	compressPrompt := prompts.NewCompressPrompt()
	s.AddPrompt(compressPrompt.Definition(), compressPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.NamespacesResource(), resourceHandler.HandleNamespaces)
	s.AddResourceTemplate(resourceHandler.TreeTemplate(), resourceHandler.HandleTree)

	logger.Info("pscale server ready",
		"version", Version,
		"backend", cfg.Backend,
		"data_dir", cfg.DataDir,
		"namespaces", len(store.Prefixes()),
	)
	return s, cleanup, nil
}

// noop is the cleanup returned when the store failed to open.
func noop() {}

// registerTools registers every pscale MCP tool with the server.
func registerTools(s *server.MCPServer, store *memory.Store) {
	// --- Read & write ---
	readTool := memtools.NewReadTool(store)
	s.AddTool(readTool.Definition(), readTool.Handle)

	writeTool := memtools.NewWriteTool(store)
	s.AddTool(writeTool.Definition(), writeTool.Handle)

	deleteTool := memtools.NewDeleteTool(store)
	s.AddTool(deleteTool.Definition(), deleteTool.Handle)

	// --- Navigation ---
	childrenTool := memtools.NewChildrenTool(store)
	s.AddTool(childrenTool.Definition(), childrenTool.Handle)

	siblingsTool := memtools.NewSiblingsTool(store)
	s.AddTool(siblingsTool.Definition(), siblingsTool.Handle)

	parentTool := memtools.NewParentTool(store)
	s.AddTool(parentTool.Definition(), parentTool.Handle)

	contextTool := memtools.NewContextTool(store)
	s.AddTool(contextTool.Definition(), contextTool.Handle)

	dimensionsTool := memtools.NewDimensionsTool(store)
	s.AddTool(dimensionsTool.Definition(), dimensionsTool.Handle)

	// --- Resolution ---
	bspTool := memtools.NewBSPTool(store)
	s.AddTool(bspTool.Definition(), bspTool.Handle)

	// --- Growth & compression ---
	nextTool := memtools.NewNextMemoryTool(store)
	s.AddTool(nextTool.Definition(), nextTool.Handle)

	checkTool := memtools.NewCompressionCheckTool(store)
	s.AddTool(checkTool.Definition(), checkTool.Handle)

	synthTool := memtools.NewSynthesizeTool(store)
	s.AddTool(synthTool.Definition(), synthTool.Handle)

	// --- Overview ---
	listTool := memtools.NewListTool(store)
	s.AddTool(listTool.Definition(), listTool.Handle)

	statsTool := memtools.NewStatsTool(store)
	s.AddTool(statsTool.Definition(), statsTool.Handle)
}

// serverInstructions returns the system instructions that tell the AI
// how to use pscale effectively.
func serverInstructions() string {
	return `You have access to pscale, a store where every piece of text lives at a numeric coordinate.

## ADDRESSES

An address is NAMESPACE:DIGITS, for example S:0.21 or M:12.
- Each digit is one step down a tree. S:0.21 is child 1 of S:0.2, which is child 2 of S:0.
- Digits to the left are broader, digits to the right are finer. The "." marks where the
  namespace's own scale sits; it does not change which node is addressed.
- A bare number (12) uses the default namespace M.
- M: (no digits) is the namespace root. M:'s channel _conv holds the conversation transcript.

Default namespaces: S spatial, M memory log, T temporal, I identity, ST stash, C capabilities.

## HOW TO WORK

1. Orient first: pscale_context shows the chain from the broadest written level down to an
   address; pscale_children shows what detail exists below it.
2. A coordinate with no children is a frontier. Add detail there with pscale_write.
3. Use channels for parallel versions of the same node (channel "v" stores under "_v").
4. pscale_bsp walks a digit path in one call: every level's text, labelled by pscale.

## THE MEMORY LOG (M)

- Always ask pscale_next_memory where the next entry goes.
- When it proposes a summary slot (10, 20, ..., 100, ...), write a synthesis of the listed
  entries there instead of a new entry.
- pscale_compression_check tells you when a node has all nine children 1-9; store a
  synthesis of them with pscale_synthesize. A synthesis never takes a new digit.

## WHAT NOT TO DO

- Do not invent addresses with letters in the digits; those become flat literal keys.
- Do not write empty text; it is rejected.
- Do not delete a summary to make room; write beside it instead.`
}
