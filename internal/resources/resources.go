// Package resources implements MCP resource handlers for the pscale store.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (pscale://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/pscale/internal/memory"
)

// TreeURIPrefix is the URI prefix of per-namespace tree resources.
const TreeURIPrefix = "pscale://tree/"

// Handler manages pscale resource endpoints.
type Handler struct {
	store *memory.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *memory.Store) *Handler {
	return &Handler{store: store}
}

// namespaceInfo is one row of the namespace index.
type namespaceInfo struct {
	Prefix      string `json:"prefix"`
	Place       int    `json:"place"`
	Coordinates int    `json:"coordinates"`
	Literals    int    `json:"literals"`
	URI         string `json:"uri"`
}

// NamespacesResource returns the MCP resource definition for the namespace index.
func (h *Handler) NamespacesResource() mcp.Resource {
	return mcp.NewResource(
		"pscale://namespaces",
		"pscale Namespaces",
		mcp.WithResourceDescription("Every namespace prefix with its place and size"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleNamespaces returns the namespace index as JSON.
func (h *Handler) HandleNamespaces(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats := h.store.Stats()
	index := make([]namespaceInfo, 0, len(stats.Namespaces))
	for _, n := range stats.Namespaces {
		index = append(index, namespaceInfo{
			Prefix:      n.Prefix,
			Place:       n.Place,
			Coordinates: n.Coordinates,
			Literals:    n.Literals,
			URI:         TreeURIPrefix + n.Prefix,
		})
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling namespaces: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

// TreeTemplate returns the MCP resource template for one namespace record.
func (h *Handler) TreeTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		TreeURIPrefix+"{prefix}",
		"pscale Namespace Tree",
		mcp.WithTemplateDescription("The persisted record of one namespace: place, tree and literal keys"),
		mcp.WithTemplateMIMEType("application/json"),
	)
}

// HandleTree returns one namespace record as JSON.
func (h *Handler) HandleTree(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	prefix, ok := prefixFromURI(req.Params.URI)
	if !ok {
		return errorResource(req.Params.URI, "expected "+TreeURIPrefix+"{prefix}"), nil
	}
	data, ok := h.store.RecordJSON(prefix)
	if !ok {
		return errorResource(req.Params.URI, fmt.Sprintf("unknown namespace %q", prefix)), nil
	}
	return jsonResource(req.Params.URI, data), nil
}
