package resources

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/pscale/internal/memory"
)

func newTestHandler(t *testing.T) (*Handler, *memory.Store) {
	t.Helper()
	cfg := memory.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewHandler(store), store
}

func readReq(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func text(t *testing.T, contents []mcp.ResourceContents) string {
	t.Helper()
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents is %T", contents[0])
	}
	return tc.Text
}

func TestHandleNamespaces(t *testing.T) {
	h, store := newTestHandler(t)
	if err := store.Write(context.Background(), "S:0", "world", ""); err != nil {
		t.Fatal(err)
	}

	out, err := h.HandleNamespaces(context.Background(), readReq("pscale://namespaces"))
	if err != nil {
		t.Fatalf("HandleNamespaces: %v", err)
	}
	var index []namespaceInfo
	if err := json.Unmarshal([]byte(text(t, out)), &index); err != nil {
		t.Fatalf("index is not JSON: %v", err)
	}
	if len(index) != 6 {
		t.Fatalf("got %d namespaces, want 6", len(index))
	}
	for _, n := range index {
		if n.Prefix == "S" && (n.Coordinates != 1 || n.URI != "pscale://tree/S") {
			t.Errorf("S entry = %+v", n)
		}
	}
}

func TestHandleTree(t *testing.T) {
	h, store := newTestHandler(t)
	if err := store.Write(context.Background(), "S:0.1", "north", ""); err != nil {
		t.Fatal(err)
	}

	out, err := h.HandleTree(context.Background(), readReq("pscale://tree/S"))
	if err != nil {
		t.Fatalf("HandleTree: %v", err)
	}
	var rec memory.Record
	if err := json.Unmarshal([]byte(text(t, out)), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec.Place != 1 || rec.Tree == nil {
		t.Errorf("record = %+v", rec)
	}
}

func TestHandleTree_Unknown(t *testing.T) {
	h, _ := newTestHandler(t)
	for _, uri := range []string{"pscale://tree/ZZ", "pscale://tree/", "pscale://other/S"} {
		out, err := h.HandleTree(context.Background(), readReq(uri))
		if err != nil {
			t.Fatalf("HandleTree(%s): %v", uri, err)
		}
		if got := text(t, out); !strings.HasPrefix(got, "Error:") {
			t.Errorf("HandleTree(%s) = %q, want error text", uri, got)
		}
	}
}

func TestPrefixFromURI(t *testing.T) {
	if p, ok := prefixFromURI("pscale://tree/ST:"); !ok || p != "ST" {
		t.Errorf("prefixFromURI = %q, %v", p, ok)
	}
}
