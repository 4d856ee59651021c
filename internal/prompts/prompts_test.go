package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, r *mcp.GetPromptResult) string {
	t.Helper()
	if r == nil || len(r.Messages) != 1 {
		t.Fatalf("got %+v, want one message", r)
	}
	tc, ok := r.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T", r.Messages[0].Content)
	}
	return tc.Text
}

func TestOrientPrompt(t *testing.T) {
	p := NewOrientPrompt()
	if p.Definition().Name != "pscale-orient" {
		t.Errorf("name = %q", p.Definition().Name)
	}

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"address": "T:1.2"}
	r, err := p.Handle(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if got := promptText(t, r); !strings.Contains(got, "address='T:1.2'") {
		t.Errorf("prompt should target the address: %s", got)
	}

	r, _ = p.Handle(context.Background(), mcp.GetPromptRequest{})
	if got := promptText(t, r); !strings.Contains(got, "address='S:0'") {
		t.Errorf("default address missing: %s", got)
	}
}

func TestCompressPrompt(t *testing.T) {
	p := NewCompressPrompt()
	if p.Definition().Name != "pscale-compress" {
		t.Errorf("name = %q", p.Definition().Name)
	}

	r, _ := p.Handle(context.Background(), mcp.GetPromptRequest{})
	if got := promptText(t, r); !strings.Contains(got, "pscale_next_memory") {
		t.Errorf("default prompt = %s", got)
	}

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"address": "M:1"}
	r, _ = p.Handle(context.Background(), req)
	if got := promptText(t, r); !strings.Contains(got, "pscale_synthesize") || !strings.Contains(got, "'M:1'") {
		t.Errorf("address prompt = %s", got)
	}
}
