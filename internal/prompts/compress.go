package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// CompressPrompt handles the pscale-compress MCP prompt.
// It instructs the AI to check a node and synthesize its children.
type CompressPrompt struct{}

// NewCompressPrompt creates a CompressPrompt.
func NewCompressPrompt() *CompressPrompt {
	return &CompressPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *CompressPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("pscale-compress",
		mcp.WithPromptDescription(
			"Compress a full node: read its nine children and store one synthesis "+
				"as the node's own text.",
		),
		mcp.WithArgument("address",
			mcp.ArgumentDescription("Node to compress (e.g. 'M:1'). Default: the next summary slot of M"),
		),
	)
}

// Handle processes the pscale-compress prompt request.
func (p *CompressPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	address := ""
	if args := req.Params.Arguments; args != nil {
		address = args["address"]
	}

	var text string
	if address == "" {
		text = "Please run `pscale_next_memory`.\n\n" +
			"If it proposes a summary slot:\n" +
			"1. Read each listed entry with `pscale_read`\n" +
			"2. Write one synthesis of them to the summary slot with `pscale_write`\n" +
			"3. Keep the synthesis shorter than the entries together, and keep what a later reader needs\n\n" +
			"If it proposes an ordinary entry, tell me nothing needs compressing yet."
	} else {
		text = fmt.Sprintf(
			"Please run `pscale_compression_check` with address='%s'.\n\n"+
				"If the node is full:\n"+
				"1. Read its children (use detail_level='full')\n"+
				"2. Write one synthesis with `pscale_synthesize` at address='%s'\n"+
				"3. The synthesis replaces the node's text; it must not take a new digit\n\n"+
				"If it is not full, tell me how many children are missing.",
			address, address,
		)
	}

	return &mcp.GetPromptResult{
		Description: "pscale compression",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(text),
			},
		},
	}, nil
}
