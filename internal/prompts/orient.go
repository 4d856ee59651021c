// Package prompts implements MCP prompt handlers for the pscale store.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// OrientPrompt handles the pscale-orient MCP prompt.
// It walks the AI from the namespace index down to one coordinate before
// it writes anything.
type OrientPrompt struct{}

// NewOrientPrompt creates an OrientPrompt.
func NewOrientPrompt() *OrientPrompt {
	return &OrientPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *OrientPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("pscale-orient",
		mcp.WithPromptDescription(
			"Orient in the pscale store before working: see what namespaces exist, "+
				"read the chain of context down to an address and find its frontier.",
		),
		mcp.WithArgument("address",
			mcp.ArgumentDescription("Coordinate to orient on (e.g. 'S:0.2'). Default: the spatial root 'S:0'"),
		),
	)
}

// Handle processes the pscale-orient prompt request.
func (p *OrientPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	address := "S:0"
	if args := req.Params.Arguments; args != nil {
		if a, ok := args["address"]; ok && a != "" {
			address = a
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Orient on %s", address),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Before doing anything else, orient yourself in the pscale store around %s.\n\n"+
						"Please:\n"+
						"1. Run `pscale_stats` to see which namespaces hold content\n"+
						"2. Run `pscale_context` with address='%s' to read the chain from the broadest summary down\n"+
						"3. Run `pscale_children` with address='%s' to see what detail already exists below it\n"+
						"4. Run `pscale_next_memory` to find where the next log entry belongs\n\n"+
						"Digits further left are broader; each digit to the right is one level finer. "+
						"A coordinate without children is a frontier: new detail goes there.",
					address, address, address,
				)),
			},
		},
	}, nil
}
