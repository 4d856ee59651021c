package resources

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// prefixFromURI extracts the namespace from a pscale://tree/{prefix} URI.
func prefixFromURI(uri string) (string, bool) {
	prefix, ok := strings.CutPrefix(uri, TreeURIPrefix)
	prefix = strings.TrimSuffix(prefix, ":")
	if !ok || prefix == "" || strings.Contains(prefix, "/") {
		return "", false
	}
	return prefix, true
}

func jsonResource(uri string, data []byte) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
