package registry

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
)

// resultJSON marshals v and wraps it as a tool result, or turns a marshal
// failure into an error result rather than panicking a handler.
func resultJSON(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// resultErr renders a domain error as a tool result carrying its Kind,
// rather than surfacing a raw Go error string to the model.
func resultErr(err error) (*mcp.CallToolResult, error) {
	kind := apperr.KindOf(err)
	return mcp.NewToolResultError(string(kind) + ": " + err.Error()), nil
}
