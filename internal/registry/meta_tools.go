package registry

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fredseries/fred-mcp-server/internal/version"
)

func fredServerInfoTool(deps Deps) Descriptor {
	tool := mcp.NewTool("fred_server_info_tool",
		mcp.WithDescription("Report server build version (including the MCP protocol revision), the configured data root, and the worker budget."),
	)
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return resultJSON(struct {
			Version    version.Info `json:"version"`
			DataRoot   string       `json:"data_root"`
			MaxWorkers int          `json:"max_workers"`
		}{
			Version:    version.Get(),
			DataRoot:   deps.Config.DataRoot,
			MaxWorkers: deps.Config.MaxWorkers,
		})
	}
	return Descriptor{Tool: tool, Handler: handler}
}
