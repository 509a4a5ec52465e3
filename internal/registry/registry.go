// Package registry wires the fifteen MCP tools onto the domain services:
// the FRED Gateway, Series Store, Dataset Builder, Plot Service, and
// Dataset Catalog, per spec.md §6 and §9.
package registry

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/fredseries/fred-mcp-server/internal/catalog"
	"github.com/fredseries/fred-mcp-server/internal/config"
	"github.com/fredseries/fred-mcp-server/internal/dataset"
	"github.com/fredseries/fred-mcp-server/internal/fredgw"
	"github.com/fredseries/fred-mcp-server/internal/plotsvc"
	"github.com/fredseries/fred-mcp-server/internal/seriesstore"
)

// Deps is every domain component a tool handler might need.
type Deps struct {
	Gateway *fredgw.Gateway
	Store   *seriesstore.Store
	Builder *dataset.Builder
	Plot    *plotsvc.Service
	Catalog *catalog.Catalog
	Config  config.Config
	Log     *logrus.Entry
}

// Descriptor pairs a tool's schema with its handler, ready for
// mcpServer.AddTool.
type Descriptor struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// All returns the full tool registry in a stable order.
func All(deps Deps) []Descriptor {
	return []Descriptor{
		fredSearchTool(deps),
		fredSeriesMetadataTool(deps),
		fredObservationsTool(deps),
		fredReleasesTool(deps),
		fredReleaseDetailsTool(deps),
		fredCategoryDetailsTool(deps),
		fredSourcesTool(deps),
		buildFredDatasetTool(deps),
		listRecentDatasetsTool(deps),
		listDownloadedSeriesTool(deps),
		plotSeriesTool(deps),
		plotDualAxisTool(deps),
		analyzeDifferencingTool(deps),
		plotFromDatasetTool(deps),
		fredServerInfoTool(deps),
	}
}

func logErr(deps Deps, tool string, err error) {
	if deps.Log == nil || err == nil {
		return
	}
	deps.Log.WithError(err).WithField("tool", tool).Warn("tool call failed")
}
