package registry

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
)

func fredSearchTool(deps Deps) Descriptor {
	tool := mcp.NewTool("fred_search_tool",
		mcp.WithDescription("Full-text search over FRED series titles, returning series id, title, and units."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Search text.")),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return, default 20.")),
	)
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(req)
		text, err := requiredStringArg(args, "text")
		if err != nil {
			return resultErr(err)
		}
		results, err := deps.Gateway.Search(ctx, text, intArg(args, "limit", 20))
		if err != nil {
			logErr(deps, "fred_search_tool", err)
			return resultErr(err)
		}
		return resultJSON(results)
	}
	return Descriptor{Tool: tool, Handler: handler}
}

func fredSeriesMetadataTool(deps Deps) Descriptor {
	tool := mcp.NewTool("fred_series_metadata_tool",
		mcp.WithDescription("Fetch a FRED series' metadata: title, units, frequency, seasonal adjustment, and observation window."),
		mcp.WithString("series_id", mcp.Required(), mcp.Description("FRED series id, e.g. UNRATE.")),
	)
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(req)
		id, err := requiredStringArg(args, "series_id")
		if err != nil {
			return resultErr(err)
		}
		meta, err := deps.Gateway.SeriesMetadata(ctx, seriesIDArg(id))
		if err != nil {
			logErr(deps, "fred_series_metadata_tool", err)
			return resultErr(err)
		}
		return resultJSON(meta)
	}
	return Descriptor{Tool: tool, Handler: handler}
}

func fredObservationsTool(deps Deps) Descriptor {
	tool := mcp.NewTool("fred_observations_tool",
		mcp.WithDescription("Fetch a FRED series' observations over an optional date window, and persist a CSV+XLSX snapshot to the series store."),
		mcp.WithString("series_id", mcp.Required(), mcp.Description("FRED series id, e.g. UNRATE.")),
		mcp.WithString("observation_start", mcp.Description("YYYY-MM-DD, inclusive. Omit for unbounded.")),
		mcp.WithString("observation_end", mcp.Description("YYYY-MM-DD, inclusive. Omit for unbounded.")),
	)
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(req)
		idStr, err := requiredStringArg(args, "series_id")
		if err != nil {
			return resultErr(err)
		}
		id := seriesIDArg(idStr)

		start, err := dateArg(args, "observation_start")
		if err != nil {
			return resultErr(err)
		}
		end, err := dateArg(args, "observation_end")
		if err != nil {
			return resultErr(err)
		}

		obs, err := deps.Gateway.Observations(ctx, id, start, end)
		if err != nil {
			logErr(deps, "fred_observations_tool", err)
			return resultErr(err)
		}
		if len(obs) == 0 {
			return resultErr(apperr.New(apperr.NotFound, "no observations for %s in the requested window", id))
		}

		write, err := deps.Store.Write(id, obs, time.Now())
		if err != nil {
			logErr(deps, "fred_observations_tool", err)
			return resultErr(err)
		}

		return resultJSON(struct {
			Observations any    `json:"observations"`
			CSVPath      string `json:"csv_path"`
			XLSXPath     string `json:"xlsx_path"`
		}{Observations: obs, CSVPath: write.CSVPath, XLSXPath: write.XLSXPath})
	}
	return Descriptor{Tool: tool, Handler: handler}
}

func fredReleasesTool(deps Deps) Descriptor {
	tool := mcp.NewTool("fred_releases_tool",
		mcp.WithDescription("List all FRED economic data releases."),
	)
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		releases, err := deps.Gateway.Releases(ctx)
		if err != nil {
			logErr(deps, "fred_releases_tool", err)
			return resultErr(err)
		}
		return resultJSON(releases)
	}
	return Descriptor{Tool: tool, Handler: handler}
}

func fredReleaseDetailsTool(deps Deps) Descriptor {
	tool := mcp.NewTool("fred_release_details_tool",
		mcp.WithDescription("Fetch details for a single FRED release id."),
		mcp.WithNumber("release_id", mcp.Required(), mcp.Description("FRED release id.")),
	)
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(req)
		id := intArg(args, "release_id", 0)
		if id == 0 {
			return resultErr(apperr.New(apperr.InvalidParams, "release_id is required"))
		}
		details, err := deps.Gateway.ReleaseDetails(ctx, id)
		if err != nil {
			logErr(deps, "fred_release_details_tool", err)
			return resultErr(err)
		}
		return resultJSON(details)
	}
	return Descriptor{Tool: tool, Handler: handler}
}

func fredCategoryDetailsTool(deps Deps) Descriptor {
	tool := mcp.NewTool("fred_category_details_tool",
		mcp.WithDescription("Fetch details for a single FRED category id."),
		mcp.WithNumber("category_id", mcp.Required(), mcp.Description("FRED category id.")),
	)
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(req)
		id := intArg(args, "category_id", 0)
		if id == 0 {
			return resultErr(apperr.New(apperr.InvalidParams, "category_id is required"))
		}
		details, err := deps.Gateway.CategoryDetails(ctx, id)
		if err != nil {
			logErr(deps, "fred_category_details_tool", err)
			return resultErr(err)
		}
		return resultJSON(details)
	}
	return Descriptor{Tool: tool, Handler: handler}
}

func fredSourcesTool(deps Deps) Descriptor {
	tool := mcp.NewTool("fred_sources_tool",
		mcp.WithDescription("List all FRED data sources."),
	)
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sources, err := deps.Gateway.Sources(ctx)
		if err != nil {
			logErr(deps, "fred_sources_tool", err)
			return resultErr(err)
		}
		return resultJSON(sources)
	}
	return Descriptor{Tool: tool, Handler: handler}
}
