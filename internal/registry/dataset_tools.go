package registry

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
	"github.com/fredseries/fred-mcp-server/internal/dataset"
)

func buildFredDatasetTool(deps Deps) Descriptor {
	tool := mcp.NewTool("build_fred_dataset_tool",
		mcp.WithDescription("Fetch multiple FRED series, align them on date per a merge strategy, apply per-series transforms, and persist a CSV+XLSX+metadata dataset."),
		mcp.WithArray("series_list", mcp.Required(), mcp.Description("FRED series ids to include, e.g. [\"UNRATE\", \"CPIAUCSL\"].")),
		mcp.WithObject("transformations", mcp.Description("Optional map of series id to transform tag (none, YoY, QoQ, MoM, diff, pct_change, log, log_diff).")),
		mcp.WithString("merge_strategy", mcp.Description("inner, outer, left, or right. Defaults to inner.")),
		mcp.WithString("observation_start", mcp.Description("YYYY-MM-DD, inclusive. Omit for unbounded.")),
		mcp.WithString("observation_end", mcp.Description("YYYY-MM-DD, inclusive. Omit for unbounded.")),
	)
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(req)
		seriesList := seriesIDSliceArg(args, "series_list")
		if len(seriesList) == 0 {
			return resultErr(apperr.New(apperr.InvalidParams, "series_list must not be empty"))
		}
		transformations, err := transformMapArg(args, "transformations")
		if err != nil {
			return resultErr(err)
		}
		start, err := dateArg(args, "observation_start")
		if err != nil {
			return resultErr(err)
		}
		end, err := dateArg(args, "observation_end")
		if err != nil {
			return resultErr(err)
		}

		result, err := deps.Builder.Build(ctx, dataset.Request{
			SeriesList:       seriesList,
			Transformations:  transformations,
			ObservationStart: start,
			ObservationEnd:   end,
			MergeStrategy:    mergeStrategyArg(args, "merge_strategy", dataset.MergeInner),
		}, time.Now())
		if err != nil {
			logErr(deps, "build_fred_dataset_tool", err)
			return resultErr(err)
		}
		return resultJSON(result)
	}
	return Descriptor{Tool: tool, Handler: handler}
}

func listRecentDatasetsTool(deps Deps) Descriptor {
	tool := mcp.NewTool("list_recent_datasets_tool",
		mcp.WithDescription("List recently built datasets, newest first, without rebuilding or re-fetching anything."),
		mcp.WithNumber("limit", mcp.Description("Maximum entries to return. Defaults to the server's configured limit.")),
	)
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(req)
		entries, err := deps.Catalog.ListRecent(intArg(args, "limit", 0))
		if err != nil {
			logErr(deps, "list_recent_datasets_tool", err)
			return resultErr(err)
		}
		return resultJSON(entries)
	}
	return Descriptor{Tool: tool, Handler: handler}
}

func listDownloadedSeriesTool(deps Deps) Descriptor {
	tool := mcp.NewTool("list_downloaded_series_tool",
		mcp.WithDescription("List previously downloaded CSV/XLSX snapshots for a series, newest first, without touching the network."),
		mcp.WithString("series_id", mcp.Required(), mcp.Description("FRED series id, e.g. UNRATE.")),
	)
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(req)
		idStr, err := requiredStringArg(args, "series_id")
		if err != nil {
			return resultErr(err)
		}
		files, err := deps.Store.ListDownloaded(seriesIDArg(idStr))
		if err != nil {
			logErr(deps, "list_downloaded_series_tool", err)
			return resultErr(err)
		}
		return resultJSON(files)
	}
	return Descriptor{Tool: tool, Handler: handler}
}
