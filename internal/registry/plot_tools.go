package registry

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fredseries/fred-mcp-server/internal/plotsvc"
)

func plotSeriesTool(deps Deps) Descriptor {
	tool := mcp.NewTool("plot_series_tool",
		mcp.WithDescription("Render a single FRED series as a PNG line chart, optionally under one of the transform tags."),
		mcp.WithString("series_id", mcp.Required(), mcp.Description("FRED series id, e.g. UNRATE.")),
		mcp.WithString("transform", mcp.Description("Transform tag to apply before plotting. Defaults to none.")),
		mcp.WithString("observation_start", mcp.Description("YYYY-MM-DD, inclusive.")),
		mcp.WithString("observation_end", mcp.Description("YYYY-MM-DD, inclusive.")),
	)
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(req)
		idStr, err := requiredStringArg(args, "series_id")
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

		result, err := deps.Plot.PlotSeries(ctx, plotsvc.SeriesPlotRequest{
			SeriesID:  seriesIDArg(idStr),
			Transform: transformArg(args, "transform"),
			Start:     start,
			End:       end,
		}, time.Now())
		if err != nil {
			logErr(deps, "plot_series_tool", err)
			return resultErr(err)
		}
		return resultJSON(result)
	}
	return Descriptor{Tool: tool, Handler: handler}
}

func plotDualAxisTool(deps Deps) Descriptor {
	tool := mcp.NewTool("plot_dual_axis_tool",
		mcp.WithDescription("Render two FRED series on one shared axis, with the right series rescaled into the left series' data range."),
		mcp.WithString("left_series_id", mcp.Required(), mcp.Description("Series drawn at its true scale.")),
		mcp.WithString("right_series_id", mcp.Required(), mcp.Description("Series rescaled into the left series' range for comparison.")),
		mcp.WithString("transform", mcp.Description("Transform tag applied to both series before plotting. Defaults to none.")),
		mcp.WithString("observation_start", mcp.Description("YYYY-MM-DD, inclusive.")),
		mcp.WithString("observation_end", mcp.Description("YYYY-MM-DD, inclusive.")),
	)
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(req)
		leftStr, err := requiredStringArg(args, "left_series_id")
		if err != nil {
			return resultErr(err)
		}
		rightStr, err := requiredStringArg(args, "right_series_id")
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

		result, err := deps.Plot.PlotDualAxis(ctx, plotsvc.DualAxisRequest{
			Left:      seriesIDArg(leftStr),
			Right:     seriesIDArg(rightStr),
			Transform: transformArg(args, "transform"),
			Start:     start,
			End:       end,
		}, time.Now())
		if err != nil {
			logErr(deps, "plot_dual_axis_tool", err)
			return resultErr(err)
		}
		return resultJSON(result)
	}
	return Descriptor{Tool: tool, Handler: handler}
}

func analyzeDifferencingTool(deps Deps) Descriptor {
	tool := mcp.NewTool("analyze_differencing_tool",
		mcp.WithDescription("Render level, first-difference, and second-difference views of a series, and run an augmented Dickey-Fuller stationarity test on its level."),
		mcp.WithString("series_id", mcp.Required(), mcp.Description("FRED series id, e.g. UNRATE.")),
		mcp.WithString("observation_start", mcp.Description("YYYY-MM-DD, inclusive.")),
		mcp.WithString("observation_end", mcp.Description("YYYY-MM-DD, inclusive.")),
	)
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(req)
		idStr, err := requiredStringArg(args, "series_id")
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

		result, err := deps.Plot.AnalyzeDifferencing(ctx, plotsvc.DifferencingRequest{
			SeriesID: seriesIDArg(idStr),
			Start:    start,
			End:      end,
		}, time.Now())
		if err != nil {
			logErr(deps, "analyze_differencing_tool", err)
			return resultErr(err)
		}
		return resultJSON(result)
	}
	return Descriptor{Tool: tool, Handler: handler}
}

func plotFromDatasetTool(deps Deps) Descriptor {
	tool := mcp.NewTool("plot_from_dataset_tool",
		mcp.WithDescription("Render two columns of an already-built dataset with no network access. If dataset_path is omitted, resolves to the most recent dataset containing both columns."),
		mcp.WithString("column_left", mcp.Required(), mcp.Description("Column name plotted on the left axis.")),
		mcp.WithString("column_right", mcp.Required(), mcp.Description("Column name plotted on the right axis.")),
		mcp.WithString("dataset_path", mcp.Description("Dataset basename or directory path. When omitted, the newest dataset containing both columns is used.")),
	)
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(req)
		columnLeft, err := requiredStringArg(args, "column_left")
		if err != nil {
			return resultErr(err)
		}
		columnRight, err := requiredStringArg(args, "column_right")
		if err != nil {
			return resultErr(err)
		}
		datasetPath, _ := stringArg(args, "dataset_path")

		result, err := deps.Plot.PlotFromDataset(deps.Catalog, plotsvc.FromDatasetRequest{
			ColumnLeft:  columnLeft,
			ColumnRight: columnRight,
			DatasetPath: datasetPath,
		}, time.Now())
		if err != nil {
			logErr(deps, "plot_from_dataset_tool", err)
			return resultErr(err)
		}
		return resultJSON(result)
	}
	return Descriptor{Tool: tool, Handler: handler}
}
