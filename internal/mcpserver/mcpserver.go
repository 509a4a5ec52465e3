// Package mcpserver wires the tool registry and dataset catalog resource
// onto a mark3labs/mcp-go server and serves it over stdio or HTTP, per
// spec.md §6.
package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fredseries/fred-mcp-server/internal/catalog"
	"github.com/fredseries/fred-mcp-server/internal/registry"
	"github.com/fredseries/fred-mcp-server/internal/version"
)

const (
	recentDatasetsURI  = "fred://datasets/recent"
	recentDatasetsName = "Recently built FRED datasets"
)

// Server wraps the mcp-go server with the instructions and resources this
// deployment exposes.
type Server struct {
	mcp *server.MCPServer
}

// New builds a Server with every tool in deps registered and the recent
// datasets resource wired to cat. Tool dispatch is bounded to
// deps.Config.MaxWorkers concurrent handlers, per spec.md §5; calls beyond
// the limit queue on the shared dispatch group rather than running
// unbounded.
func New(deps registry.Deps, cat *catalog.Catalog) *Server {
	s := server.NewMCPServer(
		"fred-mcp-server",
		version.Get().Version,
		server.WithInstructions(instructions()),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	limit := deps.Config.MaxWorkers
	if limit < 1 {
		limit = 4
	}
	dispatch := &errgroup.Group{}
	dispatch.SetLimit(limit)

	for _, d := range registry.All(deps) {
		s.AddTool(d.Tool, boundedHandler(dispatch, deps.Log, d.Tool.Name, d.Handler))
	}

	resource := mcp.NewResource(recentDatasetsURI, recentDatasetsName,
		mcp.WithResourceDescription("The most recently built FRED datasets, newest first."),
		mcp.WithMIMEType("text/plain"),
	)
	s.AddResource(resource, recentDatasetsHandler(cat))

	return &Server{mcp: s}
}

// dispatchResult carries a bounded handler's outcome back across the
// goroutine errgroup.Group.Go runs it on.
type dispatchResult struct {
	res *mcp.CallToolResult
	err error
}

// boundedHandler runs h on the shared dispatch group, which blocks the
// caller until a worker slot frees up rather than spawning unbounded
// goroutines per tools/call request. It never calls group.Wait(), so
// submitting one call never waits on unrelated in-flight calls; it only
// waits for capacity. Each call is tagged with a request id for log
// correlation, and an in-flight cancel notification (ctx done before the
// handler finishes) returns promptly rather than blocking the response.
func boundedHandler(group *errgroup.Group, log *logrus.Entry, name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID := uuid.NewString()
		done := make(chan dispatchResult, 1)
		group.Go(func() error {
			res, err := h(ctx, req)
			done <- dispatchResult{res: res, err: err}
			return nil
		})

		select {
		case r := <-done:
			if log != nil {
				log.WithFields(logrus.Fields{"tool": name, "request_id": requestID}).Debug("tool call completed")
			}
			return r.res, r.err
		case <-ctx.Done():
			if log != nil {
				log.WithFields(logrus.Fields{"tool": name, "request_id": requestID}).Warn("tool call cancelled before completion")
			}
			return nil, ctx.Err()
		}
	}
}

// recentDatasetsHandler renders the catalog as the human-readable listing
// spec.md §4.6 requires: one block per dataset, suitable for direct LLM
// consumption without a JSON parsing step.
func recentDatasetsHandler(cat *catalog.Catalog) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		entries, err := cat.ListRecent(0)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      recentDatasetsURI,
				MIMEType: "text/plain",
				Text:     renderRecentDatasets(entries),
			},
		}, nil
	}
}

func renderRecentDatasets(entries []catalog.Entry) string {
	if len(entries) == 0 {
		return "No FRED datasets have been built yet.\n"
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Dataset: %s\n", e.Basename)
		fmt.Fprintf(&b, "  Created: %s\n", e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
		fmt.Fprintf(&b, "  Window: %s to %s\n", e.ObservationStart, e.ObservationEnd)
		fmt.Fprintf(&b, "  Merge strategy: %s\n", e.MergeStrategy)
		fmt.Fprintf(&b, "  Columns: %s\n", strings.Join(e.Columns, ", "))
		if len(e.Transformations) > 0 {
			fmt.Fprintf(&b, "  Transformations: %s\n", formatTransformations(e.Transformations))
		}
		if len(e.FailedSeries) > 0 {
			fmt.Fprintf(&b, "  Failed series: %s\n", strings.Join(e.FailedSeries, ", "))
		}
		fmt.Fprintf(&b, "  Rows: %d\n", e.RowCount)
		fmt.Fprintf(&b, "  CSV: %s\n", e.CSVPath)
	}
	return b.String()
}

func formatTransformations(tf map[string]string) string {
	keys := make([]string, 0, len(tf))
	for k := range tf {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, tf[k])
	}
	return strings.Join(parts, ", ")
}

// ServeStdio serves the MCP protocol over stdin/stdout, the primary
// transport per spec.md §6.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// ServeHTTP serves the MCP protocol over streamable HTTP at addr, the
// optional transport for deployments that can't attach stdio.
func (s *Server) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.mcp)
	return httpServer.Start(addr)
}

func instructions() string {
	return "This server exposes FRED (Federal Reserve Economic Data) economic time series: " +
		"search and metadata lookups, raw observation downloads, multi-series dataset building " +
		"with merge and transform support, and chart rendering including differencing and " +
		"stationarity diagnostics. Datasets and downloaded series are cached on disk and listed " +
		"via list_recent_datasets_tool and list_downloaded_series_tool before re-fetching."
}
