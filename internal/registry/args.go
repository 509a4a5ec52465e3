package registry

import (
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
	"github.com/fredseries/fred-mcp-server/internal/dataset"
	"github.com/fredseries/fred-mcp-server/internal/fredseries"
)

// arguments returns a tool call's raw argument map, independent of the
// mcp-go version's typed accessors, so the rest of this package only
// depends on that one shape.
func arguments(req mcp.CallToolRequest) map[string]any {
	if req.Params.Arguments == nil {
		return map[string]any{}
	}
	if m, ok := req.Params.Arguments.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func stringArg(args map[string]any, name string) (string, bool) {
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func requiredStringArg(args map[string]any, name string) (string, error) {
	s, ok := stringArg(args, name)
	if !ok {
		return "", apperr.New(apperr.InvalidParams, "%s is required", name)
	}
	return s, nil
}

func stringSliceArg(args map[string]any, name string) []string {
	v, ok := args[name]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intArg(args map[string]any, name string, def int) int {
	v, ok := args[name]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func dateArg(args map[string]any, name string) (*time.Time, error) {
	s, ok := stringArg(args, name)
	if !ok {
		return nil, nil
	}
	t, err := time.Parse(fredseries.DateLayout, s)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidParams, err, "%s must be YYYY-MM-DD", name)
	}
	return &t, nil
}

func seriesIDArg(s string) fredseries.SeriesID {
	return fredseries.SeriesID(s)
}

func seriesIDSliceArg(args map[string]any, name string) []fredseries.SeriesID {
	raw := stringSliceArg(args, name)
	out := make([]fredseries.SeriesID, len(raw))
	for i, s := range raw {
		out[i] = fredseries.SeriesID(s)
	}
	return out
}

// transformMapArg reads {"SERIES_ID": "transform_tag", ...} into the shape
// the Dataset Builder and Plot Service expect.
func transformMapArg(args map[string]any, name string) (map[fredseries.SeriesID]fredseries.Transform, error) {
	v, ok := args[name]
	if !ok {
		return nil, nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, apperr.New(apperr.InvalidParams, "%s must be an object mapping series id to transform tag", name)
	}
	out := make(map[fredseries.SeriesID]fredseries.Transform, len(raw))
	for k, val := range raw {
		tag, ok := val.(string)
		if !ok {
			return nil, apperr.New(apperr.InvalidParams, "%s.%s must be a string transform tag", name, k)
		}
		t := fredseries.Transform(tag)
		if !fredseries.ValidTransforms[t] {
			return nil, apperr.New(apperr.InvalidParams, "unknown transform tag %q for series %s", tag, k)
		}
		out[fredseries.SeriesID(k)] = t
	}
	return out, nil
}

func mergeStrategyArg(args map[string]any, name string, def dataset.MergeStrategy) dataset.MergeStrategy {
	s, ok := stringArg(args, name)
	if !ok {
		return def
	}
	return dataset.MergeStrategy(s)
}

func transformArg(args map[string]any, name string) fredseries.Transform {
	s, _ := stringArg(args, name)
	return fredseries.Transform(s)
}
