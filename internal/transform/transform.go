// Package transform implements the eight named, composable time-series
// transformations over aligned observations described in spec.md §4.3. Each
// transformation preserves the length and dates of its input and defines
// its own lookback and null-propagation rule.
package transform

import (
	"math"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
	"github.com/fredseries/fred-mcp-server/internal/fredseries"
)

// Lookback returns the number of observations a transform reaches back
// before it produces a non-null value, in observations (not calendar
// units) as required by spec.md §4.3.
func Lookback(tag fredseries.Transform) int {
	switch tag {
	case fredseries.TransformDiff, fredseries.TransformPctChange, fredseries.TransformMoM, fredseries.TransformLogDiff:
		return 1
	case fredseries.TransformQoQ:
		return 3
	case fredseries.TransformYoY:
		return 12
	default:
		return 0
	}
}

// Apply runs the named transformation over a sequence of values sorted
// ascending by date. It returns a slice of identical length; entries that
// are null (either by lookback or by an undefined formula input) are nil.
func Apply(tag fredseries.Transform, values []*float64) ([]*float64, error) {
	if !fredseries.ValidTransforms[tag] {
		return nil, apperr.New(apperr.InvalidParams, "unknown transformation %q", tag)
	}

	out := make([]*float64, len(values))
	switch tag {
	case fredseries.TransformNone:
		copy(out, values)
	case fredseries.TransformDiff:
		applyLookback(out, values, 1, func(cur, prev float64) (float64, bool) {
			return cur - prev, true
		})
	case fredseries.TransformPctChange, fredseries.TransformMoM:
		applyLookback(out, values, 1, func(cur, prev float64) (float64, bool) {
			if prev == 0 {
				return 0, false
			}
			ratio := (cur/prev - 1)
			if tag == fredseries.TransformMoM {
				ratio *= 100
			}
			return ratio, true
		})
	case fredseries.TransformQoQ:
		applyLookback(out, values, 3, func(cur, prev float64) (float64, bool) {
			if prev == 0 {
				return 0, false
			}
			return (cur/prev - 1) * 100, true
		})
	case fredseries.TransformYoY:
		applyLookback(out, values, 12, func(cur, prev float64) (float64, bool) {
			if prev == 0 {
				return 0, false
			}
			return (cur/prev - 1) * 100, true
		})
	case fredseries.TransformLog:
		for i, v := range values {
			if v == nil || *v <= 0 {
				continue
			}
			lv := math.Log(*v)
			out[i] = &lv
		}
	case fredseries.TransformLogDiff:
		for i := range values {
			if i < 1 {
				continue
			}
			cur, prev := values[i], values[i-1]
			if cur == nil || prev == nil || *cur <= 0 || *prev <= 0 {
				continue
			}
			d := math.Log(*cur) - math.Log(*prev)
			out[i] = &d
		}
	}
	return out, nil
}

// applyLookback fills out[i] for i >= lookback using f(values[i], values[i-lookback]),
// leaving out[i] nil when either operand is nil or f reports it is undefined
// (e.g. division by zero).
func applyLookback(out, values []*float64, lookback int, f func(cur, prev float64) (float64, bool)) {
	for i := range values {
		if i < lookback {
			continue
		}
		cur, prev := values[i], values[i-lookback]
		if cur == nil || prev == nil {
			continue
		}
		result, ok := f(*cur, *prev)
		if !ok {
			continue
		}
		v := result
		out[i] = &v
	}
}

// ColumnName derives the dataset column name for a SeriesID under a given
// transform tag: the bare SeriesID when the tag is "none", otherwise
// "{SeriesID}_{Transform}".
func ColumnName(id fredseries.SeriesID, tag fredseries.Transform) string {
	if tag == fredseries.TransformNone || tag == "" {
		return string(id)
	}
	return string(id) + "_" + string(tag)
}
