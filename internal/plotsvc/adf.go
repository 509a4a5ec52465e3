package plotsvc

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
)

// ADFResult is an augmented Dickey-Fuller unit-root test outcome for a
// single-lag specification: Δy_t = α + β·y_{t-1} + γ·Δy_{t-1} + ε_t.
//
// PValue is an approximate interpolation against MacKinnon's asymptotic
// critical values for the constant, no-trend case, not an exact
// distribution fit; it is good enough to rank stationarity, not to quote.
type ADFResult struct {
	Statistic  float64
	PValue     float64
	Stationary bool // true when Statistic is below the 5% critical value
}

// macKinnon5Pct is the asymptotic 5% critical value for the
// constant/no-trend ADF specification.
const (
	macKinnon1Pct  = -3.43
	macKinnon5Pct  = -2.86
	macKinnon10Pct = -2.57
)

// RunADF fits the single-lag ADF regression over levels (chronologically
// ordered, no nulls) and reports the t-statistic on the lagged-level
// coefficient.
func RunADF(levels []float64) (ADFResult, error) {
	n := len(levels)
	if n < 6 {
		return ADFResult{}, apperr.New(apperr.InvalidParams, "need at least 6 observations for an ADF test, got %d", n)
	}

	diffs := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		diffs[i] = levels[i+1] - levels[i]
	}

	rows := n - 2
	x := mat.NewDense(rows, 3, nil)
	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		t := i + 2
		x.Set(i, 0, 1)
		x.Set(i, 1, levels[t-1])
		x.Set(i, 2, diffs[t-2])
		y.Set(i, 0, diffs[t-1])
	}

	var beta mat.Dense
	if err := beta.Solve(x, y); err != nil {
		return ADFResult{}, apperr.Wrap(apperr.Internal, err, "solving ADF regression")
	}

	var fitted mat.Dense
	fitted.Mul(x, &beta)
	ssr := 0.0
	for i := 0; i < rows; i++ {
		resid := y.At(i, 0) - fitted.At(i, 0)
		ssr += resid * resid
	}
	const k = 3
	if rows <= k {
		return ADFResult{}, apperr.New(apperr.InvalidParams, "not enough observations for ADF standard errors")
	}
	sigma2 := ssr / float64(rows-k)

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return ADFResult{}, apperr.Wrap(apperr.Internal, err, "inverting ADF design matrix")
	}

	seBeta := math.Sqrt(sigma2 * xtxInv.At(1, 1))
	if seBeta == 0 {
		return ADFResult{}, apperr.New(apperr.Internal, "degenerate ADF regression: zero standard error")
	}
	tStat := beta.At(1, 0) / seBeta

	return ADFResult{
		Statistic:  tStat,
		PValue:     approximateADFPValue(tStat),
		Stationary: tStat < macKinnon5Pct,
	}, nil
}

// approximateADFPValue piecewise-linearly interpolates between the three
// MacKinnon asymptotic critical values. It is a simplification documented
// alongside this test: real ADF p-values come from a response-surface
// regression this implementation does not carry.
func approximateADFPValue(t float64) float64 {
	switch {
	case t <= macKinnon1Pct:
		return 0.01
	case t <= macKinnon5Pct:
		return lerp(t, macKinnon1Pct, macKinnon5Pct, 0.01, 0.05)
	case t <= macKinnon10Pct:
		return lerp(t, macKinnon5Pct, macKinnon10Pct, 0.05, 0.10)
	default:
		// Beyond the 10% critical value, extrapolate linearly at a shallow
		// slope, capped at 0.99.
		extra := (t - macKinnon10Pct) * 0.05
		p := 0.10 + extra
		if p > 0.99 {
			p = 0.99
		}
		return p
	}
}

func lerp(x, x0, x1, y0, y1 float64) float64 {
	return y0 + (x-x0)/(x1-x0)*(y1-y0)
}
