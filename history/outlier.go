package history

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// OutlierOptions configures the Tukey fences applied to year over year changes
type OutlierOptions struct {
	LowerPercentile float64
	UpperPercentile float64
	TukeyFactor     float64
}

func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		LowerPercentile: 0.1,
		UpperPercentile: 0.9,
		TukeyFactor:     1.0,
	}
}

// Outliers returns the points whose change from the previous year lies outside the fences. The
// first point has no change and is never reported.
func (h *History) Outliers(opt *OutlierOptions) []Point {
	if h.Len() < 3 {
		return nil
	}
	if opt == nil {
		opt = NewOutlierOptions()
	}

	n := len(h.values)
	changes := make([]float64, n-1)
	floats.SubTo(changes, h.values[1:], h.values[:n-1])

	var res []Point
	for _, idx := range detectOutliers(changes, opt.LowerPercentile, opt.UpperPercentile, opt.TukeyFactor) {
		res = append(res, Point{Year: h.years[idx+1], Value: h.values[idx+1]})
	}
	return res
}

func detectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	sorted := slices.Clone(y)
	slices.Sort(sorted)
	lower := stat.Quantile(lowerPerc, stat.Empirical, sorted, nil)
	upper := stat.Quantile(upperPerc, stat.Empirical, sorted, nil)

	innerRange := upper - lower
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i, val := range y {
		if val > upper || val < lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}
