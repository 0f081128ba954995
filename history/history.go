package history

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNoData             = errors.New("no historical data")
	ErrNonMonotonic       = errors.New("years are not strictly increasing")
	ErrDatasetLenMismatch = errors.New("years have a different length than values")
	ErrNonFiniteValue     = errors.New("historical value is not finite")
)

// Point is a single annual observation
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// History represents an annual series ordered by year. It is read-only once created and
// every accessor hands back a copy so callers cannot alter the loaded data.
type History struct {
	years  []int
	values []float64
}

// New returns an instance of a History given a year and value slice. Both must have the
// same length and years must be strictly increasing.
func New(years []int, values []float64) (*History, error) {
	if len(values) == 0 {
		return nil, ErrNoData
	}
	if len(years) != len(values) {
		return nil, fmt.Errorf(
			"years has length of %d, but values has a length of %d, %w",
			len(years), len(values), ErrDatasetLenMismatch,
		)
	}

	for i := 0; i < len(years); i++ {
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			return nil, fmt.Errorf("year %d, %w", years[i], ErrNonFiniteValue)
		}
		if i > 0 && years[i] <= years[i-1] {
			return nil, fmt.Errorf("non-monotonic at year %d, %w", years[i], ErrNonMonotonic)
		}
	}

	ySeries := make([]int, len(years))
	vSeries := make([]float64, len(values))
	copy(ySeries, years)
	copy(vSeries, values)
	return &History{
		years:  ySeries,
		values: vSeries,
	}, nil
}

// FromPoints creates a History from a slice of points already ordered by year
func FromPoints(points []Point) (*History, error) {
	years := make([]int, 0, len(points))
	values := make([]float64, 0, len(points))
	for _, p := range points {
		years = append(years, p.Year)
		values = append(values, p.Value)
	}
	return New(years, values)
}

// Len returns the number of annual observations
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.years)
}

// Years returns a copy of the observation years
func (h *History) Years() []int {
	if h == nil {
		return nil
	}
	res := make([]int, len(h.years))
	copy(res, h.years)
	return res
}

// Values returns a copy of the observed values
func (h *History) Values() []float64 {
	if h == nil {
		return nil
	}
	res := make([]float64, len(h.values))
	copy(res, h.values)
	return res
}

// Points returns a copy of the series as year/value pairs
func (h *History) Points() []Point {
	if h == nil {
		return nil
	}
	res := make([]Point, len(h.years))
	for i := range h.years {
		res[i] = Point{Year: h.years[i], Value: h.values[i]}
	}
	return res
}

// Last returns the most recent observation along with whether one exists
func (h *History) Last() (Point, bool) {
	if h.Len() == 0 {
		return Point{}, false
	}
	n := len(h.years) - 1
	return Point{Year: h.years[n], Value: h.values[n]}, true
}

// First returns the earliest observation along with whether one exists
func (h *History) First() (Point, bool) {
	if h.Len() == 0 {
		return Point{}, false
	}
	return Point{Year: h.years[0], Value: h.values[0]}, true
}
