package dashboard

import "github.com/aouyang1/co2-dashboard/history"

const (
	SeriesForecast = "forecast"
	SeriesPrevious = "previous"
)

// Series is a named line of (year, value) points
type Series struct {
	Name   string          `json:"name"`
	Points []history.Point `json:"points"`
}

// Years returns the year labels of the series
func (s Series) Years() []int {
	years := make([]int, 0, len(s.Points))
	for _, p := range s.Points {
		years = append(years, p.Year)
	}
	return years
}

// Values returns the values of the series
func (s Series) Values() []float64 {
	vals := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		vals = append(vals, p.Value)
	}
	return vals
}

// ChartSpec is the complete description of one rendered chart. A ChartSpec is created on every
// render and never modified afterwards so it can be shared between readers.
type ChartSpec struct {
	Title      string   `json:"title"`
	Horizon    int      `json:"horizon"`
	Theme      string   `json:"theme"`
	Height     string   `json:"height"`
	Width      string   `json:"width"`
	Background string   `json:"background"`
	Series     []Series `json:"series"`
}

// Get returns the series with the given name
func (c *ChartSpec) Get(name string) (Series, bool) {
	if c == nil {
		return Series{}, false
	}
	for _, s := range c.Series {
		if s.Name == name {
			return s, true
		}
	}
	return Series{}, false
}

// Forecast returns the stitched forecast series
func (c *ChartSpec) Forecast() Series {
	s, _ := c.Get(SeriesForecast)
	return s
}

// Previous returns the historical series
func (c *ChartSpec) Previous() Series {
	s, _ := c.Get(SeriesPrevious)
	return s
}

// Stitch joins a forecast onto the last historical point. The result starts with the last
// historical value labeled one year after it, followed by each forecast value, so the returned
// series has len(forecast)+1 points over contiguous years.
func Stitch(last history.Point, forecast []float64) []history.Point {
	pnts := make([]history.Point, 0, len(forecast)+1)
	pnts = append(pnts, history.Point{Year: last.Year + 1, Value: last.Value})
	for i, val := range forecast {
		pnts = append(pnts, history.Point{Year: last.Year + i + 2, Value: val})
	}
	return pnts
}
