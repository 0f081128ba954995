package dashboard

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/goccy/go-json"
)

const chartID = "co2-forecast"

var ErrNilChartSpec = errors.New("nil chart spec")

// LineChart generates an echart line chart plotting every series of the chart spec against a numeric
// year axis
func LineChart(spec *ChartSpec) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(
			opts.Initialization{
				PageTitle:       spec.Title,
				ChartID:         chartID,
				Theme:           spec.Theme,
				Height:          spec.Height,
				Width:           spec.Width,
				BackgroundColor: spec.Background,
			},
		),
		charts.WithTitleOpts(
			opts.Title{
				Title: spec.Title,
			},
		),
		charts.WithTooltipOpts(
			opts.Tooltip{
				Show:    opts.Bool(true),
				Trigger: "axis",
			},
		),
		charts.WithLegendOpts(
			opts.Legend{
				Show: opts.Bool(true),
				Top:  "bottom",
			},
		),
		charts.WithXAxisOpts(
			opts.XAxis{
				Type:      "value",
				Name:      "year",
				Min:       "dataMin",
				Max:       "dataMax",
				AxisLabel: &opts.AxisLabel{Formatter: "{value}"},
			},
		),
		charts.WithYAxisOpts(
			opts.YAxis{
				Type:  "value",
				Name:  "co2",
				Scale: opts.Bool(true),
			},
		),
	)

	for _, series := range spec.Series {
		lineData := make([]opts.LineData, 0, len(series.Points))
		for _, p := range series.Points {
			lineData = append(lineData, opts.LineData{Value: []interface{}{p.Year, p.Value}})
		}
		line.AddSeries(series.Name, lineData,
			charts.WithLineChartOpts(
				opts.LineChart{
					ShowSymbol: opts.Bool(true),
				},
			),
		)
	}
	return line
}

// ChartOptions returns the ECharts option object for the chart spec serialized as JSON
func ChartOptions(spec *ChartSpec) ([]byte, error) {
	if spec == nil {
		return nil, ErrNilChartSpec
	}
	line := LineChart(spec)
	line.Validate()

	bytes, err := json.Marshal(line.JSON())
	if err != nil {
		return nil, fmt.Errorf("unable to marshal chart options, %w", err)
	}
	return bytes, nil
}

// WritePage writes a standalone html page containing the chart
func WritePage(w io.Writer, spec *ChartSpec) error {
	if spec == nil {
		return ErrNilChartSpec
	}
	page := components.NewPage()
	page.SetPageTitle(spec.Title)
	page.AddCharts(LineChart(spec))
	return page.Render(w)
}
