package dashboard

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echartOptions struct {
	BackgroundColor string `json:"backgroundColor"`
	Title           struct {
		Text string `json:"text"`
	} `json:"title"`
	XAxis []struct {
		Type string `json:"type"`
		Name string `json:"name"`
	} `json:"xAxis"`
	Series []struct {
		Name string `json:"name"`
		Type string `json:"type"`
		Data []struct {
			Value []float64 `json:"value"`
		} `json:"data"`
	} `json:"series"`
}

func renderTestSpec(t *testing.T, horizon int) *ChartSpec {
	t.Helper()
	r, err := New(testHistory(t), ForecasterFunc(trendForecaster), nil)
	require.NoError(t, err)
	spec, err := r.Render(horizon)
	require.NoError(t, err)
	return spec
}

func TestChartOptions(t *testing.T) {
	spec := renderTestSpec(t, 2)

	out, err := ChartOptions(spec)
	require.NoError(t, err)

	var res echartOptions
	require.NoError(t, json.Unmarshal(out, &res))

	assert.Equal(t, DefaultBackground, res.BackgroundColor)
	assert.Equal(t, DefaultTitle, res.Title.Text)
	require.Len(t, res.XAxis, 1)
	assert.Equal(t, "value", res.XAxis[0].Type)
	assert.Equal(t, "year", res.XAxis[0].Name)

	require.Len(t, res.Series, 2)
	assert.Equal(t, SeriesForecast, res.Series[0].Name)
	assert.Equal(t, "line", res.Series[0].Type)
	require.Len(t, res.Series[0].Data, 3)
	assert.Equal(t, []float64{2021, 35}, res.Series[0].Data[0].Value)
	assert.Equal(t, []float64{2023, 37}, res.Series[0].Data[2].Value)

	assert.Equal(t, SeriesPrevious, res.Series[1].Name)
	require.Len(t, res.Series[1].Data, 5)
	assert.Equal(t, []float64{2016, 31}, res.Series[1].Data[0].Value)

	again, err := ChartOptions(spec)
	require.NoError(t, err)
	assert.Equal(t, out, again)

	_, err = ChartOptions(nil)
	assert.ErrorIs(t, err, ErrNilChartSpec)
}

func TestWritePage(t *testing.T) {
	spec := renderTestSpec(t, 5)

	var buf bytes.Buffer
	require.NoError(t, WritePage(&buf, spec))

	page := buf.String()
	assert.Contains(t, page, "<title>"+DefaultTitle+"</title>")
	assert.Contains(t, page, chartID)
	assert.Contains(t, page, "echarts.min.js")
	assert.Contains(t, page, `"dark"`)

	assert.ErrorIs(t, WritePage(&buf, nil), ErrNilChartSpec)
}

func TestLineChart(t *testing.T) {
	spec := renderTestSpec(t, 3)
	line := LineChart(spec)
	require.Len(t, line.MultiSeries, 2)
	assert.Len(t, line.MultiSeries[0].Data, 4)
	assert.Len(t, line.MultiSeries[1].Data, 5)
	assert.Equal(t, DefaultTheme, line.Initialization.Theme)
	assert.Equal(t, DefaultHeight, line.Initialization.Height)
}
