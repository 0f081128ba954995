package model

import (
	"bytes"
	"math"
	"testing"

	"github.com/aouyang1/co2-dashboard/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelTablePrint(t *testing.T) {
	testData := map[string]struct {
		m        Model
		prefix   string
		indent   string
		expected string
	}{
		"kind without parameters": {
			m: Model{Kind: KindHolt},
			expected: `Model:
Kind: holt
Training End Year: 0
`,
		},
		"holt with scores": {
			m: Model{
				Name:         "co2 holt",
				Kind:         KindHolt,
				TrainEndYear: 2020,
				Scores: &Scores{
					MAPE: 0.0123,
					MSE:  2.5,
					R2:   0.95,
				},
				Holt: &HoltParams{Level: 35, Trend: 1},
			},
			indent: "  ",
			expected: `Model:
  Name: co2 holt
  Kind: holt
  Training End Year: 2020
Scores:
  MAPE: 0.012    MSE: 2.500    R2: 0.950
Holt:
  Level: 35.000    Trend: 1.000    Damping: 1.000
`,
		},
		"autoregressive with prefix": {
			m: Model{
				Kind:         KindAutoregressive,
				TrainEndYear: 2020,
				Autoregressive: &AutoregressiveParams{
					Constant:     1,
					Coefficients: []float64{0.5},
					Differences:  1,
					Observations: []float64{30, 32, 33},
				},
			},
			prefix: "--",
			indent: "**",
			expected: `--Model:
--**Kind: autoregressive
--**Training End Year: 2020
--Autoregressive:
--**Order: (1, 1, 0)    Constant: 1.000
--**Coefficients: [0.500]
--**Observations: 3
`,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			err := td.m.TablePrint(&buf, td.prefix, td.indent)
			require.NoError(t, err)
			assert.Equal(t, td.expected, buf.String())
		})
	}
}

func TestLinearTablePrint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, linearModel().TablePrint(&buf, "", "  "))

	out := buf.String()
	assert.Contains(t, out, "Kind: linear")
	assert.Contains(t, out, "Origin Year: 2000")
	assert.Contains(t, out, "Weights:")
	assert.Contains(t, out, "Intercept")
	assert.Contains(t, out, `{"name":"linear"}`)
	assert.Contains(t, out, `"changepoint_component":"slope"`)
	assert.Contains(t, out, "-10.000")
}

func TestNewScores(t *testing.T) {
	testData := map[string]struct {
		predicted []float64
		actual    []float64
		expected  *Scores
		err       error
	}{
		"perfect fit": {
			predicted: []float64{1, 2, 3},
			actual:    []float64{1, 2, 3},
			expected:  &Scores{MSE: 0, MAPE: 0, R2: 1},
		},
		"with nan and zero actual": {
			predicted: []float64{2, 2, 4, 5},
			actual:    []float64{1, math.NaN(), 4, 0},
			expected:  &Scores{MSE: 26.0 / 3.0, MAPE: 0.5, R2: -2.0},
		},
		"length mismatch": {
			predicted: []float64{1},
			actual:    []float64{1, 2},
			err:       ErrResLenMismatch,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			scores, err := NewScores(td.predicted, td.actual)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, td.expected.MSE, scores.MSE, 1e-9)
			assert.InDelta(t, td.expected.MAPE, scores.MAPE, 1e-9)
			assert.InDelta(t, td.expected.R2, scores.R2, 1e-9)
		})
	}
}

func TestFit(t *testing.T) {
	f, err := NewFromModel(linearModel())
	require.NoError(t, err)

	h, err := history.New([]int{2000, 2010, 2022}, []float64{100, 125, 134})
	require.NoError(t, err)

	scores, err := f.Fit(h)
	require.NoError(t, err)
	assert.InDelta(t, 25.0/3.0, scores.MSE, 1e-9)
	assert.InDelta(t, 0.04/3.0, scores.MAPE, 1e-9)
	assert.InDelta(t, 1.0-75.0/1862.0, scores.R2, 1e-9)
	assert.Equal(t, 2010, scores.WorstYear)
	assert.InDelta(t, 5.0, scores.WorstResidual, 1e-9)

	var buf bytes.Buffer
	require.NoError(t, scores.TablePrint(&buf, "", "  ", 0))
	assert.Contains(t, buf.String(), "  Worst Year: 2010    Residual: 5.000\n")

	_, err = f.Fit(nil)
	assert.ErrorIs(t, err, history.ErrNoData)

	holt, err := NewFromModel(Model{Kind: KindHolt, Holt: &HoltParams{Level: 1}})
	require.NoError(t, err)
	_, err = holt.Fit(h)
	assert.ErrorIs(t, err, ErrUnsupportedPrediction)
}

func TestIndentExpand(t *testing.T) {
	assert.Equal(t, "", IndentExpand("  ", 0))
	assert.Equal(t, "    ", IndentExpand("  ", 2))
	assert.Equal(t, "", IndentExpand("", 3))
}
