package model

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearModel() Model {
	return Model{
		Name:         "co2 linear",
		Kind:         KindLinear,
		TrainEndYear: 2020,
		Linear: &LinearParams{
			OriginYear: 2000,
			Weights: Weights{
				Intercept: 100,
				Coef: []FeatureWeight{
					NewFeatureWeight(Growth{Name: GrowthLinear}, 2),
					NewFeatureWeight(Changepoint{Name: "c0", Year: 2022, Component: ChangepointCompBias}, -10),
					NewFeatureWeight(Changepoint{Name: "c0", Year: 2022, Component: ChangepointCompSlope}, 1),
				},
			},
		},
	}
}

func TestForecast(t *testing.T) {
	testData := map[string]struct {
		m        Model
		periods  int
		expected []float64
	}{
		"linear with changepoints": {
			m:        linearModel(),
			periods:  3,
			expected: []float64{142, 134, 137},
		},
		"holt undamped": {
			m: Model{
				Kind: KindHolt,
				Holt: &HoltParams{Level: 35, Trend: 1},
			},
			periods:  3,
			expected: []float64{36, 37, 38},
		},
		"holt damped": {
			m: Model{
				Kind: KindHolt,
				Holt: &HoltParams{Level: 35, Trend: 1, Phi: 0.5},
			},
			periods:  2,
			expected: []float64{35.5, 35.75},
		},
		"ar(1) with one difference": {
			m: Model{
				Kind: KindAutoregressive,
				Autoregressive: &AutoregressiveParams{
					Constant:     1,
					Coefficients: []float64{0.5},
					Differences:  1,
					Observations: []float64{30, 32, 33},
				},
			},
			periods:  3,
			expected: []float64{34.5, 36.25, 38.125},
		},
		"ar(2) without differences": {
			m: Model{
				Kind: KindAutoregressive,
				Autoregressive: &AutoregressiveParams{
					Constant:     1,
					Coefficients: []float64{0.5, 0.25},
					Observations: []float64{4, 8},
				},
			},
			periods:  3,
			expected: []float64{6, 6, 5.5},
		},
		"random walk with drift on second difference": {
			m: Model{
				Kind: KindAutoregressive,
				Autoregressive: &AutoregressiveParams{
					Constant:     2,
					Differences:  2,
					Observations: []float64{1, 4, 9},
				},
			},
			periods:  2,
			expected: []float64{16, 25},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f, err := NewFromModel(td.m)
			require.NoError(t, err)

			res, err := f.Forecast(td.periods)
			require.NoError(t, err)
			require.Len(t, res, td.periods)
			assert.InDeltaSlice(t, td.expected, res, 1e-9)

			// inference holds no state between calls
			again, err := f.Forecast(td.periods)
			require.NoError(t, err)
			assert.Equal(t, res, again)
		})
	}
}

func TestForecastInvalidPeriods(t *testing.T) {
	f, err := NewFromModel(linearModel())
	require.NoError(t, err)

	for _, periods := range []int{0, -1} {
		res, err := f.Forecast(periods)
		assert.ErrorIs(t, err, ErrInvalidPeriods)
		assert.Nil(t, res)
	}

	var nilForecaster *Forecaster
	_, err = nilForecaster.Forecast(1)
	assert.ErrorIs(t, err, ErrUninitializedModel)
}

func TestPredictYears(t *testing.T) {
	f, err := NewFromModel(linearModel())
	require.NoError(t, err)

	res, err := f.PredictYears([]int{2000, 2010, 2022})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{100, 120, 134}, res, 1e-9)

	res, err = f.PredictYears(nil)
	require.NoError(t, err)
	assert.Empty(t, res)

	holt, err := NewFromModel(Model{Kind: KindHolt, Holt: &HoltParams{Level: 1}})
	require.NoError(t, err)
	_, err = holt.PredictYears([]int{2000})
	assert.ErrorIs(t, err, ErrUnsupportedPrediction)
}

func TestNewFromModelInvalid(t *testing.T) {
	testData := map[string]struct {
		m   Model
		err error
	}{
		"unknown kind": {
			m:   Model{Kind: "prophet"},
			err: ErrUnknownKind,
		},
		"missing linear params": {
			m:   Model{Kind: KindLinear},
			err: ErrMissingParameters,
		},
		"missing autoregressive params": {
			m:   Model{Kind: KindAutoregressive},
			err: ErrMissingParameters,
		},
		"missing holt params": {
			m:   Model{Kind: KindHolt},
			err: ErrMissingParameters,
		},
		"insufficient observations": {
			m: Model{
				Kind: KindAutoregressive,
				Autoregressive: &AutoregressiveParams{
					Coefficients: []float64{0.5, 0.1},
					Differences:  1,
					Observations: []float64{1, 2},
				},
			},
			err: ErrInvalidParameter,
		},
		"no observations": {
			m: Model{
				Kind:           KindAutoregressive,
				Autoregressive: &AutoregressiveParams{},
			},
			err: ErrInvalidParameter,
		},
		"negative differences": {
			m: Model{
				Kind: KindAutoregressive,
				Autoregressive: &AutoregressiveParams{
					Differences:  -1,
					Observations: []float64{1},
				},
			},
			err: ErrInvalidParameter,
		},
		"nan coefficient": {
			m: Model{
				Kind: KindAutoregressive,
				Autoregressive: &AutoregressiveParams{
					Coefficients: []float64{math.NaN()},
					Observations: []float64{1},
				},
			},
			err: ErrInvalidParameter,
		},
		"holt damping out of range": {
			m: Model{
				Kind: KindHolt,
				Holt: &HoltParams{Level: 1, Trend: 1, Phi: 1.5},
			},
			err: ErrInvalidParameter,
		},
		"infinite linear weight": {
			m: Model{
				Kind:   KindLinear,
				Linear: &LinearParams{Weights: Weights{Intercept: math.Inf(1)}},
			},
			err: ErrInvalidParameter,
		},
		"unknown feature type": {
			m: Model{
				Kind: KindLinear,
				Linear: &LinearParams{Weights: Weights{
					Coef: []FeatureWeight{{Type: "seasonality", Labels: map[string]string{"name": "s0"}}},
				}},
			},
			err: ErrUnknownFeatureType,
		},
		"invalid changepoint component": {
			m: Model{
				Kind: KindLinear,
				Linear: &LinearParams{Weights: Weights{
					Coef: []FeatureWeight{{
						Type:   FeatureTypeChangepoint,
						Labels: map[string]string{"name": "c0", "year": "2010", "changepoint_component": "curve"},
					}},
				}},
			},
			err: ErrInvalidFeature,
		},
		"invalid changepoint year": {
			m: Model{
				Kind: KindLinear,
				Linear: &LinearParams{Weights: Weights{
					Coef: []FeatureWeight{{
						Type:   FeatureTypeChangepoint,
						Labels: map[string]string{"name": "c0", "changepoint_component": "bias"},
					}},
				}},
			},
			err: ErrInvalidFeature,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f, err := NewFromModel(td.m)
			assert.Nil(t, f)
			assert.ErrorIs(t, err, ErrModelLoad)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

const holtModelJSON = `{
  "name": "co2 holt",
  "kind": "holt",
  "train_end_year": 2020,
  "holt": {"level": 35.0, "trend": 1.0}
}`

func TestDecode(t *testing.T) {
	f, err := Decode(strings.NewReader(holtModelJSON))
	require.NoError(t, err)
	assert.Equal(t, "co2 holt", f.Model().Name)
	assert.Equal(t, 2020, f.Model().TrainEndYear)

	res, err := f.Forecast(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{36, 37}, res)

	testData := map[string]string{
		"malformed json": `{"kind": "holt",`,
		"unknown field":  `{"kind": "holt", "holt": {"level": 1}, "pickle": true}`,
		"empty kind":     `{}`,
	}
	for name, input := range testData {
		t.Run(name, func(t *testing.T) {
			f, err := Decode(strings.NewReader(input))
			assert.Nil(t, f)
			assert.ErrorIs(t, err, ErrModelLoad)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model_co2.json")
	require.NoError(t, os.WriteFile(path, []byte(holtModelJSON), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, KindHolt, f.Model().Kind)

	_, err = Load(filepath.Join(dir, "model_co2.pkl"))
	assert.ErrorIs(t, err, ErrModelLoad)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFeatureWeightRoundTrip(t *testing.T) {
	features := []Feature{
		Growth{Name: GrowthLinear},
		Changepoint{Name: "covid", Year: 2020, Component: ChangepointCompBias},
		Changepoint{Name: "covid", Year: 2020, Component: ChangepointCompSlope},
	}
	for _, feat := range features {
		fw := NewFeatureWeight(feat, 1.5)
		res, err := fw.ToFeature()
		require.NoError(t, err)
		assert.Equal(t, feat, res)
		assert.Equal(t, feat.String(), res.String())
	}

	var nilFw *FeatureWeight
	_, err := nilFw.ToFeature()
	assert.ErrorIs(t, err, ErrUnknownFeatureType)
}

func TestFeatureValue(t *testing.T) {
	bias := Changepoint{Name: "c", Year: 2010, Component: ChangepointCompBias}
	slope := Changepoint{Name: "c", Year: 2010, Component: ChangepointCompSlope}
	growth := Growth{Name: GrowthLinear}

	assert.Equal(t, 0.0, bias.Value(2009, 2000))
	assert.Equal(t, 1.0, bias.Value(2010, 2000))
	assert.Equal(t, 0.0, slope.Value(2010, 2000))
	assert.Equal(t, 3.0, slope.Value(2013, 2000))
	assert.Equal(t, 13.0, growth.Value(2013, 2000))
	assert.Equal(t, -1.0, growth.Value(1999, 2000))
}
