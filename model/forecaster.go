package model

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrModelLoad is wrapped by every failure to produce a Forecaster from a serialized model
	ErrModelLoad = errors.New("unable to load forecast model")

	ErrInvalidPeriods        = errors.New("periods must be at least 1")
	ErrUninitializedModel    = errors.New("uninitialized forecast model")
	ErrUnsupportedPrediction = errors.New("model kind cannot predict arbitrary years")
)

type inference interface {
	forecast(periods int) []float64
}

// Forecaster is an inference-only forecast built from a pre-trained Model. It holds no
// mutable state and is safe for concurrent use.
type Forecaster struct {
	model Model
	inf   inference
}

// NewFromModel creates a Forecaster from a pre-existing model. Every failure wraps ErrModelLoad.
func NewFromModel(m Model) (*Forecaster, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model, %w, %w", err, ErrModelLoad)
	}

	f := &Forecaster{model: m}
	switch m.Kind {
	case KindLinear:
		lin, err := newLinear(m.TrainEndYear, m.Linear)
		if err != nil {
			return nil, fmt.Errorf("unable to initialize linear model, %w, %w", err, ErrModelLoad)
		}
		f.inf = lin
	case KindAutoregressive:
		f.inf = newAutoregressive(m.Autoregressive)
	case KindHolt:
		f.inf = newHolt(m.Holt)
	}
	return f, nil
}

// Decode reads a JSON serialized model and returns a Forecaster. Unknown fields are rejected.
func Decode(r io.Reader) (*Forecaster, error) {
	var m Model
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("unable to decode model, %w, %w", err, ErrModelLoad)
	}
	return NewFromModel(m)
}

// Load reads the serialized model at path once and returns a Forecaster
func Load(path string) (*Forecaster, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open model, %w, %w", err, ErrModelLoad)
	}
	defer file.Close()

	return Decode(file)
}

// Forecast returns the predictions for the periods years immediately following the
// training end year
func (f *Forecaster) Forecast(periods int) ([]float64, error) {
	if f == nil || f.inf == nil {
		return nil, ErrUninitializedModel
	}
	if periods < 1 {
		return nil, fmt.Errorf("got %d, %w", periods, ErrInvalidPeriods)
	}
	return f.inf.forecast(periods), nil
}

// PredictYears evaluates the model at arbitrary years. Only linear models support this.
func (f *Forecaster) PredictYears(years []int) ([]float64, error) {
	if f == nil || f.inf == nil {
		return nil, ErrUninitializedModel
	}
	lin, ok := f.inf.(*linear)
	if !ok {
		return nil, fmt.Errorf("%s, %w", f.model.Kind, ErrUnsupportedPrediction)
	}
	return lin.predict(years), nil
}

// Model returns the serializeable model backing the forecaster
func (f *Forecaster) Model() Model {
	if f == nil {
		return Model{}
	}
	return f.model
}

type linear struct {
	trainEndYear int
	originYear   int
	features     []Feature
	weights      []float64 // intercept followed by coefficients
}

func newLinear(trainEndYear int, p *LinearParams) (*linear, error) {
	features, err := p.Weights.FeatureLabels()
	if err != nil {
		return nil, err
	}
	weights := make([]float64, 0, len(features)+1)
	weights = append(weights, p.Weights.Intercept)
	weights = append(weights, p.Weights.Coefficients()...)
	return &linear{
		trainEndYear: trainEndYear,
		originYear:   p.OriginYear,
		features:     features,
		weights:      weights,
	}, nil
}

func (l *linear) forecast(periods int) []float64 {
	years := make([]int, periods)
	for i := range years {
		years[i] = l.trainEndYear + i + 1
	}
	return l.predict(years)
}

func (l *linear) predict(years []int) []float64 {
	if len(years) == 0 {
		return []float64{}
	}
	n := len(l.weights)
	obs := make([]float64, 0, len(years)*n)
	for _, year := range years {
		obs = append(obs, 1.0)
		for _, feat := range l.features {
			obs = append(obs, feat.Value(year, l.originYear))
		}
	}
	featMx := mat.NewDense(len(years), n, obs)
	wMx := mat.NewVecDense(n, l.weights)

	var resMx mat.VecDense
	resMx.MulVec(featMx, wMx)
	return mat.Col(nil, 0, &resMx)
}

type autoregressive struct {
	constant float64
	// coefficients reversed so the oldest lag lines up with the oldest value in a window
	lagCoef []float64
	// last value at each differencing level, 0 being the raw series
	lastLevels []float64
	// trailing values of the fully differenced series
	seed []float64
}

func newAutoregressive(p *AutoregressiveParams) *autoregressive {
	lagCoef := make([]float64, p.Order())
	copy(lagCoef, p.Coefficients)
	floats.Reverse(lagCoef)

	series := make([]float64, len(p.Observations))
	copy(series, p.Observations)

	lastLevels := make([]float64, p.Differences)
	for d := 0; d < p.Differences; d++ {
		lastLevels[d] = series[len(series)-1]
		series = difference(series)
	}

	seed := make([]float64, p.Order())
	copy(seed, series[len(series)-p.Order():])
	return &autoregressive{
		constant:   p.Constant,
		lagCoef:    lagCoef,
		lastLevels: lastLevels,
		seed:       seed,
	}
}

func difference(y []float64) []float64 {
	if len(y) < 2 {
		return []float64{}
	}
	res := make([]float64, len(y)-1)
	floats.SubTo(res, y[1:], y[:len(y)-1])
	return res
}

func (a *autoregressive) forecast(periods int) []float64 {
	p := len(a.lagCoef)
	window := make([]float64, 0, p+periods)
	window = append(window, a.seed...)
	levels := make([]float64, len(a.lastLevels))
	copy(levels, a.lastLevels)

	res := make([]float64, periods)
	for i := 0; i < periods; i++ {
		next := a.constant
		if p > 0 {
			next += floats.Dot(a.lagCoef, window[len(window)-p:])
		}
		window = append(window, next)

		// integrate back up through each differencing level
		val := next
		for d := len(levels) - 1; d >= 0; d-- {
			levels[d] += val
			val = levels[d]
		}
		res[i] = val
	}
	return res
}

type holt struct {
	level float64
	trend float64
	phi   float64
}

func newHolt(p *HoltParams) *holt {
	return &holt{
		level: p.Level,
		trend: p.Trend,
		phi:   p.Damping(),
	}
}

func (h *holt) forecast(periods int) []float64 {
	res := make([]float64, periods)
	var damp, phiPow float64
	phiPow = 1.0
	for i := 0; i < periods; i++ {
		phiPow *= h.phi
		damp += phiPow
		res[i] = h.level + damp*h.trend
	}
	return res
}
