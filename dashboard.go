// Package dashboard renders CO2 emission forecasts as charts. A Renderer joins an immutable
// historical series with a pre-trained forecasting capability and produces a fresh ChartSpec
// for each requested horizon.
package dashboard

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/aouyang1/co2-dashboard/history"
)

var (
	// ErrInvalidHorizon is returned when a horizon is not one of the allowed choices
	ErrInvalidHorizon = errors.New("invalid forecast horizon")

	// ErrForecast is returned when the forecasting capability fails or returns malformed output
	ErrForecast = errors.New("unable to forecast")

	ErrNoHistory           = errors.New("no historical data")
	ErrNilForecaster       = errors.New("nil forecaster")
	ErrForecastLenMismatch = errors.New("forecast length does not match horizon")
	ErrNonFiniteForecast   = errors.New("forecast contains non-finite value")
	ErrForecastPanic       = errors.New("forecaster panicked")
)

// Forecaster predicts the values for the periods immediately following the historical series
type Forecaster interface {
	Forecast(periods int) ([]float64, error)
}

// ForecasterFunc adapts a function to the Forecaster interface
type ForecasterFunc func(periods int) ([]float64, error)

func (f ForecasterFunc) Forecast(periods int) ([]float64, error) {
	return f(periods)
}

// Renderer produces chart specifications from a fixed history and forecasting capability. It
// holds no mutable state and is safe for concurrent use.
type Renderer struct {
	opt      *Options
	previous []history.Point
	last     history.Point
	f        Forecaster
}

// New creates a renderer over the historical series and forecaster. A nil opt uses
// NewDefaultOptions.
func New(h *history.History, f Forecaster, opt *Options) (*Renderer, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options, %w", err)
	}
	if f == nil {
		return nil, ErrNilForecaster
	}
	last, ok := h.Last()
	if !ok {
		return nil, ErrNoHistory
	}

	optCopy := *opt
	optCopy.Horizons = slices.Clone(opt.Horizons)
	slices.Sort(optCopy.Horizons)

	return &Renderer{
		opt:      &optCopy,
		previous: h.Points(),
		last:     last,
		f:        f,
	}, nil
}

// Options returns a copy of the options the renderer was created with
func (r *Renderer) Options() Options {
	opt := *r.opt
	opt.Horizons = slices.Clone(r.opt.Horizons)
	return opt
}

// Last returns the final historical point the forecast is stitched onto
func (r *Renderer) Last() history.Point {
	return r.last
}

// ValidateHorizon returns ErrInvalidHorizon if horizon is not an allowed choice
func (r *Renderer) ValidateHorizon(horizon int) error {
	if _, found := slices.BinarySearch(r.opt.Horizons, horizon); !found {
		return fmt.Errorf("%d not in %v, %w", horizon, r.opt.Horizons, ErrInvalidHorizon)
	}
	return nil
}

// Render forecasts horizon years past the last historical year and returns a chart with the
// stitched "forecast" series and the full "previous" series. No ChartSpec is returned on error.
func (r *Renderer) Render(horizon int) (*ChartSpec, error) {
	if err := r.ValidateHorizon(horizon); err != nil {
		return nil, err
	}

	res, err := r.forecast(horizon)
	if err != nil {
		return nil, err
	}

	return &ChartSpec{
		Title:      r.opt.Title,
		Horizon:    horizon,
		Theme:      r.opt.Theme,
		Height:     r.opt.Height,
		Width:      r.opt.Width,
		Background: r.opt.Background,
		Series: []Series{
			{Name: SeriesForecast, Points: Stitch(r.last, res)},
			{Name: SeriesPrevious, Points: slices.Clone(r.previous)},
		},
	}, nil
}

func (r *Renderer) forecast(horizon int) (res []float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("recovered forecaster panic", "horizon", horizon, "panic", rec)
			res = nil
			err = fmt.Errorf("horizon %d, %v, %w, %w", horizon, rec, ErrForecastPanic, ErrForecast)
		}
	}()

	res, err = r.f.Forecast(horizon)
	if err != nil {
		return nil, fmt.Errorf("horizon %d, %w, %w", horizon, err, ErrForecast)
	}
	if len(res) != horizon {
		return nil, fmt.Errorf("expected %d, but got %d, %w, %w", horizon, len(res), ErrForecastLenMismatch, ErrForecast)
	}
	for i, val := range res {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("period %d is %f, %w, %w", i+1, val, ErrNonFiniteForecast, ErrForecast)
		}
	}
	return res, nil
}

// ParseHorizon converts user input into a horizon. Anything that is not a base 10 integer is
// rejected with ErrInvalidHorizon. Range checks happen at render time.
func ParseHorizon(s string) (int, error) {
	h, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q, %w", s, ErrInvalidHorizon)
	}
	return h, nil
}
