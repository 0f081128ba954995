package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/co2-dashboard/history"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrResLenMismatch = errors.New("predicted and actual have different lengths")

// Scores tracks how closely a model reproduces the observed series
type Scores struct {
	MSE  float64 `json:"mean_squared_error"`
	MAPE float64 `json:"mean_average_percent_error"`
	R2   float64 `json:"r_squared"`

	// year with the largest absolute residual, actual minus predicted
	WorstYear     int     `json:"worst_year,omitempty"`
	WorstResidual float64 `json:"worst_residual,omitempty"`
}

// NewScores calculates the fit scores of predicted against actual. Pairs with a NaN on either
// side are ignored and zero actuals are left out of the MAPE.
func NewScores(predicted, actual []float64) (*Scores, error) {
	if len(predicted) != len(actual) {
		return nil, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	p := make([]float64, 0, len(predicted))
	a := make([]float64, 0, len(actual))
	for i := range actual {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		p = append(p, predicted[i])
		a = append(a, actual[i])
	}
	if len(a) == 0 {
		return &Scores{R2: 1.0}, nil
	}

	resid := make([]float64, len(a))
	floats.SubTo(resid, a, p)

	var mape float64
	var n int
	for i, r := range resid {
		if a[i] == 0 {
			continue
		}
		mape += math.Abs(r / a[i])
		n++
	}
	if n > 0 {
		mape /= float64(n)
	}

	r2 := stat.RSquaredFrom(p, a, nil)
	if math.IsNaN(r2) {
		r2 = 1.0
	}
	return &Scores{
		MSE:  floats.Dot(resid, resid) / float64(len(resid)),
		MAPE: mape,
		R2:   r2,
	}, nil
}

// Fit scores the model against every year of the historical series. Only models that can
// predict arbitrary years are supported.
func (f *Forecaster) Fit(h *history.History) (*Scores, error) {
	if h.Len() == 0 {
		return nil, history.ErrNoData
	}
	years := h.Years()
	actual := h.Values()

	predicted, err := f.PredictYears(years)
	if err != nil {
		return nil, err
	}
	scores, err := NewScores(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to score in-sample fit, %w", err)
	}

	worst := -1
	for i, year := range years {
		r := actual[i] - predicted[i]
		if math.IsNaN(r) {
			continue
		}
		if worst < 0 || math.Abs(r) > math.Abs(scores.WorstResidual) {
			worst = i
			scores.WorstYear = year
			scores.WorstResidual = r
		}
	}
	return scores, nil
}
