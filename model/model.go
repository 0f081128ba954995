package model

import (
	"errors"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/goccy/go-json"
)

var (
	ErrUnknownKind       = errors.New("unknown model kind")
	ErrMissingParameters = errors.New("model kind has no parameters")
	ErrInvalidParameter  = errors.New("invalid model parameter")
)

// Kind names the forecasting method a serialized model was produced with
type Kind string

const (
	KindLinear         Kind = "linear"
	KindAutoregressive Kind = "autoregressive"
	KindHolt           Kind = "holt"
)

// Model represents the serializeable format of a pre-trained annual forecast. Exactly one
// parameter block matching Kind is used for inference.
type Model struct {
	Name         string  `json:"name,omitempty"`
	Kind         Kind    `json:"kind"`
	TrainEndYear int     `json:"train_end_year"`
	Scores       *Scores `json:"scores,omitempty"`

	Linear         *LinearParams         `json:"linear,omitempty"`
	Autoregressive *AutoregressiveParams `json:"autoregressive,omitempty"`
	Holt           *HoltParams           `json:"holt,omitempty"`
}

// LinearParams holds a trend model of growth and changepoint features
type LinearParams struct {
	OriginYear int     `json:"origin_year"`
	Weights    Weights `json:"weights"`
}

// Weights stores the intercept and coefficients for the linear model
type Weights struct {
	Intercept float64         `json:"intercept"`
	Coef      []FeatureWeight `json:"coefficients"`
}

// FeatureLabels returns all of the features in the same order as the coefficients
func (w *Weights) FeatureLabels() ([]Feature, error) {
	labels := make([]Feature, 0, len(w.Coef))
	for _, fw := range w.Coef {
		feat, err := fw.ToFeature()
		if err != nil {
			return nil, err
		}
		labels = append(labels, feat)
	}
	return labels, nil
}

// Coefficients returns a slice copy of the coefficients ignoring the intercept.
func (w *Weights) Coefficients() []float64 {
	coef := make([]float64, 0, len(w.Coef))
	for _, fw := range w.Coef {
		coef = append(coef, fw.Value)
	}
	return coef
}

// AutoregressiveParams describes an ARIMA(p,d,0) model with a constant term. Observations
// holds the trailing training values needed to seed the recursion, oldest first.
type AutoregressiveParams struct {
	Constant     float64   `json:"constant"`
	Coefficients []float64 `json:"coefficients"`
	Differences  int       `json:"differences"`
	Observations []float64 `json:"observations"`
}

// Order returns the autoregressive order p
func (a *AutoregressiveParams) Order() int {
	return len(a.Coefficients)
}

// HoltParams holds the final smoothed state of Holt's linear trend method. Phi is the
// damping factor where 0 is treated as an undamped trend.
type HoltParams struct {
	Level float64 `json:"level"`
	Trend float64 `json:"trend"`
	Phi   float64 `json:"phi,omitempty"`
}

// Damping returns the effective damping factor
func (h *HoltParams) Damping() float64 {
	if h.Phi == 0 {
		return 1.0
	}
	return h.Phi
}

// Validate checks that the parameter block for the model kind is present and usable
func (m Model) Validate() error {
	switch m.Kind {
	case KindLinear:
		if m.Linear == nil {
			return fmt.Errorf("%s, %w", m.Kind, ErrMissingParameters)
		}
		if !finite(m.Linear.Weights.Intercept) || !finite(m.Linear.Weights.Coefficients()...) {
			return fmt.Errorf("linear weights, %w", ErrInvalidParameter)
		}
		if _, err := m.Linear.Weights.FeatureLabels(); err != nil {
			return err
		}
	case KindAutoregressive:
		ar := m.Autoregressive
		if ar == nil {
			return fmt.Errorf("%s, %w", m.Kind, ErrMissingParameters)
		}
		if ar.Differences < 0 {
			return fmt.Errorf("differences %d, %w", ar.Differences, ErrInvalidParameter)
		}
		minObs := ar.Order() + ar.Differences
		if minObs < 1 {
			minObs = 1
		}
		if len(ar.Observations) < minObs {
			return fmt.Errorf(
				"need at least %d observations for order %d with %d differences, but got %d, %w",
				minObs, ar.Order(), ar.Differences, len(ar.Observations), ErrInvalidParameter,
			)
		}
		if !finite(ar.Constant) || !finite(ar.Coefficients...) || !finite(ar.Observations...) {
			return fmt.Errorf("autoregressive parameters, %w", ErrInvalidParameter)
		}
	case KindHolt:
		h := m.Holt
		if h == nil {
			return fmt.Errorf("%s, %w", m.Kind, ErrMissingParameters)
		}
		if !finite(h.Level, h.Trend, h.Phi) {
			return fmt.Errorf("holt parameters, %w", ErrInvalidParameter)
		}
		if phi := h.Damping(); phi <= 0 || phi > 1 {
			return fmt.Errorf("damping %.3f not in (0, 1], %w", phi, ErrInvalidParameter)
		}
	default:
		return fmt.Errorf("%q, %w", m.Kind, ErrUnknownKind)
	}
	return nil
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// TablePrint writes a human readable description of the model
func (m Model) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%sModel:\n", prefix, IndentExpand(indent, 0)); err != nil {
		return err
	}
	if m.Name != "" {
		if _, err := fmt.Fprintf(w, "%s%sName: %s\n", prefix, IndentExpand(indent, 1), m.Name); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%s%sKind: %s\n", prefix, IndentExpand(indent, 1), m.Kind); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sTraining End Year: %d\n", prefix, IndentExpand(indent, 1), m.TrainEndYear); err != nil {
		return err
	}

	if m.Scores != nil {
		if err := m.Scores.TablePrint(w, prefix, indent, 0); err != nil {
			return err
		}
	}

	switch {
	case m.Linear != nil:
		return m.Linear.tablePrint(w, prefix, indent, 0)
	case m.Autoregressive != nil:
		return m.Autoregressive.tablePrint(w, prefix, indent, 0)
	case m.Holt != nil:
		return m.Holt.tablePrint(w, prefix, indent, 0)
	}
	return nil
}

// TablePrint writes the fit scores
func (s Scores) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(w, "%s%sScores:\n", prefix, IndentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s%sMAPE: %.3f    MSE: %.3f    R2: %.3f\n",
		prefix, IndentExpand(indent, indentGrowth+1),
		s.MAPE, s.MSE, s.R2,
	)
	if err != nil || s.WorstYear == 0 {
		return err
	}
	_, err = fmt.Fprintf(w, "%s%sWorst Year: %d    Residual: %.3f\n",
		prefix, IndentExpand(indent, indentGrowth+1),
		s.WorstYear, s.WorstResidual,
	)
	return err
}

func (l LinearParams) tablePrint(wr io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(wr, "%s%sOrigin Year: %d\n", prefix, IndentExpand(indent, indentGrowth+1), l.OriginYear); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(wr, "%s%sWeights:\n", prefix, IndentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(wr, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s%sType\tLabels\tValue\t\n", prefix, IndentExpand(indent, indentGrowth+1)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tbl, "%s%sIntercept\t\t%.3f\t\n", prefix, IndentExpand(indent, indentGrowth+1), l.Weights.Intercept); err != nil {
		return err
	}
	for _, fw := range l.Weights.Coef {
		labelOut, err := json.Marshal(fw.Labels)
		if err != nil {
			return err
		}
		val := fmt.Sprintf("%.3f", fw.Value)
		if fw.Value == 0 {
			val = "..."
		}
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%s\t%s\t\n",
			prefix, IndentExpand(indent, indentGrowth+1),
			fw.Type, string(labelOut), val); err != nil {
			return err
		}
	}
	return tbl.Flush()
}

func (a AutoregressiveParams) tablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(w, "%s%sAutoregressive:\n", prefix, IndentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sOrder: (%d, %d, 0)    Constant: %.3f\n",
		prefix, IndentExpand(indent, indentGrowth+1),
		a.Order(), a.Differences, a.Constant); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sCoefficients: %.3f\n", prefix, IndentExpand(indent, indentGrowth+1), a.Coefficients); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s%sObservations: %d\n", prefix, IndentExpand(indent, indentGrowth+1), len(a.Observations))
	return err
}

func (h HoltParams) tablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(w, "%s%sHolt:\n", prefix, IndentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s%sLevel: %.3f    Trend: %.3f    Damping: %.3f\n",
		prefix, IndentExpand(indent, indentGrowth+1),
		h.Level, h.Trend, h.Damping())
	return err
}

// IndentExpand repeats indent growth times
func IndentExpand(indent string, growth int) string {
	indentByte := []byte(indent)
	out := make([]byte, 0, len(indent)*growth)
	for i := 0; i < growth; i++ {
		out = append(out, indentByte...)
	}
	return string(out)
}
