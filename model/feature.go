package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

var (
	ErrUnknownFeatureType = errors.New("unknown feature type")
	ErrInvalidFeature     = errors.New("invalid feature labels")
)

// FeatureType identifies how a linear model feature is evaluated for a given year
type FeatureType string

const (
	FeatureTypeGrowth      FeatureType = "growth"
	FeatureTypeChangepoint FeatureType = "changepoint"
)

const (
	GrowthLinear = "linear"

	ChangepointCompBias  = "bias"
	ChangepointCompSlope = "slope"
)

// Feature is a single regressor of a linear model evaluated at an annual time point
type Feature interface {
	String() string
	Type() FeatureType
	Decode() map[string]string
	Value(year, originYear int) float64
}

// Growth is the global linear trend measured in years since the model origin
type Growth struct {
	Name string `json:"name"`
}

func (g Growth) String() string {
	return fmt.Sprintf("growth_%s", g.Name)
}

func (g Growth) Type() FeatureType {
	return FeatureTypeGrowth
}

func (g Growth) Decode() map[string]string {
	return map[string]string{"name": g.Name}
}

func (g Growth) Value(year, originYear int) float64 {
	return float64(year - originYear)
}

// Changepoint shifts the level (bias) or the trend (slope) from Year onwards
type Changepoint struct {
	Name      string `json:"name"`
	Year      int    `json:"year"`
	Component string `json:"changepoint_component"`
}

func (c Changepoint) String() string {
	return fmt.Sprintf("chpnt_%s_%s", c.Name, c.Component)
}

func (c Changepoint) Type() FeatureType {
	return FeatureTypeChangepoint
}

func (c Changepoint) Decode() map[string]string {
	return map[string]string{
		"name":                  c.Name,
		"year":                  strconv.Itoa(c.Year),
		"changepoint_component": c.Component,
	}
}

func (c Changepoint) Value(year, originYear int) float64 {
	if year < c.Year {
		return 0.0
	}
	switch c.Component {
	case ChangepointCompSlope:
		return float64(year - c.Year)
	default:
		return 1.0
	}
}

// FeatureWeight represents a feature described with a type e.g. changepoint, labels and the value
type FeatureWeight struct {
	Labels map[string]string `json:"labels"`
	Type   FeatureType       `json:"type"`
	Value  float64           `json:"value"`
}

func NewFeatureWeight(f Feature, val float64) FeatureWeight {
	return FeatureWeight{
		Labels: f.Decode(),
		Type:   f.Type(),
		Value:  val,
	}
}

// ToFeature transforms the Type and Labels into a feature
func (fw *FeatureWeight) ToFeature() (Feature, error) {
	if fw == nil {
		return nil, ErrUnknownFeatureType
	}

	switch fw.Type {
	case FeatureTypeGrowth:
		var g Growth
		if err := remarshal(fw.Labels, &g); err != nil {
			return nil, err
		}
		if g.Name == "" {
			g.Name = GrowthLinear
		}
		return g, nil
	case FeatureTypeChangepoint:
		c := Changepoint{
			Name:      fw.Labels["name"],
			Component: strings.ToLower(fw.Labels["changepoint_component"]),
		}
		year, err := strconv.Atoi(fw.Labels["year"])
		if err != nil {
			return nil, fmt.Errorf("changepoint %s year %q, %w", c.Name, fw.Labels["year"], ErrInvalidFeature)
		}
		c.Year = year
		switch c.Component {
		case ChangepointCompBias, ChangepointCompSlope:
		default:
			return nil, fmt.Errorf("changepoint %s component %q, %w", c.Name, c.Component, ErrInvalidFeature)
		}
		return c, nil
	}
	return nil, fmt.Errorf("%q, %w", fw.Type, ErrUnknownFeatureType)
}

func remarshal(labels map[string]string, dst any) error {
	bytes, err := json.Marshal(labels)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, dst)
}
