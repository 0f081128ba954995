package dashboard

import (
	"errors"
	"fmt"
	"slices"
)

const (
	MinHorizon     = 1
	MaxHorizon     = 10
	DefaultHorizon = 5

	DefaultTitle      = "CO2 emissions forecast"
	DefaultTheme      = "dark"
	DefaultHeight     = "500px"
	DefaultWidth      = "100%"
	DefaultBackground = "#000000"
)

var (
	ErrNoHorizons            = errors.New("no allowed horizons")
	ErrHorizonOutOfRange     = errors.New("allowed horizon out of range")
	ErrDefaultHorizonMissing = errors.New("default horizon is not an allowed horizon")
)

// Options configures which horizons may be rendered and how the chart is displayed
type Options struct {
	// Horizons is the enumerated set of horizons a user may select
	Horizons       []int
	DefaultHorizon int

	Title      string
	Theme      string
	Height     string
	Width      string
	Background string
}

// NewDefaultOptions allows every horizon from MinHorizon through MaxHorizon inclusive and
// renders a dark themed chart
func NewDefaultOptions() *Options {
	horizons := make([]int, 0, MaxHorizon-MinHorizon+1)
	for h := MinHorizon; h <= MaxHorizon; h++ {
		horizons = append(horizons, h)
	}
	return &Options{
		Horizons:       horizons,
		DefaultHorizon: DefaultHorizon,
		Title:          DefaultTitle,
		Theme:          DefaultTheme,
		Height:         DefaultHeight,
		Width:          DefaultWidth,
		Background:     DefaultBackground,
	}
}

// Validate checks the horizon set and the default horizon
func (o *Options) Validate() error {
	if len(o.Horizons) == 0 {
		return ErrNoHorizons
	}
	for _, h := range o.Horizons {
		if h < MinHorizon || h > MaxHorizon {
			return fmt.Errorf("horizon %d not in [%d, %d], %w", h, MinHorizon, MaxHorizon, ErrHorizonOutOfRange)
		}
	}
	if !slices.Contains(o.Horizons, o.DefaultHorizon) {
		return fmt.Errorf("default %d, %w", o.DefaultHorizon, ErrDefaultHorizonMissing)
	}
	return nil
}

// MinAllowed returns the smallest allowed horizon
func (o *Options) MinAllowed() int {
	return slices.Min(o.Horizons)
}

// MaxAllowed returns the largest allowed horizon
func (o *Options) MaxAllowed() int {
	return slices.Max(o.Horizons)
}
