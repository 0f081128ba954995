package dashboard

import (
	"log/slog"
	"sync"
)

// Ticket orders recomputes by the time they started
type Ticket uint64

// Display holds the chart that is currently shown. Results are published last-write-wins by
// ticket so a slow recompute that finishes after a newer one is dropped.
type Display struct {
	mu        sync.Mutex
	next      Ticket
	published Ticket
	current   *ChartSpec
}

func NewDisplay() *Display {
	return &Display{}
}

// Begin reserves the ticket for a recompute that is about to start
func (d *Display) Begin() Ticket {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.next++
	return d.next
}

// Publish shows spec if no newer ticket has been published yet and reports whether it did
func (d *Display) Publish(t Ticket, spec *ChartSpec) bool {
	if spec == nil {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if t <= d.published {
		return false
	}
	d.published = t
	d.current = spec
	return true
}

// Current returns the displayed chart, if any has been published
func (d *Display) Current() (*ChartSpec, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.current, d.current != nil
}

// Refresh renders horizon and publishes the result. On error nothing is published and the
// previous chart stays displayed.
func (d *Display) Refresh(r *Renderer, horizon int) (*ChartSpec, error) {
	t := d.Begin()
	spec, err := r.Render(horizon)
	if err != nil {
		return nil, err
	}
	if !d.Publish(t, spec) {
		slog.Debug("dropped superseded chart", "horizon", horizon, "ticket", uint64(t))
	}
	return spec, nil
}
