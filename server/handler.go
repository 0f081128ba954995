package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	dashboard "github.com/aouyang1/co2-dashboard"
	"github.com/goccy/go-json"
)

const horizonParam = "horizon"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := s.pageData()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleChart recomputes the chart for the requested horizon and returns the echarts options.
// Without a horizon the currently displayed chart is returned.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get(horizonParam)
	if raw == "" {
		spec, ok := s.display.Current()
		if !ok {
			s.writeErr(w, r, ErrNotPrimed)
			return
		}
		chartOpts, err := dashboard.ChartOptions(spec)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		writeRawJSON(w, http.StatusOK, chartOpts)
		return
	}

	horizon, err := dashboard.ParseHorizon(raw)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	chartOpts, err := s.refresh(horizon)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, chartOpts)
}

// rendered is the result shared by coalesced recomputes of one horizon
type rendered struct {
	spec      *dashboard.ChartSpec
	chartOpts []byte
}

// refresh coalesces concurrent renders of the same horizon. Every request publishes the shared
// chart under its own ticket so the latest request wins even when it joined an older render.
func (s *Server) refresh(horizon int) ([]byte, error) {
	t := s.display.Begin()
	res, err, shared := s.group.Do(strconv.Itoa(horizon), func() (interface{}, error) {
		spec, err := s.renderer.Render(horizon)
		if err != nil {
			return nil, err
		}
		chartOpts, err := dashboard.ChartOptions(spec)
		if err != nil {
			return nil, err
		}
		return rendered{spec: spec, chartOpts: chartOpts}, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("coalesced chart recompute", "horizon", horizon)
	}

	out := res.(rendered)
	if !s.display.Publish(t, out.spec) {
		s.logger.Debug("dropped superseded chart", "horizon", horizon, "ticket", uint64(t))
	}
	return out.chartOpts, nil
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	horizon, err := dashboard.ParseHorizon(r.URL.Query().Get(horizonParam))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	spec, err := s.renderer.Render(horizon)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// StatusCode maps render errors onto http status codes
func StatusCode(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrInvalidHorizon):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrForecast):
		return http.StatusBadGateway
	case errors.Is(err, ErrNotPrimed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "query", r.URL.RawQuery, "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRawJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
