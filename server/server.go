// Package server serves the forecast dashboard over HTTP. A single page hosts the chart and the
// horizon slider, and every slider change triggers one recompute through the shared Display.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	dashboard "github.com/aouyang1/co2-dashboard"
	"github.com/go-echarts/go-echarts/v2/opts"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultAddr            = ":8050"
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultAssetsHost      = "https://go-echarts.github.io/go-echarts-assets/assets/"
)

var (
	ErrNilRenderer = errors.New("renderer is required")
	ErrNilServer   = errors.New("server is nil")
	ErrNotPrimed   = errors.New("no chart has been displayed")
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Config holds the listener and page settings
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// AssetsHost is the base url the echarts javascript is loaded from
	AssetsHost string

	// Marks are the labeled slider positions. Defaults to every allowed horizon but the last.
	Marks []int

	Logger *slog.Logger
}

func NewDefaultConfig() Config {
	return Config{
		Addr:            DefaultAddr,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		AssetsHost:      DefaultAssetsHost,
	}
}

// Server owns the display state and the http server for the dashboard
type Server struct {
	cfg      Config
	logger   *slog.Logger
	renderer *dashboard.Renderer
	display  *dashboard.Display
	group    singleflight.Group
	ready    atomic.Bool

	httpServer *http.Server
}

// New builds a server around a renderer. The server reports not ready until Prime succeeds.
func New(r *dashboard.Renderer, cfg Config) (*Server, error) {
	if r == nil {
		return nil, ErrNilRenderer
	}

	def := NewDefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if cfg.AssetsHost == "" {
		cfg.AssetsHost = def.AssetsHost
	}
	if len(cfg.Marks) == 0 {
		cfg.Marks = defaultMarks(r.Options().Horizons)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		logger:   cfg.Logger,
		renderer: r,
		display:  dashboard.NewDisplay(),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return s, nil
}

func defaultMarks(horizons []int) []int {
	if len(horizons) <= 1 {
		return horizons
	}
	return horizons[:len(horizons)-1]
}

// Prime renders the default horizon so the page has an initial chart and marks the server ready
func (s *Server) Prime() error {
	horizon := s.renderer.Options().DefaultHorizon
	if _, err := s.display.Refresh(s.renderer, horizon); err != nil {
		return fmt.Errorf("unable to render initial chart for horizon %d, %w", horizon, err)
	}
	s.ready.Store(true)
	return nil
}

// Ready reports whether the initial chart has been rendered
func (s *Server) Ready() bool {
	return s.ready.Load()
}

// Display returns the chart state shared by all requests
func (s *Server) Display() *dashboard.Display {
	return s.display
}

// Handler returns the routes of the dashboard wrapped with logging and panic recovery
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/chart", s.handleChart)
	mux.HandleFunc("GET /api/forecast", s.handleForecast)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	return Chain(mux,
		LogRequests(s.logger),
		RecoverPanic(s.logger),
	)
}

// ListenAndServe runs the HTTP server until the context ends.
//
// On cancellation, it performs a bounded shutdown so in-flight requests
// are drained before hard close.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return ErrNilServer
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("unable to listen on %s, %w", s.cfg.Addr, err)
	}

	serveErr := make(chan error, 1)
	s.logger.Info("dashboard listening", "addr", ln.Addr().String())
	go func() {
		serveErr <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.ready.Store(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("unable to shutdown http server, %w", err)
		}
		s.logger.Info("dashboard stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("unable to serve http, %w", err)
	}
}

type pageData struct {
	Title     string
	Theme     string
	Width     string
	Height    string
	Min       int
	Max       int
	Default   int
	Marks     []int
	EchartsJS string
	Options   template.JS
}

func (s *Server) pageData() (pageData, error) {
	spec, ok := s.display.Current()
	if !ok {
		return pageData{}, ErrNotPrimed
	}
	chartOpts, err := dashboard.ChartOptions(spec)
	if err != nil {
		return pageData{}, err
	}

	opt := s.renderer.Options()
	return pageData{
		Title:     opt.Title,
		Theme:     opt.Theme,
		Width:     opt.Width,
		Height:    opt.Height,
		Min:       opt.MinAllowed(),
		Max:       opt.MaxAllowed(),
		Default:   spec.Horizon,
		Marks:     s.cfg.Marks,
		EchartsJS: s.cfg.AssetsHost + opts.EchartsJS,
		Options:   template.JS(chartOpts),
	}, nil
}
