// Package config reads the dashboard settings from CO2DASH_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	dashboard "github.com/aouyang1/co2-dashboard"
	"github.com/aouyang1/co2-dashboard/history"
	"github.com/aouyang1/co2-dashboard/server"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const EnvPrefix = "CO2DASH_"

const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

var (
	ErrInvalidLogFormat = errors.New("invalid log format")
	ErrInvalidLogLevel  = errors.New("invalid log level")
)

// Config holds the process configuration
type Config struct {
	DataPath     string `env:"DATA_PATH"     envDefault:"data/owid-world-data.csv"`
	ModelPath    string `env:"MODEL_PATH"    envDefault:"models/model_co2.json"`
	YearColumn   string `env:"YEAR_COLUMN"   envDefault:"year"`
	ValueColumn  string `env:"VALUE_COLUMN"  envDefault:"co2"`
	AfterYear    int    `env:"AFTER_YEAR"    envDefault:"2000"`
	EntityColumn string `env:"ENTITY_COLUMN" envDefault:"country"`
	Entity       string `env:"ENTITY"        envDefault:"World"`
	Sheet        string `env:"SHEET"`

	Horizons       []int  `env:"HORIZONS"        envDefault:"1,2,3,4,5,6,7,8,9,10"`
	DefaultHorizon int    `env:"DEFAULT_HORIZON" envDefault:"5"`
	Title          string `env:"TITLE"           envDefault:"CO2 emissions forecast"`
	Theme          string `env:"THEME"           envDefault:"dark"`
	Height         string `env:"HEIGHT"          envDefault:"500px"`

	Addr            string        `env:"ADDR"             envDefault:":8050"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"     envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	AssetsHost      string        `env:"ASSETS_HOST"      envDefault:"https://go-echarts.github.io/go-echarts-assets/assets/"`
	SliderMarks     []int         `env:"SLIDER_MARKS"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// ParseEnv loads configuration from environment variables. A nil environ reads the process
// environment.
func ParseEnv(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("unable to parse env, %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv sets variables from the given .env files without overriding existing ones.
// Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("unable to load %s, %w", path, err)
		}
	}
	return nil
}

// Validate checks the settings that cannot be checked by the packages consuming them
func (c Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case LogFormatJSON, LogFormatConsole:
	default:
		return fmt.Errorf("%q, %w", c.LogFormat, ErrInvalidLogFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%q, %w", c.LogLevel, ErrInvalidLogLevel)
	}
	return c.DashboardOptions().Validate()
}

func (c Config) HistoryOptions() *history.Options {
	return &history.Options{
		YearColumn:   c.YearColumn,
		ValueColumn:  c.ValueColumn,
		After:        c.AfterYear,
		EntityColumn: c.EntityColumn,
		Entity:       c.Entity,
		Sheet:        c.Sheet,
	}
}

func (c Config) DashboardOptions() *dashboard.Options {
	opt := dashboard.NewDefaultOptions()
	opt.Horizons = c.Horizons
	opt.DefaultHorizon = c.DefaultHorizon
	opt.Title = c.Title
	opt.Theme = c.Theme
	opt.Height = c.Height
	return opt
}

func (c Config) ServerConfig() server.Config {
	return server.Config{
		Addr:            c.Addr,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
		AssetsHost:      c.AssetsHost,
		Marks:           c.SliderMarks,
	}
}
