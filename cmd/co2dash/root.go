package main

import (
	"fmt"
	"log/slog"

	dashboard "github.com/aouyang1/co2-dashboard"
	"github.com/aouyang1/co2-dashboard/config"
	"github.com/aouyang1/co2-dashboard/history"
	"github.com/aouyang1/co2-dashboard/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// app carries the state shared by every subcommand
type app struct {
	envFiles  []string
	dataPath  string
	modelPath string
	logLevel  string
	logFormat string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "co2dash",
		Short: "CO2 emissions forecast dashboard",
		Long: `co2dash charts historical CO2 emissions next to the forecast of a
pre-trained model. The forecast horizon is chosen with a slider and every
change recomputes the chart.

Settings are read from CO2DASH_ prefixed environment variables, optionally
loaded from a .env file. Flags take precedence over the environment.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")
	flags.StringVar(&a.dataPath, "data", "", "historical data file (.csv or .xlsx)")
	flags.StringVar(&a.modelPath, "model", "", "serialized forecast model (.json)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: json or console")

	root.AddCommand(
		newServeCmd(a),
		newRenderCmd(a),
		newDescribeCmd(a),
	)
	return root
}

// setup resolves the configuration and installs the process logger
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(a.envFiles...); err != nil {
		return err
	}

	cfg, err := config.ParseEnv(nil)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataPath = a.dataPath
	}
	if flags.Changed("model") {
		cfg.ModelPath = a.modelPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("unable to initialize logger, %w", err)
	}
	a.logger = logger
	slog.SetDefault(slog.New(zapslog.NewHandler(logger.Core(), zapslog.WithCaller(true))))
	return nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.LogFormat == config.LogFormatConsole {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// loaded is the startup state read once from the input files
type loaded struct {
	history    *history.History
	forecaster *model.Forecaster
	renderer   *dashboard.Renderer
}

// load reads the historical data and the model concurrently. Either failure is fatal.
func (a *app) load() (*loaded, error) {
	var res loaded

	var eg errgroup.Group
	eg.Go(func() error {
		h, err := history.Load(a.cfg.DataPath, a.cfg.HistoryOptions())
		if err != nil {
			return fmt.Errorf("%s, %w", a.cfg.DataPath, err)
		}
		res.history = h
		return nil
	})
	eg.Go(func() error {
		f, err := model.Load(a.cfg.ModelPath)
		if err != nil {
			return fmt.Errorf("%s, %w", a.cfg.ModelPath, err)
		}
		res.forecaster = f
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	first, _ := res.history.First()
	last, _ := res.history.Last()
	m := res.forecaster.Model()
	slog.Info("loaded inputs",
		"data", a.cfg.DataPath,
		"points", res.history.Len(),
		"first_year", first.Year,
		"last_year", last.Year,
		"model", a.cfg.ModelPath,
		"kind", string(m.Kind),
	)
	if m.TrainEndYear != 0 && m.TrainEndYear != last.Year {
		slog.Warn("model training end year differs from last historical year",
			"train_end_year", m.TrainEndYear,
			"last_year", last.Year,
		)
	}

	r, err := dashboard.New(res.history, res.forecaster, a.cfg.DashboardOptions())
	if err != nil {
		return nil, fmt.Errorf("unable to create renderer, %w", err)
	}
	res.renderer = r
	return &res, nil
}
