package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	dashboard "github.com/aouyang1/co2-dashboard"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

const (
	outputHTML = "html"
	outputJSON = "json"
)

var ErrUnknownOutput = errors.New("unknown output format")

func newRenderCmd(a *app) *cobra.Command {
	var (
		horizon int
		out     string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the forecast chart for one horizon to a file",
		Long: `Renders the chart for a single horizon. The html format writes a standalone
page with the echarts line chart, the json format writes the chart series.
Use --out - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != outputHTML && format != outputJSON {
				return fmt.Errorf("%q, %w", format, ErrUnknownOutput)
			}

			in, err := a.load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("horizon") {
				horizon = a.cfg.DefaultHorizon
			}

			spec, err := in.renderer.Render(horizon)
			if err != nil {
				return err
			}

			if out == "-" {
				err = writeSpec(cmd.OutOrStdout(), spec, format)
			} else {
				err = writeFile(out, spec, format)
			}
			if err != nil {
				return err
			}
			slog.Info("rendered forecast", "horizon", horizon, "out", out, "format", format)
			return nil
		},
	}
	cmd.Flags().IntVar(&horizon, "horizon", dashboard.DefaultHorizon, "forecast horizon in years")
	cmd.Flags().StringVarP(&out, "out", "o", "forecast.html", "output file, - for stdout")
	cmd.Flags().StringVar(&format, "format", outputHTML, "output format: html or json")
	return cmd
}

func writeFile(path string, spec *dashboard.ChartSpec, format string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %s, %w", path, err)
	}
	return writeAndClose(file, spec, format)
}

// writeAndClose writes spec and closes wc. A close failure is returned when the write succeeded.
func writeAndClose(wc io.WriteCloser, spec *dashboard.ChartSpec, format string) (err error) {
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("unable to close output, %w", cerr)
		}
	}()
	return writeSpec(wc, spec, format)
}

func writeSpec(w io.Writer, spec *dashboard.ChartSpec, format string) error {
	if format == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(spec)
	}
	return dashboard.WritePage(w, spec)
}
