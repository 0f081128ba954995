package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aouyang1/co2-dashboard/model"
	"github.com/spf13/cobra"
)

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the model and how well it fits the historical data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := a.load()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			first, _ := in.history.First()
			last, _ := in.history.Last()
			if _, err := fmt.Fprintf(w, "History:\n  Points: %d    Years: %d-%d    Last Value: %.3f\n",
				in.history.Len(), first.Year, last.Year, last.Value); err != nil {
				return err
			}
			if outliers := in.history.Outliers(nil); len(outliers) > 0 {
				years := make([]string, 0, len(outliers))
				for _, p := range outliers {
					years = append(years, strconv.Itoa(p.Year))
				}
				if _, err := fmt.Fprintf(w, "  Outlier Years: %s\n", strings.Join(years, ", ")); err != nil {
					return err
				}
			}

			m := in.forecaster.Model()
			if err := m.TablePrint(w, "", "  "); err != nil {
				return err
			}

			scores, err := in.forecaster.Fit(in.history)
			if errors.Is(err, model.ErrUnsupportedPrediction) {
				return nil
			}
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w, "In-Sample Fit:"); err != nil {
				return err
			}
			return scores.TablePrint(w, "", "  ", 1)
		},
	}
}
