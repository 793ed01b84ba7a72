package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"echoprep/internal/chart"
	"echoprep/internal/config"
	"echoprep/internal/dataset"
	"echoprep/internal/logging"
)

func newPlotCommand(ctx *commandContext) *cobra.Command {
	var outPath string
	var title string

	cmd := &cobra.Command{
		Use:   "plot <frames.csv>",
		Short: "Render expanded frame centroids as a scatter chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(outPath) == "" {
				return errors.New("--out is required")
			}
			if !chart.SupportedFormat(outPath) {
				return fmt.Errorf("--out %q: unsupported image format (use .png, .svg or .pdf)", outPath)
			}
			input, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			target, err := config.ExpandPath(outPath)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}

			rows, err := dataset.ReadOutput(input)
			if err != nil {
				return err
			}
			stats, err := chart.Render(rows, target, chart.Options{Title: title})
			if err != nil {
				return err
			}
			logging.NewComponentLogger(logger, "chart").Debug("chart rendered",
				logging.String("chart_path", target),
				logging.Int("points", len(rows)),
			)
			if ctx.jsonOutput() {
				return writeJSON(cmd, plotPayload{Output: target, Stats: stats})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plotted %d ES and %d ED centroids to %s\n",
				stats.EndSystolic, stats.EndDiastolic, target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Chart image path (.png, .svg, .pdf)")
	cmd.Flags().StringVar(&title, "title", "", "Chart title")
	return cmd
}

type plotPayload struct {
	Output string      `json:"output_path"`
	Stats  chart.Stats `json:"stats"`
}
