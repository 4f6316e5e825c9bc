package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/stsysd/selfgraph/bucket"
	"github.com/stsysd/selfgraph/heatmap"
	"github.com/stsysd/selfgraph/model"
)

// renderOptions は render コマンドのフラグです。
type renderOptions struct {
	output string
	year   string
	window string
	offset string
	date   string
}

// newRenderCommand は上流のデータからSVGを生成するコマンドを返します。
func newRenderCommand() *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:       "render {hourly|daily|yearly|heatmap}",
		Short:     "Fetch counts from the upstream server and render a chart as SVG",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"hourly", "daily", "yearly", "heatmap"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), args[0], opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "output file (- for stdout)")
	cmd.Flags().StringVar(&opts.year, "year", "", "year of the yearly calendar (default: current year)")
	cmd.Flags().StringVar(&opts.window, "window", "", "days of the daily chart: 7 or 30")
	cmd.Flags().StringVar(&opts.offset, "offset", "", "days to page back")
	cmd.Flags().StringVar(&opts.date, "date", "", "date of the hourly chart (YYYY-MM-DD)")
	return cmd
}

func runRender(ctx context.Context, kind string, opts *renderOptions, stdout, stderr io.Writer) error {
	cfg, clk, client, err := setup()
	if err != nil {
		return err
	}

	scale, err := cfg.Scale()
	if err != nil {
		return err
	}
	svgOpts := heatmap.DefaultOptions()
	svgOpts.Scale = scale
	svgOpts.Unit = cfg.Dashboard.Unit

	agg := bucket.NewAggregator(clk, cfg.Dashboard.DayStartHour)
	offset := model.NewOffset(opts.offset)

	var svg string
	switch kind {
	case "hourly":
		var points []model.BucketPoint
		if opts.date != "" {
			date, err := model.NewDate(opts.date)
			if err != nil {
				return err
			}
			records, err := client.HourlyForDate(ctx, date.String())
			if err != nil {
				return err
			}
			if points, err = agg.HoursForDate(records, date.String()); err != nil {
				return err
			}
			svgOpts.Title, _ = bucket.FocusedDateTitle(date.String())
		} else {
			records, err := client.Hourly(ctx, offset.Days())
			if err != nil {
				return err
			}
			points = agg.Hourly(records, offset.Days())
			svgOpts.Title = agg.HourlyTitle(offset.Days())
		}
		svg = heatmap.GenerateBarChartSVG(points, svgOpts)

	case "daily":
		window, err := model.NewWindow(opts.window)
		if err != nil {
			return err
		}
		records, err := client.Daily(ctx, window.Days()+offset.Days())
		if err != nil {
			return err
		}
		svgOpts.Title = fmt.Sprintf("Last %d days", window.Days())
		svg = heatmap.GenerateBarChartSVG(agg.Daily(records, window.Days(), offset.Days()), svgOpts)

	case "yearly":
		year, err := model.NewYear(opts.year, clk.Now())
		if err != nil {
			return err
		}
		records, err := client.Yearly(ctx, year.Int())
		if err != nil {
			return err
		}
		grid := (&heatmap.GridBuilder{
			Clock:         clk,
			DayStartHour:  cfg.Dashboard.DayStartHour,
			Normalization: cfg.Normalization(),
		}).Build(records, year.Int())
		svgOpts.Title = fmt.Sprintf("%d", year.Int())
		svg = heatmap.GenerateYearlyHeatmapSVG(grid, svgOpts)

	case "heatmap":
		hm, err := client.WeeklyHeatmap(ctx)
		if err != nil {
			return err
		}
		matrixOpts := heatmap.MatrixOptions{}
		if cfg.Dashboard.HeatmapDayStart {
			matrixOpts.DayStartHour = cfg.Dashboard.DayStartHour
		}
		m, err := heatmap.BuildMatrix(hm.Data, hm.StartDate, matrixOpts)
		if err != nil {
			return err
		}
		svgOpts.Title = "Last 7 days by hour"
		svg = heatmap.GenerateWeeklyHeatmapSVG(m, svgOpts)

	default:
		return fmt.Errorf("unknown chart %q", kind)
	}

	if opts.output == "-" || opts.output == "" {
		_, err = io.WriteString(stdout, svg)
		return err
	}
	if err := os.WriteFile(opts.output, []byte(svg), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Wrote %s (%s)\n", opts.output, humanize.Bytes(uint64(len(svg))))
	return nil
}
