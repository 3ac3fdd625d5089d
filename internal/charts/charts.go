// Package charts renders the asset size report.
package charts

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/PTCGO-Assets/internal/storage"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title    string
	Subtitle string
	Width    string // e.g. "1100px"
	Height   string
	Theme    string
	Colors   []string
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Title:  "Asset sizes",
		Width:  "1100px",
		Height: "500px",
		Theme:  "light",
		Colors: []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE"},
	}
}

// DataPoint represents a single data point in a chart.
type DataPoint struct {
	Label string
	Value float64
}

// SeriesData represents a named data series.
type SeriesData struct {
	Name   string
	Points []DataPoint
}

// SizeSeries turns ledger summaries into one series per format over the
// sorted families. Values are in KiB when files is false, file counts
// otherwise. Missing (family, format) pairs are zero.
func SizeSeries(summaries []storage.SizeSummary, files bool) ([]string, []SeriesData) {
	var families, formats []string
	values := map[[2]string]float64{}
	for _, s := range summaries {
		if !slices.Contains(families, s.Family) {
			families = append(families, s.Family)
		}
		if !slices.Contains(formats, s.Format) {
			formats = append(formats, s.Format)
		}
		if files {
			values[[2]string{s.Family, s.Format}] = float64(s.Files)
		} else {
			values[[2]string{s.Family, s.Format}] = float64(s.Bytes) / 1024
		}
	}
	slices.Sort(families)
	slices.Sort(formats)

	series := make([]SeriesData, 0, len(formats))
	for _, format := range formats {
		points := make([]DataPoint, len(families))
		for i, family := range families {
			points[i] = DataPoint{Label: family, Value: values[[2]string{family, format}]}
		}
		series = append(series, SeriesData{Name: format, Points: points})
	}
	return families, series
}

// NewStackedBarChart builds a bar chart stacking every series per label.
func NewStackedBarChart(labels []string, series []SeriesData, config ChartConfig, yAxis string) *charts.Bar {
	bar := charts.NewBar()

	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: yAxis,
		}),
		charts.WithColorsOpts(opts.Colors(config.Colors)),
	)

	bar.SetXAxis(labels)
	for _, s := range series {
		data := make([]opts.BarData, len(s.Points))
		for i, point := range s.Points {
			data[i] = opts.BarData{Value: point.Value}
		}
		bar.AddSeries(s.Name, data,
			charts.WithBarChartOpts(opts.BarChart{Stack: "total"}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}),
		)
	}

	return bar
}

// RenderSizeReport writes an HTML page with the size and file count charts.
func RenderSizeReport(w io.Writer, summaries []storage.SizeSummary, config ChartConfig) error {
	if len(summaries) == 0 {
		return fmt.Errorf("no variants recorded")
	}

	labels, sizes := SizeSeries(summaries, false)
	_, counts := SizeSeries(summaries, true)

	countConfig := config
	countConfig.Title = "Variant files"
	countConfig.Subtitle = ""

	page := components.NewPage()
	page.PageTitle = config.Title
	page.AddCharts(
		NewStackedBarChart(labels, sizes, config, "KiB"),
		NewStackedBarChart(labels, counts, countConfig, "files"),
	)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// WriteSizeReport renders the report to outputPath.
func WriteSizeReport(outputPath string, summaries []storage.SizeSummary, config ChartConfig) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	return RenderSizeReport(f, summaries, config)
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
