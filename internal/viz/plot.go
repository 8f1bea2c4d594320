package viz

import (
	"github.com/guptarohit/asciigraph"
)

type PlotOptions struct {
	Width   int
	Height  int
	Caption string
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 80, Height: 10}
}

// Plot draws one or more series on shared axes. Series longer than the plot
// width are downsampled.
func Plot(opts PlotOptions, series ...[]float64) string {
	if opts.Width <= 0 {
		opts.Width = DefaultPlotOptions().Width
	}
	if opts.Height <= 0 {
		opts.Height = DefaultPlotOptions().Height
	}

	data := make([][]float64, 0, len(series))
	for _, s := range series {
		if len(s) > 0 {
			data = append(data, Downsample(s, opts.Width))
		}
	}
	if len(data) == 0 {
		return ""
	}

	graphOpts := []asciigraph.Option{
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
	}
	if opts.Caption != "" {
		graphOpts = append(graphOpts, asciigraph.Caption(opts.Caption))
	}
	if len(data) > 1 {
		colors := []asciigraph.AnsiColor{asciigraph.Default, asciigraph.Red, asciigraph.Green, asciigraph.Blue}
		graphOpts = append(graphOpts, asciigraph.SeriesColors(colors[:min(len(data), len(colors))]...))
	}
	return asciigraph.PlotMany(data, graphOpts...)
}

// Downsample returns at most n evenly spaced samples of data, always
// keeping the first and last.
func Downsample(data []float64, n int) []float64 {
	if n < 2 || len(data) <= n {
		return data
	}
	out := make([]float64, n)
	last := len(data) - 1
	for i := range out {
		out[i] = data[i*last/(n-1)]
	}
	return out
}
