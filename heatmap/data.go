package heatmap

// Options configures rendering parameters.
type Options struct {
	CellSize    int    // size of each cell (px)
	CellPadding int    // padding between cells (px)
	FontSize    int    // font size for labels (px)
	FontFamily  string // font family for labels
	Scale       Scale  // color scale for cell intensities
	Title       string // optional title rendered above the chart
	Unit        string // unit shown in tooltips, e.g. "keys"
	Legend      bool   // render the "Less ... More" legend
	ChartHeight int    // plot height of bar charts (px)
}

// DefaultOptions returns the options used when nil is passed to a renderer.
func DefaultOptions() *Options {
	return &Options{
		CellSize:    12,
		CellPadding: 2,
		FontSize:    10,
		FontFamily:  "sans-serif",
		Scale:       DefaultScale,
		Unit:        "keys",
		Legend:      true,
		ChartHeight: 136,
	}
}

// month labels shared by the grid builder and the renderers
var months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// weekday labels, Sunday first
var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
