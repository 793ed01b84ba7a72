package chart

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"echoprep/internal/batch"
	"echoprep/internal/dataset"
	"echoprep/internal/fileutil"
)

// ErrNoRows reports an expansion output without any frame rows.
var ErrNoRows = errors.New("no frame rows to plot")

var (
	edColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	esColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// Options controls chart rendering. Zero values fall back to defaults.
type Options struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

// Stats summarizes the plotted points.
type Stats struct {
	EndSystolic  int `json:"end_systolic"`
	EndDiastolic int `json:"end_diastolic"`
}

// Render draws the frame centroids of rows as a scatter chart, end-systolic
// frames in red and end-diastolic frames in blue, and saves it to path. The
// image format follows the path extension (png, svg, pdf, ...).
func Render(rows []dataset.OutputRow, path string, opts Options) (Stats, error) {
	var stats Stats
	if len(rows) == 0 {
		return stats, batch.Wrap(batch.ErrValidation, "plot", "collect points", path, ErrNoRows)
	}

	es := make(plotter.XYs, 0, len(rows)/2)
	ed := make(plotter.XYs, 0, len(rows)/2)
	for _, row := range rows {
		pt := plotter.XY{X: row.X, Y: row.Y}
		if row.ES {
			es = append(es, pt)
		} else {
			ed = append(ed, pt)
		}
	}
	stats.EndSystolic = len(es)
	stats.EndDiastolic = len(ed)

	p := plot.New()
	p.Title.Text = opts.Title
	if p.Title.Text == "" {
		p.Title.Text = "Frame centroids"
	}
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewGrid())

	if err := addScatter(p, "ED", ed, edColor, draw.CircleGlyph{}); err != nil {
		return stats, err
	}
	if err := addScatter(p, "ES", es, esColor, draw.TriangleGlyph{}); err != nil {
		return stats, err
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = 8 * vg.Inch
	}
	if height <= 0 {
		height = 8 * vg.Inch
	}
	if err := fileutil.EnsureParentDir(path); err != nil {
		return stats, batch.Wrap(batch.ErrIO, "plot", "create output directory", path, err)
	}
	if err := p.Save(width, height, path); err != nil {
		return stats, batch.Wrap(batch.ErrIO, "plot", "save chart", path, err)
	}
	return stats, nil
}

func addScatter(p *plot.Plot, label string, pts plotter.XYs, c color.Color, shape draw.GlyphDrawer) error {
	if len(pts) == 0 {
		return nil
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("build %s scatter: %w", label, err)
	}
	scatter.GlyphStyle.Color = c
	scatter.GlyphStyle.Radius = vg.Points(2)
	scatter.GlyphStyle.Shape = shape
	p.Add(scatter)
	p.Legend.Add(label, scatter)
	return nil
}

// SupportedFormat reports whether path has an extension the renderer can write.
func SupportedFormat(path string) bool {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "png", "jpg", "jpeg", "svg", "pdf", "eps", "tif", "tiff":
		return true
	default:
		return false
	}
}
