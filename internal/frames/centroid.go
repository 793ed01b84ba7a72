package frames

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"echoprep/internal/batch"
	"echoprep/internal/dataset"
)

var errEmptyFrame = errors.New("frame has no tracing points")

// Centroid returns the arithmetic mean of every X1 and X2 value (and every
// Y1 and Y2 value) across points. Each point contributes two vertices.
func Centroid(points []dataset.TracingPoint) (x, y float64, err error) {
	if len(points) == 0 {
		return 0, 0, fmt.Errorf("%w: %w", batch.ErrComputation, errEmptyFrame)
	}
	xs := make([]float64, 0, 2*len(points))
	ys := make([]float64, 0, 2*len(points))
	for _, p := range points {
		xs = append(xs, p.X1, p.X2)
		ys = append(ys, p.Y1, p.Y2)
	}
	x = stat.Mean(xs, nil)
	y = stat.Mean(ys, nil)
	if !isFinite(x) || !isFinite(y) {
		return 0, 0, fmt.Errorf("%w: centroid (%v, %v) is not finite", batch.ErrComputation, x, y)
	}
	return x, y, nil
}

// DistinctFrames returns the frame indices present in points, ascending.
func DistinctFrames(points []dataset.TracingPoint) []int {
	frames := make([]int, 0, 2)
	for _, p := range points {
		if !slices.Contains(frames, p.Frame) {
			frames = append(frames, p.Frame)
		}
	}
	slices.Sort(frames)
	return frames
}

// FramePoints returns the points traced on frame, in input order.
func FramePoints(points []dataset.TracingPoint, frame int) []dataset.TracingPoint {
	var out []dataset.TracingPoint
	for _, p := range points {
		if p.Frame == frame {
			out = append(out, p)
		}
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
