// Package frames expands per-video volume tracings into per-frame centroid
// rows.
//
// For every metadata record the two lowest distinct traced frames are
// selected; each frame's centroid is the mean of all X1/X2 and Y1/Y2 values
// traced on it. The earlier frame is written with ES=False and the later with
// ES=True. Records that lack two frames, or whose centroid cannot be
// computed, are reported as diagnostics and processing continues.
package frames
