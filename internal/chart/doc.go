// Package chart renders expanded frame centroids as a scatter chart for
// visual checks of tracing quality.
package chart
