// Package testutil provides testing utilities for VVM tests.
package testutil

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// TempFile creates a temporary file with the given content and extension.
// The file is automatically cleaned up when the test finishes.
func TempFile(t *testing.T, content, ext string) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test"+ext)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// TempCSV creates a temporary CSV file and returns its path.
func TempCSV(t *testing.T, content string) string {
	t.Helper()
	return TempFile(t, content, ".csv")
}

// Ramp returns n values 0, 1, ..., n-1.
func Ramp(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i)
	}
	return out
}

// RampCSV returns CSV content with a single column x holding 0..n-1.
func RampCSV(n int) string {
	var b strings.Builder
	b.WriteString("x\n")
	for i := 0; i < n; i++ {
		b.WriteString(strconv.Itoa(i))
		b.WriteByte('\n')
	}
	return b.String()
}

// PointsCSV returns a small CSV of 3D points.
func PointsCSV() string {
	return `x,y,z
1,0,0
0,2,0
3,4,0
1,2,2`
}

// MakePointsFrame creates the frame PointsCSV describes.
func MakePointsFrame() *dataframe.DataFrame {
	return dataframe.NewDataFrame(
		dataframe.NewSeriesFloat64("x", nil, 1.0, 0.0, 3.0, 1.0),
		dataframe.NewSeriesFloat64("y", nil, 0.0, 2.0, 4.0, 2.0),
		dataframe.NewSeriesInt64("z", nil, 0, 0, 0, 2),
	)
}
