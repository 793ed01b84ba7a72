package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteCSV writes lines joined by newlines to path, creating parent
// directories as needed.
func WriteCSV(t testing.TB, path string, lines ...string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteImages creates one empty file per name in dir, appending suffix.
func WriteImages(t testing.TB, dir, suffix string, names ...string) {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for _, name := range names {
		target := filepath.Join(dir, name+suffix)
		if err := os.WriteFile(target, nil, 0o644); err != nil {
			t.Fatalf("write image %s: %v", target, err)
		}
	}
}

// ReadLines returns the lines of path without the trailing newline.
func ReadLines(t testing.TB, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}
