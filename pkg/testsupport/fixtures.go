// Package testsupport holds golden-file and fixture helpers shared by render
// tests across packages.
package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

// MapFS builds an in-memory template root from path → source pairs.
func MapFS(files map[string]string) fstest.MapFS {
	out := make(fstest.MapFS, len(files))
	for name, source := range files {
		out[name] = &fstest.MapFile{Data: []byte(source)}
	}
	return out
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// AssertGoldenHTML compares rendered markup against the golden file at path,
// ignoring leading and trailing whitespace. With UPDATE_GOLDENS set the
// golden is rewritten instead.
func AssertGoldenHTML(t *testing.T, path, got string) {
	t.Helper()

	if WriteMaybeGolden(t, path, []byte(got)) {
		return
	}
	want := MustReadGoldenString(t, path)
	if diff := CompareGolden(strings.TrimSpace(want), strings.TrimSpace(got)); diff != "" {
		t.Fatalf("output mismatch for %s (-want +got):\n%s", path, diff)
	}
}
