package testutil

import (
	"bytes"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var update = flag.Bool("update", false, "rewrite golden files")

// Golden compares got against testdata/<name>.golden. With -update or
// TASKDECK_GOLDEN_UPDATE set the file is rewritten instead.
func Golden(t *testing.T, name string, got []byte) {
	t.Helper()

	path := filepath.Join("testdata", name+".golden")

	if *update || os.Getenv("TASKDECK_GOLDEN_UPDATE") != "" {
		if err := os.MkdirAll("testdata", 0755); err != nil {
			t.Fatalf("failed to create testdata dir: %v", err)
		}
		if err := os.WriteFile(path, got, 0644); err != nil {
			t.Fatalf("failed to update golden file: %v", err)
		}
		return
	}

	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read golden file %s: %v\nGot:\n%s", path, err, got)
	}

	if !bytes.Equal(got, want) {
		t.Errorf("output mismatch for %s at line %d\nWant:\n%s\nGot:\n%s", name, firstDiffLine(want, got), want, got)
	}
}

// GoldenString is like Golden but takes a string.
func GoldenString(t *testing.T, name string, got string) {
	t.Helper()
	Golden(t, name, []byte(got))
}

// GoldenJSON compares the indented JSON encoding of v.
func GoldenJSON(t *testing.T, name string, v interface{}) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("failed to encode %s: %v", name, err)
	}
	Golden(t, name, append(data, '\n'))
}

// firstDiffLine returns the 1-based line where want and got first differ.
func firstDiffLine(want, got []byte) int {
	w := strings.Split(string(want), "\n")
	g := strings.Split(string(got), "\n")
	for i := 0; i < len(w) && i < len(g); i++ {
		if w[i] != g[i] {
			return i + 1
		}
	}
	if len(w) < len(g) {
		return len(w) + 1
	}
	return len(g) + 1
}
