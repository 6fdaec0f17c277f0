package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// goldenDir is where golden files live, relative to the test's package.
const goldenDir = "testdata"

// updateEnv, when set, rewrites golden files instead of comparing, so
// intentional output changes are reviewed as file diffs.
const updateEnv = "GOLDEN_UPDATE"

// Golden compares command or formatter output against the golden file
// testdata/<name>.golden.
func Golden(t *testing.T, name string, got []byte) {
	t.Helper()

	path := filepath.Join(goldenDir, name+".golden")

	if os.Getenv(updateEnv) != "" {
		if err := os.MkdirAll(goldenDir, 0755); err != nil {
			t.Fatalf("create %s: %v", goldenDir, err)
		}
		if err := os.WriteFile(path, got, 0644); err != nil {
			t.Fatalf("update %s: %v", path, err)
		}
		return
	}

	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v (rerun with %s=1 to create it)\nGot:\n%s", path, err, updateEnv, got)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("output differs from %s\nWant:\n%s\nGot:\n%s", path, want, got)
	}
}

// GoldenString is Golden for string output.
func GoldenString(t *testing.T, name string, got string) {
	t.Helper()
	Golden(t, name, []byte(got))
}
