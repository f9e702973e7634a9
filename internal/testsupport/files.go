package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteStory writes a story file under a temp directory and returns its path.
func WriteStory(t testing.TB, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write story: %v", err)
	}
	return path
}
