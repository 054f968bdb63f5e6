package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSave_WritesBothArtifacts(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSink(dir, nil)

	s.Save(context.Background(), "MAD-EZE-2026-03-28-1", "<html>blocked</html>", []byte("png"))

	html, err := os.ReadFile(filepath.Join(dir, "MAD-EZE-2026-03-28-1.html"))
	if err != nil {
		t.Fatal(err)
	}
	if string(html) != "<html>blocked</html>" {
		t.Fatalf("unexpected html: %q", html)
	}
	if _, err := os.Stat(filepath.Join(dir, "MAD-EZE-2026-03-28-1.png")); err != nil {
		t.Fatalf("expected screenshot written: %v", err)
	}
}

func TestSave_SkipsMissingScreenshot(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSink(dir, nil)

	s.Save(context.Background(), "x", "<html></html>", nil)

	if _, err := os.Stat(filepath.Join(dir, "x.png")); !os.IsNotExist(err) {
		t.Fatal("expected no png for empty screenshot")
	}
}

func TestSave_BadDirDoesNotPanic(t *testing.T) {
	s := NewFileSink("/proc/nonexistent/forbidden", nil)
	s.Save(context.Background(), "x", "<html></html>", nil) // must only log
}
