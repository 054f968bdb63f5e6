// Package snapshot persists page evidence (rendered markup plus
// screenshot) for offline diagnosis of blocked or zero-result
// searches. Purely a side channel: failures are logged and swallowed,
// never propagated into the search outcome.
package snapshot

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
)

// FileSink writes snapshots under a directory as <id>.html / <id>.png.
type FileSink struct {
	dir    string
	logger *slog.Logger
}

// NewFileSink creates a FileSink rooted at dir.
func NewFileSink(dir string, logger *slog.Logger) *FileSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSink{dir: dir, logger: logger}
}

// Save writes the markup and, when present, the screenshot.
func (s *FileSink) Save(_ context.Context, id, html string, screenshot []byte) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Warn("snapshot: mkdir failed", "dir", s.dir, "error", err)
		return
	}

	htmlPath := filepath.Join(s.dir, id+".html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		s.logger.Warn("snapshot: write html failed", "path", htmlPath, "error", err)
		return
	}

	if len(screenshot) > 0 {
		pngPath := filepath.Join(s.dir, id+".png")
		if err := os.WriteFile(pngPath, screenshot, 0o644); err != nil {
			s.logger.Warn("snapshot: write screenshot failed", "path", pngPath, "error", err)
		}
	}

	s.logger.Info("snapshot: saved", "id", id, "dir", s.dir)
}
