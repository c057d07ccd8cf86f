// Package writer persists job records as line-oriented artifacts.
//
// Every job owns exactly one file, <dir>/<name>.<ext>, which is replaced on each
// run. Records are written verbatim, one per line, in the order given. Files are
// staged under a temporary name and renamed into place, so a failed write never
// leaves a partial artifact behind and never touches another job's file.
package writer

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultDir is the output directory used when none is configured
	DefaultDir = "export"

	// DefaultExtension is the artifact file extension used when none is configured
	DefaultExtension = "csv"
)

// Writer writes record artifacts into a shared output directory
type Writer struct {
	dir    string
	ext    string
	logger *slog.Logger
}

// New creates a writer for dir using ext as the artifact extension
// The extension may be given with or without its leading dot.
func New(dir, ext string, logger *slog.Logger) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = DefaultExtension
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Writer{
		dir:    dir,
		ext:    ext,
		logger: logger,
	}
}

// EnsureDir creates the output directory and any missing parents
func (w *Writer) EnsureDir() error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", w.dir, err)
	}
	return nil
}

// Path returns the artifact path for the given identifier
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, name+"."+w.ext)
}

// Write replaces the artifact for name with records, one per line
// It returns the number of records written.
func (w *Writer) Write(name string, records []string) (int, error) {
	path := w.Path(name)

	tmp, err := os.CreateTemp(w.dir, "."+name+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if err := writeLines(tmp, records); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to close %s: %w", path, err)
	}

	// CreateTemp uses 0600; artifacts should be readable like any other output file.
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	w.logger.Info("saved records", "path", path, "records", len(records))
	return len(records), nil
}

func writeLines(f *os.File, records []string) error {
	buf := bufio.NewWriter(f)
	for _, record := range records {
		if _, err := buf.WriteString(record); err != nil {
			return err
		}
		if err := buf.WriteByte('\n'); err != nil {
			return err
		}
	}
	return buf.Flush()
}
