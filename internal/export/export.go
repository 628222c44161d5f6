// internal/export/export.go
//
// Exporters turn an assembled document into bytes: a workbook for the
// client, a plain text preview, or JSON for other tools. Files are named
// after the document's file base and written atomically.

package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kingrea/brief/internal/document"
)

// Format selects an export encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatXLSX, FormatText, FormatJSON}

// ParseFormat validates a user-supplied format name.
func ParseFormat(raw string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(raw)))
	switch f {
	case FormatXLSX, FormatText, FormatJSON:
		return f, nil
	case "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("export: unknown format %q", raw)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatText:
		return ".txt"
	case FormatJSON:
		return ".json"
	default:
		return ".xlsx"
	}
}

// Encode renders doc in the given format.
func Encode(doc document.Document, format Format) ([]byte, error) {
	switch format {
	case FormatXLSX:
		return XLSX(doc)
	case FormatText:
		return []byte(Text(doc)), nil
	case FormatJSON:
		return JSON(doc)
	default:
		return nil, fmt.Errorf("export: unknown format %q", format)
	}
}

// JSON renders doc as indented JSON.
func JSON(doc document.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: encode json: %w", err)
	}
	return append(data, '\n'), nil
}

// Option customises an Exporter.
type Option func(*Exporter)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Exporter writes documents into a directory.
type Exporter struct {
	dir    string
	logger *zap.Logger
}

// New returns an exporter writing into dir.
func New(dir string, opts ...Option) *Exporter {
	e := &Exporter{dir: dir, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Dir returns the output directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// Path returns where Write would put doc.
func (e *Exporter) Path(doc document.Document, format Format) string {
	return filepath.Join(e.dir, doc.FileBase+format.Extension())
}

// Write encodes doc and stores it under the exporter's directory. It
// returns the written path.
func (e *Exporter) Write(doc document.Document, format Format) (string, error) {
	path := e.Path(doc, format)
	if err := e.WriteFile(doc, format, path); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile encodes doc and stores it at path.
func (e *Exporter) WriteFile(doc document.Document, format Format, path string) error {
	data, err := Encode(doc, format)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, data); err != nil {
		e.logger.Error("export failed", zap.String("path", path), zap.Error(err))
		return err
	}
	e.logger.Info("document exported",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("pages", len(doc.Pages)),
		zap.Int("bytes", len(data)))
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return fmt.Errorf("export: temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("export: close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("export: rename %s: %w", path, err)
	}
	return nil
}
