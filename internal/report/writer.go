// Package report writes suite reports to files and streams results as
// tests finish.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/comalice/gametestx"
	"gopkg.in/yaml.v3"
)

// Writer persists a finished report.
type Writer interface {
	Write(rep *gametestx.Report) error
}

// JSONWriter writes the report as indented JSON to a file.
type JSONWriter struct {
	path string
}

// NewJSONWriter creates a JSONWriter, ensuring the parent directory exists.
func NewJSONWriter(path string) (*JSONWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	return &JSONWriter{path: path}, nil
}

func (w *JSONWriter) Write(rep *gametestx.Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	return nil
}

// YAMLWriter writes the report as YAML to a file.
type YAMLWriter struct {
	path string
}

// NewYAMLWriter creates a YAMLWriter, ensuring the parent directory exists.
func NewYAMLWriter(path string) (*YAMLWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	return &YAMLWriter{path: path}, nil
}

func (w *YAMLWriter) Write(rep *gametestx.Report) error {
	data, err := yaml.Marshal(rep)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	return nil
}

// Load reads a report written by JSONWriter or YAMLWriter, chosen by the
// file extension.
func Load(path string) (*gametestx.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("report %q: %w", path, os.ErrNotExist)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var rep gametestx.Report
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &rep); err != nil {
			return nil, fmt.Errorf("yaml unmarshal: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &rep); err != nil {
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}
	}
	return &rep, nil
}

// WriteAll writes rep with every writer and joins their errors.
func WriteAll(rep *gametestx.Report, writers ...Writer) error {
	var errs []error
	for _, w := range writers {
		if err := w.Write(rep); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
