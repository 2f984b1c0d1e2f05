package rules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RuleWriter persists exported rules to a destination (file, DB, etc.).
type RuleWriter interface {
	WriteRules(ctx context.Context, content string) error
}

// Exporter renders accepted rules as a YAML document.
type Exporter struct {
	Writer RuleWriter
}

type exportFile struct {
	Rules []Rule `yaml:"rules"`
}

func (e *Exporter) Export(ctx context.Context, rs []Rule) error {
	if e.Writer == nil {
		return fmt.Errorf("rule exporter: nil writer")
	}
	if rs == nil {
		rs = []Rule{}
	}
	data, err := yaml.Marshal(exportFile{Rules: rs})
	if err != nil {
		return fmt.Errorf("rule exporter: marshal: %w", err)
	}
	return e.Writer.WriteRules(ctx, string(data))
}

// ParseExport reads a document produced by Exporter.
func ParseExport(data []byte) ([]Rule, error) {
	var f exportFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return f.Rules, nil
}

// FileWriter writes exported rules to a file, creating parent directories.
type FileWriter struct {
	Path string
}

func (w FileWriter) WriteRules(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(w.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create rules dir: %w", err)
		}
	}
	return os.WriteFile(w.Path, []byte(content), 0o644)
}
