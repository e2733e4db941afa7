package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed courses/*.yaml
var defaultCourse embed.FS

// Default returns the catalog built into the binary.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(defaultCourse, "courses")
	if err != nil {
		return nil, fmt.Errorf("open built-in course: %w", err)
	}
	return LoadFS(sub)
}

// Load reads every module file under dir. Files that fail to parse or do
// not match the module schema are skipped with a warning.
func Load(dir string) (*Catalog, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("open catalog dir: %w", err)
	}
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads every *.yaml / *.yml file in fsys, one module per file.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	var modules []Module
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := path.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}

		m, err := ParseModule(data)
		if err != nil {
			slog.Warn("skipping invalid module YAML", "path", p, "error", err)
			return nil
		}
		modules = append(modules, m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	c, err := New(modules)
	if err != nil {
		return nil, err
	}

	m, s := c.Count()
	slog.Debug("catalog loaded", "modules", m, "submodules", s)
	return c, nil
}

// ParseModule decodes and schema-checks a single module document.
func ParseModule(data []byte) (Module, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Module{}, fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return Module{}, fmt.Errorf("empty document")
	}
	if err := validateDocument(doc); err != nil {
		return Module{}, err
	}

	var m Module
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Module{}, fmt.Errorf("decode module: %w", err)
	}
	m.ID = strings.TrimSpace(m.ID)
	return m, nil
}
