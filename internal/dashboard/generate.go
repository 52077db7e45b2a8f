// Package dashboard renders Grafana dashboards for the GreptimeDB mission tables.
package dashboard

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"launchops-sim/internal/telemetry"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Render parses the dashboard templates and writes rendered dashboards to outDir.
// Templates read the datasource uid from the environment.
func Render(outDir string) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
		"eventTable": func() string { return telemetry.EventTableName },
		"stateTable": func() string { return telemetry.StateTableName },
	}

	names, err := fs.Glob(templates, "templates/*.tmpl")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, name := range names {
		t, err := template.New(filepath.Base(name)).Funcs(funcMap).ParseFS(templates, name)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(name), ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := t.Execute(f, nil); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
