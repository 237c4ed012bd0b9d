package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwygoda/harvest/internal/adapter/sheet"
)

// Validate ensures the settings are usable.
func (s Settings) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	for _, f := range []struct{ key, value string }{
		{"input_file", s.InputFile},
		{"report_file", s.ReportFile},
		{"downloads_dir", s.DownloadsDir},
		{"staging_dir", s.StagingDir},
		{"naming_column", s.NamingColumn},
	} {
		if strings.TrimSpace(f.value) == "" {
			add("%s must not be empty", f.key)
		}
	}
	for _, f := range []struct{ key, value string }{
		{"input_file", s.InputFile},
		{"report_file", s.ReportFile},
	} {
		if strings.TrimSpace(f.value) != "" && sheet.CheckFormat(f.value) != nil {
			add("%s %q must end in .xlsx or .csv", f.key, f.value)
		}
	}
	if len(s.LinkColumns) == 0 {
		add("link_columns must list at least one column")
	}
	for i, col := range s.LinkColumns {
		if strings.TrimSpace(col) == "" {
			add("link_columns[%d] must not be empty", i)
		}
	}
	if s.Filetype == "" {
		add("filetype must not be empty")
	} else if strings.ContainsAny(s.Filetype, `/\.`) {
		add("filetype %q must be a bare extension such as pdf", s.Filetype)
	}
	if s.Timeout <= 0 {
		add("timeout must be positive")
	}
	if s.Workers < 0 {
		add("workers must not be negative")
	}
	switch strings.ToLower(s.Log.Format) {
	case "", "auto", "console", "json":
	default:
		add("log.format %q must be auto, console or json", s.Log.Format)
	}
	if s.DownloadsDir != "" && filepath.Clean(s.DownloadsDir) == filepath.Clean(s.StagingDir) {
		add("staging_dir must differ from downloads_dir")
	}

	if len(problems) > 0 {
		return &ConfigError{Path: s.ConfigPath, Problems: problems}
	}
	return nil
}

// EnsureDirectories creates the report, download and staging directories.
func (s Settings) EnsureDirectories() error {
	for _, dir := range []string{filepath.Dir(s.ReportFile), s.DownloadsDir, s.StagingDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &ConfigError{Path: s.ConfigPath, Problems: []string{fmt.Sprintf("create directory %q: %v", dir, err)}}
		}
	}
	return nil
}

// CheckPaths verifies that the input can be read and the report location
// written before any work starts.
func (s Settings) CheckPaths() error {
	if err := checkReadable(s.InputFile); err != nil {
		return &ConfigError{Path: s.ConfigPath, Problems: []string{err.Error()}}
	}
	if err := checkWritable(s.ReportFile); err != nil {
		return &ConfigError{Path: s.ConfigPath, Problems: []string{err.Error()}}
	}
	return nil
}

func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("input file %q not found", path)
		}
		return fmt.Errorf("input file %q: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input file %q is a directory", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("input file %q: %w", path, err)
	}
	return f.Close()
}

func checkWritable(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("report file %q is a directory", path)
	}
	probe, err := os.CreateTemp(filepath.Dir(path), ".harvest-probe-*")
	if err != nil {
		return fmt.Errorf("report file %q not writable: %w", path, err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}
