package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed sample_config.toml
var sampleConfig string

// EnvConfig names the environment variable that points at a config file.
const EnvConfig = "HARVEST_CONFIG"

// Profile is one settings profile: what to read, what to fetch and where to
// put it.
type Profile struct {
	InputFile    string   `toml:"input_file"`
	ReportFile   string   `toml:"report_file"`
	DownloadsDir string   `toml:"downloads_dir"`
	StagingDir   string   `toml:"staging_dir"`
	LinkColumns  []string `toml:"link_columns"`
	NamingColumn string   `toml:"naming_column"`
	Filetype     string   `toml:"filetype"`
	Binary       bool     `toml:"binary"`
	DownloadAll  bool     `toml:"download_all"`
	// Timeout is the per-request timeout in seconds.
	Timeout int `toml:"timeout"`
}

// requiredKeys lists the profile keys that must be present. Absence of any of
// them is fatal, including boolean keys whose zero value would be valid.
var requiredKeys = []string{
	"input_file",
	"report_file",
	"downloads_dir",
	"staging_dir",
	"link_columns",
	"naming_column",
	"filetype",
	"binary",
	"download_all",
	"timeout",
}

// Log configures log output.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// file mirrors the on-disk layout.
type file struct {
	Profile    string             `toml:"profile"`
	Workers    int                `toml:"workers"`
	LedgerPath string             `toml:"ledger_path"`
	Log        Log                `toml:"log"`
	Profiles   map[string]Profile `toml:"profiles"`
}

// Settings is the resolved configuration of one run. It is built once by
// Load and passed by value; nothing mutates it afterwards.
type Settings struct {
	ConfigPath  string
	ProfileName string
	Profile
	// Workers bounds concurrent downloads. Zero means unbounded.
	Workers int
	// LedgerPath is the SQLite run ledger. Empty disables the ledger.
	LedgerPath string
	Log        Log
}

// RequestTimeout returns the per-request timeout.
func (s Settings) RequestTimeout() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// Links returns a copy of the ordered link columns.
func (s Settings) Links() []string {
	return slices.Clone(s.LinkColumns)
}

// ConfigError reports an unusable configuration.
type ConfigError struct {
	Path     string
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Path, strings.Join(e.Problems, "; "))
}

// DefaultConfigPath returns the config path under XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "harvest", "config.toml")
}

// DefaultLedgerPath returns the default ledger path using XDG_CACHE_HOME.
func DefaultLedgerPath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "harvest", "ledger.db")
}

// ResolvePath picks the config file: explicit path, then $HARVEST_CONFIG,
// then ./harvest.toml, then DefaultConfigPath.
func ResolvePath(path string) string {
	if path != "" {
		return ExpandPath(path)
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return ExpandPath(env)
	}
	if info, err := os.Stat("harvest.toml"); err == nil && !info.IsDir() {
		return "harvest.toml"
	}
	return DefaultConfigPath()
}

// Load reads the config file and resolves the selected profile. A non-empty
// profile overrides the file's profile key.
func Load(path, profile string) (Settings, error) {
	path = ResolvePath(path)

	var f file
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, &ConfigError{Path: path, Problems: []string{"file not found (create one with 'harvest config init')"}}
		}
		return Settings{}, &ConfigError{Path: path, Problems: []string{err.Error()}}
	}

	var problems []string
	for _, key := range md.Undecoded() {
		problems = append(problems, fmt.Sprintf("unknown key %q", key.String()))
	}

	name := strings.TrimSpace(profile)
	if name == "" {
		name = strings.TrimSpace(f.Profile)
	}
	if name == "" {
		problems = append(problems, "no profile selected (set 'profile' or pass --profile)")
		return Settings{}, &ConfigError{Path: path, Problems: problems}
	}
	p, ok := f.Profiles[name]
	if !ok {
		problems = append(problems, fmt.Sprintf("profile %q not defined", name))
		return Settings{}, &ConfigError{Path: path, Problems: problems}
	}
	for _, key := range requiredKeys {
		if !md.IsDefined("profiles", name, key) {
			problems = append(problems, fmt.Sprintf("profiles.%s.%s is required", name, key))
		}
	}
	if len(problems) > 0 {
		return Settings{}, &ConfigError{Path: path, Problems: problems}
	}

	s := Settings{
		ConfigPath:  path,
		ProfileName: name,
		Profile:     p,
		Workers:     f.Workers,
		LedgerPath:  f.LedgerPath,
		Log:         f.Log,
	}
	if !md.IsDefined("ledger_path") {
		s.LedgerPath = DefaultLedgerPath()
	}
	s.normalize()

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s *Settings) normalize() {
	s.InputFile = ExpandPath(s.InputFile)
	s.ReportFile = ExpandPath(s.ReportFile)
	s.DownloadsDir = ExpandPath(s.DownloadsDir)
	s.StagingDir = ExpandPath(s.StagingDir)
	if s.LedgerPath != "" {
		s.LedgerPath = ExpandPath(s.LedgerPath)
	}
	s.LinkColumns = slices.Clone(s.LinkColumns)
	s.Filetype = strings.TrimPrefix(strings.TrimSpace(s.Filetype), ".")
	if s.Log.Level == "" {
		s.Log.Level = "info"
	}
	if s.Log.Format == "" {
		s.Log.Format = "auto"
	}
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// SampleConfig returns the annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the sample configuration to path. It refuses to
// overwrite an existing file.
func WriteSample(path string) error {
	path = ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		f.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return f.Close()
}
