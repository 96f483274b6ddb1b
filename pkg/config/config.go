package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for defectmine.
type Config struct {
	// Which repository paths are mined
	Classes ClassesConfig `koanf:"classes" toml:"classes" json:"classes"`

	// Matching tracker versions to tags
	Releases ReleasesConfig `koanf:"releases" toml:"releases" json:"releases"`

	Size    SizeConfig    `koanf:"size" toml:"size" json:"size"`
	Tracker TrackerConfig `koanf:"tracker" toml:"tracker" json:"tracker"`
	Cache   CacheConfig   `koanf:"cache" toml:"cache" json:"cache"`
	Output  OutputConfig  `koanf:"output" toml:"output" json:"output"`
	Log     LogConfig     `koanf:"log" toml:"log" json:"log"`

	// Projects mined by a bare `defectmine mine`
	Projects []ProjectConfig `koanf:"projects" toml:"projects" json:"projects"`

	// Maximum number of projects mined at once
	Parallel int `koanf:"parallel" toml:"parallel" json:"parallel"`
}

// ClassesConfig selects ClassUnits.
type ClassesConfig struct {
	Extension string   `koanf:"extension" toml:"extension" json:"extension"`
	Exclude   []string `koanf:"exclude" toml:"exclude" json:"exclude"`
}

// ReleasesConfig controls version name matching.
type ReleasesConfig struct {
	VersionPrefix string `koanf:"version_prefix" toml:"version_prefix" json:"version_prefix"`
}

// SizeConfig selects the line counter.
type SizeConfig struct {
	Counter string `koanf:"counter" toml:"counter" json:"counter"` // physical, code
}

// TrackerConfig configures the issue tracker.
type TrackerConfig struct {
	Kind string `koanf:"kind" toml:"kind" json:"kind"` // jira, github, file
	// BaseURL overrides the tracker endpoint. Empty selects the Apache Jira
	// or public GitHub API.
	BaseURL             string  `koanf:"base_url" toml:"base_url" json:"base_url"`
	PageSize            int     `koanf:"page_size" toml:"page_size" json:"page_size"`
	RateLimit           float64 `koanf:"rate_limit" toml:"rate_limit" json:"rate_limit"` // requests per second
	TimeoutSeconds      int     `koanf:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds"`
	GitHubToken         string  `koanf:"github_token" toml:"github_token" json:"github_token"`
	BugLabel            string  `koanf:"bug_label" toml:"bug_label" json:"bug_label"`
	AffectedLabelPrefix string  `koanf:"affected_label_prefix" toml:"affected_label_prefix" json:"affected_label_prefix"`
	TicketsFile         string  `koanf:"tickets_file" toml:"tickets_file" json:"tickets_file"`
}

// Timeout returns the per-request timeout.
func (t TrackerConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// CacheConfig controls ticket snapshot caching.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled" json:"enabled"`
	Dir     string `koanf:"dir" toml:"dir" json:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl" json:"ttl"` // TTL in hours, 0 keeps snapshots forever
}

// OutputConfig controls where datasets and reports go.
type OutputConfig struct {
	Dir    string `koanf:"dir" toml:"dir" json:"dir"`
	Format string `koanf:"format" toml:"format" json:"format"` // text, json, markdown, toon, yaml
	Color  bool   `koanf:"color" toml:"color" json:"color"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `koanf:"level" toml:"level" json:"level"`
	Format string `koanf:"format" toml:"format" json:"format"` // text, json
}

// ProjectConfig pairs a repository with its tracker project.
type ProjectConfig struct {
	Name string `koanf:"name" toml:"name" json:"name"`
	Repo string `koanf:"repo" toml:"repo" json:"repo"`
	Key  string `koanf:"key" toml:"key" json:"key"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Classes: ClassesConfig{
			Extension: "java",
			Exclude:   []string{"/test", "Test"},
		},
		Releases: ReleasesConfig{
			VersionPrefix: "release-",
		},
		Size: SizeConfig{
			Counter: "physical",
		},
		Tracker: TrackerConfig{
			Kind:                "jira",
			PageSize:            1000,
			RateLimit:           2,
			TimeoutSeconds:      60,
			BugLabel:            "bug",
			AffectedLabelPrefix: "affects/",
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".defectmine/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Dir:    ".",
			Format: "text",
			Color:  true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Parallel: 1,
	}
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SearchPaths lists the files LoadOrDefault looks for, in order.
func SearchPaths() []string {
	names := []string{
		"defectmine.toml",
		"defectmine.yaml",
		"defectmine.yml",
		"defectmine.json",
		".defectmine.toml",
		".defectmine.yaml",
		".defectmine.yml",
		".defectmine.json",
	}
	var paths []string
	for _, dir := range []string{".", ".defectmine"} {
		for _, name := range names {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths
}

// LoadOrDefault loads the first config found in the standard locations, or
// returns the defaults. The returned path is empty when nothing was found.
func LoadOrDefault() (*Config, string, error) {
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg, err := Load(path)
		if err != nil {
			return nil, path, err
		}
		return cfg, path, nil
	}
	return DefaultConfig(), "", nil
}
