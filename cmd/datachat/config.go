// ABOUTME: Layered configuration for the datachat CLI: defaults, YAML file, environment, then flags.
// ABOUTME: The YAML file lives at $XDG_CONFIG_HOME/datachat/config.yaml unless -config names another.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultServerURL is where the analysis backend listens by default.
const DefaultServerURL = "http://127.0.0.1:8001"

// Environment variables read by resolveSettings.
const (
	envServerURL = "DATACHAT_SERVER_URL"
	envExportDir = "DATACHAT_EXPORT_DIR"
)

// settings is the merged configuration used by a run.
type settings struct {
	ServerURL       string `yaml:"server_url"`
	ExportDir       string `yaml:"export_dir"`
	TranscriptDir   string `yaml:"transcript_dir"`
	LogFile         string `yaml:"log_file"`
	InitialAnalysis bool   `yaml:"initial_analysis"`
	QuoteAware      bool   `yaml:"quote_aware"`
	Marker          string `yaml:"marker"`
}

// defaultSettings returns the built-in defaults. Paths under the data
// directory are left empty when it cannot be resolved.
func defaultSettings() settings {
	s := settings{
		ServerURL:       DefaultServerURL,
		InitialAnalysis: true,
	}
	dirs, _ := resolveAppDirs()
	s.TranscriptDir = dirs.TranscriptDir()
	s.LogFile = dirs.LogFile()
	return s
}

// loadSettingsFile overlays the YAML file at path onto s. A missing file
// is only an error when required is set.
func loadSettingsFile(s settings, path string, required bool) (settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("parse config %s: %w", path, err)
	}
	return s, nil
}

// applyEnv overlays environment variables onto s.
func applyEnv(s settings, getenv func(string) string) settings {
	if v := strings.TrimSpace(getenv(envServerURL)); v != "" {
		s.ServerURL = v
	}
	if v := strings.TrimSpace(getenv(envExportDir)); v != "" {
		s.ExportDir = v
	}
	return s
}

// applyFlags overlays the flags the user actually passed onto s.
func applyFlags(s settings, cfg config) settings {
	if cfg.set["server"] {
		s.ServerURL = cfg.serverURL
	}
	if cfg.set["export-dir"] {
		s.ExportDir = cfg.exportDir
	}
	if cfg.set["log-file"] {
		s.LogFile = cfg.logFile
	}
	if cfg.set["quote-aware"] {
		s.QuoteAware = cfg.quoteAware
	}
	if cfg.set["no-initial-analysis"] {
		s.InitialAnalysis = !cfg.noInitialAnalysis
	}
	return s
}

// resolveSettings merges defaults, the YAML file, environment, and flags,
// in increasing order of precedence.
func resolveSettings(cfg config, getenv func(string) string) (settings, error) {
	s := defaultSettings()

	path, required := cfg.configPath, cfg.configPath != ""
	if path == "" {
		dirs, _ := resolveAppDirs()
		path = dirs.ConfigFile()
	}
	if path != "" {
		var err error
		if s, err = loadSettingsFile(s, path, required); err != nil {
			return s, err
		}
	}

	s = applyEnv(s, getenv)
	s = applyFlags(s, cfg)

	if s.ServerURL == "" {
		return s, errors.New("server URL is empty")
	}
	return s, nil
}
