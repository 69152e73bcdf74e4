// ABOUTME: Per-user file locations for datachat: transcripts, the search index, the log, and config.yaml.
// ABOUTME: Follows the XDG base directory rules, where relative XDG values are ignored.
package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// appDirs holds the resolved data and config roots. Either may be empty
// when it could not be resolved; the accessors then return "".
type appDirs struct {
	data   string
	config string
}

// resolveAppDirs locates the data root ($XDG_DATA_HOME/datachat or
// ~/.local/share/datachat) and the config root ($XDG_CONFIG_HOME/datachat
// or ~/.config/datachat). The error reports a root that could not be found.
func resolveAppDirs() (appDirs, error) {
	var d appDirs
	var firstErr error
	for _, root := range []struct {
		dst      *string
		env      string
		fallback []string
	}{
		{&d.data, "XDG_DATA_HOME", []string{".local", "share"}},
		{&d.config, "XDG_CONFIG_HOME", []string{".config"}},
	} {
		base, err := xdgBase(root.env, root.fallback...)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		*root.dst = filepath.Join(base, "datachat")
	}
	return d, firstErr
}

// xdgBase returns $env when it is an absolute path, otherwise the
// fallback joined under the home directory.
func xdgBase(env string, fallback ...string) (string, error) {
	if v := os.Getenv(env); filepath.IsAbs(v) {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", env, err)
	}
	return filepath.Join(append([]string{home}, fallback...)...), nil
}

func (d appDirs) join(root string, elem ...string) string {
	if root == "" {
		return ""
	}
	return filepath.Join(append([]string{root}, elem...)...)
}

// TranscriptDir is where per-dataset transcripts are kept by default.
func (d appDirs) TranscriptDir() string { return d.join(d.data, "transcripts") }

// LogFile is the default log destination while the TUI owns the terminal.
func (d appDirs) LogFile() string { return d.join(d.data, "datachat.log") }

// ConfigFile is the YAML settings file read when -config is not given.
func (d appDirs) ConfigFile() string { return d.join(d.config, "config.yaml") }

// indexPath is the search index kept beside the transcripts in a directory.
func indexPath(transcript string) string {
	return filepath.Join(filepath.Dir(transcript), "index.db")
}
