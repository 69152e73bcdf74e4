// ABOUTME: Tests for the datachat CLI entrypoint covering flag parsing, dataset resolution, and settings helpers.
// ABOUTME: Uploads run against the in-process mock agent over httptest.
package main

import (
	"context"
	"io"
	"log"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/2389-research/datachat/chart"
	"github.com/2389-research/datachat/mockagent"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg := mustParse(t, "sales.csv")
	if cfg.file != "sales.csv" {
		t.Errorf("file = %q, want sales.csv", cfg.file)
	}
	if cfg.serverURL != DefaultServerURL {
		t.Errorf("serverURL = %q", cfg.serverURL)
	}
	if cfg.demo || cfg.quoteAware || cfg.showVersion {
		t.Errorf("unexpected bools: %+v", cfg)
	}
	if len(cfg.set) != 0 {
		t.Errorf("set = %v, want none", cfg.set)
	}
}

func TestParseFlagsAll(t *testing.T) {
	cfg := mustParse(t,
		"-server", "http://h:1",
		"-file-id", "abc",
		"-filename", "sales.csv",
		"-export-dir", "/tmp/x",
		"-transcript", "/tmp/t.jsonl",
		"-log-file", "/tmp/l.log",
		"-demo",
		"-quote-aware",
		"-version",
	)
	if cfg.serverURL != "http://h:1" || cfg.fileID != "abc" || cfg.filename != "sales.csv" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.exportDir != "/tmp/x" || cfg.transcript != "/tmp/t.jsonl" || cfg.logFile != "/tmp/l.log" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.demo || !cfg.quoteAware || !cfg.showVersion {
		t.Errorf("cfg = %+v", cfg)
	}
	for _, name := range []string{"server", "file-id", "quote-aware"} {
		if !cfg.set[name] {
			t.Errorf("flag %q not recorded as set", name)
		}
	}
}

func TestParseFlagsFileFlagWinsOverPositional(t *testing.T) {
	cfg := mustParse(t, "-file", "a.csv", "b.csv")
	if cfg.file != "a.csv" {
		t.Errorf("file = %q, want a.csv", cfg.file)
	}
}

func TestParseFlagsUnknown(t *testing.T) {
	if _, err := parseFlags([]string{"-nope"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestRunRequiresDataset(t *testing.T) {
	if code := run(config{set: map[string]bool{}}); code != 2 {
		t.Errorf("run() = %d, want 2", code)
	}
}

func startAgent(t *testing.T) (*mockagent.Server, string) {
	t.Helper()
	agent := mockagent.NewServer(mockagent.Config{Logger: log.New(io.Discard, "", 0)})
	srv := httptest.NewServer(agent)
	t.Cleanup(srv.Close)
	return agent, srv.URL
}

func TestResolveDataset(t *testing.T) {
	agent, url := startAgent(t)

	t.Run("file id", func(t *testing.T) {
		id, name, err := resolveDataset(context.Background(), config{fileID: "given"}, url)
		if err != nil || id != "given" || name != "given" {
			t.Errorf("= %q %q %v", id, name, err)
		}
	})

	t.Run("upload file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sales.csv")
		if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0644); err != nil {
			t.Fatal(err)
		}
		id, name, err := resolveDataset(context.Background(), config{file: path}, url)
		if err != nil {
			t.Fatalf("resolveDataset: %v", err)
		}
		if name != "sales.csv" {
			t.Errorf("filename = %q", name)
		}
		if _, ok := agent.Store().Get(id); !ok {
			t.Errorf("dataset %q not registered", id)
		}
	})

	t.Run("demo", func(t *testing.T) {
		id, name, err := resolveDataset(context.Background(), config{demo: true}, url)
		if err != nil || name != "demo.csv" {
			t.Fatalf("= %q %q %v", id, name, err)
		}
		ds, _ := agent.Store().Get(id)
		if ds.Lines != 5 {
			t.Errorf("demo dataset lines = %d, want 5", ds.Lines)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, _, err := resolveDataset(context.Background(), config{file: "/nope.csv"}, url); err == nil {
			t.Error("expected error")
		}
	})
}

func TestStartDemoAgent(t *testing.T) {
	url, stop, err := startDemoAgent()
	if err != nil {
		t.Fatalf("startDemoAgent: %v", err)
	}
	defer stop()

	id, _, err := resolveDataset(context.Background(), config{demo: true}, url)
	if err != nil || id == "" {
		t.Errorf("upload to demo agent = %q, %v", id, err)
	}
}

func TestChartOptions(t *testing.T) {
	if len(chartOptions(settings{})) != 0 {
		t.Error("no options expected by default")
	}
	opts := chartOptions(settings{QuoteAware: true, Marker: "Plotly.react("})
	if len(opts) != 2 {
		t.Fatalf("len = %d, want 2", len(opts))
	}
	src := `<script>Plotly.react("p", [{name: "a]"}], {})</script>`
	if _, ok := chart.Extract(src, opts...); !ok {
		t.Error("options were not applied")
	}
}

func TestTranscriptPath(t *testing.T) {
	tests := []struct {
		name string
		cfg  config
		s    settings
		want string
	}{
		{"flag", config{transcript: "/x.jsonl"}, settings{TranscriptDir: "/d"}, "/x.jsonl"},
		{"dir", config{}, settings{TranscriptDir: "/d"}, filepath.Join("/d", "id1.jsonl")},
		{"none", config{}, settings{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transcriptPath(tt.cfg, tt.s, "id1"); got != tt.want {
				t.Errorf("transcriptPath = %q, want %q", got, tt.want)
			}
		})
	}
}
