// ABOUTME: CLI entrypoint for datachat, a terminal client for a conversational data-analysis agent.
// ABOUTME: Wires upload, the websocket session, the chat TUI, transcript persistence, and figure export.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/2389-research/datachat/chart"
	"github.com/2389-research/datachat/mockagent"
	"github.com/2389-research/datachat/render"
	"github.com/2389-research/datachat/session"
	"github.com/2389-research/datachat/transport"
	"github.com/2389-research/datachat/tui"

	tea "github.com/charmbracelet/bubbletea"
)

var version = "dev"

// Figure cache sizing for one interactive session.
const (
	figureCacheSize = 256
	figureCacheTTL  = 30 * time.Minute
)

// demoCSV is the dataset uploaded by -demo when no -file is given.
const demoCSV = `region,quarter,revenue,units
north,Q1,120,14
north,Q2,180,19
south,Q1,90,11
south,Q2,75,9
`

// config holds all CLI configuration parsed from flags and positional arguments.
type config struct {
	serverURL         string
	file              string
	fileID            string
	filename          string
	exportDir         string
	transcript        string
	logFile           string
	configPath        string
	demo              bool
	quoteAware        bool
	noInitialAnalysis bool
	showVersion       bool

	// set records which flags were passed explicitly.
	set map[string]bool
}

func main() {
	loadDotEnvAuto()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "print":
			os.Exit(runPrint(os.Args[2:], os.Stdout, os.Stderr))
		case "search":
			os.Exit(runSearch(os.Args[2:], os.Stdout, os.Stderr))
		case "export":
			os.Exit(runExport(os.Args[2:], os.Stdout, os.Stderr))
		}
	}

	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if cfg.showVersion {
		fmt.Printf("datachat %s\n", version)
		os.Exit(0)
	}

	os.Exit(run(cfg))
}

// parseFlags parses command-line flags and returns a populated config.
func parseFlags(args []string) (config, error) {
	cfg := config{set: map[string]bool{}}

	fs := flag.NewFlagSet("datachat", flag.ContinueOnError)
	fs.StringVar(&cfg.serverURL, "server", DefaultServerURL, "Analysis backend base URL")
	fs.StringVar(&cfg.file, "file", "", "Upload this CSV or Excel file, then chat about it")
	fs.StringVar(&cfg.fileID, "file-id", "", "Chat about an already uploaded dataset")
	fs.StringVar(&cfg.filename, "filename", "", "Display name for -file-id")
	fs.StringVar(&cfg.exportDir, "export-dir", "", "Write figures and images of agent replies here")
	fs.StringVar(&cfg.transcript, "transcript", "", "Transcript file (default: <data-dir>/transcripts/<file-id>.jsonl)")
	fs.StringVar(&cfg.logFile, "log-file", "", "Log file (default: <data-dir>/datachat.log)")
	fs.StringVar(&cfg.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/datachat/config.yaml)")
	fs.BoolVar(&cfg.demo, "demo", false, "Run against a built-in mock analysis agent")
	fs.BoolVar(&cfg.quoteAware, "quote-aware", false, "Ignore brackets inside quoted strings when extracting figures")
	fs.BoolVar(&cfg.noInitialAnalysis, "no-initial-analysis", false, "Do not wait for the dataset summary before accepting questions")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		printHelp(os.Stderr, version)
	}

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	fs.Visit(func(f *flag.Flag) { cfg.set[f.Name] = true })

	if fs.NArg() > 0 && cfg.file == "" {
		cfg.file = fs.Arg(0)
	}

	return cfg, nil
}

// run resolves configuration, obtains a dataset handle, and runs the chat.
// Returns an exit code: 0 for success, 1 for failure, 2 for usage errors.
func run(cfg config) int {
	if cfg.file == "" && cfg.fileID == "" && !cfg.demo {
		printHelp(os.Stderr, version)
		return 2
	}

	s, err := resolveSettings(cfg, os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// Bubble Tea owns the terminal, so logs go to a file.
	if s.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(s.LogFile), 0o755); err == nil {
			if f, err := tea.LogToFile(s.LogFile, "datachat"); err == nil {
				defer f.Close()
			} else {
				fmt.Fprintf(os.Stderr, "warning: could not open log file: %v\n", err)
			}
		}
	} else {
		log.SetOutput(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.demo {
		url, stop, err := startDemoAgent()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		defer stop()
		s.ServerURL = url
	}

	fileID, filename, err := resolveDataset(ctx, cfg, s.ServerURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	cache := render.NewFigureCache(figureCacheSize, figureCacheTTL, chartOptions(s)...)

	p, err := newPersister(fileID, transcriptPath(cfg, s, fileID), s.ExportDir, cache.Extract)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: transcript disabled: %v\n", err)
	}
	defer p.Close()

	opts := []session.Option{session.WithFilename(filename), session.WithEntryHook(p.Record)}
	if s.InitialAnalysis {
		opts = append(opts, session.WithInitialAnalysis())
	}
	sess := session.New(fileID, opts...)

	model := tui.NewChatModel(ctx, sess, tui.Config{
		BaseURL: s.ServerURL,
		Extract: cache.Extract,
	})

	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := prog.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if path := p.Path(); path != "" {
		fmt.Fprintf(os.Stderr, "transcript saved to %s\n", path)
	}
	return 0
}

// resolveDataset returns the dataset handle, uploading a file when needed.
func resolveDataset(ctx context.Context, cfg config, serverURL string) (fileID, filename string, err error) {
	if cfg.fileID != "" {
		name := cfg.filename
		if name == "" {
			name = cfg.fileID
		}
		return cfg.fileID, name, nil
	}

	uploadCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	policy := transport.DefaultRetryPolicy()
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		log.Printf("component=cli action=upload_retry attempt=%d delay=%s error=%q", attempt+1, delay, err)
	}

	if cfg.file != "" {
		fmt.Fprintf(os.Stderr, "uploading %s...\n", cfg.file)
	}
	var res transport.UploadResult
	err = transport.Retry(uploadCtx, policy, func() error {
		var uerr error
		if cfg.file != "" {
			res, uerr = transport.Upload(uploadCtx, http.DefaultClient, serverURL, cfg.file)
		} else {
			res, uerr = transport.UploadReader(uploadCtx, http.DefaultClient, serverURL, "demo.csv", strings.NewReader(demoCSV))
		}
		return uerr
	})
	if err != nil {
		return "", "", err
	}
	log.Printf("component=cli action=uploaded file_id=%s filename=%q", res.FileID, res.Filename)
	return res.FileID, res.Filename, nil
}

// startDemoAgent serves the mock agent on a loopback port.
func startDemoAgent() (string, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("listen for demo agent: %w", err)
	}

	agent := mockagent.NewServer(mockagent.Config{StepDelay: 400 * time.Millisecond})
	stopCleanup := agent.Store().StartCleanup(time.Minute)
	srv := &http.Server{Handler: agent, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("component=cli action=demo_agent error=%q", err)
		}
	}()

	stop := func() {
		stopCleanup()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return "http://" + ln.Addr().String(), stop, nil
}

// chartOptions maps settings onto extractor options.
func chartOptions(s settings) []chart.Option {
	var opts []chart.Option
	if s.QuoteAware {
		opts = append(opts, chart.WithQuoteAware())
	}
	if s.Marker != "" {
		opts = append(opts, chart.WithMarker(s.Marker))
	}
	return opts
}

// transcriptPath picks the transcript file for a dataset.
func transcriptPath(cfg config, s settings, fileID string) string {
	if cfg.transcript != "" {
		return cfg.transcript
	}
	if s.TranscriptDir == "" {
		return ""
	}
	return filepath.Join(s.TranscriptDir, fileID+".jsonl")
}
