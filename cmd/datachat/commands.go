// ABOUTME: Offline subcommands that work on saved transcripts: print, search, and export.
// ABOUTME: Each takes its own flag set and returns an exit code.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2389-research/datachat/render"
	"github.com/2389-research/datachat/store"
	"github.com/2389-research/datachat/tui"
)

// runPrint renders a saved transcript to w.
//
//	datachat print [-width N] [-repair] <transcript.jsonl>
func runPrint(args []string, w, errw io.Writer) int {
	fs := flag.NewFlagSet("print", flag.ContinueOnError)
	fs.SetOutput(errw)
	width := fs.Int("width", 100, "Wrap width")
	repair := fs.Bool("repair", false, "Drop truncated or corrupt lines before printing")
	if err := fs.Parse(args); err != nil {
		return usageCode(err)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errw, "usage: datachat print [-width N] [-repair] <transcript.jsonl>")
		return 2
	}
	path := fs.Arg(0)

	if *repair {
		n, err := store.RepairTranscript(path)
		if err != nil {
			fmt.Fprintf(errw, "error: %v\n", err)
			return 1
		}
		fmt.Fprintf(errw, "kept %d entries\n", n)
	}

	entries, err := store.ReplayTranscript(path)
	if err != nil {
		fmt.Fprintf(errw, "error: %v\n", err)
		return 1
	}
	if err := tui.PrintTranscript(w, entries, *width); err != nil {
		fmt.Fprintf(errw, "error: %v\n", err)
		return 1
	}
	return 0
}

// runSearch looks up entries containing a term in the transcript index.
//
//	datachat search [-index path] [-rebuild transcript.jsonl] <term>
func runSearch(args []string, w, errw io.Writer) int {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(errw)
	indexFlag := fs.String("index", "", "Index database (default: <data-dir>/transcripts/index.db)")
	rebuild := fs.String("rebuild", "", "Re-index this transcript before searching")
	if err := fs.Parse(args); err != nil {
		return usageCode(err)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errw, "usage: datachat search [-index path] [-rebuild transcript.jsonl] <term>")
		return 2
	}

	path := *indexFlag
	switch {
	case path != "":
	case *rebuild != "":
		path = indexPath(*rebuild)
	default:
		s, err := resolveSettings(config{set: map[string]bool{}}, os.Getenv)
		if err != nil {
			fmt.Fprintf(errw, "error: %v\n", err)
			return 1
		}
		if s.TranscriptDir == "" {
			fmt.Fprintln(errw, "error: no transcript directory; pass -index")
			return 1
		}
		path = filepath.Join(s.TranscriptDir, "index.db")
	}

	idx, err := store.OpenSqlite(path)
	if err != nil {
		fmt.Fprintf(errw, "error: %v\n", err)
		return 1
	}
	defer idx.Close()

	if *rebuild != "" {
		entries, err := store.ReplayTranscript(*rebuild)
		if err != nil {
			fmt.Fprintf(errw, "error: %v\n", err)
			return 1
		}
		fileID := strings.TrimSuffix(filepath.Base(*rebuild), filepath.Ext(*rebuild))
		if err := idx.Rebuild(fileID, entries); err != nil {
			fmt.Fprintf(errw, "error: %v\n", err)
			return 1
		}
	}

	rows, err := idx.Search(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errw, "error: %v\n", err)
		return 1
	}
	for _, r := range rows {
		first, _, _ := strings.Cut(r.Text, "\n")
		fmt.Fprintf(w, "%s %-5s %s %s\n", r.At, r.Origin, r.FileID, first)
	}
	if len(rows) == 0 {
		fmt.Fprintln(errw, "no matches")
	}
	return 0
}

// runExport writes the figures and images of every agent entry.
//
//	datachat export [-dir D] [-format html|json] <transcript.jsonl>
func runExport(args []string, w, errw io.Writer) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(errw)
	dir := fs.String("dir", ".", "Output directory")
	format := fs.String("format", "html", "Figure format: html or json")
	if err := fs.Parse(args); err != nil {
		return usageCode(err)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errw, "usage: datachat export [-dir D] [-format html|json] <transcript.jsonl>")
		return 2
	}

	entries, err := store.ReplayTranscript(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errw, "error: %v\n", err)
		return 1
	}

	x := render.Exporter{Dir: *dir, Format: *format}
	written := 0
	for _, e := range entries {
		paths, err := x.Export(e)
		if err != nil {
			fmt.Fprintf(errw, "error: %v\n", err)
			return 1
		}
		for _, p := range paths {
			fmt.Fprintln(w, p)
		}
		written += len(paths)
	}
	fmt.Fprintf(errw, "wrote %d files\n", written)
	return 0
}

func usageCode(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	return 2
}
