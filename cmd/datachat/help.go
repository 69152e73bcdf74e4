// ABOUTME: Help display for the datachat CLI with grouped flags, subcommands, examples, and environment status.
// ABOUTME: Provides printHelp for usage output and envStatus for configuration variable detection.
package main

import (
	"fmt"
	"io"
	"os"
)

// printHelp writes a formatted help message to w, including usage patterns,
// grouped flags, examples, and environment status.
func printHelp(w io.Writer, ver string) {
	fmt.Fprintf(w, "datachat %s: chat with a data-analysis agent from the terminal\n", ver)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  datachat [flags] <data.csv>           Upload a file and chat about it")
	fmt.Fprintln(w, "  datachat -file-id <id> [flags]        Chat about an uploaded dataset")
	fmt.Fprintln(w, "  datachat -demo                        Chat with the built-in mock agent")
	fmt.Fprintln(w, "  datachat print <transcript.jsonl>     Print a saved transcript")
	fmt.Fprintln(w, "  datachat search <term>                Search saved transcripts")
	fmt.Fprintln(w, "  datachat export <transcript.jsonl>    Export figures from a transcript")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Connection Flags:")
	fmt.Fprintln(w, "  -server <url>         Analysis backend base URL (default: "+DefaultServerURL+")")
	fmt.Fprintln(w, "  -file <path>          Upload this file (same as the positional argument)")
	fmt.Fprintln(w, "  -file-id <id>         Use an existing dataset handle")
	fmt.Fprintln(w, "  -filename <name>      Display name for -file-id")
	fmt.Fprintln(w, "  -no-initial-analysis  Accept questions before the dataset summary arrives")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Output Flags:")
	fmt.Fprintln(w, "  -transcript <path>    Transcript file (default: <data-dir>/transcripts/<file-id>.jsonl)")
	fmt.Fprintln(w, "  -export-dir <dir>     Save figures and images from agent replies")
	fmt.Fprintln(w, "  -log-file <path>      Log file (default: <data-dir>/datachat.log)")
	fmt.Fprintln(w, "  -quote-aware          Ignore brackets inside quoted strings in figures")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Other:")
	fmt.Fprintln(w, "  -config <path>        Config file (default: $XDG_CONFIG_HOME/datachat/config.yaml)")
	fmt.Fprintln(w, "  -version              Print version and exit")
	fmt.Fprintln(w, "  -help                 Show this help")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  datachat sales.csv")
	fmt.Fprintln(w, "  datachat -server https://analysis.example.com -export-dir ./figures sales.xlsx")
	fmt.Fprintln(w, "  datachat print -width 80 ~/.local/share/datachat/transcripts/<id>.jsonl")
	fmt.Fprintln(w, "  datachat export -format json -dir ./figures transcript.jsonl")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  %-21s %s\n", envServerURL, envStatus(envServerURL))
	fmt.Fprintf(w, "  %-21s %s\n", envExportDir, envStatus(envExportDir))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Variables are also read from .env files in the current directory and its parents.")
}

// envStatus returns "[set]" if the named environment variable is non-empty,
// or "[not set]" otherwise.
func envStatus(key string) string {
	if os.Getenv(key) != "" {
		return "[set]"
	}
	return "[not set]"
}
