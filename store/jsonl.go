// ABOUTME: Append-only JSONL transcript log for durable storage of chat entries.
// ABOUTME: Provides crash-safe append, sequential replay, and repair for truncated files.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/2389-research/datachat/session"
)

// maxLine bounds a single transcript line; entries carry figure HTML and
// base64 images, so lines are far larger than typical log records.
const maxLine = 64 * 1024 * 1024

// TranscriptLog is an append-only JSONL log backed by a file.
// Each line is a single JSON-serialized session.Entry followed by a newline.
type TranscriptLog struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// OpenTranscript opens (or creates) a transcript file at the given path.
// Creates parent directories if they do not exist.
func OpenTranscript(path string) (*TranscriptLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create parent dirs: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open transcript file: %w", err)
	}

	return &TranscriptLog{path: path, file: file}, nil
}

// Path returns the path to the underlying JSONL file.
func (l *TranscriptLog) Path() string {
	return l.path
}

// Append serializes a single entry as one JSON line, writes it with a
// trailing newline, and fsyncs to disk.
func (l *TranscriptLog) Append(e session.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write entry line: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (l *TranscriptLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// ReplayTranscript reads all entries from a transcript file in order.
// Empty lines are skipped. Returns an empty slice for empty files.
func ReplayTranscript(path string) ([]session.Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript for replay: %w", err)
	}
	defer func() { _ = file.Close() }()

	entries := []session.Entry{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e session.Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("parse transcript line %d: %w", lineNo, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript file: %w", err)
	}

	return entries, nil
}

// RepairTranscript keeps only complete, parseable lines and drops any
// partial trailing data. Uses temp-file + fsync + rename so a crash during
// repair leaves either the old or the new file. Returns the count of
// entries retained.
func RepairTranscript(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open transcript for repair: %w", err)
	}

	var valid []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e session.Entry
		if json.Unmarshal([]byte(line), &e) == nil {
			valid = append(valid, line)
		}
	}
	if err := scanner.Err(); err != nil {
		_ = file.Close()
		return 0, fmt.Errorf("scan transcript for repair: %w", err)
	}
	_ = file.Close()

	tmpPath := path + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	for _, line := range valid {
		if _, err := fmt.Fprintln(tmpFile, line); err != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
			return 0, fmt.Errorf("write valid line: %w", err)
		}
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("fsync temp file: %w", err)
	}
	_ = tmpFile.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("rename temp to original: %w", err)
	}

	// Make the rename durable.
	if dir, err := os.Open(filepath.Dir(path)); err == nil {
		_ = dir.Sync()
		_ = dir.Close()
	}

	return len(valid), nil
}
