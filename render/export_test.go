// ABOUTME: Tests for exporting entry figures and images to disk.
// ABOUTME: Covers re-plotted pages, raw fallbacks, image files, and entries without attachments.
package render

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/2389-research/datachat/chart"
	"github.com/2389-research/datachat/session"
)

func TestExporterWritesAttachments(t *testing.T) {
	dir := t.TempDir()
	e := session.Entry{
		ID:     session.NewULID(time.Now()),
		Origin: session.OriginAgent,
		Figures: []chart.Figure{
			{HTML: cachedHTML},
			{HTML: "<p>raw only</p>"},
		},
		Image: []byte("png-bytes"),
	}
	x := Exporter{Dir: dir, Logger: log.New(io.Discard, "", 0)}
	paths, err := x.Export(e)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	want := []string{
		filepath.Join(dir, e.ID.String()+"-1.html"),
		filepath.Join(dir, e.ID.String()+"-2.html"),
		filepath.Join(dir, e.ID.String()+"-3.png"),
	}
	if strings.Join(paths, "\n") != strings.Join(want, "\n") {
		t.Fatalf("paths = %q, want %q", paths, want)
	}

	page, _ := os.ReadFile(paths[0])
	if !strings.Contains(string(page), PlotlyCDN) {
		t.Error("extractable figure should be re-plotted")
	}
	raw, _ := os.ReadFile(paths[1])
	if string(raw) != "<p>raw only</p>" {
		t.Errorf("raw figure = %q", raw)
	}
	img, _ := os.ReadFile(paths[2])
	if string(img) != "png-bytes" {
		t.Errorf("image = %q", img)
	}
}

func TestExporterNothingToWrite(t *testing.T) {
	paths, err := Exporter{}.Export(session.Entry{Text: "plain"})
	if err != nil || paths != nil {
		t.Errorf("Export = %v, %v; want nothing", paths, err)
	}
}

func TestExporterRequiresDir(t *testing.T) {
	_, err := Exporter{}.Export(session.Entry{Image: []byte{1}})
	if err == nil {
		t.Error("expected error without a directory")
	}
}

func TestExporterJSONFormat(t *testing.T) {
	dir := t.TempDir()
	e := session.Entry{ID: session.NewULID(time.Now()), Figures: []chart.Figure{{HTML: cachedHTML}, {HTML: "<p>raw</p>"}}}
	x := Exporter{Dir: dir, Format: "json", Logger: log.New(io.Discard, "", 0)}
	paths, err := x.Export(e)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(paths) != 2 || filepath.Ext(paths[0]) != ".json" || filepath.Ext(paths[1]) != ".html" {
		t.Errorf("paths = %q", paths)
	}

	x.Format = "svg"
	if _, err := x.Export(e); err == nil {
		t.Error("unsupported format should fail")
	}
}

func TestExporterUsesCache(t *testing.T) {
	cache := NewFigureCache(4, time.Minute)
	x := Exporter{Dir: t.TempDir(), Extract: cache.Extract, Logger: log.New(io.Discard, "", 0)}
	e := session.Entry{ID: session.NewULID(time.Now()), Figures: []chart.Figure{{HTML: cachedHTML}}}
	if _, err := x.Export(e); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if cache.Len() != 1 {
		t.Errorf("cache len = %d, want 1", cache.Len())
	}
}
