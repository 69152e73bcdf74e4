// ABOUTME: Writes the figures and image of a transcript entry to an export directory.
// ABOUTME: Figures that extract are re-plotted as standalone pages; others are saved as received.
package render

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/2389-research/datachat/chart"
	"github.com/2389-research/datachat/session"
)

// Exporter writes entry attachments under Dir as <entry-id>-<n>.<format>
// and <entry-id>-<n>.png, numbering figures first and the image last.
// Format is "html" (the default) or "json"; a figure that cannot be
// extracted is always saved as its raw HTML.
type Exporter struct {
	Dir     string
	Format  string
	Extract func(chart.Figure) (chart.Descriptor, bool)
	Logger  *log.Logger
}

// Export writes the attachments of e and returns the paths written. An
// entry with no figures and no image writes nothing.
func (x Exporter) Export(e session.Entry) ([]string, error) {
	if len(e.Figures) == 0 && len(e.Image) == 0 {
		return nil, nil
	}
	if x.Dir == "" {
		return nil, fmt.Errorf("export: no directory configured")
	}
	if err := os.MkdirAll(x.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create dir: %w", err)
	}

	logger := x.Logger
	if logger == nil {
		logger = log.Default()
	}
	format := x.Format
	if format == "" {
		format = "html"
	}

	var paths []string
	n := 0
	for _, view := range e.Descriptors(x.Extract) {
		n++
		data, ext := []byte(view.Figure.HTML), "html"
		if view.OK {
			out, err := Render(view.Descriptor, format)
			if err != nil {
				return paths, fmt.Errorf("export figure %d: %w", n, err)
			}
			data, ext = out, format
		}
		path := filepath.Join(x.Dir, fmt.Sprintf("%s-%d.%s", e.ID, n, ext))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("export figure %d: %w", n, err)
		}
		paths = append(paths, path)
	}

	if len(e.Image) > 0 {
		n++
		path := filepath.Join(x.Dir, fmt.Sprintf("%s-%d.png", e.ID, n))
		if err := os.WriteFile(path, e.Image, 0o644); err != nil {
			return paths, fmt.Errorf("export image: %w", err)
		}
		paths = append(paths, path)
	}

	logger.Printf("component=render action=export entry=%s files=%d dir=%s", e.ID, len(paths), x.Dir)
	return paths, nil
}
