// ABOUTME: Visualization extractor that recovers series and layout literals from generated Plotly HTML.
// ABOUTME: Scans script bodies in document order; the first body whose call parses wins, failures fall through.
package chart

import (
	"log"
	"strings"

	"github.com/2389-research/datachat/literal"
	"golang.org/x/net/html"
)

// DefaultMarker is the call signature that precedes the series and layout literals.
const DefaultMarker = "Plotly.newPlot("

type extractConfig struct {
	marker     string
	quoteAware bool
	logger     *log.Logger
}

// Option configures Extract.
type Option func(*extractConfig)

// WithMarker overrides the call marker searched for in each script body.
func WithMarker(marker string) Option {
	return func(c *extractConfig) {
		if marker != "" {
			c.marker = marker
		}
	}
}

// WithQuoteAware makes the literal scan ignore brackets inside quoted strings.
func WithQuoteAware() Option {
	return func(c *extractConfig) { c.quoteAware = true }
}

// WithLogger reports per-body extraction failures to l.
func WithLogger(l *log.Logger) Option {
	return func(c *extractConfig) { c.logger = l }
}

// Extract finds the first script body in src containing a plot call whose
// series array and layout object both evaluate, and returns them. It never
// fails loudly: when no body yields a chart it returns (Descriptor{}, false).
func Extract(src string, opts ...Option) (Descriptor, bool) {
	cfg := extractConfig{marker: DefaultMarker}
	for _, opt := range opts {
		opt(&cfg)
	}

	for i, body := range ScriptBodies(src) {
		d, reason := extractBody(body, cfg)
		if reason == "" {
			return d, true
		}
		if cfg.logger != nil {
			cfg.logger.Printf("component=chart action=skip script=%d reason=%q", i, reason)
		}
	}
	return Descriptor{}, false
}

// ExtractFigure extracts from the figure's HTML and attaches its insight.
func ExtractFigure(f Figure, opts ...Option) (Descriptor, bool) {
	d, ok := Extract(f.HTML, opts...)
	if !ok {
		return Descriptor{}, false
	}
	return d.WithInsight(f.Insight), true
}

// extractBody returns the descriptor for one script body, or a non-empty
// reason describing the first step that failed.
func extractBody(body string, cfg extractConfig) (Descriptor, string) {
	idx := strings.Index(body, cfg.marker)
	if idx < 0 {
		return Descriptor{}, "marker not found"
	}

	balance := literal.Balance
	if cfg.quoteAware {
		balance = literal.BalanceQuoted
	}

	seriesSpan, ok := balance(body, '[', ']', idx+len(cfg.marker))
	if !ok {
		return Descriptor{}, "series literal not closed"
	}
	layoutSpan, ok := balance(body, '{', '}', seriesSpan.End+1)
	if !ok {
		return Descriptor{}, "layout literal not closed"
	}

	series, err := literal.ParseArray(seriesSpan.Text)
	if err != nil {
		return Descriptor{}, "series: " + err.Error()
	}
	layout, err := literal.ParseObject(layoutSpan.Text)
	if err != nil {
		return Descriptor{}, "layout: " + err.Error()
	}
	return Descriptor{series: series, layout: layout}, ""
}

// ScriptBodies returns the text of every <script> element in document
// order. Input without any script element yields no bodies.
func ScriptBodies(src string) []string {
	z := html.NewTokenizer(strings.NewReader(src))
	var bodies []string
	var current *strings.Builder

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if current != nil {
				bodies = append(bodies, current.String())
			}
			return bodies
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) == "script" {
				if current != nil {
					bodies = append(bodies, current.String())
				}
				current = &strings.Builder{}
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "script" {
				bodies = append(bodies, "")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "script" && current != nil {
				bodies = append(bodies, current.String())
				current = nil
			}
		case html.TextToken:
			if current != nil {
				current.Write(z.Text())
			}
		}
	}
}
