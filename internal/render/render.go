// Package render writes dashboard counters for people and for scripts.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/naka-gawa/asreview-stats/internal/domain"
)

// Renderer presents the dashboard counters.
type Renderer interface {
	Render(values domain.DisplayValues) error
}

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns the renderer for format writing to w.
func New(format string, w io.Writer) (Renderer, error) {
	switch format {
	case FormatText:
		return NewTextRenderer(w), nil
	case FormatJSON:
		return NewJSONRenderer(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want %q or %q)", format, FormatText, FormatJSON)
	}
}

// TextRenderer prints one card per line with thousands separators.
type TextRenderer struct {
	w       io.Writer
	printer *message.Printer
}

// NewTextRenderer returns a TextRenderer writing to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{
		w:       w,
		printer: message.NewPrinter(language.English),
	}
}

// Render writes the four cards in dashboard order.
func (r *TextRenderer) Render(values domain.DisplayValues) error {
	for _, card := range values.Cards() {
		if _, err := r.printer.Fprintf(r.w, "%-20s %10d\n", card.Label, card.Value); err != nil {
			return fmt.Errorf("failed to write %s: %w", card.Label, err)
		}
	}
	return nil
}

// JSONRenderer prints the counters as an indented JSON object.
type JSONRenderer struct {
	w io.Writer
}

// NewJSONRenderer returns a JSONRenderer writing to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{w: w}
}

// Render writes values as one JSON object.
func (r *JSONRenderer) Render(values domain.DisplayValues) error {
	jsonData, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	if _, err := fmt.Fprintln(r.w, string(jsonData)); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
