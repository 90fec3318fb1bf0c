package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Source records who wrote a document.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// ErrMalformedDocument is returned when model output is not a usable document.
var ErrMalformedDocument = errors.New("malformed report document")

type Slide struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
}

// Document is a finished report.
type Document struct {
	Slides    []Slide `json:"slides"`
	Narrative string  `json:"narrative"`
	Source    Source  `json:"source"`
	Model     string  `json:"model,omitempty"`
}

// ParseDocument decodes model output. Both "slides" and "narrative" must be
// present and at least one slide must have a title.
func ParseDocument(text string) (*Document, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	for _, key := range []string{"slides", "narrative"} {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrMalformedDocument, key)
		}
	}

	var doc Document
	if err := json.Unmarshal(fields["slides"], &doc.Slides); err != nil {
		return nil, fmt.Errorf("%w: slides: %v", ErrMalformedDocument, err)
	}
	if err := json.Unmarshal(fields["narrative"], &doc.Narrative); err != nil {
		return nil, fmt.Errorf("%w: narrative: %v", ErrMalformedDocument, err)
	}
	if len(doc.Slides) == 0 || doc.Slides[0].Title == "" {
		return nil, fmt.Errorf("%w: no slides", ErrMalformedDocument)
	}
	doc.Source = SourceModel
	return &doc, nil
}

// Render writes doc as markdown.
func Render(w io.Writer, doc *Document) error {
	var b strings.Builder
	for i, s := range doc.Slides {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, s.Title)
		for _, bullet := range s.Bullets {
			fmt.Fprintf(&b, "- %s\n", bullet)
		}
		b.WriteString("\n")
	}
	b.WriteString("## Narrative\n\n")
	b.WriteString(strings.TrimSpace(doc.Narrative))
	b.WriteString("\n\n")

	src := string(doc.Source)
	if doc.Model != "" {
		src += " (" + doc.Model + ")"
	}
	fmt.Fprintf(&b, "_Source: %s_\n", src)

	_, err := io.WriteString(w, b.String())
	return err
}
