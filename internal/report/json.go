package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/toggledoc/internal/database"
	"github.com/nao1215/toggledoc/internal/model"
)

// JSONWriter outputs sections as one JSON document for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is the toggledoc version recorded in the document.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the generating version in the document.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONDocument is the top-level JSON output.
type JSONDocument struct {
	Version  string        `json:"version,omitempty"`
	Sections []JSONSection `json:"sections"`
}

// JSONSection is one annotation kind in JSON output.
type JSONSection struct {
	Kind             string              `json:"kind"`
	Title            string              `json:"title"`
	Root             string              `json:"root,omitempty"`
	DateScanned      time.Time           `json:"date_scanned"`
	AnnotationsFound int                 `json:"annotations_found"`
	Entries          []Entry             `json:"entries"`
	Diagnostics      []*model.Diagnostic `json:"diagnostics"`
	Error            string              `json:"error,omitempty"`
}

// Write outputs the sections in JSON format.
func (w *JSONWriter) Write(sections ...Section) (int, error) {
	doc := JSONDocument{
		Version:  w.version,
		Sections: make([]JSONSection, 0, len(sections)),
	}

	for _, s := range sections {
		diagnostics := s.Result.Diagnostics
		if diagnostics == nil {
			diagnostics = []*model.Diagnostic{}
		}
		doc.Sections = append(doc.Sections, JSONSection{
			Kind:             s.Result.Kind,
			Title:            s.Title(),
			Root:             s.Result.Root,
			DateScanned:      s.Result.DateScanned,
			AnnotationsFound: s.Result.AnnotationsFound,
			Entries:          s.Entries(),
			Diagnostics:      diagnostics,
			Error:            s.Result.ErrorMessage,
		})
	}

	return w.writeJSON(doc)
}

// JSONDiff is the JSON output of a comparison.
type JSONDiff struct {
	Kind string         `json:"kind"`
	From string         `json:"from"`
	To   string         `json:"to"`
	Diff *database.Diff `json:"diff"`
}

// WriteDiff outputs the differences of one kind between two revisions.
func (w *JSONWriter) WriteDiff(kind, from, to string, diff *database.Diff) (int, error) {
	return w.writeJSON(JSONDiff{Kind: kind, From: from, To: to, Diff: diff})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
