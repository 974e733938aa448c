package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/nao1215/toggledoc/internal/model"
)

// MarkdownWriter outputs sections as a Markdown page with one heading per
// record, suitable for a repository docs folder.
type MarkdownWriter struct {
	baseWriter

	// diagnostics appends a diagnostics table per section.
	diagnostics bool
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithDiagnostics appends the diagnostics of each section.
func WithDiagnostics(show bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.diagnostics = show
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the sections in Markdown format.
func (w *MarkdownWriter) Write(sections ...Section) (int, error) {
	md := markdown.NewMarkdown(w.output)

	for _, s := range sections {
		w.writeSection(md, s)
	}

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeSection(md *markdown.Markdown, s Section) {
	md.H1(s.Title())
	md.PlainText("")

	if s.Result.Err != nil {
		md.Cautionf("Scan failed: %s", s.Result.ErrorMessage)
		md.PlainText("")
	}

	entries := s.Entries()
	if len(entries) == 0 {
		md.Note("No annotations found.")
		md.PlainText("")
	}

	for _, e := range entries {
		w.writeEntry(md, e)
	}

	if w.diagnostics {
		w.writeDiagnostics(md, s.Result)
	}
}

func (w *MarkdownWriter) writeEntry(md *markdown.Markdown, e Entry) {
	md.PlainTextf(`<a id="%s"></a>`, e.ID)
	md.PlainText("")
	md.H2(e.Name)
	md.PlainText("")

	rows := make([][]string, 0, 3+len(e.Fields))
	if e.HasDefault {
		rows = append(rows, []string{"Default", "`" + e.Default + "`"})
	}
	source := e.Source
	if e.SourceURL != "" {
		source = markdown.Link(e.Source, e.SourceURL)
	}
	rows = append(rows, []string{"Source", source})
	if e.HasDescription {
		rows = append(rows, []string{"Desc", e.Description})
	}
	for _, f := range e.Fields {
		rows = append(rows, []string{f.Label, f.Value})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if e.Warning != "" {
		md.Warning(e.Warning)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeDiagnostics(md *markdown.Markdown, result *model.Result) {
	md.H2("Diagnostics")
	md.PlainText("")

	if len(result.Diagnostics) == 0 {
		md.Tip("No diagnostics.")
		md.PlainText("")
		return
	}

	if n := result.ErrorCount(); n > 0 {
		md.Cautionf("%d error(s) found in the annotations.", n)
		md.PlainText("")
	}

	rows := make([][]string, len(result.Diagnostics))
	for i, d := range result.Diagnostics {
		rows[i] = []string{
			d.Severity.String(),
			d.Kind.String(),
			d.Position.File + ":" + strconv.Itoa(d.Position.Line),
			d.Error(),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Kind", "Location", "Message"},
		Rows:   rows,
	})
	md.PlainText("")
}
