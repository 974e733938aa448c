package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/toggledoc/internal/database"
	"github.com/nao1215/toggledoc/internal/model"
)

// SimpleWriter outputs plain text for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty prints a notice for kinds without records.
	showEmpty bool

	// verbose adds diagnostics and scan counters to the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables diagnostics and counters in the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs every section in human-readable form.
func (w *SimpleWriter) Write(sections ...Section) (int, error) {
	var sb strings.Builder

	for _, s := range sections {
		w.writeSection(&sb, s)
	}

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, s Section) {
	title := s.Title()
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(strings.ToUpper(title))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	if s.Result.Err != nil {
		fmt.Fprintf(sb, "Status: ERROR - %s\n\n", s.Result.ErrorMessage)
	}

	entries := s.Entries()
	if len(entries) == 0 && w.showEmpty {
		fmt.Fprintf(sb, "  No %s found\n\n", strings.ToLower(title))
	}

	for _, e := range entries {
		w.writeEntry(sb, e)
	}

	if w.verbose {
		w.writeDiagnostics(sb, s.Result)
	}
}

func (w *SimpleWriter) writeEntry(sb *strings.Builder, e Entry) {
	sb.WriteString(e.Name)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", len(e.Name)))
	sb.WriteString("\n")

	if e.HasDefault {
		fmt.Fprintf(sb, "  Default: %s\n", e.Default)
	}
	if e.SourceURL != "" {
		fmt.Fprintf(sb, "  Source: %s <%s>\n", e.Source, e.SourceURL)
	} else {
		fmt.Fprintf(sb, "  Source: %s\n", e.Source)
	}
	if e.HasDescription {
		fmt.Fprintf(sb, "  Desc: %s\n", e.Description)
	}
	if e.Warning != "" {
		fmt.Fprintf(sb, "  [!] Warning: %s\n", e.Warning)
	}
	for _, f := range e.Fields {
		fmt.Fprintf(sb, "  %s: %s\n", f.Label, f.Value)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeDiagnostics(sb *strings.Builder, result *model.Result) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("DIAGNOSTICS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  Records:     %d\n", len(result.Records))
	fmt.Fprintf(sb, "  Annotations: %d\n", result.AnnotationsFound)
	fmt.Fprintf(sb, "  Errors:      %d\n", result.ErrorCount())
	fmt.Fprintf(sb, "  Warnings:    %d\n", result.WarningCount())
	sb.WriteString("\n")

	for _, d := range result.Diagnostics {
		fmt.Fprintf(sb, "  [%s] %s: %s\n", severityIndicator(d.Severity), d.Kind, d.Error())
	}
	if len(result.Diagnostics) > 0 {
		sb.WriteString("\n")
	}
}

// severityIndicator returns a visual indicator for the severity level.
func severityIndicator(s model.Severity) string {
	switch s {
	case model.SeverityError:
		return "!!"
	case model.SeverityWarning:
		return "!"
	default:
		return "?"
	}
}

// WriteDiff outputs the differences of one kind between two revisions.
func (w *SimpleWriter) WriteDiff(kind, from, to string, diff *database.Diff) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s: %s..%s\n\n", kind, from, to)

	if !diff.HasChanges() {
		fmt.Fprintf(&sb, "  No changes (%d unchanged)\n", diff.Unchanged)
		return w.output.Write([]byte(sb.String()))
	}

	for _, c := range diff.All() {
		switch c.Kind {
		case database.Added:
			fmt.Fprintf(&sb, "  + %s (%s)\n", c.Name, c.After.Provenance)
		case database.Removed:
			fmt.Fprintf(&sb, "  - %s (%s)\n", c.Name, c.Before.Provenance)
		case database.Changed:
			fmt.Fprintf(&sb, "  ~ %s (%s)\n", c.Name, c.After.Provenance)
		case database.Moved:
			fmt.Fprintf(&sb, "  > %s (%s -> %s)\n", c.Name, c.Before.Provenance, c.After.Provenance)
		}
	}

	fmt.Fprintf(&sb, "\n  %d added, %d removed, %d changed, %d moved, %d unchanged\n",
		len(diff.Added), len(diff.Removed), len(diff.Changed), len(diff.Moved), diff.Unchanged)

	return w.output.Write([]byte(sb.String()))
}
