package report

import (
	"bytes"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLWriter outputs sections as a standalone HTML page.
// Each record is a <div class="section"> with id "<anchor>-<name>" so
// pages can link to a single toggle.
type HTMLWriter struct {
	baseWriter

	// title is the page title. Defaults to the first section title.
	title string
}

// HTMLWriterOption configures an HTMLWriter.
type HTMLWriterOption func(*HTMLWriter)

// WithTitle sets the page title.
func WithTitle(title string) HTMLWriterOption {
	return func(w *HTMLWriter) {
		w.title = title
	}
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer, opts ...HTMLWriterOption) *HTMLWriter {
	w := &HTMLWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write renders the sections into one HTML document.
func (w *HTMLWriter) Write(sections ...Section) (int, error) {
	title := w.title
	if title == "" && len(sections) > 0 {
		title = sections[0].Title()
	}

	head := element(atom.Head, []*html.Node{
		element(atom.Meta, nil, attr("charset", "utf-8")),
		element(atom.Title, []*html.Node{text(title)}),
	})
	body := element(atom.Body, nil)
	for _, s := range sections {
		body.AppendChild(sectionNode(s))
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(element(atom.Html, []*html.Node{head, body}))

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return 0, err
	}
	buf.WriteByte('\n')

	return w.output.Write(buf.Bytes())
}

func sectionNode(s Section) *html.Node {
	n := element(atom.Section, []*html.Node{
		element(atom.H1, []*html.Node{text(s.Title())}),
	}, attr("id", s.Grammar.Anchor()))

	if s.Result.Err != nil {
		n.AppendChild(admonition("error", "Error", s.Result.ErrorMessage))
	}

	for _, e := range s.Entries() {
		n.AppendChild(entryNode(e))
	}
	return n
}

func entryNode(e Entry) *html.Node {
	n := element(atom.Div, []*html.Node{
		element(atom.H2, []*html.Node{text(e.Name)}, attr("id", e.TitleID)),
	}, attr("class", "section"), attr("id", e.ID))

	if e.HasDefault {
		n.AppendChild(property("default-"+e.Name, "Default", element(atom.Code, []*html.Node{text(e.Default)})))
	}

	source := text(e.Source)
	if e.SourceURL != "" {
		source = element(atom.A, []*html.Node{text(e.Source)}, attr("href", e.SourceURL))
	}
	n.AppendChild(property("source-"+e.Name, "Source", source))

	if e.HasDescription {
		n.AppendChild(property("description-"+e.Name, "Desc", text(e.Description)))
	}
	if e.Warning != "" {
		n.AppendChild(admonition("warning", "Warning", e.Warning, attr("id", "warning-"+e.Name)))
	}
	for _, f := range e.Fields {
		n.AppendChild(property(f.Key+"-"+e.Name, f.Label, text(f.Value)))
	}
	return n
}

// property renders "<p id="id"><strong>label:</strong> value</p>".
func property(id, label string, value *html.Node) *html.Node {
	return element(atom.P, []*html.Node{
		element(atom.Strong, []*html.Node{text(label + ":")}),
		text(" "),
		value,
	}, attr("id", id))
}

func admonition(class, title, body string, attrs ...html.Attribute) *html.Node {
	return element(atom.Div, []*html.Node{
		element(atom.P, []*html.Node{text(title)}, attr("class", "admonition-title")),
		element(atom.P, []*html.Node{text(body)}),
	}, append([]html.Attribute{attr("class", "admonition " + class)}, attrs...)...)
}

func element(a atom.Atom, children []*html.Node, attrs ...html.Attribute) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
