package report

import (
	"strconv"
	"strings"

	"github.com/nao1215/toggledoc/internal/annotation"
	"github.com/nao1215/toggledoc/internal/model"
)

// Section is one annotation kind to render: the grammar it was scanned with
// and the assembled result.
type Section struct {
	Grammar *annotation.Config
	Result  *model.Result
	Links   Linker
}

// Linker builds hyperlinks to the source of a record.
type Linker struct {
	// RepoURL is the browsable repository URL, e.g. https://github.com/org/repo.
	// No links are built when it is empty.
	RepoURL string

	// Revision is the commit or branch the links point at. Empty means HEAD.
	Revision string
}

// URL returns "<repo>/blob/<revision>/<file>#L<line>", or "" without a
// repository URL.
func (l Linker) URL(p model.Provenance) string {
	if l.RepoURL == "" {
		return ""
	}
	rev := l.Revision
	if rev == "" {
		rev = "HEAD"
	}
	return strings.TrimSuffix(l.RepoURL, "/") + "/blob/" + rev + "/" +
		strings.TrimPrefix(p.File, "/") + "#L" + strconv.Itoa(p.Line)
}

// unquotedValues are rendered as literals.
var unquotedValues = map[string]bool{
	"True":  true,
	"False": true,
	"None":  true,
}

// QuoteValue renders a default value: booleans, None and numbers as is,
// anything else in double quotes.
func QuoteValue(v string) string {
	v = strings.TrimSpace(v)
	if unquotedValues[v] {
		return v
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v
	}
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v
	}
	return `"` + v + `"`
}

// Field is one labeled attribute line of an entry.
type Field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Entry is the display form of one record. Every writer renders entries,
// so the placeholder and visibility rules live here only.
type Entry struct {
	// ID is the section anchor, "<anchor>-<name>".
	ID string `json:"id"`

	// TitleID is the title anchor, "name-<name>".
	TitleID string `json:"title_id"`

	Name string `json:"name"`

	// Default is the quoted default value or the quoted placeholder.
	// HasDefault is false when the grammar has no default tag.
	Default    string `json:"default,omitempty"`
	HasDefault bool   `json:"-"`

	// Description is the description or the placeholder.
	Description    string `json:"description,omitempty"`
	HasDescription bool   `json:"-"`

	// Source is "<file> (line <n>)"; SourceURL is empty without a repository.
	Source     string           `json:"source"`
	SourceURL  string           `json:"source_url,omitempty"`
	Provenance model.Provenance `json:"provenance"`

	// Warning is empty unless the record carries a displayable warning.
	Warning string `json:"warning,omitempty"`

	// Fields are the remaining displayable attributes in grammar order.
	Fields []Field `json:"fields,omitempty"`
}

// Entries returns the entries of a section sorted by record name.
func (s Section) Entries() []Entry {
	records := s.Result.Records.Sorted()
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, s.entry(rec))
	}
	return entries
}

func (s Section) entry(rec *model.Record) Entry {
	g := s.Grammar
	e := Entry{
		ID:         g.Anchor() + "-" + rec.Name,
		TitleID:    "name-" + rec.Name,
		Name:       rec.Name,
		Source:     rec.Provenance.File + " (line " + strconv.Itoa(rec.Provenance.Line) + ")",
		SourceURL:  s.Links.URL(rec.Provenance),
		Provenance: rec.Provenance,
	}

	for _, tag := range g.Tags() {
		switch tag.Role {
		case annotation.RoleName:
		case annotation.RoleDefault:
			e.HasDefault = true
			if v, ok := rec.Get(tag.Key); ok {
				e.Default = QuoteValue(v)
			} else {
				e.Default = QuoteValue(g.Placeholder(tag.Key))
			}
		case annotation.RoleDescription:
			e.HasDescription = true
			if v, ok := rec.Get(tag.Key); ok {
				e.Description = v
			} else {
				e.Description = g.Placeholder(tag.Key)
			}
		case annotation.RoleWarning:
			if attr := rec.Attr(tag.Key); attr.Displayable() {
				e.Warning = attr.Value()
			}
		default:
			if attr := rec.Attr(tag.Key); attr.Displayable() {
				e.Fields = append(e.Fields, Field{
					Key:   tag.Key,
					Label: g.Label(tag.Key),
					Value: attr.Value(),
				})
			}
		}
	}

	return e
}

// Title returns the grammar title, or the kind when the result has no grammar.
func (s Section) Title() string {
	if s.Grammar != nil {
		return s.Grammar.Title()
	}
	return s.Result.Kind
}
