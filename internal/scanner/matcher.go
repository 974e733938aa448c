package scanner

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nao1215/toggledoc/internal/annotation"
	"github.com/nao1215/toggledoc/internal/model"
)

type tokenKey struct {
	token string
	key   string
}

// lineMatcher recognizes annotation lines for one grammar.
// Prefixes, suffixes and tokens are kept longest first so that "<!--" wins
// over "<" and ".. toggle_name_x:" over ".. toggle_name".
type lineMatcher struct {
	prefixes []string
	suffixes []string
	tokens   []tokenKey
	nameKey  string
}

func newLineMatcher(cfg *annotation.Config) *lineMatcher {
	m := &lineMatcher{
		prefixes: cfg.CommentPrefixes(),
		suffixes: cfg.CommentSuffixes(),
		nameKey:  cfg.NameTag().Key,
	}
	for _, tag := range cfg.Tags() {
		m.tokens = append(m.tokens, tokenKey{token: tag.Token, key: tag.Key})
	}

	byLength := func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	}
	slices.SortFunc(m.prefixes, byLength)
	slices.SortFunc(m.suffixes, byLength)
	slices.SortFunc(m.tokens, func(a, b tokenKey) int { return byLength(a.token, b.token) })
	return m
}

// match returns the annotation carried by line, without its position.
func (m *lineMatcher) match(line string) (model.RawAnnotation, bool) {
	s := strings.TrimLeftFunc(line, unicode.IsSpace)
	if a, ok := m.matchToken(s); ok {
		return a, true
	}
	for _, p := range m.prefixes {
		if rest, ok := strings.CutPrefix(s, p); ok {
			return m.matchToken(strings.TrimLeftFunc(rest, unicode.IsSpace))
		}
	}
	return model.RawAnnotation{}, false
}

func (m *lineMatcher) matchToken(s string) (model.RawAnnotation, bool) {
	for _, t := range m.tokens {
		rest, ok := strings.CutPrefix(s, t.token)
		if !ok {
			continue
		}
		// "@name" must not match "@names".
		if !strings.HasSuffix(t.token, ":") && rest != "" {
			if r, _ := utf8.DecodeRuneInString(rest); !unicode.IsSpace(r) {
				continue
			}
		}
		value := m.trimValue(rest)
		// An empty name still ends the open record; other empty tags are ignored.
		if value == "" && t.key != m.nameKey {
			return model.RawAnnotation{}, false
		}
		return model.RawAnnotation{Key: t.key, Token: t.token, Value: value}, true
	}
	return model.RawAnnotation{}, false
}

func (m *lineMatcher) trimValue(s string) string {
	s = strings.TrimSpace(s)
	for _, suffix := range m.suffixes {
		if rest, ok := strings.CutSuffix(s, suffix); ok {
			return strings.TrimSpace(rest)
		}
	}
	return s
}
