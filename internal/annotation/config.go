package annotation

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Role tells renderers how to present a tag.
type Role string

const (
	// RoleAttribute is an optional attribute shown with its label when present.
	RoleAttribute Role = ""

	// RoleName marks the tag that opens a new record.
	RoleName Role = "name"

	// RoleDefault marks the default value, shown quoted.
	RoleDefault Role = "default"

	// RoleDescription marks the free-text description.
	RoleDescription Role = "description"

	// RoleWarning marks a warning, shown as a warning block.
	RoleWarning Role = "warning"
)

// DefaultPlaceholder is shown for a missing default or description when the
// tag does not declare its own placeholder.
const DefaultPlaceholder = "Not defined"

// Tag is one recognized annotation tag.
type Tag struct {
	// Token is the literal text that introduces the tag, e.g. ".. toggle_name:".
	Token string `yaml:"token"`

	// Key is the short name used in records, e.g. "name".
	Key string `yaml:"key"`

	// Role selects how renderers present the tag.
	Role Role `yaml:"role,omitempty"`

	// Multiple makes the tag a list: every occurrence is appended.
	// Otherwise a later occurrence overwrites an earlier one.
	Multiple bool `yaml:"multiple,omitempty"`

	// Required tags produce a MissingRequiredAttribute diagnostic when absent.
	Required bool `yaml:"required,omitempty"`

	// Placeholder is displayed for a missing default or description.
	Placeholder string `yaml:"placeholder,omitempty"`

	// Label overrides the display label derived from Key.
	Label string `yaml:"label,omitempty"`

	// Choices restricts the allowed values. Values are split on commas and
	// whitespace before checking.
	Choices []string `yaml:"choices,omitempty"`
}

// IsName reports whether the tag opens a new record.
func (t Tag) IsName() bool {
	return t.Role == RoleName
}

// Allows reports whether v is an accepted choice.
// A tag without choices accepts everything.
func (t Tag) Allows(v string) bool {
	return len(t.Choices) == 0 || slices.Contains(t.Choices, v)
}

// Spec is the YAML document form of a grammar.
type Spec struct {
	Kind            string   `yaml:"kind"`
	Title           string   `yaml:"title,omitempty"`
	Anchor          string   `yaml:"anchor,omitempty"`
	CommentPrefixes []string `yaml:"comment_prefixes,omitempty"`
	CommentSuffixes []string `yaml:"comment_suffixes,omitempty"`
	Extensions      []string `yaml:"extensions,omitempty"`
	Tags            []Tag    `yaml:"tags"`
}

// Config is a validated, immutable grammar.
type Config struct {
	spec    Spec
	nameIdx int
	byKey   map[string]int
}

// New validates spec and returns the grammar built from a copy of it.
func New(spec Spec) (*Config, error) {
	spec = cloneSpec(spec)
	spec.Kind = strings.TrimSpace(spec.Kind)
	if spec.Kind == "" {
		return nil, ErrNoKind
	}
	if len(spec.Tags) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTags, spec.Kind)
	}
	for _, p := range spec.CommentPrefixes {
		if strings.TrimSpace(p) == "" {
			return nil, ErrEmptyCommentPrefix
		}
	}
	for i, ext := range spec.Extensions {
		spec.Extensions[i] = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	}

	c := &Config{
		spec:    spec,
		nameIdx: -1,
		byKey:   make(map[string]int, len(spec.Tags)),
	}

	tokens := make(map[string]bool, len(spec.Tags))
	roles := make(map[Role]bool)
	for i := range c.spec.Tags {
		tag := &c.spec.Tags[i]
		tag.Token = strings.TrimSpace(tag.Token)
		tag.Key = strings.TrimSpace(tag.Key)

		if tag.Token == "" {
			return nil, fmt.Errorf("%w: tag #%d", ErrEmptyToken, i+1)
		}
		if tag.Key == "" {
			return nil, fmt.Errorf("%w: %q", ErrEmptyKey, tag.Token)
		}
		if tokens[tag.Token] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateToken, tag.Token)
		}
		tokens[tag.Token] = true
		if _, ok := c.byKey[tag.Key]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, tag.Key)
		}
		c.byKey[tag.Key] = i

		switch tag.Role {
		case RoleAttribute:
		case RoleName:
			if c.nameIdx >= 0 {
				return nil, fmt.Errorf("%w: %q and %q", ErrNameTag, c.spec.Tags[c.nameIdx].Token, tag.Token)
			}
			if tag.Multiple {
				return nil, fmt.Errorf("%w: %q", ErrMultipleName, tag.Token)
			}
			c.nameIdx = i
		case RoleDefault, RoleDescription, RoleWarning:
			if roles[tag.Role] {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateRole, tag.Role)
			}
			roles[tag.Role] = true
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownRole, tag.Role)
		}
	}
	if c.nameIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNameTag, spec.Kind)
	}

	return c, nil
}

// Parse decodes a YAML grammar and validates it.
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var spec Spec
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("failed to parse grammar: %w", err)
	}
	return New(spec)
}

// Load reads a YAML grammar from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided grammar path is intentional
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Kind returns the annotation kind name.
func (c *Config) Kind() string {
	return c.spec.Kind
}

// Title returns the page section title, defaulting to the kind.
func (c *Config) Title() string {
	if c.spec.Title != "" {
		return c.spec.Title
	}
	return c.spec.Kind
}

// Anchor returns the prefix used for entity section ids, defaulting to the kind.
func (c *Config) Anchor() string {
	if c.spec.Anchor != "" {
		return c.spec.Anchor
	}
	return c.spec.Kind
}

// CommentPrefixes returns the comment markers that may precede a tag.
func (c *Config) CommentPrefixes() []string {
	return slices.Clone(c.spec.CommentPrefixes)
}

// CommentSuffixes returns the comment closers trimmed from the end of values.
func (c *Config) CommentSuffixes() []string {
	return slices.Clone(c.spec.CommentSuffixes)
}

// Extensions returns the file extensions to scan, lower case without dot.
// An empty list means every text file.
func (c *Config) Extensions() []string {
	return slices.Clone(c.spec.Extensions)
}

// MatchesExtension reports whether a file name passes the extension filter.
func (c *Config) MatchesExtension(name string) bool {
	if len(c.spec.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	return ext != "" && slices.Contains(c.spec.Extensions, ext)
}

// Tags returns the tags in declaration order.
func (c *Config) Tags() []Tag {
	tags := make([]Tag, len(c.spec.Tags))
	for i, t := range c.spec.Tags {
		t.Choices = slices.Clone(t.Choices)
		tags[i] = t
	}
	return tags
}

// NameTag returns the tag that opens a new record.
func (c *Config) NameTag() Tag {
	return c.spec.Tags[c.nameIdx]
}

// Tag returns the tag with the given key.
func (c *Config) Tag(key string) (Tag, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Tag{}, false
	}
	t := c.spec.Tags[i]
	t.Choices = slices.Clone(t.Choices)
	return t, true
}

// TagForRole returns the tag that carries role, if any.
func (c *Config) TagForRole(role Role) (Tag, bool) {
	for _, t := range c.spec.Tags {
		if t.Role == role {
			return c.Tag(t.Key)
		}
	}
	return Tag{}, false
}

// Label returns the display label of key.
// Without an explicit label "target_removal_date" becomes "Target Removal Date".
func (c *Config) Label(key string) string {
	if t, ok := c.Tag(key); ok && t.Label != "" {
		return t.Label
	}
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}

// Placeholder returns the text displayed when key is missing.
func (c *Config) Placeholder(key string) string {
	if t, ok := c.Tag(key); ok && t.Placeholder != "" {
		return t.Placeholder
	}
	return DefaultPlaceholder
}

// Spec returns a copy of the grammar in its YAML document form.
func (c *Config) Spec() Spec {
	return cloneSpec(c.spec)
}

func cloneSpec(s Spec) Spec {
	s.CommentPrefixes = slices.Clone(s.CommentPrefixes)
	s.CommentSuffixes = slices.Clone(s.CommentSuffixes)
	s.Extensions = slices.Clone(s.Extensions)
	tags := make([]Tag, len(s.Tags))
	for i, t := range s.Tags {
		t.Choices = slices.Clone(t.Choices)
		tags[i] = t
	}
	s.Tags = tags
	return s
}
