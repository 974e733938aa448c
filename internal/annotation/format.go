package annotation

import (
	"strings"

	"github.com/nao1215/toggledoc/internal/model"
)

// Format renders rec as annotation source lines, one per value.
// The name tag comes first, then the other tags in declaration order.
// Scanning the output with the same grammar yields an equal record.
func (c *Config) Format(rec *model.Record, commentPrefix string) []string {
	lines := []string{formatLine(commentPrefix, c.NameTag().Token, rec.Name)}
	for _, tag := range c.spec.Tags {
		if tag.IsName() {
			continue
		}
		for _, v := range rec.Values[tag.Key] {
			lines = append(lines, formatLine(commentPrefix, tag.Token, v))
		}
	}
	return lines
}

// Template returns an empty annotation block listing every tag once.
// Values are placeholders such as "<default>" or "<temporary|vip>".
func (c *Config) Template(commentPrefix string) []string {
	lines := make([]string, 0, len(c.spec.Tags))
	lines = append(lines, formatLine(commentPrefix, c.NameTag().Token, "<"+c.NameTag().Key+">"))
	for _, tag := range c.spec.Tags {
		if tag.IsName() {
			continue
		}
		hint := tag.Key
		if len(tag.Choices) > 0 {
			hint = strings.Join(tag.Choices, "|")
		}
		lines = append(lines, formatLine(commentPrefix, tag.Token, "<"+hint+">"))
	}
	return lines
}

func formatLine(prefix, token, value string) string {
	var sb strings.Builder
	if prefix != "" {
		sb.WriteString(prefix)
		sb.WriteByte(' ')
	}
	sb.WriteString(token)
	sb.WriteByte(' ')
	sb.WriteString(value)
	return sb.String()
}
