package annotation

import (
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"
)

//go:embed grammars/*.yaml
var builtinFS embed.FS

const grammarExt = ".yaml"

// Builtin returns the embedded grammar for kind.
func Builtin(kind string) (*Config, error) {
	data, err := fs.ReadFile(builtinFS, "grammars/"+kind+grammarExt)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return Parse(data)
}

// BuiltinKinds returns the names of the embedded grammars, sorted.
func BuiltinKinds() []string {
	entries, err := fs.ReadDir(builtinFS, "grammars")
	if err != nil {
		return nil
	}

	kinds := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), grammarExt); ok {
			kinds = append(kinds, name)
		}
	}
	slices.Sort(kinds)
	return kinds
}

// Resolve returns the built-in grammar named ref, or loads ref as a grammar file.
func Resolve(ref string) (*Config, error) {
	if slices.Contains(BuiltinKinds(), ref) {
		return Builtin(ref)
	}
	if !strings.HasSuffix(ref, ".yaml") && !strings.HasSuffix(ref, ".yml") {
		return nil, fmt.Errorf("%w: %q (built-in kinds: %s)", ErrUnknownKind, ref, strings.Join(BuiltinKinds(), ", "))
	}
	return Load(ref)
}
