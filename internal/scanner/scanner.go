package scanner

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/utils/binary"

	"github.com/nao1215/toggledoc/internal/annotation"
	"github.com/nao1215/toggledoc/internal/model"
)

// MaxLineSize is the longest line the scanner reads. A file containing a
// longer line is reported as unreadable from that line on.
const MaxLineSize = 1024 * 1024

const gitDir = ".git"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Scanner extracts annotations from a filesystem.
// It holds only configuration; every call to Walk starts a fresh traversal.
type Scanner struct {
	fs            billy.Filesystem
	cfg           *annotation.Config
	exclude       []string
	useGitignore  bool
	includeHidden bool
	logger        *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithExclude adds gitignore-style patterns for paths to skip,
// relative to the scan root (e.g. "node_modules/", "*.min.js", "/build").
func WithExclude(patterns ...string) Option {
	return func(s *Scanner) {
		s.exclude = append(s.exclude, patterns...)
	}
}

// WithGitignore makes the scanner honor .gitignore files found in the tree.
func WithGitignore(enabled bool) Option {
	return func(s *Scanner) {
		s.useGitignore = enabled
	}
}

// WithHidden makes the scanner descend into dot files and directories.
// The .git directory is always skipped.
func WithHidden(enabled bool) Option {
	return func(s *Scanner) {
		s.includeHidden = enabled
	}
}

// WithLogger sets the logger used for skipped entries.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// New creates a Scanner over fs. Paths in the output are relative to the
// root of fs and slash-separated.
func New(fs billy.Filesystem, cfg *annotation.Config, opts ...Option) *Scanner {
	s := &Scanner{
		fs:     fs,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewOS creates a Scanner rooted at a directory of the local filesystem.
func NewOS(root string, cfg *annotation.Config, opts ...Option) *Scanner {
	return New(osfs.New(root), cfg, opts...)
}

// Walk returns the annotations of the tree as a lazy sequence.
//
// Each pair is either an annotation with a nil error, a *model.Diagnostic
// for a skipped file or directory, or a final error wrapping
// ErrRootUnreadable. Stopping the iteration early stops the walk.
func (s *Scanner) Walk() iter.Seq2[model.RawAnnotation, error] {
	return func(yield func(model.RawAnnotation, error) bool) {
		entries, err := s.fs.ReadDir(".")
		if err != nil {
			yield(model.RawAnnotation{}, fmt.Errorf("%w: %w", ErrRootUnreadable, err))
			return
		}

		w := &walk{
			Scanner: s,
			lines:   newLineMatcher(s.cfg),
			ignore:  s.newIgnoreMatcher(),
			yield:   yield,
		}
		w.entries("", entries)
	}
}

// Collect runs a full walk and returns the annotations and diagnostics.
// The returned error is non-nil only when the root is unreadable.
func (s *Scanner) Collect() ([]model.RawAnnotation, []*model.Diagnostic, error) {
	var (
		annotations []model.RawAnnotation
		diagnostics []*model.Diagnostic
	)
	for a, err := range s.Walk() {
		if err != nil {
			var d *model.Diagnostic
			if !errors.As(err, &d) {
				return annotations, diagnostics, err
			}
			diagnostics = append(diagnostics, d)
			continue
		}
		annotations = append(annotations, a)
	}
	return annotations, diagnostics, nil
}

func (s *Scanner) newIgnoreMatcher() gitignore.Matcher {
	var patterns []gitignore.Pattern
	if s.useGitignore {
		ps, err := gitignore.ReadPatterns(s.fs, nil)
		if err != nil {
			s.logger.Warn("failed to read .gitignore files", "error", err)
		}
		patterns = append(patterns, ps...)
	}
	for _, p := range s.exclude {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}
	if len(patterns) == 0 {
		return nil
	}
	return gitignore.NewMatcher(patterns)
}

// walk is the state of one traversal.
type walk struct {
	*Scanner
	lines  *lineMatcher
	ignore gitignore.Matcher
	yield  func(model.RawAnnotation, error) bool
}

// dir lists and visits a directory. It returns false when the consumer stopped.
func (w *walk) dir(rel string) bool {
	entries, err := w.fs.ReadDir(rel)
	if err != nil {
		w.logger.Warn("skipping unreadable directory", "path", rel, "error", err)
		return w.yield(model.RawAnnotation{}, model.NewUnreadableFile(rel, err))
	}
	return w.entries(rel, entries)
}

func (w *walk) entries(dir string, entries []os.FileInfo) bool {
	slices.SortFunc(entries, func(a, b os.FileInfo) int {
		return strings.Compare(a.Name(), b.Name())
	})

	for _, e := range entries {
		name := e.Name()
		if name == gitDir {
			continue
		}
		if strings.HasPrefix(name, ".") && !w.includeHidden {
			continue
		}

		rel := path.Join(dir, name)
		if w.ignore != nil && w.ignore.Match(strings.Split(rel, "/"), e.IsDir()) {
			w.logger.Debug("excluded", "path", rel)
			continue
		}

		switch {
		case e.IsDir():
			if !w.dir(rel) {
				return false
			}
		case e.Mode().IsRegular():
			if !w.cfg.MatchesExtension(name) {
				continue
			}
			if !w.file(rel) {
				return false
			}
		default:
			w.logger.Debug("skipping non-regular file", "path", rel, "mode", e.Mode().String())
		}
	}
	return true
}

// file scans one file line by line. It returns false when the consumer stopped.
func (w *walk) file(rel string) bool {
	f, err := w.fs.Open(rel)
	if err != nil {
		w.logger.Warn("skipping unreadable file", "path", rel, "error", err)
		return w.yield(model.RawAnnotation{}, model.NewUnreadableFile(rel, err))
	}
	defer f.Close()

	isBinary, err := binary.IsBinary(f)
	if err != nil {
		w.logger.Warn("skipping unreadable file", "path", rel, "error", err)
		return w.yield(model.RawAnnotation{}, model.NewUnreadableFile(rel, err))
	}
	if isBinary {
		w.logger.Debug("skipping binary file", "path", rel)
		return true
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return w.yield(model.RawAnnotation{}, model.NewUnreadableFile(rel, err))
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if lineNo == 1 {
			line = bytes.TrimPrefix(line, utf8BOM)
		}

		a, ok := w.lines.match(string(line))
		if !ok {
			continue
		}
		a.File = rel
		a.Line = lineNo
		if !w.yield(a, nil) {
			return false
		}
	}
	if err := sc.Err(); err != nil {
		w.logger.Warn("stopped reading file", "path", rel, "line", lineNo+1, "error", err)
		return w.yield(model.RawAnnotation{}, model.NewUnreadableFile(rel, err))
	}
	return true
}
