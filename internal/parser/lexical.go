package parser

import (
	"path"
	"strings"
)

// scopeTracker attributes members to their enclosing type by tracking brace
// depth through a line-oriented scan. Lexical parsers push a scope when a
// type declaration opens a block and pop it when the matching brace closes.
type scopeTracker struct {
	depth  int
	scopes []scopeFrame
}

type scopeFrame struct {
	name  string
	kind  string // Declaring construct: "class", "interface", "struct", …
	depth int    // Brace depth at which the scope's block was opened
}

// advance updates the brace depth with one source line, popping any scopes
// whose block closed on this line. String and comment stripping is the
// caller's job.
func (t *scopeTracker) advance(line string) {
	for _, ch := range line {
		switch ch {
		case '{':
			t.depth++
		case '}':
			t.depth--
			for len(t.scopes) > 0 && t.depth <= t.scopes[len(t.scopes)-1].depth {
				t.scopes = t.scopes[:len(t.scopes)-1]
			}
		}
	}
}

// push opens a named scope at the current depth. Call before advance() on
// the declaring line so the scope survives the line's own opening brace.
func (t *scopeTracker) push(name, kind string) {
	t.scopes = append(t.scopes, scopeFrame{name: name, kind: kind, depth: t.depth})
}

// current returns the innermost enclosing scope, or a zero frame.
func (t *scopeTracker) current() scopeFrame {
	if len(t.scopes) == 0 {
		return scopeFrame{}
	}
	return t.scopes[len(t.scopes)-1]
}

// atTopLevel reports whether the scan is outside any tracked scope.
func (t *scopeTracker) atTopLevel() bool {
	return len(t.scopes) == 0
}

// stripLineComment removes a trailing // comment, ignoring occurrences
// inside string literals. Good enough for line-oriented extraction.
func stripLineComment(line string) string {
	inString := byte(0)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inString != 0:
			if c == '\\' {
				i++
			} else if c == inString {
				inString = 0
			}
		case c == '"' || c == '\'' || c == '`':
			inString = c
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		}
	}
	return line
}

// relativeCandidates resolves a relative import specifier against the
// importing file's directory and returns repo-relative candidate paths with
// each extension (and index-file variant) applied.
func relativeCandidates(importerPath, spec string, exts []string, indexNames []string) []string {
	base := path.Join(path.Dir(importerPath), spec)
	base = path.Clean(base)
	if base == "." || strings.HasPrefix(base, "..") {
		return nil // Escapes the repository: external
	}

	var candidates []string
	if path.Ext(base) != "" {
		candidates = append(candidates, base)
	}
	for _, ext := range exts {
		candidates = append(candidates, base+ext)
	}
	for _, idx := range indexNames {
		candidates = append(candidates, base+"/"+idx)
	}
	return candidates
}

// dottedCandidates converts a dotted package specifier (a.b.c) into slash
// path candidates with each extension applied. The assembler matches these
// as path suffixes, so source-root prefixes (src/, lib/) need no handling
// here.
func dottedCandidates(spec string, exts []string, indexNames []string) []string {
	base := strings.ReplaceAll(spec, ".", "/")
	if base == "" {
		return nil
	}

	var candidates []string
	for _, ext := range exts {
		candidates = append(candidates, base+ext)
	}
	for _, idx := range indexNames {
		candidates = append(candidates, base+"/"+idx)
	}
	return candidates
}
