package parser

import (
	"context"
	"log"

	"github.com/repolens/repolens/internal/model"
	"github.com/repolens/repolens/internal/scanner"
)

// Result is the output of one parser invocation for one file: the symbols
// declared in the file plus the file's share of the dependency graph.
type Result struct {
	Symbols  []model.Symbol
	Fragment model.GraphFragment
}

// Parser extracts symbols and graph fragments from source of the languages
// it declares. Implementations are independent per language behind this one
// contract; they share no grammar.
type Parser interface {
	// Languages returns the language tags this parser handles.
	Languages() []string

	// Extract parses content and returns symbols and the graph fragment.
	// A file the parser cannot make sense of yields empty results, not an
	// error; errors are reserved for conditions worth logging.
	Extract(ctx context.Context, rec model.FileRecord, content []byte) (*Result, error)
}

// Registry dispatches files to parsers by the record's language tag.
type Registry struct {
	parsers     map[string]Parser
	maxFileSize int64
}

// NewRegistry creates a registry with all built-in parsers registered.
func NewRegistry() *Registry {
	r := &Registry{
		parsers:     make(map[string]Parser),
		maxFileSize: scanner.DefaultMaxFileSize,
	}
	r.Register(NewPythonParser())
	r.Register(NewGoParser())
	r.Register(NewTypeScriptParser())
	r.Register(NewJavaParser())
	return r
}

// Register adds a parser for all languages it declares. Later registrations
// win, which lets callers override a built-in.
func (r *Registry) Register(p Parser) {
	for _, lang := range p.Languages() {
		r.parsers[lang] = p
	}
}

// Supports reports whether a parser is registered for the language tag.
func (r *Registry) Supports(language string) bool {
	_, ok := r.parsers[language]
	return ok
}

// Extract runs the parser for rec's language. Unknown languages return empty
// results. Parser errors and panics are recovered at file granularity: the
// file contributes nothing and the run continues.
func (r *Registry) Extract(ctx context.Context, rec model.FileRecord, content []byte) *Result {
	empty := &Result{Fragment: model.GraphFragment{FilePath: rec.Path}}

	p, ok := r.parsers[rec.Language]
	if !ok {
		return empty
	}

	// Same ceiling as the scanner, re-checked here so a registry fed from
	// another source cannot hand a parser a generated monster.
	if int64(len(content)) > r.maxFileSize {
		return empty
	}

	res := r.safeExtract(ctx, p, rec, content)
	if res == nil {
		return empty
	}
	if res.Fragment.FilePath == "" {
		res.Fragment.FilePath = rec.Path
	}
	return res
}

// safeExtract isolates a parser invocation behind panic recovery.
func (r *Registry) safeExtract(ctx context.Context, p Parser, rec model.FileRecord, content []byte) (res *Result) {
	defer func() {
		if v := recover(); v != nil {
			log.Printf("Warning: parser panic recovered for %s (%s): %v\n", rec.Path, rec.Language, v)
			res = nil
		}
	}()

	res, err := p.Extract(ctx, rec, content)
	if err != nil {
		log.Printf("Warning: failed to parse %s (%s): %v\n", rec.Path, rec.Language, err)
		return nil
	}
	return res
}
