package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/repolens/repolens/internal/model"
)

// goParser extracts Go declarations with line-oriented lexical matching and
// brace-depth scope tracking. Embedded struct/interface fields are treated
// as the language's inheritance mechanism.
type goParser struct{}

// NewGoParser creates the lexical Go parser.
func NewGoParser() *goParser {
	return &goParser{}
}

func (p *goParser) Languages() []string {
	return []string{"go"}
}

var (
	reGoPackage      = regexp.MustCompile(`^package\s+(\w+)`)
	reGoImportSingle = regexp.MustCompile(`^import\s+(?:\w+\s+|\.\s+|_\s+)?"([^"]+)"`)
	reGoImportInner  = regexp.MustCompile(`^(?:\w+\s+|\.\s+|_\s+)?"([^"]+)"`)
	reGoType         = regexp.MustCompile(`^type\s+(\w+)(?:\[[^\]]*\])?\s+(struct|interface)?`)
	reGoFunc         = regexp.MustCompile(`^func\s+(?:\(\s*\w*\s*\*?(\w+)(?:\[[^\]]*\])?\s*\)\s+)?(\w+)\s*\(`)
	reGoConstVar     = regexp.MustCompile(`^(const|var)\s+(\w+)`)
	reGoEmbedded     = regexp.MustCompile(`^\*?(\w+(?:\.\w+)?)$`)
	reGoStructField  = regexp.MustCompile(`^(\w+)(?:\s*,\s*\w+)*\s+\S`)
	reGoIfaceMethod  = regexp.MustCompile(`^(\w+)\s*\(`)
	reGoIdent        = regexp.MustCompile(`^(\w+)`)
)

func (p *goParser) Extract(ctx context.Context, rec model.FileRecord, content []byte) (*Result, error) {
	res := &Result{Fragment: model.GraphFragment{FilePath: rec.Path}}

	tracker := &scopeTracker{}
	inImportBlock := false
	inDeclBlock := false
	// Embedded-field ordinal per type, to pick the primary Inherits edge.
	embedCount := map[string]int{}

	lines := strings.Split(string(content), "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(stripLineComment(raw))
		if line == "" {
			continue
		}

		topLevel := tracker.depth == 0

		switch {
		case inImportBlock:
			if line == ")" {
				inImportBlock = false
			} else if m := reGoImportInner.FindStringSubmatch(line); m != nil {
				p.addImport(res, rec.Path, m[1], lineNo)
			}

		case inDeclBlock:
			if line == ")" {
				inDeclBlock = false
			} else if m := reGoIdent.FindStringSubmatch(line); m != nil && topLevel {
				res.Symbols = append(res.Symbols, model.Symbol{
					Name: m[1], Kind: model.KindVariable, FilePath: rec.Path, Line: lineNo,
				})
			}

		case topLevel && strings.HasPrefix(line, "package "):
			if m := reGoPackage.FindStringSubmatch(line); m != nil {
				res.Symbols = append(res.Symbols, model.Symbol{
					Name: m[1], Kind: model.KindNamespace, FilePath: rec.Path, Line: lineNo,
				})
			}

		case topLevel && strings.HasPrefix(line, "import"):
			if m := reGoImportSingle.FindStringSubmatch(line); m != nil {
				p.addImport(res, rec.Path, m[1], lineNo)
			} else if strings.Contains(line, "(") {
				inImportBlock = true
			}

		case topLevel && strings.HasPrefix(line, "type "):
			if m := reGoType.FindStringSubmatch(line); m != nil {
				name, typeKind := m[1], m[2]
				kind := model.KindClass
				if typeKind == "interface" {
					kind = model.KindInterface
				}
				res.Symbols = append(res.Symbols, model.Symbol{
					Name: name, Kind: kind, FilePath: rec.Path, Line: lineNo,
				})
				if strings.Contains(line, "{") && !strings.Contains(line, "}") {
					tracker.push(name, typeKind)
				}
			}

		case strings.HasPrefix(line, "func "):
			if m := reGoFunc.FindStringSubmatch(line); m != nil && topLevel {
				receiver, name := m[1], m[2]
				if receiver != "" {
					res.Symbols = append(res.Symbols, model.Symbol{
						Name: name, Kind: model.KindMethod, FilePath: rec.Path, Line: lineNo, Parent: receiver,
					})
				} else {
					res.Symbols = append(res.Symbols, model.Symbol{
						Name: name, Kind: model.KindFunction, FilePath: rec.Path, Line: lineNo,
					})
				}
			}

		case topLevel && (strings.HasPrefix(line, "const") || strings.HasPrefix(line, "var")):
			if m := reGoConstVar.FindStringSubmatch(line); m != nil {
				res.Symbols = append(res.Symbols, model.Symbol{
					Name: m[2], Kind: model.KindVariable, FilePath: rec.Path, Line: lineNo,
				})
			} else if strings.HasSuffix(line, "(") {
				inDeclBlock = true
			}

		default:
			p.extractMember(tracker, line, lineNo, rec.Path, embedCount, res)
		}

		tracker.advance(line)
	}

	return res, nil
}

// extractMember handles lines inside a struct or interface body: embedded
// types become inheritance relations, named fields become properties, and
// interface method signatures become methods.
func (p *goParser) extractMember(tracker *scopeTracker, line string, lineNo int, filePath string, embedCount map[string]int, res *Result) {
	frame := tracker.current()
	if frame.name == "" || tracker.depth != frame.depth+1 {
		return // Not directly inside a tracked type body
	}

	if m := reGoEmbedded.FindStringSubmatch(line); m != nil {
		super := m[1]
		if idx := strings.LastIndex(super, "."); idx != -1 {
			super = super[idx+1:]
		}
		rel := model.RelImplements
		if embedCount[frame.name] == 0 {
			rel = model.RelInherits
		}
		embedCount[frame.name]++
		res.Fragment.Relations = append(res.Fragment.Relations, model.TypeRelation{
			SubType: frame.name, SuperType: super, Relation: rel, Line: lineNo,
		})
		return
	}

	switch frame.kind {
	case "interface":
		if m := reGoIfaceMethod.FindStringSubmatch(line); m != nil {
			res.Symbols = append(res.Symbols, model.Symbol{
				Name: m[1], Kind: model.KindMethod, FilePath: filePath, Line: lineNo, Parent: frame.name,
			})
		}
	case "struct":
		if m := reGoStructField.FindStringSubmatch(line); m != nil {
			res.Symbols = append(res.Symbols, model.Symbol{
				Name: m[1], Kind: model.KindProperty, FilePath: filePath, Line: lineNo, Parent: frame.name,
			})
		}
	}
}

// addImport records an import symbol plus directory-suffix resolution
// candidates. The module prefix of an internal import is unknown to a
// lexical parser, so progressively shorter suffixes are offered and the
// assembler's nearest-path tie-break picks among matches; stdlib and
// third-party paths simply match nothing and stay external.
func (p *goParser) addImport(res *Result, filePath, importPath string, lineNo int) {
	res.Symbols = append(res.Symbols, model.Symbol{
		Name: importPath, Kind: model.KindImport, FilePath: filePath, Line: lineNo,
	})

	segments := strings.Split(importPath, "/")
	var candidates []string
	for i := 0; i < len(segments); i++ {
		candidates = append(candidates, strings.Join(segments[i:], "/"))
	}

	res.Fragment.Imports = append(res.Fragment.Imports, model.ImportRef{
		Specifier:  importPath,
		Candidates: candidates,
		Line:       lineNo,
	})
}
