package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/repolens/repolens/internal/model"
)

// typeScriptParser covers TypeScript and JavaScript with line-oriented
// lexical matching. Path-based imports resolve relative to the importing
// file; bare package specifiers are external by definition.
type typeScriptParser struct{}

// NewTypeScriptParser creates the lexical TypeScript/JavaScript parser.
func NewTypeScriptParser() *typeScriptParser {
	return &typeScriptParser{}
}

func (p *typeScriptParser) Languages() []string {
	return []string{"typescript", "javascript"}
}

var (
	reTSImport     = regexp.MustCompile(`^import\b[^'"]*['"]([^'"]+)['"]`)
	reTSExportFrom = regexp.MustCompile(`^export\b.*\bfrom\s*['"]([^'"]+)['"]`)
	reTSRequire    = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	reTSClass     = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(\w+)(?:<[^>]*>)?(?:\s+extends\s+([\w.]+)(?:<[^>]*>)?)?(?:\s+implements\s+([\w.,\s<>]+?))?\s*\{`)
	reTSInterface = regexp.MustCompile(`^(?:export\s+)?interface\s+(\w+)(?:<[^>]*>)?(?:\s+extends\s+([\w.,\s<>]+?))?\s*\{`)
	reTSFunction  = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*[(<]`)
	reTSArrowFn   = regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+(\w+)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:\([^)]*\)|\w+)\s*(?::[^=]+)?=>`)
	reTSVariable  = regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+(\w+)`)
	reTSNamespace = regexp.MustCompile(`^(?:export\s+)?(?:namespace|module)\s+([\w.]+)\s*\{`)
	reTSMethod    = regexp.MustCompile(`^(?:public\s+|private\s+|protected\s+|static\s+|readonly\s+|async\s+|get\s+|set\s+)*(\w+)\s*(?:<[^>]*>)?\(`)
	reTSProperty  = regexp.MustCompile(`^(?:public\s+|private\s+|protected\s+|static\s+|readonly\s+)*(\w+)\s*[:=]`)
)

// tsKeywords are control-flow tokens the method pattern would otherwise
// misread as member names.
var tsKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "new": true, "typeof": true,
}

var tsExtensions = []string{".ts", ".tsx", ".js", ".jsx"}
var tsIndexNames = []string{"index.ts", "index.tsx", "index.js", "index.jsx"}

func (p *typeScriptParser) Extract(ctx context.Context, rec model.FileRecord, content []byte) (*Result, error) {
	res := &Result{Fragment: model.GraphFragment{FilePath: rec.Path}}
	tracker := &scopeTracker{}

	lines := strings.Split(string(content), "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(stripLineComment(raw))
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "/*") {
			continue
		}

		topLevel := tracker.atTopLevel()

		if spec := matchTSImport(line); spec != "" {
			p.addImport(res, rec.Path, spec, lineNo)
		} else if m := reTSInterface.FindStringSubmatch(line); m != nil && topLevel {
			p.addType(res, tracker, rec.Path, m[1], "interface", lineNo)
			p.addBases(res, rec.Path, m[1], m[2], "", lineNo)
		} else if m := reTSClass.FindStringSubmatch(line); m != nil && topLevel {
			p.addType(res, tracker, rec.Path, m[1], "class", lineNo)
			p.addBases(res, rec.Path, m[1], m[2], m[3], lineNo)
		} else if m := reTSNamespace.FindStringSubmatch(line); m != nil && topLevel {
			res.Symbols = append(res.Symbols, model.Symbol{
				Name: m[1], Kind: model.KindNamespace, FilePath: rec.Path, Line: lineNo,
			})
		} else if m := reTSFunction.FindStringSubmatch(line); m != nil && topLevel {
			res.Symbols = append(res.Symbols, model.Symbol{
				Name: m[1], Kind: model.KindFunction, FilePath: rec.Path, Line: lineNo,
			})
		} else if m := reTSArrowFn.FindStringSubmatch(line); m != nil && topLevel {
			res.Symbols = append(res.Symbols, model.Symbol{
				Name: m[1], Kind: model.KindFunction, FilePath: rec.Path, Line: lineNo,
			})
		} else if m := reTSVariable.FindStringSubmatch(line); m != nil && topLevel {
			res.Symbols = append(res.Symbols, model.Symbol{
				Name: m[1], Kind: model.KindVariable, FilePath: rec.Path, Line: lineNo,
			})
		} else if !topLevel {
			p.extractMember(tracker, line, lineNo, rec.Path, res)
		}

		tracker.advance(line)
	}

	return res, nil
}

// matchTSImport returns the import specifier on this line, or "".
func matchTSImport(line string) string {
	if m := reTSImport.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := reTSExportFrom.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := reTSRequire.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

func (p *typeScriptParser) addImport(res *Result, filePath, spec string, lineNo int) {
	res.Symbols = append(res.Symbols, model.Symbol{
		Name: spec, Kind: model.KindImport, FilePath: filePath, Line: lineNo,
	})

	var candidates []string
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
		candidates = relativeCandidates(filePath, spec, tsExtensions, tsIndexNames)
	}

	res.Fragment.Imports = append(res.Fragment.Imports, model.ImportRef{
		Specifier:  spec,
		Candidates: candidates,
		Line:       lineNo,
	})
}

func (p *typeScriptParser) addType(res *Result, tracker *scopeTracker, filePath, name, kind string, lineNo int) {
	symKind := model.KindClass
	if kind == "interface" {
		symKind = model.KindInterface
	}
	res.Symbols = append(res.Symbols, model.Symbol{
		Name: name, Kind: symKind, FilePath: filePath, Line: lineNo,
	})
	tracker.push(name, kind)
}

// addBases records extends as the primary Inherits relation and every
// implements clause entry as Implements.
func (p *typeScriptParser) addBases(res *Result, filePath, name, extends, implements string, lineNo int) {
	if extends != "" {
		for i, base := range splitTypeList(extends) {
			rel := model.RelInherits
			if i > 0 {
				rel = model.RelImplements
			}
			res.Fragment.Relations = append(res.Fragment.Relations, model.TypeRelation{
				SubType: name, SuperType: base, Relation: rel, Line: lineNo,
			})
		}
	}
	for _, iface := range splitTypeList(implements) {
		res.Fragment.Relations = append(res.Fragment.Relations, model.TypeRelation{
			SubType: name, SuperType: iface, Relation: model.RelImplements, Line: lineNo,
		})
	}
}

// extractMember extracts methods and properties directly inside a class or
// interface body.
func (p *typeScriptParser) extractMember(tracker *scopeTracker, line string, lineNo int, filePath string, res *Result) {
	frame := tracker.current()
	if frame.name == "" || tracker.depth != frame.depth+1 {
		return
	}

	if m := reTSMethod.FindStringSubmatch(line); m != nil {
		if tsKeywords[m[1]] {
			return
		}
		res.Symbols = append(res.Symbols, model.Symbol{
			Name: m[1], Kind: model.KindMethod, FilePath: filePath, Line: lineNo, Parent: frame.name,
		})
		return
	}
	if m := reTSProperty.FindStringSubmatch(line); m != nil {
		res.Symbols = append(res.Symbols, model.Symbol{
			Name: m[1], Kind: model.KindProperty, FilePath: filePath, Line: lineNo, Parent: frame.name,
		})
	}
}

// splitTypeList splits "A, B<T>, c.D" into bare type names.
func splitTypeList(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	var names []string
	for _, part := range strings.Split(list, ",") {
		name := strings.TrimSpace(part)
		if idx := strings.Index(name, "<"); idx != -1 {
			name = name[:idx]
		}
		if idx := strings.LastIndex(name, "."); idx != -1 {
			name = name[idx+1:]
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
