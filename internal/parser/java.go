package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/repolens/repolens/internal/model"
)

// javaParser extracts Java declarations lexically. Imports resolve by the
// dotted package path; the assembler's suffix matching absorbs source-root
// prefixes like src/main/java.
type javaParser struct{}

// NewJavaParser creates the lexical Java parser.
func NewJavaParser() *javaParser {
	return &javaParser{}
}

func (p *javaParser) Languages() []string {
	return []string{"java"}
}

var (
	reJavaPackage = regexp.MustCompile(`^package\s+([\w.]+)\s*;`)
	reJavaImport  = regexp.MustCompile(`^import\s+(?:static\s+)?([\w.]+(?:\.\*)?)\s*;`)
	reJavaType    = regexp.MustCompile(`^(?:public\s+|protected\s+|private\s+|abstract\s+|final\s+|static\s+|sealed\s+)*(class|interface|enum|record)\s+(\w+)(?:<[^>]*>)?(?:\([^)]*\))?(?:\s+extends\s+([\w.,\s<>]+?))?(?:\s+implements\s+([\w.,\s<>]+?))?\s*\{`)
	reJavaMethod  = regexp.MustCompile(`^(?:public\s+|protected\s+|private\s+|abstract\s+|final\s+|static\s+|synchronized\s+|native\s+|default\s+)*(?:<[^>]*>\s+)?[\w.<>\[\],\s]+\s+(\w+)\s*\([^;]*(?:\{|;)?\s*$`)
	reJavaField   = regexp.MustCompile(`^(?:public\s+|protected\s+|private\s+|final\s+|static\s+|volatile\s+|transient\s+)*[\w.<>\[\],\s]+\s+(\w+)\s*(?:=[^;]*)?;`)
)

// javaControl filters control-flow statements the member patterns would
// otherwise match.
var javaControl = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "throw": true, "else": true, "do": true, "try": true,
	"new": true, "super": true, "this": true,
}

func (p *javaParser) Extract(ctx context.Context, rec model.FileRecord, content []byte) (*Result, error) {
	res := &Result{Fragment: model.GraphFragment{FilePath: rec.Path}}
	tracker := &scopeTracker{}

	lines := strings.Split(string(content), "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(stripLineComment(raw))
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "/*") || strings.HasPrefix(line, "@") {
			continue
		}

		if m := reJavaPackage.FindStringSubmatch(line); m != nil {
			res.Symbols = append(res.Symbols, model.Symbol{
				Name: m[1], Kind: model.KindNamespace, FilePath: rec.Path, Line: lineNo,
			})
		} else if m := reJavaImport.FindStringSubmatch(line); m != nil {
			p.addImport(res, rec.Path, m[1], lineNo)
		} else if m := reJavaType.FindStringSubmatch(line); m != nil {
			p.addType(res, tracker, rec.Path, m, lineNo)
		} else {
			p.extractMember(tracker, line, lineNo, rec.Path, res)
		}

		tracker.advance(line)
	}

	return res, nil
}

func (p *javaParser) addImport(res *Result, filePath, spec string, lineNo int) {
	res.Symbols = append(res.Symbols, model.Symbol{
		Name: spec, Kind: model.KindImport, FilePath: filePath, Line: lineNo,
	})

	// Wildcard imports name a package, not a type; they cannot resolve to
	// a single file and are recorded as external.
	var candidates []string
	if !strings.HasSuffix(spec, ".*") {
		candidates = dottedCandidates(spec, []string{".java"}, nil)
	}

	res.Fragment.Imports = append(res.Fragment.Imports, model.ImportRef{
		Specifier:  spec,
		Candidates: candidates,
		Line:       lineNo,
	})
}

// addType records a class/interface/enum/record declaration with its
// extends and implements clauses.
func (p *javaParser) addType(res *Result, tracker *scopeTracker, filePath string, m []string, lineNo int) {
	typeKind, name, extends, implements := m[1], m[2], m[3], m[4]

	symKind := model.KindClass
	if typeKind == "interface" {
		symKind = model.KindInterface
	}
	res.Symbols = append(res.Symbols, model.Symbol{
		Name: name, Kind: symKind, FilePath: filePath, Line: lineNo,
	})
	tracker.push(name, typeKind)

	for i, base := range splitTypeList(extends) {
		rel := model.RelInherits
		// An interface may extend several interfaces; only the first is the
		// primary base.
		if i > 0 {
			rel = model.RelImplements
		}
		res.Fragment.Relations = append(res.Fragment.Relations, model.TypeRelation{
			SubType: name, SuperType: base, Relation: rel, Line: lineNo,
		})
	}
	for _, iface := range splitTypeList(implements) {
		res.Fragment.Relations = append(res.Fragment.Relations, model.TypeRelation{
			SubType: name, SuperType: iface, Relation: model.RelImplements, Line: lineNo,
		})
	}
}

// extractMember extracts methods and fields directly inside a type body.
func (p *javaParser) extractMember(tracker *scopeTracker, line string, lineNo int, filePath string, res *Result) {
	frame := tracker.current()
	if frame.name == "" || tracker.depth != frame.depth+1 {
		return
	}

	first := line
	if idx := strings.IndexAny(first, " \t("); idx != -1 {
		first = first[:idx]
	}
	if javaControl[first] {
		return
	}

	if strings.Contains(line, "(") {
		if m := reJavaMethod.FindStringSubmatch(line); m != nil && !javaControl[m[1]] {
			res.Symbols = append(res.Symbols, model.Symbol{
				Name: m[1], Kind: model.KindMethod, FilePath: filePath, Line: lineNo, Parent: frame.name,
			})
		}
		return
	}
	if m := reJavaField.FindStringSubmatch(line); m != nil && !javaControl[m[1]] {
		res.Symbols = append(res.Symbols, model.Symbol{
			Name: m[1], Kind: model.KindProperty, FilePath: filePath, Line: lineNo, Parent: frame.name,
		})
	}
}
