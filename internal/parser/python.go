package parser

import (
	"context"
	"fmt"
	"path"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/repolens/repolens/internal/model"
)

// pythonParser is the one full-syntax-tree parser: Python has a mature
// tree-sitter front-end, so declarations, scope and bases come from a real
// parse instead of lexical matching.
type pythonParser struct {
	language *sitter.Language
}

// NewPythonParser creates the tree-sitter backed Python parser.
func NewPythonParser() *pythonParser {
	return &pythonParser{language: sitter.NewLanguage(python.Language())}
}

func (p *pythonParser) Languages() []string {
	return []string{"python"}
}

// Extract parses a Python source file and extracts classes, functions,
// methods, module-level bindings and imports.
func (p *pythonParser) Extract(ctx context.Context, rec model.FileRecord, content []byte) (*Result, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(p.language)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter produced no tree for %s", rec.Path)
	}
	defer tree.Close()

	res := &Result{Fragment: model.GraphFragment{FilePath: rec.Path}}
	p.extractModule(tree.RootNode(), content, rec.Path, res)
	return res, nil
}

// extractModule walks the module's top level. Nested defs inside function
// bodies are deliberately not extracted.
func (p *pythonParser) extractModule(root *sitter.Node, source []byte, filePath string, res *Result) {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(uint(i))
		switch child.Kind() {
		case "import_statement", "import_from_statement":
			p.extractImport(child, source, filePath, res)
		case "class_definition":
			p.extractClass(child, source, filePath, res)
		case "function_definition", "decorated_definition":
			def := child
			if child.Kind() == "decorated_definition" {
				if inner := def.ChildByFieldName("definition"); inner != nil {
					def = inner
				}
			}
			switch def.Kind() {
			case "function_definition":
				p.extractFunction(def, source, filePath, "", res)
			case "class_definition":
				p.extractClass(def, source, filePath, res)
			}
		case "expression_statement":
			p.extractAssignment(child, source, filePath, "", res)
		}
	}
}

// extractImport records the import symbol and its resolution candidates.
func (p *pythonParser) extractImport(node *sitter.Node, source []byte, filePath string, res *Result) {
	line := int(node.StartPosition().Row) + 1

	var specs []string
	switch node.Kind() {
	case "import_statement":
		// import a.b, c.d as e
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(uint(i))
			switch child.Kind() {
			case "dotted_name":
				specs = append(specs, nodeText(child, source))
			case "aliased_import":
				if name := child.ChildByFieldName("name"); name != nil {
					specs = append(specs, nodeText(name, source))
				}
			}
		}
	case "import_from_statement":
		// from a.b import c / from . import d
		if mod := node.ChildByFieldName("module_name"); mod != nil {
			specs = append(specs, nodeText(mod, source))
		}
	}

	for _, spec := range specs {
		res.Symbols = append(res.Symbols, model.Symbol{
			Name:     spec,
			Kind:     model.KindImport,
			FilePath: filePath,
			Line:     line,
		})
		res.Fragment.Imports = append(res.Fragment.Imports, model.ImportRef{
			Specifier:  spec,
			Candidates: pythonCandidates(filePath, spec),
			Line:       line,
		})
	}
}

// pythonCandidates resolves a (possibly relative) Python module specifier
// into repo-relative candidate paths.
func pythonCandidates(importerPath, spec string) []string {
	if spec == "" {
		return nil
	}

	if spec[0] == '.' {
		// Relative import: one dot is the importing package, each further
		// dot ascends one level.
		dots := 0
		for dots < len(spec) && spec[dots] == '.' {
			dots++
		}
		rest := strings.ReplaceAll(spec[dots:], ".", "/")

		dir := path.Dir(importerPath)
		for i := 1; i < dots; i++ {
			dir = path.Dir(dir)
		}

		base := path.Clean(path.Join(dir, rest))
		if strings.HasPrefix(base, "..") {
			return nil
		}
		if base == "." {
			return []string{"__init__.py"}
		}
		return []string{base + ".py", base + "/__init__.py"}
	}

	return dottedCandidates(spec, []string{".py"}, []string{"__init__.py"})
}

// extractClass extracts a class, its bases, and its members.
func (p *pythonParser) extractClass(node *sitter.Node, source []byte, filePath string, res *Result) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	className := nodeText(nameNode, source)
	line := int(node.StartPosition().Row) + 1

	res.Symbols = append(res.Symbols, model.Symbol{
		Name:     className,
		Kind:     model.KindClass,
		FilePath: filePath,
		Line:     line,
	})

	// Base list: first base is the primary Inherits relation, the rest are
	// treated as Implements conformances.
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		position := 0
		for i := 0; i < int(supers.ChildCount()); i++ {
			arg := supers.Child(uint(i))
			kind := arg.Kind()
			if kind != "identifier" && kind != "attribute" {
				continue
			}
			base := nodeText(arg, source)
			// For dotted bases (mod.Class) the unqualified name is what a
			// repo-internal declaration would carry.
			if idx := strings.LastIndex(base, "."); idx != -1 {
				base = base[idx+1:]
			}
			rel := model.RelImplements
			if position == 0 {
				rel = model.RelInherits
			}
			res.Fragment.Relations = append(res.Fragment.Relations, model.TypeRelation{
				SubType:   className,
				SuperType: base,
				Relation:  rel,
				Line:      line,
			})
			position++
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(uint(i))
		switch child.Kind() {
		case "function_definition":
			p.extractFunction(child, source, filePath, className, res)
		case "decorated_definition":
			if inner := child.ChildByFieldName("definition"); inner != nil && inner.Kind() == "function_definition" {
				p.extractFunction(inner, source, filePath, className, res)
			}
		case "expression_statement":
			p.extractAssignment(child, source, filePath, className, res)
		}
	}
}

// extractFunction extracts a function or, when parent is set, a method.
func (p *pythonParser) extractFunction(node *sitter.Node, source []byte, filePath, parent string, res *Result) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	kind := model.KindFunction
	if parent != "" {
		kind = model.KindMethod
	}

	res.Symbols = append(res.Symbols, model.Symbol{
		Name:     nodeText(nameNode, source),
		Kind:     kind,
		FilePath: filePath,
		Line:     int(node.StartPosition().Row) + 1,
		Parent:   parent,
	})
}

// extractAssignment extracts a module-level variable or a class attribute.
func (p *pythonParser) extractAssignment(stmt *sitter.Node, source []byte, filePath, parent string, res *Result) {
	if stmt.ChildCount() == 0 {
		return
	}
	assign := stmt.Child(0)
	if assign == nil || assign.Kind() != "assignment" {
		return
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}

	kind := model.KindVariable
	if parent != "" {
		kind = model.KindProperty
	}

	res.Symbols = append(res.Symbols, model.Symbol{
		Name:     nodeText(left, source),
		Kind:     kind,
		FilePath: filePath,
		Line:     int(assign.StartPosition().Row) + 1,
		Parent:   parent,
	})
}

// nodeText extracts the text content of a tree-sitter node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}
