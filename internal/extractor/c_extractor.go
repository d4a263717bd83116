package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"declcheck/internal/decl"
	"declcheck/internal/typeexpr"
)

// CExtractor implements LanguageExtractor for C.
type CExtractor struct{}

func (e *CExtractor) GetLanguage() *sitter.Language {
	return c.GetLanguage()
}

func (e *CExtractor) GetQuery() string {
	return `
		(function_definition) @func
		(declaration) @proto
		(struct_specifier) @struct
		(type_definition) @typedef
	`
}

func (e *CExtractor) ExtractDecls(captureName string, node *sitter.Node, source []byte, filepath string) []decl.Declaration {
	var d *decl.Declaration
	switch captureName {
	case "func", "proto":
		d = e.extractFunction(node, source, filepath)
	case "struct":
		d = e.extractStruct(node, source, filepath)
	case "typedef":
		d = e.extractTypedef(node, source, filepath)
	}
	if d == nil {
		return nil
	}
	return []decl.Declaration{*d}
}

// extractFunction handles both function definitions and prototypes
// (declarations whose declarator is a function declarator). Function
// pointer declarations are not functions and are skipped.
func (e *CExtractor) extractFunction(node *sitter.Node, source []byte, filepath string) *decl.Declaration {
	typeNode := node.ChildByFieldName("type")
	declarator := node.ChildByFieldName("declarator")
	if typeNode == nil || declarator == nil {
		return nil
	}

	// Pointer return types wrap the function declarator:
	// "int **f(void)" is pointer(pointer(function_declarator)).
	retPointers, fnDecl := unwrapPointers(declarator)
	if fnDecl == nil || fnDecl.Type() != "function_declarator" {
		return nil
	}
	nameNode := fnDecl.ChildByFieldName("declarator")
	if nameNode == nil || nameNode.Type() != "identifier" {
		return nil
	}

	retBase := baseTypeName(typeNode, source)
	if retBase == "" {
		return nil
	}

	params := e.paramTypes(fnDecl.ChildByFieldName("parameters"), source)

	return &decl.Declaration{
		Name: nameNode.Content(source),
		Kind: decl.KindFunction,
		Sig: decl.FuncSig{
			Params: decl.CountTypes(params),
			Return: typeexpr.Render(retBase, retPointers),
		},
		Loc: location(nameNode, filepath),
	}
}

// paramTypes renders the multiset keys for a parameter list. A lone
// "void" parameter means no parameters.
func (e *CExtractor) paramTypes(list *sitter.Node, source []byte) []string {
	if list == nil {
		return nil
	}

	var types []string
	for i := 0; i < int(list.NamedChildCount()); i++ {
		param := list.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		typeNode := param.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		base := baseTypeName(typeNode, source)
		if base == "" {
			continue
		}
		pointers, _ := unwrapPointers(param.ChildByFieldName("declarator"))
		types = append(types, typeexpr.Render(base, pointers))
	}

	if len(types) == 1 && types[0] == "void" {
		return nil
	}
	return types
}

// extractStruct handles named struct definitions. References without a
// body and anonymous definitions are skipped; an anonymous struct only
// becomes observable through a typedef alias.
func (e *CExtractor) extractStruct(node *sitter.Node, source []byte, filepath string) *decl.Declaration {
	nameNode := node.ChildByFieldName("name")
	body := node.ChildByFieldName("body")
	if nameNode == nil || body == nil {
		return nil
	}

	return &decl.Declaration{
		Name:   nameNode.Content(source),
		Kind:   decl.KindRecord,
		Fields: decl.CountTypes(e.fieldTypes(body, source)),
		Loc:    location(nameNode, filepath),
	}
}

// extractTypedef surfaces a typedef of a struct definition as a record
// carrying the typedef's own identifier, so that specs can reference the
// alias even when the underlying struct is anonymous.
func (e *CExtractor) extractTypedef(node *sitter.Node, source []byte, filepath string) *decl.Declaration {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil || typeNode.Type() != "struct_specifier" {
		return nil
	}
	body := typeNode.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	pointers, nameNode := unwrapPointers(node.ChildByFieldName("declarator"))
	if pointers > 0 || nameNode == nil || nameNode.Type() != "type_identifier" {
		// "typedef struct {...} *P;" aliases a pointer, not a record.
		return nil
	}

	return &decl.Declaration{
		Name:   nameNode.Content(source),
		Kind:   decl.KindRecord,
		Fields: decl.CountTypes(e.fieldTypes(body, source)),
		Loc:    location(nameNode, filepath),
	}
}

// fieldTypes renders the multiset keys for a struct body. A declaration
// like "int *a, b;" contributes "int *" and "int".
func (e *CExtractor) fieldTypes(body *sitter.Node, source []byte) []string {
	var types []string
	for i := 0; i < int(body.NamedChildCount()); i++ {
		field := body.NamedChild(i)
		if field.Type() != "field_declaration" {
			continue
		}
		typeNode := field.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		base := baseTypeName(typeNode, source)
		if base == "" {
			continue
		}

		for j := 0; j < int(field.NamedChildCount()); j++ {
			child := field.NamedChild(j)
			if child.StartByte() == typeNode.StartByte() && child.EndByte() == typeNode.EndByte() {
				continue
			}
			pointers, inner := unwrapPointers(child)
			for inner != nil && inner.Type() == "array_declarator" {
				inner = inner.ChildByFieldName("declarator")
			}
			if inner != nil && inner.Type() == "field_identifier" {
				types = append(types, typeexpr.Render(base, pointers))
			}
		}
	}
	return types
}

// unwrapPointers counts pointer declarator nesting and returns the inner
// declarator, which is nil for fully abstract declarators.
func unwrapPointers(n *sitter.Node) (int, *sitter.Node) {
	depth := 0
	for n != nil && (n.Type() == "pointer_declarator" || n.Type() == "abstract_pointer_declarator") {
		depth++
		n = n.ChildByFieldName("declarator")
	}
	return depth, n
}

// baseTypeName renders a type node as the base identifier of a multiset
// key. Struct/union/enum types use their tag name, matching the
// "struct " prefix normalization of the type-expression grammar.
func baseTypeName(node *sitter.Node, source []byte) string {
	switch node.Type() {
	case "struct_specifier", "union_specifier", "enum_specifier":
		name := node.ChildByFieldName("name")
		if name == nil {
			return ""
		}
		return name.Content(source)
	default:
		return node.Content(source)
	}
}

func location(node *sitter.Node, filepath string) decl.Location {
	return decl.Location{
		File:   filepath,
		Line:   int(node.StartPoint().Row) + 1,
		Column: int(node.StartPoint().Column) + 1,
	}
}
