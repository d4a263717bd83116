// Package extractor is the declaration source: it parses source files
// with tree-sitter and surfaces function, record, and typedef
// declarations for reconciliation.
package extractor

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"

	"declcheck/internal/decl"
)

// LanguageExtractor defines the interface that each language parser must
// implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	GetQuery() string
	ExtractDecls(captureName string, node *sitter.Node, source []byte, filepath string) []decl.Declaration
}

// Extractor orchestrates the extraction process using language-specific
// extractors.
type Extractor struct {
	langExtractor LanguageExtractor
	langName      string
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	var langExt LanguageExtractor
	switch lang {
	case "c":
		langExt = &CExtractor{}
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return &Extractor{langExtractor: langExt, langName: lang}, nil
}

// ExtractFromFile parses a single source file and extracts all observed
// declarations in traversal order.
func (e *Extractor) ExtractFromFile(filepath string) ([]decl.Declaration, error) {
	source, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filepath, err)
	}
	return e.ExtractSource(source, filepath)
}

// ExtractSource parses an in-memory buffer. The filepath is only used
// for locations.
func (e *Extractor) ExtractSource(source []byte, filepath string) ([]decl.Declaration, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(e.langExtractor.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filepath, err)
	}

	query, err := sitter.NewQuery([]byte(e.langExtractor.GetQuery()), e.langExtractor.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}

	qc := sitter.NewQueryCursor()
	qc.Exec(query, tree.RootNode())

	var decls []decl.Declaration
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			captureName := query.CaptureNameForId(c.Index)
			decls = append(decls, e.langExtractor.ExtractDecls(captureName, c.Node, source, filepath)...)
		}
	}

	return decls, nil
}
