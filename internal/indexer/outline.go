package indexer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pkorolev/reposage/pkg/treesitter"
)

// OutlineExtractor produces a flat declaration outline of a source file
// (functions, methods, classes/types) used to enrich index records and
// grounding prompts. It is best-effort: files that fail to parse get an
// empty outline.
type OutlineExtractor struct {
	mu     sync.Mutex // the underlying parser is not safe for concurrent use
	parser *treesitter.Parser
}

func NewOutlineExtractor() *OutlineExtractor {
	return &OutlineExtractor{parser: treesitter.NewParser()}
}

func (e *OutlineExtractor) Close() {
	e.parser.Close()
}

// Declaration node types per language, each carrying a "name" field.
var declarationTypes = map[string]map[string]string{
	"go": {
		"function_declaration": "func",
		"method_declaration":   "method",
		"type_declaration":     "type",
	},
	"python": {
		"function_definition": "def",
		"class_definition":    "class",
	},
	"typescript": {
		"function_declaration":  "function",
		"class_declaration":     "class",
		"interface_declaration": "interface",
	},
	"javascript": {
		"function_declaration": "function",
		"class_declaration":    "class",
	},
	"java": {
		"method_declaration": "method",
		"class_declaration":  "class",
	},
}

// Extract returns one line per top-level declaration, in source order.
func (e *OutlineExtractor) Extract(ctx context.Context, content []byte, language string) (string, error) {
	kinds, ok := declarationTypes[language]
	if !ok {
		return "", fmt.Errorf("unsupported language: %s", language)
	}

	e.mu.Lock()
	tree, err := e.parser.Parse(ctx, content, language)
	e.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("failed to parse code: %w", err)
	}
	defer tree.Close()

	var lines []string
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if kind, ok := kinds[node.Type()]; ok {
			if name := declarationName(node, content); name != "" {
				lines = append(lines, kind+" "+name)
			}
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if child := node.NamedChild(i); child != nil {
				walk(child)
			}
		}
	}
	walk(tree.RootNode())

	return strings.Join(lines, "\n"), nil
}

func declarationName(node *sitter.Node, content []byte) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return nameNode.Content(content)
	}
	// Go type_declaration nests the name inside a type_spec.
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Type() == "type_spec" {
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				return nameNode.Content(content)
			}
		}
	}
	return ""
}
