package graphql

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// DefaultMaxDepth bounds selection nesting. The deepest legitimate query is
// disrupt { snapshot { lastIteration { ... } } }.
const DefaultMaxDepth = 6

// ValidateQueryDepth parses query and rejects it when its selection sets nest
// deeper than maxDepth. Parse errors are left for execution to report.
func ValidateQueryDepth(query string, maxDepth int) (int, error) {
	doc, err := parser.Parse(parser.ParseParams{
		Source: query,
	})
	if err != nil {
		return 0, nil
	}
	depth := calculateQueryDepth(doc)
	if depth > maxDepth {
		return depth, fmt.Errorf("query depth %d exceeds maximum allowed depth of %d", depth, maxDepth)
	}
	return depth, nil
}

// calculateQueryDepth calculates the maximum depth of a GraphQL query
func calculateQueryDepth(document *ast.Document) int {
	fragments := make(map[string]*ast.FragmentDefinition)
	for _, definition := range document.Definitions {
		if frag, ok := definition.(*ast.FragmentDefinition); ok {
			fragments[frag.Name.Value] = frag
		}
	}

	maxDepth := 0
	for _, definition := range document.Definitions {
		if op, ok := definition.(*ast.OperationDefinition); ok {
			depth := selectionSetDepth(op.SelectionSet, 1, fragments, map[string]bool{})
			if depth > maxDepth {
				maxDepth = depth
			}
		}
	}
	return maxDepth
}

// selectionSetDepth recursively calculates the depth of a selection set.
// Fragment spreads are expanded; a fragment already on the current path
// stops the recursion.
func selectionSetDepth(set *ast.SelectionSet, current int, fragments map[string]*ast.FragmentDefinition, onPath map[string]bool) int {
	if set == nil || len(set.Selections) == 0 {
		return current
	}

	maxDepth := current
	for _, selection := range set.Selections {
		depth := current
		switch sel := selection.(type) {
		case *ast.Field:
			if strings.HasPrefix(sel.Name.Value, "__") || sel.SelectionSet == nil {
				continue
			}
			depth = selectionSetDepth(sel.SelectionSet, current+1, fragments, onPath)
		case *ast.InlineFragment:
			depth = selectionSetDepth(sel.SelectionSet, current, fragments, onPath)
		case *ast.FragmentSpread:
			name := sel.Name.Value
			frag, ok := fragments[name]
			if !ok || onPath[name] {
				continue
			}
			onPath[name] = true
			depth = selectionSetDepth(frag.SelectionSet, current, fragments, onPath)
			delete(onPath, name)
		}
		if depth > maxDepth {
			maxDepth = depth
		}
	}
	return maxDepth
}
