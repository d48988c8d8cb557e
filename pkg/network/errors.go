package network

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph construction and lookup.
var (
	ErrEmptyGraph     = errors.New("graph has no nodes")
	ErrInvalidName    = errors.New("invalid node name")
	ErrDuplicateName  = errors.New("duplicate node name")
	ErrUnknownNode    = errors.New("unknown node")
	ErrNodeOutOfRange = errors.New("node index out of range")
	ErrSelfLoop       = errors.New("self loop")
	ErrDuplicateEdge  = errors.New("duplicate edge")
	ErrInvalidCost    = errors.New("edge cost must be finite and positive")
)

// GraphError carries structured detail about a rejected graph definition.
type GraphError struct {
	Op    string // Operation that failed (e.g. "BuildGraph", "ParseFile")
	Field string // Offending element (e.g. "edges[3]", "nodes[1]")
	Cause error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Field, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

func newGraphError(op, field string, cause error) error {
	return &GraphError{Op: op, Field: field, Cause: cause}
}
