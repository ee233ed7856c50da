package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrGraphNotLoaded is returned when a move is requested before any workflow was loaded.
	ErrGraphNotLoaded = errors.New("graph not loaded: call load_graph first")

	// ErrParse matches every *ParseError.
	ErrParse = errors.New("parse error")

	// ErrInvalidMove matches *UnknownNodeError and *IllegalTransitionError.
	ErrInvalidMove = errors.New("invalid move")

	// ErrInvalidTask is returned when a task list fails validation.
	ErrInvalidTask = errors.New("invalid task")

	// ErrSourceNotFound is returned when a workflow reference cannot be resolved.
	ErrSourceNotFound = errors.New("workflow source not found")
)

// ParseError reports malformed workflow source. Line and Column are 1-based;
// zero means the position is unknown.
type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	default:
		return e.Msg
	}
}

func (e *ParseError) Unwrap() error { return ErrParse }

// UnknownNodeError is returned when the target does not exist in the graph.
type UnknownNodeError struct {
	Node      string
	Current   string
	LegalNext []string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("node %q not found; valid next nodes: %s", e.Node, formatIDs(e.LegalNext))
}

func (e *UnknownNodeError) Unwrap() error { return ErrInvalidMove }

// IllegalTransitionError is returned when the target is not adjacent to the current node.
type IllegalTransitionError struct {
	From      string
	To        string
	LegalNext []string
}

func (e *IllegalTransitionError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("initial transition must be to %s, not %q", formatIDs(e.LegalNext), e.To)
	}
	return fmt.Sprintf("cannot reach %q from %q; valid next nodes: %s", e.To, e.From, formatIDs(e.LegalNext))
}

func (e *IllegalTransitionError) Unwrap() error { return ErrInvalidMove }

func formatIDs(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}
