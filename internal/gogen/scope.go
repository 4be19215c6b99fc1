package gogen

import (
	"fmt"
	"maps"
	"strings"
)

// Scope hands out temporary variable names for one generated body. The first
// request for a prefix returns the prefix itself; later ones append _1, _2,
// and so on, so names never collide within a scope.
//
// Prefixes must start with an underscore to stay clear of user identifiers.
// A Scope is owned by a single generation pass and is not safe for
// concurrent use.
type Scope struct {
	tmpVarIndices map[string]int
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{tmpVarIndices: make(map[string]int)}
}

// TmpVar returns a fresh variable name for prefix.
//
// Panics if prefix does not start with an underscore.
func (s *Scope) TmpVar(prefix string) string {
	if !strings.HasPrefix(prefix, "_") {
		panic(fmt.Sprintf("gogen: tmp variable prefix %q must start with _", prefix))
	}
	index := s.tmpVarIndices[prefix]
	s.tmpVarIndices[prefix] = index + 1
	if index == 0 {
		return prefix
	}
	return fmt.Sprintf("%s_%d", prefix, index)
}

// Fork returns a child scope that starts from this scope's counters. Names
// taken in the child are not seen by the parent, which suits a nested body
// such as a separate method.
func (s *Scope) Fork() *Scope {
	child := NewScope()
	maps.Copy(child.tmpVarIndices, s.tmpVarIndices)
	return child
}
