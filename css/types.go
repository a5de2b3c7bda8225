// Package css models stylesheets as trees of rules, at-rules, declarations
// and marker statements, and rewrites rule nesting into flat output.
package css

import (
	"errors"
	"strings"
)

// SelectorList is an ordered list of alternative selectors for one rule.
// Entries have "OR" semantics; order is preserved on output and entries are
// never deduplicated.
type SelectorList []string

// Clone returns an independent copy of the list.
func (l SelectorList) Clone() SelectorList {
	if l == nil {
		return nil
	}
	out := make(SelectorList, len(l))
	copy(out, l)
	return out
}

// String returns the textual form of the list, entries joined by commas.
func (l SelectorList) String() string {
	return strings.Join(l, ", ")
}

// Declaration is a single "property: value" entry. Leaf node.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Marker is an opaque statement (e.g. a content insertion slot) that every
// transform stage passes through verbatim. It carries no selector or
// declaration semantics of its own.
type Marker struct {
	Text string // statement text without the trailing semicolon, e.g. "@slot"
}

// StyleRule is a style rule: a non-empty selector list plus an ordered body
// of child nodes. Before flattening the body may contain nested rules and
// at-rules; flattened rules contain only declarations and markers.
type StyleRule struct {
	Selectors SelectorList
	Nodes     []Node
}

// AtRule is a generic at-rule identified by name (with leading '@') and raw
// prelude text. Nil Nodes means the at-rule was a statement ("@import ...;");
// an empty non-nil slice is an empty block.
type AtRule struct {
	Name    string
	Prelude string
	Nodes   []Node
}

// Node is a single item in a rule body or at the top level of a stylesheet.
// Exactly one of Decl, Rule, AtRule or Marker is non-nil.
type Node struct {
	Decl   *Declaration
	Rule   *StyleRule
	AtRule *AtRule
	Marker *Marker
}

// Stylesheet is a parsed stylesheet: top-level nodes in source order plus
// warnings accumulated while parsing.
type Stylesheet struct {
	Nodes    []Node
	Warnings []string
}

var (
	// ErrEmptySelectorList reports a style rule constructed without selectors.
	ErrEmptySelectorList = errors.New("css: style rule requires a non-empty selector list")
	// ErrEmptyAtRuleName reports an at-rule constructed without a name.
	ErrEmptyAtRuleName = errors.New("css: at-rule requires a non-empty name")
)

// NewStyleRule builds a style rule, rejecting an empty selector list. This is
// the only place the invariant is enforced - transforms downstream assume it.
func NewStyleRule(selectors SelectorList, nodes []Node) (*StyleRule, error) {
	if len(selectors) == 0 {
		return nil, ErrEmptySelectorList
	}
	return &StyleRule{Selectors: selectors, Nodes: nodes}, nil
}

// NewAtRule builds an at-rule, rejecting an empty name.
func NewAtRule(name, prelude string, nodes []Node) (*AtRule, error) {
	if name == "" {
		return nil, ErrEmptyAtRuleName
	}
	return &AtRule{Name: name, Prelude: prelude, Nodes: nodes}, nil
}

// Decl wraps a declaration into a Node.
func Decl(property, value string, important bool) Node {
	return Node{Decl: &Declaration{Property: property, Value: value, Important: important}}
}

// Rule wraps a style rule into a Node.
func Rule(r *StyleRule) Node { return Node{Rule: r} }

// At wraps an at-rule into a Node.
func At(r *AtRule) Node { return Node{AtRule: r} }

// Mark wraps a marker statement into a Node.
func Mark(text string) Node { return Node{Marker: &Marker{Text: text}} }
