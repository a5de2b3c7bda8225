package css

import "go.uber.org/zap"

// atShell is one enclosing conditional at-rule recorded while walking. The
// stack of shells is passed by value down the recursion so sibling subtrees
// never observe each other's pushes.
type atShell struct {
	name    string
	prelude string
}

// Flattener rewrites rule nesting out of a stylesheet tree.
type Flattener struct {
	log *zap.Logger
}

// NewFlattener creates a flattener.
func NewFlattener(log *zap.Logger) *Flattener {
	if log == nil {
		log = zap.NewNop()
	}
	return &Flattener{log: log.Named("css-flatten")}
}

// Flatten returns a new stylesheet with every nested style rule rewritten
// into flat rules whose selectors encode the original nesting, and with
// conditional at-rule wrappers reconstructed around the flattened content.
// The input is never mutated. Warnings are carried over.
func (f *Flattener) Flatten(sheet *Stylesheet) *Stylesheet {
	out := &Stylesheet{
		Nodes:    FlattenNodes(sheet.Nodes),
		Warnings: append([]string(nil), sheet.Warnings...),
	}
	f.log.Debug("Flattened stylesheet", zap.Int("in", len(sheet.Nodes)), zap.Int("out", len(out.Nodes)))
	return out
}

// FlattenNodes rewrites a forest of top-level nodes into a flat forest: no
// style rule contains another rule or at-rule, and at-rules wrap exactly the
// rules and markers they enclosed in source. The walk preserves source order
// at every depth and cannot fail on a well-formed tree.
func FlattenNodes(nodes []Node) []Node {
	return flattenBody(nodes, nil, nil)
}

// flattenBody walks one body sequence, accumulating maximal runs of
// consecutive declarations and flushing each run as its own flat rule under
// the effective selector, individually wrapped by the at-rule stack active at
// the flush point. Nested rules recurse with a combined selector; nested
// at-rules recurse with an extended copy of the stack.
func flattenBody(nodes []Node, sel SelectorList, stack []atShell) []Node {
	var (
		out     []Node
		pending []Node
	)

	flush := func() {
		if len(pending) == 0 {
			return
		}
		run := pending
		pending = nil
		if len(sel) == 0 {
			// Selector-less context: declarations directly inside a
			// conditional at-rule (@font-face and friends) or a bare
			// top-level run. Emit the run as-is under the stack.
			if len(stack) == 0 {
				out = append(out, run...)
				return
			}
			out = append(out, wrapRun(run, stack))
			return
		}
		out = append(out, wrap(Rule(&StyleRule{Selectors: sel.Clone(), Nodes: run}), stack))
	}

	for _, n := range nodes {
		switch {
		case n.Decl != nil:
			pending = append(pending, Decl(n.Decl.Property, n.Decl.Value, n.Decl.Important))

		case n.Marker != nil:
			flush()
			out = append(out, wrap(Mark(n.Marker.Text), stack))

		case n.Rule != nil:
			flush()
			child := Combine(sel, n.Rule.Selectors)
			out = append(out, flattenBody(n.Rule.Nodes, child, stack)...)

		case n.AtRule != nil:
			flush()
			if n.AtRule.Nodes == nil {
				// Statement at-rule, nothing to descend into.
				out = append(out, wrap(At(&AtRule{Name: n.AtRule.Name, Prelude: n.AtRule.Prelude}), stack))
				continue
			}
			next := append(stack[:len(stack):len(stack)], atShell{name: n.AtRule.Name, prelude: n.AtRule.Prelude})
			out = append(out, flattenBody(n.AtRule.Nodes, sel, next)...)
		}
	}
	flush()
	return out
}

// wrap reconstructs the full at-rule stack around a single node, innermost
// shell closest to the node. Every call builds fresh AtRule values - shells
// are never shared between flush points.
func wrap(n Node, stack []atShell) Node {
	for i := len(stack) - 1; i >= 0; i-- {
		n = At(&AtRule{Name: stack[i].name, Prelude: stack[i].prelude, Nodes: []Node{n}})
	}
	return n
}

// wrapRun is wrap for a declaration run that has no selector to attach to.
func wrapRun(run []Node, stack []atShell) Node {
	n := At(&AtRule{Name: stack[len(stack)-1].name, Prelude: stack[len(stack)-1].prelude, Nodes: run})
	return wrap(n, stack[:len(stack)-1])
}
