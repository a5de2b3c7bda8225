package css_test

import (
	"reflect"
	"testing"

	"cssnest/css"
)

// mustRule builds a style rule or fails the test.
func mustRule(t *testing.T, selectors css.SelectorList, nodes ...css.Node) *css.StyleRule {
	t.Helper()
	r, err := css.NewStyleRule(selectors, nodes)
	if err != nil {
		t.Fatalf("NewStyleRule(%v) error = %v", selectors, err)
	}
	return r
}

func TestNewStyleRule_EmptySelectorList(t *testing.T) {
	if _, err := css.NewStyleRule(nil, nil); err != css.ErrEmptySelectorList {
		t.Errorf("NewStyleRule(nil) error = %v, want ErrEmptySelectorList", err)
	}
}

func TestNewAtRule_EmptyName(t *testing.T) {
	if _, err := css.NewAtRule("", "screen", nil); err != css.ErrEmptyAtRuleName {
		t.Errorf("NewAtRule(\"\") error = %v, want ErrEmptyAtRuleName", err)
	}
}

func TestFlatten_SimpleNesting(t *testing.T) {
	in := []css.Node{
		css.Rule(mustRule(t, css.SelectorList{".a"},
			css.Decl("color", "red", false),
			css.Rule(mustRule(t, css.SelectorList{".b"},
				css.Decl("color", "blue", false),
			)),
		)),
	}

	want := []css.Node{
		css.Rule(mustRule(t, css.SelectorList{".a"},
			css.Decl("color", "red", false),
		)),
		css.Rule(mustRule(t, css.SelectorList{".a .b"},
			css.Decl("color", "blue", false),
		)),
	}

	got := css.FlattenNodes(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FlattenNodes() =\n%v\nwant\n%v", sheetText(got), sheetText(want))
	}
}

func TestFlatten_DeclarationRunSplitting(t *testing.T) {
	// decl; nested-rule; decl must come out as three emissions, the
	// trailing declaration in its own rule under the same selector.
	in := []css.Node{
		css.Rule(mustRule(t, css.SelectorList{".a"},
			css.Decl("color", "red", false),
			css.Rule(mustRule(t, css.SelectorList{".b"}, css.Decl("margin", "0", false))),
			css.Decl("padding", "1em", false),
		)),
	}

	want := []css.Node{
		css.Rule(mustRule(t, css.SelectorList{".a"}, css.Decl("color", "red", false))),
		css.Rule(mustRule(t, css.SelectorList{".a .b"}, css.Decl("margin", "0", false))),
		css.Rule(mustRule(t, css.SelectorList{".a"}, css.Decl("padding", "1em", false))),
	}

	got := css.FlattenNodes(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FlattenNodes() =\n%v\nwant\n%v", sheetText(got), sheetText(want))
	}
}

func TestFlatten_AtRuleRewrapPerFlushPoint(t *testing.T) {
	// Two rules under the same @media block must each get their own
	// reconstructed @media shell, never a shared one.
	in := []css.Node{
		css.Rule(mustRule(t, css.SelectorList{".a"},
			css.At(&css.AtRule{Name: "@media", Prelude: "(min-width: 640px)", Nodes: []css.Node{
				css.Rule(mustRule(t, css.SelectorList{".b"}, css.Decl("margin", "0", false))),
				css.Rule(mustRule(t, css.SelectorList{".c"}, css.Decl("padding", "0", false))),
			}}),
		)),
	}

	got := css.FlattenNodes(in)
	if len(got) != 2 {
		t.Fatalf("FlattenNodes() emitted %d nodes, want 2:\n%v", len(got), sheetText(got))
	}
	for i, n := range got {
		if n.AtRule == nil || n.AtRule.Name != "@media" {
			t.Fatalf("node %d is not an @media wrapper: %v", i, sheetText(got[i:i+1]))
		}
		if len(n.AtRule.Nodes) != 1 {
			t.Errorf("node %d wraps %d children, want 1 per flush point", i, len(n.AtRule.Nodes))
		}
	}
	if got[0].AtRule == got[1].AtRule {
		t.Error("flush points share one at-rule shell")
	}
	if sel := got[0].AtRule.Nodes[0].Rule.Selectors.String(); sel != ".a .b" {
		t.Errorf("first wrapped rule selector = %q, want %q", sel, ".a .b")
	}
	if sel := got[1].AtRule.Nodes[0].Rule.Selectors.String(); sel != ".a .c" {
		t.Errorf("second wrapped rule selector = %q, want %q", sel, ".a .c")
	}
}

func TestFlatten_AtRuleSandwich(t *testing.T) {
	// decl-A; @cond { child-rule }; decl-B: outer declarations stay
	// unwrapped, the middle gets its own @cond shell.
	in := []css.Node{
		css.Rule(mustRule(t, css.SelectorList{".a"},
			css.Decl("color", "red", false),
			css.At(&css.AtRule{Name: "@supports", Prelude: "(display: grid)", Nodes: []css.Node{
				css.Rule(mustRule(t, css.SelectorList{"&.on"}, css.Decl("display", "grid", false))),
			}}),
			css.Decl("color", "blue", false),
		)),
	}

	want := []css.Node{
		css.Rule(mustRule(t, css.SelectorList{".a"}, css.Decl("color", "red", false))),
		css.At(&css.AtRule{Name: "@supports", Prelude: "(display: grid)", Nodes: []css.Node{
			css.Rule(mustRule(t, css.SelectorList{".a.on"}, css.Decl("display", "grid", false))),
		}}),
		css.Rule(mustRule(t, css.SelectorList{".a"}, css.Decl("color", "blue", false))),
	}

	got := css.FlattenNodes(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FlattenNodes() =\n%v\nwant\n%v", sheetText(got), sheetText(want))
	}
}

func TestFlatten_NestedAtRuleStack(t *testing.T) {
	// @layer wrapping @media: the flushed rule gets the full stack in
	// source nesting order.
	in := []css.Node{
		css.At(&css.AtRule{Name: "@layer", Prelude: "components", Nodes: []css.Node{
			css.Rule(mustRule(t, css.SelectorList{".card"},
				css.At(&css.AtRule{Name: "@media", Prelude: "(hover: hover)", Nodes: []css.Node{
					css.Rule(mustRule(t, css.SelectorList{"&:hover"}, css.Decl("opacity", "1", false))),
				}}),
			)),
		}}),
	}

	want := []css.Node{
		css.At(&css.AtRule{Name: "@layer", Prelude: "components", Nodes: []css.Node{
			css.At(&css.AtRule{Name: "@media", Prelude: "(hover: hover)", Nodes: []css.Node{
				css.Rule(mustRule(t, css.SelectorList{".card:hover"}, css.Decl("opacity", "1", false))),
			}}),
		}}),
	}

	got := css.FlattenNodes(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FlattenNodes() =\n%v\nwant\n%v", sheetText(got), sheetText(want))
	}
}

func TestFlatten_SiblingsDoNotShareStack(t *testing.T) {
	// A sibling rule after an at-rule must not observe the sibling's push.
	in := []css.Node{
		css.Rule(mustRule(t, css.SelectorList{".a"},
			css.At(&css.AtRule{Name: "@media", Prelude: "print", Nodes: []css.Node{
				css.Rule(mustRule(t, css.SelectorList{".b"}, css.Decl("display", "none", false))),
			}}),
			css.Rule(mustRule(t, css.SelectorList{".c"}, css.Decl("display", "block", false))),
		)),
	}

	got := css.FlattenNodes(in)
	if len(got) != 2 {
		t.Fatalf("FlattenNodes() emitted %d nodes, want 2:\n%v", len(got), sheetText(got))
	}
	if got[1].Rule == nil {
		t.Fatalf("second emission should be a bare rule, got:\n%v", sheetText(got[1:]))
	}
	if sel := got[1].Rule.Selectors.String(); sel != ".a .c" {
		t.Errorf("sibling selector = %q, want %q", sel, ".a .c")
	}
}

func TestFlatten_MultiSelectorFanOut(t *testing.T) {
	in := []css.Node{
		css.Rule(mustRule(t, css.SelectorList{".a", ".b"},
			css.Rule(mustRule(t, css.SelectorList{".c"}, css.Decl("margin", "0", false))),
		)),
	}

	got := css.FlattenNodes(in)
	if len(got) != 1 {
		t.Fatalf("FlattenNodes() emitted %d nodes, want 1:\n%v", len(got), sheetText(got))
	}
	if sel := got[0].Rule.Selectors.String(); sel != ":is(.a, .b) .c" {
		t.Errorf("selector = %q, want %q", sel, ":is(.a, .b) .c")
	}
}

func TestFlatten_MarkerPassThrough(t *testing.T) {
	in := []css.Node{
		css.Rule(mustRule(t, css.SelectorList{".a"},
			css.Decl("color", "red", false),
			css.Mark("@slot"),
			css.Decl("color", "blue", false),
		)),
	}

	want := []css.Node{
		css.Rule(mustRule(t, css.SelectorList{".a"}, css.Decl("color", "red", false))),
		css.Mark("@slot"),
		css.Rule(mustRule(t, css.SelectorList{".a"}, css.Decl("color", "blue", false))),
	}

	got := css.FlattenNodes(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FlattenNodes() =\n%v\nwant\n%v", sheetText(got), sheetText(want))
	}
}

func TestFlatten_MarkerInsideAtRule(t *testing.T) {
	in := []css.Node{
		css.At(&css.AtRule{Name: "@layer", Prelude: "utilities", Nodes: []css.Node{
			css.Mark("@slot"),
		}}),
	}

	want := []css.Node{
		css.At(&css.AtRule{Name: "@layer", Prelude: "utilities", Nodes: []css.Node{
			css.Mark("@slot"),
		}}),
	}

	got := css.FlattenNodes(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FlattenNodes() =\n%v\nwant\n%v", sheetText(got), sheetText(want))
	}
}

func TestFlatten_IdempotentOnFlatInput(t *testing.T) {
	in := []css.Node{
		css.Rule(mustRule(t, css.SelectorList{".a", ".b"},
			css.Decl("color", "red", true),
			css.Decl("margin", "0", false),
		)),
		css.Mark("@slot"),
		css.At(&css.AtRule{Name: "@media", Prelude: "screen", Nodes: []css.Node{
			css.Rule(mustRule(t, css.SelectorList{".c"}, css.Decl("padding", "0", false))),
		}}),
		css.At(&css.AtRule{Name: "@import", Prelude: `url("x.css")`}),
	}

	got := css.FlattenNodes(in)
	if !reflect.DeepEqual(got, in) {
		t.Errorf("FlattenNodes() changed already-flat input:\ngot\n%v\nwant\n%v", sheetText(got), sheetText(in))
	}
}

func TestFlatten_SelectorlessAtRuleBody(t *testing.T) {
	// Declarations directly inside a conditional at-rule (no enclosing
	// rule) keep their shape.
	in := []css.Node{
		css.At(&css.AtRule{Name: "@font-face", Nodes: []css.Node{
			css.Decl("font-family", `"Example"`, false),
			css.Decl("src", `url("example.woff2")`, false),
		}}),
	}

	got := css.FlattenNodes(in)
	if !reflect.DeepEqual(got, in) {
		t.Errorf("FlattenNodes() =\n%v\nwant unchanged\n%v", sheetText(got), sheetText(in))
	}
}

func TestFlatten_OrderPreservation(t *testing.T) {
	in := []css.Node{
		css.Rule(mustRule(t, css.SelectorList{".a"},
			css.Decl("z-index", "1", false),
			css.Rule(mustRule(t, css.SelectorList{".b"}, css.Decl("z-index", "2", false))),
			css.Mark("@slot"),
			css.At(&css.AtRule{Name: "@media", Prelude: "print", Nodes: []css.Node{
				css.Rule(mustRule(t, css.SelectorList{".c"}, css.Decl("z-index", "3", false))),
			}}),
			css.Decl("z-index", "4", false),
		)),
	}

	got := css.FlattenNodes(in)

	var order []string
	for _, n := range got {
		switch {
		case n.Rule != nil:
			order = append(order, n.Rule.Nodes[0].Decl.Value)
		case n.Marker != nil:
			order = append(order, "marker")
		case n.AtRule != nil:
			order = append(order, n.AtRule.Nodes[0].Rule.Nodes[0].Decl.Value)
		}
	}
	want := []string{"1", "2", "marker", "3", "4"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("emission order = %v, want %v", order, want)
	}
}

func TestFlatten_InputNotMutated(t *testing.T) {
	inner := mustRule(t, css.SelectorList{".b"}, css.Decl("margin", "0", false))
	outer := mustRule(t, css.SelectorList{".a"}, css.Decl("color", "red", false), css.Rule(inner))
	in := []css.Node{css.Rule(outer)}

	css.FlattenNodes(in)

	if outer.Selectors.String() != ".a" || len(outer.Nodes) != 2 {
		t.Error("outer rule was mutated by FlattenNodes")
	}
	if inner.Selectors.String() != ".b" || len(inner.Nodes) != 1 {
		t.Error("inner rule was mutated by FlattenNodes")
	}
}

// sheetText renders nodes for readable test failures.
func sheetText(nodes []css.Node) string {
	return (&css.Stylesheet{Nodes: nodes}).String()
}
