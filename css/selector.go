package css

import "strings"

// Placeholder is the nesting placeholder token. When it appears anywhere in a
// child selector the enclosing rule's resolved selector is substituted for
// every occurrence; otherwise descendant composition applies.
const Placeholder = "&"

// Combine composes a child selector list with the resolved selector list of
// its enclosing rule. For each child entry:
//
//   - entries containing the placeholder get every occurrence replaced with
//     the ancestor text verbatim, no combinator inserted ("&:focus" under
//     "&:hover" becomes "&:hover:focus");
//   - entries without the placeholder are joined to the ancestor text with a
//     single space, i.e. ordinary descendant composition.
//
// The result always has exactly len(child) entries in child order: ancestor
// alternatives are folded into one unit by the :is() wrap instead of being
// cross-multiplied. With an empty ancestor (the tree root) the child list is
// returned as-is.
//
// Combine is pure and total. Selector text is treated structurally; nothing
// is validated.
func Combine(ancestor, child SelectorList) SelectorList {
	if len(ancestor) == 0 {
		return child.Clone()
	}
	text := ancestorText(ancestor)
	out := make(SelectorList, 0, len(child))
	for _, c := range child {
		if strings.Contains(c, Placeholder) {
			out = append(out, strings.ReplaceAll(c, Placeholder, text))
		} else {
			out = append(out, text+" "+c)
		}
	}
	return out
}

// ancestorText folds a selector list into a single composable unit. A lone
// entry is used verbatim; multiple alternatives are wrapped in :is() so their
// OR semantics survive composition with a single child branch.
func ancestorText(list SelectorList) string {
	if len(list) == 1 {
		return list[0]
	}
	return ":is(" + list.String() + ")"
}

// SplitList splits raw selector-list text on top-level commas, leaving commas
// inside parentheses, brackets and strings alone. Empty entries are dropped;
// surrounding whitespace is trimmed.
func SplitList(s string) SelectorList {
	var (
		list  SelectorList
		depth int
		quote rune
		start int
	)
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '(' || r == '[':
			depth++
		case r == ')' || r == ']':
			if depth > 0 {
				depth--
			}
		case r == ',' && depth == 0:
			if entry := strings.TrimSpace(s[start:i]); entry != "" {
				list = append(list, entry)
			}
			start = i + 1
		}
	}
	if entry := strings.TrimSpace(s[start:]); entry != "" {
		list = append(list, entry)
	}
	return list
}
