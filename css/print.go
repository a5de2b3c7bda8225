package css

import (
	"fmt"
	"io"
	"strings"
)

// WriteTo writes the stylesheet to w in source order, implementing
// io.WriterTo. Both nested input trees and flattened output print correctly;
// blocks indent two spaces per depth.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, n := range s.Nodes {
		c, err := writeNode(w, n, 0)
		total += int64(c)
		if err != nil {
			return total, err
		}
		// Blank line between top-level items (except after last).
		if i < len(s.Nodes)-1 {
			c, err := fmt.Fprint(w, "\n")
			total += int64(c)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

func writeNode(w io.Writer, n Node, depth int) (int, error) {
	pad := strings.Repeat("  ", depth)
	switch {
	case n.Decl != nil:
		bang := ""
		if n.Decl.Important {
			bang = " !important"
		}
		return fmt.Fprintf(w, "%s%s: %s%s;\n", pad, n.Decl.Property, n.Decl.Value, bang)

	case n.Marker != nil:
		return fmt.Fprintf(w, "%s%s;\n", pad, n.Marker.Text)

	case n.Rule != nil:
		return writeBlock(w, n.Rule.Selectors.String(), n.Rule.Nodes, depth)

	case n.AtRule != nil:
		header := n.AtRule.Name
		if n.AtRule.Prelude != "" {
			header += " " + n.AtRule.Prelude
		}
		if n.AtRule.Nodes == nil {
			return fmt.Fprintf(w, "%s%s;\n", pad, header)
		}
		return writeBlock(w, header, n.AtRule.Nodes, depth)
	}
	return 0, nil
}

// writeBlock writes "header { body }" with the body one level deeper.
func writeBlock(w io.Writer, header string, body []Node, depth int) (int, error) {
	pad := strings.Repeat("  ", depth)

	total, err := fmt.Fprintf(w, "%s%s {\n", pad, header)
	if err != nil {
		return total, err
	}
	for _, n := range body {
		c, err := writeNode(w, n, depth+1)
		total += c
		if err != nil {
			return total, err
		}
	}
	c, err := fmt.Fprintf(w, "%s}\n", pad)
	total += c
	return total, err
}
