package css

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// DefaultMarkerName is the at-rule name recognized as a marker statement
// when no names are registered explicitly.
const DefaultMarkerName = "@slot"

// Parser parses stylesheet text into a Stylesheet tree, keeping rule nesting
// intact for the flattener to rewrite.
type Parser struct {
	log     *zap.Logger
	markers map[string]struct{}
}

// NewParser creates a parser. Statement at-rules whose name is listed in
// markers become Marker nodes; with no names given DefaultMarkerName is used.
func NewParser(log *zap.Logger, markers ...string) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	if len(markers) == 0 {
		markers = []string{DefaultMarkerName}
	}
	set := make(map[string]struct{}, len(markers))
	for _, m := range markers {
		set[strings.ToLower(m)] = struct{}{}
	}
	return &Parser{log: log.Named("css-parser"), markers: set}
}

// Parse parses CSS text into a Stylesheet. The optional source parameter
// identifies what's being parsed (for debug logging). Unsupported constructs
// are recorded as warnings on the sheet, never as errors.
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	sheet := &Stylesheet{}
	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	sheet.Nodes = p.parseBlock(parser, sheet, true)

	if err := parser.Err(); err != nil && err.Error() != "EOF" {
		p.log.Debug("CSS parse error", zap.Error(err))
	}
	return sheet
}

// parseBlock consumes grammar items until the enclosing block ends (or input
// runs out at the top level) and returns the nodes in source order. It calls
// itself for nested rules and at-rule blocks, so arbitrarily deep nesting
// comes out as a tree.
func (p *Parser) parseBlock(parser *css.Parser, sheet *Stylesheet, topLevel bool) []Node {
	var (
		nodes      []Node
		pendingSel SelectorList
	)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			return nodes

		case css.EndRulesetGrammar, css.EndAtRuleGrammar:
			if topLevel {
				// Stray closer at the top level - ignore and keep going.
				continue
			}
			return nodes

		case css.CommentGrammar, css.TokenGrammar:
			// Comments and stray tokens carry no tree structure.

		case css.QualifiedRuleGrammar:
			// One comma-separated selector alternative; the ruleset body
			// follows after the last one (BeginRulesetGrammar).
			pendingSel = append(pendingSel, SplitList(p.preludeText(data, parser.Values()))...)

		case css.BeginRulesetGrammar:
			selectors := append(pendingSel, SplitList(p.preludeText(data, parser.Values()))...)
			pendingSel = nil
			body := p.parseBlock(parser, sheet, false)
			rule, err := NewStyleRule(selectors, body)
			if err != nil {
				sheet.Warnings = append(sheet.Warnings, "dropping rule with empty selector list")
				p.log.Debug("Dropping rule with empty selector list")
				continue
			}
			nodes = append(nodes, Rule(rule))

		case css.BeginAtRuleGrammar:
			name := string(data)
			prelude := atPreludeText(parser.Values())
			body := p.parseBlock(parser, sheet, false)
			if body == nil {
				body = []Node{}
			}
			at, err := NewAtRule(name, prelude, body)
			if err != nil {
				sheet.Warnings = append(sheet.Warnings, "dropping unnamed at-rule")
				continue
			}
			nodes = append(nodes, At(at))

		case css.AtRuleGrammar:
			// Statement at-rule without a block: marker or passthrough.
			name := string(data)
			prelude := atPreludeText(parser.Values())
			if _, ok := p.markers[strings.ToLower(name)]; ok {
				text := name
				if prelude != "" {
					text += " " + prelude
				}
				nodes = append(nodes, Mark(text))
				p.log.Debug("Parsed marker statement", zap.String("marker", text))
				continue
			}
			at, err := NewAtRule(name, prelude, nil)
			if err != nil {
				sheet.Warnings = append(sheet.Warnings, "dropping unnamed at-rule")
				continue
			}
			nodes = append(nodes, At(at))

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			if topLevel {
				sheet.Warnings = append(sheet.Warnings, "declaration outside of any rule: "+string(data))
				p.log.Debug("Dropping top-level declaration", zap.String("property", string(data)))
				continue
			}
			value, important := declarationValue(parser.Values())
			nodes = append(nodes, Decl(string(data), value, important))
		}
	}
}

// preludeText rebuilds selector text from the grammar data and prelude
// tokens, collapsing whitespace runs.
func (p *Parser) preludeText(data []byte, values []css.Token) string {
	tokens := make([]css.Token, 0, len(values)+1)
	if len(data) > 0 {
		tokens = append(tokens, css.Token{TokenType: css.IdentToken, Data: data})
	}
	tokens = append(tokens, values...)
	return tokensText(tokens)
}

// atPreludeText rebuilds at-rule prelude text. The tokenizer does not report
// the whitespace after ':' inside parenthesized feature queries, so a plain
// token join would yield "(min-width:640px)"; put the conventional space back
// when the colon follows an identifier. Colons opening pseudo-classes (as in
// "selector(:hover)") follow a paren and stay untouched.
func atPreludeText(tokens []css.Token) string {
	var sb strings.Builder
	var (
		space        bool
		depth        int
		prev, before css.TokenType
	)
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			space = sb.Len() > 0
			continue
		}
		if depth > 0 && prev == css.ColonToken && before == css.IdentToken {
			space = true
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.Write(t.Data)
		switch t.TokenType {
		case css.LeftParenthesisToken, css.FunctionToken:
			depth++
		case css.RightParenthesisToken:
			if depth > 0 {
				depth--
			}
		}
		before, prev = prev, t.TokenType
	}
	return sb.String()
}

// tokensText joins token data into one string, collapsing whitespace runs to
// a single space and trimming the ends.
func tokensText(tokens []css.Token) string {
	var sb strings.Builder
	space := false
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			space = sb.Len() > 0
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.Write(t.Data)
	}
	return sb.String()
}

// declarationValue rebuilds a declaration value from its tokens, stripping a
// trailing "!important" into the flag.
func declarationValue(tokens []css.Token) (string, bool) {
	important := false
	kept := make([]css.Token, 0, len(tokens))

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.TokenType == css.DelimToken && string(t.Data) == "!" {
			j := i + 1
			for j < len(tokens) && tokens[j].TokenType == css.WhitespaceToken {
				j++
			}
			if j < len(tokens) && tokens[j].TokenType == css.IdentToken && strings.EqualFold(string(tokens[j].Data), "important") {
				important = true
				i = j
				continue
			}
		}
		kept = append(kept, t)
	}
	return tokensText(kept), important
}
