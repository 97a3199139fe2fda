package lang

import (
	"strconv"
	"strings"

	"github.com/confkit/interp/lang/lexer"
	"github.com/confkit/interp/lang/token"
)

// Parse lexes and parses raw under the full top-level grammar: plain
// text freely mixed with interpolations. The result collapses to a
// single LiteralNode when no interpolation is present and to the bare
// interpolation node when the input is exactly one interpolation, so
// a resolved value keeps its type only in that case.
//
// Every call builds a fresh tree; parse results are never cached.
func Parse(raw string) (*Node, error) {
	toks, err := lexer.Tokenize(raw)
	if err != nil {
		return nil, syntaxFromLex(err, raw)
	}

	p := &parser{source: raw, toks: toks}

	return p.parseTop()
}

// ParseElement lexes and parses raw as a single argument-grammar item:
// one primitive, quoted string, interpolation, list, or dict spanning
// the whole input. This is the grammar applied to environment variable
// text and to decode arguments.
func ParseElement(raw string) (*Node, error) {
	toks, err := lexer.TokenizeElement(raw)
	if err != nil {
		return nil, syntaxFromLex(err, raw)
	}

	p := &parser{source: raw, toks: toks}

	p.skipWS()

	if p.at(token.EOF) {
		return literal(p.cur().Pos, "", "", ""), nil
	}

	item, err := p.parseItem()
	if err != nil {
		return nil, err
	}

	p.skipWS()

	if !p.at(token.EOF) {
		return nil, p.errHere("input continues past a complete value").
			Expecting("end of input")
	}

	return item, nil
}

// syntaxFromLex converts a lexer failure into a SyntaxError carrying
// the source for snippet rendering.
func syntaxFromLex(err error, source string) error {
	le, ok := err.(*lexer.Error)
	if !ok {
		return ErrLex.Wrap(err)
	}

	return NewSyntaxError(ErrLex, le.Msg, source, le.Pos)
}

// parser consumes the token stream produced by the modal lexer. It is
// plain recursive descent: one function per grammar construct, no
// backtracking, and the lexer's mode stack has already guaranteed that
// every interpolation and quote is structurally closed.
type parser struct {
	source string
	toks   []token.Token
	pos    int
}

func (p *parser) cur() token.Token {
	return p.toks[p.pos]
}

func (p *parser) at(kind token.Kind) bool {
	return p.toks[p.pos].Kind == kind
}

// peekKind returns the kind n tokens ahead, or EOF past the end.
func (p *parser) peekKind(n int) token.Kind {
	if p.pos+n >= len(p.toks) {
		return token.EOF
	}

	return p.toks[p.pos+n].Kind
}

func (p *parser) next() token.Token {
	t := p.toks[p.pos]
	if t.Kind != token.EOF {
		p.pos++
	}

	return t
}

func (p *parser) skipWS() {
	for p.at(token.WS) {
		p.pos++
	}
}

func (p *parser) errHere(msg string) *SyntaxError {
	return NewSyntaxError(ErrParse, msg, p.source, p.cur().Pos)
}

func (p *parser) errAt(t token.Token, msg string) *SyntaxError {
	return NewSyntaxError(ErrParse, msg, p.source, t.Pos)
}

// parseTop parses the full top-level grammar.
func (p *parser) parseTop() (*Node, error) {
	start := p.cur().Pos

	var (
		parts   []*Node
		raw     strings.Builder
		text    strings.Builder
		textPos token.Pos
	)

	flush := func() {
		if raw.Len() == 0 {
			return
		}

		s := text.String()
		parts = append(parts, literal(textPos, raw.String(), s, s))
		raw.Reset()
		text.Reset()
	}

	for {
		t := p.cur()

		switch t.Kind {
		case token.EOF:
			flush()

			switch len(parts) {
			case 0:
				return literal(start, "", "", ""), nil
			case 1:
				return parts[0], nil
			default:
				return &Node{Kind: ConcatNode, Pos: start, Parts: parts}, nil
			}

		case token.InterOpen:
			flush()
			p.next()

			node, err := p.parseInterpolation(t.Pos)
			if err != nil {
				return nil, err
			}

			parts = append(parts, node)

		default:
			if raw.Len() == 0 {
				textPos = t.Pos
			}

			raw.WriteString(t.Text)
			text.WriteString(decodeToken(t))
			p.next()
		}
	}
}

// parseInterpolation parses the body after "${": either a key path or
// a resolver call, disambiguated by the token after the first
// component.
func (p *parser) parseInterpolation(open token.Pos) (*Node, error) {
	t := p.cur()

	switch t.Kind {
	case token.ID:
		if p.peekKind(1) == token.Colon {
			p.next() // name
			p.next() // colon

			return p.parseCall(open, t.Text, nil)
		}

		p.next()

		return p.parseKeyPath(open, Segment{Kind: SegmentName, Name: t.Text})

	case token.Index:
		idx, err := parseIndex(t)
		if err != nil {
			return nil, p.errAt(t, "list index out of range")
		}

		p.next()

		return p.parseKeyPath(open, Segment{Kind: SegmentIndex, Index: idx})

	case token.InterOpen:
		p.next()

		inner, err := p.parseInterpolation(t.Pos)
		if err != nil {
			return nil, err
		}

		if p.at(token.Colon) {
			p.next()

			return p.parseCall(open, "", inner)
		}

		return p.parseKeyPath(open, Segment{Kind: SegmentNode, Node: inner})

	case token.InterClose:
		return nil, p.errHere("empty interpolation").
			Expecting("key", "resolver name")

	default:
		return nil, p.errAt(t, "invalid start of interpolation").
			Expecting("key", "resolver name")
	}
}

// parseKeyPath parses the dot-joined remainder of a key path, the
// first segment already consumed.
func (p *parser) parseKeyPath(open token.Pos, first Segment) (*Node, error) {
	segs := []Segment{first}

	for {
		t := p.cur()

		switch t.Kind {
		case token.InterClose:
			p.next()

			return &Node{Kind: KeyPathNode, Pos: open, Segments: segs}, nil

		case token.Dot:
			p.next()

			seg, err := p.parseSegment()
			if err != nil {
				return nil, err
			}

			segs = append(segs, seg)

		default:
			return nil, p.errAt(t, "invalid key path").
				Expecting("'.'", "'}'")
		}
	}
}

// parseSegment parses one key path segment after a dot.
func (p *parser) parseSegment() (Segment, error) {
	t := p.cur()

	switch t.Kind {
	case token.ID, token.Str:
		p.next()

		return Segment{Kind: SegmentName, Name: t.Text}, nil

	case token.Index:
		idx, err := parseIndex(t)
		if err != nil {
			return Segment{}, p.errAt(t, "list index out of range")
		}

		p.next()

		return Segment{Kind: SegmentIndex, Index: idx}, nil

	case token.InterOpen:
		p.next()

		inner, err := p.parseInterpolation(t.Pos)
		if err != nil {
			return Segment{}, err
		}

		return Segment{Kind: SegmentNode, Node: inner}, nil

	default:
		return Segment{}, p.errAt(t, "invalid key path").
			Expecting("path segment")
	}
}

// parseCall parses a resolver argument list after the colon. Exactly
// one of name and nameNode is set by the caller.
func (p *parser) parseCall(open token.Pos, name string, nameNode *Node) (*Node, error) {
	node := &Node{
		Kind:     CallNode,
		Pos:      open,
		Name:     name,
		NameNode: nameNode,
	}

	p.skipWS()

	if p.at(token.InterClose) {
		p.next()

		return node, nil // zero arguments
	}

	for {
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}

		node.Args = append(node.Args, item)

		p.skipWS()

		t := p.cur()

		switch t.Kind {
		case token.InterClose:
			p.next()

			return node, nil

		case token.Comma:
			p.next()
			p.skipWS()

			if p.at(token.InterClose) {
				return nil, p.errHere("trailing comma in argument list").
					Expecting("argument")
			}

		default:
			return nil, p.errAt(t, "invalid argument list").
				Expecting("','", "'}'")
		}
	}
}

// parseItem parses exactly one argument-grammar item. Items do not
// concatenate: a quoted string, interpolation, list, or dict must be
// followed by a separator or closer, never by more content.
func (p *parser) parseItem() (*Node, error) {
	t := p.cur()

	switch t.Kind {
	case token.BracketOpen:
		return p.parseList()

	case token.BraceOpen:
		return p.parseDict()

	case token.Quote:
		return p.parseQuoted()

	case token.InterOpen:
		p.next()

		return p.parseInterpolation(t.Pos)

	case token.ID, token.Str, token.Int, token.Float, token.Null, token.Bool,
		token.Esc, token.EscBackslash, token.EscInter:
		return p.parseRun(), nil

	default:
		return nil, p.errAt(t, "invalid argument").
			Expecting("value")
	}
}

// runKind reports whether kind may appear inside an unquoted primitive
// run.
func runKind(kind token.Kind) bool {
	switch kind {
	case token.ID, token.Str, token.Int, token.Float, token.Null, token.Bool,
		token.Esc, token.EscBackslash, token.EscInter, token.WS:
		return true
	default:
		return false
	}
}

// parseRun consumes a maximal unquoted primitive run and coerces it.
// Interior whitespace is part of the value; trailing whitespace is
// trimmed (leading was skipped by the caller).
func (p *parser) parseRun() *Node {
	start := p.pos
	for runKind(p.cur().Kind) {
		p.next()
	}

	end := p.pos
	for end > start && p.toks[end-1].Kind == token.WS {
		end--
	}

	var raw, text strings.Builder
	for _, t := range p.toks[start:end] {
		raw.WriteString(t.Text)
		text.WriteString(decodeToken(t))
	}

	node := literal(p.toks[start].Pos, raw.String(), text.String(), nil)
	node.Value = Coerce(node.Raw)

	return node
}

// parseQuoted parses a quoted string item. Without interpolations it
// is a plain string literal; with them it becomes a concatenation,
// which stringifies its parts on resolution.
func (p *parser) parseQuoted() (*Node, error) {
	openQuote := p.next()

	var (
		parts   []*Node
		raw     strings.Builder
		text    strings.Builder
		textPos token.Pos
	)

	raw.WriteString(openQuote.Text)

	flush := func() {
		if text.Len() == 0 {
			return
		}

		s := text.String()
		parts = append(parts, literal(textPos, s, s, s))
		text.Reset()
	}

	for {
		t := p.cur()

		switch t.Kind {
		case token.Quote:
			p.next()
			raw.WriteString(t.Text)
			flush()

			if hasInterpolation(parts) {
				// Even a pure-interpolation quoted item casts to
				// string, which concatenation already guarantees.
				return &Node{Kind: ConcatNode, Pos: openQuote.Pos, Parts: parts}, nil
			}

			body := ""
			if len(parts) == 1 {
				body = parts[0].Text
			}

			return literal(openQuote.Pos, raw.String(), body, body), nil

		case token.InterOpen:
			flush()
			p.next()

			node, err := p.parseInterpolation(t.Pos)
			if err != nil {
				return nil, err
			}

			parts = append(parts, node)

		default:
			if text.Len() == 0 {
				textPos = t.Pos
			}

			raw.WriteString(t.Text)
			text.WriteString(decodeToken(t))
			p.next()
		}
	}
}

func hasInterpolation(parts []*Node) bool {
	for _, part := range parts {
		if part.Kind != LiteralNode {
			return true
		}
	}

	return false
}

// parseList parses a bracketed list literal.
func (p *parser) parseList() (*Node, error) {
	open := p.next()
	node := &Node{Kind: ListItemNode, Pos: open.Pos}

	p.skipWS()

	if p.at(token.BracketClose) {
		p.next()

		return node, nil
	}

	for {
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}

		node.Elems = append(node.Elems, item)

		p.skipWS()

		t := p.cur()

		switch t.Kind {
		case token.BracketClose:
			p.next()

			return node, nil

		case token.Comma:
			p.next()
			p.skipWS()

			if p.at(token.BracketClose) {
				return nil, p.errHere("trailing comma in list").
					Expecting("value")
			}

		default:
			return nil, p.errAt(t, "invalid list").
				Expecting("','", "']'")
		}
	}
}

// parseDict parses a braced dict literal. Keys are unquoted primitives
// or interpolations.
func (p *parser) parseDict() (*Node, error) {
	open := p.next()
	node := &Node{Kind: DictItemNode, Pos: open.Pos}

	p.skipWS()

	if p.at(token.BraceClose) {
		p.next()

		return node, nil
	}

	for {
		key, err := p.parseDictKey()
		if err != nil {
			return nil, err
		}

		p.skipWS()

		if !p.at(token.Colon) {
			return nil, p.errHere("invalid dict entry").
				Expecting("':'")
		}

		p.next()
		p.skipWS()

		val, err := p.parseItem()
		if err != nil {
			return nil, err
		}

		node.Pairs = append(node.Pairs, Pair{Key: key, Val: val})

		p.skipWS()

		t := p.cur()

		switch t.Kind {
		case token.BraceClose:
			p.next()

			return node, nil

		case token.Comma:
			p.next()
			p.skipWS()

			if p.at(token.BraceClose) {
				return nil, p.errHere("trailing comma in dict").
					Expecting("key")
			}

		default:
			return nil, p.errAt(t, "invalid dict").
				Expecting("','", "'}'")
		}
	}
}

// parseDictKey parses one dict key: an unquoted primitive run (coerced,
// so numeric and keyword keys stay typed) or an interpolation.
func (p *parser) parseDictKey() (*Node, error) {
	t := p.cur()

	switch {
	case t.Kind == token.InterOpen:
		p.next()

		return p.parseInterpolation(t.Pos)

	case runKind(t.Kind):
		return p.parseRun(), nil

	default:
		return nil, p.errAt(t, "invalid dict key").
			Expecting("key")
	}
}

// decodeToken maps one token to the text it contributes to a decoded
// string value.
func decodeToken(t token.Token) string {
	switch t.Kind {
	case token.EscInter:
		return "${"
	case token.EscBackslash:
		return strings.Repeat(`\`, len(t.Text)/2)
	case token.Esc:
		return t.Text[1:]
	default:
		return t.Text
	}
}

func parseIndex(t token.Token) (int, error) {
	return strconv.Atoi(t.Text)
}
