// Package load recursively assembles internal/scan's flat token stream
// into the nested array.Array-of-cell.Cell tree the evaluator consumes,
// the "Load" half of the load(mold(v)) == v round-trip law. Grounded on
// the same recursive-descent shape a hand-rolled parser uses to turn
// tokens into an AST — adjacent tokens with no source gap between them
// (see scan.Token.Start/End) are what distinguishes a PATH! (word/
// refinement run) from a bare sequence of standalone values.
package load

import (
	"fmt"
	"strconv"
	"strings"

	"rebcore/internal/array"
	"rebcore/internal/bind"
	"rebcore/internal/cell"
	"rebcore/internal/scan"
)

// Load scans and parses src into a top-level array of cells.
func Load(src string) (*array.Array, error) {
	toks, err := scan.New(src).Tokens()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: filterComments(toks)}
	arr, err := p.parseSequence(scan.TokEnd)
	if err != nil {
		return nil, err
	}
	return arr, nil
}

func filterComments(toks []scan.Token) []scan.Token {
	out := make([]scan.Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind != scan.TokComment {
			out = append(out, t)
		}
	}
	return out
}

type parser struct {
	toks []scan.Token
	pos  int
}

func (p *parser) peek() scan.Token {
	if p.pos >= len(p.toks) {
		return scan.Token{Kind: scan.TokEnd}
	}
	return p.toks[p.pos]
}

func (p *parser) advance() scan.Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// parseSequence reads values until a token of kind closeOn (TokEnd for
// top level, TokBlockClose/TokGroupClose for nested arrays), returning
// them as one flat array. The closing token itself is consumed.
func (p *parser) parseSequence(closeOn scan.Kind) (*array.Array, error) {
	arr := array.New(4)
	for {
		tok := p.peek()
		if tok.Kind == closeOn {
			p.advance()
			return arr, nil
		}
		if tok.Kind == scan.TokEnd {
			return nil, fmt.Errorf("load: unexpected end of input, expected closing delimiter")
		}
		c, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := arr.Append(c); err != nil {
			return nil, err
		}
	}
}

// parseValue reads one value, folding in any immediately-adjacent
// refinement run into a PATH!.
func (p *parser) parseValue() (*cell.Cell, error) {
	tok := p.advance()
	c, err := p.atomFromToken(tok)
	if err != nil {
		return nil, err
	}

	if tok.Kind == scan.TokBlockOpen || tok.Kind == scan.TokGroupOpen {
		return c, nil
	}

	// A refinement token directly touching the previous token (no
	// source gap) starts or continues a PATH!.
	if next := p.peek(); next.Kind == scan.TokRefinement && next.Start == tok.End {
		return p.parsePath(tok, c)
	}
	return c, nil
}

func (p *parser) parsePath(headTok scan.Token, head *cell.Cell) (*cell.Cell, error) {
	segments := array.New(2)
	if err := segments.Append(head); err != nil {
		return nil, err
	}
	prevEnd := headTok.End
	for {
		next := p.peek()
		if next.Kind != scan.TokRefinement || next.Start != prevEnd {
			break
		}
		tok := p.advance()
		var rc cell.Cell
		bind.MakeWord(&rc, cell.KindRefinement, tok.Text)
		if err := segments.Append(&rc); err != nil {
			return nil, err
		}
		prevEnd = tok.End
	}

	var pathCell cell.Cell
	pathCell.Reset(cell.KindPath)
	pathCell.Payload[0] = segments
	return &pathCell, nil
}

func (p *parser) atomFromToken(tok scan.Token) (*cell.Cell, error) {
	var c cell.Cell
	switch tok.Kind {
	case scan.TokBlockOpen:
		arr, err := p.parseSequence(scan.TokBlockClose)
		if err != nil {
			return nil, err
		}
		c.Reset(cell.KindBlock)
		c.Payload[0] = arr
		return &c, nil

	case scan.TokGroupOpen:
		arr, err := p.parseSequence(scan.TokGroupClose)
		if err != nil {
			return nil, err
		}
		c.Reset(cell.KindGroup)
		c.Payload[0] = arr
		return &c, nil

	case scan.TokWord:
		return wordOrTupleCell(tok.Text)

	case scan.TokSetWord:
		bind.MakeWord(&c, cell.KindSetWord, tok.Text)
		return &c, nil

	case scan.TokGetWord:
		bind.MakeWord(&c, cell.KindGetWord, tok.Text)
		return &c, nil

	case scan.TokLitWord:
		bind.MakeWord(&c, cell.KindLitWord, tok.Text)
		return &c, nil

	case scan.TokRefinement:
		bind.MakeWord(&c, cell.KindRefinement, tok.Text)
		return &c, nil

	case scan.TokInteger:
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("load: invalid integer %q at line %d: %w", tok.Text, tok.Line, err)
		}
		c.Reset(cell.KindInteger)
		c.Payload[0] = int(n)
		return &c, nil

	case scan.TokDecimal:
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, fmt.Errorf("load: invalid decimal %q at line %d: %w", tok.Text, tok.Line, err)
		}
		c.Reset(cell.KindDecimal)
		c.Payload[0] = f
		return &c, nil

	case scan.TokString, scan.TokRawLiteral:
		c.Reset(cell.KindText)
		c.Payload[0] = tok.Text
		return &c, nil

	case scan.TokIssue:
		c.Reset(cell.KindIssue)
		c.Payload[0] = tok.Text
		return &c, nil

	default:
		return nil, fmt.Errorf("load: unexpected token %v at line %d", tok.Kind, tok.Line)
	}
}

// wordOrTupleCell builds a plain WORD! cell, or (per the recorded
// simplification in internal/eval: TUPLE! self-evaluates as a literal,
// no field-access dispatch) a TUPLE! array of word cells when text
// contains dot-separated segments.
func wordOrTupleCell(text string) (*cell.Cell, error) {
	if !strings.Contains(text, ".") {
		var c cell.Cell
		bind.MakeWord(&c, cell.KindWord, text)
		return &c, nil
	}

	parts := strings.Split(text, ".")
	segments := array.New(len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("load: empty tuple segment in %q", text)
		}
		var seg cell.Cell
		bind.MakeWord(&seg, cell.KindWord, part)
		if err := segments.Append(&seg); err != nil {
			return nil, err
		}
	}
	var c cell.Cell
	c.Reset(cell.KindTuple)
	c.Payload[0] = segments
	return &c, nil
}
