package load

import (
	"fmt"
	"strconv"
	"strings"

	"rebcore/internal/array"
	"rebcore/internal/bind"
	"rebcore/internal/cell"
)

// Mold renders arr back to source text, the inverse Load needs to satisfy
// the load(mold(v)) == v round-trip law. Values produced by Load from a
// TokRawLiteral (file/url/email/tag literals folded into KindText, see
// DESIGN.md) mold back as plain strings rather than their original
// prefixed form, since that distinction was already lost at load time.
func Mold(arr *array.Array) string {
	var sb strings.Builder
	moldSequence(&sb, arr)
	return sb.String()
}

func moldSequence(sb *strings.Builder, arr *array.Array) {
	for i := 0; i < arr.Len(); i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		moldCell(sb, arr.At(i))
	}
}

func moldCell(sb *strings.Builder, c *cell.Cell) {
	switch c.Kind {
	case cell.KindInteger:
		n, _ := c.Payload[0].(int)
		sb.WriteString(strconv.Itoa(n))

	case cell.KindDecimal:
		f, _ := c.Payload[0].(float64)
		sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))

	case cell.KindText:
		s, _ := c.Payload[0].(string)
		sb.WriteByte('"')
		sb.WriteString(escapeString(s))
		sb.WriteByte('"')

	case cell.KindIssue:
		s, _ := c.Payload[0].(string)
		sb.WriteByte('#')
		sb.WriteString(s)

	case cell.KindWord:
		sb.WriteString(bind.Symbol(c))

	case cell.KindSetWord:
		sb.WriteString(bind.Symbol(c))
		sb.WriteByte(':')

	case cell.KindGetWord:
		sb.WriteByte(':')
		sb.WriteString(bind.Symbol(c))

	case cell.KindLitWord:
		sb.WriteByte('\'')
		sb.WriteString(bind.Symbol(c))

	case cell.KindRefinement:
		sb.WriteByte('/')
		sb.WriteString(bind.Symbol(c))

	case cell.KindBlock:
		sb.WriteByte('[')
		moldSequence(sb, c.Payload[0].(*array.Array))
		sb.WriteByte(']')

	case cell.KindGroup:
		sb.WriteByte('(')
		moldSequence(sb, c.Payload[0].(*array.Array))
		sb.WriteByte(')')

	case cell.KindPath:
		moldPathLike(sb, c.Payload[0].(*array.Array), '/')

	case cell.KindTuple:
		moldPathLike(sb, c.Payload[0].(*array.Array), '.')

	default:
		sb.WriteString(fmt.Sprintf("<unmoldable %v>", c.Kind))
	}
}

func moldPathLike(sb *strings.Builder, segs *array.Array, sep byte) {
	for i := 0; i < segs.Len(); i++ {
		if i > 0 {
			sb.WriteByte(sep)
		}
		sb.WriteString(bind.Symbol(segs.At(i)))
	}
}

func escapeString(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
