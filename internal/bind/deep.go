package bind

import (
	"rebcore/internal/array"
	"rebcore/internal/cell"
)

// BindDeep walks arr recursively, binding every word-family cell not
// already bound to ctx via BindSea, and descending into nested BLOCK!/
// GROUP!/PATH!/TUPLE! arrays. This is the implicit bind a host performs
// before handing freshly loaded code to the evaluator's DO operation;
// already-bound words (e.g. a function body's relative bindings) are
// left untouched, matching the original source's "only rebind what is
// still unbound" behavior rather than overwriting existing bindings.
func BindDeep(arr *array.Array, ctx *Context) {
	arr.Each(func(_ int, c *cell.Cell) bool {
		bindCellDeep(c, ctx)
		return true
	})
}

func bindCellDeep(c *cell.Cell, ctx *Context) {
	switch c.Kind {
	case cell.KindWord, cell.KindSetWord, cell.KindGetWord, cell.KindLitWord, cell.KindRefinement:
		if !IsBound(c) {
			BindSea(c, ctx)
		}

	case cell.KindBlock, cell.KindGroup, cell.KindPath, cell.KindTuple:
		if nested, ok := c.Payload[0].(*array.Array); ok {
			BindDeep(nested, ctx)
		}
	}
}
