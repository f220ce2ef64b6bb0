package spi

import "context"

// Table is the two dimensional container facet.
type Table struct {
	*Object
}

func asTable(o *Object) *Table {
	if o == nil {
		return nil
	}
	return &Table{o}
}

// Handle returns the underlying handle, nil for a nil Table.
func (t *Table) Handle() *Object {
	if t == nil {
		return nil
	}
	return t.Object
}

func (t *Table) NRows(ctx context.Context) int {
	return t.Handle().getInt(ctx, "_get_nRows")
}

func (t *Table) NColumns(ctx context.Context) int {
	return t.Handle().getInt(ctx, "_get_nColumns")
}

// AccessibleAt returns the cell at row and column, nil outside the table.
func (t *Table) AccessibleAt(ctx context.Context, row, column int) *Accessible {
	return AsAccessible(t.Handle().getObject(ctx, "getAccessibleAt", int32(row), int32(column)))
}

// Caption returns the caption element, nil when the table has none.
func (t *Table) Caption(ctx context.Context) *Accessible {
	return AsAccessible(t.Handle().getObject(ctx, "_get_caption"))
}
