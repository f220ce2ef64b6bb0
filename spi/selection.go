package spi

import "context"

// Selection is the facet of containers whose children can be selected.
// Indices passed to SelectChild count all children; those passed to
// SelectedChild and DeselectSelectedChild count selected children only.
type Selection struct {
	*Object
}

func asSelection(o *Object) *Selection {
	if o == nil {
		return nil
	}
	return &Selection{o}
}

// Handle returns the underlying handle, nil for a nil Selection.
func (s *Selection) Handle() *Object {
	if s == nil {
		return nil
	}
	return s.Object
}

// NSelectedChildren returns the number of selected children, or -1.
func (s *Selection) NSelectedChildren(ctx context.Context) int {
	return s.Handle().getInt(ctx, "_get_nSelectedChildren")
}

// SelectedChild returns the index-th selected child, or nil.
func (s *Selection) SelectedChild(ctx context.Context, index int) *Accessible {
	return AsAccessible(s.Handle().getObject(ctx, "getSelectedChild", int32(index)))
}

// SelectChild adds the child at index to the selection.
func (s *Selection) SelectChild(ctx context.Context, index int) bool {
	return s.Handle().getBool(ctx, "selectChild", int32(index))
}

// DeselectSelectedChild removes the index-th selected child from the selection.
func (s *Selection) DeselectSelectedChild(ctx context.Context, index int) bool {
	return s.Handle().getBool(ctx, "deselectSelectedChild", int32(index))
}

// ClearSelection deselects every child.
func (s *Selection) ClearSelection(ctx context.Context) bool {
	return s.Handle().getBool(ctx, "clearSelection")
}
