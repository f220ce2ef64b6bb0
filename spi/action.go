package spi

import "context"

// Action is the facet of elements exposing named actions.
type Action struct {
	*Object
}

func asAction(o *Object) *Action {
	if o == nil {
		return nil
	}
	return &Action{o}
}

// Handle returns the underlying handle, nil for a nil Action.
func (a *Action) Handle() *Object {
	if a == nil {
		return nil
	}
	return a.Object
}

// NActions returns the number of actions, or -1.
func (a *Action) NActions(ctx context.Context) int {
	return a.Handle().getInt(ctx, "_get_nActions")
}

// Name returns the name of the action at index.
func (a *Action) Name(ctx context.Context, index int) string {
	return a.Handle().getString(ctx, "getName", int32(index))
}

// Description returns the description of the action at index.
func (a *Action) Description(ctx context.Context, index int) string {
	return a.Handle().getString(ctx, "getDescription", int32(index))
}

// DoAction performs the action at index.
func (a *Action) DoAction(ctx context.Context, index int) bool {
	return a.Handle().getBool(ctx, "doAction", int32(index))
}
