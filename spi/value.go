package spi

import "context"

// Value is the facet of elements holding a number within a range.
type Value struct {
	*Object
}

func asValue(o *Object) *Value {
	if o == nil {
		return nil
	}
	return &Value{o}
}

// Handle returns the underlying handle, nil for a nil Value.
func (v *Value) Handle() *Object {
	if v == nil {
		return nil
	}
	return v.Object
}

func (v *Value) Minimum(ctx context.Context) (float64, bool) {
	return v.Handle().getDouble(ctx, "_get_minimumValue")
}

func (v *Value) Maximum(ctx context.Context) (float64, bool) {
	return v.Handle().getDouble(ctx, "_get_maximumValue")
}

func (v *Value) Current(ctx context.Context) (float64, bool) {
	return v.Handle().getDouble(ctx, "_get_currentValue")
}

// SetCurrent sets the current value. Providers clamp it to the range.
func (v *Value) SetCurrent(ctx context.Context, value float64) bool {
	return v.Handle().call(ctx, "_set_currentValue", SeverityError, "_set_currentValue", []interface{}{value})
}
