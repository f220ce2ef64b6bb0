package spi

import "context"

// CoordType selects the origin of component coordinates.
type CoordType int16

const (
	CoordTypeScreen CoordType = iota
	CoordTypeWindow
)

// Rect is a component bounding box.
type Rect struct {
	X, Y, Width, Height int
}

// Point is a position in coordinates of some CoordType.
type Point struct {
	X, Y int
}

// Component is the geometry facet of an accessible element.
type Component struct {
	*Object
}

func asComponent(o *Object) *Component {
	if o == nil {
		return nil
	}
	return &Component{o}
}

// Handle returns the underlying handle, nil for a nil Component.
func (c *Component) Handle() *Object {
	if c == nil {
		return nil
	}
	return c.Object
}

// Contains reports whether (x, y) lies inside the component.
func (c *Component) Contains(ctx context.Context, x, y int, ct CoordType) bool {
	return c.Handle().getBool(ctx, "contains", int32(x), int32(y), ct)
}

// AccessibleAtPoint returns the topmost child at (x, y), or nil.
func (c *Component) AccessibleAtPoint(ctx context.Context, x, y int, ct CoordType) *Accessible {
	return AsAccessible(c.Handle().getObject(ctx, "getAccessibleAtPoint", int32(x), int32(y), ct))
}

// Extents returns the bounding box. Failures are reported as warnings.
func (c *Component) Extents(ctx context.Context, ct CoordType) (Rect, bool) {
	var x, y, w, h int32
	if !c.Handle().call(ctx, "getExtents", SeverityWarn, "getExtents", []interface{}{ct}, &x, &y, &w, &h) {
		return Rect{}, false
	}
	return Rect{X: int(x), Y: int(y), Width: int(w), Height: int(h)}, true
}

// Position returns the top left corner.
func (c *Component) Position(ctx context.Context, ct CoordType) (Point, bool) {
	var x, y int32
	if !c.Handle().call(ctx, "getPosition", SeverityError, "getPosition", []interface{}{ct}, &x, &y) {
		return Point{}, false
	}
	return Point{X: int(x), Y: int(y)}, true
}

// Size returns the width and height.
func (c *Component) Size(ctx context.Context) (width, height int, ok bool) {
	var w, h int32
	if !c.Handle().call(ctx, "getSize", SeverityError, "getSize", nil, &w, &h) {
		return 0, 0, false
	}
	return int(w), int(h), true
}

// GrabFocus asks the provider to focus the component.
func (c *Component) GrabFocus(ctx context.Context) bool {
	return c.Handle().getBool(ctx, "grabFocus")
}
