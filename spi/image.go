package spi

import "context"

// Hypertext is the facet of text containing links.
type Hypertext struct {
	*Object
}

func asHypertext(o *Object) *Hypertext {
	if o == nil {
		return nil
	}
	return &Hypertext{o}
}

// Handle returns the underlying handle, nil for a nil Hypertext.
func (h *Hypertext) Handle() *Object {
	if h == nil {
		return nil
	}
	return h.Object
}

// NLinks returns the number of links, or -1.
func (h *Hypertext) NLinks(ctx context.Context) int {
	return h.Handle().getInt(ctx, "getNLinks")
}

// Image is the facet of graphical elements.
type Image struct {
	*Object
}

func asImage(o *Object) *Image {
	if o == nil {
		return nil
	}
	return &Image{o}
}

// Handle returns the underlying handle, nil for a nil Image.
func (i *Image) Handle() *Object {
	if i == nil {
		return nil
	}
	return i.Object
}

// Description returns the image description.
func (i *Image) Description(ctx context.Context) string {
	return i.Handle().getString(ctx, "_get_imageDescription")
}

// Size returns the image width and height.
func (i *Image) Size(ctx context.Context) (width, height int, ok bool) {
	var w, h int32
	if !i.Handle().call(ctx, "getImageSize", SeverityError, "getImageSize", nil, &w, &h) {
		return 0, 0, false
	}
	return int(w), int(h), true
}
