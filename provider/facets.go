package provider

import (
	"github.com/ifabos/go-cspi/corba"
	"github.com/ifabos/go-cspi/spi"
)

func readIndex(req *corba.ServerRequest) (int, error) {
	var index int32
	if err := req.ReadArgs(&index); err != nil {
		return 0, err
	}
	return int(index), nil
}

// origin returns the offset subtracted from screen coordinates for ct.
// Window coordinates are relative to the root element.
func (p *Provider) origin(ct spi.CoordType) (int, int) {
	if ct == spi.CoordTypeWindow && p.root.node.Extents != nil {
		return p.root.node.Extents.X, p.root.node.Extents.Y
	}
	return 0, 0
}

func (p *Provider) componentOps(ds *corba.DynamicServant, e *element) {
	ext := e.node.Extents

	readPoint := func(req *corba.ServerRequest) (int, int, error) {
		var x, y int32
		var ct spi.CoordType
		if err := req.ReadArgs(&x, &y, &ct); err != nil {
			return 0, 0, err
		}
		dx, dy := p.origin(ct)
		return int(x) + dx, int(y) + dy, nil
	}

	p.handle(ds, "contains", func(req *corba.ServerRequest) error {
		x, y, err := readPoint(req)
		if err != nil {
			return err
		}
		return req.SetResult(ext.contains(x, y))
	})
	p.handle(ds, "getAccessibleAtPoint", func(req *corba.ServerRequest) error {
		x, y, err := readPoint(req)
		if err != nil {
			return err
		}
		var hit *object
		for i := len(e.children) - 1; i >= 0; i-- {
			c := e.children[i]
			if c.node.Extents != nil && c.node.Extents.contains(x, y) {
				hit = c.obj
				break
			}
		}
		return req.SetResult(p.hand(hit))
	})
	p.handle(ds, "getExtents", func(req *corba.ServerRequest) error {
		var ct spi.CoordType
		if err := req.ReadArgs(&ct); err != nil {
			return err
		}
		dx, dy := p.origin(ct)
		return req.SetResult(int32(ext.X-dx), int32(ext.Y-dy), int32(ext.Width), int32(ext.Height))
	})
	p.handle(ds, "getPosition", func(req *corba.ServerRequest) error {
		var ct spi.CoordType
		if err := req.ReadArgs(&ct); err != nil {
			return err
		}
		dx, dy := p.origin(ct)
		return req.SetResult(int32(ext.X-dx), int32(ext.Y-dy))
	})
	p.handle(ds, "getSize", func(req *corba.ServerRequest) error {
		return req.SetResult(int32(ext.Width), int32(ext.Height))
	})
	p.handle(ds, "grabFocus", func(req *corba.ServerRequest) error {
		if !e.states[spi.StateFocusable] {
			return req.SetResult(false)
		}
		if p.focused != nil {
			delete(p.focused.states, spi.StateFocused)
		}
		e.states[spi.StateFocused] = true
		p.focused = e
		return req.SetResult(true)
	})
}

func (p *Provider) textOps(ds *corba.DynamicServant, e *element) {
	p.handle(ds, "_get_characterCount", func(req *corba.ServerRequest) error {
		return req.SetResult(int32(len(e.text)))
	})
	p.handle(ds, "getText", func(req *corba.ServerRequest) error {
		var start, end int32
		if err := req.ReadArgs(&start, &end); err != nil {
			return err
		}
		lo, hi := textRange(e, int(start), int(end))
		return req.SetResult(string(e.text[lo:hi]))
	})
	p.handle(ds, "_get_caretOffset", func(req *corba.ServerRequest) error {
		return req.SetResult(int32(e.caret))
	})
}

// textRange clamps [start, end) to the text. An end below zero means the
// end of the text.
func textRange(e *element, start, end int) (int, int) {
	if end < 0 || end > len(e.text) {
		end = len(e.text)
	}
	start = clamp(start, 0, end)
	return start, end
}

func (p *Provider) editableTextOps(ds *corba.DynamicServant, e *element) {
	p.handle(ds, "setTextContents", func(req *corba.ServerRequest) error {
		var contents string
		if err := req.ReadArgs(&contents); err != nil {
			return err
		}
		e.text = []rune(contents)
		e.caret = clamp(e.caret, 0, len(e.text))
		return req.SetResult(true)
	})
	p.handle(ds, "insertText", func(req *corba.ServerRequest) error {
		var position, length int32
		var text string
		if err := req.ReadArgs(&position, &text, &length); err != nil {
			return err
		}
		if position < 0 || int(position) > len(e.text) {
			return req.SetResult(false)
		}
		ins := []rune(text)
		if length >= 0 && int(length) < len(ins) {
			ins = ins[:length]
		}
		updated := make([]rune, 0, len(e.text)+len(ins))
		updated = append(updated, e.text[:position]...)
		updated = append(updated, ins...)
		updated = append(updated, e.text[position:]...)
		e.text = updated
		return req.SetResult(true)
	})
	p.handle(ds, "deleteText", func(req *corba.ServerRequest) error {
		var start, end int32
		if err := req.ReadArgs(&start, &end); err != nil {
			return err
		}
		if start < 0 || start > end || int(end) > len(e.text) {
			return req.SetResult(false)
		}
		e.text = append(e.text[:start:start], e.text[end:]...)
		e.caret = clamp(e.caret, 0, len(e.text))
		return req.SetResult(true)
	})
}

func (p *Provider) tableOps(ds *corba.DynamicServant, e *element) {
	t := e.node.Table
	p.handle(ds, "_get_nRows", func(req *corba.ServerRequest) error {
		return req.SetResult(int32(t.Rows))
	})
	p.handle(ds, "_get_nColumns", func(req *corba.ServerRequest) error {
		return req.SetResult(int32(t.Columns))
	})
	p.handle(ds, "getAccessibleAt", func(req *corba.ServerRequest) error {
		var row, column int32
		if err := req.ReadArgs(&row, &column); err != nil {
			return err
		}
		var cell *object
		if row >= 0 && column >= 0 && int(row) < t.Rows && int(column) < t.Columns {
			cell = e.children[int(row)*t.Columns+int(column)].obj
		}
		return req.SetResult(p.hand(cell))
	})
	p.handle(ds, "_get_caption", func(req *corba.ServerRequest) error {
		var caption *object
		if c, ok := p.byID[t.Caption]; ok {
			caption = c.obj
		}
		return req.SetResult(p.hand(caption))
	})
}

func (p *Provider) selectionOps(ds *corba.DynamicServant, e *element) {
	selected := func() []*element {
		var sel []*element
		for _, c := range e.children {
			if c.states[spi.StateSelected] {
				sel = append(sel, c)
			}
		}
		return sel
	}

	p.handle(ds, "_get_nSelectedChildren", func(req *corba.ServerRequest) error {
		return req.SetResult(int32(len(selected())))
	})
	p.handle(ds, "getSelectedChild", func(req *corba.ServerRequest) error {
		index, err := readIndex(req)
		if err != nil {
			return err
		}
		var child *object
		if sel := selected(); index >= 0 && index < len(sel) {
			child = sel[index].obj
		}
		return req.SetResult(p.hand(child))
	})
	p.handle(ds, "selectChild", func(req *corba.ServerRequest) error {
		index, err := readIndex(req)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(e.children) {
			return req.SetResult(false)
		}
		if !e.states[spi.StateMultiselectable] {
			for _, c := range e.children {
				delete(c.states, spi.StateSelected)
			}
		}
		e.children[index].states[spi.StateSelected] = true
		return req.SetResult(true)
	})
	p.handle(ds, "deselectSelectedChild", func(req *corba.ServerRequest) error {
		index, err := readIndex(req)
		if err != nil {
			return err
		}
		sel := selected()
		if index < 0 || index >= len(sel) {
			return req.SetResult(false)
		}
		delete(sel[index].states, spi.StateSelected)
		return req.SetResult(true)
	})
	p.handle(ds, "clearSelection", func(req *corba.ServerRequest) error {
		for _, c := range e.children {
			delete(c.states, spi.StateSelected)
		}
		return req.SetResult(true)
	})
}

func (p *Provider) actionOps(ds *corba.DynamicServant, e *element) {
	actions := e.node.Actions
	p.handle(ds, "_get_nActions", func(req *corba.ServerRequest) error {
		return req.SetResult(int32(len(actions)))
	})
	p.handle(ds, "getName", func(req *corba.ServerRequest) error {
		index, err := readIndex(req)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(actions) {
			return req.SetResult("")
		}
		return req.SetResult(actions[index].Name)
	})
	p.handle(ds, "getDescription", func(req *corba.ServerRequest) error {
		index, err := readIndex(req)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(actions) {
			return req.SetResult("")
		}
		return req.SetResult(actions[index].Description)
	})
	p.handle(ds, "doAction", func(req *corba.ServerRequest) error {
		index, err := readIndex(req)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(actions) {
			return req.SetResult(false)
		}
		e.performed = append(e.performed, index)
		p.log.WithField("node", e.node.Name).WithField("action", actions[index].Name).Debug("action performed")
		return req.SetResult(true)
	})
}

func (p *Provider) valueOps(ds *corba.DynamicServant, e *element) {
	v := e.node.Value
	p.handle(ds, "_get_minimumValue", func(req *corba.ServerRequest) error {
		return req.SetResult(v.Minimum)
	})
	p.handle(ds, "_get_maximumValue", func(req *corba.ServerRequest) error {
		return req.SetResult(v.Maximum)
	})
	p.handle(ds, "_get_currentValue", func(req *corba.ServerRequest) error {
		return req.SetResult(e.value)
	})
	p.handle(ds, "_set_currentValue", func(req *corba.ServerRequest) error {
		var value float64
		if err := req.ReadArgs(&value); err != nil {
			return err
		}
		switch {
		case value < v.Minimum:
			value = v.Minimum
		case value > v.Maximum:
			value = v.Maximum
		}
		e.value = value
		return nil
	})
}

func (p *Provider) hypertextOps(ds *corba.DynamicServant, e *element) {
	p.handle(ds, "getNLinks", func(req *corba.ServerRequest) error {
		return req.SetResult(int32(*e.node.Links))
	})
}

func (p *Provider) imageOps(ds *corba.DynamicServant, e *element) {
	img := e.node.Image
	p.handle(ds, "_get_imageDescription", func(req *corba.ServerRequest) error {
		return req.SetResult(img.Description)
	})
	p.handle(ds, "getImageSize", func(req *corba.ServerRequest) error {
		return req.SetResult(int32(img.Width), int32(img.Height))
	})
}
