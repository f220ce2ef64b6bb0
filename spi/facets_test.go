package spi_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/ifabos/go-cspi/spi"
)

func TestComponent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ok := f.walk(t, 2)
	defer ok.Unref(ctx)
	c := ok.Component(ctx)
	if c == nil {
		t.Fatalf("expected a Component facet")
	}
	defer c.Unref(ctx)

	if got, good := c.Extents(ctx, spi.CoordTypeScreen); !good || got != (spi.Rect{X: 540, Y: 420, Width: 80, Height: 30}) {
		t.Errorf("unexpected extents %+v", got)
	}
	if got, good := c.Position(ctx, spi.CoordTypeWindow); !good || got != (spi.Point{X: 540, Y: 420}) {
		t.Errorf("unexpected position %+v", got)
	}
	if w, h, good := c.Size(ctx); !good || w != 80 || h != 30 {
		t.Errorf("unexpected size %dx%d", w, h)
	}
	if !c.Contains(ctx, 550, 430, spi.CoordTypeScreen) || c.Contains(ctx, 10, 10, spi.CoordTypeScreen) {
		t.Errorf("unexpected containment")
	}
	if !c.GrabFocus(ctx) {
		t.Errorf("expected the button to take focus")
	}
	if !hasState(f.prov.States(f.tree.Find("OK")), spi.StateFocused) {
		t.Errorf("expected the button to be focused")
	}

	window := f.root.Component(ctx)
	defer window.Unref(ctx)
	hit := window.AccessibleAtPoint(ctx, 545, 425, spi.CoordTypeScreen)
	if hit == nil || hit.Name(ctx) != "OK" {
		t.Fatalf("expected to hit OK")
	}
	hit.Unref(ctx)
	if miss := window.AccessibleAtPoint(ctx, 5, 470, spi.CoordTypeScreen); miss != nil {
		t.Errorf("expected no element at 5,470")
	}

	label := f.walk(t, 0, 0)
	defer label.Unref(ctx)
	lc := label.Component(ctx)
	defer lc.Unref(ctx)
	if lc.GrabFocus(ctx) {
		t.Errorf("expected the label to refuse focus")
	}
	f.expectNoErrors(t)
}

func TestTextAndEditableText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry := f.walk(t, 0, 1)
	defer entry.Unref(ctx)

	text := entry.Text(ctx)
	if text == nil {
		t.Fatalf("expected a Text facet")
	}
	defer text.Unref(ctx)
	if got := text.CharacterCount(ctx); got != 3 {
		t.Errorf("expected 3 characters, got %d", got)
	}
	if got := text.Text(ctx, 0, -1); got != "Ada" {
		t.Errorf("expected Ada, got %q", got)
	}
	if got := text.Text(ctx, 1, 2); got != "d" {
		t.Errorf("expected d, got %q", got)
	}
	if got := text.CaretOffset(ctx); got != 3 {
		t.Errorf("expected caret 3, got %d", got)
	}

	edit := entry.EditableText(ctx)
	if edit == nil {
		t.Fatalf("expected an EditableText facet")
	}
	defer edit.Unref(ctx)
	if !edit.InsertText(ctx, 3, " Lovelace") {
		t.Fatalf("InsertText failed")
	}
	if got := edit.Text(ctx, 0, -1); got != "Ada Lovelace" {
		t.Errorf("expected Ada Lovelace, got %q", got)
	}
	if !edit.DeleteText(ctx, 0, 4) {
		t.Fatalf("DeleteText failed")
	}
	if edit.DeleteText(ctx, 5, 2) || edit.InsertText(ctx, 99, "x") {
		t.Errorf("expected out of range edits to fail")
	}
	if got := f.prov.Contents(f.tree.Find("Name entry")); got != "Lovelace" {
		t.Errorf("expected Lovelace, got %q", got)
	}
	if !edit.SetTextContents(ctx, "Grace") || text.CharacterCount(ctx) != 5 {
		t.Errorf("SetTextContents was not applied")
	}

	label := f.walk(t, 0, 0)
	defer label.Unref(ctx)
	if label.IsEditableText(ctx) || label.EditableText(ctx) != nil {
		t.Errorf("expected no EditableText on the label")
	}
	f.expectNoErrors(t)
}

func TestTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	grid := f.walk(t, 1)
	defer grid.Unref(ctx)
	table := grid.Table(ctx)
	if table == nil {
		t.Fatalf("expected a Table facet")
	}
	defer table.Unref(ctx)

	if table.NRows(ctx) != 2 || table.NColumns(ctx) != 2 {
		t.Fatalf("expected a 2x2 table")
	}
	cell := table.AccessibleAt(ctx, 1, 0)
	if cell == nil || cell.Name(ctx) != "Bob" {
		t.Fatalf("expected Bob at 1,0")
	}
	cell.Unref(ctx)
	if table.AccessibleAt(ctx, 2, 0) != nil {
		t.Errorf("expected nil outside the table")
	}
	caption := table.Caption(ctx)
	if caption == nil || caption.Name(ctx) != "Scores caption" {
		t.Fatalf("expected the caption")
	}
	caption.Unref(ctx)
	f.expectNoErrors(t)
}

func TestSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	list := f.walk(t, 0, 3)
	defer list.Unref(ctx)
	if !list.IsSelection(ctx) {
		t.Fatalf("expected the list to be selectable")
	}
	sel := list.Selection(ctx)
	defer sel.Unref(ctx)

	if got := sel.NSelectedChildren(ctx); got != 1 {
		t.Fatalf("expected 1 selected child, got %d", got)
	}
	green := sel.SelectedChild(ctx, 0)
	if green == nil || green.Name(ctx) != "Green" {
		t.Fatalf("expected Green to be selected")
	}
	green.Unref(ctx)

	if !sel.SelectChild(ctx, 0) || sel.NSelectedChildren(ctx) != 2 {
		t.Fatalf("expected two selected children in a multiselectable list")
	}
	if !sel.DeselectSelectedChild(ctx, 1) {
		t.Fatalf("DeselectSelectedChild failed")
	}
	red := sel.SelectedChild(ctx, 0)
	if red == nil || red.Name(ctx) != "Red" {
		t.Fatalf("expected only Red to remain selected")
	}
	red.Unref(ctx)
	if sel.SelectChild(ctx, 3) || sel.DeselectSelectedChild(ctx, 4) {
		t.Errorf("expected out of range selection calls to fail")
	}
	if !sel.ClearSelection(ctx) || sel.NSelectedChildren(ctx) != 0 {
		t.Errorf("expected an empty selection")
	}
	f.expectNoErrors(t)
}

func TestActionValueHypertextImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ok := f.walk(t, 2)
	defer ok.Unref(ctx)
	action := ok.Action(ctx)
	defer action.Unref(ctx)
	if action.NActions(ctx) != 1 || action.Name(ctx, 0) != "click" {
		t.Fatalf("expected a click action")
	}
	if got := action.Description(ctx, 0); got != "Activates the button" {
		t.Errorf("unexpected description %q", got)
	}
	if action.Name(ctx, 3) != "" || action.DoAction(ctx, 3) {
		t.Errorf("expected out of range actions to fail")
	}
	if !action.DoAction(ctx, 0) {
		t.Fatalf("DoAction failed")
	}
	if got := f.prov.Performed(f.tree.Find("OK")); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("expected action 0 performed, got %v", got)
	}

	image := ok.Image(ctx)
	defer image.Unref(ctx)
	if image.Description(ctx) != "check mark" {
		t.Errorf("unexpected image description")
	}
	if w, h, good := image.Size(ctx); !good || w != 16 || h != 16 {
		t.Errorf("unexpected image size %dx%d", w, h)
	}

	slider := f.walk(t, 0, 2)
	defer slider.Unref(ctx)
	value := slider.Value(ctx)
	defer value.Unref(ctx)
	if v, good := value.Current(ctx); !good || v != 30 {
		t.Errorf("expected current 30, got %v", v)
	}
	if v, _ := value.Maximum(ctx); v != 100 {
		t.Errorf("expected maximum 100, got %v", v)
	}
	if v, _ := value.Minimum(ctx); v != 0 {
		t.Errorf("expected minimum 0, got %v", v)
	}
	if !value.SetCurrent(ctx, 150) {
		t.Fatalf("SetCurrent failed")
	}
	if v, _ := value.Current(ctx); v != 100 {
		t.Errorf("expected value clamped to 100, got %v", v)
	}

	label := f.walk(t, 0, 0)
	defer label.Unref(ctx)
	links := label.Hypertext(ctx)
	defer links.Unref(ctx)
	if got := links.NLinks(ctx); got != 1 {
		t.Errorf("expected 1 link, got %d", got)
	}
	f.expectNoErrors(t)
}

func hasState(states []spi.State, want spi.State) bool {
	for _, s := range states {
		if s == want {
			return true
		}
	}
	return false
}
