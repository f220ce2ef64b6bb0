package spi

import (
	"context"

	"github.com/ifabos/go-cspi/corba"
)

// Accessible is a handle on an element of the remote accessible tree.
type Accessible struct {
	*Object
}

// AsAccessible views o as an Accessible. A nil o yields nil.
func AsAccessible(o *Object) *Accessible {
	if o == nil {
		return nil
	}
	return &Accessible{o}
}

// WrapAccessible wraps ref as an Accessible handle.
func (r *Registry) WrapAccessible(ref *corba.ObjectRef) *Accessible {
	return AsAccessible(r.Wrap(ref))
}

// Handle returns the underlying handle, nil for a nil Accessible.
func (a *Accessible) Handle() *Object {
	if a == nil {
		return nil
	}
	return a.Object
}

// Name returns the accessible name.
func (a *Accessible) Name(ctx context.Context) string {
	return a.Handle().getString(ctx, "_get_name")
}

// Description returns the accessible description.
func (a *Accessible) Description(ctx context.Context) string {
	return a.Handle().getString(ctx, "_get_description")
}

// Parent returns the containing element, nil at the root.
func (a *Accessible) Parent(ctx context.Context) *Accessible {
	return AsAccessible(a.Handle().getObject(ctx, "_get_parent"))
}

// ChildCount returns the number of children, or -1 if the call failed.
func (a *Accessible) ChildCount(ctx context.Context) int {
	return a.Handle().getInt(ctx, "_get_childCount")
}

// ChildAtIndex returns the child at index, nil when there is none.
func (a *Accessible) ChildAtIndex(ctx context.Context, index int) *Accessible {
	return AsAccessible(a.Handle().getObject(ctx, "getChildAtIndex", int32(index)))
}

// IndexInParent returns the position among the parent's children, or -1.
func (a *Accessible) IndexInParent(ctx context.Context) int {
	return a.Handle().getInt(ctx, "getIndexInParent")
}

// RelationSet fetches the relations of the element. Every returned
// Relation is a handle of its own.
func (a *Accessible) RelationSet(ctx context.Context) []*Relation {
	o := a.Handle()
	var refs []*corba.ObjectRef
	if !o.call(ctx, "getRelationSet", SeverityError, "getRelationSet", nil, &refs) {
		return nil
	}
	relations := make([]*Relation, 0, len(refs))
	for _, ref := range refs {
		if rel := asRelation(o.reg.Wrap(ref)); rel != nil {
			relations = append(relations, rel)
		}
	}
	return relations
}

// Role returns the element role, RoleInvalid if the call failed.
func (a *Accessible) Role(ctx context.Context) Role {
	var role Role
	if !a.Handle().call(ctx, "getRole", SeverityError, "getRole", nil, &role) {
		return RoleInvalid
	}
	return role
}

// RoleName returns RoleName of the remote role.
func (a *Accessible) RoleName(ctx context.Context) string {
	return RoleName(a.Role(ctx))
}

// StateSet fetches a snapshot of the element's states.
func (a *Accessible) StateSet(ctx context.Context) *StateSet {
	return asStateSet(a.Handle().getObject(ctx, "getState"))
}

// QueryInterface asks for an interface by repository id.
func (a *Accessible) QueryInterface(ctx context.Context, repoID string) *Object {
	o := a.Handle()
	if o == nil {
		return nil
	}
	return o.reg.QueryInterface(ctx, o, repoID)
}

// HasCapability reports whether the element implements c.
func (a *Accessible) HasCapability(ctx context.Context, c Capability) bool {
	o := a.Handle()
	if o == nil {
		return false
	}
	return o.reg.HasCapability(ctx, o, c)
}

func (a *Accessible) capability(ctx context.Context, c Capability) *Object {
	o := a.Handle()
	if o == nil {
		return nil
	}
	return o.reg.QueryCapability(ctx, o, c)
}

// IsAction reports whether the element implements Action.
func (a *Accessible) IsAction(ctx context.Context) bool {
	return a.HasCapability(ctx, CapabilityAction)
}

// IsComponent reports whether the element implements Component.
func (a *Accessible) IsComponent(ctx context.Context) bool {
	return a.HasCapability(ctx, CapabilityComponent)
}

// IsEditableText reports whether the element implements EditableText.
func (a *Accessible) IsEditableText(ctx context.Context) bool {
	return a.HasCapability(ctx, CapabilityEditableText)
}

// IsHypertext reports whether the element implements Hypertext.
func (a *Accessible) IsHypertext(ctx context.Context) bool {
	return a.HasCapability(ctx, CapabilityHypertext)
}

// IsImage reports whether the element implements Image.
func (a *Accessible) IsImage(ctx context.Context) bool {
	return a.HasCapability(ctx, CapabilityImage)
}

// IsSelection reports whether the element implements Selection.
func (a *Accessible) IsSelection(ctx context.Context) bool {
	return a.HasCapability(ctx, CapabilitySelection)
}

// IsTable reports whether the element implements Table.
func (a *Accessible) IsTable(ctx context.Context) bool {
	return a.HasCapability(ctx, CapabilityTable)
}

// IsText reports whether the element implements Text.
func (a *Accessible) IsText(ctx context.Context) bool {
	return a.HasCapability(ctx, CapabilityText)
}

// IsValue reports whether the element implements Value.
func (a *Accessible) IsValue(ctx context.Context) bool {
	return a.HasCapability(ctx, CapabilityValue)
}

// Action returns the Action facet, nil when unsupported.
func (a *Accessible) Action(ctx context.Context) *Action {
	return asAction(a.capability(ctx, CapabilityAction))
}

// Component returns the Component facet, nil when unsupported.
func (a *Accessible) Component(ctx context.Context) *Component {
	return asComponent(a.capability(ctx, CapabilityComponent))
}

// EditableText returns the EditableText facet, nil when unsupported.
func (a *Accessible) EditableText(ctx context.Context) *EditableText {
	return asEditableText(a.capability(ctx, CapabilityEditableText))
}

// Hypertext returns the Hypertext facet, nil when unsupported.
func (a *Accessible) Hypertext(ctx context.Context) *Hypertext {
	return asHypertext(a.capability(ctx, CapabilityHypertext))
}

// Image returns the Image facet, nil when unsupported.
func (a *Accessible) Image(ctx context.Context) *Image {
	return asImage(a.capability(ctx, CapabilityImage))
}

// Selection returns the Selection facet, nil when unsupported.
func (a *Accessible) Selection(ctx context.Context) *Selection {
	return asSelection(a.capability(ctx, CapabilitySelection))
}

// Table returns the Table facet, nil when unsupported.
func (a *Accessible) Table(ctx context.Context) *Table {
	return asTable(a.capability(ctx, CapabilityTable))
}

// Text returns the Text facet, nil when unsupported.
func (a *Accessible) Text(ctx context.Context) *Text {
	return asText(a.capability(ctx, CapabilityText))
}

// Value returns the Value facet, nil when unsupported.
func (a *Accessible) Value(ctx context.Context) *Value {
	return asValue(a.capability(ctx, CapabilityValue))
}
