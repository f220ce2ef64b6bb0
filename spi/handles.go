package spi

import (
	"context"

	"github.com/ifabos/go-cspi/corba"
)

// The wrappers below forward the handle lifecycle through Handle, so a nil
// wrapper (the absence value of every facet getter) behaves like a nil
// *Object: Ref and Unref do nothing and RefCount reports 0.

// Reference returns the remote reference, nil for a nil Accessible.
func (a *Accessible) Reference() *corba.ObjectRef { return a.Handle().Reference() }

// RefCount returns the local reference count.
func (a *Accessible) RefCount() int { return a.Handle().RefCount() }

// Released reports whether the last reference has been released.
func (a *Accessible) Released() bool { return a.Handle().Released() }

// Ref takes another reference.
func (a *Accessible) Ref(ctx context.Context) { a.Handle().Ref(ctx) }

// Unref drops one reference.
func (a *Accessible) Unref(ctx context.Context) { a.Handle().Unref(ctx) }

func (a *Accessible) String() string { return a.Handle().String() }

// Reference returns the remote reference, nil for a nil Action.
func (a *Action) Reference() *corba.ObjectRef { return a.Handle().Reference() }

// RefCount returns the local reference count.
func (a *Action) RefCount() int { return a.Handle().RefCount() }

// Released reports whether the last reference has been released.
func (a *Action) Released() bool { return a.Handle().Released() }

// Ref takes another reference.
func (a *Action) Ref(ctx context.Context) { a.Handle().Ref(ctx) }

// Unref drops one reference.
func (a *Action) Unref(ctx context.Context) { a.Handle().Unref(ctx) }

func (a *Action) String() string { return a.Handle().String() }

// Reference returns the remote reference, nil for a nil Component.
func (c *Component) Reference() *corba.ObjectRef { return c.Handle().Reference() }

// RefCount returns the local reference count.
func (c *Component) RefCount() int { return c.Handle().RefCount() }

// Released reports whether the last reference has been released.
func (c *Component) Released() bool { return c.Handle().Released() }

// Ref takes another reference.
func (c *Component) Ref(ctx context.Context) { c.Handle().Ref(ctx) }

// Unref drops one reference.
func (c *Component) Unref(ctx context.Context) { c.Handle().Unref(ctx) }

func (c *Component) String() string { return c.Handle().String() }

// Reference returns the remote reference, nil for a nil EditableText.
func (t *EditableText) Reference() *corba.ObjectRef { return t.Handle().Reference() }

// RefCount returns the local reference count.
func (t *EditableText) RefCount() int { return t.Handle().RefCount() }

// Released reports whether the last reference has been released.
func (t *EditableText) Released() bool { return t.Handle().Released() }

// Ref takes another reference.
func (t *EditableText) Ref(ctx context.Context) { t.Handle().Ref(ctx) }

// Unref drops one reference.
func (t *EditableText) Unref(ctx context.Context) { t.Handle().Unref(ctx) }

func (t *EditableText) String() string { return t.Handle().String() }

// Reference returns the remote reference, nil for a nil Hypertext.
func (h *Hypertext) Reference() *corba.ObjectRef { return h.Handle().Reference() }

// RefCount returns the local reference count.
func (h *Hypertext) RefCount() int { return h.Handle().RefCount() }

// Released reports whether the last reference has been released.
func (h *Hypertext) Released() bool { return h.Handle().Released() }

// Ref takes another reference.
func (h *Hypertext) Ref(ctx context.Context) { h.Handle().Ref(ctx) }

// Unref drops one reference.
func (h *Hypertext) Unref(ctx context.Context) { h.Handle().Unref(ctx) }

func (h *Hypertext) String() string { return h.Handle().String() }

// Reference returns the remote reference, nil for a nil Image.
func (i *Image) Reference() *corba.ObjectRef { return i.Handle().Reference() }

// RefCount returns the local reference count.
func (i *Image) RefCount() int { return i.Handle().RefCount() }

// Released reports whether the last reference has been released.
func (i *Image) Released() bool { return i.Handle().Released() }

// Ref takes another reference.
func (i *Image) Ref(ctx context.Context) { i.Handle().Ref(ctx) }

// Unref drops one reference.
func (i *Image) Unref(ctx context.Context) { i.Handle().Unref(ctx) }

func (i *Image) String() string { return i.Handle().String() }

// Reference returns the remote reference, nil for a nil Relation.
func (r *Relation) Reference() *corba.ObjectRef { return r.Handle().Reference() }

// RefCount returns the local reference count.
func (r *Relation) RefCount() int { return r.Handle().RefCount() }

// Released reports whether the last reference has been released.
func (r *Relation) Released() bool { return r.Handle().Released() }

// Ref takes another reference.
func (r *Relation) Ref(ctx context.Context) { r.Handle().Ref(ctx) }

// Unref drops one reference.
func (r *Relation) Unref(ctx context.Context) { r.Handle().Unref(ctx) }

func (r *Relation) String() string { return r.Handle().String() }

// Reference returns the remote reference, nil for a nil Selection.
func (s *Selection) Reference() *corba.ObjectRef { return s.Handle().Reference() }

// RefCount returns the local reference count.
func (s *Selection) RefCount() int { return s.Handle().RefCount() }

// Released reports whether the last reference has been released.
func (s *Selection) Released() bool { return s.Handle().Released() }

// Ref takes another reference.
func (s *Selection) Ref(ctx context.Context) { s.Handle().Ref(ctx) }

// Unref drops one reference.
func (s *Selection) Unref(ctx context.Context) { s.Handle().Unref(ctx) }

func (s *Selection) String() string { return s.Handle().String() }

// Reference returns the remote reference, nil for a nil StateSet.
func (s *StateSet) Reference() *corba.ObjectRef { return s.Handle().Reference() }

// RefCount returns the local reference count.
func (s *StateSet) RefCount() int { return s.Handle().RefCount() }

// Released reports whether the last reference has been released.
func (s *StateSet) Released() bool { return s.Handle().Released() }

// Ref takes another reference.
func (s *StateSet) Ref(ctx context.Context) { s.Handle().Ref(ctx) }

// Unref drops one reference.
func (s *StateSet) Unref(ctx context.Context) { s.Handle().Unref(ctx) }

func (s *StateSet) String() string { return s.Handle().String() }

// Reference returns the remote reference, nil for a nil Table.
func (t *Table) Reference() *corba.ObjectRef { return t.Handle().Reference() }

// RefCount returns the local reference count.
func (t *Table) RefCount() int { return t.Handle().RefCount() }

// Released reports whether the last reference has been released.
func (t *Table) Released() bool { return t.Handle().Released() }

// Ref takes another reference.
func (t *Table) Ref(ctx context.Context) { t.Handle().Ref(ctx) }

// Unref drops one reference.
func (t *Table) Unref(ctx context.Context) { t.Handle().Unref(ctx) }

func (t *Table) String() string { return t.Handle().String() }

// Reference returns the remote reference, nil for a nil Text.
func (t *Text) Reference() *corba.ObjectRef { return t.Handle().Reference() }

// RefCount returns the local reference count.
func (t *Text) RefCount() int { return t.Handle().RefCount() }

// Released reports whether the last reference has been released.
func (t *Text) Released() bool { return t.Handle().Released() }

// Ref takes another reference.
func (t *Text) Ref(ctx context.Context) { t.Handle().Ref(ctx) }

// Unref drops one reference.
func (t *Text) Unref(ctx context.Context) { t.Handle().Unref(ctx) }

func (t *Text) String() string { return t.Handle().String() }

// Reference returns the remote reference, nil for a nil Value.
func (v *Value) Reference() *corba.ObjectRef { return v.Handle().Reference() }

// RefCount returns the local reference count.
func (v *Value) RefCount() int { return v.Handle().RefCount() }

// Released reports whether the last reference has been released.
func (v *Value) Released() bool { return v.Handle().Released() }

// Ref takes another reference.
func (v *Value) Ref(ctx context.Context) { v.Handle().Ref(ctx) }

// Unref drops one reference.
func (v *Value) Unref(ctx context.Context) { v.Handle().Unref(ctx) }

func (v *Value) String() string { return v.Handle().String() }
