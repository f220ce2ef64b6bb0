package spi

import (
	"context"
	"strconv"
)

// RelationType names how the targets of a relation relate to its source.
type RelationType int32

const (
	RelationNull RelationType = iota
	RelationLabelFor
	RelationLabelledBy
	RelationControllerFor
	RelationControlledBy
	RelationMemberOf
	RelationNodeChildOf
	RelationExtended
	RelationLastDefined
)

var relationNames = [...]string{
	RelationNull:          "null",
	RelationLabelFor:      "label for",
	RelationLabelledBy:    "labelled by",
	RelationControllerFor: "controller for",
	RelationControlledBy:  "controlled by",
	RelationMemberOf:      "member of",
	RelationNodeChildOf:   "node child of",
	RelationExtended:      "extended",
}

func (t RelationType) String() string {
	if t >= 0 && int(t) < len(relationNames) {
		return relationNames[t]
	}
	return "relation(" + strconv.Itoa(int(t)) + ")"
}

// ParseRelationType maps a relation name back to its type.
func ParseRelationType(name string) (RelationType, bool) {
	for i, n := range relationNames {
		if n == name {
			return RelationType(i), true
		}
	}
	return RelationNull, false
}

// Relation links an element to one or more targets.
type Relation struct {
	*Object
}

func asRelation(o *Object) *Relation {
	if o == nil {
		return nil
	}
	return &Relation{o}
}

// Handle returns the underlying handle, nil for a nil Relation.
func (r *Relation) Handle() *Object {
	if r == nil {
		return nil
	}
	return r.Object
}

// RelationType returns the type, RelationNull if the call failed.
func (r *Relation) RelationType(ctx context.Context) RelationType {
	var t RelationType
	if !r.Handle().call(ctx, "getRelationType", SeverityError, "getRelationType", nil, &t) {
		return RelationNull
	}
	return t
}

// NTargets returns the number of targets, or -1.
func (r *Relation) NTargets(ctx context.Context) int {
	return r.Handle().getInt(ctx, "getNTargets")
}

// Target returns the target at index, nil when out of range.
func (r *Relation) Target(ctx context.Context, index int) *Accessible {
	return AsAccessible(r.Handle().getObject(ctx, "getTarget", int32(index)))
}
