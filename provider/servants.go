package provider

import (
	"github.com/ifabos/go-cspi/corba"
	"github.com/ifabos/go-cspi/spi"
)

func (p *Provider) accessibleServant(e *element) *corba.DynamicServant {
	ds := corba.NewDynamicServant(spi.AccessibleRepoID)

	p.handle(ds, "_get_name", func(req *corba.ServerRequest) error {
		return req.SetResult(e.node.Name)
	})
	p.handle(ds, "_get_description", func(req *corba.ServerRequest) error {
		return req.SetResult(e.node.Description)
	})
	p.handle(ds, "_get_parent", func(req *corba.ServerRequest) error {
		var parent *object
		if e.parent != nil {
			parent = e.parent.obj
		}
		return req.SetResult(p.hand(parent))
	})
	p.handle(ds, "_get_childCount", func(req *corba.ServerRequest) error {
		return req.SetResult(int32(len(e.children)))
	})
	p.handle(ds, "getChildAtIndex", func(req *corba.ServerRequest) error {
		var index int32
		if err := req.ReadArgs(&index); err != nil {
			return err
		}
		var child *object
		if index >= 0 && int(index) < len(e.children) {
			child = e.children[index].obj
		}
		return req.SetResult(p.hand(child))
	})
	p.handle(ds, "getIndexInParent", func(req *corba.ServerRequest) error {
		return req.SetResult(int32(e.index))
	})
	p.handle(ds, "getRelationSet", func(req *corba.ServerRequest) error {
		refs := make([]*corba.ObjectRef, 0, len(e.node.Relations))
		for _, rel := range e.node.Relations {
			refs = append(refs, p.hand(p.relation(rel)))
		}
		return req.SetResult(refs)
	})
	p.handle(ds, "getRole", func(req *corba.ServerRequest) error {
		return req.SetResult(e.node.Role)
	})
	p.handle(ds, "getState", func(req *corba.ServerRequest) error {
		return req.SetResult(p.hand(p.stateSet(e.states)))
	})
	p.queryOps(ds, e)
	return ds
}

func (p *Provider) queryOps(ds *corba.DynamicServant, e *element) {
	p.handle(ds, "queryInterface", func(req *corba.ServerRequest) error {
		var repoID string
		if err := req.ReadArgs(&repoID); err != nil {
			return err
		}
		return req.SetResult(p.hand(p.queryInterface(e, repoID)))
	})
}

// queryInterface returns the object implementing repoID for e, nil when
// e does not implement it.
func (p *Provider) queryInterface(e *element, repoID string) *object {
	if repoID == spi.AccessibleRepoID {
		return e.obj
	}
	c, ok := spi.ParseCapability(repoID)
	if !ok || c.RepoID() != repoID || !e.node.supports(c) {
		return nil
	}
	return p.facet(e, c)
}

func (p *Provider) facet(e *element, c spi.Capability) *object {
	ds := corba.NewDynamicServant(c.RepoID())
	switch c {
	case spi.CapabilityAction:
		p.actionOps(ds, e)
	case spi.CapabilityComponent:
		p.componentOps(ds, e)
	case spi.CapabilityEditableText:
		p.textOps(ds, e)
		p.editableTextOps(ds, e)
	case spi.CapabilityHypertext:
		p.hypertextOps(ds, e)
	case spi.CapabilityImage:
		p.imageOps(ds, e)
	case spi.CapabilitySelection:
		p.selectionOps(ds, e)
	case spi.CapabilityTable:
		p.tableOps(ds, e)
	case spi.CapabilityText:
		p.textOps(ds, e)
	case spi.CapabilityValue:
		p.valueOps(ds, e)
	}
	p.queryOps(ds, e)
	return p.activate(c.RepoID(), true, ds)
}

func (p *Provider) relation(rel Relation) *object {
	t, _ := spi.ParseRelationType(rel.Type)
	targets := make([]*element, 0, len(rel.Targets))
	for _, id := range rel.Targets {
		targets = append(targets, p.byID[id])
	}

	ds := corba.NewDynamicServant("IDL:Accessibility/Relation:1.0")
	p.handle(ds, "getRelationType", func(req *corba.ServerRequest) error {
		return req.SetResult(t)
	})
	p.handle(ds, "getNTargets", func(req *corba.ServerRequest) error {
		return req.SetResult(int32(len(targets)))
	})
	p.handle(ds, "getTarget", func(req *corba.ServerRequest) error {
		var index int32
		if err := req.ReadArgs(&index); err != nil {
			return err
		}
		var target *object
		if index >= 0 && int(index) < len(targets) {
			target = targets[index].obj
		}
		return req.SetResult(p.hand(target))
	})
	return p.activate("IDL:Accessibility/Relation:1.0", true, ds)
}

// stateSet creates a set object holding a copy of states.
func (p *Provider) stateSet(states map[spi.State]bool) *object {
	members := make(map[spi.State]bool, len(states))
	for s, on := range states {
		if on {
			members[s] = true
		}
	}

	ds := corba.NewDynamicServant("IDL:Accessibility/StateSet:1.0")
	o := p.activate("IDL:Accessibility/StateSet:1.0", true, ds)
	o.states = members

	readState := func(req *corba.ServerRequest) (spi.State, error) {
		var s spi.State
		err := req.ReadArgs(&s)
		return s, err
	}
	readOther := func(req *corba.ServerRequest) (*object, error) {
		var ref *corba.ObjectRef
		if err := req.ReadArgs(&ref); err != nil {
			return nil, err
		}
		if ref.IsNil() {
			return nil, corba.BAD_PARAM(2, corba.CompletionStatusNo)
		}
		other, ok := p.objects[string(ref.ObjectKey())]
		if !ok || other.states == nil {
			return nil, corba.BAD_PARAM(3, corba.CompletionStatusNo)
		}
		return other, nil
	}

	p.handle(ds, "contains", func(req *corba.ServerRequest) error {
		s, err := readState(req)
		if err != nil {
			return err
		}
		return req.SetResult(o.states[s])
	})
	p.handle(ds, "add", func(req *corba.ServerRequest) error {
		s, err := readState(req)
		if err != nil {
			return err
		}
		o.states[s] = true
		return nil
	})
	p.handle(ds, "remove", func(req *corba.ServerRequest) error {
		s, err := readState(req)
		if err != nil {
			return err
		}
		delete(o.states, s)
		return nil
	})
	p.handle(ds, "equals", func(req *corba.ServerRequest) error {
		other, err := readOther(req)
		if err != nil {
			return err
		}
		equal := len(o.states) == len(other.states)
		for s := range o.states {
			if !other.states[s] {
				equal = false
			}
		}
		return req.SetResult(equal)
	})
	p.handle(ds, "compare", func(req *corba.ServerRequest) error {
		other, err := readOther(req)
		if err != nil {
			return err
		}
		diff := make(map[spi.State]bool)
		for s := range o.states {
			if !other.states[s] {
				diff[s] = true
			}
		}
		for s := range other.states {
			if !o.states[s] {
				diff[s] = true
			}
		}
		return req.SetResult(p.hand(p.stateSet(diff)))
	})
	p.handle(ds, "isEmpty", func(req *corba.ServerRequest) error {
		return req.SetResult(len(o.states) == 0)
	})
	p.handle(ds, "getStates", func(req *corba.ServerRequest) error {
		return req.SetResult(sortedStates(o.states))
	})
	return o
}
