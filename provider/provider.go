// Package provider serves a tree of accessible elements over a corba.Server.
//
// Every reference placed in a reply carries one provider side reference
// that the caller gives back with unref. Element objects stay active for
// the provider's lifetime; facets, relations and state sets are created
// per request and deactivated once their last reference is released.
package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ifabos/go-cspi/corba"
	"github.com/ifabos/go-cspi/spi"
)

type object struct {
	ref       *corba.ObjectRef
	count     int
	transient bool

	// members of a state set object
	states map[spi.State]bool
}

type element struct {
	node      *Node
	parent    *element
	children  []*element
	index     int
	states    map[spi.State]bool
	text      []rune
	caret     int
	value     float64
	performed []int
	obj       *object
}

// Provider owns the servants behind one served tree.
type Provider struct {
	server  *corba.Server
	log     logrus.FieldLogger
	metrics *Metrics

	mu       sync.Mutex
	root     *element
	elements map[*Node]*element
	byID     map[string]*element
	objects  map[string]*object
	focused  *element
}

// Option configures a Provider
type Option func(*Provider)

func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Provider) {
		if log != nil {
			p.log = log
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Provider) {
		p.metrics = m
	}
}

// Serve activates a servant for every node under root on server. The root
// reference starts with one provider side reference, owned by whoever the
// stringified root IOR is handed to.
func Serve(server *corba.Server, root *Node, opts ...Option) (*Provider, error) {
	if err := Validate(root); err != nil {
		return nil, err
	}

	p := &Provider{
		server:   server,
		log:      logrus.StandardLogger(),
		elements: make(map[*Node]*element),
		byID:     make(map[string]*element),
		objects:  make(map[string]*object),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.root = p.build(root, nil, -1)
	p.root.obj.count = 1
	p.updateMetrics()

	p.log.WithFields(logrus.Fields{
		"root":    root.Name,
		"objects": len(p.objects),
	}).Info("provider serving tree")
	return p, nil
}

func (p *Provider) build(n *Node, parent *element, index int) *element {
	e := &element{
		node:   n,
		parent: parent,
		index:  index,
		states: make(map[spi.State]bool),
	}
	for _, name := range n.States {
		s, _ := spi.ParseState(name)
		e.states[s] = true
	}
	if n.Text != nil {
		e.text = []rune(n.Text.Contents)
		e.caret = clamp(n.Text.Caret, 0, len(e.text))
	}
	if n.Value != nil {
		e.value = n.Value.Current
	}
	if e.states[spi.StateFocused] {
		p.focused = e
	}

	p.elements[n] = e
	if n.ID != "" {
		p.byID[n.ID] = e
	}
	e.obj = p.activate(spi.AccessibleRepoID, false, p.accessibleServant(e))

	for i, c := range n.Children {
		e.children = append(e.children, p.build(c, e, i))
	}
	return e
}

// activate registers ds with a fresh object and the ref/unref operations.
// Callers hold p.mu.
func (p *Provider) activate(repoID string, transient bool, ds *corba.DynamicServant) *object {
	o := &object{transient: transient}

	p.handle(ds, "ref", func(req *corba.ServerRequest) error {
		o.count++
		p.updateMetrics()
		return nil
	})
	p.handle(ds, "unref", func(req *corba.ServerRequest) error {
		if o.count == 0 {
			return corba.BAD_PARAM(1, corba.CompletionStatusNo)
		}
		o.count--
		if o.count == 0 && o.transient {
			p.server.Deactivate(o.ref)
			delete(p.objects, string(o.ref.ObjectKey()))
		}
		p.updateMetrics()
		return nil
	})

	o.ref = p.server.Activate(repoID, ds)
	p.objects[string(o.ref.ObjectKey())] = o
	return o
}

// handle registers h for op. Handlers run with p.mu held.
func (p *Provider) handle(ds *corba.DynamicServant, op string, h corba.OperationHandler) {
	ds.Handle(op, func(req *corba.ServerRequest) error {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.metrics.request(op)
		return h(req)
	})
}

// hand returns the reference of o for a reply, taking one reference
// on behalf of the caller.
func (p *Provider) hand(o *object) *corba.ObjectRef {
	if o == nil {
		return nil
	}
	o.count++
	p.updateMetrics()
	return o.ref
}

func (p *Provider) updateMetrics() {
	p.metrics.setOutstanding(p.outstanding())
}

func (p *Provider) outstanding() int {
	total := 0
	for _, o := range p.objects {
		total += o.count
	}
	return total
}

// Root returns the reference of the root element.
func (p *Provider) Root() *corba.ObjectRef {
	return p.root.obj.ref
}

// IOR returns the stringified root reference.
func (p *Provider) IOR() string {
	s, _ := p.Root().ToString()
	return s
}

// RefCount returns the references callers hold to n's element object.
func (p *Provider) RefCount(n *Node) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.elements[n]
	if !ok {
		return 0
	}
	return e.obj.count
}

// Outstanding returns the references callers hold across all objects.
func (p *Provider) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding()
}

// Transient returns the number of active facet, relation and state set objects.
func (p *Provider) Transient() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, o := range p.objects {
		if o.transient {
			n++
		}
	}
	return n
}

// Active returns the number of objects active on the provider's server.
func (p *Provider) Active() int {
	return p.server.ActiveObjects()
}

// Performed returns the indices of the actions run on n, in order.
func (p *Provider) Performed(n *Node) []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.elements[n]
	if !ok {
		return nil
	}
	return append([]int(nil), e.performed...)
}

// States returns the current states of n in ascending order.
func (p *Provider) States(n *Node) []spi.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.elements[n]
	if !ok {
		return nil
	}
	return sortedStates(e.states)
}

// Contents returns the current text of n.
func (p *Provider) Contents(n *Node) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.elements[n]
	if !ok {
		return ""
	}
	return string(e.text)
}

// Close deactivates every object. Later requests raise OBJECT_NOT_EXIST.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, o := range p.objects {
		p.server.Deactivate(o.ref)
		delete(p.objects, key)
	}
	p.updateMetrics()
}

func (p *Provider) String() string {
	return fmt.Sprintf("provider(%s)", p.root.node.Name)
}

func sortedStates(set map[spi.State]bool) []spi.State {
	states := make([]spi.State, 0, len(set))
	for s, on := range set {
		if on {
			states = append(states, s)
		}
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	return states
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
