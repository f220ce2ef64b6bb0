// Package spi is a client binding for a remote accessibility object model.
//
// Accessible elements live in an out-of-process provider and are reached
// through object references. Every reference the binding hands out is owned
// by a handle (*Object, or a typed wrapper embedding one) tracked by a
// Registry. Failed remote calls never panic or return errors; they are
// passed to the registry's error hook and the call returns its documented
// absence value: nil, false, -1 or "".
package spi

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ifabos/go-cspi/corba"
)

// Handle is implemented by *Object and by every typed wrapper around one.
type Handle interface {
	Handle() *Object
}

// Object owns one remote reference and its local reference count.
type Object struct {
	reg   *Registry
	ref   *corba.ObjectRef
	count int
}

// Handle returns o.
func (o *Object) Handle() *Object {
	return o
}

// Reference returns the remote reference owned by o.
func (o *Object) Reference() *corba.ObjectRef {
	if o == nil {
		return nil
	}
	return o.ref
}

// RefCount returns the local reference count. Released handles report 0.
func (o *Object) RefCount() int {
	if o == nil {
		return 0
	}
	o.reg.mu.Lock()
	defer o.reg.mu.Unlock()
	return o.count
}

// Released reports whether the last reference to o has been released.
func (o *Object) Released() bool {
	return o.RefCount() <= 0
}

// Ref takes another reference to o.
func (o *Object) Ref(ctx context.Context) {
	if o != nil {
		o.reg.Retain(ctx, o)
	}
}

// Unref drops one reference to o.
func (o *Object) Unref(ctx context.Context) {
	if o != nil {
		o.reg.Release(ctx, o)
	}
}

func (o *Object) String() string {
	if o == nil {
		return "<nil>"
	}
	return o.ref.String()
}

// Registry tracks the handles wrapping references obtained through one client.
//
// Bookkeeping is locked, but Retain and Release on the same handle from
// several goroutines still race with respect to the remote count.
type Registry struct {
	client  *corba.Client
	log     logrus.FieldLogger
	hook    ErrorHook
	metrics *Metrics
	timeout time.Duration

	mu      sync.Mutex
	handles map[*Object]struct{}
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger of the default error hook.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithErrorHook replaces the default logging hook.
func WithErrorHook(hook ErrorHook) Option {
	return func(r *Registry) {
		r.hook = hook
	}
}

// WithMetrics records calls and live handles in m.
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithCallTimeout bounds calls whose context carries no deadline.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.timeout = d
	}
}

// NewRegistry creates a registry issuing calls through client.
func NewRegistry(client *corba.Client, opts ...Option) *Registry {
	r := &Registry{
		client:  client,
		log:     client.ORB().Logger(),
		handles: make(map[*Object]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.hook == nil {
		r.hook = LogErrorHook(r.log)
	}
	if r.metrics != nil {
		client.ORB().RegisterClientRequestInterceptor(r.metrics)
	}
	return r
}

// Client returns the client the registry calls through.
func (r *Registry) Client() *corba.Client {
	return r.client
}

// Wrap takes ownership of ref, returning a new handle with a local count of
// one. The nil reference yields nil. Each call yields a distinct handle.
func (r *Registry) Wrap(ref *corba.ObjectRef) *Object {
	if ref.IsNil() {
		return nil
	}
	if ref.Client() != r.client {
		ref = r.client.Bind(ref)
	}

	o := &Object{reg: r, ref: ref, count: 1}
	r.mu.Lock()
	r.handles[o] = struct{}{}
	live := len(r.handles)
	r.mu.Unlock()
	r.metrics.setLive(live)
	return o
}

// Retain increments the local count of h and takes a remote reference.
// The local count is kept even when the remote call fails.
func (r *Registry) Retain(ctx context.Context, h Handle) {
	o := handleOf(h)
	if o == nil {
		return
	}

	r.mu.Lock()
	if o.count <= 0 {
		r.mu.Unlock()
		r.report("ref", o, SeverityError, ErrReleased)
		return
	}
	o.count++
	r.mu.Unlock()

	if _, err := r.invoke(ctx, o, "ref"); err != nil {
		r.report("ref", o, SeverityError, err)
	}
}

// Release decrements the local count of h and drops a remote reference. A
// handle reaching zero leaves the registry and must not be used again.
func (r *Registry) Release(ctx context.Context, h Handle) {
	o := handleOf(h)
	if o == nil {
		return
	}

	r.mu.Lock()
	if o.count <= 0 {
		r.mu.Unlock()
		r.report("unref", o, SeverityError, ErrReleased)
		return
	}
	o.count--
	if o.count == 0 {
		delete(r.handles, o)
	}
	live := len(r.handles)
	r.mu.Unlock()
	r.metrics.setLive(live)

	if _, err := r.invoke(ctx, o, "unref"); err != nil {
		r.report("unref", o, SeverityError, err)
	}
}

// QueryInterface asks h for the interface with repository id repoID. An
// object without it yields nil and no error is reported.
func (r *Registry) QueryInterface(ctx context.Context, h Handle, repoID string) *Object {
	return r.query(ctx, handleOf(h), repoID, "queryInterface", SeverityError)
}

// QueryCapability returns a new handle on the c facet of h, or nil when the
// object does not implement it.
func (r *Registry) QueryCapability(ctx context.Context, h Handle, c Capability) *Object {
	sev := SeverityError
	if warnOnGet[c] {
		sev = SeverityWarn
	}
	return r.query(ctx, handleOf(h), c.RepoID(), "get"+c.String(), sev)
}

// HasCapability reports whether h implements c. The facet obtained to
// answer is released before returning.
func (r *Registry) HasCapability(ctx context.Context, h Handle, c Capability) bool {
	sev := SeverityError
	if warnOnIs[c] {
		sev = SeverityWarn
	}
	facet := r.query(ctx, handleOf(h), c.RepoID(), "is"+c.String(), sev)
	if facet == nil {
		return false
	}
	r.Release(ctx, facet)
	return true
}

func (r *Registry) query(ctx context.Context, o *Object, repoID, op string, sev Severity) *Object {
	var ref *corba.ObjectRef
	if !o.call(ctx, op, sev, "queryInterface", []interface{}{repoID}, &ref) {
		return nil
	}
	return r.Wrap(ref)
}

// Live returns the number of handles not yet fully released.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Close releases every outstanding reference of every live handle.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	handles := make([]*Object, 0, len(r.handles))
	for o := range r.handles {
		handles = append(handles, o)
	}
	r.mu.Unlock()

	for _, o := range handles {
		for !o.Released() {
			r.Release(ctx, o)
		}
	}
}

func (r *Registry) invoke(ctx context.Context, o *Object, op string, args ...interface{}) (*corba.Reply, error) {
	if r.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
	}
	return o.ref.Invoke(ctx, op, args...)
}

func (r *Registry) report(op string, o *Object, sev Severity, err error) {
	if r.hook == nil {
		return
	}
	r.hook(&CallError{Op: op, Object: o.String(), Severity: sev, Err: err})
}

func handleOf(h Handle) *Object {
	if h == nil {
		return nil
	}
	return h.Handle()
}

// call invokes remote on o and decodes its results. Failures are reported
// under op and false is returned.
func (o *Object) call(ctx context.Context, op string, sev Severity, remote string, args []interface{}, results ...interface{}) bool {
	if o == nil {
		return false
	}
	r := o.reg
	if o.Released() {
		r.report(op, o, sev, ErrReleased)
		return false
	}

	reply, err := r.invoke(ctx, o, remote, args...)
	if err == nil {
		err = reply.Decode(results...)
	}
	if err != nil {
		r.report(op, o, sev, err)
		return false
	}
	return true
}

func (o *Object) getString(ctx context.Context, op string, args ...interface{}) string {
	var s string
	if !o.call(ctx, op, SeverityError, op, args, &s) {
		return ""
	}
	return s
}

func (o *Object) getInt(ctx context.Context, op string, args ...interface{}) int {
	var n int32
	if !o.call(ctx, op, SeverityError, op, args, &n) {
		return -1
	}
	return int(n)
}

func (o *Object) getBool(ctx context.Context, op string, args ...interface{}) bool {
	var b bool
	if !o.call(ctx, op, SeverityError, op, args, &b) {
		return false
	}
	return b
}

func (o *Object) getDouble(ctx context.Context, op string) (float64, bool) {
	var v float64
	if !o.call(ctx, op, SeverityError, op, nil, &v) {
		return 0, false
	}
	return v, true
}

// getObject returns a new handle on the reference op returns.
func (o *Object) getObject(ctx context.Context, op string, args ...interface{}) *Object {
	var ref *corba.ObjectRef
	if !o.call(ctx, op, SeverityError, op, args, &ref) {
		return nil
	}
	return o.reg.Wrap(ref)
}
