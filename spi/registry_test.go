package spi_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ifabos/go-cspi/corba"
	"github.com/ifabos/go-cspi/spi"
)

func TestWrapNilReturnsNil(t *testing.T) {
	f := newFixture(t)
	if h := f.reg.Wrap(nil); h != nil {
		t.Fatalf("expected nil handle, got %v", h)
	}
	if a := f.reg.WrapAccessible(nil); a != nil {
		t.Fatalf("expected nil accessible, got %v", a)
	}
	if f.reg.Live() != 1 {
		t.Fatalf("expected only the root to be live, got %d", f.reg.Live())
	}
}

func TestWrapReturnsDistinctHandles(t *testing.T) {
	f := newFixture(t)
	a := f.reg.Wrap(f.prov.Root())
	b := f.reg.Wrap(f.prov.Root())
	if a == nil || b == nil || a == b || a == f.root.Object {
		t.Fatalf("expected distinct handles, got %p %p %p", a, b, f.root.Object)
	}
	if a.RefCount() != 1 || b.RefCount() != 1 {
		t.Fatalf("expected count 1 on wrap, got %d and %d", a.RefCount(), b.RefCount())
	}
	if f.reg.Live() != 3 {
		t.Fatalf("expected 3 live handles, got %d", f.reg.Live())
	}
}

func TestRetainReleaseSymmetric(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const n = 3
	for i := 0; i < n; i++ {
		f.reg.Retain(ctx, f.root)
	}
	if got := f.root.RefCount(); got != n+1 {
		t.Fatalf("expected local count %d, got %d", n+1, got)
	}
	if got := f.prov.RefCount(f.tree); got != n+1 {
		t.Fatalf("expected provider count %d, got %d", n+1, got)
	}

	for i := 0; i < n; i++ {
		f.reg.Release(ctx, f.root)
	}
	if got := f.root.RefCount(); got != 1 {
		t.Fatalf("expected local count back at 1, got %d", got)
	}
	if got := f.prov.RefCount(f.tree); got != 1 {
		t.Fatalf("expected provider count back at 1, got %d", got)
	}
	f.expectNoErrors(t)
}

func TestReleaseLastReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.root.Unref(ctx)
	if !f.root.Released() {
		t.Fatalf("expected root to be released")
	}
	if f.reg.Live() != 0 {
		t.Fatalf("expected no live handles, got %d", f.reg.Live())
	}
	if got := f.prov.Outstanding(); got != 0 {
		t.Fatalf("expected no outstanding provider references, got %d", got)
	}

	// A dead handle reports instead of calling out.
	f.reg.Release(ctx, f.root)
	f.reg.Retain(ctx, f.root)
	if name := f.root.Name(ctx); name != "" {
		t.Fatalf("expected empty name from released handle, got %q", name)
	}

	errs := f.reported()
	if len(errs) != 3 {
		t.Fatalf("expected 3 reported errors, got %d", len(errs))
	}
	for _, err := range errs {
		if !errors.Is(err, spi.ErrReleased) {
			t.Errorf("expected ErrReleased, got %v", err)
		}
	}
	if errs[0].Op != "unref" || errs[1].Op != "ref" || errs[2].Op != "_get_name" {
		t.Errorf("unexpected ops %q %q %q", errs[0].Op, errs[1].Op, errs[2].Op)
	}
	if got := f.prov.Outstanding(); got != 0 {
		t.Fatalf("expected no remote calls after release, got %d outstanding", got)
	}
}

func TestConcurrentReleaseOfLastReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	form := f.walk(t, 0)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.reg.Release(ctx, form)
		}()
	}
	wg.Wait()

	if !form.Released() || form.RefCount() != 0 {
		t.Fatalf("expected form released at count 0, got %d", form.RefCount())
	}
	if got := f.prov.RefCount(f.tree.Children[0]); got != 0 {
		t.Fatalf("expected one remote unref, provider count %d", got)
	}
	errs := f.reported()
	if len(errs) != 1 || !errors.Is(errs[0], spi.ErrReleased) {
		t.Fatalf("expected one ErrReleased report, got %v", errs)
	}

	done := make(chan struct{})
	go func() {
		f.reg.Close(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Close did not return")
	}
	if f.reg.Live() != 0 {
		t.Fatalf("expected no live handles, got %d", f.reg.Live())
	}
}

func TestNilHandleOperationsAreNoOps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var missing *spi.Accessible
	f.reg.Retain(ctx, missing)
	f.reg.Release(ctx, nil)
	if missing.Name(ctx) != "" || missing.ChildCount(ctx) != -1 || missing.IsText(ctx) {
		t.Fatalf("expected absence values from a nil handle")
	}
	if missing.Text(ctx) != nil {
		t.Fatalf("expected nil facet from a nil handle")
	}
	if missing.RefCount() != 0 || !missing.Released() || missing.Reference() != nil {
		t.Fatalf("expected a nil Accessible to report no references")
	}
	missing.Ref(ctx)
	missing.Unref(ctx)
	f.expectNoErrors(t)
}

func TestNilFacetLifecycleIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	text := f.root.Text(ctx)
	if text != nil {
		t.Fatalf("expected no Text facet on the window")
	}
	text.Ref(ctx)
	text.Unref(ctx)
	if text.RefCount() != 0 || !text.Released() || text.String() != "<nil>" {
		t.Fatalf("expected a nil Text to report no references")
	}

	var edit *spi.EditableText
	edit.Unref(ctx)
	if edit.CharacterCount(ctx) != -1 || edit.Text(ctx, 0, -1) != "" || edit.CaretOffset(ctx) != -1 {
		t.Fatalf("expected absence values from a nil EditableText")
	}

	var (
		action    *spi.Action
		component *spi.Component
		hypertext *spi.Hypertext
		image     *spi.Image
		relation  *spi.Relation
		selection *spi.Selection
		states    *spi.StateSet
		table     *spi.Table
		value     *spi.Value
	)
	for _, h := range []interface {
		Ref(context.Context)
		Unref(context.Context)
		RefCount() int
	}{action, component, hypertext, image, relation, selection, states, table, value} {
		h.Ref(ctx)
		h.Unref(ctx)
		if h.RefCount() != 0 {
			t.Fatalf("expected %T to report 0 references", h)
		}
	}

	if f.reg.Live() != 1 || f.prov.Transient() != 0 {
		t.Fatalf("expected no new handles, live=%d transient=%d", f.reg.Live(), f.prov.Transient())
	}
	f.expectNoErrors(t)
}

func TestQueryCapabilityUnsupportedDoesNotLeak(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if facet := f.reg.QueryCapability(ctx, f.root, spi.CapabilityText); facet != nil {
		t.Fatalf("expected nil Text facet on the window, got %v", facet)
	}
	if got := f.root.RefCount(); got != 1 {
		t.Fatalf("expected local count unchanged, got %d", got)
	}
	if got := f.prov.RefCount(f.tree); got != 1 {
		t.Fatalf("expected provider count unchanged, got %d", got)
	}
	if f.reg.Live() != 1 || f.prov.Transient() != 0 {
		t.Fatalf("expected no new handles, live=%d transient=%d", f.reg.Live(), f.prov.Transient())
	}
	f.expectNoErrors(t)
}

func TestHasCapabilityAgreesWithQueryCapability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, path := range [][]int{nil, {0, 1}, {0, 2}, {0, 3}, {1}, {2}, {0, 0}} {
		a := f.walk(t, path...)
		before := f.prov.Outstanding()
		for _, c := range spi.Capabilities() {
			has := f.reg.HasCapability(ctx, a, c)
			if got := f.prov.Outstanding(); got != before {
				t.Fatalf("%v %s: hasCapability left %d outstanding references", path, c, got-before)
			}
			facet := f.reg.QueryCapability(ctx, a, c)
			if has != (facet != nil) {
				t.Errorf("%v %s: hasCapability=%v queryCapability=%v", path, c, has, facet)
			}
			f.reg.Release(ctx, facet)
		}
		if a != f.root {
			a.Unref(ctx)
		}
	}

	if f.prov.Transient() != 0 {
		t.Fatalf("expected every facet to be released, %d remain", f.prov.Transient())
	}
	if f.reg.Live() != 1 || f.prov.Outstanding() != 1 {
		t.Fatalf("expected only the root reference, live=%d outstanding=%d", f.reg.Live(), f.prov.Outstanding())
	}
	f.expectNoErrors(t)
}

func TestQueryInterfaceByRepositoryID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	self := f.root.QueryInterface(ctx, spi.AccessibleRepoID)
	if self == nil || self == f.root.Object {
		t.Fatalf("expected a new handle on the root, got %v", self)
	}
	if !self.Reference().Equals(f.root.Reference()) {
		t.Fatalf("expected the same remote object")
	}
	if f.prov.RefCount(f.tree) != 2 {
		t.Fatalf("expected two provider references, got %d", f.prov.RefCount(f.tree))
	}
	self.Unref(ctx)

	if unknown := f.root.QueryInterface(ctx, "IDL:Accessibility/Unknown:1.0"); unknown != nil {
		t.Fatalf("expected nil for an unknown interface")
	}
	f.expectNoErrors(t)
}

func TestRetainFailureKeepsLocalBookkeeping(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.prov.Close()
	f.reg.Retain(ctx, f.root)
	if got := f.root.RefCount(); got != 2 {
		t.Fatalf("expected local count 2 after failed retain, got %d", got)
	}
	f.reg.Release(ctx, f.root)
	f.reg.Release(ctx, f.root)
	if !f.root.Released() || f.reg.Live() != 0 {
		t.Fatalf("expected release to complete locally despite failures")
	}

	errs := f.reported()
	if len(errs) != 3 {
		t.Fatalf("expected 3 reported failures, got %d", len(errs))
	}
	notExist := corba.OBJECT_NOT_EXIST(0, corba.CompletionStatusNo)
	for _, err := range errs {
		if !errors.Is(err, notExist) {
			t.Errorf("expected OBJECT_NOT_EXIST, got %v", err)
		}
	}
}

func TestUnreachableProviderReturnsAbsenceValues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	component := f.root.Component(ctx)
	if component == nil {
		t.Fatalf("expected a Component facet on the window")
	}
	if err := f.server.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	f.server.Wait()

	if got := f.root.Name(ctx); got != "" {
		t.Errorf("expected empty name, got %q", got)
	}
	if got := f.root.ChildCount(ctx); got != -1 {
		t.Errorf("expected child count -1, got %d", got)
	}
	if got := f.root.ChildAtIndex(ctx, 0); got != nil {
		t.Errorf("expected nil child, got %v", got)
	}
	if got := f.root.Role(ctx); got != spi.RoleInvalid {
		t.Errorf("expected RoleInvalid, got %v", got)
	}
	if f.root.IsText(ctx) || f.root.IsTable(ctx) {
		t.Errorf("expected capability checks to fail closed")
	}
	if f.root.Selection(ctx) != nil {
		t.Errorf("expected nil Selection facet")
	}
	if _, ok := component.Extents(ctx, spi.CoordTypeScreen); ok {
		t.Errorf("expected Extents to fail")
	}
	if _, _, ok := component.Size(ctx); ok {
		t.Errorf("expected Size to fail")
	}

	want := []struct {
		op  string
		sev spi.Severity
	}{
		{"_get_name", spi.SeverityError},
		{"_get_childCount", spi.SeverityError},
		{"getChildAtIndex", spi.SeverityError},
		{"getRole", spi.SeverityError},
		{"isText", spi.SeverityWarn},
		{"isTable", spi.SeverityError},
		{"getSelection", spi.SeverityWarn},
		{"getExtents", spi.SeverityWarn},
		{"getSize", spi.SeverityError},
	}
	errs := f.reported()
	if len(errs) != len(want) {
		t.Fatalf("expected %d reported failures, got %d: %v", len(want), len(errs), errs)
	}
	for i, w := range want {
		if errs[i].Op != w.op || errs[i].Severity != w.sev {
			t.Errorf("failure %d: expected %s/%s, got %s/%s", i, w.op, w.sev, errs[i].Op, errs[i].Severity)
		}
	}
}

func TestCloseReleasesEveryHandle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	form := f.root.ChildAtIndex(ctx, 0)
	form.Ref(ctx)
	form.Ref(ctx)
	entry := form.ChildAtIndex(ctx, 1)
	_ = entry.Text(ctx)
	_ = entry.StateSet(ctx)
	_ = entry.RelationSet(ctx)
	if f.reg.Live() < 5 {
		t.Fatalf("expected several live handles, got %d", f.reg.Live())
	}

	f.reg.Close(ctx)
	if f.reg.Live() != 0 {
		t.Fatalf("expected no live handles after Close, got %d", f.reg.Live())
	}
	if got := f.prov.Outstanding(); got != 0 {
		t.Fatalf("expected no outstanding provider references, got %d", got)
	}
	if f.prov.Transient() != 0 {
		t.Fatalf("expected transient objects to be deactivated, %d remain", f.prov.Transient())
	}
	f.expectNoErrors(t)
}

func TestLogErrorHookUsesSeverity(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	hook := spi.LogErrorHook(log)
	hook(&spi.CallError{Op: "isText", Object: "a@b", Severity: spi.SeverityWarn, Err: errors.New("gone")})
	hook(&spi.CallError{Op: "getRole", Object: "a@b", Severity: spi.SeverityError, Err: errors.New("gone")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %q", buf.String())
	}
	if !strings.Contains(lines[0], "level=warning") || !strings.Contains(lines[0], "op=isText") {
		t.Errorf("unexpected warn line %q", lines[0])
	}
	if !strings.Contains(lines[1], "level=error") || !strings.Contains(lines[1], "op=getRole") {
		t.Errorf("unexpected error line %q", lines[1])
	}
}

func TestCallErrorUnwraps(t *testing.T) {
	inner := corba.TIMEOUT(0, corba.CompletionStatusMaybe)
	err := &spi.CallError{Op: "getRole", Object: "x", Err: inner}
	if !errors.Is(err, corba.TIMEOUT(0, corba.CompletionStatusNo)) {
		t.Fatalf("expected errors.Is to reach the wrapped exception")
	}
	if !strings.Contains(err.Error(), "getRole on x") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
