package spi_test

import (
	"context"
	"sync"
	"testing"

	"github.com/ifabos/go-cspi/corba"
	"github.com/ifabos/go-cspi/logging"
	"github.com/ifabos/go-cspi/provider"
	"github.com/ifabos/go-cspi/spi"
)

type fixture struct {
	orb    *corba.ORB
	server *corba.Server
	tree   *provider.Node
	prov   *provider.Provider
	reg    *spi.Registry
	root   *spi.Accessible

	mu     sync.Mutex
	errors []*spi.CallError
}

// newFixture serves the demo tree on loopback and wraps its root.
func newFixture(t *testing.T, opts ...spi.Option) *fixture {
	t.Helper()
	log := logging.Discard()

	orb := corba.Init(corba.WithLogger(log))
	server, err := orb.CreateServer("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("CreateServer: %v", err)
	}
	if err := server.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	t.Cleanup(func() { orb.Shutdown(true) })

	tree := provider.DemoTree()
	prov, err := provider.Serve(server, tree, provider.WithLogger(log))
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}

	f := &fixture{orb: orb, server: server, tree: tree, prov: prov}
	hook := spi.WithErrorHook(func(err *spi.CallError) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.errors = append(f.errors, err)
	})
	f.reg = spi.NewRegistry(orb.CreateClient(), append([]spi.Option{hook}, opts...)...)
	f.root = f.reg.WrapAccessible(prov.Root())
	return f
}

func (f *fixture) reported() []*spi.CallError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*spi.CallError(nil), f.errors...)
}

func (f *fixture) expectNoErrors(t *testing.T) {
	t.Helper()
	for _, err := range f.reported() {
		t.Errorf("unexpected call error: %v", err)
	}
}

// walk follows child indices from the root.
func (f *fixture) walk(t *testing.T, path ...int) *spi.Accessible {
	t.Helper()
	ctx := context.Background()
	a := f.root
	for _, i := range path {
		child := a.ChildAtIndex(ctx, i)
		if a != f.root {
			a.Unref(ctx)
		}
		if child == nil {
			t.Fatalf("no child %d on path %v", i, path)
		}
		a = child
	}
	return a
}
