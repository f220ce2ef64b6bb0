package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ifabos/go-cspi/corba"
	"github.com/ifabos/go-cspi/logging"
	"github.com/ifabos/go-cspi/provider"
	"github.com/ifabos/go-cspi/spi"
)

func serve(t *testing.T, opts ...provider.Option) (*corba.Client, *provider.Provider, *provider.Node) {
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
	prov, err := provider.Serve(server, tree, append([]provider.Option{provider.WithLogger(log)}, opts...)...)
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	return orb.CreateClient(), prov, tree
}

func TestRootIOR(t *testing.T) {
	client, prov, tree := serve(t)
	ref, err := client.StringToObject(prov.IOR())
	if err != nil {
		t.Fatalf("StringToObject: %v", err)
	}
	if ref.GetTypeID() != spi.AccessibleRepoID {
		t.Fatalf("unexpected type id %q", ref.GetTypeID())
	}
	if prov.RefCount(tree) != 1 || prov.Outstanding() != 1 {
		t.Fatalf("expected the published root reference only")
	}
}

func TestReturnedReferencesAreCounted(t *testing.T) {
	ctx := context.Background()
	client, prov, tree := serve(t)
	root := client.Bind(prov.Root())

	reply, err := root.Invoke(ctx, "getChildAtIndex", int32(2))
	if err != nil {
		t.Fatalf("getChildAtIndex: %v", err)
	}
	var ok *corba.ObjectRef
	if err := reply.Decode(&ok); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	button := tree.Find("OK")
	if prov.RefCount(button) != 1 {
		t.Fatalf("expected the reply to carry one reference, got %d", prov.RefCount(button))
	}

	if _, err := ok.Invoke(ctx, "ref"); err != nil {
		t.Fatalf("ref: %v", err)
	}
	if prov.RefCount(button) != 2 {
		t.Fatalf("expected 2 references, got %d", prov.RefCount(button))
	}
	for i := 0; i < 2; i++ {
		if _, err := ok.Invoke(ctx, "unref"); err != nil {
			t.Fatalf("unref: %v", err)
		}
	}

	_, err = ok.Invoke(ctx, "unref")
	if !errors.Is(err, corba.BAD_PARAM(0, corba.CompletionStatusNo)) {
		t.Fatalf("expected BAD_PARAM for an unbalanced unref, got %v", err)
	}

	// Elements outlive their last reference.
	if _, err := ok.Invoke(ctx, "_get_name"); err != nil {
		t.Fatalf("_get_name after release: %v", err)
	}
}

func TestTransientObjectsDeactivate(t *testing.T) {
	ctx := context.Background()
	client, prov, _ := serve(t)
	root := client.Bind(prov.Root())
	elements := prov.Active()

	reply, err := root.Invoke(ctx, "queryInterface", spi.CapabilityComponent.RepoID())
	if err != nil {
		t.Fatalf("queryInterface: %v", err)
	}
	var component *corba.ObjectRef
	if err := reply.Decode(&component); err != nil || component == nil {
		t.Fatalf("expected a Component facet: %v", err)
	}
	if prov.Transient() != 1 || prov.Active() != elements+1 {
		t.Fatalf("expected 1 transient object, got %d of %d active", prov.Transient(), prov.Active())
	}

	if _, err := component.Invoke(ctx, "unref"); err != nil {
		t.Fatalf("unref: %v", err)
	}
	if prov.Transient() != 0 || prov.Active() != elements {
		t.Fatalf("expected the facet to be deactivated, %d active", prov.Active())
	}
	_, err = component.Invoke(ctx, "getSize")
	if !errors.Is(err, corba.OBJECT_NOT_EXIST(0, corba.CompletionStatusNo)) {
		t.Fatalf("expected OBJECT_NOT_EXIST, got %v", err)
	}

	reply, err = root.Invoke(ctx, "queryInterface", spi.CapabilityText.RepoID())
	if err != nil {
		t.Fatalf("queryInterface: %v", err)
	}
	var text *corba.ObjectRef
	if err := reply.Decode(&text); err != nil || text != nil {
		t.Fatalf("expected nil for an unsupported facet, got %v (%v)", text, err)
	}

	_, err = root.Invoke(ctx, "launchRockets")
	if !errors.Is(err, corba.BAD_OPERATION(0, corba.CompletionStatusNo)) {
		t.Fatalf("expected BAD_OPERATION, got %v", err)
	}
}

func TestStateSetRejectsForeignObjects(t *testing.T) {
	ctx := context.Background()
	client, prov, _ := serve(t)
	root := client.Bind(prov.Root())

	reply, err := root.Invoke(ctx, "getState")
	if err != nil {
		t.Fatalf("getState: %v", err)
	}
	var states *corba.ObjectRef
	if err := reply.Decode(&states); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	_, err = states.Invoke(ctx, "equals", root)
	if !errors.Is(err, corba.BAD_PARAM(0, corba.CompletionStatusNo)) {
		t.Fatalf("expected BAD_PARAM comparing with an element, got %v", err)
	}
	var none *corba.ObjectRef
	_, err = states.Invoke(ctx, "equals", none)
	if !errors.Is(err, corba.BAD_PARAM(0, corba.CompletionStatusNo)) {
		t.Fatalf("expected BAD_PARAM comparing with nil, got %v", err)
	}
}

func TestProviderMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	client, prov, _ := serve(t, provider.WithMetrics(provider.NewMetrics(reg)))
	root := client.Bind(prov.Root())

	if _, err := root.Invoke(ctx, "_get_name"); err != nil {
		t.Fatalf("_get_name: %v", err)
	}
	if _, err := root.Invoke(ctx, "ref"); err != nil {
		t.Fatalf("ref: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch mf.GetName() {
			case "cspi_provider_outstanding_references":
				found[mf.GetName()] = m.GetGauge().GetValue()
			case "cspi_provider_requests_total":
				found[mf.GetName()] += m.GetCounter().GetValue()
			}
		}
	}
	if found["cspi_provider_outstanding_references"] != 2 {
		t.Errorf("expected 2 outstanding references, got %v", found["cspi_provider_outstanding_references"])
	}
	if found["cspi_provider_requests_total"] != 2 {
		t.Errorf("expected 2 requests, got %v", found["cspi_provider_requests_total"])
	}
}
