package gocspi_test

import (
	"context"
	"testing"

	gocspi "github.com/ifabos/go-cspi"
	"github.com/ifabos/go-cspi/logging"
	"github.com/ifabos/go-cspi/provider"
	"github.com/ifabos/go-cspi/spi"
)

func TestConnectFromEnvironment(t *testing.T) {
	testChdir(t, t.TempDir())
	ctx := context.Background()

	orb := gocspi.Init()
	server, err := orb.CreateServer("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("CreateServer: %v", err)
	}
	if err := server.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	t.Cleanup(func() { orb.Shutdown(true) })

	prov, err := provider.Serve(server, provider.DemoTree(), provider.WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}

	t.Setenv(spi.EnvProviderIOR, prov.IOR())
	t.Setenv(spi.EnvCallTimeout, "2s")
	session, err := gocspi.Connect(ctx, spi.WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer session.Close(ctx)

	var root *gocspi.Accessible = session.Root
	if got := root.ChildCount(ctx); got != 3 {
		t.Fatalf("expected 3 children, got %d", got)
	}
	if gocspi.RoleName(42) != "pushbutton" {
		t.Fatalf("expected pushbutton at 42")
	}
}

func TestConnectWithoutProvider(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv(spi.EnvProviderIOR, "")
	if _, err := gocspi.Connect(context.Background()); err == nil {
		t.Fatalf("expected an error without a provider IOR")
	}
}
