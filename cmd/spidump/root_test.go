package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ifabos/go-cspi/corba"
	"github.com/ifabos/go-cspi/logging"
	"github.com/ifabos/go-cspi/provider"
)

func serveDemo(t *testing.T) *provider.Provider {
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

	prov, err := provider.Serve(server, provider.DemoTree(), provider.WithLogger(log))
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	return prov
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	testChdir(t, t.TempDir())
	t.Setenv("LOG_LEVEL", "error")
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDumpYAML(t *testing.T) {
	prov := serveDemo(t)
	out, err := execute(t, "--ior", prov.IOR())
	if err != nil {
		t.Fatalf("spidump: %v", err)
	}

	var root element
	if err := yaml.Unmarshal([]byte(out), &root); err != nil {
		t.Fatalf("output is not valid YAML: %v\n%s", err, out)
	}
	if root.Name != "Demo" || len(root.Children) != 3 {
		t.Fatalf("unexpected root %q with %d children", root.Name, len(root.Children))
	}
	ok := root.Children[2]
	if ok.Name != "OK" || ok.RoleName != "menubar" {
		t.Errorf("unexpected button %+v", ok)
	}
	if ok.Bounds == nil || *ok.Bounds != [4]int{540, 420, 80, 30} {
		t.Errorf("unexpected bounds %v", ok.Bounds)
	}
	label := root.Children[0].Children[0]
	if len(label.Relations) != 1 || label.Relations[0].Targets[0] != "Name entry" {
		t.Errorf("unexpected relations %+v", label.Relations)
	}
	if prov.Outstanding() != 0 {
		t.Errorf("expected every reference to be released, %d outstanding", prov.Outstanding())
	}
}

func TestDumpJSONWithDepth(t *testing.T) {
	prov := serveDemo(t)
	out, err := execute(t, "--ior", prov.IOR(), "--format", "json", "--depth", "1")
	if err != nil {
		t.Fatalf("spidump: %v", err)
	}

	var root element
	if err := json.Unmarshal([]byte(out), &root); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if len(root.Children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(root.Children))
	}
	for _, child := range root.Children {
		if len(child.Children) != 0 {
			t.Errorf("expected depth 1 to stop below %q", child.Name)
		}
	}
	if got := root.Capabilities; len(got) != 1 || got[0] != "Component" {
		t.Errorf("unexpected root capabilities %v", got)
	}
}

func TestDumpErrors(t *testing.T) {
	t.Setenv("CSPI_PROVIDER_IOR", "")
	if _, err := execute(t); err == nil {
		t.Errorf("expected an error without an IOR")
	}
	if _, err := execute(t, "--ior", "IOR:00", "--format", "xml"); err == nil {
		t.Errorf("expected an error for an unknown format")
	}
}

func TestDumpTrace(t *testing.T) {
	prov := serveDemo(t)
	testChdir(t, t.TempDir())
	t.Setenv("LOG_LEVEL", "error")
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--ior", prov.IOR(), "--depth", "0", "--trace"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("spidump: %v", err)
	}
	if !strings.Contains(errOut.String(), "sending request") || !strings.Contains(errOut.String(), "op=_get_name") {
		t.Errorf("expected traced calls on stderr, got:\n%s", errOut.String())
	}
}
