package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ifabos/go-cspi/config"
	"github.com/ifabos/go-cspi/corba"
	"github.com/ifabos/go-cspi/logging"
	"github.com/ifabos/go-cspi/spi"
)

// element is the printed form of one accessible.
type element struct {
	Name         string     `yaml:"name" json:"name"`
	Description  string     `yaml:"description,omitempty" json:"description,omitempty"`
	Role         spi.Role   `yaml:"role" json:"role"`
	RoleName     string     `yaml:"role_name" json:"role_name"`
	States       []string   `yaml:"states,omitempty" json:"states,omitempty"`
	Capabilities []string   `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	Bounds       *[4]int    `yaml:"bounds,omitempty" json:"bounds,omitempty"`
	Relations    []relation `yaml:"relations,omitempty" json:"relations,omitempty"`
	Children     []element  `yaml:"children,omitempty" json:"children,omitempty"`
}

type relation struct {
	Type    string   `yaml:"type" json:"type"`
	Targets []string `yaml:"targets" json:"targets"`
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "spidump",
		Short:        "Print the accessible tree of a provider",
		Long:         "Connect to the provider whose root IOR is given by --ior or CSPI_PROVIDER_IOR and print its element tree.",
		SilenceUsage: true,
		RunE:         runDump,
	}
	cmd.Flags().String("ior", "", "Stringified IOR of the provider root (default $CSPI_PROVIDER_IOR)")
	cmd.Flags().String("format", "yaml", "Output format: yaml or json")
	cmd.Flags().Bool("pretty", false, "Indent JSON output")
	cmd.Flags().Int("depth", -1, "Maximum depth to descend, -1 for no limit")
	cmd.Flags().Duration("timeout", 0, "Per call timeout (default $CSPI_CALL_TIMEOUT)")
	cmd.Flags().String("env-file", "", "Load variables from this file instead of .env")
	cmd.Flags().Bool("trace", false, "Log every remote call with its arguments")
	return cmd
}

func runDump(cmd *cobra.Command, args []string) error {
	log := logging.NewTextLogger(cmd.ErrOrStderr())

	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		config.LoadEnv(log, envFile)
	} else {
		config.LoadEnv(log)
	}

	cfg := spi.ConfigFromEnv()
	cfg.Logger = log
	if ior, _ := cmd.Flags().GetString("ior"); ior != "" {
		cfg.ProviderIOR = ior
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.CallTimeout = timeout
	}
	format, _ := cmd.Flags().GetString("format")
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
	}
	depth, _ := cmd.Flags().GetInt("depth")
	pretty, _ := cmd.Flags().GetBool("pretty")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	session, err := spi.Connect(ctx, cfg, spi.WithLogger(log))
	if err != nil {
		return err
	}
	defer session.Close(ctx)
	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		log.SetLevel(logrus.DebugLevel)
		session.ORB.RegisterClientRequestInterceptor(corba.NewLoggingClientInterceptor(log, true))
	}

	start := time.Now()
	tree := dump(ctx, session.Root, depth)
	log.WithFields(logrus.Fields{
		"elapsed": time.Since(start).String(),
		"handles": session.Registry.Live(),
	}).Debug("tree dumped")

	if format == "json" {
		return printJSON(cmd.OutOrStdout(), tree, pretty)
	}
	return printYAML(cmd.OutOrStdout(), tree)
}

// dump walks a, releasing every handle it obtains before returning.
func dump(ctx context.Context, a *spi.Accessible, depth int) element {
	e := element{
		Name:        a.Name(ctx),
		Description: a.Description(ctx),
		Role:        a.Role(ctx),
	}
	e.RoleName = spi.RoleName(e.Role)

	if states := a.StateSet(ctx); states != nil {
		for _, s := range states.States(ctx) {
			e.States = append(e.States, s.String())
		}
		states.Unref(ctx)
	}
	for _, c := range spi.Capabilities() {
		if a.HasCapability(ctx, c) {
			e.Capabilities = append(e.Capabilities, c.String())
		}
	}
	if component := a.Component(ctx); component != nil {
		if r, ok := component.Extents(ctx, spi.CoordTypeScreen); ok {
			e.Bounds = &[4]int{r.X, r.Y, r.Width, r.Height}
		}
		component.Unref(ctx)
	}
	for _, rel := range a.RelationSet(ctx) {
		out := relation{Type: rel.RelationType(ctx).String()}
		for i, n := 0, rel.NTargets(ctx); i < n; i++ {
			if target := rel.Target(ctx, i); target != nil {
				out.Targets = append(out.Targets, target.Name(ctx))
				target.Unref(ctx)
			}
		}
		e.Relations = append(e.Relations, out)
		rel.Unref(ctx)
	}

	if depth == 0 {
		return e
	}
	for i, n := 0, a.ChildCount(ctx); i < n; i++ {
		child := a.ChildAtIndex(ctx, i)
		if child == nil {
			continue
		}
		e.Children = append(e.Children, dump(ctx, child, depth-1))
		child.Unref(ctx)
	}
	return e
}

func printYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}

func printJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}
