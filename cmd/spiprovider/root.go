package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ifabos/go-cspi/config"
	"github.com/ifabos/go-cspi/corba"
	"github.com/ifabos/go-cspi/logging"
	"github.com/ifabos/go-cspi/provider"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "spiprovider",
		Short:        "Serve an accessible tree",
		Long:         "Serve the accessible tree in --tree (or the built in demo tree) and print the root IOR on stdout.",
		SilenceUsage: true,
		RunE:         runProvider,
	}
	cmd.Flags().String("tree", "", "YAML file describing the tree (default: built in demo)")
	cmd.Flags().String("host", config.GetEnv("CSPI_PROVIDER_HOST", "127.0.0.1"), "Host to listen on and advertise in the IOR")
	cmd.Flags().Int("port", config.GetEnvInt("CSPI_PROVIDER_PORT", 0), "Port to listen on, 0 for any")
	cmd.Flags().String("ior-file", "", "Also write the root IOR to this file")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9464")
	return cmd
}

func runProvider(cmd *cobra.Command, args []string) error {
	config.LoadEnv(nil)
	log := logging.NewLoggerWithService("spiprovider")

	tree := provider.DemoTree()
	if path, _ := cmd.Flags().GetString("tree"); path != "" {
		loaded, err := provider.LoadTreeFile(path)
		if err != nil {
			return err
		}
		tree = loaded
	}

	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")

	orb := corba.Init(corba.WithLogger(log))
	defer orb.Shutdown(true)

	server, err := orb.CreateServer(host, port)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	prov, err := provider.Serve(server, tree,
		provider.WithLogger(log),
		provider.WithMetrics(provider.NewMetrics(registry)),
	)
	if err != nil {
		return err
	}
	if err := server.Run(); err != nil {
		return err
	}

	ior := prov.IOR()
	fmt.Fprintln(cmd.OutOrStdout(), ior)
	if path, _ := cmd.Flags().GetString("ior-file"); path != "" {
		if err := os.WriteFile(path, []byte(ior+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write IOR file: %w", err)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server failed")
			}
		}()
		defer srv.Close()
		log.WithField("addr", addr).Info("serving metrics")
	}

	<-ctx.Done()
	log.WithFields(logrus.Fields{
		"outstanding": prov.Outstanding(),
		"active":      prov.Active(),
	}).Info("shutting down")
	prov.Close()
	return nil
}
