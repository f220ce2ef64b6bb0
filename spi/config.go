package spi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ifabos/go-cspi/config"
	"github.com/ifabos/go-cspi/corba"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvProviderIOR    = "CSPI_PROVIDER_IOR"
	EnvCallTimeout    = "CSPI_CALL_TIMEOUT"
	EnvDialTimeout    = "CSPI_DIAL_TIMEOUT"
	EnvMaxMessageSize = "CSPI_MAX_MESSAGE_SIZE"
)

// DefaultCallTimeout bounds calls made without a context deadline.
const DefaultCallTimeout = 10 * time.Second

// Config describes how to reach a provider.
type Config struct {
	// Stringified IOR of the provider's root accessible
	ProviderIOR string

	CallTimeout    time.Duration
	DialTimeout    time.Duration
	MaxMessageSize uint32

	// Logger defaults to the logrus standard logger
	Logger logrus.FieldLogger
}

// ConfigFromEnv reads a Config from the environment.
func ConfigFromEnv() Config {
	return Config{
		ProviderIOR:    config.GetEnv(EnvProviderIOR, ""),
		CallTimeout:    config.GetEnvDuration(EnvCallTimeout, DefaultCallTimeout),
		DialTimeout:    config.GetEnvDuration(EnvDialTimeout, corba.DefaultDialTimeout),
		MaxMessageSize: maxMessageSizeFromEnv(),
	}
}

// maxMessageSizeFromEnv returns 0, meaning the ORB default, for values that
// are not a positive uint32.
func maxMessageSizeFromEnv() uint32 {
	n := config.GetEnvInt(EnvMaxMessageSize, 0)
	if n <= 0 || int64(n) > math.MaxUint32 {
		return 0
	}
	return uint32(n)
}

// Session is a connection to one provider.
type Session struct {
	ORB      *corba.ORB
	Registry *Registry
	Root     *Accessible
}

// Connect resolves cfg.ProviderIOR and checks that the root object exists.
// The returned session owns the one reference to Root.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*Session, error) {
	if cfg.ProviderIOR == "" {
		return nil, errors.New("no provider IOR configured")
	}

	orbOpts := []corba.Option{
		corba.WithDialTimeout(cfg.DialTimeout),
		corba.WithMaxMessageSize(cfg.MaxMessageSize),
	}
	if cfg.Logger != nil {
		orbOpts = append(orbOpts, corba.WithLogger(cfg.Logger))
	}
	orb := corba.Init(orbOpts...)
	client := orb.CreateClient()

	ref, err := client.StringToObject(cfg.ProviderIOR)
	if err != nil {
		orb.Shutdown(false)
		return nil, fmt.Errorf("invalid provider IOR: %w", err)
	}
	if ref == nil {
		orb.Shutdown(false)
		return nil, errors.New("provider IOR is the nil reference")
	}

	found, err := client.Locate(ctx, ref)
	if err != nil {
		orb.Shutdown(false)
		return nil, fmt.Errorf("failed to reach provider at %s: %w", ref.Address(), err)
	}
	if !found {
		orb.Shutdown(false)
		return nil, fmt.Errorf("provider at %s does not hold the root object", ref.Address())
	}

	if cfg.CallTimeout > 0 {
		opts = append([]Option{WithCallTimeout(cfg.CallTimeout)}, opts...)
	}
	reg := NewRegistry(client, opts...)
	return &Session{ORB: orb, Registry: reg, Root: reg.WrapAccessible(ref)}, nil
}

// Close releases every handle still live and shuts the ORB down.
func (s *Session) Close(ctx context.Context) {
	s.Registry.Close(ctx)
	s.ORB.Shutdown(true)
}
