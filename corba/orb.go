package corba

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ifabos/go-cspi/giop"
)

// DefaultDialTimeout bounds connection setup when no timeout is configured
const DefaultDialTimeout = 5 * time.Second

// ORB represents the Object Request Broker which owns clients, servers
// and the interceptor registry shared between them
type ORB struct {
	mu                  sync.RWMutex
	log                 logrus.FieldLogger
	maxMessageSize      uint32
	dialTimeout         time.Duration
	isInitialized       bool
	defaultClient       *Client
	clients             []*Client
	servers             []*Server
	interceptorRegistry *InterceptorRegistry
}

// Option configures an ORB
type Option func(*ORB)

// WithLogger sets the logger used by the ORB, its clients and its servers
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *ORB) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMaxMessageSize bounds the size of any message read by the ORB
func WithMaxMessageSize(n uint32) Option {
	return func(o *ORB) {
		if n > 0 {
			o.maxMessageSize = n
		}
	}
}

// WithDialTimeout bounds how long a client waits to connect
func WithDialTimeout(d time.Duration) Option {
	return func(o *ORB) {
		if d > 0 {
			o.dialTimeout = d
		}
	}
}

// WithClientRequestInterceptor registers interceptor at initialization
func WithClientRequestInterceptor(interceptor ClientRequestInterceptor) Option {
	return func(o *ORB) {
		o.interceptorRegistry.RegisterClientRequestInterceptor(interceptor)
	}
}

// Init initializes and returns a new ORB instance
func Init(opts ...Option) *ORB {
	orb := &ORB{
		log:                 logrus.StandardLogger(),
		maxMessageSize:      giop.DefaultMaxMessageSize,
		dialTimeout:         DefaultDialTimeout,
		isInitialized:       true,
		interceptorRegistry: NewInterceptorRegistry(),
	}
	for _, opt := range opts {
		opt(orb)
	}
	return orb
}

// Shutdown closes every client connection and stops every server. With
// wait set it blocks until server connections have drained.
func (orb *ORB) Shutdown(wait bool) {
	orb.mu.Lock()
	clients := orb.clients
	servers := orb.servers
	orb.clients = nil
	orb.servers = nil
	orb.defaultClient = nil
	orb.isInitialized = false
	orb.mu.Unlock()

	for _, c := range clients {
		if err := c.Close(); err != nil {
			orb.log.WithError(err).Debug("closing client")
		}
	}
	for _, s := range servers {
		if err := s.Shutdown(); err != nil {
			orb.log.WithError(err).Debug("stopping server")
		}
		if wait {
			s.Wait()
		}
	}
}

// IsInitialized returns whether the ORB is initialized
func (orb *ORB) IsInitialized() bool {
	orb.mu.RLock()
	defer orb.mu.RUnlock()
	return orb.isInitialized
}

// Logger returns the ORB logger
func (orb *ORB) Logger() logrus.FieldLogger {
	return orb.log
}

// MaxMessageSize returns the largest message body the ORB accepts
func (orb *ORB) MaxMessageSize() uint32 {
	return orb.maxMessageSize
}

// CreateClient creates a new client bound to this ORB
func (orb *ORB) CreateClient() *Client {
	c := &Client{
		orb:         orb,
		connections: make(map[string]*connection),
	}
	orb.mu.Lock()
	orb.clients = append(orb.clients, c)
	orb.mu.Unlock()
	return c
}

func (orb *ORB) client() *Client {
	orb.mu.RLock()
	c := orb.defaultClient
	orb.mu.RUnlock()
	if c != nil {
		return c
	}

	c = orb.CreateClient()
	orb.mu.Lock()
	defer orb.mu.Unlock()
	if orb.defaultClient == nil {
		orb.defaultClient = c
	}
	return orb.defaultClient
}

// StringToObject converts a stringified IOR to a reference bound to the
// ORB's default client. The nil IOR yields a nil reference.
func (orb *ORB) StringToObject(ior string) (*ObjectRef, error) {
	return orb.client().StringToObject(ior)
}

// ObjectToString converts an ObjectRef to a stringified IOR
func (orb *ORB) ObjectToString(objRef *ObjectRef) (string, error) {
	if objRef.IsNil() {
		return NilIOR().ToString(), nil
	}
	return objRef.ToString()
}

// GetInterceptorRegistry returns the interceptor registry
func (orb *ORB) GetInterceptorRegistry() *InterceptorRegistry {
	return orb.interceptorRegistry
}

// RegisterClientRequestInterceptor registers a client request interceptor with the ORB
func (orb *ORB) RegisterClientRequestInterceptor(interceptor ClientRequestInterceptor) {
	orb.interceptorRegistry.RegisterClientRequestInterceptor(interceptor)
}

func (orb *ORB) addServer(s *Server) error {
	orb.mu.Lock()
	defer orb.mu.Unlock()
	if !orb.isInitialized {
		return fmt.Errorf("ORB is shut down")
	}
	orb.servers = append(orb.servers, s)
	return nil
}
