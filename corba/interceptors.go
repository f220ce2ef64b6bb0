package corba

import (
	"sync"
	"time"
)

// RequestInfo provides information about a request to interceptors
type RequestInfo struct {
	// The operation being invoked
	Operation string
	// The object key for the target object
	ObjectKey string
	// Arguments for the operation
	Arguments []interface{}
	// Exception raised by the target, if any
	Exception Exception
	// Transport or protocol failure reported through ReceiveOther
	Err error
	// The service contexts associated with the request
	ServiceContexts []ServiceContext
	// Request ID
	RequestID uint32
	// Whether a reply is expected
	ResponseExpected bool
	// When the request was handed to the client
	Started time.Time
}

// ServiceContext represents a service context entry
type ServiceContext struct {
	ID   uint32
	Data []byte
}

// ClientRequestInterceptor is invoked during client-side request processing
type ClientRequestInterceptor interface {
	// Name returns the name of the interceptor
	Name() string

	// SendRequest is called before the request is sent to the server.
	// Returning an error aborts the request.
	SendRequest(info *RequestInfo) error

	// ReceiveReply is called after a normal reply is received
	ReceiveReply(info *RequestInfo) error

	// ReceiveException is called if an exception is received
	ReceiveException(info *RequestInfo, ex Exception) error

	// ReceiveOther is called for other outcomes (timeout, transport failure, forward)
	ReceiveOther(info *RequestInfo) error
}

// InterceptorRegistry manages interceptors
type InterceptorRegistry struct {
	mu                        sync.RWMutex
	clientRequestInterceptors []ClientRequestInterceptor
}

// NewInterceptorRegistry creates a new interceptor registry
func NewInterceptorRegistry() *InterceptorRegistry {
	return &InterceptorRegistry{
		clientRequestInterceptors: make([]ClientRequestInterceptor, 0),
	}
}

// RegisterClientRequestInterceptor registers a client request interceptor
func (r *InterceptorRegistry) RegisterClientRequestInterceptor(interceptor ClientRequestInterceptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clientRequestInterceptors = append(r.clientRequestInterceptors, interceptor)
}

// UnregisterClientRequestInterceptor removes every interceptor registered under name
func (r *InterceptorRegistry) UnregisterClientRequestInterceptor(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.clientRequestInterceptors[:0]
	for _, interceptor := range r.clientRequestInterceptors {
		if interceptor.Name() != name {
			kept = append(kept, interceptor)
		}
	}
	r.clientRequestInterceptors = kept
}

// GetClientRequestInterceptors returns all registered client request interceptors
func (r *InterceptorRegistry) GetClientRequestInterceptors() []ClientRequestInterceptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]ClientRequestInterceptor, len(r.clientRequestInterceptors))
	copy(result, r.clientRequestInterceptors)
	return result
}

// ClearInterceptors clears all registered interceptors
func (r *InterceptorRegistry) ClearInterceptors() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clientRequestInterceptors = make([]ClientRequestInterceptor, 0)
}
