package corba

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/ifabos/go-cspi/giop"
)

// ServerRequest is the request handed to a servant. Arguments are decoded
// on demand with ReadArgs and results are appended with SetResult.
type ServerRequest struct {
	// The name of the operation being invoked
	Operation string

	// The object key for the target object
	ObjectKey string

	// Repository ID the target was activated with
	TypeID string

	// Request ID from the GIOP header
	RequestID uint32

	args   *giop.CDRUnmarshaller
	result *giop.CDRMarshaller
}

// NewServerRequest creates a server request over a CDR encoded argument payload
func NewServerRequest(operation string, objectKey string, requestID uint32, payload []byte, order binary.ByteOrder) *ServerRequest {
	return &ServerRequest{
		Operation: operation,
		ObjectKey: objectKey,
		RequestID: requestID,
		args:      giop.NewCDRUnmarshaller(payload, order),
		result:    giop.NewCDRMarshaller(binary.BigEndian),
	}
}

// ReadArgs decodes the next arguments into targets. A malformed payload is
// reported as a MARSHAL exception.
func (sr *ServerRequest) ReadArgs(targets ...interface{}) error {
	for _, target := range targets {
		if err := readValue(sr.args, nil, target); err != nil {
			return MARSHAL(1, CompletionStatusNo)
		}
	}
	return nil
}

// SetResult appends values to the reply body
func (sr *ServerRequest) SetResult(values ...interface{}) error {
	for _, v := range values {
		if err := writeValue(sr.result, v); err != nil {
			return MARSHAL(2, CompletionStatusMaybe)
		}
	}
	return nil
}

// Results returns the encoded reply body
func (sr *ServerRequest) Results() []byte {
	return sr.result.Bytes()
}

// Servant handles requests for an activated object
type Servant interface {
	Dispatch(req *ServerRequest) error
}

// ServantFunc adapts a function to the Servant interface
type ServantFunc func(req *ServerRequest) error

// Dispatch calls f(req)
func (f ServantFunc) Dispatch(req *ServerRequest) error {
	return f(req)
}

// OperationHandler implements a single operation of a DynamicServant
type OperationHandler func(req *ServerRequest) error

// DynamicServant dispatches requests by operation name
type DynamicServant struct {
	// Interface repository ID
	RepositoryID string

	mu         sync.RWMutex
	operations map[string]OperationHandler
}

// NewDynamicServant creates a new dynamic servant
func NewDynamicServant(repoID string) *DynamicServant {
	return &DynamicServant{
		RepositoryID: repoID,
		operations:   make(map[string]OperationHandler),
	}
}

// Handle registers handler for operation, replacing any previous one
func (ds *DynamicServant) Handle(operation string, handler OperationHandler) *DynamicServant {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.operations[operation] = handler
	return ds
}

// Operations returns the registered operation names in sorted order
func (ds *DynamicServant) Operations() []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	names := make([]string, 0, len(ds.operations))
	for name := range ds.operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the handler registered for req.Operation. Unknown
// operations raise BAD_OPERATION.
func (ds *DynamicServant) Dispatch(req *ServerRequest) error {
	ds.mu.RLock()
	handler, ok := ds.operations[req.Operation]
	ds.mu.RUnlock()
	if !ok {
		return BAD_OPERATION(0, CompletionStatusNo)
	}
	if err := handler(req); err != nil {
		if IsException(err) {
			return err
		}
		return fmt.Errorf("%s: %w", req.Operation, err)
	}
	return nil
}
