package corba

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ifabos/go-cspi/giop"
)

// Client invokes operations on remote objects. Each server address gets one
// connection carrying at most one request at a time.
type Client struct {
	orb              *ORB
	connections      map[string]*connection
	requestIDCounter uint32
	mu               sync.Mutex
}

type connection struct {
	mu      sync.Mutex
	conn    net.Conn
	address string
}

// Reply holds the results of a successful invocation
type Reply struct {
	client *Client
	body   *giop.CDRUnmarshaller
}

// Decode reads the results into targets in order. Targets follow
// CDRUnmarshaller.ReadValue, plus **ObjectRef and *[]*ObjectRef.
func (r *Reply) Decode(targets ...interface{}) error {
	for i, target := range targets {
		if err := readValue(r.body, r.client, target); err != nil {
			return fmt.Errorf("failed to decode result %d: %w", i, err)
		}
	}
	return nil
}

// Remaining returns the number of undecoded result bytes
func (r *Reply) Remaining() int {
	return r.body.Remaining()
}

// ORB returns the ORB that created the client
func (c *Client) ORB() *ORB {
	return c.orb
}

// Connect establishes a connection to a server
func (c *Client) Connect(ctx context.Context, host string, port int) error {
	_, err := c.getConnection(ctx, net.JoinHostPort(host, strconv.Itoa(port)))
	return err
}

func (c *Client) getConnection(ctx context.Context, address string) (*connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, ok := c.connections[address]; ok {
		return conn, nil
	}

	dialer := net.Dialer{Timeout: c.orb.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server at %s: %w", address, err)
	}

	cn := &connection{conn: conn, address: address}
	c.connections[address] = cn
	return cn, nil
}

// dropConnection closes cn after a failure left its stream unusable
func (c *Client) dropConnection(cn *connection) {
	c.mu.Lock()
	if c.connections[cn.address] == cn {
		delete(c.connections, cn.address)
	}
	c.mu.Unlock()
	cn.conn.Close()
}

// Disconnect closes the connection to a server
func (c *Client) Disconnect(host string, port int) error {
	address := net.JoinHostPort(host, strconv.Itoa(port))

	c.mu.Lock()
	cn, exists := c.connections[address]
	delete(c.connections, address)
	c.mu.Unlock()

	if !exists {
		return fmt.Errorf("no connection exists to %s", address)
	}
	return cn.close()
}

// Close closes every connection held by the client
func (c *Client) Close() error {
	c.mu.Lock()
	conns := c.connections
	c.connections = make(map[string]*connection)
	c.mu.Unlock()

	var errs []error
	for _, cn := range conns {
		if err := cn.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (cn *connection) close() error {
	cn.mu.Lock()
	defer cn.mu.Unlock()

	closeMsg := &giop.Message{Header: giop.NewMessageHeader(giop.MsgCloseConn, 0)}
	_ = giop.WriteMessage(cn.conn, closeMsg) // best effort

	if err := cn.conn.Close(); err != nil {
		return fmt.Errorf("error closing connection to %s: %w", cn.address, err)
	}
	return nil
}

// NextRequestID generates a new unique request ID
func (c *Client) NextRequestID() uint32 {
	return atomic.AddUint32(&c.requestIDCounter, 1)
}

// StringToObject parses a stringified IOR into a reference bound to c
func (c *Client) StringToObject(s string) (*ObjectRef, error) {
	ior, err := ParseIOR(s)
	if err != nil {
		return nil, err
	}
	return newObjectRef(c, ior)
}

// Bind returns a copy of ref that invokes through c
func (c *Client) Bind(ref *ObjectRef) *ObjectRef {
	if ref.IsNil() {
		return nil
	}
	bound := *ref
	bound.client = c
	return &bound
}

// exchange writes msg on cn and reads the next message, honouring ctx
func (c *Client) exchange(ctx context.Context, cn *connection, msg *giop.Message) (*giop.Message, error) {
	cn.mu.Lock()
	defer cn.mu.Unlock()

	deadline, hasDeadline := ctx.Deadline()
	if err := cn.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		cn.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := giop.WriteMessage(cn.conn, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	reply, err := giop.ReadMessage(cn.conn, c.orb.maxMessageSize)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if hasDeadline && !time.Now().Before(deadline) {
			return nil, context.DeadlineExceeded
		}
		return nil, fmt.Errorf("failed to read reply: %w", err)
	}
	return reply, nil
}

// Invoke sends operation with args to ref and waits for its reply. Remote
// exceptions are returned as Exception values; transport failures, context
// expiry and oversized replies are returned as wrapped errors.
func (c *Client) Invoke(ctx context.Context, ref *ObjectRef, operation string, args ...interface{}) (*Reply, error) {
	if ref.IsNil() {
		return nil, OBJECT_NOT_EXIST(0, CompletionStatusNo)
	}

	requestID := c.NextRequestID()
	reqInfo := &RequestInfo{
		Operation:        operation,
		ObjectKey:        string(ref.ObjectKey()),
		Arguments:        args,
		RequestID:        requestID,
		ResponseExpected: true,
		ServiceContexts:  []ServiceContext{},
		Started:          time.Now(),
	}

	interceptors := c.orb.GetInterceptorRegistry().GetClientRequestInterceptors()
	fail := func(err error) (*Reply, error) {
		reqInfo.Err = err
		for _, interceptor := range interceptors {
			if ierr := interceptor.ReceiveOther(reqInfo); ierr != nil {
				return nil, ierr
			}
		}
		return nil, err
	}

	for _, interceptor := range interceptors {
		if err := interceptor.SendRequest(reqInfo); err != nil {
			return nil, err
		}
	}

	params := giop.NewCDRMarshaller(binary.BigEndian)
	for i, arg := range args {
		if err := writeValue(params, arg); err != nil {
			return fail(fmt.Errorf("failed to marshal argument %d of %s: %w", i, operation, err))
		}
	}

	requestMsg := giop.NewRequestMessage(requestID, ref.ObjectKey(), operation, params.Bytes())
	requestHeader := requestMsg.Body.(*giop.RequestHeader)
	for _, sc := range reqInfo.ServiceContexts {
		requestHeader.ServiceContexts = append(requestHeader.ServiceContexts, giop.ServiceContext{
			ID:   sc.ID,
			Data: sc.Data,
		})
	}

	cn, err := c.getConnection(ctx, ref.Address())
	if err != nil {
		return fail(err)
	}

	msg, err := c.exchange(ctx, cn, requestMsg)
	if err != nil {
		c.dropConnection(cn)
		return fail(fmt.Errorf("%s on %s: %w", operation, ref.Address(), err))
	}

	if msg.Header.MsgType != giop.MsgReply {
		c.dropConnection(cn)
		return fail(fmt.Errorf("expected reply message, got message type %d", msg.Header.MsgType))
	}

	replyHeader := msg.Body.(*giop.ReplyHeader)
	if replyHeader.RequestID != requestID {
		c.dropConnection(cn)
		return fail(fmt.Errorf("mismatched request ID: expected %d, got %d", requestID, replyHeader.RequestID))
	}

	for _, sc := range replyHeader.ServiceContexts {
		reqInfo.ServiceContexts = append(reqInfo.ServiceContexts, ServiceContext{ID: sc.ID, Data: sc.Data})
	}

	body := giop.NewCDRUnmarshaller(replyHeader.Payload, msg.Header.ByteOrder())

	switch replyHeader.ReplyStatus {
	case giop.ReplyStatusNoException:
		for _, interceptor := range interceptors {
			if err := interceptor.ReceiveReply(reqInfo); err != nil {
				return nil, err
			}
		}
		return &Reply{client: c, body: body}, nil

	case giop.ReplyStatusUserException, giop.ReplyStatusSystemException:
		exception, err := UnmarshalException(replyHeader.ReplyStatus, body)
		if err != nil {
			return fail(fmt.Errorf("failed to unmarshal exception: %w", err))
		}
		reqInfo.Exception = exception
		for _, interceptor := range interceptors {
			if err := interceptor.ReceiveException(reqInfo, exception); err != nil {
				return nil, err
			}
		}
		return nil, exception

	case giop.ReplyStatusLocationForward:
		return fail(fmt.Errorf("location forward is not supported"))

	default:
		return fail(fmt.Errorf("unknown reply status: %d", replyHeader.ReplyStatus))
	}
}

// Locate asks the server holding ref whether the object exists
func (c *Client) Locate(ctx context.Context, ref *ObjectRef) (bool, error) {
	if ref.IsNil() {
		return false, nil
	}

	cn, err := c.getConnection(ctx, ref.Address())
	if err != nil {
		return false, err
	}

	requestID := c.NextRequestID()
	msg, err := c.exchange(ctx, cn, &giop.Message{
		Header: giop.NewMessageHeader(giop.MsgLocateRequest, 0),
		Body:   &giop.LocateRequestHeader{RequestID: requestID, ObjectKey: ref.ObjectKey()},
	})
	if err != nil {
		c.dropConnection(cn)
		return false, err
	}

	locate, ok := msg.Body.(*giop.LocateReplyHeader)
	if !ok || locate.RequestID != requestID {
		c.dropConnection(cn)
		return false, fmt.Errorf("unexpected reply to locate request")
	}
	return locate.Status == giop.LocateStatusObjectHere, nil
}
