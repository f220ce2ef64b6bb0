package corba

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ifabos/go-cspi/giop"
)

type activeObject struct {
	typeID  string
	servant Servant
}

// Server accepts connections and dispatches requests to activated servants
type Server struct {
	orb      *ORB
	log      logrus.FieldLogger
	mu       sync.RWMutex
	objects  map[string]activeObject
	running  bool
	closed   bool
	listener net.Listener
	host     string
	port     int
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// CreateServer creates a server listening at host:port. Port 0 picks a
// free port; Port reports the one bound.
func (o *ORB) CreateServer(host string, port int) (*Server, error) {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s := &Server{
		orb:      o,
		log:      o.log,
		objects:  make(map[string]activeObject),
		listener: listener,
		host:     host,
		port:     listener.Addr().(*net.TCPAddr).Port,
		conns:    make(map[net.Conn]struct{}),
	}
	if err := o.addServer(s); err != nil {
		listener.Close()
		return nil, err
	}
	return s, nil
}

// Addr returns the address the server listens on
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Host returns the host written into references
func (s *Server) Host() string {
	return s.host
}

// Port returns the bound port
func (s *Server) Port() int {
	return s.port
}

// Activate registers servant under a fresh object key and returns its reference
func (s *Server) Activate(typeID string, servant Servant) *ObjectRef {
	for {
		ref, err := s.ActivateWithKey(uuid.NewString(), typeID, servant)
		if err == nil {
			return ref
		}
	}
}

// ActivateWithKey registers servant under key
func (s *Server) ActivateWithKey(key string, typeID string, servant Servant) (*ObjectRef, error) {
	if key == "" {
		return nil, BAD_PARAM(0, CompletionStatusNo)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[key]; exists {
		return nil, fmt.Errorf("object key %q already active", key)
	}
	s.objects[key] = activeObject{typeID: typeID, servant: servant}

	return s.reference(key, typeID), nil
}

func (s *Server) reference(key string, typeID string) *ObjectRef {
	return &ObjectRef{
		Name:       key,
		ServerHost: s.host,
		ServerPort: s.port,
		objectKey:  []byte(key),
		typeID:     typeID,
	}
}

// Reference returns the reference of an active object, or nil
func (s *Server) Reference(key string) *ObjectRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil
	}
	return s.reference(key, obj.typeID)
}

// Deactivate removes the servant behind ref. Later requests for it raise
// OBJECT_NOT_EXIST.
func (s *Server) Deactivate(ref *ObjectRef) bool {
	if ref.IsNil() {
		return false
	}
	key := string(ref.ObjectKey())

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return false
	}
	delete(s.objects, key)
	return true
}

// ActiveObjects returns the number of active servants
func (s *Server) ActiveObjects() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Run starts accepting connections in the background
func (s *Server) Run() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("server is shut down")
	}
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	s.log.WithField("addr", s.listener.Addr().String()).Info("server listening")

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.WithError(err).Warn("error accepting connection")
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// Shutdown stops the listener and closes open connections
func (s *Server) Shutdown() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("server is not running")
	}
	s.closed = true
	s.running = false
	conns := s.conns
	s.conns = make(map[net.Conn]struct{})
	s.mu.Unlock()

	err := s.listener.Close()
	for conn := range conns {
		conn.Close()
	}
	if err != nil {
		return fmt.Errorf("error closing listener: %w", err)
	}
	return nil
}

// Wait blocks until the accept loop and every connection handler returned
func (s *Server) Wait() {
	s.wg.Wait()
}

// IsRunning returns whether the server is running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// handleConnection serves requests from one connection in order
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	log := s.log.WithField("remote", conn.RemoteAddr().String())

	for {
		msg, err := giop.ReadMessage(conn, s.orb.maxMessageSize)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			log.WithError(err).Warn("error reading message")
			s.send(conn, &giop.Message{
				Header: giop.NewMessageHeader(giop.MsgMessageError, 0),
				Body:   err.Error(),
			})
			return
		}

		switch msg.Header.MsgType {
		case giop.MsgRequest:
			s.handleGIOPRequest(conn, msg)

		case giop.MsgLocateRequest:
			s.handleGIOPLocateRequest(conn, msg.Body.(*giop.LocateRequestHeader))

		case giop.MsgCancelRequest:
			// Requests are served in order, so there is never one to cancel.

		case giop.MsgCloseConn:
			return

		default:
			log.WithField("type", msg.Header.MsgType).Warn("unsupported message type")
		}
	}
}

// handleGIOPRequest dispatches a request to its servant and replies
func (s *Server) handleGIOPRequest(conn net.Conn, msg *giop.Message) {
	request := msg.Body.(*giop.RequestHeader)
	key := string(request.ObjectKey)

	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()

	reply := func(m *giop.Message) {
		if request.ResponseExpected {
			s.send(conn, m)
		}
	}

	if !ok {
		reply(exceptionReply(request.RequestID, OBJECT_NOT_EXIST(1, CompletionStatusNo)))
		return
	}

	req := NewServerRequest(request.Operation, key, request.RequestID, request.Payload, msg.Header.ByteOrder())
	req.TypeID = obj.typeID

	if ex := SafeInvoke(func() error { return obj.servant.Dispatch(req) }); ex != nil {
		s.log.WithFields(logrus.Fields{
			"op":        request.Operation,
			"object":    key,
			"exception": ex.Name(),
		}).Debug("request raised exception")
		reply(exceptionReply(request.RequestID, ex))
		return
	}

	reply(giop.NewReplyMessage(request.RequestID, giop.ReplyStatusNoException, req.Results()))
}

// handleGIOPLocateRequest answers whether an object key is active
func (s *Server) handleGIOPLocateRequest(conn net.Conn, request *giop.LocateRequestHeader) {
	s.mu.RLock()
	_, ok := s.objects[string(request.ObjectKey)]
	s.mu.RUnlock()

	status := uint32(giop.LocateStatusUnknownObject)
	if ok {
		status = giop.LocateStatusObjectHere
	}

	s.send(conn, &giop.Message{
		Header: giop.NewMessageHeader(giop.MsgLocateReply, 0),
		Body:   &giop.LocateReplyHeader{RequestID: request.RequestID, Status: status},
	})
}

func exceptionReply(requestID uint32, ex Exception) *giop.Message {
	body := giop.NewCDRMarshaller(binary.BigEndian)
	status, err := MarshalException(body, ex)
	if err != nil {
		body = giop.NewCDRMarshaller(binary.BigEndian)
		status, _ = MarshalException(body, UNKNOWN(0, CompletionStatusMaybe))
	}
	return giop.NewReplyMessage(requestID, status, body.Bytes())
}

func (s *Server) send(conn net.Conn, msg *giop.Message) {
	if err := giop.WriteMessage(conn, msg); err != nil {
		s.log.WithError(err).Debug("error sending reply")
	}
}
