// Package giop provides the General Inter-ORB Protocol (GIOP) framing and
// CDR encoding used to talk to accessibility providers.
package giop

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// GIOP message types
const (
	MsgRequest       = 0
	MsgReply         = 1
	MsgCancelRequest = 2
	MsgLocateRequest = 3
	MsgLocateReply   = 4
	MsgCloseConn     = 5
	MsgMessageError  = 6
	MsgFragment      = 7
)

// Reply status values
const (
	ReplyStatusNoException     = 0
	ReplyStatusUserException   = 1
	ReplyStatusSystemException = 2
	ReplyStatusLocationForward = 3
)

// Locate reply status values
const (
	LocateStatusUnknownObject = 0
	LocateStatusObjectHere    = 1
)

// HeaderSize is the size of the fixed GIOP message header
const HeaderSize = 12

// DefaultMaxMessageSize bounds message bodies when no limit is configured
const DefaultMaxMessageSize = 4 << 20

// Service context ids
const (
	// ServiceContextTimestamp carries the client send time in nanoseconds
	ServiceContextTimestamp uint32 = 0x54534400 // "TSD"
)

// GIOP_1_2 is the protocol version written by this package
var GIOP_1_2 = [2]byte{1, 2}

// ErrMessageTooLarge is returned when a message body exceeds the configured limit
var ErrMessageTooLarge = errors.New("giop: message exceeds size limit")

// MessageHeader is the common header for all GIOP messages
type MessageHeader struct {
	Magic   [4]byte // "GIOP"
	Version [2]byte // Major, Minor
	Flags   byte    // bit 0 set for little endian
	MsgType byte
	MsgSize uint32 // Size of the message body
}

// ServiceContext contains information that may affect the processing of a request
type ServiceContext struct {
	ID   uint32
	Data []byte
}

// ServiceContextList is a sequence of service contexts
type ServiceContextList []ServiceContext

// RequestHeader contains fields specific to a request message. Payload holds
// the CDR encoded in-arguments that follow the header.
type RequestHeader struct {
	ServiceContexts  ServiceContextList
	RequestID        uint32
	ResponseExpected bool
	ObjectKey        []byte
	Operation        string
	Principal        []byte
	Payload          []byte
}

// ReplyHeader contains fields specific to a reply message. Payload holds the
// CDR encoded results, or the exception body when ReplyStatus says so.
type ReplyHeader struct {
	ServiceContexts ServiceContextList
	RequestID       uint32
	ReplyStatus     uint32
	Payload         []byte
}

// CancelRequestHeader contains fields specific to a cancel request message
type CancelRequestHeader struct {
	RequestID uint32
}

// LocateRequestHeader contains fields specific to a locate request message
type LocateRequestHeader struct {
	RequestID uint32
	ObjectKey []byte
}

// LocateReplyHeader contains fields specific to a locate reply message
type LocateReplyHeader struct {
	RequestID uint32
	Status    uint32
}

// Message represents a complete GIOP message with header and body
type Message struct {
	Header MessageHeader
	Body   interface{}
}

// NewMessageHeader creates a big endian GIOP 1.2 message header
func NewMessageHeader(msgType byte, msgSize uint32) MessageHeader {
	return MessageHeader{
		Magic:   [4]byte{'G', 'I', 'O', 'P'},
		Version: GIOP_1_2,
		MsgType: msgType,
		MsgSize: msgSize,
	}
}

// NewRequestMessage creates a request message carrying payload as its arguments
func NewRequestMessage(requestID uint32, objectKey []byte, operation string, payload []byte) *Message {
	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(time.Now().UnixNano()))

	return &Message{
		Header: NewMessageHeader(MsgRequest, 0),
		Body: &RequestHeader{
			ServiceContexts:  ServiceContextList{{ID: ServiceContextTimestamp, Data: ts}},
			RequestID:        requestID,
			ResponseExpected: true,
			ObjectKey:        objectKey,
			Operation:        operation,
			Principal:        []byte{},
			Payload:          payload,
		},
	}
}

// NewReplyMessage creates a reply message
func NewReplyMessage(requestID uint32, status uint32, payload []byte) *Message {
	return &Message{
		Header: NewMessageHeader(MsgReply, 0),
		Body: &ReplyHeader{
			ServiceContexts: ServiceContextList{},
			RequestID:       requestID,
			ReplyStatus:     status,
			Payload:         payload,
		},
	}
}

// IsLittleEndian returns whether the message is encoded in little endian
func (h *MessageHeader) IsLittleEndian() bool {
	return h.Flags&0x01 == 1
}

// ByteOrder returns the byte order announced by the header flags
func (h *MessageHeader) ByteOrder() binary.ByteOrder {
	if h.IsLittleEndian() {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Validate checks if the message header is valid
func (h *MessageHeader) Validate() error {
	if h.Magic != [4]byte{'G', 'I', 'O', 'P'} {
		return fmt.Errorf("invalid GIOP magic: %v", h.Magic)
	}
	if h.Version[0] != 1 {
		return fmt.Errorf("unsupported GIOP version %d.%d", h.Version[0], h.Version[1])
	}
	if h.MsgType > MsgFragment {
		return fmt.Errorf("invalid message type: %d", h.MsgType)
	}
	return nil
}

// DecodeHeader parses the fixed 12 byte message header
func DecodeHeader(buf []byte) (MessageHeader, error) {
	var h MessageHeader
	if len(buf) < HeaderSize {
		return h, fmt.Errorf("header too short: %d bytes", len(buf))
	}
	copy(h.Magic[:], buf[0:4])
	copy(h.Version[:], buf[4:6])
	h.Flags = buf[6]
	h.MsgType = buf[7]
	h.MsgSize = h.ByteOrder().Uint32(buf[8:12])
	return h, h.Validate()
}

// MarshalGIOPMessage marshals a GIOP message to bytes
func MarshalGIOPMessage(msg *Message) ([]byte, error) {
	byteOrder := msg.Header.ByteOrder()
	body := NewCDRMarshaller(byteOrder)

	switch msg.Header.MsgType {
	case MsgRequest:
		req, ok := msg.Body.(*RequestHeader)
		if !ok {
			return nil, fmt.Errorf("body is not a RequestHeader")
		}
		body.WriteServiceContextList(req.ServiceContexts)
		body.WriteULong(req.RequestID)
		body.WriteBool(req.ResponseExpected)
		body.WriteRaw([]byte{0, 0, 0}) // reserved
		body.WriteOctetSequence(req.ObjectKey)
		body.WriteString(req.Operation)
		body.WriteOctetSequence(req.Principal)
		if len(req.Payload) > 0 {
			body.Align(Align8)
			body.WriteRaw(req.Payload)
		}

	case MsgReply:
		reply, ok := msg.Body.(*ReplyHeader)
		if !ok {
			return nil, fmt.Errorf("body is not a ReplyHeader")
		}
		body.WriteServiceContextList(reply.ServiceContexts)
		body.WriteULong(reply.RequestID)
		body.WriteULong(reply.ReplyStatus)
		if len(reply.Payload) > 0 {
			body.Align(Align8)
			body.WriteRaw(reply.Payload)
		}

	case MsgCancelRequest:
		cancel, ok := msg.Body.(*CancelRequestHeader)
		if !ok {
			return nil, fmt.Errorf("body is not a CancelRequestHeader")
		}
		body.WriteULong(cancel.RequestID)

	case MsgLocateRequest:
		locate, ok := msg.Body.(*LocateRequestHeader)
		if !ok {
			return nil, fmt.Errorf("body is not a LocateRequestHeader")
		}
		body.WriteULong(locate.RequestID)
		body.WriteOctetSequence(locate.ObjectKey)

	case MsgLocateReply:
		locate, ok := msg.Body.(*LocateReplyHeader)
		if !ok {
			return nil, fmt.Errorf("body is not a LocateReplyHeader")
		}
		body.WriteULong(locate.RequestID)
		body.WriteULong(locate.Status)

	case MsgCloseConn:
		// No body

	case MsgMessageError:
		text, ok := msg.Body.(string)
		if !ok {
			return nil, fmt.Errorf("body is not a string")
		}
		body.WriteString(text)

	default:
		return nil, fmt.Errorf("unsupported message type: %d", msg.Header.MsgType)
	}

	bodyBytes := body.Bytes()
	msg.Header.MsgSize = uint32(len(bodyBytes))

	out := make([]byte, HeaderSize, HeaderSize+len(bodyBytes))
	copy(out[0:4], msg.Header.Magic[:])
	copy(out[4:6], msg.Header.Version[:])
	out[6] = msg.Header.Flags
	out[7] = msg.Header.MsgType
	byteOrder.PutUint32(out[8:12], msg.Header.MsgSize)
	return append(out, bodyBytes...), nil
}

// UnmarshalGIOPMessage unmarshals a GIOP message from bytes
func UnmarshalGIOPMessage(data []byte) (*Message, error) {
	header, err := DecodeHeader(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read message header: %w", err)
	}
	if int(header.MsgSize) != len(data)-HeaderSize {
		return nil, fmt.Errorf("message size mismatch: header says %d, have %d", header.MsgSize, len(data)-HeaderSize)
	}

	u := NewCDRUnmarshaller(data[HeaderSize:], header.ByteOrder())
	msg := &Message{Header: header}

	switch header.MsgType {
	case MsgRequest:
		req := &RequestHeader{}
		if req.ServiceContexts, err = u.ReadServiceContextList(); err != nil {
			return nil, fmt.Errorf("failed to read request service contexts: %w", err)
		}
		if req.RequestID, err = u.ReadULong(); err != nil {
			return nil, fmt.Errorf("failed to read request id: %w", err)
		}
		if req.ResponseExpected, err = u.ReadBool(); err != nil {
			return nil, fmt.Errorf("failed to read response flag: %w", err)
		}
		if _, err = u.ReadRaw(3); err != nil {
			return nil, fmt.Errorf("failed to read reserved bytes: %w", err)
		}
		if req.ObjectKey, err = u.ReadOctetSequence(); err != nil {
			return nil, fmt.Errorf("failed to read object key: %w", err)
		}
		if req.Operation, err = u.ReadString(); err != nil {
			return nil, fmt.Errorf("failed to read operation: %w", err)
		}
		if req.Principal, err = u.ReadOctetSequence(); err != nil {
			return nil, fmt.Errorf("failed to read principal: %w", err)
		}
		if req.Payload, err = readPayload(u); err != nil {
			return nil, fmt.Errorf("failed to read request payload: %w", err)
		}
		msg.Body = req

	case MsgReply:
		reply := &ReplyHeader{}
		if reply.ServiceContexts, err = u.ReadServiceContextList(); err != nil {
			return nil, fmt.Errorf("failed to read reply service contexts: %w", err)
		}
		if reply.RequestID, err = u.ReadULong(); err != nil {
			return nil, fmt.Errorf("failed to read reply id: %w", err)
		}
		if reply.ReplyStatus, err = u.ReadULong(); err != nil {
			return nil, fmt.Errorf("failed to read reply status: %w", err)
		}
		if reply.Payload, err = readPayload(u); err != nil {
			return nil, fmt.Errorf("failed to read reply payload: %w", err)
		}
		msg.Body = reply

	case MsgCancelRequest:
		cancel := &CancelRequestHeader{}
		if cancel.RequestID, err = u.ReadULong(); err != nil {
			return nil, fmt.Errorf("failed to read cancel request ID: %w", err)
		}
		msg.Body = cancel

	case MsgLocateRequest:
		locate := &LocateRequestHeader{}
		if locate.RequestID, err = u.ReadULong(); err != nil {
			return nil, fmt.Errorf("failed to read locate request ID: %w", err)
		}
		if locate.ObjectKey, err = u.ReadOctetSequence(); err != nil {
			return nil, fmt.Errorf("failed to read locate object key: %w", err)
		}
		msg.Body = locate

	case MsgLocateReply:
		locate := &LocateReplyHeader{}
		if locate.RequestID, err = u.ReadULong(); err != nil {
			return nil, fmt.Errorf("failed to read locate reply request ID: %w", err)
		}
		if locate.Status, err = u.ReadULong(); err != nil {
			return nil, fmt.Errorf("failed to read locate reply status: %w", err)
		}
		msg.Body = locate

	case MsgCloseConn:
		// No body

	case MsgMessageError:
		text, err := u.ReadString()
		if err != nil {
			return nil, fmt.Errorf("failed to read error message: %w", err)
		}
		msg.Body = text

	default:
		return nil, fmt.Errorf("unsupported message type: %d", header.MsgType)
	}

	return msg, nil
}

func readPayload(u *CDRUnmarshaller) ([]byte, error) {
	if u.Remaining() == 0 {
		return nil, nil
	}
	u.Align(Align8)
	return u.ReadRaw(u.Remaining())
}

// ReadMessage reads one framed message from r. Bodies larger than maxSize
// fail with ErrMessageTooLarge before any of the body is read.
func ReadMessage(r io.Reader, maxSize uint32) (*Message, error) {
	if maxSize == 0 {
		maxSize = DefaultMaxMessageSize
	}

	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, err
	}
	header, err := DecodeHeader(headerBuf)
	if err != nil {
		return nil, err
	}
	if header.MsgSize > maxSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrMessageTooLarge, header.MsgSize, maxSize)
	}

	data := make([]byte, HeaderSize+int(header.MsgSize))
	copy(data, headerBuf)
	if _, err := io.ReadFull(r, data[HeaderSize:]); err != nil {
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}
	return UnmarshalGIOPMessage(data)
}

// WriteMessage marshals msg and writes it to w in one call
func WriteMessage(w io.Writer, msg *Message) error {
	data, err := MarshalGIOPMessage(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
