package giop

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
)

// CDR alignment sizes
const (
	Align1 = 1 // octet, boolean, char
	Align2 = 2 // short, unsigned short
	Align4 = 4 // long, unsigned long, float
	Align8 = 8 // long long, unsigned long long, double
)

// ErrShortBuffer is returned when a length prefix points past the end of the data
var ErrShortBuffer = errors.New("cdr: length exceeds remaining data")

// CDRMarshaller marshals data into CDR format
type CDRMarshaller struct {
	buffer    *bytes.Buffer
	byteOrder binary.ByteOrder
	position  int
}

// NewCDRMarshaller creates a new CDR marshaller with the specified byte order
func NewCDRMarshaller(byteOrder binary.ByteOrder) *CDRMarshaller {
	return &CDRMarshaller{
		buffer:    new(bytes.Buffer),
		byteOrder: byteOrder,
	}
}

// Bytes returns the marshalled bytes
func (m *CDRMarshaller) Bytes() []byte {
	return m.buffer.Bytes()
}

// Size returns the current size of the marshalled data
func (m *CDRMarshaller) Size() int {
	return m.position
}

// ByteOrder returns the byte order used by the marshaller
func (m *CDRMarshaller) ByteOrder() binary.ByteOrder {
	return m.byteOrder
}

// align pads the buffer up to the specified boundary
func (m *CDRMarshaller) align(alignment int) {
	if alignment <= 1 {
		return
	}
	if padding := (alignment - m.position%alignment) % alignment; padding > 0 {
		m.buffer.Write(make([]byte, padding))
		m.position += padding
	}
}

// Align pads the buffer up to the specified boundary
func (m *CDRMarshaller) Align(alignment int) {
	m.align(alignment)
}

func (m *CDRMarshaller) write(alignment int, raw []byte) {
	m.align(alignment)
	m.buffer.Write(raw)
	m.position += len(raw)
}

// WriteRaw appends bytes without alignment or a length prefix
func (m *CDRMarshaller) WriteRaw(raw []byte) {
	m.write(Align1, raw)
}

// WriteBool writes a boolean value
func (m *CDRMarshaller) WriteBool(value bool) {
	var b byte
	if value {
		b = 1
	}
	m.write(Align1, []byte{b})
}

// WriteOctet writes a byte value
func (m *CDRMarshaller) WriteOctet(value byte) {
	m.write(Align1, []byte{value})
}

// WriteShort writes a 16-bit integer value
func (m *CDRMarshaller) WriteShort(value int16) {
	m.WriteUShort(uint16(value))
}

// WriteUShort writes a 16-bit unsigned integer value
func (m *CDRMarshaller) WriteUShort(value uint16) {
	buf := make([]byte, 2)
	m.byteOrder.PutUint16(buf, value)
	m.write(Align2, buf)
}

// WriteLong writes a 32-bit integer value
func (m *CDRMarshaller) WriteLong(value int32) {
	m.WriteULong(uint32(value))
}

// WriteULong writes a 32-bit unsigned integer value
func (m *CDRMarshaller) WriteULong(value uint32) {
	buf := make([]byte, 4)
	m.byteOrder.PutUint32(buf, value)
	m.write(Align4, buf)
}

// WriteLongLong writes a 64-bit integer value
func (m *CDRMarshaller) WriteLongLong(value int64) {
	m.WriteULongLong(uint64(value))
}

// WriteULongLong writes a 64-bit unsigned integer value
func (m *CDRMarshaller) WriteULongLong(value uint64) {
	buf := make([]byte, 8)
	m.byteOrder.PutUint64(buf, value)
	m.write(Align8, buf)
}

// WriteFloat writes a 32-bit floating point value
func (m *CDRMarshaller) WriteFloat(value float32) {
	m.WriteULong(math.Float32bits(value))
}

// WriteDouble writes a 64-bit floating point value
func (m *CDRMarshaller) WriteDouble(value float64) {
	m.WriteULongLong(math.Float64bits(value))
}

// WriteString writes a NUL terminated string with its length prefix
func (m *CDRMarshaller) WriteString(value string) {
	m.WriteULong(uint32(len(value) + 1))
	m.write(Align1, append([]byte(value), 0))
}

// WriteOctetSequence writes a sequence of bytes
func (m *CDRMarshaller) WriteOctetSequence(value []byte) {
	m.WriteULong(uint32(len(value)))
	m.write(Align1, value)
}

// WriteServiceContextList writes a list of service contexts
func (m *CDRMarshaller) WriteServiceContextList(contexts ServiceContextList) {
	m.WriteULong(uint32(len(contexts)))
	for _, ctx := range contexts {
		m.WriteULong(ctx.ID)
		m.WriteOctetSequence(ctx.Data)
	}
}

// WriteValue marshals a value based on its kind. Slices other than []byte
// are written as a length-prefixed sequence of their elements.
func (m *CDRMarshaller) WriteValue(value interface{}) error {
	if value == nil {
		return fmt.Errorf("cannot marshal nil value")
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Bool:
		m.WriteBool(v.Bool())
	case reflect.Int8:
		m.WriteOctet(byte(v.Int()))
	case reflect.Uint8:
		m.WriteOctet(byte(v.Uint()))
	case reflect.Int16:
		m.WriteShort(int16(v.Int()))
	case reflect.Uint16:
		m.WriteUShort(uint16(v.Uint()))
	case reflect.Int32:
		m.WriteLong(int32(v.Int()))
	case reflect.Uint32:
		m.WriteULong(uint32(v.Uint()))
	case reflect.Int, reflect.Int64:
		m.WriteLongLong(v.Int())
	case reflect.Uint64:
		m.WriteULongLong(v.Uint())
	case reflect.Float32:
		m.WriteFloat(float32(v.Float()))
	case reflect.Float64:
		m.WriteDouble(v.Float())
	case reflect.String:
		m.WriteString(v.String())
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			m.WriteOctetSequence(v.Bytes())
			return nil
		}
		m.WriteULong(uint32(v.Len()))
		for i := 0; i < v.Len(); i++ {
			if err := m.WriteValue(v.Index(i).Interface()); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported type for marshalling: %v", v.Type())
	}

	return nil
}

// CDRUnmarshaller unmarshals data from CDR format
type CDRUnmarshaller struct {
	reader    *bytes.Reader
	byteOrder binary.ByteOrder
	position  int
}

// NewCDRUnmarshaller creates a new CDR unmarshaller with the specified byte order
func NewCDRUnmarshaller(data []byte, byteOrder binary.ByteOrder) *CDRUnmarshaller {
	return &CDRUnmarshaller{
		reader:    bytes.NewReader(data),
		byteOrder: byteOrder,
	}
}

// ByteOrder returns the byte order used by the unmarshaller
func (u *CDRUnmarshaller) ByteOrder() binary.ByteOrder {
	return u.byteOrder
}

// Remaining returns the number of unread bytes
func (u *CDRUnmarshaller) Remaining() int {
	return u.reader.Len()
}

// align skips padding up to the specified boundary
func (u *CDRUnmarshaller) align(alignment int) {
	if alignment <= 1 {
		return
	}
	if padding := (alignment - u.position%alignment) % alignment; padding > 0 {
		if _, err := u.reader.Seek(int64(padding), io.SeekCurrent); err == nil {
			u.position += padding
		}
	}
}

// Align skips padding up to the specified boundary
func (u *CDRUnmarshaller) Align(alignment int) {
	u.align(alignment)
}

func (u *CDRUnmarshaller) read(alignment, n int) ([]byte, error) {
	u.align(alignment)
	if n > u.reader.Len() {
		return nil, ErrShortBuffer
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(u.reader, buf); err != nil {
		return nil, err
	}
	u.position += n
	return buf, nil
}

// ReadRaw reads n bytes without alignment
func (u *CDRUnmarshaller) ReadRaw(n int) ([]byte, error) {
	return u.read(Align1, n)
}

// ReadBool reads a boolean value
func (u *CDRUnmarshaller) ReadBool() (bool, error) {
	b, err := u.ReadOctet()
	return b != 0, err
}

// ReadOctet reads a byte value
func (u *CDRUnmarshaller) ReadOctet() (byte, error) {
	buf, err := u.read(Align1, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadShort reads a 16-bit integer value
func (u *CDRUnmarshaller) ReadShort() (int16, error) {
	v, err := u.ReadUShort()
	return int16(v), err
}

// ReadUShort reads a 16-bit unsigned integer value
func (u *CDRUnmarshaller) ReadUShort() (uint16, error) {
	buf, err := u.read(Align2, 2)
	if err != nil {
		return 0, err
	}
	return u.byteOrder.Uint16(buf), nil
}

// ReadLong reads a 32-bit integer value
func (u *CDRUnmarshaller) ReadLong() (int32, error) {
	v, err := u.ReadULong()
	return int32(v), err
}

// ReadULong reads a 32-bit unsigned integer value
func (u *CDRUnmarshaller) ReadULong() (uint32, error) {
	buf, err := u.read(Align4, 4)
	if err != nil {
		return 0, err
	}
	return u.byteOrder.Uint32(buf), nil
}

// ReadLongLong reads a 64-bit integer value
func (u *CDRUnmarshaller) ReadLongLong() (int64, error) {
	v, err := u.ReadULongLong()
	return int64(v), err
}

// ReadULongLong reads a 64-bit unsigned integer value
func (u *CDRUnmarshaller) ReadULongLong() (uint64, error) {
	buf, err := u.read(Align8, 8)
	if err != nil {
		return 0, err
	}
	return u.byteOrder.Uint64(buf), nil
}

// ReadFloat reads a 32-bit floating point value
func (u *CDRUnmarshaller) ReadFloat() (float32, error) {
	v, err := u.ReadULong()
	return math.Float32frombits(v), err
}

// ReadDouble reads a 64-bit floating point value
func (u *CDRUnmarshaller) ReadDouble() (float64, error) {
	v, err := u.ReadULongLong()
	return math.Float64frombits(v), err
}

// ReadString reads a NUL terminated string
func (u *CDRUnmarshaller) ReadString() (string, error) {
	length, err := u.ReadULong()
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	if int64(length) > int64(u.reader.Len()) {
		return "", ErrShortBuffer
	}

	buf, err := u.read(Align1, int(length))
	if err != nil {
		return "", err
	}
	return string(buf[:length-1]), nil
}

// ReadOctetSequence reads a sequence of bytes
func (u *CDRUnmarshaller) ReadOctetSequence() ([]byte, error) {
	length, err := u.ReadULong()
	if err != nil {
		return nil, err
	}
	if int64(length) > int64(u.reader.Len()) {
		return nil, ErrShortBuffer
	}
	return u.read(Align1, int(length))
}

// ReadServiceContextList reads a list of service contexts
func (u *CDRUnmarshaller) ReadServiceContextList() (ServiceContextList, error) {
	count, err := u.ReadULong()
	if err != nil {
		return nil, err
	}
	// Each entry takes at least eight bytes.
	if int64(count)*8 > int64(u.reader.Len()) {
		return nil, ErrShortBuffer
	}

	contexts := make(ServiceContextList, count)
	for i := range contexts {
		if contexts[i].ID, err = u.ReadULong(); err != nil {
			return nil, err
		}
		if contexts[i].Data, err = u.ReadOctetSequence(); err != nil {
			return nil, err
		}
	}
	return contexts, nil
}

// ReadValue unmarshals into target, which must be a non-nil pointer of a kind
// accepted by WriteValue.
func (u *CDRUnmarshaller) ReadValue(target interface{}) error {
	if target == nil {
		return fmt.Errorf("cannot unmarshal into nil target")
	}

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer")
	}
	v = v.Elem()

	switch v.Kind() {
	case reflect.Bool:
		val, err := u.ReadBool()
		if err != nil {
			return err
		}
		v.SetBool(val)
	case reflect.Int8:
		val, err := u.ReadOctet()
		if err != nil {
			return err
		}
		v.SetInt(int64(int8(val)))
	case reflect.Uint8:
		val, err := u.ReadOctet()
		if err != nil {
			return err
		}
		v.SetUint(uint64(val))
	case reflect.Int16:
		val, err := u.ReadShort()
		if err != nil {
			return err
		}
		v.SetInt(int64(val))
	case reflect.Uint16:
		val, err := u.ReadUShort()
		if err != nil {
			return err
		}
		v.SetUint(uint64(val))
	case reflect.Int32:
		val, err := u.ReadLong()
		if err != nil {
			return err
		}
		v.SetInt(int64(val))
	case reflect.Uint32:
		val, err := u.ReadULong()
		if err != nil {
			return err
		}
		v.SetUint(uint64(val))
	case reflect.Int, reflect.Int64:
		val, err := u.ReadLongLong()
		if err != nil {
			return err
		}
		v.SetInt(val)
	case reflect.Uint64:
		val, err := u.ReadULongLong()
		if err != nil {
			return err
		}
		v.SetUint(val)
	case reflect.Float32:
		val, err := u.ReadFloat()
		if err != nil {
			return err
		}
		v.SetFloat(float64(val))
	case reflect.Float64:
		val, err := u.ReadDouble()
		if err != nil {
			return err
		}
		v.SetFloat(val)
	case reflect.String:
		val, err := u.ReadString()
		if err != nil {
			return err
		}
		v.SetString(val)
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			val, err := u.ReadOctetSequence()
			if err != nil {
				return err
			}
			v.SetBytes(val)
			return nil
		}
		length, err := u.ReadULong()
		if err != nil {
			return err
		}
		if int64(length) > int64(u.reader.Len()) {
			return ErrShortBuffer
		}
		slice := reflect.MakeSlice(v.Type(), int(length), int(length))
		for i := 0; i < int(length); i++ {
			if err := u.ReadValue(slice.Index(i).Addr().Interface()); err != nil {
				return err
			}
		}
		v.Set(slice)
	default:
		return fmt.Errorf("unsupported type for unmarshalling: %v", v.Type())
	}

	return nil
}
