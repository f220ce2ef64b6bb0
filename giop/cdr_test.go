package giop_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ifabos/go-cspi/giop"
)

func TestCDRAlignment(t *testing.T) {
	m := giop.NewCDRMarshaller(binary.BigEndian)
	m.WriteOctet(7)
	m.WriteULong(0xdeadbeef)
	m.WriteOctet(1)
	m.WriteLongLong(-2)

	// octet, 3 pad, ulong, octet, 7 pad, long long
	if m.Size() != 24 {
		t.Fatalf("expected 24 bytes, got %d", m.Size())
	}

	u := giop.NewCDRUnmarshaller(m.Bytes(), binary.BigEndian)
	if b, err := u.ReadOctet(); err != nil || b != 7 {
		t.Fatalf("ReadOctet = %d, %v", b, err)
	}
	if v, err := u.ReadULong(); err != nil || v != 0xdeadbeef {
		t.Fatalf("ReadULong = %x, %v", v, err)
	}
	if b, err := u.ReadOctet(); err != nil || b != 1 {
		t.Fatalf("ReadOctet = %d, %v", b, err)
	}
	if v, err := u.ReadLongLong(); err != nil || v != -2 {
		t.Fatalf("ReadLongLong = %d, %v", v, err)
	}
	if u.Remaining() != 0 {
		t.Errorf("expected no remaining bytes, got %d", u.Remaining())
	}
}

func TestCDRValues(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		m := giop.NewCDRMarshaller(order)
		values := []interface{}{true, int32(-42), uint16(9), "pushbutton", []byte{1, 2, 3}, []int32{4, 5}, 2.5, []string{"a", ""}}
		for _, v := range values {
			if err := m.WriteValue(v); err != nil {
				t.Fatalf("WriteValue(%v): %v", v, err)
			}
		}

		var (
			b     bool
			l     int32
			us    uint16
			s     string
			oct   []byte
			longs []int32
			d     float64
			strs  []string
		)
		u := giop.NewCDRUnmarshaller(m.Bytes(), order)
		for _, target := range []interface{}{&b, &l, &us, &s, &oct, &longs, &d, &strs} {
			if err := u.ReadValue(target); err != nil {
				t.Fatalf("ReadValue(%T): %v", target, err)
			}
		}

		if !b || l != -42 || us != 9 || s != "pushbutton" || d != 2.5 {
			t.Errorf("scalar mismatch: %v %d %d %q %v", b, l, us, s, d)
		}
		if len(oct) != 3 || oct[2] != 3 {
			t.Errorf("octet sequence mismatch: %v", oct)
		}
		if len(longs) != 2 || longs[1] != 5 {
			t.Errorf("long sequence mismatch: %v", longs)
		}
		if len(strs) != 2 || strs[0] != "a" || strs[1] != "" {
			t.Errorf("string sequence mismatch: %q", strs)
		}
	}
}

func TestCDRRejectsOversizedLength(t *testing.T) {
	m := giop.NewCDRMarshaller(binary.BigEndian)
	m.WriteULong(1 << 30)
	m.WriteOctet('x')

	u := giop.NewCDRUnmarshaller(m.Bytes(), binary.BigEndian)
	if _, err := u.ReadString(); !errors.Is(err, giop.ErrShortBuffer) {
		t.Fatalf("expected ErrShortBuffer, got %v", err)
	}
}

func TestCDRUnsupportedKind(t *testing.T) {
	m := giop.NewCDRMarshaller(binary.BigEndian)
	if err := m.WriteValue(map[string]int{}); err == nil {
		t.Fatal("expected error for map value")
	}
	if err := m.WriteValue(nil); err == nil {
		t.Fatal("expected error for nil value")
	}
}
