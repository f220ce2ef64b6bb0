package corba

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/ifabos/go-cspi/giop"
)

// ObjectRef represents a reference to a remote object
type ObjectRef struct {
	Name       string
	ServerHost string
	ServerPort int
	client     *Client
	ior        *IOR
	objectKey  []byte
	typeID     string
}

// newObjectRef builds a reference from a decoded IOR. The nil IOR yields nil.
func newObjectRef(client *Client, ior *IOR) (*ObjectRef, error) {
	if ior.IsNil() {
		return nil, nil
	}

	profile, err := ior.GetPrimaryIIOPProfile()
	if err != nil {
		return nil, err
	}

	return &ObjectRef{
		Name:       string(profile.ObjectKey),
		ServerHost: profile.Host,
		ServerPort: int(profile.Port),
		client:     client,
		ior:        ior,
		objectKey:  profile.ObjectKey,
		typeID:     ior.TypeID,
	}, nil
}

// Invoke calls operation on the referenced object
func (ref *ObjectRef) Invoke(ctx context.Context, operation string, args ...interface{}) (*Reply, error) {
	if ref.IsNil() || ref.client == nil {
		return nil, OBJECT_NOT_EXIST(0, CompletionStatusNo)
	}
	return ref.client.Invoke(ctx, ref, operation, args...)
}

// IsNil checks if this is a nil object reference
func (ref *ObjectRef) IsNil() bool {
	return ref == nil || (len(ref.objectKey) == 0 && ref.Name == "")
}

// Equals checks if two object references point to the same object
func (ref *ObjectRef) Equals(other *ObjectRef) bool {
	if ref.IsNil() || other.IsNil() {
		return ref.IsNil() && other.IsNil()
	}

	return bytes.Equal(ref.ObjectKey(), other.ObjectKey()) &&
		ref.ServerHost == other.ServerHost &&
		ref.ServerPort == other.ServerPort
}

// ObjectKey returns the key identifying the object at its server
func (ref *ObjectRef) ObjectKey() []byte {
	if len(ref.objectKey) > 0 {
		return ref.objectKey
	}
	return []byte(ref.Name)
}

// Address returns host:port of the server holding the object
func (ref *ObjectRef) Address() string {
	return net.JoinHostPort(ref.ServerHost, strconv.Itoa(ref.ServerPort))
}

// Client returns the client the reference invokes through, if any
func (ref *ObjectRef) Client() *Client {
	return ref.client
}

// GetIOR returns the IOR for this reference, building one when needed
func (ref *ObjectRef) GetIOR() *IOR {
	if ref.IsNil() {
		return NilIOR()
	}
	if ref.ior == nil {
		ior := NewIOR(ref.typeID)
		ior.AddIIOPProfile(DefaultIIOPVersion, ref.ServerHost, uint16(ref.ServerPort), ref.ObjectKey())
		ref.ior = ior
	}
	return ref.ior
}

// GetTypeID returns the repository ID (type ID) of the object
func (ref *ObjectRef) GetTypeID() string {
	if ref.ior != nil {
		return ref.ior.TypeID
	}
	return ref.typeID
}

// ToString returns the stringified IOR representation
func (ref *ObjectRef) ToString() (string, error) {
	return ref.GetIOR().ToString(), nil
}

// String implements fmt.Stringer for log fields
func (ref *ObjectRef) String() string {
	if ref.IsNil() {
		return "<nil>"
	}
	return fmt.Sprintf("%s@%s", ref.Name, ref.Address())
}

// writeValue marshals v, encoding object references as IORs
func writeValue(m *giop.CDRMarshaller, v interface{}) error {
	switch val := v.(type) {
	case *ObjectRef:
		m.WriteOctetSequence(val.GetIOR().Encode())
	case []*ObjectRef:
		m.WriteULong(uint32(len(val)))
		for _, ref := range val {
			m.WriteOctetSequence(ref.GetIOR().Encode())
		}
	default:
		return m.WriteValue(v)
	}
	return nil
}

// readValue unmarshals into target. **ObjectRef and *[]*ObjectRef targets
// receive references bound to client.
func readValue(u *giop.CDRUnmarshaller, client *Client, target interface{}) error {
	switch t := target.(type) {
	case **ObjectRef:
		ref, err := readObjectRef(u, client)
		if err != nil {
			return err
		}
		*t = ref
	case *[]*ObjectRef:
		count, err := u.ReadULong()
		if err != nil {
			return err
		}
		if int64(count)*4 > int64(u.Remaining()) {
			return giop.ErrShortBuffer
		}
		refs := make([]*ObjectRef, 0, count)
		for i := uint32(0); i < count; i++ {
			ref, err := readObjectRef(u, client)
			if err != nil {
				return err
			}
			refs = append(refs, ref)
		}
		*t = refs
	default:
		return u.ReadValue(target)
	}
	return nil
}

func readObjectRef(u *giop.CDRUnmarshaller, client *Client) (*ObjectRef, error) {
	data, err := u.ReadOctetSequence()
	if err != nil {
		return nil, err
	}
	ior, err := DecodeIOR(data)
	if err != nil {
		return nil, err
	}
	return newObjectRef(client, ior)
}
