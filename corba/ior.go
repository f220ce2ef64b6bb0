// Package corba provides the object request broker used to reach
// accessibility providers: references, client invocation and servants.
package corba

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ifabos/go-cspi/giop"
)

// IIOPVersion is the version carried in an IIOP profile
type IIOPVersion struct {
	Major byte
	Minor byte
}

// String returns the string representation of an IIOP version
func (v IIOPVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// DefaultIIOPVersion is the profile version written by this package
var DefaultIIOPVersion = IIOPVersion{Major: 1, Minor: 2}

// TaggedProfile represents a profile with a specific tag in an IOR
type TaggedProfile struct {
	Tag     uint32
	Profile []byte
}

// ProfileBody is the decoded body of an IIOP profile
type ProfileBody struct {
	Version   IIOPVersion
	Host      string
	Port      uint16
	ObjectKey []byte
}

// Known profile tags
const (
	TAG_INTERNET_IOP        uint32 = 0
	TAG_MULTIPLE_COMPONENTS uint32 = 1
)

// IOR is an Interoperable Object Reference
type IOR struct {
	TypeID   string
	Profiles []TaggedProfile
}

// NewIOR creates a new IOR with specified type ID
func NewIOR(typeID string) *IOR {
	return &IOR{
		TypeID:   typeID,
		Profiles: []TaggedProfile{},
	}
}

// NilIOR returns the nil object reference: an empty type id and no profiles
func NilIOR() *IOR {
	return &IOR{Profiles: []TaggedProfile{}}
}

// IsNil reports whether the IOR denotes the nil object reference
func (ior *IOR) IsNil() bool {
	return ior == nil || (ior.TypeID == "" && len(ior.Profiles) == 0)
}

// AddIIOPProfile appends an IIOP profile for host:port and objectKey
func (ior *IOR) AddIIOPProfile(version IIOPVersion, host string, port uint16, objectKey []byte) {
	ior.Profiles = append(ior.Profiles, TaggedProfile{
		Tag:     TAG_INTERNET_IOP,
		Profile: encodeIIOPProfile(version, host, port, objectKey),
	})
}

// encodeIIOPProfile writes the profile as a big endian CDR encapsulation
func encodeIIOPProfile(version IIOPVersion, host string, port uint16, objectKey []byte) []byte {
	m := giop.NewCDRMarshaller(binary.BigEndian)
	m.WriteOctet(0)
	m.WriteOctet(version.Major)
	m.WriteOctet(version.Minor)
	m.WriteString(host)
	m.WriteUShort(port)
	m.WriteOctetSequence(objectKey)
	if version.Major > 1 || version.Minor >= 1 {
		m.WriteULong(0) // no tagged components
	}
	return m.Bytes()
}

// encapsulation returns an unmarshaller for data honouring its leading byte order flag
func encapsulation(data []byte) (*giop.CDRUnmarshaller, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty encapsulation")
	}
	order := binary.ByteOrder(binary.BigEndian)
	if data[0]&0x01 == 1 {
		order = binary.LittleEndian
	}
	u := giop.NewCDRUnmarshaller(data, order)
	if _, err := u.ReadOctet(); err != nil {
		return nil, err
	}
	return u, nil
}

// Encode serializes the IOR as a CDR encapsulation
func (ior *IOR) Encode() []byte {
	m := giop.NewCDRMarshaller(binary.BigEndian)
	m.WriteOctet(0)
	m.WriteString(ior.TypeID)
	m.WriteULong(uint32(len(ior.Profiles)))
	for _, profile := range ior.Profiles {
		m.WriteULong(profile.Tag)
		m.WriteOctetSequence(profile.Profile)
	}
	return m.Bytes()
}

// DecodeIOR deserializes an encapsulated IOR
func DecodeIOR(data []byte) (*IOR, error) {
	u, err := encapsulation(data)
	if err != nil {
		return nil, fmt.Errorf("invalid IOR: %w", err)
	}

	ior := &IOR{}
	if ior.TypeID, err = u.ReadString(); err != nil {
		return nil, fmt.Errorf("invalid IOR type id: %w", err)
	}

	count, err := u.ReadULong()
	if err != nil {
		return nil, fmt.Errorf("data too short to contain profile count: %w", err)
	}
	if int64(count)*8 > int64(u.Remaining()) {
		return nil, fmt.Errorf("invalid profile count %d", count)
	}

	ior.Profiles = make([]TaggedProfile, 0, count)
	for i := uint32(0); i < count; i++ {
		tag, err := u.ReadULong()
		if err != nil {
			return nil, fmt.Errorf("invalid tag for profile #%d: %w", i+1, err)
		}
		profile, err := u.ReadOctetSequence()
		if err != nil {
			return nil, fmt.Errorf("invalid profile data for profile #%d: %w", i+1, err)
		}
		ior.Profiles = append(ior.Profiles, TaggedProfile{Tag: tag, Profile: profile})
	}

	return ior, nil
}

// DecodeIIOPProfile extracts IIOP profile information
func DecodeIIOPProfile(profile []byte) (*ProfileBody, error) {
	u, err := encapsulation(profile)
	if err != nil {
		return nil, fmt.Errorf("profile data too short: %w", err)
	}

	body := &ProfileBody{}
	if body.Version.Major, err = u.ReadOctet(); err != nil {
		return nil, fmt.Errorf("invalid profile version: %w", err)
	}
	if body.Version.Minor, err = u.ReadOctet(); err != nil {
		return nil, fmt.Errorf("invalid profile version: %w", err)
	}
	if body.Host, err = u.ReadString(); err != nil {
		return nil, fmt.Errorf("invalid host: %w", err)
	}
	if body.Port, err = u.ReadUShort(); err != nil {
		return nil, fmt.Errorf("invalid port: %w", err)
	}
	if body.ObjectKey, err = u.ReadOctetSequence(); err != nil {
		return nil, fmt.Errorf("invalid object key: %w", err)
	}

	return body, nil
}

// ParseIOR parses a stringified IOR
func ParseIOR(iorString string) (*IOR, error) {
	iorString = strings.TrimSpace(iorString)
	if !strings.HasPrefix(iorString, "IOR:") {
		return nil, fmt.Errorf("invalid IOR string format, must start with 'IOR:'")
	}

	data, err := hex.DecodeString(strings.TrimPrefix(iorString, "IOR:"))
	if err != nil {
		return nil, fmt.Errorf("invalid IOR hex format: %w", err)
	}

	return DecodeIOR(data)
}

// ToString converts an IOR to its stringified representation
func (ior *IOR) ToString() string {
	return "IOR:" + strings.ToUpper(hex.EncodeToString(ior.Encode()))
}

// GetPrimaryIIOPProfile returns the first IIOP profile
func (ior *IOR) GetPrimaryIIOPProfile() (*ProfileBody, error) {
	for _, profile := range ior.Profiles {
		if profile.Tag == TAG_INTERNET_IOP {
			return DecodeIIOPProfile(profile.Profile)
		}
	}

	return nil, fmt.Errorf("no IIOP profile found in IOR")
}

// FormatRepositoryID formats a repository ID as "IDL:<scoped/name>:<version>"
func FormatRepositoryID(interfaceName string, version string) string {
	if version == "" {
		version = "1.0"
	}

	if strings.HasPrefix(interfaceName, "IDL:") && strings.Count(interfaceName, ":") >= 2 {
		return interfaceName
	}

	name := strings.TrimPrefix(interfaceName, "IDL:")
	name = strings.ReplaceAll(name, ".", "/")

	return fmt.Sprintf("IDL:%s:%s", name, version)
}
