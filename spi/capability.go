package spi

import "strings"

// Capability names an optional interface an accessible object may implement.
type Capability int

const (
	CapabilityAction Capability = iota
	CapabilityComponent
	CapabilityEditableText
	CapabilityHypertext
	CapabilityImage
	CapabilitySelection
	CapabilityTable
	CapabilityText
	CapabilityValue
)

var capabilityNames = [...]string{
	CapabilityAction:       "Action",
	CapabilityComponent:    "Component",
	CapabilityEditableText: "EditableText",
	CapabilityHypertext:    "Hypertext",
	CapabilityImage:        "Image",
	CapabilitySelection:    "Selection",
	CapabilityTable:        "Table",
	CapabilityText:         "Text",
	CapabilityValue:        "Value",
}

const repoIDPrefix = "IDL:Accessibility/"

// AccessibleRepoID is the repository id of accessible objects.
const AccessibleRepoID = repoIDPrefix + "Accessible:1.0"

// Capability discovery failures on these paths are reported as warnings.
var (
	warnOnIs  = map[Capability]bool{CapabilityAction: true, CapabilityComponent: true, CapabilitySelection: true, CapabilityText: true}
	warnOnGet = map[Capability]bool{CapabilitySelection: true}
)

// Capabilities returns every capability in declaration order.
func Capabilities() []Capability {
	caps := make([]Capability, len(capabilityNames))
	for i := range caps {
		caps[i] = Capability(i)
	}
	return caps
}

func (c Capability) valid() bool {
	return c >= 0 && int(c) < len(capabilityNames)
}

func (c Capability) String() string {
	if !c.valid() {
		return "Unknown"
	}
	return capabilityNames[c]
}

// RepoID returns the repository id queried for c, e.g. IDL:Accessibility/Text:1.0.
func (c Capability) RepoID() string {
	return repoIDPrefix + c.String() + ":1.0"
}

// ParseCapability accepts a capability name ("text", "Text") or its repository id.
func ParseCapability(s string) (Capability, bool) {
	name := strings.TrimSuffix(strings.TrimPrefix(s, repoIDPrefix), ":1.0")
	for i, n := range capabilityNames {
		if strings.EqualFold(n, name) {
			return Capability(i), true
		}
	}
	return 0, false
}
