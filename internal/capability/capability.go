// Package capability models the driver capability toggles that control which
// driver components and device features are queried and mounted.
package capability

import (
	"fmt"
	"sort"
	"strings"
)

// Capability names one mountable driver feature class.
type Capability string

const (
	// Compute enables CUDA compute libraries and tools.
	Compute Capability = "compute"
	// Utility enables management binaries and the NVML library.
	Utility Capability = "utility"
	// Video enables video encode/decode libraries.
	Video Capability = "video"
	// Graphics enables OpenGL/Vulkan libraries.
	Graphics Capability = "graphics"
	// Compat32 enables 32-bit compatibility libraries.
	Compat32 Capability = "compat32"
)

var known = map[Capability]bool{
	Compute:  true,
	Utility:  true,
	Video:    true,
	Graphics: true,
	Compat32: true,
}

// Parse validates a capability name from configuration or flags.
func Parse(s string) (Capability, error) {
	c := Capability(strings.ToLower(strings.TrimSpace(s)))
	if !known[c] {
		return "", fmt.Errorf("unknown capability: %s", s)
	}
	return c, nil
}

// Set is an unordered collection of capabilities.
type Set map[Capability]bool

// NewSet builds a set from the given capabilities.
func NewSet(caps ...Capability) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		s[c] = true
	}
	return s
}

// Add marks a capability as enabled.
func (s Set) Add(c Capability) {
	s[c] = true
}

// Has reports whether a capability is enabled.
func (s Set) Has(c Capability) bool {
	return s[c]
}

// Empty reports whether no capability is enabled.
func (s Set) Empty() bool {
	for _, on := range s {
		if on {
			return false
		}
	}
	return true
}

// List returns the enabled capabilities in stable name order.
func (s Set) List() []Capability {
	caps := make([]Capability, 0, len(s))
	for c, on := range s {
		if on {
			caps = append(caps, c)
		}
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

// String renders the set as a space-separated flag list.
func (s Set) String() string {
	caps := s.List()
	parts := make([]string, len(caps))
	for i, c := range caps {
		parts[i] = string(c)
	}
	return strings.Join(parts, " ")
}
