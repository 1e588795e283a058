package shell

import (
	"sort"

	"github.com/1broseidon/wayshell/internal/platform"
)

// Capability is a seat input capability.
type Capability uint8

const (
	CapPointer Capability = 1 << iota
	CapKeyboard
)

// Has reports whether all bits of c2 are set.
func (c Capability) Has(c2 Capability) bool {
	return c&c2 == c2
}

func (c Capability) String() string {
	switch c {
	case 0:
		return "none"
	case CapPointer:
		return "pointer"
	case CapKeyboard:
		return "keyboard"
	case CapPointer | CapKeyboard:
		return "pointer+keyboard"
	}
	return "unknown"
}

// Seat is an input focus endpoint.
type Seat struct {
	name    string
	stacks  map[int]*FocusStack
	devices map[string]Capability

	keyboardFocus platform.SurfaceID
	// grabs is the popup grab chain; the last entry is topmost.
	grabs      []platform.SurfaceID
	lastSerial platform.Serial
}

func newSeat(name string) *Seat {
	return &Seat{
		name:    name,
		stacks:  make(map[int]*FocusStack),
		devices: make(map[string]Capability),
	}
}

func (s *Seat) Name() string                      { return s.name }
func (s *Seat) KeyboardFocus() platform.SurfaceID { return s.keyboardFocus }
func (s *Seat) LastSerial() platform.Serial       { return s.lastSerial }

// Stack returns the focus stack for a workspace, creating it on first use.
func (s *Seat) Stack(workspace int) *FocusStack {
	fs, ok := s.stacks[workspace]
	if !ok {
		fs = &FocusStack{}
		s.stacks[workspace] = fs
	}
	return fs
}

// Capabilities returns the union of all device capabilities.
func (s *Seat) Capabilities() Capability {
	var caps Capability
	for _, c := range s.devices {
		caps |= c
	}
	return caps
}

// AddDevice registers a device and returns the capabilities the seat
// did not have before.
func (s *Seat) AddDevice(id string, caps Capability) Capability {
	before := s.Capabilities()
	s.devices[id] = s.devices[id] | caps
	return s.Capabilities() &^ before
}

// RemoveDevice unregisters a device and returns the capabilities the
// seat no longer has.
func (s *Seat) RemoveDevice(id string) Capability {
	if _, ok := s.devices[id]; !ok {
		return 0
	}
	before := s.Capabilities()
	delete(s.devices, id)
	return before &^ s.Capabilities()
}

// Devices returns the registered device ids in order.
func (s *Seat) Devices() []string {
	ids := make([]string, 0, len(s.devices))
	for id := range s.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Grabs returns the popup grab chain, outermost first.
func (s *Seat) Grabs() []platform.SurfaceID {
	return append([]platform.SurfaceID(nil), s.grabs...)
}

func (s *Seat) topGrab() (platform.SurfaceID, bool) {
	if len(s.grabs) == 0 {
		return 0, false
	}
	return s.grabs[len(s.grabs)-1], true
}

func (s *Seat) dropGrab(surface platform.SurfaceID) bool {
	for i, id := range s.grabs {
		if id == surface {
			s.grabs = append(s.grabs[:i], s.grabs[i+1:]...)
			return true
		}
	}
	return false
}
