package shell

import (
	"sort"

	"github.com/1broseidon/wayshell/internal/platform"
)

// Role is the shell role of a registered surface.
type Role int

const (
	RoleToplevel Role = iota + 1
	RoleLayer
	RolePopup
)

func (r Role) String() string {
	switch r {
	case RoleToplevel:
		return "toplevel"
	case RoleLayer:
		return "layer"
	case RolePopup:
		return "popup"
	}
	return "unknown"
}

// SurfaceState is a surface's position in the configure handshake.
// Toplevels and layers move Pending, ConfigurePending, Mapped. Popups
// move Pending, Configured.
type SurfaceState int

const (
	StatePending SurfaceState = iota
	StateConfigurePending
	StateMapped
	StateConfigured
)

func (s SurfaceState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfigurePending:
		return "configure_pending"
	case StateMapped:
		return "mapped"
	case StateConfigured:
		return "configured"
	}
	return "unknown"
}

// Entry is the registry record for one shell surface.
type Entry struct {
	Surface platform.SurfaceID
	Client  platform.ClientID
	Role    Role
	State   SurfaceState
	// Seat is the seat that requested the surface; it receives focus
	// when a toplevel maps.
	Seat string

	Window *Window
	Layer  *LayerSurface
	Popup  *Popup
}

// Registry maps surface ids to their shell state.
type Registry struct {
	entries map[platform.SurfaceID]*Entry
}

func newRegistry() *Registry {
	return &Registry{entries: make(map[platform.SurfaceID]*Entry)}
}

// Get returns the entry for surface, or nil.
func (r *Registry) Get(surface platform.SurfaceID) *Entry {
	return r.entries[surface]
}

func (r *Registry) add(e *Entry) bool {
	if _, exists := r.entries[e.Surface]; exists {
		return false
	}
	r.entries[e.Surface] = e
	return true
}

func (r *Registry) remove(surface platform.SurfaceID) {
	delete(r.entries, surface)
}

// Len returns the number of registered surfaces.
func (r *Registry) Len() int {
	return len(r.entries)
}

// ByClient returns the client's surfaces in id order.
func (r *Registry) ByClient(client platform.ClientID) []platform.SurfaceID {
	var ids []platform.SurfaceID
	for id, e := range r.entries {
		if e.Client == client {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Children returns the popups whose parent is surface, in id order.
func (r *Registry) Children(surface platform.SurfaceID) []*Entry {
	var kids []*Entry
	for _, e := range r.entries {
		if e.Role == RolePopup && e.Popup.parent == surface {
			kids = append(kids, e)
		}
	}
	sort.Slice(kids, func(i, j int) bool { return kids[i].Surface < kids[j].Surface })
	return kids
}

// Windows returns every registered toplevel in id order.
func (r *Registry) Windows() []*Entry {
	var out []*Entry
	for _, e := range r.entries {
		if e.Role == RoleToplevel {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Surface < out[j].Surface })
	return out
}

// Clients returns every client owning a registered surface, in id order.
func (r *Registry) Clients() []platform.ClientID {
	seen := make(map[platform.ClientID]struct{})
	var out []platform.ClientID
	for _, e := range r.entries {
		if _, ok := seen[e.Client]; ok {
			continue
		}
		seen[e.Client] = struct{}{}
		out = append(out, e.Client)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
