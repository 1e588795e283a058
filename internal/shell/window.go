package shell

import "github.com/1broseidon/wayshell/internal/platform"

// Window is a toplevel surface. It lives in at most one workspace's
// space and is marked dead when its client destroys it.
type Window struct {
	surface platform.SurfaceID
	client  platform.ClientID
	appID   string
	title   string
	alive   bool

	// size is the size of the last committed buffer.
	size platform.Size

	pending    ToplevelState
	sent       ToplevelState
	configured bool
	lastSerial platform.Serial
}

func newWindow(surface platform.SurfaceID, client platform.ClientID) *Window {
	return &Window{surface: surface, client: client, alive: true}
}

func (w *Window) Surface() platform.SurfaceID { return w.surface }
func (w *Window) Client() platform.ClientID   { return w.client }
func (w *Window) AppID() string               { return w.appID }
func (w *Window) Title() string               { return w.title }
func (w *Window) Alive() bool                 { return w.alive }
func (w *Window) Size() platform.Size         { return w.size }

// State returns the state most recently sent to the client.
func (w *Window) State() ToplevelState { return w.sent }

// Activated reports the activated flag of the pending state.
func (w *Window) Activated() bool { return w.pending.Activated }

// Fullscreen reports the fullscreen flag of the pending state.
func (w *Window) Fullscreen() bool { return w.pending.Fullscreen }

// Maximized reports the maximized flag of the pending state.
func (w *Window) Maximized() bool { return w.pending.Maximized }

// LastSerial returns the serial of the last configure sent.
func (w *Window) LastSerial() platform.Serial { return w.lastSerial }

// configure sends the pending state if it differs from what the client
// last saw, or unconditionally when force is set.
func (w *Window) configure(proto Protocol, force bool) bool {
	if !w.alive {
		return false
	}
	if !force && w.configured && w.pending == w.sent {
		return false
	}
	w.lastSerial = proto.ConfigureToplevel(w.surface, w.pending)
	w.sent = w.pending
	w.configured = true
	return true
}

// reset returns the window to its pre-configure state after a null
// buffer commit unmapped it.
func (w *Window) reset() {
	w.pending = ToplevelState{}
	w.sent = ToplevelState{}
	w.configured = false
	w.size = platform.Size{}
}
