package shell

import (
	"github.com/1broseidon/wayshell/internal/platform"
	"github.com/1broseidon/wayshell/internal/policy"
)

// Commit is a surface commit as seen by the shell.
type Commit struct {
	Surface platform.SurfaceID
	// Buffer reports whether the committed state has content attached.
	Buffer bool
	// Size is the committed buffer size in logical pixels.
	Size platform.Size
	// Layer carries double-buffered layer-shell state applied with this
	// commit, if the client changed any.
	Layer *LayerState
}

// fail posts a protocol error to the offending client and tears down
// all of that client's surfaces. Other clients are not affected.
func (s *Shell) fail(perr *ProtocolError) error {
	s.logger.Warn("client protocol error",
		"client", perr.Client,
		"surface", perr.Surface,
		"code", perr.Code.String(),
		"message", perr.Message,
	)
	s.proto.PostError(perr.Client, perr.Surface, perr.Code, perr.Message)
	s.ClientGone(perr.Client)
	return perr
}

// NewToplevel registers a pending window requested through the seat
// that last saw input.
func (s *Shell) NewToplevel(client platform.ClientID, surface platform.SurfaceID) error {
	e := &Entry{
		Surface: surface,
		Client:  client,
		Role:    RoleToplevel,
		State:   StatePending,
		Seat:    s.lastSeat,
		Window:  newWindow(surface, client),
	}
	if !s.registry.add(e) {
		return s.fail(protocolErrorf(client, surface, ErrRole, "surface already has a shell role"))
	}
	return nil
}

// NewLayerSurface registers a pending layer surface. An empty output
// name binds it to the first output.
func (s *Shell) NewLayerSurface(client platform.ClientID, surface platform.SurfaceID, output string, layer Layer, namespace string) error {
	if layer < LayerBackground || layer > LayerOverlay {
		return s.fail(protocolErrorf(client, surface, ErrInvalidLayer, "layer %d out of range", int(layer)))
	}
	if output == "" && len(s.outputs) > 0 {
		output = s.outputs[0].Name()
	}
	e := &Entry{
		Surface: surface,
		Client:  client,
		Role:    RoleLayer,
		State:   StatePending,
		Seat:    s.lastSeat,
		Layer: &LayerSurface{
			surface:   surface,
			client:    client,
			namespace: namespace,
			output:    output,
			alive:     true,
			state:     LayerState{Layer: layer},
		},
	}
	if !s.registry.add(e) {
		return s.fail(protocolErrorf(client, surface, ErrRole, "surface already has a shell role"))
	}
	return nil
}

// NewPopup registers a pending popup attached to parent.
func (s *Shell) NewPopup(client platform.ClientID, surface, parent platform.SurfaceID, pos Positioner) error {
	if s.registry.Get(parent) == nil {
		return s.fail(protocolErrorf(client, surface, ErrInvalidPopupParent, "parent surface %d has no shell role", parent))
	}
	if pos.Size.Width <= 0 || pos.Size.Height <= 0 {
		return s.fail(protocolErrorf(client, surface, ErrInvalidSize, "positioner size %dx%d must be positive", pos.Size.Width, pos.Size.Height))
	}
	e := &Entry{
		Surface: surface,
		Client:  client,
		Role:    RolePopup,
		State:   StatePending,
		Seat:    s.lastSeat,
		Popup: &Popup{
			surface:    surface,
			client:     client,
			parent:     parent,
			positioner: pos,
			alive:      true,
		},
	}
	if !s.registry.add(e) {
		return s.fail(protocolErrorf(client, surface, ErrRole, "surface already has a shell role"))
	}
	return nil
}

// SetTitle records a toplevel's title.
func (s *Shell) SetTitle(surface platform.SurfaceID, title string) {
	if e := s.registry.Get(surface); e != nil && e.Role == RoleToplevel {
		e.Window.title = title
	}
}

// SetAppID records a toplevel's application id.
func (s *Shell) SetAppID(surface platform.SurfaceID, appID string) {
	if e := s.registry.Get(surface); e != nil && e.Role == RoleToplevel {
		e.Window.appID = appID
	}
}

// Commit drives the configure handshake. The first commit of a surface
// is answered with exactly one initial configure and maps nothing.
// Once configured, a commit carrying a buffer maps the surface.
// Commits for surfaces without a shell role are ignored.
func (s *Shell) Commit(c Commit) error {
	e := s.registry.Get(c.Surface)
	if e == nil {
		return nil
	}
	switch e.Role {
	case RoleToplevel:
		return s.commitToplevel(e, c)
	case RoleLayer:
		return s.commitLayer(e, c)
	case RolePopup:
		return s.commitPopup(e, c)
	}
	return nil
}

func (s *Shell) commitToplevel(e *Entry, c Commit) error {
	w := e.Window
	switch e.State {
	case StatePending:
		w.configure(s.proto, true)
		e.State = StateConfigurePending

	case StateConfigurePending:
		if !c.Buffer {
			return nil
		}
		w.size = c.Size
		e.State = StateMapped
		out := s.outputForWindow(w)
		s.MapWindow(w, out)
		s.SetFocus(w.surface, e.Seat)

		name := ""
		if out != nil {
			name = out.Name()
		}
		s.notify(policy.WindowMapped{Window: w.surface, Output: name, AppID: w.appID, Title: w.title, Size: w.size})

	case StateMapped:
		if c.Buffer {
			w.size = c.Size
			return nil
		}
		// A null buffer unmaps; the client must go through the
		// initial configure again before it can map.
		s.dismissChildren(w.surface)
		for _, ws := range s.workspaces {
			ws.UnfullscreenRequest(s.proto, w)
			ws.space.UnmapWindow(w)
		}
		for _, st := range s.seats {
			for _, fs := range st.stacks {
				fs.remove(w)
			}
		}
		s.dropKeyboardFocus(w.surface)
		w.reset()
		e.State = StatePending
		s.logger.Debug("window unmapped", "window", w.surface)
		s.notify(policy.WindowClosed{Window: w.surface})
	}
	return nil
}

func (s *Shell) commitLayer(e *Entry, c Commit) error {
	l := e.Layer
	if c.Layer != nil {
		if err := s.validateLayer(e, *c.Layer); err != nil {
			return err
		}
		l.state = *c.Layer
	}

	switch e.State {
	case StatePending:
		bounds := platform.Rect{}
		if out := s.Output(l.output); out != nil {
			size := out.LogicalSize()
			bounds = platform.Rect{Width: size.Width, Height: size.Height}
			if l.state.ExclusiveZone >= 0 {
				bounds = out.layers.NonExclusiveZone()
			}
		}
		l.geometry = layerGeometry(bounds, l.state)
		l.configure(s.proto, true)
		e.State = StateConfigurePending

	case StateConfigurePending:
		if !c.Buffer {
			return nil
		}
		if s.Output(l.output) == nil {
			// The output went away before the layer mapped.
			s.proto.CloseLayer(l.surface)
			l.configured = false
			e.State = StatePending
			return nil
		}
		e.State = StateMapped
		s.MapLayer(l, e.Seat)

	case StateMapped:
		out := s.Output(l.output)
		if !c.Buffer {
			if out != nil {
				out.layers.Unmap(l)
				out.layers.Arrange(s.proto, out.LogicalSize())
			}
			l.configured = false
			e.State = StatePending
			s.dropKeyboardFocus(l.surface)
			return nil
		}
		if c.Layer != nil && out != nil {
			out.layers.Arrange(s.proto, out.LogicalSize())
		}
	}
	return nil
}

func (s *Shell) validateLayer(e *Entry, st LayerState) error {
	if st.Layer < LayerBackground || st.Layer > LayerOverlay {
		return s.fail(protocolErrorf(e.Client, e.Surface, ErrInvalidLayer, "layer %d out of range", int(st.Layer)))
	}
	horiz := platform.EdgeLeft | platform.EdgeRight
	vert := platform.EdgeTop | platform.EdgeBottom
	if st.Size.Width == 0 && !st.Anchor.Has(horiz) {
		return s.fail(protocolErrorf(e.Client, e.Surface, ErrInvalidSize, "width 0 requires left and right anchors"))
	}
	if st.Size.Height == 0 && !st.Anchor.Has(vert) {
		return s.fail(protocolErrorf(e.Client, e.Surface, ErrInvalidSize, "height 0 requires top and bottom anchors"))
	}
	return nil
}

func (s *Shell) commitPopup(e *Entry, c Commit) error {
	p := e.Popup
	switch e.State {
	case StatePending:
		p.geometry = s.unconstrainPopup(p)
		s.proto.ConfigurePopup(p.surface, p.geometry)
		e.State = StateConfigured
	case StateConfigured:
		p.hasContent = c.Buffer
	}
	return nil
}

// surfaceOrigin returns the global location of a surface's origin and
// the output it is shown on.
func (s *Shell) surfaceOrigin(surface platform.SurfaceID) (platform.Point, *Output) {
	e := s.registry.Get(surface)
	if e == nil {
		return platform.Point{}, nil
	}
	switch e.Role {
	case RoleToplevel:
		out := s.outputForWindow(e.Window)
		if ws := s.workspaceFor(e.Window); ws != nil {
			loc, _ := ws.space.WindowLocation(e.Window)
			return loc, out
		}
		return platform.Point{}, out
	case RoleLayer:
		out := s.Output(e.Layer.output)
		if out == nil {
			return platform.Point{}, nil
		}
		return out.Location().Add(e.Layer.geometry.Loc()), out
	case RolePopup:
		loc, out := s.surfaceOrigin(e.Popup.parent)
		return loc.Add(e.Popup.geometry.Loc()), out
	}
	return platform.Point{}, nil
}

// unconstrainPopup positions p against its parent and keeps it inside
// the parent's output.
func (s *Shell) unconstrainPopup(p *Popup) platform.Rect {
	parentLoc, out := s.surfaceOrigin(p.parent)
	if out == nil {
		return p.positioner.Geometry()
	}
	bounds := out.LogicalRect()
	bounds.X -= parentLoc.X
	bounds.Y -= parentLoc.Y
	return UnconstrainPopup(p.positioner, bounds)
}

// Grab gives a configured popup an explicit grab on seat. The popup
// must not be grabbed already, and a popup parent must be the seat's
// topmost grab. Violations are protocol errors. A grab on a popup the
// shell already dismissed is ignored.
func (s *Shell) Grab(client platform.ClientID, surface platform.SurfaceID, seatName string, serial platform.Serial) error {
	e := s.registry.Get(surface)
	if e == nil {
		if _, ok := s.dismissed[surface]; ok {
			return nil
		}
		return s.fail(protocolErrorf(client, surface, ErrRole, "grab on a surface without a shell role"))
	}
	if e.Role != RolePopup {
		return s.fail(protocolErrorf(e.Client, surface, ErrRole, "grab on a %s surface", e.Role))
	}
	p := e.Popup
	if e.State != StateConfigured {
		return s.fail(protocolErrorf(e.Client, surface, ErrInvalidGrab, "grab requested before initial configure"))
	}
	if p.Grabbed() {
		return s.fail(protocolErrorf(e.Client, surface, ErrInvalidGrab, "popup already grabbed"))
	}

	st := s.seat(seatName)
	if pe := s.registry.Get(p.parent); pe != nil && pe.Role == RolePopup {
		if top, ok := st.topGrab(); !ok || top != p.parent {
			return s.fail(protocolErrorf(e.Client, surface, ErrNotTopmostPopup, "parent popup %d is not the topmost grab", p.parent))
		}
	}

	p.grabSeat = st.name
	st.grabs = append(st.grabs, surface)
	st.keyboardFocus = surface
	st.lastSerial = serial
	s.logger.Debug("popup grab", "popup", surface, "seat", st.name)
	return nil
}

// dismissGrabs sends popup_done to every grabbed popup of seat,
// topmost first.
func (s *Shell) dismissGrabs(st *Seat) {
	for len(st.grabs) > 0 {
		top := st.grabs[len(st.grabs)-1]
		s.dismissPopup(top)
		st.dropGrab(top)
	}
}

// dismissPopup tells the client a popup and its children are gone and
// forgets them.
func (s *Shell) dismissPopup(surface platform.SurfaceID) {
	e := s.registry.Get(surface)
	if e == nil || e.Role != RolePopup {
		return
	}
	s.dismissChildren(surface)
	s.proto.PopupDone(surface)
	s.forgetPopup(e)
	s.dismissed[surface] = e.Client
}

func (s *Shell) dismissChildren(parent platform.SurfaceID) {
	for _, child := range s.registry.Children(parent) {
		s.dismissPopup(child.Surface)
	}
}

func (s *Shell) forgetPopup(e *Entry) {
	e.Popup.alive = false
	for _, st := range s.seats {
		st.dropGrab(e.Surface)
	}
	s.registry.remove(e.Surface)
	s.dropKeyboardFocus(e.Surface)
}

// dropKeyboardFocus moves keyboard focus away from a surface that is
// going away, back to the seat's most recent window.
func (s *Shell) dropKeyboardFocus(surface platform.SurfaceID) {
	active := s.ActiveWorkspace()
	for _, st := range s.seats {
		if st.keyboardFocus != surface {
			continue
		}
		st.keyboardFocus = 0
		if top, ok := st.topGrab(); ok {
			st.keyboardFocus = top
		} else if w := st.Stack(active.index).Last(); w != nil && w.surface != surface {
			st.keyboardFocus = w.surface
		}
	}
}

// Destroy handles a client destroying a shell surface. Windows and
// layers are marked dead and cleaned up by the next Refresh.
func (s *Shell) Destroy(surface platform.SurfaceID) {
	delete(s.dismissed, surface)
	e := s.registry.Get(surface)
	if e == nil {
		return
	}
	s.dismissChildren(surface)

	switch e.Role {
	case RoleToplevel:
		wasMapped := e.State == StateMapped
		e.Window.alive = false
		s.registry.remove(surface)
		s.dropKeyboardFocus(surface)
		if wasMapped {
			s.notify(policy.WindowClosed{Window: surface})
		}
	case RoleLayer:
		e.Layer.alive = false
		s.registry.remove(surface)
		s.dropKeyboardFocus(surface)
	case RolePopup:
		s.forgetPopup(e)
	}
}

// ClientGone destroys every surface of a disconnected client.
func (s *Shell) ClientGone(client platform.ClientID) {
	for _, id := range s.registry.ByClient(client) {
		s.Destroy(id)
	}
	for id, owner := range s.dismissed {
		if owner == client {
			delete(s.dismissed, id)
		}
	}
}
