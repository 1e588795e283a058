package shell

import "github.com/1broseidon/wayshell/internal/platform"

// DeviceAdded registers an input device on a seat and returns the
// capabilities the seat gained.
func (s *Shell) DeviceAdded(seat, device string, caps Capability) Capability {
	st := s.seat(seat)
	gained := st.AddDevice(device, caps)
	if gained != 0 {
		s.logger.Info("seat capabilities gained", "seat", st.name, "device", device, "capabilities", gained.String())
	}
	return gained
}

// DeviceRemoved unregisters an input device and returns the
// capabilities the seat lost.
func (s *Shell) DeviceRemoved(seat, device string) Capability {
	st := s.seat(seat)
	lost := st.RemoveDevice(device)
	if lost != 0 {
		s.logger.Info("seat capabilities lost", "seat", st.name, "device", device, "capabilities", lost.String())
	}
	return lost
}

// Keyboard records keyboard activity on a seat. Key events carry no
// focus logic.
func (s *Shell) Keyboard(seat string, serial platform.Serial) {
	st := s.seat(seat)
	st.lastSerial = serial
	s.lastSeat = st.name
}

// PointerMotion records pointer activity on a seat.
func (s *Shell) PointerMotion(seat string) {
	s.lastSeat = s.seat(seat).name
}

// PointerButton focuses the surface under the pointer on press. A press
// outside the seat's popup grab chain dismisses the grabbed popups.
func (s *Shell) PointerButton(seat string, serial platform.Serial, pos platform.Point, pressed bool) {
	st := s.seat(seat)
	st.lastSerial = serial
	s.lastSeat = st.name
	if !pressed {
		return
	}

	surface := s.SurfaceUnder(pos)
	if len(st.grabs) > 0 && !s.inGrabChain(st, surface) {
		s.dismissGrabs(st)
	}
	if surface == 0 {
		return
	}
	if e := s.registry.Get(surface); e != nil && e.Role == RolePopup {
		return
	}
	s.SetFocus(surface, st.name)
}

func (s *Shell) inGrabChain(st *Seat, surface platform.SurfaceID) bool {
	for _, id := range st.grabs {
		if id == surface {
			return true
		}
	}
	return false
}

// SurfaceUnder returns the topmost surface at a global position:
// popups, then overlay and top layers, then the workspace windows,
// then bottom and background layers. A fullscreen window hides all but
// the overlay layer.
func (s *Shell) SurfaceUnder(pos platform.Point) platform.SurfaceID {
	var out *Output
	for _, o := range s.outputs {
		if o.LogicalRect().Contains(pos) {
			out = o
			break
		}
	}
	if out == nil {
		return 0
	}

	if f, ok := s.FrameFor(out.Name()); ok {
		local := pos.Sub(out.Location())
		for i := len(f.Popups) - 1; i >= 0; i-- {
			if f.Popups[i].Geometry.Contains(local) {
				return f.Popups[i].Surface
			}
		}
	}

	ws := s.ActiveWorkspace()
	if fw := ws.GetFullscreen(out); fw != nil {
		if id := s.layerUnder(out, pos, LayerOverlay); id != 0 {
			return id
		}
		return fw.surface
	}
	if id := s.layerUnder(out, pos, LayerOverlay, LayerTop); id != 0 {
		return id
	}
	if w := ws.space.WindowUnder(pos); w != nil {
		return w.surface
	}
	return s.layerUnder(out, pos, LayerBottom, LayerBackground)
}

func (s *Shell) layerUnder(out *Output, pos platform.Point, layers ...Layer) platform.SurfaceID {
	local := pos.Sub(out.Location())
	for _, layer := range layers {
		ls := out.layers.LayersOn(layer)
		for i := len(ls) - 1; i >= 0; i-- {
			if ls[i].geometry.Contains(local) {
				return ls[i].surface
			}
		}
	}
	return 0
}
