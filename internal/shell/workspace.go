package shell

import (
	"sort"

	"github.com/1broseidon/wayshell/internal/platform"
)

// Workspace owns a space and the per-output fullscreen overrides.
type Workspace struct {
	index      int
	space      *Space
	fullscreen map[string]*Window
}

func newWorkspace(index int) *Workspace {
	return &Workspace{
		index:      index,
		space:      newSpace(),
		fullscreen: make(map[string]*Window),
	}
}

func (ws *Workspace) Index() int    { return ws.index }
func (ws *Workspace) Space() *Space { return ws.space }

// GetFullscreen returns the live fullscreen window on out, provided out
// is still mapped into this workspace.
func (ws *Workspace) GetFullscreen(out *Output) *Window {
	if out == nil || !ws.space.HasOutput(out.Name()) {
		return nil
	}
	w := ws.fullscreen[out.Name()]
	if w == nil || !w.Alive() {
		return nil
	}
	return w
}

// FullscreenOutput returns the name of the output w is fullscreen on.
func (ws *Workspace) FullscreenOutput(w *Window) (string, bool) {
	for name, fw := range ws.fullscreen {
		if fw == w {
			return name, true
		}
	}
	return "", false
}

// IsFullscreen reports whether w is recorded fullscreen on any output.
func (ws *Workspace) IsFullscreen(w *Window) bool {
	_, ok := ws.FullscreenOutput(w)
	return ok
}

// FullscreenRequest makes w fullscreen on out. The first live window
// to claim an output keeps it; later requests are ignored.
func (ws *Workspace) FullscreenRequest(proto Protocol, w *Window, out *Output) bool {
	if cur := ws.fullscreen[out.Name()]; cur != nil && cur.Alive() {
		return false
	}
	if prev, ok := ws.FullscreenOutput(w); ok {
		delete(ws.fullscreen, prev)
	}

	w.pending.Fullscreen = true
	w.pending.Size = out.FullscreenSize()
	w.configure(proto, false)
	ws.fullscreen[out.Name()] = w
	return true
}

// UnfullscreenRequest removes w's fullscreen entry and clears its size
// override. It is the only path that removes fullscreen entries.
func (ws *Workspace) UnfullscreenRequest(proto Protocol, w *Window) bool {
	name, ok := ws.FullscreenOutput(w)
	if !ok {
		return false
	}
	delete(ws.fullscreen, name)
	if w.Alive() {
		w.pending.Fullscreen = false
		w.pending.Size = platform.Size{}
		w.configure(proto, false)
	}
	return true
}

// Refresh unfullscreens windows whose output left the workspace, drops
// dead fullscreen entries and garbage-collects dead windows.
func (ws *Workspace) Refresh(proto Protocol) {
	names := make([]string, 0, len(ws.fullscreen))
	for name := range ws.fullscreen {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		w := ws.fullscreen[name]
		if !ws.space.HasOutput(name) || !w.Alive() {
			ws.UnfullscreenRequest(proto, w)
		}
	}
	ws.space.Refresh()
}

// Fullscreens returns the current output-name to window map.
func (ws *Workspace) Fullscreens() map[string]*Window {
	out := make(map[string]*Window, len(ws.fullscreen))
	for k, v := range ws.fullscreen {
		out[k] = v
	}
	return out
}
