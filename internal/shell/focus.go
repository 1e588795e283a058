package shell

// FocusStack records a seat's recently focused windows on one
// workspace, most recent last.
type FocusStack struct {
	windows []*Window
}

// Append moves w to the top of the stack. Dead entries are compacted
// here rather than on read.
func (fs *FocusStack) Append(w *Window) {
	kept := fs.windows[:0]
	for _, cur := range fs.windows {
		if cur != w && cur.Alive() {
			kept = append(kept, cur)
		}
	}
	for i := len(kept); i < len(fs.windows); i++ {
		fs.windows[i] = nil
	}
	fs.windows = append(kept, w)
}

// Last returns the most recently focused live window, or nil.
func (fs *FocusStack) Last() *Window {
	for i := len(fs.windows) - 1; i >= 0; i-- {
		if fs.windows[i].Alive() {
			return fs.windows[i]
		}
	}
	return nil
}

// Len returns the number of entries, dead ones included.
func (fs *FocusStack) Len() int {
	return len(fs.windows)
}

// Windows returns the stack bottom to top.
func (fs *FocusStack) Windows() []*Window {
	return append([]*Window(nil), fs.windows...)
}

// remove drops w without reordering the rest.
func (fs *FocusStack) remove(w *Window) {
	for i, cur := range fs.windows {
		if cur == w {
			fs.windows = append(fs.windows[:i], fs.windows[i+1:]...)
			return
		}
	}
}
