package shell

import "testing"

func TestFocusStackAppend(t *testing.T) {
	a, b, c := newWindow(1, 1), newWindow(2, 1), newWindow(3, 1)
	var fs FocusStack

	fs.Append(a)
	fs.Append(b)
	fs.Append(c)

	fs.Append(c)
	assertStack(t, &fs, a, b, c)

	fs.Append(a)
	assertStack(t, &fs, b, c, a)
	if fs.Last() != a {
		t.Fatalf("Last() = %v, want a", fs.Last())
	}
}

func TestFocusStackSkipsDeadLazily(t *testing.T) {
	a, b, c := newWindow(1, 1), newWindow(2, 1), newWindow(3, 1)
	var fs FocusStack
	fs.Append(a)
	fs.Append(b)
	fs.Append(c)

	c.alive = false
	if fs.Last() != b {
		t.Fatalf("Last() should skip the dead tail")
	}
	if fs.Len() != 3 {
		t.Fatalf("reads must not compact, Len() = %d", fs.Len())
	}

	fs.Append(a)
	assertStack(t, &fs, b, a)
}

func TestFocusStackEmpty(t *testing.T) {
	var fs FocusStack
	if fs.Last() != nil {
		t.Fatalf("empty stack returned a window")
	}
	w := newWindow(1, 1)
	fs.Append(w)
	w.alive = false
	if fs.Last() != nil {
		t.Fatalf("stack of dead windows returned a window")
	}
}

func assertStack(t *testing.T, fs *FocusStack, want ...*Window) {
	t.Helper()
	got := fs.Windows()
	if len(got) != len(want) {
		t.Fatalf("stack has %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stack[%d] = surface %d, want surface %d", i, got[i].surface, want[i].surface)
		}
	}
}
