package render

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/1broseidon/wayshell/internal/platform"
	"github.com/1broseidon/wayshell/internal/shell"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func frameWith(surfaces ...shell.SurfaceFrame) shell.Frame {
	return shell.Frame{Output: "OUT-1", Size: platform.Size{Width: 1920, Height: 1080}, Windows: surfaces}
}

var outInfo = platform.OutputInfo{Name: "OUT-1"}

func TestTrackerFirstFrameIsFull(t *testing.T) {
	tr := NewTracker()
	d, err := tr.RenderOutput(outInfo, 2, false, frameWith())
	if err != nil {
		t.Fatalf("RenderOutput: %v", err)
	}
	if !d.Full {
		t.Fatalf("first frame must be a full redraw")
	}
}

func TestTrackerAgeZeroIsFull(t *testing.T) {
	tr := NewTracker()
	tr.RenderOutput(outInfo, 0, false, frameWith())
	d, _ := tr.RenderOutput(outInfo, 0, false, frameWith())
	if !d.Full {
		t.Fatalf("age 0 must be a full redraw")
	}
}

func TestTrackerDamagesMovedWindow(t *testing.T) {
	tr := NewTracker()
	a := shell.SurfaceFrame{Surface: 1, Geometry: platform.Rect{X: 0, Y: 0, Width: 100, Height: 100}}
	tr.RenderOutput(outInfo, 0, false, frameWith(a))

	d, _ := tr.RenderOutput(outInfo, 1, false, frameWith(a))
	if !d.Empty() {
		t.Fatalf("unchanged frame should have no damage, got %+v", d)
	}

	moved := a
	moved.Geometry.X = 200
	d, _ = tr.RenderOutput(outInfo, 1, false, frameWith(moved))
	if d.Full || len(d.Rects) != 2 {
		t.Fatalf("move should damage old and new rects, got %+v", d)
	}

	// Age 2 also repaints what changed one frame earlier.
	d, _ = tr.RenderOutput(outInfo, 2, false, frameWith(moved))
	if d.Full || len(d.Rects) != 2 {
		t.Fatalf("age 2 damage = %+v", d)
	}
}

func TestTrackerClipsToOutput(t *testing.T) {
	tr := NewTracker()
	tr.RenderOutput(outInfo, 0, false, frameWith())
	big := shell.SurfaceFrame{Surface: 3, Geometry: platform.Rect{X: 1800, Y: 1000, Width: 400, Height: 400}}
	d, _ := tr.RenderOutput(outInfo, 1, false, frameWith(big))
	if len(d.Rects) != 1 || d.Rects[0] != (platform.Rect{X: 1800, Y: 1000, Width: 120, Height: 80}) {
		t.Fatalf("damage = %+v", d.Rects)
	}
}

type fakeRenderer struct {
	ages []int
	fail bool
}

func (r *fakeRenderer) RenderOutput(_ platform.OutputInfo, age int, _ bool, _ shell.Frame) (Damage, error) {
	r.ages = append(r.ages, age)
	if r.fail {
		return Damage{}, errors.New("gpu lost")
	}
	return Damage{Full: age == 0}, nil
}

type fakeProtocol struct{}

func (fakeProtocol) ConfigureToplevel(platform.SurfaceID, shell.ToplevelState) platform.Serial { return 1 }
func (fakeProtocol) ConfigureLayer(platform.SurfaceID, platform.Size) platform.Serial          { return 1 }
func (fakeProtocol) ConfigurePopup(platform.SurfaceID, platform.Rect) platform.Serial          { return 1 }
func (fakeProtocol) PopupDone(platform.SurfaceID)                                              {}
func (fakeProtocol) CloseToplevel(platform.SurfaceID)                                          {}
func (fakeProtocol) CloseLayer(platform.SurfaceID)                                             {}
func (fakeProtocol) PostError(platform.ClientID, platform.SurfaceID, shell.ErrorCode, string)  {}

// chanPoster hands posted closures to the test goroutine.
type chanPoster chan func()

func (p chanPoster) Post(fn func()) error {
	p <- fn
	return nil
}

func newTestShell() *shell.Shell {
	sh := shell.New(fakeProtocol{}, nil, nil, testLogger())
	sh.AddOutput(platform.OutputInfo{
		Name:  "OUT-1",
		Mode:  platform.Mode{Width: 1920, Height: 1080, Refresh: 60000},
		Scale: 1,
	})
	return sh
}

func TestSchedulerAgeResetsOnFailure(t *testing.T) {
	sh := newTestShell()
	r := &fakeRenderer{}
	s := NewScheduler(make(chanPoster, 1), sh, r, time.Hour, false, testLogger())
	s.Add("OUT-1")
	defer s.Stop()
	tm := s.outputs["OUT-1"]

	s.render(tm)
	s.render(tm)
	r.fail = true
	s.render(tm)
	r.fail = false
	s.render(tm)

	want := []int{0, 1, 2, 0}
	for i, age := range want {
		if r.ages[i] != age {
			t.Fatalf("ages = %v, want %v", r.ages, want)
		}
	}
	st := s.Stats()
	if len(st) != 1 || st[0].Rendered != 3 || st[0].Skipped != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestSchedulerRemovedOutputCancelsFrame(t *testing.T) {
	sh := newTestShell()
	r := &fakeRenderer{}
	s := NewScheduler(make(chanPoster, 1), sh, r, time.Hour, false, testLogger())
	s.Add("OUT-1")
	tm := s.outputs["OUT-1"]

	s.Remove("OUT-1")
	s.frame(tm)

	if len(r.ages) != 0 {
		t.Fatalf("cancelled output was rendered")
	}
	if len(s.Outputs()) != 0 {
		t.Fatalf("timer still registered")
	}
}

func TestSchedulerDropsOutputGoneFromShell(t *testing.T) {
	sh := newTestShell()
	r := &fakeRenderer{}
	s := NewScheduler(make(chanPoster, 1), sh, r, time.Hour, false, testLogger())
	s.Add("OUT-1")
	tm := s.outputs["OUT-1"]

	sh.RemoveOutput("OUT-1")
	s.frame(tm)

	if len(r.ages) != 0 || len(s.Outputs()) != 0 {
		t.Fatalf("frame for a removed output must cancel its timer")
	}
}

func TestSchedulerTimerPostsFrames(t *testing.T) {
	sh := newTestShell()
	r := &fakeRenderer{}
	post := make(chanPoster, 4)
	s := NewScheduler(post, sh, r, time.Millisecond, false, testLogger())
	s.Add("OUT-1")
	defer s.Stop()

	for i := 0; i < 3; i++ {
		select {
		case fn := <-post:
			fn()
		case <-time.After(2 * time.Second):
			t.Fatalf("frame %d never posted", i)
		}
	}
	if len(r.ages) != 3 {
		t.Fatalf("rendered %d frames, want 3", len(r.ages))
	}
}

func TestSchedulerSync(t *testing.T) {
	sh := newTestShell()
	s := NewScheduler(make(chanPoster, 1), sh, &fakeRenderer{}, time.Hour, false, testLogger())
	defer s.Stop()
	s.Sync([]string{"OUT-1", "OUT-2"})
	s.Sync([]string{"OUT-2"})
	if got := s.Outputs(); len(got) != 1 || got[0] != "OUT-2" {
		t.Fatalf("outputs = %v", got)
	}
}

func TestIntervalFromRefresh(t *testing.T) {
	sh := newTestShell()
	s := NewScheduler(make(chanPoster, 1), sh, &fakeRenderer{}, 0, false, testLogger())
	if got := s.intervalFor("OUT-1"); got != 16666666*time.Nanosecond {
		t.Fatalf("interval = %v", got)
	}
	if got := s.intervalFor("missing"); got != DefaultFrameInterval {
		t.Fatalf("interval = %v", got)
	}
}
