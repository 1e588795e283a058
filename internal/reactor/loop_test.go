package reactor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startLoop(t *testing.T, tick func()) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New(16, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx, tick)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l, cancel
}

func TestPostRunsSequentiallyInOrder(t *testing.T) {
	l, _ := startLoop(t, nil)

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		if err := l.Post(func() { got = append(got, i) }); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}
	n, err := Call(context.Background(), l, func() (int, error) { return len(got), nil })
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if n != 10 {
		t.Fatalf("ran %d closures, want 10", n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("closures ran out of order: %v", got)
		}
	}
}

func TestTickRunsAfterBatch(t *testing.T) {
	var ticks atomic.Int32
	l, _ := startLoop(t, func() { ticks.Add(1) })

	if _, err := Call(context.Background(), l, func() (struct{}, error) { return struct{}{}, nil }); err != nil {
		t.Fatalf("Call: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("tick never ran")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCallReturnsError(t *testing.T) {
	l, _ := startLoop(t, nil)
	want := errors.New("boom")
	if _, err := Call(context.Background(), l, func() (int, error) { return 0, want }); !errors.Is(err, want) {
		t.Fatalf("Call error = %v, want %v", err, want)
	}
}

func TestPanicDoesNotKillLoop(t *testing.T) {
	l, _ := startLoop(t, nil)
	l.Post(func() { panic("handler bug") })

	v, err := Call(context.Background(), l, func() (string, error) { return "alive", nil })
	if err != nil || v != "alive" {
		t.Fatalf("loop died after panic: %q %v", v, err)
	}
}

func TestStopEndsRunAndRejectsPosts(t *testing.T) {
	l, _ := startLoop(t, nil)
	l.Stop()

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after Stop")
	}
	if !l.Stopped() {
		t.Fatalf("Stopped() = false")
	}
	if err := l.Post(func() {}); !errors.Is(err, ErrStopped) {
		t.Fatalf("Post after stop = %v, want ErrStopped", err)
	}
	if _, err := Call(context.Background(), l, func() (int, error) { return 1, nil }); !errors.Is(err, ErrStopped) {
		t.Fatalf("Call after stop = %v, want ErrStopped", err)
	}
}

func TestStopFromHandlerFinishesTick(t *testing.T) {
	var ticked atomic.Bool
	l, _ := startLoop(t, func() { ticked.Store(true) })
	l.Post(func() { l.Stop() })

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return")
	}
	if !ticked.Load() {
		t.Fatalf("tick must run before the loop observes the stop flag")
	}
}

func TestAttachForwardsChannel(t *testing.T) {
	l, _ := startLoop(t, nil)
	ch := make(chan int)
	sum := 0

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Attach(ctx, l, ch, func(v int) { sum += v })

	for i := 1; i <= 4; i++ {
		ch <- i
	}
	close(ch)

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := Call(context.Background(), l, func() (int, error) { return sum, nil })
		if err != nil {
			t.Fatalf("Call: %v", err)
		}
		if got == 10 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("sum = %d, want 10", got)
		}
		time.Sleep(time.Millisecond)
	}
}
