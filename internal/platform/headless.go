package platform

import (
	"context"
	"fmt"
	"sync"
)

// HeadlessBackend serves a fixed, mutable set of outputs. It is used
// when no display server is available and by tests.
type HeadlessBackend struct {
	mu      sync.Mutex
	outputs []OutputInfo
	notify  chan struct{}
}

var _ Backend = (*HeadlessBackend)(nil)

// NewHeadlessBackend creates a backend with the given outputs.
func NewHeadlessBackend(outputs []OutputInfo) (*HeadlessBackend, error) {
	seen := make(map[string]struct{}, len(outputs))
	for _, o := range outputs {
		if o.Name == "" {
			return nil, fmt.Errorf("headless output without a name")
		}
		if _, dup := seen[o.Name]; dup {
			return nil, fmt.Errorf("duplicate headless output %q", o.Name)
		}
		seen[o.Name] = struct{}{}
	}
	return &HeadlessBackend{
		outputs: append([]OutputInfo(nil), outputs...),
		notify:  make(chan struct{}, 1),
	}, nil
}

// Outputs returns a copy of the current output set.
func (b *HeadlessBackend) Outputs() ([]OutputInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]OutputInfo(nil), b.outputs...), nil
}

// SetOutputs replaces the output set and wakes any watcher.
func (b *HeadlessBackend) SetOutputs(outputs []OutputInfo) {
	b.mu.Lock()
	b.outputs = append([]OutputInfo(nil), outputs...)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Watch blocks until ctx is done, reporting SetOutputs calls.
func (b *HeadlessBackend) Watch(ctx context.Context, changed func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.notify:
			changed()
		}
	}
}

// Close is a no-op for the headless backend.
func (b *HeadlessBackend) Close() {}
