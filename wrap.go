package ustream

import (
	"sync"
)

// wrapPayload is the shared state of single-child wrapper providers
// (throttle, secure, instrument). The child is a private clone whose
// logical domain is aligned 1:1 with the outer inner domain; like the
// composite's children, its cursor is scratch state repositioned under the
// lock on every delegated operation.
type wrapPayload struct {
	mu    sync.Mutex
	child *Instance
}

// newWrapPayload clones child for private use by a wrapper control block.
// The clone is taken at offset 0, so the child's remaining content reads as
// logical [0, remaining) for both the child and the outer stream.
func newWrapPayload(child *Instance) (*wrapPayload, error) {
	private, err := child.Clone(0)
	if err != nil {
		return nil, err
	}
	return &wrapPayload{child: private}, nil
}

func (wp *wrapPayload) dispose() {
	_ = wp.child.Dispose()
}

func (wp *wrapPayload) setPosition(s *Instance, pos uint64) error {
	inner := pos - s.offsetDiff
	if inner > s.length || inner < s.innerFirstValid {
		return errNoSuchElement("position %d outside [%d, %d]",
			pos, s.innerFirstValid+s.offsetDiff, s.length+s.offsetDiff)
	}
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if err := wp.child.SetPosition(inner); err != nil {
		return err
	}
	s.innerCurrent = inner
	return nil
}

func (wp *wrapPayload) read(s *Instance, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, errIllegal("read buffer must be non-empty")
	}
	if s.innerCurrent == s.length {
		return 0, errEOF()
	}
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if err := wp.child.SetPosition(s.innerCurrent); err != nil {
		return 0, err
	}
	n, err := wp.child.Read(buf)
	if err != nil {
		return 0, err
	}
	after, err := wp.child.Position()
	if err != nil {
		return n, err
	}
	s.innerCurrent = after
	return n, nil
}

func (wp *wrapPayload) release(s *Instance, pos uint64) error {
	if err := defaultRelease(s, pos); err != nil {
		return err
	}
	wp.mu.Lock()
	defer wp.mu.Unlock()
	releaseChild(wp.child, pos-s.offsetDiff)
	return nil
}

// wrapInstance builds the outer instance for a freshly created wrapper
// control block, spanning the child's remaining content.
func wrapInstance(cb *controlBlock, wp *wrapPayload) (*Instance, error) {
	remaining, err := wp.child.RemainingSize()
	if err != nil {
		return nil, err
	}
	return &Instance{cb: cb, length: remaining}, nil
}
