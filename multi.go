package ustream

import (
	"sync"
)

// multiPayload is the composite provider's private state: two child
// instances presented as one seamless stream. Child logical positions are
// aligned with the outer inner domain at construction time, so positions
// forward to children without translation.
//
// The lock serializes delegated operations: the children are per-instance
// cursors shared by every clone of the outer stream, and a delegated read
// repositions a child cursor before reading it. Both steps must be seen as
// one transaction by sibling clones running on other goroutines.
type multiPayload struct {
	mu sync.Mutex

	one *Instance
	two *Instance

	// boundary is child one's logical end. Positions below it belong to
	// child one, positions at or above it to child two.
	boundary uint64
}

type multiProvider struct{}

var multiAPI Provider = multiProvider{}

func (multiProvider) name() string { return "multi" }

func (multiProvider) position(s *Instance) (uint64, error)  { return defaultPosition(s) }
func (multiProvider) remaining(s *Instance) (uint64, error) { return defaultRemaining(s) }
func (multiProvider) reset(s *Instance) error               { return defaultReset(s) }

func (multiProvider) setPosition(s *Instance, pos uint64) error {
	inner := pos - s.offsetDiff
	if inner > s.length || inner < s.innerFirstValid {
		return errNoSuchElement("position %d outside [%d, %d]",
			pos, s.innerFirstValid+s.offsetDiff, s.length+s.offsetDiff)
	}

	mp := s.cb.payload.(*multiPayload)
	mp.mu.Lock()
	defer mp.mu.Unlock()

	// Validate against the owning child's window as well: a sibling clone
	// may have released deeper into the shared children.
	child := mp.one
	if inner >= mp.boundary {
		child = mp.two
	}
	if err := child.SetPosition(inner); err != nil {
		return err
	}
	s.innerCurrent = inner
	return nil
}

func (multiProvider) read(s *Instance, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, errIllegal("read buffer must be non-empty")
	}
	if s.innerCurrent == s.length {
		return 0, errEOF()
	}

	mp := s.cb.payload.(*multiPayload)
	mp.mu.Lock()
	defer mp.mu.Unlock()

	// A single call never spans children: the delegated read drains at
	// most the owning child, and the next call resumes in the other one.
	// That keeps provider conversion boundaries intact.
	child := mp.one
	if s.innerCurrent >= mp.boundary {
		child = mp.two
	}
	if err := child.SetPosition(s.innerCurrent); err != nil {
		return 0, err
	}
	n, err := child.Read(buf)
	if err != nil {
		return 0, err
	}

	// Advance by the source bytes the child consumed, not by the written
	// count. Conversion children report a differing written count.
	after, err := child.Position()
	if err != nil {
		return n, err
	}
	s.innerCurrent = after
	return n, nil
}

func (multiProvider) release(s *Instance, pos uint64) error {
	if err := defaultRelease(s, pos); err != nil {
		return err
	}
	inner := pos - s.offsetDiff

	mp := s.cb.payload.(*multiPayload)
	mp.mu.Lock()
	defer mp.mu.Unlock()

	// Forward best-effort: a sibling clone may already have released the
	// same range of the shared children.
	if inner >= mp.boundary {
		if mp.boundary > 0 {
			releaseChild(mp.one, mp.boundary-1)
		}
		releaseChild(mp.two, inner)
	} else {
		releaseChild(mp.one, inner)
	}
	return nil
}

// releaseChild moves the child's scratch cursor past pos and releases
// through pos. The child cursor is transactional state owned by the caller's
// lock, so parking it at pos+1 is safe.
func releaseChild(child *Instance, pos uint64) {
	if err := child.SetPosition(pos + 1); err != nil {
		return
	}
	_ = child.Release(pos)
}

func (multiProvider) clone(src *Instance, offset uint64) (*Instance, error) {
	return defaultClone(src, offset)
}

func (multiProvider) dispose(s *Instance) error { return defaultDispose(s) }
