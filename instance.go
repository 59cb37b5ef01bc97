package ustream

// Instance is a per-consumer cursor onto a shared, immutable, refcounted
// byte content. Instances are created by a provider factory (the initial
// reference) or by Clone (an additional reference) and must be paired with
// exactly one Dispose.
//
// A single instance must not be used concurrently from more than one
// goroutine; to share content across goroutines, clone it: every clone
// owns an independent cursor over the same bytes.
//
// The content of an instance is split into three contiguous segments:
//
//	released | pending | future
//
// The released prefix was acknowledged via Release and is unreadable. The
// pending window, from the first valid position up to the cursor, can be
// re-read via SetPosition or Reset. The next Read draws from the future
// segment.
type Instance struct {
	cb *controlBlock

	// offsetDiff maps inner positions to the consumer-visible logical
	// domain: logical = inner + offsetDiff (wrapping).
	offsetDiff      uint64
	innerFirstValid uint64
	innerCurrent    uint64
	length          uint64
}

func (s *Instance) valid() *Error {
	if s == nil {
		return errIllegal("nil stream instance")
	}
	if s.cb == nil || s.cb.provider == nil {
		return errIllegal("stream instance is not initialized or already disposed")
	}
	return nil
}

// SetPosition moves the cursor to the given logical position. The position
// must lie inside the pending or future segments; seeking into the released
// prefix or past the end returns NO_SUCH_ELEMENT and leaves the cursor
// untouched.
func (s *Instance) SetPosition(pos uint64) error {
	if err := s.valid(); err != nil {
		return err
	}
	return s.cb.provider.setPosition(s, pos)
}

// Reset returns the cursor to the position immediately following the last
// released byte, or to the start if nothing was released. A fully consumed
// and fully released stream returns NO_SUCH_ELEMENT.
func (s *Instance) Reset() error {
	if err := s.valid(); err != nil {
		return err
	}
	return s.cb.provider.reset(s)
}

// Read copies the next bytes of the stream into buf and advances the
// cursor. It returns the number of bytes written to buf. At the end of the
// stream it returns 0 and an EOF-coded error. An empty buf is an
// ILLEGAL_ARGUMENT. Conversion providers may require a minimum buffer size
// and advance the cursor by the number of source bytes consumed, which can
// differ from the written count.
func (s *Instance) Read(buf []byte) (int, error) {
	if err := s.valid(); err != nil {
		return 0, err
	}
	return s.cb.provider.read(s, buf)
}

// RemainingSize returns the number of source bytes between the cursor and
// the end of the stream.
func (s *Instance) RemainingSize() (uint64, error) {
	if err := s.valid(); err != nil {
		return 0, err
	}
	return s.cb.provider.remaining(s)
}

// Position returns the logical position of the cursor.
func (s *Instance) Position() (uint64, error) {
	if err := s.valid(); err != nil {
		return 0, err
	}
	return s.cb.provider.position(s)
}

// Release acknowledges the prefix up to and including the logical position
// pos; the stream will not be asked for those bytes again. Releasing
// positions at or past the cursor is an ILLEGAL_ARGUMENT; releasing an
// already released position returns NO_SUCH_ELEMENT.
func (s *Instance) Release(pos uint64) error {
	if err := s.valid(); err != nil {
		return err
	}
	return s.cb.provider.release(s, pos)
}

// Clone creates an independent cursor over the same shared content,
// incrementing the control block refcount. The clone starts at the source's
// current position, with an empty pending window, and its logical positions
// are rebased so the start reads as offset. Offsets that would overflow the
// position domain fail with ILLEGAL_ARGUMENT without creating an instance.
func (s *Instance) Clone(offset uint64) (*Instance, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}
	return s.cb.provider.clone(s, offset)
}

// Dispose drops this instance's reference. When the last reference is
// dropped the payload release callback runs, then the control block release
// callback. The instance must not be used after Dispose.
func (s *Instance) Dispose() error {
	if err := s.valid(); err != nil {
		return err
	}
	return s.cb.provider.dispose(s)
}
