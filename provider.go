package ustream

import "math"

// Provider is the polymorphic stream contract: the eight operations every
// stream provider implements. The interface is sealed: implementations live
// in this package, and external media plug in through FromReaderAt instead
// of implementing the operation set themselves. That keeps the cursor
// algebra (released / pending / future window, logical-to-inner mapping) in
// one place while media backends only supply bytes.
//
// Provider values are singletons; IsOfType compares them by identity.
type Provider interface {
	// name reports the provider kind for logs and metrics.
	name() string

	setPosition(s *Instance, pos uint64) error
	reset(s *Instance) error
	read(s *Instance, buf []byte) (int, error)
	remaining(s *Instance) (uint64, error)
	position(s *Instance) (uint64, error)
	release(s *Instance, pos uint64) error
	clone(src *Instance, offset uint64) (*Instance, error)
	dispose(s *Instance) error
}

// provider is the internal alias the control block stores.
type provider = Provider

// IsOfType reports whether s is a live instance of the given provider:
// s is non-nil, its control block is non-nil, and the control block's
// provider is identical to p.
func IsOfType(s *Instance, p Provider) bool {
	return s != nil && s.cb != nil && s.cb.provider != nil && p != nil && s.cb.provider == p
}

// Flat returns the flat in-memory provider singleton.
func Flat() Provider { return flatAPI }

// Multi returns the composite provider singleton.
func Multi() Provider { return multiAPI }

// ReaderAtKind returns the io.ReaderAt media provider singleton.
func ReaderAtKind() Provider { return readerAtAPI }

// Base64 returns the base64 conversion provider singleton.
func Base64() Provider { return base64API }

// Throttled returns the rate-limited wrapper provider singleton.
func Throttled() Provider { return throttleAPI }

// Secured returns the token-gated wrapper provider singleton.
func Secured() Provider { return secureAPI }

// Instrumented returns the metrics/tracing wrapper provider singleton.
func Instrumented() Provider { return instrumentAPI }

// ============================================================================
// Shared cursor algebra
// ============================================================================
//
// Every provider whose positions map 1:1 onto its payload bytes shares the
// same window arithmetic. Positions are uint64 and offsetDiff is applied
// with wrapping arithmetic; the invariant that matters is
// logical = inner + offsetDiff (mod 2^64).

func defaultSetPosition(s *Instance, pos uint64) error {
	inner := pos - s.offsetDiff
	if inner > s.length || inner < s.innerFirstValid {
		return errNoSuchElement("position %d outside [%d, %d]",
			pos, s.innerFirstValid+s.offsetDiff, s.length+s.offsetDiff)
	}
	s.innerCurrent = inner
	return nil
}

func defaultReset(s *Instance) error {
	if s.innerFirstValid == s.length {
		return errNoSuchElement("nothing left to re-read")
	}
	s.innerCurrent = s.innerFirstValid
	return nil
}

func defaultRemaining(s *Instance) (uint64, error) {
	return s.length - s.innerCurrent, nil
}

func defaultPosition(s *Instance) (uint64, error) {
	return s.innerCurrent + s.offsetDiff, nil
}

// defaultRelease marks the bytes up to and including pos as released. The
// boundary is inclusive: the new first valid inner position is pos+1 in the
// inner domain.
func defaultRelease(s *Instance, pos uint64) error {
	inner := pos - s.offsetDiff + 1
	if inner > s.innerCurrent {
		return errIllegal("cannot release unread bytes at position %d", pos)
	}
	if inner <= s.innerFirstValid {
		return errNoSuchElement("position %d already released", pos)
	}
	s.innerFirstValid = inner
	return nil
}

// defaultClone creates a second handle onto src's control block. The clone's
// window collapses to src's current position and its logical positions are
// rebased so the current position reads as offset.
func defaultClone(src *Instance, offset uint64) (*Instance, error) {
	remaining := src.length - src.innerCurrent
	if remaining > 0 && offset > math.MaxUint64-remaining {
		return nil, errIllegal("offset %d overflows the position domain", offset)
	}
	src.cb.acquire()
	return &Instance{
		cb:              src.cb,
		offsetDiff:      offset - src.innerCurrent,
		innerFirstValid: src.innerCurrent,
		innerCurrent:    src.innerCurrent,
		length:          src.length,
	}, nil
}

func defaultDispose(s *Instance) error {
	cb := s.cb
	s.cb = nil
	cb.releaseRef()
	return nil
}
