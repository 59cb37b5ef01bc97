package ustream

import (
	"go.uber.org/zap"
)

// flatPayload is the flat provider's private state: one contiguous,
// immutable byte region.
type flatPayload struct {
	data []byte
}

type flatProvider struct{}

var flatAPI Provider = flatProvider{}

// FlatConfig configures a flat stream over a caller-supplied byte region.
type FlatConfig struct {
	// Payload is the byte region exposed by the stream. The region must
	// stay immutable and valid until ReleasePayload runs.
	Payload []byte

	// ReleasePayload runs once, when the last instance over this content
	// is disposed. Nil when the payload is statically owned.
	ReleasePayload ReleaseFunc

	// ReleaseControlBlock runs after ReleasePayload on the same refcount
	// drop. Nil when nothing beyond the payload needs releasing.
	ReleaseControlBlock ReleaseFunc

	Logger *zap.Logger
}

// NewFlat creates a stream over a contiguous byte region. The payload is
// aliased, not copied; it belongs to the stream until ReleasePayload runs.
func NewFlat(cfg FlatConfig) (*Instance, error) {
	if len(cfg.Payload) == 0 {
		return nil, errIllegal("flat payload must be non-empty")
	}
	cb := newControlBlock(flatAPI, &flatPayload{data: cfg.Payload},
		cfg.ReleasePayload, cfg.ReleaseControlBlock, cfg.Logger)
	return &Instance{cb: cb, length: uint64(len(cfg.Payload))}, nil
}

// FromBytes creates a flat stream over a private copy of b.
func FromBytes(b []byte, logger *zap.Logger) (*Instance, error) {
	owned := make([]byte, len(b))
	copy(owned, b)
	return NewFlat(FlatConfig{Payload: owned, Logger: logger})
}

// FromConst creates a flat stream aliasing b without taking ownership.
// The caller guarantees b outlives every instance and stays immutable;
// nothing is released on the final dispose.
func FromConst(b []byte, logger *zap.Logger) (*Instance, error) {
	return NewFlat(FlatConfig{Payload: b, Logger: logger})
}

func (flatProvider) name() string { return "flat" }

func (flatProvider) setPosition(s *Instance, pos uint64) error { return defaultSetPosition(s, pos) }
func (flatProvider) reset(s *Instance) error                   { return defaultReset(s) }
func (flatProvider) remaining(s *Instance) (uint64, error)     { return defaultRemaining(s) }
func (flatProvider) position(s *Instance) (uint64, error)      { return defaultPosition(s) }

// release updates the first valid position only. The payload is one region
// shared by every clone, so bytes are freed at refcount zero, never at
// release time.
func (flatProvider) release(s *Instance, pos uint64) error { return defaultRelease(s, pos) }

func (flatProvider) read(s *Instance, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, errIllegal("read buffer must be non-empty")
	}
	if s.innerCurrent == s.length {
		return 0, errEOF()
	}
	pl := s.cb.payload.(*flatPayload)
	n := copy(buf, pl.data[s.innerCurrent:s.length])
	s.innerCurrent += uint64(n)
	return n, nil
}

func (flatProvider) clone(src *Instance, offset uint64) (*Instance, error) {
	return defaultClone(src, offset)
}

func (flatProvider) dispose(s *Instance) error { return defaultDispose(s) }
