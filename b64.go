package ustream

import (
	"encoding/base64"

	"go.uber.org/zap"
)

// base64Payload holds the raw source bytes the conversion provider encodes
// on the fly.
type base64Payload struct {
	data []byte
}

type base64Provider struct{}

var base64API Provider = base64Provider{}

// base64MinBuffer is the conversion granularity: one encoded quantum.
const base64MinBuffer = 4

// NewBase64 creates a conversion stream that exposes the standard base64
// encoding of payload. Positions, remaining sizes and release boundaries
// are all expressed in *source* bytes; Read reports the number of encoded
// bytes written while the cursor advances by the source bytes consumed.
// Read buffers must hold at least one 4-byte quantum.
func NewBase64(payload []byte, logger *zap.Logger) (*Instance, error) {
	if len(payload) == 0 {
		return nil, errIllegal("base64 payload must be non-empty")
	}
	cb := newControlBlock(base64API, &base64Payload{data: payload}, nil, nil, logger)
	return &Instance{cb: cb, length: uint64(len(payload))}, nil
}

func (base64Provider) name() string { return "base64" }

func (base64Provider) setPosition(s *Instance, pos uint64) error { return defaultSetPosition(s, pos) }
func (base64Provider) reset(s *Instance) error                   { return defaultReset(s) }
func (base64Provider) remaining(s *Instance) (uint64, error)     { return defaultRemaining(s) }
func (base64Provider) position(s *Instance) (uint64, error)      { return defaultPosition(s) }
func (base64Provider) release(s *Instance, pos uint64) error     { return defaultRelease(s, pos) }

func (base64Provider) read(s *Instance, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, errIllegal("read buffer must be non-empty")
	}
	if len(buf) < base64MinBuffer {
		return 0, errIllegal("read buffer below conversion granularity (%d bytes)", base64MinBuffer)
	}
	if s.innerCurrent == s.length {
		return 0, errEOF()
	}
	pl := s.cb.payload.(*base64Payload)

	// Consume whole 3-byte groups so no padding appears mid-stream. The
	// final partial group is only emitted together with the end of the
	// source.
	remaining := s.length - s.innerCurrent
	consume := uint64(len(buf)/4) * 3
	if consume >= remaining {
		consume = remaining
	}

	src := pl.data[s.innerCurrent : s.innerCurrent+consume]
	n := base64.StdEncoding.EncodedLen(len(src))
	base64.StdEncoding.Encode(buf[:n], src)
	s.innerCurrent += consume
	return n, nil
}

func (base64Provider) clone(src *Instance, offset uint64) (*Instance, error) {
	return defaultClone(src, offset)
}

func (base64Provider) dispose(s *Instance) error { return defaultDispose(s) }
