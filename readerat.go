package ustream

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"
)

// readerAtPayload is the media provider's private state.
type readerAtPayload struct {
	r   io.ReaderAt
	ctx context.Context
}

type readerAtProvider struct{}

var readerAtAPI Provider = readerAtProvider{}

// ReaderAtConfig configures a stream over a fixed-length medium exposed as
// an io.ReaderAt. This is the bridge every external medium uses: files,
// network blobs and database chunks all implement io.ReaderAt in their own
// package and hand the cursor algebra to this provider.
type ReaderAtConfig struct {
	// Reader serves the medium's bytes. The content behind it must be
	// immutable and at least Size bytes long.
	Reader io.ReaderAt

	// Size is the content length in bytes. It is fixed at creation; media
	// that can grow must snapshot a length first.
	Size uint64

	// Context, when non-nil, cancels in-flight reads: once it is done
	// every Read returns CANCELLED.
	Context context.Context

	// ReleasePayload typically closes the medium handle.
	ReleasePayload ReleaseFunc

	ReleaseControlBlock ReleaseFunc

	Logger *zap.Logger
}

// FromReaderAt creates a stream over a fixed-length io.ReaderAt medium.
func FromReaderAt(cfg ReaderAtConfig) (*Instance, error) {
	if cfg.Reader == nil {
		return nil, errIllegal("reader must be non-nil")
	}
	if cfg.Size == 0 {
		return nil, errIllegal("size must be positive")
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	cb := newControlBlock(readerAtAPI, &readerAtPayload{r: cfg.Reader, ctx: ctx},
		cfg.ReleasePayload, cfg.ReleaseControlBlock, cfg.Logger)
	return &Instance{cb: cb, length: cfg.Size}, nil
}

func (readerAtProvider) name() string { return "readerat" }

func (readerAtProvider) setPosition(s *Instance, pos uint64) error { return defaultSetPosition(s, pos) }
func (readerAtProvider) reset(s *Instance) error                   { return defaultReset(s) }
func (readerAtProvider) remaining(s *Instance) (uint64, error)     { return defaultRemaining(s) }
func (readerAtProvider) position(s *Instance) (uint64, error)      { return defaultPosition(s) }
func (readerAtProvider) release(s *Instance, pos uint64) error     { return defaultRelease(s, pos) }

func (readerAtProvider) read(s *Instance, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, errIllegal("read buffer must be non-empty")
	}
	if s.innerCurrent == s.length {
		return 0, errEOF()
	}
	pl := s.cb.payload.(*readerAtPayload)
	if err := pl.ctx.Err(); err != nil {
		return 0, NewError(CodeCancelled, "read cancelled").WithCause(err)
	}
	want := s.length - s.innerCurrent
	if want > uint64(len(buf)) {
		want = uint64(len(buf))
	}
	n, err := pl.r.ReadAt(buf[:want], int64(s.innerCurrent))
	if n > 0 {
		// Partial reads advance the cursor; the medium error, if any,
		// surfaces on the next call.
		s.innerCurrent += uint64(n)
		return n, nil
	}
	if err == nil {
		err = io.ErrNoProgress
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return 0, NewError(CodeCancelled, "read cancelled").WithCause(err)
	default:
		s.cb.logger.Warn("medium read failed", zap.Uint64("position", s.innerCurrent), zap.Error(err))
		return 0, NewError(CodeSystem, "medium read failed").WithCause(err)
	}
}

func (readerAtProvider) clone(src *Instance, offset uint64) (*Instance, error) {
	return defaultClone(src, offset)
}

func (readerAtProvider) dispose(s *Instance) error { return defaultDispose(s) }
