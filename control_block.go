package ustream

import (
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReleaseFunc frees a payload or a control block. It is invoked exactly once,
// when the refcount of the thing it releases drops to zero. A nil ReleaseFunc
// means the memory is statically owned and must not be released.
type ReleaseFunc func()

// controlBlock is the shared, refcounted record binding a payload to its
// provider and its two release callbacks. It is created by a provider
// factory, mutated only through atomic refcount updates, and torn down when
// the refcount reaches zero.
type controlBlock struct {
	provider provider
	// payload is provider-private state: a byte region for the flat
	// provider, the child pair for the multi provider, and so on. It is
	// never exposed to consumers.
	payload any

	refs atomic.Int64

	releasePayload      ReleaseFunc
	releaseControlBlock ReleaseFunc

	id     uuid.UUID
	logger *zap.Logger
}

func newControlBlock(p provider, payload any, releasePayload, releaseControlBlock ReleaseFunc, logger *zap.Logger) *controlBlock {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New()
	cb := &controlBlock{
		provider:            p,
		payload:             payload,
		releasePayload:      releasePayload,
		releaseControlBlock: releaseControlBlock,
		id:                  id,
		logger: logger.With(
			zap.String("component", "ustream"),
			zap.String("provider", p.name()),
			zap.String("block", id.String()),
		),
	}
	cb.refs.Store(1)
	return cb
}

// acquire adds one reference.
func (cb *controlBlock) acquire() {
	cb.refs.Add(1)
}

// releaseRef drops one reference. When the count reaches zero the payload
// release runs first, then the control-block release. atomic.Int64.Add has
// acquire-release ordering, so the releasing goroutine observes all writes
// made to the payload before the last handle was dropped.
func (cb *controlBlock) releaseRef() {
	if cb.refs.Add(-1) != 0 {
		return
	}
	cb.logger.Debug("refcount reached zero, releasing")
	if cb.releasePayload != nil {
		cb.releasePayload()
	}
	if cb.releaseControlBlock != nil {
		cb.releaseControlBlock()
	}
}
