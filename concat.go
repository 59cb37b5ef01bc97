package ustream

import (
	"go.uber.org/zap"
)

// Concat composes two streams into one whose content is first's remaining
// content followed by second's remaining content. The operation is O(1) and
// copies no bytes.
//
// Both inputs are left untouched: each is cloned into a child slot of a
// fresh control block, so their refcounts are bumped and their cursors,
// windows and observable streams are exactly as before the call. An
// already-composite first argument is cloned like any other stream rather
// than absorbed, so ownership rules stay uniform: the caller still owns,
// and must still dispose, first and second, plus the returned stream.
//
// On any failure all partial state is rolled back: no net refcount change
// on either input and no instance is returned.
func Concat(first, second *Instance, logger *zap.Logger) (*Instance, error) {
	if err := first.valid(); err != nil {
		return nil, err
	}
	if err := second.valid(); err != nil {
		return nil, err
	}

	boundary, err := first.RemainingSize()
	if err != nil {
		return nil, err
	}

	one, err := first.Clone(0)
	if err != nil {
		return nil, err
	}
	two, err := second.Clone(boundary)
	if err != nil {
		// Roll back the first clone so the inputs see no net refcount
		// change.
		_ = one.Dispose()
		return nil, err
	}
	tail, err := two.RemainingSize()
	if err != nil {
		_ = two.Dispose()
		_ = one.Dispose()
		return nil, err
	}

	mp := &multiPayload{one: one, two: two, boundary: boundary}
	cb := newControlBlock(multiAPI, mp,
		func() {
			_ = one.Dispose()
			_ = two.Dispose()
		},
		nil, logger)
	return &Instance{cb: cb, length: boundary + tail}, nil
}
