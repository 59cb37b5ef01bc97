package ustream

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type throttlePayload struct {
	wrapPayload
	limiter *rate.Limiter
	now     func() time.Time
}

type throttleProvider struct{}

var throttleAPI Provider = throttleProvider{}

// ThrottleConfig configures a rate-limited view over an existing stream.
type ThrottleConfig struct {
	// ReadsPerSecond caps the read call rate.
	ReadsPerSecond float64
	// Burst is the number of reads allowed to exceed the steady rate.
	// Defaults to 1.
	Burst int

	// Now is used for testing. Defaults to time.Now.
	Now func() time.Time

	Logger *zap.Logger
}

// Throttle wraps child with a token-bucket read limit. Reads beyond the
// limit fail with BUSY instead of blocking; the contract stays synchronous
// and the consumer decides when to retry. child is cloned, not consumed;
// the caller keeps its own handle and cursor.
func Throttle(child *Instance, cfg ThrottleConfig) (*Instance, error) {
	if cfg.ReadsPerSecond <= 0 {
		return nil, errIllegal("reads per second must be positive")
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	wp, err := newWrapPayload(child)
	if err != nil {
		return nil, err
	}
	pl := &throttlePayload{
		wrapPayload: wrapPayload{child: wp.child},
		limiter:     rate.NewLimiter(rate.Limit(cfg.ReadsPerSecond), burst),
		now:         now,
	}
	cb := newControlBlock(throttleAPI, pl, pl.dispose, nil, cfg.Logger)
	return wrapInstance(cb, &pl.wrapPayload)
}

func (throttleProvider) name() string { return "throttle" }

func (throttleProvider) reset(s *Instance) error               { return defaultReset(s) }
func (throttleProvider) remaining(s *Instance) (uint64, error) { return defaultRemaining(s) }
func (throttleProvider) position(s *Instance) (uint64, error)  { return defaultPosition(s) }

func (throttleProvider) setPosition(s *Instance, pos uint64) error {
	pl := s.cb.payload.(*throttlePayload)
	return pl.setPosition(s, pos)
}

func (throttleProvider) read(s *Instance, buf []byte) (int, error) {
	pl := s.cb.payload.(*throttlePayload)
	if !pl.limiter.AllowN(pl.now(), 1) {
		return 0, NewError(CodeBusy, "read rate limit exceeded")
	}
	return pl.read(s, buf)
}

func (throttleProvider) release(s *Instance, pos uint64) error {
	pl := s.cb.payload.(*throttlePayload)
	return pl.release(s, pos)
}

func (throttleProvider) clone(src *Instance, offset uint64) (*Instance, error) {
	return defaultClone(src, offset)
}

func (throttleProvider) dispose(s *Instance) error { return defaultDispose(s) }
