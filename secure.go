package ustream

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type securePayload struct {
	wrapPayload
	expiresAt time.Time
	now       func() time.Time
}

type secureProvider struct{}

var secureAPI Provider = secureProvider{}

// SecureConfig configures a token-gated view over an existing stream.
type SecureConfig struct {
	// Token is an HS256-signed JWT authorizing access to the content.
	Token string
	// Key is the HMAC secret the token must verify against.
	Key []byte

	// Now is used for testing. Defaults to time.Now.
	Now func() time.Time

	Logger *zap.Logger
}

// Secure wraps child behind a JWT check. The token is verified at
// construction and its expiry is re-checked on every read; a missing,
// malformed, forged or expired token surfaces as SECURITY. child is cloned,
// not consumed.
func Secure(child *Instance, cfg SecureConfig) (*Instance, error) {
	if len(cfg.Key) == 0 {
		return nil, errIllegal("verification key must be non-empty")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	token, err := jwt.Parse(cfg.Token,
		func(t *jwt.Token) (any, error) { return cfg.Key, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(now),
	)
	if err != nil || !token.Valid {
		return nil, NewError(CodeSecurity, "token rejected").WithCause(err)
	}
	expiry, err := token.Claims.GetExpirationTime()
	if err != nil {
		return nil, NewError(CodeSecurity, "token has no readable expiry").WithCause(err)
	}
	var expiresAt time.Time
	if expiry != nil {
		expiresAt = expiry.Time
	}

	wp, err := newWrapPayload(child)
	if err != nil {
		return nil, err
	}
	pl := &securePayload{
		wrapPayload: wrapPayload{child: wp.child},
		expiresAt:   expiresAt,
		now:         now,
	}
	cb := newControlBlock(secureAPI, pl, pl.dispose, nil, cfg.Logger)
	return wrapInstance(cb, &pl.wrapPayload)
}

func (secureProvider) name() string { return "secure" }

func (secureProvider) reset(s *Instance) error               { return defaultReset(s) }
func (secureProvider) remaining(s *Instance) (uint64, error) { return defaultRemaining(s) }
func (secureProvider) position(s *Instance) (uint64, error)  { return defaultPosition(s) }

func (secureProvider) setPosition(s *Instance, pos uint64) error {
	pl := s.cb.payload.(*securePayload)
	return pl.setPosition(s, pos)
}

func (secureProvider) read(s *Instance, buf []byte) (int, error) {
	pl := s.cb.payload.(*securePayload)
	if !pl.expiresAt.IsZero() && pl.now().After(pl.expiresAt) {
		return 0, NewError(CodeSecurity, "token expired")
	}
	return pl.read(s, buf)
}

func (secureProvider) release(s *Instance, pos uint64) error {
	pl := s.cb.payload.(*securePayload)
	return pl.release(s, pos)
}

func (secureProvider) clone(src *Instance, offset uint64) (*Instance, error) {
	return defaultClone(src, offset)
}

func (secureProvider) dispose(s *Instance) error { return defaultDispose(s) }
