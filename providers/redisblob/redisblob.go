// Package redisblob exposes a redis string value as a ustream instance.
// The value length is snapshotted with STRLEN at open time and byte windows
// are fetched on demand with GETRANGE, so arbitrarily large values are read
// without ever holding more than one consumer buffer of them in memory.
package redisblob

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/ustream"
)

// Config configures a redis-backed stream.
type Config struct {
	// Client is the redis client to read through. The caller keeps
	// ownership; the stream never closes it.
	Client *redis.Client

	// Key holds the blob. The value must stay unchanged while any
	// instance over it is alive.
	Key string

	// Context scopes every GETRANGE issued by reads. Defaults to
	// context.Background.
	Context context.Context

	Logger *zap.Logger
}

// rangeReader adapts GETRANGE to io.ReaderAt.
type rangeReader struct {
	ctx    context.Context
	client *redis.Client
	key    string
}

func (r *rangeReader) ReadAt(p []byte, off int64) (int, error) {
	// GETRANGE bounds are inclusive.
	val, err := r.client.GetRange(r.ctx, r.key, off, off+int64(len(p))-1).Result()
	if err != nil {
		return 0, err
	}
	if len(val) == 0 {
		return 0, io.EOF
	}
	n := copy(p, val)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Open snapshots the value length and wraps the key as a stream. A missing
// or empty key is NO_SUCH_ELEMENT.
func Open(cfg Config) (*ustream.Instance, error) {
	if cfg.Client == nil {
		return nil, ustream.NewError(ustream.CodeIllegalArgument, "client must be non-nil")
	}
	if cfg.Key == "" {
		return nil, ustream.NewError(ustream.CodeIllegalArgument, "key must be non-empty")
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	size, err := cfg.Client.StrLen(ctx, cfg.Key).Result()
	if err != nil {
		return nil, ustream.NewError(ustream.CodeSystem,
			fmt.Sprintf("strlen %s", cfg.Key)).WithCause(err)
	}
	if size == 0 {
		return nil, ustream.NewError(ustream.CodeNoSuchElement,
			fmt.Sprintf("key %s is missing or empty", cfg.Key))
	}

	logger.Debug("redis blob opened",
		zap.String("component", "redisblob_provider"),
		zap.String("key", cfg.Key),
		zap.Int64("size", size))
	return ustream.FromReaderAt(ustream.ReaderAtConfig{
		Reader:  &rangeReader{ctx: ctx, client: cfg.Client, key: cfg.Key},
		Size:    uint64(size),
		Context: ctx,
		Logger:  logger,
	})
}
