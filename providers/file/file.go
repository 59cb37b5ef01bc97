// Package file exposes a file on disk as a ustream instance. The file is
// opened once, its size snapshotted, and the handle is closed by the
// payload release when the last instance over it is disposed.
package file

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/BaSui01/ustream"
)

// Config configures a file-backed stream.
type Config struct {
	// Path of the file to expose. The file content must stay unchanged
	// while any instance over it is alive.
	Path string

	// Context, when non-nil, cancels in-flight reads.
	Context context.Context

	Logger *zap.Logger
}

// Open opens the file and wraps it as a stream. The returned instance owns
// the handle; the final dispose closes it.
func Open(cfg Config) (*ustream.Instance, error) {
	if cfg.Path == "" {
		return nil, ustream.NewError(ustream.CodeIllegalArgument, "path must be non-empty")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, ustream.NewError(ustream.CodeSystem,
			fmt.Sprintf("open %s", cfg.Path)).WithCause(err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, ustream.NewError(ustream.CodeSystem,
			fmt.Sprintf("stat %s", cfg.Path)).WithCause(err)
	}
	if st.Size() == 0 {
		_ = f.Close()
		return nil, ustream.NewError(ustream.CodeIllegalArgument,
			fmt.Sprintf("file %s is empty", cfg.Path))
	}

	log := logger.With(zap.String("component", "file_provider"), zap.String("path", cfg.Path))
	return ustream.FromReaderAt(ustream.ReaderAtConfig{
		Reader:  f,
		Size:    uint64(st.Size()),
		Context: cfg.Context,
		ReleasePayload: func() {
			if err := f.Close(); err != nil {
				log.Warn("close failed", zap.Error(err))
			} else {
				log.Debug("file handle released")
			}
		},
		Logger: logger,
	})
}
