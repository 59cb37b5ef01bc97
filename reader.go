package ustream

import (
	"io"
)

// Reader adapts a stream instance to io.Reader so streams compose with the
// standard library. The EOF code maps to io.EOF; every other stream error
// surfaces unchanged. Close disposes the wrapped instance.
//
// Reader shares the single-goroutine rule of the instance it wraps.
type Reader struct {
	s *Instance
}

// NewReader wraps s. The Reader takes over the caller's reference: Close
// disposes it, and the caller must not use s directly afterwards.
func NewReader(s *Instance) *Reader {
	return &Reader{s: s}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := r.s.Read(p)
	if IsEOF(err) {
		return n, io.EOF
	}
	return n, err
}

// WriteTo implements io.WriterTo, draining the stream into w with a fixed
// transfer buffer.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 32*1024)
	var total int64
	for {
		n, err := r.s.Read(buf)
		if n > 0 {
			wn, werr := w.Write(buf[:n])
			total += int64(wn)
			if werr != nil {
				return total, werr
			}
			if wn < n {
				return total, io.ErrShortWrite
			}
		}
		if err != nil {
			if IsEOF(err) {
				return total, nil
			}
			return total, err
		}
	}
}

// Close implements io.Closer by disposing the wrapped instance.
func (r *Reader) Close() error {
	return r.s.Dispose()
}
