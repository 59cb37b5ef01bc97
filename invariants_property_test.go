package ustream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

// TestProperty_WindowInvariants drives a random operation sequence against
// a flat stream and checks the sliding-window rules after every step:
// positions round-trip, position plus remaining stays constant, released
// positions stay unreachable, and reads reproduce the payload bytes.
func TestProperty_WindowInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(rt, "payload")
		s, err := FromBytes(payload, zap.NewNop())
		if err != nil {
			rt.Fatalf("factory: %v", err)
		}
		defer s.Dispose()

		length := uint64(len(payload))
		firstValid := uint64(0)

		checkInvariants := func() {
			pos, err := s.Position()
			if err != nil {
				rt.Fatalf("position: %v", err)
			}
			rem, err := s.RemainingSize()
			if err != nil {
				rt.Fatalf("remaining: %v", err)
			}
			if pos+rem != length {
				rt.Fatalf("position %d + remaining %d != length %d", pos, rem, length)
			}
			// get_position followed by set_position must succeed.
			if err := s.SetPosition(pos); err != nil {
				rt.Fatalf("set_position(get_position()): %v", err)
			}
		}

		ops := rapid.IntRange(1, 40).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			switch rapid.IntRange(0, 4).Draw(rt, "op") {
			case 0: // read
				buf := make([]byte, rapid.IntRange(1, 16).Draw(rt, "bufSize"))
				pos, _ := s.Position()
				n, err := s.Read(buf)
				if pos == length {
					if !IsEOF(err) || n != 0 {
						rt.Fatalf("read at end: n=%d err=%v", n, err)
					}
				} else {
					if err != nil {
						rt.Fatalf("read: %v", err)
					}
					want := payload[pos : pos+uint64(n)]
					if !bytes.Equal(buf[:n], want) {
						rt.Fatalf("read bytes %q, payload holds %q", buf[:n], want)
					}
				}
			case 1: // seek inside the window
				pos := rapid.Uint64Range(firstValid, length).Draw(rt, "seekPos")
				if err := s.SetPosition(pos); err != nil {
					rt.Fatalf("set_position(%d): %v", pos, err)
				}
			case 2: // seek into the released prefix must fail
				if firstValid == 0 {
					continue
				}
				pos := rapid.Uint64Range(0, firstValid-1).Draw(rt, "releasedPos")
				if err := s.SetPosition(pos); !IsNoSuchElement(err) {
					rt.Fatalf("set_position(%d) into released prefix: %v", pos, err)
				}
			case 3: // release a prefix of the pending window
				pos, _ := s.Position()
				if pos == 0 {
					continue
				}
				relPos := rapid.Uint64Range(0, pos-1).Draw(rt, "relPos")
				err := s.Release(relPos)
				switch {
				case relPos+1 <= firstValid:
					if !IsNoSuchElement(err) {
						rt.Fatalf("re-release(%d): %v", relPos, err)
					}
				default:
					if err != nil {
						rt.Fatalf("release(%d): %v", relPos, err)
					}
					firstValid = relPos + 1
				}
			case 4: // reset
				err := s.Reset()
				if firstValid == length {
					if !IsNoSuchElement(err) {
						rt.Fatalf("reset on consumed stream: %v", err)
					}
				} else {
					if err != nil {
						rt.Fatalf("reset: %v", err)
					}
					pos, _ := s.Position()
					if pos != firstValid {
						rt.Fatalf("reset landed at %d, first valid is %d", pos, firstValid)
					}
				}
			}
			checkInvariants()
		}
	})
}

// TestProperty_CloneReadsMatchSource checks that a clone at any offset
// reproduces the source's remaining bytes, shifted to its own logical
// domain, without moving the source cursor.
func TestProperty_CloneReadsMatchSource(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(rt, "payload")
		s, err := FromBytes(payload, zap.NewNop())
		if err != nil {
			rt.Fatalf("factory: %v", err)
		}
		defer s.Dispose()

		skip := rapid.IntRange(0, len(payload)).Draw(rt, "skip")
		if skip > 0 {
			buf := make([]byte, skip)
			if _, err := s.Read(buf); err != nil {
				rt.Fatalf("read: %v", err)
			}
		}

		offset := rapid.Uint64Range(0, 1<<32).Draw(rt, "offset")
		clone, err := s.Clone(offset)
		if err != nil {
			rt.Fatalf("clone: %v", err)
		}
		defer clone.Dispose()

		pos, err := clone.Position()
		if err != nil || pos != offset {
			rt.Fatalf("clone position %d err %v, want %d", pos, err, offset)
		}

		srcPos, _ := s.Position()
		var got []byte
		buf := make([]byte, 7)
		for {
			n, err := clone.Read(buf)
			got = append(got, buf[:n]...)
			if err != nil {
				if !IsEOF(err) {
					rt.Fatalf("clone read: %v", err)
				}
				break
			}
		}
		if !bytes.Equal(got, payload[skip:]) {
			rt.Fatalf("clone read %q, want %q", got, payload[skip:])
		}

		afterPos, _ := s.Position()
		if afterPos != srcPos {
			rt.Fatalf("source cursor moved from %d to %d", srcPos, afterPos)
		}
	})
}

func TestProperty_RoundTripAnyBufferSize(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 1, 256).Draw(rt, "payload")
		bufSize := rapid.IntRange(1, 32).Draw(rt, "bufSize")

		s, err := FromBytes(payload, zap.NewNop())
		require.NoError(rt, err)
		defer s.Dispose()

		var got []byte
		buf := make([]byte, bufSize)
		for {
			n, err := s.Read(buf)
			got = append(got, buf[:n]...)
			if err != nil {
				require.True(rt, IsEOF(err))
				break
			}
		}
		require.Equal(rt, payload, got)
	})
}
