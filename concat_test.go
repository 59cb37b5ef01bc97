package ustream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	upper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lower = "abcdefghijklmnopqrstuvwxyz"
)

func drain(t *testing.T, s *Instance, bufSize int) string {
	t.Helper()
	var sb strings.Builder
	buf := make([]byte, bufSize)
	for {
		n, err := s.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			require.True(t, IsEOF(err), "unexpected read error: %v", err)
			return sb.String()
		}
	}
}

func TestConcat_TripleConcat(t *testing.T) {
	t.Parallel()

	a := mustFlat(t, "0123456789")
	b := mustFlat(t, upper)
	c := mustFlat(t, lower)
	defer a.Dispose()
	defer b.Dispose()
	defer c.Dispose()

	ab, err := Concat(a, b, zap.NewNop())
	require.NoError(t, err)
	defer ab.Dispose()

	m, err := Concat(ab, c, zap.NewNop())
	require.NoError(t, err)
	defer m.Dispose()

	require.True(t, IsOfType(m, Multi()))

	remaining, err := m.RemainingSize()
	require.NoError(t, err)
	require.Equal(t, uint64(62), remaining)

	require.Equal(t, "0123456789"+upper+lower, drain(t, m, 7))
}

func TestConcat_EqualsSequentialReads(t *testing.T) {
	t.Parallel()

	a := mustFlat(t, "first-part|")
	b := mustFlat(t, "second-part")
	defer a.Dispose()
	defer b.Dispose()

	m, err := Concat(a, b, zap.NewNop())
	require.NoError(t, err)
	defer m.Dispose()

	require.Equal(t, "first-part|second-part", drain(t, m, 5))

	// The inputs were cloned: their cursors are untouched.
	require.Equal(t, "first-part|", drain(t, a, 4))
	require.Equal(t, "second-part", drain(t, b, 4))
}

func TestConcat_SingleReadNeverSpansChildren(t *testing.T) {
	t.Parallel()

	a := mustFlat(t, "abc")
	b := mustFlat(t, "XYZ")
	defer a.Dispose()
	defer b.Dispose()

	m, err := Concat(a, b, zap.NewNop())
	require.NoError(t, err)
	defer m.Dispose()

	// A buffer with room for everything still stops at the child
	// boundary.
	got, err := readString(t, m, 16)
	require.NoError(t, err)
	require.Equal(t, "abc", got)

	got, err = readString(t, m, 16)
	require.NoError(t, err)
	require.Equal(t, "XYZ", got)

	_, err = readString(t, m, 16)
	require.True(t, IsEOF(err))
}

func TestConcat_SetPositionAcrossBoundary(t *testing.T) {
	t.Parallel()

	a := mustFlat(t, "0123")
	b := mustFlat(t, "4567")
	defer a.Dispose()
	defer b.Dispose()

	m, err := Concat(a, b, zap.NewNop())
	require.NoError(t, err)
	defer m.Dispose()

	require.Equal(t, "01234567", drain(t, m, 3))

	require.NoError(t, m.SetPosition(2))
	require.Equal(t, "234567", drain(t, m, 3))

	require.NoError(t, m.SetPosition(6))
	require.Equal(t, "67", drain(t, m, 3))

	// Position 8 is the end; reads return EOF.
	require.NoError(t, m.SetPosition(8))
	_, err = readString(t, m, 2)
	require.True(t, IsEOF(err))

	require.True(t, IsNoSuchElement(m.SetPosition(9)))
}

func TestConcat_ReleaseAcrossBoundary(t *testing.T) {
	t.Parallel()

	a := mustFlat(t, "0123")
	b := mustFlat(t, "4567")
	defer a.Dispose()
	defer b.Dispose()

	m, err := Concat(a, b, zap.NewNop())
	require.NoError(t, err)
	defer m.Dispose()

	require.Equal(t, "01234567", drain(t, m, 8))

	// Release into the second child: the first child's positions are
	// gone too.
	require.NoError(t, m.Release(5))
	require.True(t, IsNoSuchElement(m.SetPosition(3)))
	require.True(t, IsNoSuchElement(m.SetPosition(5)))

	require.NoError(t, m.SetPosition(6))
	require.Equal(t, "67", drain(t, m, 4))

	require.NoError(t, m.Reset())
	pos, err := m.Position()
	require.NoError(t, err)
	require.Equal(t, uint64(6), pos)
}

func TestConcat_PartiallyReadFirst(t *testing.T) {
	t.Parallel()

	a := mustFlat(t, "skipKEEP")
	b := mustFlat(t, "-tail")
	defer a.Dispose()
	defer b.Dispose()

	// Consume "skip" before concatenating: only the remaining content of
	// the first stream takes part.
	buf := make([]byte, 4)
	_, err := a.Read(buf)
	require.NoError(t, err)

	m, err := Concat(a, b, zap.NewNop())
	require.NoError(t, err)
	defer m.Dispose()

	remaining, err := m.RemainingSize()
	require.NoError(t, err)
	require.Equal(t, uint64(9), remaining)

	require.Equal(t, "KEEP-tail", drain(t, m, 3))
}

func TestConcat_CloneIsolationOnComposite(t *testing.T) {
	t.Parallel()

	a := mustFlat(t, "aa")
	b := mustFlat(t, "bb")
	defer a.Dispose()
	defer b.Dispose()

	m, err := Concat(a, b, zap.NewNop())
	require.NoError(t, err)
	defer m.Dispose()

	got, err := readString(t, m, 2)
	require.NoError(t, err)
	require.Equal(t, "aa", got)

	clone, err := m.Clone(0)
	require.NoError(t, err)
	defer clone.Dispose()

	require.Equal(t, "bb", drain(t, clone, 1))

	pos, err := m.Position()
	require.NoError(t, err)
	require.Equal(t, uint64(2), pos, "clone reads must not move the source cursor")
	require.Equal(t, "bb", drain(t, m, 1))
}

func TestConcat_ConcurrentClones(t *testing.T) {
	t.Parallel()

	a := mustFlat(t, strings.Repeat("x", 1024))
	b := mustFlat(t, strings.Repeat("y", 1024))
	defer a.Dispose()
	defer b.Dispose()

	m, err := Concat(a, b, zap.NewNop())
	require.NoError(t, err)
	defer m.Dispose()

	want := strings.Repeat("x", 1024) + strings.Repeat("y", 1024)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		clone, err := m.Clone(0)
		require.NoError(t, err)
		g.Go(func() error {
			defer clone.Dispose()
			var sb strings.Builder
			buf := make([]byte, 97)
			for {
				n, rerr := clone.Read(buf)
				sb.Write(buf[:n])
				if rerr != nil {
					if !IsEOF(rerr) {
						return rerr
					}
					break
				}
			}
			if sb.String() != want {
				return NewError(CodeSystem, "clone observed corrupted content")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestConcat_InvalidInputs(t *testing.T) {
	t.Parallel()

	a := mustFlat(t, "abc")
	defer a.Dispose()

	_, err := Concat(a, nil, zap.NewNop())
	require.True(t, IsIllegalArgument(err))

	_, err = Concat(nil, a, zap.NewNop())
	require.True(t, IsIllegalArgument(err))
}
