package state_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/magnetcad/pipeline/state"
)

type fakeResolver map[state.Path][]state.Path

func (f fakeResolver) StaleDependents(p state.Path) []state.Path { return f[p] }

func TestStoreGetDefault(t *testing.T) {
	require := require.New(t)
	s := state.New(nil)
	got := s.Get("hull.lwl", state.Float(0))
	require.True(got.Equal(state.Float(0)))
	require.False(s.Has("hull.lwl"))
}

func TestStoreWriteRecordsMetadata(t *testing.T) {
	require := require.New(t)
	s := state.New(nil)
	s.Write("hull.lwl", state.Float(50.0), "user")

	md, ok := s.Metadata("hull.lwl")
	require.True(ok)
	require.Equal("user", md.Writer)
	require.Equal(uint64(1), md.WriteSeq)
	require.False(md.Stale)
	require.WithinDuration(time.Now(), md.WrittenAt, time.Second)
}

func TestStoreStalePropagation(t *testing.T) {
	require := require.New(t)
	resolver := fakeResolver{
		"hull.lwl": {"hull.displacement_m3"},
	}
	s := state.New(resolver)

	s.Write("hull.displacement_m3", state.Float(687.5), "physics/hydrostatics")
	require.False(s.IsStale("hull.displacement_m3"))

	// Writing a predecessor must flip the stale bit on the dependent path.
	s.Write("hull.lwl", state.Float(51.0), "user")
	require.True(s.IsStale("hull.displacement_m3"))
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	require := require.New(t)
	s := state.New(nil)
	s.Write("hull.lwl", state.Float(50.123456789), "user")
	s.Write("mission.max_speed_kts", state.Float(15), "user")
	s.Write("hull.cb", state.Float(0.55), "user")

	snap, err := s.Snapshot()
	require.NoError(err)

	restored := state.New(nil)
	require.NoError(restored.Restore(snap))

	got := restored.Get("hull.lwl", state.Null())
	f, ok := got.Float64()
	require.True(ok)
	require.InDelta(50.123457, f, 1e-9) // quantized to six decimals

	md, ok := restored.Metadata("hull.cb")
	require.True(ok)
	require.Equal("user", md.Writer)
}

func TestDeterminizeIsIdempotent(t *testing.T) {
	require := require.New(t)
	s := state.New(nil)
	s.Write("hull.lwl", state.Float(50.0), "user")

	first, err := s.Snapshot()
	require.NoError(err)

	restored := state.New(nil)
	require.NoError(restored.Restore(first))
	second, err := restored.Snapshot()
	require.NoError(err)

	require.JSONEq(string(first), string(second))
}
