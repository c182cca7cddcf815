package splash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardInsertOrRaiseNeverLowers(t *testing.T) {
	s := newShard()
	s.insertOrRaise(1, 5.0)
	s.insertOrRaise(1, 2.0)
	_, p, ok := s.peekPop()
	require.True(t, ok)
	assert.Equal(t, 5.0, p)

	s.insertOrRaise(1, 5.0)
	s.insertOrRaise(1, 9.0)
	_, p, ok = s.peekPop()
	require.True(t, ok)
	assert.Equal(t, 9.0, p)
}

func TestShardPeekPopReturnsMax(t *testing.T) {
	s := newShard()
	s.insertOrRaise(1, 1.0)
	s.insertOrRaise(2, 5.0)
	s.insertOrRaise(3, 3.0)

	v, p, ok := s.peekPop()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 5.0, p)

	v, p, ok = s.peekPop()
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 3.0, p)
}

func TestShardRemove(t *testing.T) {
	s := newShard()
	s.insertOrRaise(1, 1.0)
	assert.True(t, s.remove(1))
	assert.False(t, s.remove(1))
	assert.True(t, s.empty())
}

func TestShardContainsAndEmpty(t *testing.T) {
	s := newShard()
	assert.True(t, s.empty())
	assert.False(t, s.contains(7))
	s.insertOrRaise(7, 1.0)
	assert.True(t, s.contains(7))
	assert.False(t, s.empty())
}

func TestShardInsertOrRaiseIfActive(t *testing.T) {
	active := NewActiveSet(4)
	s := newShard()

	// Bit clear -> inserted, bit becomes set, reports true.
	assert.True(t, s.insertOrRaiseIfActive(1, 1.0, active))
	assert.True(t, active.Get(1))
	assert.True(t, s.contains(1))

	// Bit already set and not in queue (simulate mid-splash) -> not
	// reinserted, reports false.
	s.remove(1)
	assert.False(t, s.insertOrRaiseIfActive(1, 2.0, active))
	assert.False(t, s.contains(1))

	// Bit set but still sitting in queue -> raised in place, reports true.
	s.insertOrRaise(2, 1.0)
	active.SetBit(2)
	assert.True(t, s.insertOrRaiseIfActive(2, 9.0, active))
	_, p, ok := s.peekPop()
	require.True(t, ok)
	assert.Equal(t, 9.0, p)
}
