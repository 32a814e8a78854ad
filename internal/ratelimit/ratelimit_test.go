package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBurstThenThrottle(t *testing.T) {
	l := New(1, 3, time.Minute)
	now := time.Now()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("key", now), "burst request %d", i)
	}
	assert.False(t, l.Allow("key", now))

	// A second elapses, one token refills.
	assert.True(t, l.Allow("key", now.Add(time.Second)))
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(1, 1, time.Minute)
	now := time.Now()

	assert.True(t, l.Allow("a", now))
	assert.False(t, l.Allow("a", now))
	assert.True(t, l.Allow("b", now))
}

func TestNilLimiterAllowsEverything(t *testing.T) {
	var l *KeyedLimiter
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("key", time.Now()))
	}
}

func TestEmptyKeyIsNotLimited(t *testing.T) {
	l := New(1, 1, time.Minute)
	now := time.Now()
	assert.True(t, l.Allow("", now))
	assert.True(t, l.Allow("   ", now))
}

func TestInvalidArgs(t *testing.T) {
	assert.Nil(t, New(0, 1, time.Minute))
	assert.Nil(t, New(1, 0, time.Minute))
}
