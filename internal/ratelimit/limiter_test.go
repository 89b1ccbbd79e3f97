package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdmit_UnderLimit(t *testing.T) {
	l := New(3, time.Minute, 5*time.Minute)
	now := time.Now()

	for i := 0; i < 3; i++ {
		res := l.Admit("1.2.3.4", now)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}
}

func TestAdmit_FlagsAtCeiling(t *testing.T) {
	l := New(2, time.Minute, 5*time.Minute)
	now := time.Now()

	l.Admit("1.2.3.4", now)
	l.Admit("1.2.3.4", now)

	res := l.Admit("1.2.3.4", now)
	assert.False(t, res.Allowed)
	assert.Equal(t, 5*time.Minute, res.RetryAfter)
}

func TestAdmit_FlagOutlivesWindow(t *testing.T) {
	l := New(1, time.Minute, 5*time.Minute)
	now := time.Now()

	l.Admit("1.2.3.4", now)
	l.Admit("1.2.3.4", now)

	// Window has rolled over but the cooldown has not.
	res := l.Admit("1.2.3.4", now.Add(2*time.Minute))
	assert.False(t, res.Allowed)
	assert.Equal(t, 3*time.Minute, res.RetryAfter)
}

func TestAdmit_CooldownExpiry(t *testing.T) {
	l := New(1, time.Minute, 5*time.Minute)
	now := time.Now()

	l.Admit("1.2.3.4", now)
	l.Admit("1.2.3.4", now)

	res := l.Admit("1.2.3.4", now.Add(6*time.Minute))
	assert.True(t, res.Allowed)
}

func TestAdmit_WindowReset(t *testing.T) {
	l := New(2, time.Minute, 5*time.Minute)
	now := time.Now()

	l.Admit("1.2.3.4", now)
	l.Admit("1.2.3.4", now)

	res := l.Admit("1.2.3.4", now.Add(61*time.Second))
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func TestAdmit_ClientsIndependent(t *testing.T) {
	l := New(1, time.Minute, 5*time.Minute)
	now := time.Now()

	l.Admit("1.2.3.4", now)
	l.Admit("1.2.3.4", now)

	res := l.Admit("5.6.7.8", now)
	assert.True(t, res.Allowed)
}

func TestClear_LiftsFlag(t *testing.T) {
	l := New(1, time.Minute, 5*time.Minute)
	now := time.Now()

	l.Admit("1.2.3.4", now)
	l.Admit("1.2.3.4", now)
	l.Clear("1.2.3.4")

	res := l.Admit("1.2.3.4", now)
	assert.True(t, res.Allowed)
}

func TestPrune(t *testing.T) {
	l := New(1, time.Minute, 5*time.Minute)
	now := time.Now()

	l.Admit("stale", now)
	l.Admit("flagged", now)
	l.Admit("flagged", now)
	l.Admit("fresh", now.Add(30*time.Second))

	removed := l.Prune(now.Add(70 * time.Second))
	assert.Equal(t, 1, removed)

	// Flagged client stays rejected after the prune.
	res := l.Admit("flagged", now.Add(70*time.Second))
	assert.False(t, res.Allowed)
}
