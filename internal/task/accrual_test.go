package task

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/an4xdev/SprintForge/internal/taskhistory"
)

func history(taskID uuid.UUID, steps ...any) []*taskhistory.Entry {
	var (
		entries []*taskhistory.Entry
		prev    *taskhistory.Entry
	)
	for i := 0; i < len(steps); i += 2 {
		e := taskhistory.Derive(taskID, steps[i].(time.Time), steps[i+1].(string), prev, StatusAssigned)
		entries = append(entries, e)
		prev = e
	}
	return entries
}

func TestReplay(t *testing.T) {
	id := uuid.New()
	t0 := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	t1 := t0.Add(50 * time.Minute)
	t2 := t1.Add(10 * time.Minute)
	t3 := t2.Add(25*time.Minute + 30*time.Second)

	t.Run("closed intervals are summed", func(t *testing.T) {
		entries := history(id, t0, StatusStarted, t1, StatusPaused, t2, StatusStarted, t3, StatusStopped)
		a := Replay(entries, t3.Add(time.Hour))
		assert.Equal(t, int64(t1.Sub(t0)/time.Second+t3.Sub(t2)/time.Second), a.TotalSeconds)
		assert.False(t, a.IsRunning)
		assert.Nil(t, a.CurrentSessionStart)
		assert.Equal(t, StatusStopped, a.CurrentStatus)
	})

	t.Run("open interval counts up to now", func(t *testing.T) {
		entries := history(id, t0, StatusStarted, t1, StatusPaused, t2, StatusStarted)
		now := t2.Add(90 * time.Second)
		a := Replay(entries, now)
		assert.Equal(t, int64(50*60+90), a.TotalSeconds)
		assert.True(t, a.IsRunning)
		require.NotNil(t, a.CurrentSessionStart)
		assert.Equal(t, t2, *a.CurrentSessionStart)

		later := Replay(entries, now.Add(time.Minute))
		assert.GreaterOrEqual(t, later.TotalSeconds, a.TotalSeconds)
		assert.Equal(t, a.TotalSeconds+60, later.TotalSeconds)
	})

	t.Run("restart resets the open interval", func(t *testing.T) {
		entries := history(id, t0, StatusStarted, t1, StatusStarted, t2, StatusStopped)
		a := Replay(entries, t3)
		assert.Equal(t, int64(t2.Sub(t1)/time.Second), a.TotalSeconds)
	})

	t.Run("pause without start adds nothing", func(t *testing.T) {
		entries := history(id, t0, StatusPaused, t1, StatusStopped)
		a := Replay(entries, t3)
		assert.Zero(t, a.TotalSeconds)
		assert.Equal(t, StatusStopped, a.CurrentStatus)
	})

	t.Run("clock behind the last start never goes negative", func(t *testing.T) {
		entries := history(id, t0, StatusStarted)
		a := Replay(entries, t0.Add(-time.Minute))
		assert.Zero(t, a.TotalSeconds)
		assert.True(t, a.IsRunning)
	})

	t.Run("sub-second remainders are floored", func(t *testing.T) {
		entries := history(id, t0, StatusStarted, t0.Add(1999*time.Millisecond), StatusPaused)
		assert.Equal(t, int64(1), Replay(entries, t3).TotalSeconds)
	})

	t.Run("no history", func(t *testing.T) {
		a := Replay(nil, t3)
		assert.Equal(t, Accrual{}, a)
	})
}
