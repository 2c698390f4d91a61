package pricing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVersionTracker(t *testing.T) {
	tr := NewVersionTracker(0, 0)

	first := tr.Begin("front")
	assert.True(t, tr.IsCurrent(first))
	second := tr.Begin("front")
	assert.False(t, tr.IsCurrent(first))
	assert.ErrorIs(t, tr.Check(first), ErrStaleResult)
	assert.NoError(t, tr.Check(second))

	back := tr.Begin("back")
	assert.True(t, tr.IsCurrent(back), "canvases are tracked independently")

	client := tr.Observe("front", 10)
	assert.True(t, tr.IsCurrent(client))
	old := tr.Observe("front", 4)
	assert.False(t, tr.IsCurrent(old))
	assert.Equal(t, uint64(10), tr.Latest("front"))
	assert.Equal(t, uint64(11), tr.Begin("front").Version)

	tr.Forget("front")
	assert.Zero(t, tr.Latest("front"))
}

func TestVersionTracker_EvictsLeastRecentCanvas(t *testing.T) {
	tr := NewVersionTracker(3, time.Hour)

	for i := 0; i < 10; i++ {
		tr.Begin(fmt.Sprintf("session-%d/front", i))
	}

	assert.Equal(t, 3, tr.Len())
	assert.Zero(t, tr.Latest("session-0/front"))
	assert.Equal(t, uint64(1), tr.Latest("session-9/front"))
}

func TestVersionTracker_ForgetsIdleCanvas(t *testing.T) {
	tr := NewVersionTracker(10, 20*time.Millisecond)
	tr.Observe("session-a/front", 7)
	assert.Equal(t, uint64(7), tr.Latest("session-a/front"))

	time.Sleep(80 * time.Millisecond)

	assert.Zero(t, tr.Latest("session-a/front"))
	assert.True(t, tr.IsCurrent(tr.Begin("session-a/front")), "a forgotten canvas starts over")
}
