package flowtest

import (
	"testing"
	"time"

	"github.com/lguimbarda/reportflow/flow/state"
	"github.com/stretchr/testify/assert"
)

func TestScheduler_OrderControl(t *testing.T) {
	s := NewScheduler()
	var ran []string
	s.Execute(func() { ran = append(ran, "a") })
	s.Execute(func() { ran = append(ran, "b") })
	s.Execute(func() { ran = append(ran, "c") })
	assert.Equal(t, 3, s.Pending())

	assert.True(t, s.RunAt(1))
	assert.True(t, s.RunLast())
	assert.True(t, s.Step())
	assert.False(t, s.Step())
	assert.False(t, s.RunAt(5))

	assert.Equal(t, []string{"b", "c", "a"}, ran)
}

func TestScheduler_DrainRunsNestedTasks(t *testing.T) {
	s := NewScheduler()
	var ran []int
	s.Execute(func() {
		ran = append(ran, 1)
		s.Execute(func() { ran = append(ran, 3) })
	})
	s.Execute(func() { ran = append(ran, 2) })

	assert.Equal(t, 3, s.Drain())
	assert.Equal(t, []int{1, 2, 3}, ran)
	assert.Zero(t, s.Pending())
}

func TestRecorder(t *testing.T) {
	slot, w := state.New("a")
	rec := Record[string](slot)

	w.Set("b")
	w.Set("c")
	assert.Equal(t, []string{"a", "b", "c"}, rec.Values())
	assert.Equal(t, []string{"b", "c"}, rec.Since())
	assert.True(t, rec.WaitFor(3, time.Millisecond))
	assert.False(t, rec.WaitFor(4, 5*time.Millisecond))

	rec.Stop()
	w.Set("d")
	assert.Equal(t, 3, rec.Len())
}
