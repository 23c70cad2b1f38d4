package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burnsbert/crumbwise/internal/clock"
	"github.com/burnsbert/crumbwise/internal/model"
	"github.com/burnsbert/crumbwise/internal/section"
)

var testNow = time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC)

const testStamp = "2026-02-17T12:00:00"

func newEngine() *Engine {
	return New(section.NewTable(section.Config{}), clock.NewFake(testNow))
}

func TestApply_MoveToActive(t *testing.T) {
	e := newEngine()
	task := &model.Task{ID: "t1", BlockedAt: model.StrPtr("2026-02-10T08:00:00")}

	e.Apply(task, section.TodoThisWeek, section.InProgressToday)

	require.NotNil(t, task.InProgress)
	assert.Equal(t, testStamp, *task.InProgress)
	assert.Nil(t, task.BlockedAt)
	require.NotNil(t, task.History)
	assert.Equal(t, "ip@"+testStamp, *task.History)
}

func TestApply_ReenteringActiveKeepsOriginalStart(t *testing.T) {
	e := newEngine()
	task := &model.Task{ID: "t1", InProgress: model.StrPtr("2026-02-10T08:00:00")}

	e.Apply(task, section.Blocked, section.InProgressToday)

	assert.Equal(t, "2026-02-10T08:00:00", *task.InProgress)
	assert.Equal(t, "ip@"+testStamp, *task.History)
}

func TestApply_MoveToDeactivating(t *testing.T) {
	e := newEngine()
	task := &model.Task{
		ID:         "t1",
		InProgress: model.StrPtr("2026-02-10T08:00:00"),
		BlockedAt:  model.StrPtr("2026-02-11T08:00:00"),
	}

	e.Apply(task, section.InProgressToday, section.TodoNextWeek)

	assert.Nil(t, task.InProgress)
	assert.Nil(t, task.BlockedAt)
	assert.Equal(t, "op@"+testStamp, *task.History)
}

func TestApply_OutOfDoneClearsCompletion(t *testing.T) {
	e := newEngine()
	task := &model.Task{ID: "t1", CompletedAt: model.StrPtr("2026-02-13T17:00:00")}

	e.Apply(task, section.DoneThisWeek, section.TodoThisWeek)
	assert.Nil(t, task.CompletedAt)

	// Leaving a non-done section keeps any completion stamp.
	task2 := &model.Task{ID: "t2", CompletedAt: model.StrPtr("2026-02-13T17:00:00")}
	e.Apply(task2, section.Blocked, section.TodoThisWeek)
	assert.NotNil(t, task2.CompletedAt)
}

func TestApply_MoveToBlocked(t *testing.T) {
	e := newEngine()
	task := &model.Task{
		ID:         "t1",
		InProgress: model.StrPtr("2026-02-10T08:00:00"),
		BlockedAt:  model.StrPtr("2026-02-01T08:00:00"),
	}

	e.Apply(task, section.InProgressToday, section.Blocked)

	// Blocked stamp is refreshed, active stamp dropped.
	assert.Equal(t, testStamp, *task.BlockedAt)
	assert.Nil(t, task.InProgress)
	assert.Equal(t, "bl@"+testStamp, *task.History)
}

func TestApply_MoveToDone(t *testing.T) {
	e := newEngine()
	task := &model.Task{
		ID:         "t1",
		InProgress: model.StrPtr("2026-02-10T08:00:00"),
		BlockedAt:  model.StrPtr("2026-02-11T08:00:00"),
	}

	e.Apply(task, section.InProgressToday, section.DoneThisWeek)

	assert.Equal(t, testStamp, *task.CompletedAt)
	assert.Nil(t, task.InProgress)
	assert.Nil(t, task.BlockedAt)
	assert.Equal(t, "co@"+testStamp, *task.History)
}

func TestApply_ResearchSourceIsExempt(t *testing.T) {
	e := newEngine()
	task := &model.Task{ID: "t1"}

	e.Apply(task, section.ThingsToResearch, section.InProgressToday)
	e.Apply(task, section.ResearchDone, section.DoneThisWeek)

	assert.Nil(t, task.InProgress)
	assert.Nil(t, task.CompletedAt)
	assert.Nil(t, task.History)
}

func TestApply_SameSectionIsNoOp(t *testing.T) {
	e := newEngine()
	task := &model.Task{ID: "t1"}
	e.Apply(task, section.InProgressToday, section.InProgressToday)
	assert.Nil(t, task.InProgress)
	assert.Nil(t, task.History)
}

func TestApply_MoveToResearchLeavesTaskAlone(t *testing.T) {
	e := newEngine()
	task := &model.Task{ID: "t1", InProgress: model.StrPtr("2026-02-10T08:00:00")}

	e.Apply(task, section.TodoThisWeek, section.ProblemsToSolve)

	// Research is not a lifecycle role; nothing is stamped.
	assert.Equal(t, "2026-02-10T08:00:00", *task.InProgress)
	assert.Nil(t, task.History)
}

func TestApply_HistoryAccumulates(t *testing.T) {
	e := newEngine()
	task := &model.Task{ID: "t1"}

	e.Apply(task, section.TodoThisWeek, section.InProgressToday)
	e.Apply(task, section.InProgressToday, section.Blocked)
	e.Apply(task, section.Blocked, section.DoneThisWeek)

	assert.Equal(t,
		"ip@"+testStamp+"|bl@"+testStamp+"|co@"+testStamp,
		*task.History)
}
