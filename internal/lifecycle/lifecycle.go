// Package lifecycle stamps tasks as they move between sections. The
// section a task sits in is the source of truth for its state; the
// timestamps and history written here are a derived audit trail that
// the timeline reads back.
package lifecycle

import (
	"github.com/burnsbert/crumbwise/internal/clock"
	"github.com/burnsbert/crumbwise/internal/model"
	"github.com/burnsbert/crumbwise/internal/section"
)

type Engine struct {
	Sections *section.Table
	Clock    clock.Clock
}

func New(sections *section.Table, clk clock.Clock) *Engine {
	return &Engine{Sections: sections, Clock: clk}
}

// Apply adjusts a task's lifecycle fields for a move from source to
// target. Moves out of a research section never touch the task: those
// sections track thinking, not work, and must not pollute the
// timeline. Moves within a section are position changes, not
// transitions.
func (e *Engine) Apply(t *model.Task, source, target string) {
	if source == target {
		return
	}
	if e.Sections.IsResearch(source) {
		return
	}

	now := e.Clock.Now()
	stamp := model.FormatTime(now)

	switch {
	case e.Sections.IsActive(target):
		// First activation wins; re-entering active keeps the
		// original start so elapsed time stays honest.
		if t.InProgress == nil {
			t.InProgress = model.StrPtr(stamp)
		}
		t.BlockedAt = nil
		t.AppendEvent(model.EventEnteredActive, now)

	case e.Sections.IsDeactivating(target):
		t.InProgress = nil
		t.BlockedAt = nil
		if e.Sections.IsDone(source) {
			t.CompletedAt = nil
		}
		t.AppendEvent(model.EventReturnedOpen, now)

	case e.Sections.IsBlocked(target):
		t.BlockedAt = model.StrPtr(stamp)
		t.InProgress = nil
		t.AppendEvent(model.EventEnteredBlocked, now)

	case e.Sections.IsDone(target):
		t.CompletedAt = model.StrPtr(stamp)
		t.InProgress = nil
		t.BlockedAt = nil
		t.AppendEvent(model.EventCompleted, now)
	}
}
