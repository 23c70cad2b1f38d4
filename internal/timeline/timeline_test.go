package timeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burnsbert/crumbwise/internal/model"
	"github.com/burnsbert/crumbwise/internal/section"
)

// Fixed clock: Tuesday 2026-02-17. The surrounding week runs Sunday
// 2026-02-15 through Saturday 2026-02-21.
var today = time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC)

func newBuilder() *Builder {
	return New(section.NewTable(section.Config{}))
}

func boardWith(sectionName string, tasks ...*model.Task) *model.Board {
	b := model.NewBoard()
	for _, t := range tasks {
		b.Append(sectionName, t)
	}
	return b
}

func findTask(t *testing.T, view WeekView, id string) TaskView {
	t.Helper()
	for _, v := range view.Tasks {
		if v.ID == id {
			return v
		}
	}
	t.Fatalf("task %s not in week view: %+v", id, view.Tasks)
	return TaskView{}
}

func TestWeek_Bounds(t *testing.T) {
	view := newBuilder().Week(model.NewBoard(), today, 0)
	assert.Equal(t, "2026-02-15", view.WeekStart)
	assert.Equal(t, "2026-02-21", view.WeekEnd)
	assert.Equal(t, "2026-02-17", view.Today)
	assert.NotNil(t, view.Tasks)
	assert.Empty(t, view.Tasks)
}

func TestWeek_EmptySerializesAsArray(t *testing.T) {
	view := newBuilder().Week(model.NewBoard(), today, 0)
	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"tasks":[]`)
}

func TestWeek_CompletedTaskSpan(t *testing.T) {
	task := &model.Task{
		ID:          "t1",
		Text:        "ship it",
		History:     model.StrPtr("ip@2026-02-16T09:00:00|co@2026-02-17T15:00:00"),
		CompletedAt: model.StrPtr("2026-02-17T15:00:00"),
	}
	view := newBuilder().Week(boardWith(section.DoneThisWeek, task), today, 0)

	got := findTask(t, view, "t1")
	require.Len(t, got.Spans, 1)
	assert.Equal(t, Span{Start: "2026-02-16", End: "2026-02-17", Status: StatusInProgress}, got.Spans[0])
}

func TestWeek_OpenSpanRunsToToday(t *testing.T) {
	task := &model.Task{
		ID:         "t1",
		Text:       "ongoing",
		InProgress: model.StrPtr("2026-02-15T09:00:00"),
		History:    model.StrPtr("ip@2026-02-15T09:00:00"),
	}
	view := newBuilder().Week(boardWith(section.InProgressToday, task), today, 0)

	got := findTask(t, view, "t1")
	require.Len(t, got.Spans, 1)
	assert.Equal(t, Span{Start: "2026-02-15", End: "2026-02-17", Status: StatusInProgress}, got.Spans[0])
}

func TestWeek_BlockedInterval(t *testing.T) {
	task := &model.Task{
		ID:      "t1",
		Text:    "stuck then unstuck",
		History: model.StrPtr("ip@2026-02-15T09:00:00|bl@2026-02-16T10:00:00|ip@2026-02-18T08:00:00"),
	}
	view := newBuilder().Week(boardWith(section.InProgressToday, task), today, 0)

	got := findTask(t, view, "t1")
	require.Len(t, got.Spans, 3)
	assert.Equal(t, Span{Start: "2026-02-15", End: "2026-02-16", Status: StatusInProgress}, got.Spans[0])
	assert.Equal(t, Span{Start: "2026-02-16", End: "2026-02-18", Status: StatusBlocked}, got.Spans[1])
	// Re-activation stamped ahead of the clock keeps its raw bounds.
	assert.Equal(t, Span{Start: "2026-02-18", End: "2026-02-17", Status: StatusInProgress}, got.Spans[2])
}

func TestWeek_ClipsToWindow(t *testing.T) {
	task := &model.Task{
		ID:      "t1",
		Text:    "long haul",
		History: model.StrPtr("ip@2026-02-10T09:00:00|co@2026-02-16T17:00:00"),
	}
	b := newBuilder()

	// Current week only sees the tail.
	view := b.Week(boardWith(section.DoneThisWeek, task), today, 0)
	got := findTask(t, view, "t1")
	require.Len(t, got.Spans, 1)
	assert.Equal(t, Span{Start: "2026-02-15", End: "2026-02-16", Status: StatusInProgress}, got.Spans[0])

	// Previous week sees the head, clamped at its Saturday.
	prev := b.Week(boardWith(section.DoneThisWeek, task), today, -1)
	got = findTask(t, prev, "t1")
	require.Len(t, got.Spans, 1)
	assert.Equal(t, Span{Start: "2026-02-10", End: "2026-02-14", Status: StatusInProgress}, got.Spans[0])
}

func TestWeek_TaskOutsideWindowDropped(t *testing.T) {
	task := &model.Task{
		ID:      "old",
		Text:    "ancient work",
		History: model.StrPtr("ip@2026-01-05T09:00:00|co@2026-01-06T17:00:00"),
	}
	view := newBuilder().Week(boardWith(section.DoneThisWeek, task), today, 0)
	assert.Empty(t, view.Tasks)
}

func TestWeek_OpOnlyHistoryExcluded(t *testing.T) {
	// A task that was only ever bounced back to open has no spans and no
	// fallback stamps, so it never shows up.
	task := &model.Task{
		ID:      "t1",
		Text:    "bounced",
		History: model.StrPtr("op@2026-02-16T09:00:00"),
	}
	view := newBuilder().Week(boardWith(section.TodoThisWeek, task), today, 0)
	assert.Empty(t, view.Tasks)
}

func TestWeek_TerminalOnlyHistoryFallsBackToStamps(t *testing.T) {
	task := &model.Task{
		ID:          "t1",
		Text:        "recorded late",
		History:     model.StrPtr("co@2026-02-16T17:00:00"),
		CompletedAt: model.StrPtr("2026-02-16T17:00:00"),
	}
	view := newBuilder().Week(boardWith(section.DoneThisWeek, task), today, 0)

	got := findTask(t, view, "t1")
	require.Len(t, got.Spans, 1)
	assert.Equal(t, Span{Start: "2026-02-16", End: "2026-02-16", Status: StatusInProgress}, got.Spans[0])
}

func TestWeek_NoHistoryFallbacks(t *testing.T) {
	cases := []struct {
		name    string
		section string
		task    *model.Task
		want    Span
	}{
		{
			name:    "in_progress with completion",
			section: section.DoneThisWeek,
			task: &model.Task{
				ID:          "a",
				InProgress:  model.StrPtr("2026-02-15T09:00:00"),
				CompletedAt: model.StrPtr("2026-02-16T17:00:00"),
			},
			want: Span{Start: "2026-02-15", End: "2026-02-16", Status: StatusInProgress},
		},
		{
			name:    "in_progress with blocked stamp stays in_progress",
			section: section.Blocked,
			task: &model.Task{
				ID:         "b",
				InProgress: model.StrPtr("2026-02-15T09:00:00"),
				BlockedAt:  model.StrPtr("2026-02-17T08:00:00"),
			},
			want: Span{Start: "2026-02-15", End: "2026-02-17", Status: StatusInProgress},
		},
		{
			name:    "in_progress in done section without completion",
			section: section.DoneThisWeek,
			task: &model.Task{
				ID:         "c",
				InProgress: model.StrPtr("2026-02-16T09:00:00"),
			},
			want: Span{Start: "2026-02-16", End: "2026-02-16", Status: StatusInProgress},
		},
		{
			name:    "completed stamp only",
			section: section.DoneThisWeek,
			task: &model.Task{
				ID:          "d",
				CompletedAt: model.StrPtr("2026-02-16T17:00:00"),
			},
			want: Span{Start: "2026-02-16", End: "2026-02-16", Status: StatusInProgress},
		},
		{
			name:    "blocked stamp only",
			section: section.Blocked,
			task: &model.Task{
				ID:        "e",
				BlockedAt: model.StrPtr("2026-02-16T08:00:00"),
			},
			want: Span{Start: "2026-02-16", End: "2026-02-17", Status: StatusBlocked},
		},
		{
			name:    "bare task in active section",
			section: section.InProgressToday,
			task:    &model.Task{ID: "f"},
			want:    Span{Start: "2026-02-17", End: "2026-02-17", Status: StatusInProgress},
		},
		{
			name:    "bare task in blocked section",
			section: section.Blocked,
			task:    &model.Task{ID: "g"},
			want:    Span{Start: "2026-02-17", End: "2026-02-17", Status: StatusBlocked},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			view := newBuilder().Week(boardWith(tc.section, tc.task), today, 0)
			got := findTask(t, view, string(tc.task.ID))
			require.Len(t, got.Spans, 1)
			assert.Equal(t, tc.want, got.Spans[0])
		})
	}
}

func TestWeek_BareTaskInPlanningSectionExcluded(t *testing.T) {
	view := newBuilder().Week(boardWith(section.TodoThisWeek, &model.Task{ID: "t1", Text: "planned"}), today, 0)
	assert.Empty(t, view.Tasks)
}

func TestWeek_ResearchSectionsExcluded(t *testing.T) {
	b := model.NewBoard()
	b.Append(section.ResearchInProg, &model.Task{
		ID:         "r1",
		InProgress: model.StrPtr("2026-02-16T09:00:00"),
	})
	b.Append(section.InProgressToday, &model.Task{
		ID:         "t1",
		InProgress: model.StrPtr("2026-02-16T09:00:00"),
	})
	view := newBuilder().Week(b, today, 0)
	require.Len(t, view.Tasks, 1)
	assert.Equal(t, "t1", view.Tasks[0].ID)
}

func TestWeek_SortsByMostRecentStartFirst(t *testing.T) {
	b := model.NewBoard()
	b.Append(section.InProgressToday, &model.Task{
		ID: "older", InProgress: model.StrPtr("2026-02-15T09:00:00"),
	})
	b.Append(section.InProgressToday, &model.Task{
		ID: "newer", InProgress: model.StrPtr("2026-02-17T09:00:00"),
	})
	b.Append(section.Blocked, &model.Task{
		ID: "neverstarted", BlockedAt: model.StrPtr("2026-02-16T08:00:00"),
	})
	view := newBuilder().Week(b, today, 0)

	require.Len(t, view.Tasks, 3)
	assert.Equal(t, "newer", view.Tasks[0].ID)
	assert.Equal(t, "older", view.Tasks[1].ID)
	assert.Equal(t, "neverstarted", view.Tasks[2].ID)
}

func TestWeek_ProjectColorResolved(t *testing.T) {
	b := model.NewBoard()
	b.Append(section.Projects, &model.Task{ID: "p1", Text: "Apollo", ColorIndex: model.IntPtr(5)})
	b.Append(section.InProgressToday, &model.Task{
		ID:              "t1",
		InProgress:      model.StrPtr("2026-02-16T09:00:00"),
		AssignedProject: model.StrPtr("p1"),
	})
	view := newBuilder().Week(b, today, 0)

	got := findTask(t, view, "t1")
	require.NotNil(t, got.ProjectColor)
	assert.Equal(t, 5, *got.ProjectColor)
	assert.Equal(t, "p1", *got.AssignedProject)
}

func TestProject_ExplicitOrderWins(t *testing.T) {
	b := model.NewBoard()
	b.Append(section.Projects, &model.Task{ID: "p1", Text: "Apollo", ColorIndex: model.IntPtr(2)})
	b.Append(section.DoneThisWeek, &model.Task{
		ID: "second", AssignedProject: model.StrPtr("p1"), OrderIndex: model.IntPtr(1),
	})
	b.Append(section.TodoThisWeek, &model.Task{
		ID: "first", AssignedProject: model.StrPtr("p1"), OrderIndex: model.IntPtr(0),
	})
	b.Append(section.TodoNextWeek, &model.Task{
		ID: "unranked", AssignedProject: model.StrPtr("p1"),
	})
	view := newBuilder().Project(b, "p1", today)

	require.Len(t, view.Tasks, 3)
	assert.Equal(t, "first", view.Tasks[0].ID)
	assert.Equal(t, "second", view.Tasks[1].ID)
	// Tasks without an index sink below every ranked one.
	assert.Equal(t, "unranked", view.Tasks[2].ID)
	assert.Equal(t, "p1", view.ProjectID)
}

func TestProject_FallbackSortByAgeTier(t *testing.T) {
	b := model.NewBoard()
	b.Append(section.Projects, &model.Task{ID: "p1", Text: "Apollo"})
	b.Append(section.TodoThisWeek, &model.Task{ID: "planned", AssignedProject: model.StrPtr("p1")})
	b.Append("DONE Q4 2025", &model.Task{ID: "lastyear", AssignedProject: model.StrPtr("p1")})
	b.Append(section.DoneThisWeek, &model.Task{ID: "thisweek", AssignedProject: model.StrPtr("p1")})
	b.Append(section.InProgressToday, &model.Task{ID: "active", AssignedProject: model.StrPtr("p1")})
	view := newBuilder().Project(b, "p1", today)

	var ids []string
	for _, v := range view.Tasks {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"lastyear", "thisweek", "active", "planned"}, ids)
}

func TestProject_FallbackTieBreaksOnStartThenCreated(t *testing.T) {
	b := model.NewBoard()
	b.Append(section.Projects, &model.Task{ID: "p1"})
	b.Append(section.DoneThisWeek, &model.Task{
		ID: "later", AssignedProject: model.StrPtr("p1"),
		InProgress: model.StrPtr("2026-02-16T09:00:00"),
	})
	b.Append(section.DoneThisWeek, &model.Task{
		ID: "earlier", AssignedProject: model.StrPtr("p1"),
		InProgress: model.StrPtr("2026-02-15T09:00:00"),
	})
	b.Append(section.DoneThisWeek, &model.Task{
		ID: "nostart", AssignedProject: model.StrPtr("p1"),
		Created: model.StrPtr("2026-02-10T09:00:00"),
	})
	view := newBuilder().Project(b, "p1", today)

	var ids []string
	for _, v := range view.Tasks {
		ids = append(ids, v.ID)
	}
	// Started tasks first in start order; never-started ones sort last.
	assert.Equal(t, []string{"earlier", "later", "nostart"}, ids)
}

func TestProject_SpansAreNotClipped(t *testing.T) {
	b := model.NewBoard()
	b.Append(section.Projects, &model.Task{ID: "p1"})
	b.Append("DONE Q4 2025", &model.Task{
		ID:              "old",
		AssignedProject: model.StrPtr("p1"),
		History:         model.StrPtr("ip@2025-11-03T09:00:00|co@2025-11-05T17:00:00"),
	})
	view := newBuilder().Project(b, "p1", today)

	require.Len(t, view.Tasks, 1)
	require.Len(t, view.Tasks[0].Spans, 1)
	assert.Equal(t, Span{Start: "2025-11-03", End: "2025-11-05", Status: StatusInProgress}, view.Tasks[0].Spans[0])
}

func TestProject_IncludesResearchAssignments(t *testing.T) {
	// Research tasks are hidden from the week view but a project plan
	// lists everything assigned to it.
	b := model.NewBoard()
	b.Append(section.Projects, &model.Task{ID: "p1"})
	b.Append(section.ThingsToResearch, &model.Task{ID: "r1", AssignedProject: model.StrPtr("p1")})
	view := newBuilder().Project(b, "p1", today)
	require.Len(t, view.Tasks, 1)
	assert.Equal(t, "r1", view.Tasks[0].ID)
	assert.Empty(t, view.Tasks[0].Spans)
}
