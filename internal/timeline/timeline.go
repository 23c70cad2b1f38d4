// Package timeline turns task lifecycle metadata into week-aligned
// spans for the Gantt-style views. It only ever reads the board.
package timeline

import (
	"sort"
	"strings"
	"time"

	"github.com/burnsbert/crumbwise/internal/model"
	"github.com/burnsbert/crumbwise/internal/section"
)

const (
	StatusInProgress = "in_progress"
	StatusBlocked    = "blocked"
)

type Span struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Status string `json:"status"`
}

// TaskView is a task as the timeline API reports it. Nullable fields
// are serialized as explicit nulls, not omitted.
type TaskView struct {
	ID              string  `json:"id"`
	Text            string  `json:"text"`
	Section         string  `json:"section"`
	OrderIndex      *int    `json:"order_index"`
	AssignedProject *string `json:"assigned_project"`
	ProjectColor    *int    `json:"project_color"`
	Spans           []Span  `json:"spans"`
}

type WeekView struct {
	WeekStart string     `json:"week_start"`
	WeekEnd   string     `json:"week_end"`
	Today     string     `json:"today"`
	Tasks     []TaskView `json:"tasks"`
}

type ProjectView struct {
	ProjectID string     `json:"project_id"`
	Tasks     []TaskView `json:"tasks"`
}

type Builder struct {
	Sections *section.Table
}

func New(sections *section.Table) *Builder {
	return &Builder{Sections: sections}
}

// span is the internal, unclipped form.
type span struct {
	start, end time.Time
	status     string
}

// Week computes spans for every qualifying task, clipped to the week
// that is offset weeks away from today. Weeks run Sunday to Saturday.
// A task qualifies by producing at least one span that touches the
// week; research sections never appear.
func (b *Builder) Week(board *model.Board, today time.Time, offset int) WeekView {
	day := dateOnly(today)
	weekStart := day.AddDate(0, 0, -int(day.Weekday())+7*offset)
	weekEnd := weekStart.AddDate(0, 0, 6)

	colors := projectColors(board)
	tasks := []TaskView{}
	inProg := map[string]string{}

	for _, name := range board.Order {
		if b.Sections.IsResearch(name) {
			continue
		}
		for _, t := range board.Sections[name] {
			clipped := clip(b.taskSpans(t, name, day), weekStart, weekEnd)
			if len(clipped) == 0 {
				continue
			}
			v := b.view(t, name, colors)
			v.Spans = clipped
			tasks = append(tasks, v)
			if t.InProgress != nil {
				inProg[v.ID] = *t.InProgress
			}
		}
	}

	// Most recently started work first; tasks that were never started
	// sink to the bottom.
	sort.SliceStable(tasks, func(i, j int) bool {
		return inProg[tasks[i].ID] > inProg[tasks[j].ID]
	})

	return WeekView{
		WeekStart: model.FormatDate(weekStart),
		WeekEnd:   model.FormatDate(weekEnd),
		Today:     model.FormatDate(day),
		Tasks:     tasks,
	}
}

// Project lists every task assigned to the project in chronological
// order: explicit plan order when any task carries one, otherwise the
// section age tier with in_progress and created as tie-breakers.
// Spans are not clipped; the project view scrolls freely.
func (b *Builder) Project(board *model.Board, projectID string, today time.Time) ProjectView {
	day := dateOnly(today)
	colors := projectColors(board)

	type entry struct {
		task    *model.Task
		section string
	}
	var entries []entry
	for _, name := range board.Order {
		for _, t := range board.Sections[name] {
			if t.AssignedProject != nil && *t.AssignedProject == projectID {
				entries = append(entries, entry{t, name})
			}
		}
	}

	anyOrdered := false
	for _, e := range entries {
		if e.task.OrderIndex != nil {
			anyOrdered = true
			break
		}
	}

	if anyOrdered {
		const unordered = 1 << 30
		at := func(e entry) int {
			if e.task.OrderIndex != nil {
				return *e.task.OrderIndex
			}
			return unordered
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return at(entries[i]) < at(entries[j])
		})
	} else {
		const never = "9999"
		key := func(e entry) (int, int, string, string) {
			tier, sub := section.AgeTier(e.section)
			ip, created := never, never
			if e.task.InProgress != nil {
				ip = *e.task.InProgress
			}
			if e.task.Created != nil {
				created = *e.task.Created
			}
			return tier, sub, ip, created
		}
		sort.SliceStable(entries, func(i, j int) bool {
			t1, s1, ip1, c1 := key(entries[i])
			t2, s2, ip2, c2 := key(entries[j])
			if t1 != t2 {
				return t1 < t2
			}
			if s1 != s2 {
				return s1 < s2
			}
			if ip1 != ip2 {
				return ip1 < ip2
			}
			return c1 < c2
		})
	}

	tasks := make([]TaskView, 0, len(entries))
	for _, e := range entries {
		v := b.view(e.task, e.section, colors)
		v.Spans = formatSpans(b.taskSpans(e.task, e.section, day))
		tasks = append(tasks, v)
	}
	return ProjectView{ProjectID: projectID, Tasks: tasks}
}

func (b *Builder) view(t *model.Task, sectionName string, colors map[string]int) TaskView {
	v := TaskView{
		ID:              string(t.ID),
		Text:            t.Text,
		Section:         sectionName,
		OrderIndex:      t.OrderIndex,
		AssignedProject: t.AssignedProject,
		Spans:           []Span{},
	}
	if t.AssignedProject != nil {
		if c, ok := colors[*t.AssignedProject]; ok {
			v.ProjectColor = model.IntPtr(c)
		}
	}
	return v
}

// taskSpans derives the raw spans for one task. History is
// authoritative when present; otherwise the denormalized timestamps
// reconstruct a best-effort single span so tasks predating history
// tracking still show up.
func (b *Builder) taskSpans(t *model.Task, sectionName string, today time.Time) []span {
	if t.History != nil && strings.TrimSpace(*t.History) != "" {
		events := model.ParseHistory(*t.History)
		spans := spansFromEvents(events, today)
		if len(spans) > 0 || t.InProgress != nil {
			return spans
		}
		// History held nothing but terminal events; fall back to
		// whichever terminal timestamp survives.
		if d, ok := dateField(t.CompletedAt); ok {
			return []span{{d, d, StatusInProgress}}
		}
		if d, ok := dateField(t.BlockedAt); ok {
			return []span{{d, today, StatusBlocked}}
		}
		return nil
	}

	if start, ok := dateField(t.InProgress); ok {
		end := today
		if d, ok := dateField(t.CompletedAt); ok {
			end = d
		} else if d, ok := dateField(t.BlockedAt); ok {
			end = d
		} else if b.Sections.IsDone(sectionName) {
			// Done task that never got a completion stamp: treat it
			// as finished the day it was started.
			end = start
		}
		return []span{{start, end, StatusInProgress}}
	}
	if d, ok := dateField(t.CompletedAt); ok {
		return []span{{d, d, StatusInProgress}}
	}
	if d, ok := dateField(t.BlockedAt); ok {
		return []span{{d, today, StatusBlocked}}
	}
	switch {
	case b.Sections.IsActive(sectionName):
		return []span{{today, today, StatusInProgress}}
	case b.Sections.IsBlocked(sectionName):
		return []span{{today, today, StatusBlocked}}
	}
	return nil
}

// spansFromEvents walks the event list: ip and bl open a span that
// closes at the next event, the trailing open span runs to today, and
// terminal events only ever close.
func spansFromEvents(events []model.HistoryEvent, today time.Time) []span {
	var out []span
	for i, ev := range events {
		var status string
		switch ev.Kind {
		case model.EventEnteredActive:
			status = StatusInProgress
		case model.EventEnteredBlocked:
			status = StatusBlocked
		default:
			continue
		}
		end := today
		if i+1 < len(events) {
			end = dateOnly(events[i+1].At)
		}
		out = append(out, span{dateOnly(ev.At), end, status})
	}
	return out
}

// clip drops spans with no overlap and trims the rest to the window.
// Overlap is judged on the raw span, so an open span whose start is
// after today (the clock moved, or the file was hand-edited) is kept
// as long as it touches the week.
func clip(spans []span, weekStart, weekEnd time.Time) []Span {
	var out []Span
	for _, s := range spans {
		if s.start.After(weekEnd) || s.end.Before(weekStart) {
			continue
		}
		start, end := s.start, s.end
		if start.Before(weekStart) {
			start = weekStart
		}
		if end.After(weekEnd) {
			end = weekEnd
		}
		out = append(out, Span{model.FormatDate(start), model.FormatDate(end), s.status})
	}
	return out
}

func formatSpans(spans []span) []Span {
	out := make([]Span, 0, len(spans))
	for _, s := range spans {
		out = append(out, Span{model.FormatDate(s.start), model.FormatDate(s.end), s.status})
	}
	return out
}

func projectColors(board *model.Board) map[string]int {
	colors := map[string]int{}
	for _, name := range []string{section.Projects, section.CompletedProjects} {
		for _, p := range board.Sections[name] {
			if p.ColorIndex != nil {
				colors[string(p.ID)] = *p.ColorIndex
			}
		}
	}
	return colors
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dateField(s *string) (time.Time, bool) {
	if s == nil || *s == "" {
		return time.Time{}, false
	}
	t, err := model.ParseTime(*s)
	if err != nil {
		return time.Time{}, false
	}
	return dateOnly(t), true
}
