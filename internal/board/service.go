// Package board is the application core: every API operation is a
// method on Service, which loads the whole board from disk, applies
// the change and writes it back.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/burnsbert/crumbwise/internal/calendar"
	"github.com/burnsbert/crumbwise/internal/clock"
	"github.com/burnsbert/crumbwise/internal/lifecycle"
	"github.com/burnsbert/crumbwise/internal/model"
	"github.com/burnsbert/crumbwise/internal/project"
	"github.com/burnsbert/crumbwise/internal/section"
	"github.com/burnsbert/crumbwise/internal/settings"
	"github.com/burnsbert/crumbwise/internal/store"
	"github.com/burnsbert/crumbwise/internal/timeline"
	"github.com/burnsbert/crumbwise/internal/wiki"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidSection  = errors.New("invalid section")
	ErrTextRequired    = errors.New("task text required")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrNotProject      = errors.New("task is not a project")
	ErrNotAssigned     = errors.New("task missing or not assigned to project")
)

type Service struct {
	// mu serializes the read-modify-write cycle within this process.
	// Concurrent writers outside the process (a second instance, a
	// text editor) can still race; last write wins and that is an
	// accepted property of the plain-file store.
	mu sync.Mutex

	store    *store.Store
	settings *settings.FileStore
	sections *section.Table
	engine   *lifecycle.Engine
	timeline *timeline.Builder
	wiki     *wiki.Client
	calendar *calendar.Client
	clock    clock.Clock
}

type Options struct {
	Store    *store.Store
	Settings *settings.FileStore
	Sections *section.Table
	Wiki     *wiki.Client
	Calendar *calendar.Client
	Clock    clock.Clock
}

func NewService(opts Options) *Service {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{
		store:    opts.Store,
		settings: opts.Settings,
		sections: opts.Sections,
		engine:   lifecycle.New(opts.Sections, clk),
		timeline: timeline.New(opts.Sections),
		wiki:     opts.Wiki,
		calendar: opts.Calendar,
		clock:    clk,
	}
}

// mutate runs one read-modify-write cycle and, on success, invalidates
// the new-week undo snapshot: undo is only honest while the rollover
// is the most recent change.
func (s *Service) mutate(fn func(*model.Board) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	board, err := s.store.Load()
	if err != nil {
		return err
	}
	if err := fn(board); err != nil {
		return err
	}
	if err := s.store.Save(board); err != nil {
		return err
	}
	s.store.ClearUndo()
	return nil
}

func (s *Service) load() (*model.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load()
}

// Tasks returns every section with its tasks, in board order.
func (s *Service) Tasks() (map[string][]*model.Task, error) {
	board, err := s.load()
	if err != nil {
		return nil, err
	}
	return board.Sections, nil
}

// AddTask appends a task to a section. New projects get a palette
// color and the default priority on the spot.
func (s *Service) AddTask(sectionName, text string) (*model.Task, error) {
	text = strings.TrimSpace(text)
	if !s.validSection(sectionName) {
		return nil, ErrInvalidSection
	}
	if text == "" {
		return nil, ErrTextRequired
	}

	stamp := model.FormatTime(s.clock.Now())
	t := &model.Task{
		ID:      model.TaskID(uuid.NewString()),
		Text:    text,
		Created: model.StrPtr(stamp),
		Updated: model.StrPtr(stamp),
	}
	err := s.mutate(func(board *model.Board) error {
		if sectionName == section.Projects {
			t.ColorIndex = model.IntPtr(project.AllocateColor(
				board.Sections[section.Projects],
				board.Sections[section.CompletedProjects],
			))
			t.Priority = model.StrPtr(project.DefaultPriority)
		}
		board.Append(sectionName, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// TaskPatch updates text and/or moves the task. Nil means unchanged.
type TaskPatch struct {
	Text    *string `json:"text"`
	Section *string `json:"section"`
}

func (s *Service) UpdateTask(id model.TaskID, patch TaskPatch) (*model.Task, error) {
	var updated *model.Task
	err := s.mutate(func(board *model.Board) error {
		t, current, ok := board.Find(id)
		if !ok {
			return ErrTaskNotFound
		}
		if patch.Text != nil {
			t.Text = strings.TrimSpace(*patch.Text)
		}
		if patch.Section != nil && *patch.Section != "" && *patch.Section != current {
			target := *patch.Section
			if !s.validSection(target) {
				return ErrInvalidSection
			}
			s.engine.Apply(t, current, target)
			board.Remove(id)
			board.Append(target, t)
		}
		t.Updated = model.StrPtr(model.FormatTime(s.clock.Now()))
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) DeleteTask(id model.TaskID) error {
	return s.mutate(func(board *model.Board) error {
		if _, _, ok := board.Remove(id); !ok {
			return ErrTaskNotFound
		}
		return nil
	})
}

// ToggleComplete flips the checkbox. The completion stamp is always
// kept in step with the flag, even for research tasks; history events
// are only written for sections that participate in the lifecycle.
// Completing a project relocates it to the archive section and back.
func (s *Service) ToggleComplete(id model.TaskID) (*model.Task, error) {
	var toggled *model.Task
	err := s.mutate(func(board *model.Board) error {
		t, current, ok := board.Find(id)
		if !ok {
			return ErrTaskNotFound
		}
		now := s.clock.Now()
		stamp := model.FormatTime(now)

		t.Completed = !t.Completed
		if t.Completed {
			t.CompletedAt = model.StrPtr(stamp)
			if !s.sections.IsResearch(current) {
				t.AppendEvent(model.EventCompleted, now)
			}
		} else {
			t.CompletedAt = nil
			if !s.sections.IsResearch(current) {
				t.AppendEvent(model.EventReturnedOpen, now)
			}
		}
		t.Updated = model.StrPtr(stamp)

		switch {
		case current == section.Projects && t.Completed:
			board.Remove(id)
			board.Append(section.CompletedProjects, t)
		case current == section.CompletedProjects && !t.Completed:
			board.Remove(id)
			board.Append(section.Projects, t)
		}
		toggled = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toggled, nil
}

// Reorder drops a task at index within a section. A move between
// sections is a lifecycle transition; a move within one is not.
func (s *Service) Reorder(id model.TaskID, targetSection string, index int) error {
	if !s.validSection(targetSection) {
		return ErrInvalidSection
	}
	return s.mutate(func(board *model.Board) error {
		t, current, ok := board.Remove(id)
		if !ok {
			return ErrTaskNotFound
		}
		if current != targetSection {
			s.engine.Apply(t, current, targetSection)
			t.Updated = model.StrPtr(model.FormatTime(s.clock.Now()))
		}
		board.Insert(targetSection, index, t)
		return nil
	})
}

// NewWeek rolls the board over: the finished week is archived into the
// current quarter and the planning columns shift forward. A snapshot
// is kept so the rollover can be undone as long as nothing else
// changes afterwards.
func (s *Service) NewWeek() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SnapshotUndo(); err != nil {
		return err
	}
	board, err := s.store.Load()
	if err != nil {
		return err
	}

	quarter := section.CurrentQuarter(s.clock.Now())
	board.EnsureSection(quarter)
	board.Sections[quarter] = append(board.Sections[quarter], board.Sections[section.DoneThisWeek]...)
	board.Sections[section.DoneThisWeek] = nil

	board.Sections[section.TodoThisWeek] = append(
		board.Sections[section.TodoThisWeek], board.Sections[section.TodoNextWeek]...)
	board.Sections[section.TodoNextWeek] = board.Sections[section.TodoFollowingWeek]
	board.Sections[section.TodoFollowingWeek] = nil

	return s.store.Save(board)
}

func (s *Service) UndoNewWeek() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.RestoreUndo()
}

func (s *Service) CanUndo() bool { return s.store.CanUndo() }

// Assign links a task to a project. Any order index from a previous
// project is stale and dropped; the task joins the new project's plan
// order only if that project has one.
func (s *Service) Assign(id model.TaskID, projectID string) (*model.Task, error) {
	var assigned *model.Task
	err := s.mutate(func(board *model.Board) error {
		t, _, ok := board.Find(id)
		if !ok {
			return ErrTaskNotFound
		}
		if _, ok := findProject(board, projectID); !ok {
			return ErrProjectNotFound
		}
		t.OrderIndex = nil
		t.AssignedProject = model.StrPtr(projectID)

		var siblings []*model.Task
		for _, name := range board.Order {
			for _, other := range board.Sections[name] {
				if other != t && other.AssignedProject != nil && *other.AssignedProject == projectID {
					siblings = append(siblings, other)
				}
			}
		}
		t.OrderIndex = project.NextOrderIndex(siblings)
		t.Updated = model.StrPtr(model.FormatTime(s.clock.Now()))
		assigned = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assigned, nil
}

func (s *Service) Unassign(id model.TaskID) (*model.Task, error) {
	var t *model.Task
	err := s.mutate(func(board *model.Board) error {
		found, _, ok := board.Find(id)
		if !ok {
			return ErrTaskNotFound
		}
		found.AssignedProject = nil
		found.OrderIndex = nil
		found.Updated = model.StrPtr(model.FormatTime(s.clock.Now()))
		t = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// SetPriority changes a project's priority bucket. Only tasks living
// in the project sections carry a priority.
func (s *Service) SetPriority(id model.TaskID, priority string) (*model.Task, error) {
	if !project.ValidPriority(priority) {
		return nil, ErrInvalidPriority
	}
	var t *model.Task
	err := s.mutate(func(board *model.Board) error {
		found, current, ok := board.Find(id)
		if !ok {
			return ErrTaskNotFound
		}
		if !s.sections.IsProjectHome(current) {
			return ErrNotProject
		}
		found.Priority = model.StrPtr(priority)
		found.Updated = model.StrPtr(model.FormatTime(s.clock.Now()))
		t = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ReorderProject rewrites the project's plan order from an explicit ID
// list. Deliberately does not touch updated stamps: dragging rows in a
// plan is not an edit of the tasks themselves.
func (s *Service) ReorderProject(projectID string, taskIDs []string) error {
	return s.mutate(func(board *model.Board) error {
		if _, ok := findProject(board, projectID); !ok {
			return ErrProjectNotFound
		}
		// Every id must name a task assigned to this project; nothing is
		// written until the whole list checks out.
		tasks := make([]*model.Task, 0, len(taskIDs))
		for _, raw := range taskIDs {
			t, _, ok := board.Find(model.TaskID(raw))
			if !ok {
				return fmt.Errorf("%w: %s", ErrNotAssigned, raw)
			}
			if t.AssignedProject == nil || *t.AssignedProject != projectID {
				return fmt.Errorf("%w: %s", ErrNotAssigned, raw)
			}
			tasks = append(tasks, t)
		}
		for i, t := range tasks {
			t.OrderIndex = model.IntPtr(i)
		}
		return nil
	})
}

func (s *Service) WeekTimeline(offset int) (timeline.WeekView, error) {
	board, err := s.load()
	if err != nil {
		return timeline.WeekView{}, err
	}
	return s.timeline.Week(board, s.clock.Now(), offset), nil
}

func (s *Service) ProjectTimeline(projectID string) (timeline.ProjectView, error) {
	board, err := s.load()
	if err != nil {
		return timeline.ProjectView{}, err
	}
	if _, ok := findProject(board, projectID); !ok {
		return timeline.ProjectView{}, ErrProjectNotFound
	}
	return s.timeline.Project(board, projectID, s.clock.Now()), nil
}

func (s *Service) SectionTable() map[string]section.Placement {
	return s.sections.Dynamic(s.clock.Now())
}

func (s *Service) CurrentQuarter() string {
	return section.CurrentQuarter(s.clock.Now())
}

func (s *Service) WeekDates() map[string]string {
	return section.WeekDates(s.clock.Now())
}

func (s *Service) Notes() (string, error) { return s.store.Notes() }

func (s *Service) SaveNotes(text string) error { return s.store.SaveNotes(text) }

func (s *Service) Settings() (settings.Public, error) {
	stored, err := s.settings.Load()
	if err != nil {
		return settings.Public{}, err
	}
	return stored.Public(), nil
}

func (s *Service) UpdateSettings(u settings.Update) error {
	_, err := s.settings.Apply(u)
	return err
}

// SyncConfluence renders the board and pushes it to the configured
// Confluence page.
func (s *Service) SyncConfluence(ctx context.Context) error {
	stored, err := s.settings.Load()
	if err != nil {
		return err
	}
	board, err := s.load()
	if err != nil {
		return err
	}
	notes, err := s.store.Notes()
	if err != nil {
		return err
	}
	content := wiki.RenderStorage(board, notes, s.clock.Now())
	return s.wiki.Sync(ctx, wiki.Credentials{
		URL:   stored.ConfluenceURL,
		Email: stored.ConfluenceEmail,
		Token: stored.ConfluenceToken,
	}, content)
}

// CalendarView is the overlay payload for one week.
type CalendarView struct {
	Connected      bool             `json:"connected"`
	NeedsReconnect bool             `json:"needs_reconnect,omitempty"`
	WeekStart      string           `json:"week_start,omitempty"`
	WeekEnd        string           `json:"week_end,omitempty"`
	Events         []calendar.Event `json:"events"`
}

// CalendarWeek fetches events for the same Sunday-Saturday window the
// timeline uses. A rejected token is cleared on the spot so the UI can
// prompt for a fresh connection instead of failing forever.
func (s *Service) CalendarWeek(ctx context.Context, offset int) (CalendarView, error) {
	stored, err := s.settings.Load()
	if err != nil {
		return CalendarView{}, err
	}
	if stored.CalendarToken == "" || s.calendar == nil {
		return CalendarView{Connected: false, Events: []calendar.Event{}}, nil
	}

	now := s.clock.Now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := day.AddDate(0, 0, -int(day.Weekday())+7*offset)
	weekEnd := weekStart.AddDate(0, 0, 6)

	events, err := s.calendar.Events(ctx, stored.CalendarToken, weekStart, weekEnd)
	if errors.Is(err, calendar.ErrUnauthorized) {
		if clearErr := s.settings.ClearCalendarToken(); clearErr != nil {
			return CalendarView{}, clearErr
		}
		return CalendarView{Connected: false, NeedsReconnect: true, Events: []calendar.Event{}}, nil
	}
	if err != nil {
		return CalendarView{}, err
	}
	if events == nil {
		events = []calendar.Event{}
	}
	return CalendarView{
		Connected: true,
		WeekStart: model.FormatDate(weekStart),
		WeekEnd:   model.FormatDate(weekEnd),
		Events:    events,
	}, nil
}

func (s *Service) validSection(name string) bool {
	return name != "" && s.sections.Known(name, s.clock.Now())
}

func findProject(board *model.Board, projectID string) (*model.Task, bool) {
	for _, name := range []string{section.Projects, section.CompletedProjects} {
		for _, p := range board.Sections[name] {
			if string(p.ID) == projectID {
				return p, true
			}
		}
	}
	return nil, false
}
