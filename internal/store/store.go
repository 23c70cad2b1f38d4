// Package store persists the board as an annotated markdown file plus
// a handful of sidecar files (undo snapshot, free-form notes). The
// whole file is re-read and re-written on every operation; the file is
// small and the owner is a single person, so simplicity wins over
// incremental I/O.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/burnsbert/crumbwise/internal/clock"
	"github.com/burnsbert/crumbwise/internal/model"
	"github.com/burnsbert/crumbwise/internal/project"
	"github.com/burnsbert/crumbwise/internal/section"
)

const (
	tasksFile = "tasks.md"
	undoFile  = "tasks.md.undo"
	notesFile = "notes.txt"
)

var ErrNoUndo = errors.New("no undo snapshot")

type Store struct {
	mu       sync.Mutex
	dir      string
	sections *section.Table
	clock    clock.Clock
}

func New(dir string, sections *section.Table, clk clock.Clock) *Store {
	return &Store{dir: dir, sections: sections, clock: clk}
}

func (s *Store) tasksPath() string { return filepath.Join(s.dir, tasksFile) }
func (s *Store) undoPath() string  { return filepath.Join(s.dir, undoFile) }
func (s *Store) notesPath() string { return filepath.Join(s.dir, notesFile) }

// Load reads the board, creating a skeleton file on first run. Every
// known section is guaranteed to exist afterwards, and projects
// missing a priority are migrated to medium on disk.
func (s *Store) Load() (*model.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFileLocked(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.tasksPath())
	if err != nil {
		return nil, fmt.Errorf("read tasks file: %w", err)
	}
	board := parseBoard(string(raw))

	now := s.clock.Now()
	for name := range s.sections.Dynamic(now) {
		board.EnsureSection(name)
	}

	if s.migratePriorities(board) {
		if err := s.saveLocked(board); err != nil {
			return nil, err
		}
	}
	return board, nil
}

func (s *Store) Save(board *model.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(board)
}

func (s *Store) saveLocked(board *model.Board) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	order := s.sections.FileOrder(sectionNames(board), s.clock.Now())
	content := renderBoard(board, order)
	if err := os.WriteFile(s.tasksPath(), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write tasks file: %w", err)
	}
	return nil
}

func sectionNames(board *model.Board) []string {
	names := make([]string, 0, len(board.Order))
	names = append(names, board.Order...)
	return names
}

func (s *Store) ensureFileLocked() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if _, err := os.Stat(s.tasksPath()); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	board := model.NewBoard()
	for name := range s.sections.Dynamic(s.clock.Now()) {
		board.EnsureSection(name)
	}
	return s.saveLocked(board)
}

func (s *Store) migratePriorities(board *model.Board) bool {
	changed := false
	for _, name := range []string{section.Projects, section.CompletedProjects} {
		for _, t := range board.Sections[name] {
			if t.Priority == nil {
				t.Priority = model.StrPtr(project.DefaultPriority)
				changed = true
			}
		}
	}
	return changed
}

// SnapshotUndo saves the current file so the next week rollover can be
// reverted. Only one snapshot is kept.
func (s *Store) SnapshotUndo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.tasksPath())
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := os.WriteFile(s.undoPath(), raw, 0o644); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

// RestoreUndo swaps the snapshot back in and consumes it.
func (s *Store) RestoreUndo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.undoPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNoUndo
		}
		return fmt.Errorf("restore: %w", err)
	}
	if err := os.WriteFile(s.tasksPath(), raw, 0o644); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	return os.Remove(s.undoPath())
}

// ClearUndo drops the snapshot. Called after every ordinary mutation:
// undo is only offered while the rollover is the latest change.
func (s *Store) ClearUndo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = os.Remove(s.undoPath())
}

func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := os.Stat(s.undoPath())
	return err == nil
}

func (s *Store) Notes() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.notesPath())
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read notes: %w", err)
	}
	return string(raw), nil
}

func (s *Store) SaveNotes(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(s.notesPath(), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write notes: %w", err)
	}
	return nil
}
