package model

import "time"

type TaskID string

// TimeLayout is the second-resolution timestamp format used for every
// temporal field on a task. It has no zone suffix; all times are local.
// Keeping the fields as strings means chronological order is just
// lexicographic order.
const TimeLayout = "2006-01-02T15:04:05"

// DateLayout is the day-resolution format used by the timeline API.
const DateLayout = "2006-01-02"

func FormatTime(t time.Time) string { return t.Format(TimeLayout) }

func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// Task is one line of the board file. Pointer fields are absent when
// nil and omitted from both the file and the API.
type Task struct {
	ID        TaskID `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`

	Created     *string `json:"created,omitempty"`
	Updated     *string `json:"updated,omitempty"`
	InProgress  *string `json:"in_progress,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
	BlockedAt   *string `json:"blocked_at,omitempty"`
	History     *string `json:"history,omitempty"`

	// OrderIndex is the explicit position within an ordered project plan.
	OrderIndex *int `json:"order_index,omitempty"`

	// AssignedProject links a regular task to a project task's ID.
	AssignedProject *string `json:"assigned_project,omitempty"`

	// ColorIndex is set on project tasks only (1..MaxProjectColors).
	ColorIndex *int `json:"color_index,omitempty"`

	// Priority is set on project tasks only: high, medium or paused.
	Priority *string `json:"priority,omitempty"`
}

func StrPtr(s string) *string { return &s }

func IntPtr(n int) *int { return &n }
