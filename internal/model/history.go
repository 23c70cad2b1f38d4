package model

import (
	"strings"
	"time"
)

// Lifecycle event kinds recorded in a task's history field. The field
// is a flat string of kind@timestamp entries joined by "|", oldest
// first, so it survives the metadata-comment encoding untouched.
const (
	EventEnteredActive  = "ip"
	EventEnteredBlocked = "bl"
	EventReturnedOpen   = "op"
	EventCompleted      = "co"
)

type HistoryEvent struct {
	Kind string
	At   time.Time
}

// Terminal reports whether the event closes a span without opening a
// new one.
func (e HistoryEvent) Terminal() bool {
	return e.Kind == EventReturnedOpen || e.Kind == EventCompleted
}

// ParseHistory decodes a history string into its valid events.
// Malformed entries (no separator, empty or unparsable timestamp) are
// skipped; hand-edited files must never break the timeline.
func ParseHistory(raw string) []HistoryEvent {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var events []HistoryEvent
	for _, part := range strings.Split(raw, "|") {
		kind, ts, ok := strings.Cut(part, "@")
		if !ok || kind == "" || ts == "" {
			continue
		}
		at, err := ParseTime(ts)
		if err != nil {
			continue
		}
		events = append(events, HistoryEvent{Kind: kind, At: at})
	}
	return events
}

// ParseTime accepts the full timestamp layout or a bare date.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(DateLayout, s)
}

// AppendEvent records a lifecycle event on the task's history.
func (t *Task) AppendEvent(kind string, at time.Time) {
	entry := kind + "@" + FormatTime(at)
	if t.History == nil || *t.History == "" {
		t.History = StrPtr(entry)
		return
	}
	t.History = StrPtr(*t.History + "|" + entry)
}
