package store

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/burnsbert/crumbwise/internal/model"
)

// The board file is plain markdown with an annotation comment per
// task, so it stays readable and editable by hand:
//
//	## TODO THIS WEEK
//
//	- [ ] Ship the thing <!-- id:abc in_progress:2026-02-16T09:00:00 -->

var (
	headerRe = regexp.MustCompile(`^## (.+)$`)
	taskRe   = regexp.MustCompile(`^- \[([ xX])\] (.+)$`)
)

// metadata keys in canonical write order
var metaKeys = []string{
	"id", "created", "updated", "in_progress", "completed_at",
	"blocked_at", "history", "order_index", "assigned", "project",
	"priority",
}

// parseBoard decodes the markdown file. Unknown lines are ignored;
// the file may carry prose between sections without breaking anything.
func parseBoard(content string) *model.Board {
	board := model.NewBoard()
	current := ""

	for _, line := range strings.Split(content, "\n") {
		if m := headerRe.FindStringSubmatch(line); m != nil {
			current = strings.TrimSpace(m[1])
			board.EnsureSection(current)
			continue
		}
		if current == "" {
			continue
		}
		m := taskRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		completed := strings.EqualFold(m[1], "x")
		text, meta := splitMeta(strings.TrimSpace(m[2]))
		t := &model.Task{Text: text, Completed: completed}
		applyMeta(t, meta)
		if t.ID == "" {
			// Stable fallback for hand-written lines: derived from
			// placement and text so re-parsing yields the same ID.
			t.ID = model.TaskID(uuid.NewSHA1(uuid.NameSpaceDNS, []byte(current+":"+text)).String())
		}
		board.Append(current, t)
	}
	return board
}

// splitMeta separates the task text from its trailing annotation
// comment, if any.
func splitMeta(s string) (text string, meta string) {
	open := strings.LastIndex(s, "<!--")
	if open < 0 || !strings.HasSuffix(s, "-->") {
		return s, ""
	}
	meta = strings.TrimSpace(s[open+len("<!--") : len(s)-len("-->")])
	return strings.TrimSpace(s[:open]), meta
}

func applyMeta(t *model.Task, meta string) {
	for _, field := range strings.Fields(meta) {
		key, value, ok := strings.Cut(field, ":")
		if !ok || value == "" {
			continue
		}
		switch key {
		case "id":
			t.ID = model.TaskID(value)
		case "created":
			t.Created = model.StrPtr(value)
		case "updated":
			t.Updated = model.StrPtr(value)
		case "in_progress":
			t.InProgress = model.StrPtr(value)
		case "completed_at":
			t.CompletedAt = model.StrPtr(value)
		case "blocked_at":
			t.BlockedAt = model.StrPtr(value)
		case "history":
			t.History = model.StrPtr(value)
		case "order_index":
			if n, err := strconv.Atoi(value); err == nil {
				t.OrderIndex = model.IntPtr(n)
			}
		case "assigned":
			t.AssignedProject = model.StrPtr(value)
		case "project":
			if n, err := strconv.Atoi(value); err == nil {
				t.ColorIndex = model.IntPtr(n)
			}
		case "priority":
			t.Priority = model.StrPtr(value)
		}
	}
}

func renderBoard(board *model.Board, order []string) string {
	var b strings.Builder
	for _, name := range order {
		b.WriteString("## " + name + "\n\n")
		for _, t := range board.Sections[name] {
			b.WriteString(renderTask(t) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderTask(t *model.Task) string {
	checkbox := " "
	if t.Completed {
		checkbox = "x"
	}
	meta := renderMeta(t)
	if meta == "" {
		return fmt.Sprintf("- [%s] %s", checkbox, t.Text)
	}
	return fmt.Sprintf("- [%s] %s <!-- %s -->", checkbox, t.Text, meta)
}

func renderMeta(t *model.Task) string {
	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, key+":"+value)
		}
	}
	str := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	for _, key := range metaKeys {
		switch key {
		case "id":
			add(key, string(t.ID))
		case "created":
			add(key, str(t.Created))
		case "updated":
			add(key, str(t.Updated))
		case "in_progress":
			add(key, str(t.InProgress))
		case "completed_at":
			add(key, str(t.CompletedAt))
		case "blocked_at":
			add(key, str(t.BlockedAt))
		case "history":
			add(key, str(t.History))
		case "order_index":
			if t.OrderIndex != nil {
				add(key, strconv.Itoa(*t.OrderIndex))
			}
		case "assigned":
			add(key, str(t.AssignedProject))
		case "project":
			if t.ColorIndex != nil {
				add(key, strconv.Itoa(*t.ColorIndex))
			}
		case "priority":
			add(key, str(t.Priority))
		}
	}
	return strings.Join(parts, " ")
}
