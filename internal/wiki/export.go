package wiki

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/burnsbert/crumbwise/internal/model"
	"github.com/burnsbert/crumbwise/internal/project"
	"github.com/burnsbert/crumbwise/internal/section"
)

var urlRe = regexp.MustCompile(`(https?://[^\s]+)`)

// exportOrder is the fixed section layout of the exported page. The
// current quarter, the year archive and the project buckets are
// appended dynamically.
var exportOrder = []string{
	section.DoneThisWeek,
	section.ProblemsToSolve,
	section.ThingsToResearch,
	section.BigOngoing,
	section.FollowUps,
	section.Blocked,
	section.InProgressToday,
	section.TodoThisWeek,
	section.TodoNextWeek,
	section.TodoFollowingWeek,
	section.BacklogHigh,
	section.BacklogMedium,
	section.BacklogLow,
}

// RenderStorage produces the Confluence storage-format HTML for the
// whole board: each section as a heading plus list, projects grouped
// by priority bucket, and the notes file at the end.
func RenderStorage(board *model.Board, notes string, now time.Time) string {
	var parts []string

	appendSection := func(title string, tasks []*model.Task) {
		parts = append(parts, fmt.Sprintf("<h2>%s</h2>", html.EscapeString(title)))
		if len(tasks) == 0 {
			parts = append(parts, "<p><em>(empty)</em></p>")
			return
		}
		parts = append(parts, "<ul>")
		for _, t := range tasks {
			parts = append(parts, fmt.Sprintf("<li>%s</li>", linkify(t.Text)))
		}
		parts = append(parts, "</ul>")
	}

	for _, name := range exportOrder {
		appendSection(name, board.Sections[name])
	}

	// Projects, bucketed by priority.
	buckets := map[string][]*model.Task{}
	for _, p := range board.Sections[section.Projects] {
		prio := project.DefaultPriority
		if p.Priority != nil && project.ValidPriority(*p.Priority) {
			prio = *p.Priority
		}
		buckets[prio] = append(buckets[prio], p)
	}
	appendSection("Projects - High Priority", buckets[project.PriorityHigh])
	appendSection("Projects - Medium Priority", buckets[project.PriorityMedium])
	appendSection("Projects - Paused", buckets[project.PriorityPaused])

	quarter := section.CurrentQuarter(now)
	appendSection(quarter, board.Sections[quarter])
	if tasks, ok := board.Sections["DONE 2025"]; ok {
		appendSection("DONE 2025", tasks)
	}

	parts = append(parts, "<h2>NOTES</h2>")
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		notesHTML := strings.ReplaceAll(linkify(trimmed), "\n", "<br/>")
		parts = append(parts, fmt.Sprintf("<p>%s</p>", notesHTML))
	} else {
		parts = append(parts, "<p><em>(empty)</em></p>")
	}

	return strings.Join(parts, "\n")
}

func linkify(text string) string {
	return urlRe.ReplaceAllString(text, `<a href="$1">$1</a>`)
}
