package section

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Well-known section names. The board is a fixed set of headed lists;
// only the quarter archives grow over time.
const (
	TodoFollowingWeek = "TODO FOLLOWING WEEK"
	TodoNextWeek      = "TODO NEXT WEEK"
	TodoThisWeek      = "TODO THIS WEEK"
	InProgressToday   = "IN PROGRESS TODAY"
	DoneThisWeek      = "DONE THIS WEEK"
	BigOngoing        = "BIG ONGOING PROJECTS"
	FollowUps         = "FOLLOW UPS"
	Blocked           = "BLOCKED"
	ProblemsToSolve   = "PROBLEMS TO SOLVE"
	ThingsToResearch  = "THINGS TO RESEARCH"
	ResearchInProg    = "RESEARCH IN PROGRESS"
	ResearchDone      = "RESEARCH DONE"
	BacklogHigh       = "BACKLOG HIGH PRIORITY"
	BacklogMedium     = "BACKLOG MEDIUM PRIORITY"
	BacklogLow        = "BACKLOG LOW PRIORITY"
	Projects          = "PROJECTS"
	CompletedProjects = "COMPLETED PROJECTS"
)

// Placement positions a section in the UI and in the saved file.
type Placement struct {
	Tab   string `json:"tab"`
	Order int    `json:"order"`
	Area  string `json:"area,omitempty"`
}

// Config lets deployments override the role lists. Empty fields fall
// back to the defaults, so a zero Config is fully usable.
type Config struct {
	Active       []string `yaml:"active" json:"active"`
	Deactivating []string `yaml:"deactivating" json:"deactivating"`
	Blocked      []string `yaml:"blocked" json:"blocked"`
	Research     []string `yaml:"research" json:"research"`
	Done         []string `yaml:"done" json:"done"`
}

// Table classifies section names into lifecycle roles. It is built
// once at startup and never mutated afterwards, so it is safe to share
// across requests without locking.
type Table struct {
	active       map[string]bool
	deactivating map[string]bool
	blocked      map[string]bool
	research     map[string]bool
	done         map[string]bool
	display      map[string]Placement
}

var doneYearRe = regexp.MustCompile(`^DONE \d{4}$`)

func defaultDisplay() map[string]Placement {
	return map[string]Placement{
		TodoFollowingWeek: {Tab: "current", Order: 0},
		TodoNextWeek:      {Tab: "current", Order: 1},
		TodoThisWeek:      {Tab: "current", Order: 2},
		InProgressToday:   {Tab: "current", Order: 3},
		DoneThisWeek:      {Tab: "current", Order: 4},
		BigOngoing:        {Tab: "current", Order: 0, Area: "secondary"},
		FollowUps:         {Tab: "current", Order: 1, Area: "secondary"},
		Blocked:           {Tab: "current", Order: 2, Area: "secondary"},
		ProblemsToSolve:   {Tab: "research", Order: 1},
		ThingsToResearch:  {Tab: "research", Order: 2},
		ResearchInProg:    {Tab: "research", Order: 3},
		ResearchDone:      {Tab: "research", Order: 4},
		BacklogHigh:       {Tab: "backlog", Order: 0},
		BacklogMedium:     {Tab: "backlog", Order: 1},
		BacklogLow:        {Tab: "backlog", Order: 2},
		Projects:          {Tab: "projects", Order: 0},
		CompletedProjects: {Tab: "projects", Order: 1},
		// High order so current quarters come first.
		"DONE 2025": {Tab: "history", Order: 100},
	}
}

func DefaultConfig() Config {
	return Config{
		Active: []string{InProgressToday},
		Deactivating: []string{
			TodoThisWeek, TodoNextWeek, TodoFollowingWeek,
			BacklogHigh, BacklogMedium, BacklogLow,
			FollowUps,
		},
		Blocked:  []string{Blocked},
		Research: []string{ProblemsToSolve, ThingsToResearch, ResearchInProg, ResearchDone},
		Done:     []string{DoneThisWeek},
	}
}

func NewTable(cfg Config) *Table {
	def := DefaultConfig()
	pick := func(v, fallback []string) []string {
		if len(v) == 0 {
			return fallback
		}
		return v
	}
	return &Table{
		active:       toSet(pick(cfg.Active, def.Active)),
		deactivating: toSet(pick(cfg.Deactivating, def.Deactivating)),
		blocked:      toSet(pick(cfg.Blocked, def.Blocked)),
		research:     toSet(pick(cfg.Research, def.Research)),
		done:         toSet(pick(cfg.Done, def.Done)),
		display:      defaultDisplay(),
	}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func (t *Table) IsActive(name string) bool       { return t.active[name] }
func (t *Table) IsDeactivating(name string) bool { return t.deactivating[name] }
func (t *Table) IsBlocked(name string) bool      { return t.blocked[name] }

// IsResearch reports whether the section is exempt from lifecycle
// timestamping and hidden from the timeline.
func (t *Table) IsResearch(name string) bool { return t.research[name] }

// IsDone matches the static done list plus any quarter or year archive.
// The match is deliberately case-sensitive: "UNDONE Q1 2026" is not an
// archive, and neither is "RESEARCH DONE".
func (t *Table) IsDone(name string) bool {
	if t.done[name] {
		return true
	}
	return strings.HasPrefix(name, "DONE Q") || doneYearRe.MatchString(name)
}

func (t *Table) IsProject(name string) bool { return name == Projects }

func (t *Table) IsProjectHome(name string) bool {
	return name == Projects || name == CompletedProjects
}

// Dynamic returns the display table with the current quarter section
// folded in at the top of the history tab.
func (t *Table) Dynamic(now time.Time) map[string]Placement {
	out := make(map[string]Placement, len(t.display)+1)
	for k, v := range t.display {
		out[k] = v
	}
	q := CurrentQuarter(now)
	if _, ok := out[q]; !ok {
		out[q] = Placement{Tab: "history", Order: 0}
	}
	return out
}

// Known reports whether a section may be written to: anything in the
// display table plus old quarter archives.
func (t *Table) Known(name string, now time.Time) bool {
	if _, ok := t.Dynamic(now)[name]; ok {
		return true
	}
	return strings.HasPrefix(name, "DONE Q")
}

// FileOrder sorts section names into the canonical on-disk order:
// grouped by tab, primary area before secondary, then display order.
// Unknown quarter archives land in history; anything else sinks to the
// end sorted by name.
func (t *Table) FileOrder(names []string, now time.Time) []string {
	dynamic := t.Dynamic(now)
	type key struct {
		tab   string
		area  int
		order int
		name  string
	}
	keyOf := func(s string) key {
		if p, ok := dynamic[s]; ok {
			area := 0
			if p.Area == "secondary" {
				area = 1
			}
			return key{p.Tab, area, p.Order, s}
		}
		if strings.HasPrefix(s, "DONE Q") {
			return key{"history", 0, 50, s}
		}
		return key{"zzz", 0, 0, s}
	}
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := keyOf(sorted[i]), keyOf(sorted[j])
		if a.tab != b.tab {
			return a.tab < b.tab
		}
		if a.area != b.area {
			return a.area < b.area
		}
		if a.order != b.order {
			return a.order < b.order
		}
		return a.name < b.name
	})
	return sorted
}
