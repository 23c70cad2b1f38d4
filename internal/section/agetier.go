package section

import (
	"strconv"
	"strings"
)

// AgeTier maps a section name to a coarse chronological rank, oldest
// first: year archives, then quarter archives, then the live board
// from done back out to future planning. It drives the fallback sort
// for project timelines when tasks carry no explicit order.
func AgeTier(name string) (int, int) {
	name = strings.ToUpper(name)
	if strings.HasPrefix(name, "DONE 20") {
		parts := strings.Fields(name)
		year, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			return 0, 9999
		}
		return 0, year
	}
	if strings.HasPrefix(name, "DONE Q") {
		parts := strings.Fields(name)
		if len(parts) >= 3 && len(parts[1]) >= 2 {
			year, errY := strconv.Atoi(parts[2])
			q, errQ := strconv.Atoi(parts[1][1:2])
			if errY == nil && errQ == nil {
				return 1, year*10 + q
			}
		}
		return 1, 99999
	}
	switch name {
	case CompletedProjects:
		return 2, 0
	case DoneThisWeek, ResearchDone:
		return 3, 0
	case InProgressToday, ResearchInProg:
		return 4, 0
	case TodoThisWeek:
		return 5, 0
	case TodoNextWeek:
		return 6, 0
	case TodoFollowingWeek:
		return 7, 0
	}
	return 8, 0
}
