// Package project holds the project-specific board rules: priority
// buckets, color allocation and plan ordering.
package project

import (
	"github.com/burnsbert/crumbwise/internal/model"
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityPaused = "paused"

	DefaultPriority = PriorityMedium
)

// MaxColors is the size of the palette project colors are drawn from.
const MaxColors = 16

func ValidPriority(p string) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityPaused:
		return true
	}
	return false
}

// AllocateColor picks a color index for a new project. Preference
// order: a color no project has ever used, then one no active project
// is using, then the least-contended color among active projects.
// Lower indexes win ties, so allocation is deterministic.
func AllocateColor(active, archived []*model.Task) int {
	activeUse := make(map[int]int)
	anyUse := make(map[int]int)
	for _, p := range active {
		if p.ColorIndex != nil {
			activeUse[*p.ColorIndex]++
			anyUse[*p.ColorIndex]++
		}
	}
	for _, p := range archived {
		if p.ColorIndex != nil {
			anyUse[*p.ColorIndex]++
		}
	}

	for c := 1; c <= MaxColors; c++ {
		if anyUse[c] == 0 {
			return c
		}
	}
	for c := 1; c <= MaxColors; c++ {
		if activeUse[c] == 0 {
			return c
		}
	}
	best, bestCount := 1, activeUse[1]
	for c := 2; c <= MaxColors; c++ {
		if activeUse[c] < bestCount {
			best, bestCount = c, activeUse[c]
		}
	}
	return best
}

// NextOrderIndex returns the order index a newly assigned task should
// get: one past the project's highest, or nothing when the project has
// no explicit plan order at all.
func NextOrderIndex(assigned []*model.Task) *int {
	max := -1
	found := false
	for _, t := range assigned {
		if t.OrderIndex != nil {
			found = true
			if *t.OrderIndex > max {
				max = *t.OrderIndex
			}
		}
	}
	if !found {
		return nil
	}
	return model.IntPtr(max + 1)
}
