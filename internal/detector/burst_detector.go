package detector

import (
	"fmt"
	"sort"
	"time"

	"wisefido-attendance/internal/models"
)

// DetectBursts collapses rapid repeated swipes by the same person into bursts.
// Two consecutive swipes share a burst when their gap is <= thresholdMinutes.
// The result covers all employees, ordered by burst start.
func DetectBursts(swipes []models.SwipeRecord, thresholdMinutes int) []models.BurstRecord {
	if len(swipes) == 0 {
		return []models.BurstRecord{}
	}
	if thresholdMinutes < 0 {
		thresholdMinutes = 0
	}
	threshold := time.Duration(thresholdMinutes) * time.Minute

	groups := make(map[string][]models.SwipeRecord)
	for _, s := range swipes {
		groups[s.EmployeeName] = append(groups[s.EmployeeName], s)
	}

	bursts := make([]models.BurstRecord, 0, len(swipes))
	for _, name := range sortedKeys(groups) {
		bursts = append(bursts, employeeBursts(name, groups[name], threshold)...)
	}

	sort.SliceStable(bursts, func(i, j int) bool {
		return bursts[i].Start.Before(bursts[j].Start)
	})
	return bursts
}

func employeeBursts(name string, swipes []models.SwipeRecord, threshold time.Duration) []models.BurstRecord {
	sorted := make([]models.SwipeRecord, len(swipes))
	copy(sorted, swipes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var out []models.BurstRecord
	current := []models.SwipeRecord{sorted[0]}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Timestamp.Sub(sorted[i-1].Timestamp) <= threshold {
			current = append(current, sorted[i])
			continue
		}
		out = append(out, newBurst(name, len(out), current))
		current = []models.SwipeRecord{sorted[i]}
	}
	return append(out, newBurst(name, len(out), current))
}

func newBurst(name string, seq int, members []models.SwipeRecord) models.BurstRecord {
	start, end := members[0].Timestamp, members[0].Timestamp
	for _, m := range members[1:] {
		if m.Timestamp.Before(start) {
			start = m.Timestamp
		}
		if m.Timestamp.After(end) {
			end = m.Timestamp
		}
	}

	return models.BurstRecord{
		BurstID:      fmt.Sprintf("%s_burst_%d", name, seq),
		EmployeeID:   members[0].EmployeeID,
		EmployeeName: name,
		Start:        start,
		End:          end,
		SwipeCount:   len(members),
		Swipes:       members,
	}
}

// SummarizeBursts reports totals over a burst list.
func SummarizeBursts(bursts []models.BurstRecord) models.BurstStats {
	stats := models.BurstStats{TotalBursts: len(bursts)}
	users := make(map[string]struct{})
	for _, b := range bursts {
		stats.TotalSwipes += b.SwipeCount
		users[b.EmployeeName] = struct{}{}
	}
	stats.UserCount = len(users)
	if stats.TotalBursts > 0 {
		stats.AverageSwipesPerBurst = float64(stats.TotalSwipes) / float64(stats.TotalBursts)
	}
	return stats
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
