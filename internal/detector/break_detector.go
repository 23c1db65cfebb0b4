package detector

import (
	"sort"
	"time"

	"wisefido-attendance/internal/models"
	"wisefido-attendance/internal/timeofday"
)

// DetectBreak finds the break-out / break-in pair among one shift instance's bursts.
//
// Only bursts touching the break search range are considered. Gaps of at
// least the configured minimum take priority: break-out is the gap start
// closest to the checkpoint, break-in the gap end closest to the break-in
// cutoff, chosen independently. Without a qualifying gap the bursts are split
// around the configured midpoint.
func DetectBreak(bursts []models.BurstRecord, cfg models.ShiftConfig) models.BreakTimes {
	var inWindow []models.BurstRecord
	for _, b := range bursts {
		if cfg.BreakSearch.Contains(timeofday.Of(b.Start)) || cfg.BreakSearch.Contains(timeofday.Of(b.End)) {
			inWindow = append(inWindow, b)
		}
	}
	if len(inWindow) == 0 {
		return models.BreakTimes{}
	}

	sort.SliceStable(inWindow, func(i, j int) bool {
		return inWindow[i].Start.Before(inWindow[j].Start)
	})

	if bt, ok := breakFromGaps(inWindow, cfg); ok {
		return bt
	}
	return breakFromMidpoint(inWindow, cfg)
}

// breakFromGaps ties keep the earliest gap.
func breakFromGaps(bursts []models.BurstRecord, cfg models.ShiftConfig) (models.BreakTimes, bool) {
	minGap := time.Duration(cfg.MinimumBreakGapMins) * time.Minute

	outIdx, inIdx := -1, -1
	var outDist, inDist int
	for i := 0; i+1 < len(bursts); i++ {
		if bursts[i+1].Start.Sub(bursts[i].End) < minGap {
			continue
		}

		d := timeofday.Distance(timeofday.Of(bursts[i].End), cfg.BreakCheckpoint)
		if outIdx < 0 || d < outDist {
			outIdx, outDist = i, d
		}

		d = timeofday.Distance(timeofday.Of(bursts[i+1].Start), cfg.BreakInOnTime)
		if inIdx < 0 || d < inDist {
			inIdx, inDist = i+1, d
		}
	}
	if outIdx < 0 {
		return models.BreakTimes{}, false
	}

	return breakTimes(&bursts[outIdx].End, &bursts[inIdx].Start), true
}

func breakFromMidpoint(bursts []models.BurstRecord, cfg models.ShiftConfig) models.BreakTimes {
	mid := cfg.BreakSearch.Position(cfg.BreakMidpoint)

	var before, after []models.BurstRecord
	for _, b := range bursts {
		if cfg.BreakSearch.Position(timeofday.Of(b.End)) <= mid {
			before = append(before, b)
		} else if cfg.BreakSearch.Position(timeofday.Of(b.Start)) > mid {
			after = append(after, b)
		}
	}

	switch {
	case len(before) > 0 && len(after) > 0:
		return breakTimes(&before[len(before)-1].End, &after[0].Start)
	case len(before) > 0:
		if bt, ok := breakFromGaps(before, cfg); ok {
			return bt
		}
		return breakTimes(&before[len(before)-1].End, nil)
	case len(after) > 0:
		if bt, ok := breakFromGaps(after, cfg); ok {
			return bt
		}
		return breakTimes(nil, &after[0].Start)
	default:
		// 仅有跨越中点的打卡
		return models.BreakTimes{}
	}
}

func breakTimes(out, in *time.Time) models.BreakTimes {
	var bt models.BreakTimes
	if out != nil {
		bt.BreakOut = timeofday.Of(*out).String()
	}
	if in != nil {
		tod := timeofday.Of(*in)
		bt.BreakIn = tod.String()
		bt.BreakInTime = &tod
	}
	return bt
}
