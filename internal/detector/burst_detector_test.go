package detector

import (
	"testing"

	"wisefido-attendance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBursts_EmptyInput(t *testing.T) {
	bursts := DetectBursts(nil, 3)
	require.NotNil(t, bursts)
	assert.Empty(t, bursts)
}

func TestDetectBursts_SingleBurst(t *testing.T) {
	swipes := []models.SwipeRecord{
		swipe("1", "alice", at(1, "06:00:00")),
		swipe("1", "alice", at(1, "06:01:00")),
		swipe("1", "alice", at(1, "06:02:00")),
	}

	bursts := DetectBursts(swipes, 3)

	require.Len(t, bursts, 1)
	assert.Equal(t, 3, bursts[0].SwipeCount)
	assert.Equal(t, at(1, "06:00:00"), bursts[0].Start)
	assert.Equal(t, at(1, "06:02:00"), bursts[0].End)
	assert.Equal(t, "alice_burst_0", bursts[0].BurstID)
	assert.Equal(t, "1", bursts[0].EmployeeID)
}

func TestDetectBursts_GapAboveThresholdStartsNewBurst(t *testing.T) {
	swipes := []models.SwipeRecord{
		swipe("1", "alice", at(1, "06:00:00")),
		swipe("1", "alice", at(1, "06:01:00")),
		swipe("1", "alice", at(1, "06:02:00")),
		swipe("1", "alice", at(1, "08:11:00")),
	}

	bursts := DetectBursts(swipes, 3)

	require.Len(t, bursts, 2)
	assert.Equal(t, "alice_burst_1", bursts[1].BurstID)
	assert.Equal(t, 1, bursts[1].SwipeCount)
	assert.Equal(t, at(1, "08:11:00"), bursts[1].Start)
	assert.Equal(t, bursts[1].Start, bursts[1].End)
}

func TestDetectBursts_BoundaryIsInclusive(t *testing.T) {
	swipes := []models.SwipeRecord{
		swipe("1", "alice", at(1, "06:00:00")),
		swipe("1", "alice", at(1, "06:03:00")), // 恰好等于阈值
		swipe("1", "alice", at(1, "06:06:01")), // 超过阈值 1 秒
	}

	bursts := DetectBursts(swipes, 3)

	require.Len(t, bursts, 2)
	assert.Equal(t, 2, bursts[0].SwipeCount)
	assert.Equal(t, at(1, "06:03:00"), bursts[0].End)
	assert.Equal(t, at(1, "06:06:01"), bursts[1].Start)
}

func TestDetectBursts_UnsortedMultiUser(t *testing.T) {
	swipes := []models.SwipeRecord{
		swipe("2", "bob", at(1, "14:00:30")),
		swipe("1", "alice", at(1, "06:02:00")),
		swipe("2", "bob", at(1, "14:00:00")),
		swipe("1", "alice", at(1, "06:00:00")),
	}

	bursts := DetectBursts(swipes, 3)

	require.Len(t, bursts, 2)
	assert.Equal(t, "alice", bursts[0].EmployeeName)
	assert.Equal(t, at(1, "06:00:00"), bursts[0].Start)
	assert.Equal(t, at(1, "06:02:00"), bursts[0].End)
	assert.Equal(t, "bob", bursts[1].EmployeeName)
	assert.Equal(t, at(1, "14:00:00"), bursts[1].Start)
	assert.Equal(t, at(1, "14:00:30"), bursts[1].End)
	// 成员按时间排序
	assert.Equal(t, at(1, "14:00:00"), bursts[1].Swipes[0].Timestamp)
}

func TestDetectBursts_DoesNotMutateInput(t *testing.T) {
	swipes := []models.SwipeRecord{
		swipe("1", "alice", at(1, "06:02:00")),
		swipe("1", "alice", at(1, "06:00:00")),
	}

	_ = DetectBursts(swipes, 3)

	assert.Equal(t, at(1, "06:02:00"), swipes[0].Timestamp)
}

func TestSummarizeBursts(t *testing.T) {
	swipes := []models.SwipeRecord{
		swipe("1", "alice", at(1, "06:00:00")),
		swipe("1", "alice", at(1, "06:01:00")),
		swipe("1", "alice", at(1, "10:00:00")),
		swipe("2", "bob", at(1, "14:00:00")),
	}

	stats := SummarizeBursts(DetectBursts(swipes, 3))

	assert.Equal(t, 3, stats.TotalBursts)
	assert.Equal(t, 4, stats.TotalSwipes)
	assert.InDelta(t, 4.0/3.0, stats.AverageSwipesPerBurst, 1e-9)
	assert.Equal(t, 2, stats.UserCount)

	assert.Equal(t, models.BurstStats{}, SummarizeBursts(nil))
}
