package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	rediscommon "wisefido-attendance/internal/common/redis"
)

type recomputeCall struct {
	from, to time.Time
}

type fakeRecomputer struct {
	mu    sync.Mutex
	calls []recomputeCall
	err   error
}

func (f *fakeRecomputer) Recompute(ctx context.Context, from, to time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recomputeCall{from: from, to: to})
	return f.err
}

func (f *fakeRecomputer) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeRecomputer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func setupConsumer(t *testing.T, rc Recomputer) (*EventConsumer, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	c := NewEventConsumer(client, rc, zap.NewNop(), Options{
		Stream:       "attendance:events",
		Group:        "attendance-group",
		ConsumerName: "attendance-test",
		BatchSize:    10,
		Block:        -1,
	})
	require.NoError(t, rediscommon.CreateConsumerGroup(context.Background(), client, c.stream, c.groupName))
	return c, client
}

func pendingCount(t *testing.T, c *EventConsumer) int64 {
	p, err := c.redisClient.XPending(context.Background(), c.stream, c.groupName).Result()
	require.NoError(t, err)
	return p.Count
}

func TestConsumeEvents_RecomputesAndAcks(t *testing.T) {
	rc := &fakeRecomputer{}
	c, client := setupConsumer(t, rc)
	ctx := context.Background()

	_, err := rediscommon.PublishJSONToStream(ctx, client, c.stream, AttendanceEvent{
		EventType: EventSwipesImported,
		From:      "2024-03-01",
		To:        "2024-03-03",
	})
	require.NoError(t, err)
	_, err = rediscommon.PublishToStream(ctx, client, c.stream, map[string]interface{}{
		"event_type": EventShiftsChanged,
		"from":       "2024-03-05",
	})
	require.NoError(t, err)

	acked, err := c.consumeEvents(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, acked)
	require.Len(t, rc.calls, 2)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), rc.calls[0].from)
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), rc.calls[0].to)
	assert.Equal(t, rc.calls[1].from, rc.calls[1].to)
	assert.Equal(t, int64(0), pendingCount(t, c))
}

func TestConsumeEvents_InvalidEventIsAckedWithoutRecompute(t *testing.T) {
	rc := &fakeRecomputer{}
	c, client := setupConsumer(t, rc)
	ctx := context.Background()

	_, err := rediscommon.PublishToStream(ctx, client, c.stream, map[string]interface{}{
		"data": "{broken",
	})
	require.NoError(t, err)
	_, err = rediscommon.PublishJSONToStream(ctx, client, c.stream, AttendanceEvent{
		EventType: EventSwipesImported,
		From:      "2024-03-05",
		To:        "2024-03-01",
	})
	require.NoError(t, err)

	acked, err := c.consumeEvents(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, acked)
	assert.Empty(t, rc.calls)
	assert.Equal(t, int64(0), pendingCount(t, c))
}

func TestConsumeEvents_FailedRecomputeIsRetriedFromPending(t *testing.T) {
	rc := &fakeRecomputer{err: errors.New("db down")}
	c, client := setupConsumer(t, rc)
	ctx := context.Background()

	_, err := rediscommon.PublishJSONToStream(ctx, client, c.stream, AttendanceEvent{
		EventType: EventSwipesImported,
		From:      "2024-03-01",
	})
	require.NoError(t, err)

	acked, err := c.consumeEvents(ctx)

	require.Error(t, err)
	assert.Equal(t, 0, acked)
	assert.Equal(t, 1, rc.callCount())
	assert.Equal(t, int64(1), pendingCount(t, c))
	assert.True(t, c.drainPending)

	// 数据库恢复后，未确认的消息被重新处理
	rc.setErr(nil)
	acked, err = c.consumeEvents(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, acked)
	assert.Equal(t, 2, rc.callCount())
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), rc.calls[1].from)
	assert.Equal(t, int64(0), pendingCount(t, c))

	// 待处理列表清空后切回读取新消息
	acked, err = c.consumeEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, acked)
	assert.False(t, c.drainPending)
}

func TestStart_DrainsPendingFromPreviousRun(t *testing.T) {
	rc := &fakeRecomputer{}
	c, client := setupConsumer(t, rc)
	c.block = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := rediscommon.PublishJSONToStream(ctx, client, c.stream, AttendanceEvent{
		EventType: EventShiftsChanged,
		From:      "2024-03-04",
	})
	require.NoError(t, err)

	// 上次运行已投递但未确认
	delivered, err := rediscommon.ReadFromStream(ctx, client, c.stream, c.groupName, c.consumerName, 10, -1)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	require.Equal(t, int64(1), pendingCount(t, c))

	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	assert.Eventually(t, func() bool {
		p, err := client.XPending(context.Background(), c.stream, c.groupName).Result()
		return err == nil && p.Count == 0 && rc.callCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}

func TestConsumeEvents_UnknownTypeAcked(t *testing.T) {
	rc := &fakeRecomputer{}
	c, client := setupConsumer(t, rc)
	ctx := context.Background()

	_, err := rediscommon.PublishJSONToStream(ctx, client, c.stream, AttendanceEvent{
		EventType: "badge.revoked",
		From:      "2024-03-01",
	})
	require.NoError(t, err)

	acked, err := c.consumeEvents(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, acked)
	assert.Empty(t, rc.calls)
}

func TestParseEvent(t *testing.T) {
	event, err := ParseEvent(rediscommon.StreamMessage{Values: map[string]interface{}{
		"data": `{"event_type":"swipes.imported","from":"2024-03-01","source":"gate-7"}`,
	}})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", event.To)
	assert.Equal(t, "gate-7", event.Source)

	_, err = ParseEvent(rediscommon.StreamMessage{Values: map[string]interface{}{"event_type": "swipes.imported"}})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestDateRange_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	from, to, err := AttendanceEvent{From: "2024-03-01", To: "2024-03-02"}.DateRange(loc)

	require.NoError(t, err)
	assert.Equal(t, loc, from.Location())
	assert.Equal(t, 24*time.Hour, to.Sub(from))

	_, _, err = AttendanceEvent{From: "03/01/2024", To: "2024-03-02"}.DateRange(loc)
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestStart_StopsOnCancel(t *testing.T) {
	c, _ := setupConsumer(t, &fakeRecomputer{})
	c.block = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}
