package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"wisefido-attendance/internal/models"
)

const lastRunKey = "attendance:last_run"

// CacheManager 考勤结果缓存（按工作日期分 key）
type CacheManager struct {
	kv     KVStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewCacheManager 创建缓存管理器；ttl <= 0 表示不过期
func NewCacheManager(kv KVStore, ttl time.Duration, logger *zap.Logger) *CacheManager {
	return &CacheManager{
		kv:     kv,
		ttl:    ttl,
		logger: logger,
	}
}

// RecordsKey cache key for one work date
func RecordsKey(workDate string) string {
	return fmt.Sprintf("attendance:records:%s", workDate)
}

// StoreRecords writes one key per date in dates, an empty list for dates
// without records, so that a recompute also clears stale days. Records whose
// date is not listed are cached as well.
func (c *CacheManager) StoreRecords(ctx context.Context, dates []string, records []models.AttendanceRecord) error {
	byDate := make(map[string][]models.AttendanceRecord, len(dates))
	for _, d := range dates {
		byDate[d] = []models.AttendanceRecord{}
	}
	for _, rec := range records {
		byDate[rec.WorkDate] = append(byDate[rec.WorkDate], rec)
	}

	keys := make([]string, 0, len(byDate))
	for d := range byDate {
		keys = append(keys, d)
	}
	sort.Strings(keys)

	for _, date := range keys {
		if err := c.setJSON(ctx, RecordsKey(date), byDate[date]); err != nil {
			return fmt.Errorf("failed to cache records for %s: %w", date, err)
		}
	}

	c.logger.Debug("Updated attendance cache",
		zap.Int("dates", len(keys)),
		zap.Int("records", len(records)),
	)
	return nil
}

// GetRecords returns ErrCacheMiss when the date was never cached or has expired.
func (c *CacheManager) GetRecords(ctx context.Context, workDate string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	if err := c.getJSON(ctx, RecordsKey(workDate), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// StoreLastRun caches the summary of the most recent run.
func (c *CacheManager) StoreLastRun(ctx context.Context, summary any) error {
	if err := c.setJSON(ctx, lastRunKey, summary); err != nil {
		return fmt.Errorf("failed to cache last run: %w", err)
	}
	return nil
}

// GetLastRun decodes the cached summary into out.
func (c *CacheManager) GetLastRun(ctx context.Context, out any) error {
	return c.getJSON(ctx, lastRunKey, out)
}

func (c *CacheManager) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.kv.Set(ctx, key, string(data), c.ttl)
}

func (c *CacheManager) getJSON(ctx context.Context, key string, out any) error {
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}
