package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"wisefido-attendance/internal/cache"
	"wisefido-attendance/internal/common/database"
	"wisefido-attendance/internal/common/mqtt"
	rediscommon "wisefido-attendance/internal/common/redis"
	"wisefido-attendance/internal/config"
	"wisefido-attendance/internal/consumer"
	"wisefido-attendance/internal/export"
	"wisefido-attendance/internal/models"
	"wisefido-attendance/internal/notify"
	"wisefido-attendance/internal/pipeline"
	"wisefido-attendance/internal/repository"
)

// ErrNoRecords 本次运行没有生成任何考勤记录（非致命）
var ErrNoRecords = errors.New("no attendance records generated")

// SwipeSource 打卡数据来源
type SwipeSource interface {
	ListSwipes(ctx context.Context, from, to time.Time) ([]models.SwipeRecord, []string, error)
}

// AttendanceStore 考勤结果持久化
type AttendanceStore interface {
	ReplaceRange(ctx context.Context, runID, from, to string, records []models.AttendanceRecord) error
	ListByWorkDate(ctx context.Context, workDate string) ([]models.AttendanceRecord, error)
}

// RecordCache 考勤结果缓存
type RecordCache interface {
	StoreRecords(ctx context.Context, dates []string, records []models.AttendanceRecord) error
	GetRecords(ctx context.Context, workDate string) ([]models.AttendanceRecord, error)
	StoreLastRun(ctx context.Context, summary any) error
	GetLastRun(ctx context.Context, out any) error
}

// Dependencies collaborators of AttendanceService; Store, Cache and Notifiers are optional.
type Dependencies struct {
	Swipes    SwipeSource
	Store     AttendanceStore
	Cache     RecordCache
	Notifiers []notify.Notifier
	Shifts    models.ShiftTable
	Location  *time.Location
	NewRunID  func() string
	Now       func() time.Time
}

// AttendanceService 考勤计算服务
type AttendanceService struct {
	config *config.Config
	logger *zap.Logger
	deps   Dependencies

	db            *sql.DB
	redisClient   *redis.Client
	mqttClient    *mqtt.Client
	eventConsumer *consumer.EventConsumer

	allowedStatuses map[string]bool
	employees       map[string]bool

	runMu sync.Mutex // 同一时间只允许一次批量计算
}

// NewAttendanceService 创建考勤服务并连接数据库、Redis 及可选的 MQTT
func NewAttendanceService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*AttendanceService, error) {
	loc, err := time.LoadLocation(cfg.Attendance.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", cfg.Attendance.Timezone, err)
	}

	shifts, err := config.LoadShiftTable(cfg.Attendance.ShiftConfigPath)
	if err != nil {
		return nil, err
	}

	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	redisClient, err := rediscommon.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		database.Close(db)
		return nil, err
	}

	deps := Dependencies{
		Swipes:   repository.NewSwipeRepository(db, logger),
		Store:    repository.NewAttendanceRepository(db, logger),
		Cache:    cache.NewCacheManager(cache.NewRedisKVStore(redisClient), cfg.Attendance.CacheTTL, logger),
		Shifts:   shifts,
		Location: loc,
	}

	if cfg.Dashboard.Enabled {
		deps.Notifiers = append(deps.Notifiers, notify.NewDashboardClient(cfg.Dashboard.URL, cfg.Dashboard.Timeout, logger))
	}

	if cfg.Notify.ResultStreamEnabled {
		deps.Notifiers = append(deps.Notifiers, notify.NewStreamNotifier(redisClient, cfg.Notify.ResultStream, logger))
	}

	var mqttClient *mqtt.Client
	if cfg.Notify.MQTTEnabled {
		mqttClient, err = mqtt.NewClient(&cfg.MQTT, logger)
		if err != nil {
			rediscommon.Close(redisClient)
			database.Close(db)
			return nil, err
		}
		deps.Notifiers = append(deps.Notifiers, notify.NewMQTTNotifier(mqttClient, cfg.Notify.MQTTTopic, logger))
	}

	s := NewAttendanceServiceWithDeps(cfg, logger, deps)
	s.db = db
	s.redisClient = redisClient
	s.mqttClient = mqttClient

	if cfg.Attendance.TriggerMode == "events" {
		s.eventConsumer = consumer.NewEventConsumer(redisClient, s, logger, consumer.Options{
			Stream:       cfg.Attendance.EventStream,
			Group:        cfg.Attendance.ConsumerGroup,
			ConsumerName: cfg.Attendance.ConsumerName,
			BatchSize:    int64(cfg.Attendance.BatchSize),
			Block:        5 * time.Second,
			Location:     loc,
		})
	}

	logger.Info("Attendance service initialized",
		zap.Strings("shift_codes", shifts.Codes()),
		zap.String("timezone", loc.String()),
		zap.Int("notifiers", len(deps.Notifiers)),
	)

	return s, nil
}

// NewAttendanceServiceWithDeps builds the service around explicit collaborators.
func NewAttendanceServiceWithDeps(cfg *config.Config, logger *zap.Logger, deps Dependencies) *AttendanceService {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.NewRunID == nil {
		deps.NewRunID = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Shifts == nil {
		deps.Shifts = config.DefaultShiftTable()
	}

	return &AttendanceService{
		config:          cfg,
		logger:          logger,
		deps:            deps,
		allowedStatuses: toSet(cfg.Attendance.AllowedStatuses, strings.ToLower),
		employees:       toSet(cfg.Attendance.Employees, nil),
	}
}

// RunBatch recomputes attendance for work dates in [from, to] (dates in the
// service location, time of day ignored).
//
// Swipes are loaded from the day before from through the day after to so that
// night shifts crossing either boundary are assigned correctly; only records
// whose work date falls inside the range are kept.
func (s *AttendanceService) RunBatch(ctx context.Context, from, to time.Time) (*models.RunSummary, error) {
	from, to = s.dayStart(from), s.dayStart(to)
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: %s before %s", to.Format(models.WorkDateLayout), from.Format(models.WorkDateLayout))
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	summary := &models.RunSummary{
		RunID:     s.deps.NewRunID(),
		From:      from.Format(models.WorkDateLayout),
		To:        to.Format(models.WorkDateLayout),
		StartedAt: s.deps.Now(),
	}
	logger := s.logger.With(zap.String("run_id", summary.RunID))

	// 1. 加载打卡数据
	swipes, warnings, err := s.deps.Swipes.ListSwipes(ctx, from.AddDate(0, 0, -1), to.AddDate(0, 0, 2))
	if err != nil {
		return nil, fmt.Errorf("failed to load swipes: %w", err)
	}
	summary.SwipeCount = len(swipes)
	summary.Warnings = append(summary.Warnings, warnings...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2. 上游过滤
	swipes = s.filterSwipes(swipes)
	summary.Filtered = summary.SwipeCount - len(swipes)

	// 3. 计算
	result := pipeline.Run(swipes, s.deps.Shifts, pipeline.Options{
		BurstThresholdMinutes: s.config.Attendance.BurstThresholdMinutes,
	})
	records := inRange(result.Records, summary.From, summary.To)

	summary.BurstStats = result.BurstStats
	summary.ShiftCount = len(result.Instances)
	summary.OrphanCount = len(result.Orphans)
	summary.RecordCount = len(records)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 4. 持久化、缓存、导出；没有记录时保留已有结果
	if len(records) == 0 {
		logger.Info(ErrNoRecords.Error(),
			zap.String("from", summary.From),
			zap.String("to", summary.To),
			zap.Int("swipe_count", summary.SwipeCount),
		)
		summary.Warnings = append(summary.Warnings, ErrNoRecords.Error())
	} else {
		if s.deps.Store != nil {
			if err := s.deps.Store.ReplaceRange(ctx, summary.RunID, summary.From, summary.To, records); err != nil {
				return nil, fmt.Errorf("failed to persist attendance records: %w", err)
			}
		}
		if s.deps.Cache != nil {
			if err := s.deps.Cache.StoreRecords(ctx, workDates(from, to), records); err != nil {
				logger.Warn("Failed to cache attendance records", zap.Error(err))
				summary.Warnings = append(summary.Warnings, err.Error())
			}
		}
		if dir := s.config.Attendance.ExportDir; dir != "" {
			name := fmt.Sprintf("attendance_%s_%s_%s", summary.From, summary.To, summary.RunID)
			path, err := export.WriteFile(dir, name, records)
			if err != nil {
				logger.Warn("Failed to export attendance workbook", zap.Error(err))
				summary.Warnings = append(summary.Warnings, err.Error())
			} else {
				summary.ExportPath = path
			}
		}
	}

	summary.FinishedAt = s.deps.Now()

	// 5. 通知（失败不影响本次结果）
	if s.deps.Cache != nil {
		if err := s.deps.Cache.StoreLastRun(ctx, summary); err != nil {
			logger.Warn("Failed to cache run summary", zap.Error(err))
		}
	}
	s.publish(ctx, logger, summary, records)

	logger.Info("Attendance batch completed",
		zap.String("from", summary.From),
		zap.String("to", summary.To),
		zap.Int("swipe_count", summary.SwipeCount),
		zap.Int("filtered", summary.Filtered),
		zap.Int("burst_count", summary.BurstStats.TotalBursts),
		zap.Int("shift_count", summary.ShiftCount),
		zap.Int("orphan_count", summary.OrphanCount),
		zap.Int("record_count", summary.RecordCount),
		zap.Int("warning_count", len(summary.Warnings)),
	)

	return summary, nil
}

// Recompute lets the event consumer trigger a batch.
func (s *AttendanceService) Recompute(ctx context.Context, from, to time.Time) error {
	_, err := s.RunBatch(ctx, from, to)
	return err
}

// RecordsForDate serves one work date from the cache and falls back to the
// store on a miss or a cache error.
func (s *AttendanceService) RecordsForDate(ctx context.Context, workDate string) ([]models.AttendanceRecord, error) {
	if s.deps.Cache != nil {
		records, err := s.deps.Cache.GetRecords(ctx, workDate)
		if err == nil {
			return records, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Failed to read attendance cache",
				zap.String("work_date", workDate),
				zap.Error(err),
			)
		}
	}
	if s.deps.Store == nil {
		return nil, fmt.Errorf("no attendance store configured")
	}

	records, err := s.deps.Store.ListByWorkDate(ctx, workDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance records: %w", err)
	}
	return records, nil
}

// LastRun returns the cached summary of the most recent run, or
// cache.ErrCacheMiss when there is none.
func (s *AttendanceService) LastRun(ctx context.Context) (*models.RunSummary, error) {
	if s.deps.Cache == nil {
		return nil, cache.ErrCacheMiss
	}
	var summary models.RunSummary
	if err := s.deps.Cache.GetLastRun(ctx, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *AttendanceService) publish(ctx context.Context, logger *zap.Logger, summary *models.RunSummary, records []models.AttendanceRecord) {
	successCount := 0
	errorCount := 0
	for _, n := range s.deps.Notifiers {
		if err := n.Notify(ctx, summary, records); err != nil {
			logger.Error("Failed to notify run result",
				zap.String("notifier", fmt.Sprintf("%T", n)),
				zap.Error(err),
			)
			summary.Warnings = append(summary.Warnings, err.Error())
			errorCount++
			continue
		}
		successCount++
	}
	if len(s.deps.Notifiers) > 0 {
		logger.Debug("Published run result",
			zap.Int("success_count", successCount),
			zap.Int("error_count", errorCount),
		)
	}
}

// filterSwipes moves timestamps into the service location and drops swipes
// outside the status and employee allow-lists.
func (s *AttendanceService) filterSwipes(swipes []models.SwipeRecord) []models.SwipeRecord {
	out := make([]models.SwipeRecord, 0, len(swipes))
	for _, sw := range swipes {
		if len(s.allowedStatuses) > 0 && !s.allowedStatuses[strings.ToLower(strings.TrimSpace(sw.Status))] {
			continue
		}
		if len(s.employees) > 0 && !s.employees[sw.EmployeeName] {
			continue
		}
		sw.Timestamp = sw.Timestamp.In(s.deps.Location)
		out = append(out, sw)
	}
	return out
}

func (s *AttendanceService) dayStart(t time.Time) time.Time {
	y, m, d := t.In(s.deps.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.deps.Location)
}

func workDates(from, to time.Time) []string {
	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(models.WorkDateLayout))
	}
	return dates
}

func inRange(records []models.AttendanceRecord, from, to string) []models.AttendanceRecord {
	out := make([]models.AttendanceRecord, 0, len(records))
	for _, rec := range records {
		if rec.WorkDate >= from && rec.WorkDate <= to {
			out = append(out, rec)
		}
	}
	return out
}

func toSet(values []string, norm func(string) string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if norm != nil {
			v = norm(v)
		}
		set[v] = true
	}
	return set
}
