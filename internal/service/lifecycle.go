package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wisefido-attendance/internal/common/database"
	rediscommon "wisefido-attendance/internal/common/redis"
	"wisefido-attendance/internal/models"
)

// Start 启动服务，阻塞直到 ctx 取消
func (s *AttendanceService) Start(ctx context.Context) error {
	s.logger.Info("Starting attendance service",
		zap.String("trigger_mode", s.config.Attendance.TriggerMode),
		zap.Int("lookback_days", s.config.Attendance.Polling.LookbackDays),
	)

	switch s.config.Attendance.TriggerMode {
	case "polling":
		return s.startPollingMode(ctx)
	case "events":
		return s.startEventDrivenMode(ctx)
	default:
		return fmt.Errorf("unsupported trigger mode: %s", s.config.Attendance.TriggerMode)
	}
}

// startPollingMode 启动轮询模式
func (s *AttendanceService) startPollingMode(ctx context.Context) error {
	interval := time.Duration(s.config.Attendance.Polling.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Starting polling mode",
		zap.Duration("interval", interval),
	)

	// 首次执行一次
	s.recomputeLookback(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.recomputeLookback(ctx)
		}
	}
}

// startEventDrivenMode 启动事件驱动模式
func (s *AttendanceService) startEventDrivenMode(ctx context.Context) error {
	s.logger.Info("Starting event-driven mode")

	if s.eventConsumer == nil {
		return fmt.Errorf("event consumer not initialized")
	}

	// 首次执行一次，补齐启动前遗漏的事件
	s.recomputeLookback(ctx)

	return s.eventConsumer.Start(ctx)
}

// recomputeLookback recomputes the last LookbackDays work dates ending today.
func (s *AttendanceService) recomputeLookback(ctx context.Context) {
	from, to := s.LookbackRange()
	if _, err := s.RunBatch(ctx, from, to); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("Failed to recompute attendance",
			zap.String("from", from.Format(models.WorkDateLayout)),
			zap.String("to", to.Format(models.WorkDateLayout)),
			zap.Error(err),
		)
	}
}

// LookbackRange returns [today - (LookbackDays-1), today] in the service location.
func (s *AttendanceService) LookbackRange() (time.Time, time.Time) {
	days := s.config.Attendance.Polling.LookbackDays
	if days < 1 {
		days = 1
	}
	to := s.dayStart(s.deps.Now())
	return to.AddDate(0, 0, -(days - 1)), to
}

// Stop 停止服务
func (s *AttendanceService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping attendance service")

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	if s.redisClient != nil {
		if err := rediscommon.Close(s.redisClient); err != nil {
			s.logger.Error("Error closing redis connection", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			s.logger.Error("Error closing database connection", zap.Error(err))
		}
	}

	s.logger.Info("Attendance service stopped")
	return nil
}
