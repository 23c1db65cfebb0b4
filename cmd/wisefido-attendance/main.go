package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	logpkg "wisefido-attendance/internal/common/logger"
	"wisefido-attendance/internal/config"
	"wisefido-attendance/internal/models"
	"wisefido-attendance/internal/service"
)

// 退出码
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	// -from/-to 指定时执行一次批量计算后退出；-show / -last-run 只读查询；否则按触发模式常驻运行
	from := flag.String("from", "", "First work date to recompute (YYYY-MM-DD), runs once and exits")
	to := flag.String("to", "", "Last work date to recompute (YYYY-MM-DD), defaults to -from")
	show := flag.String("show", "", "Print stored attendance records for one work date (YYYY-MM-DD) and exit")
	lastRun := flag.Bool("last-run", false, "Print the summary of the most recent run and exit")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(exitFailure)
	}

	// 参数校验在连接数据库之前完成
	var fromDate, toDate time.Time
	if *from != "" {
		loc, err := time.LoadLocation(cfg.Attendance.Timezone)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid timezone %s: %v\n", cfg.Attendance.Timezone, err)
			os.Exit(exitFailure)
		}
		fromDate, toDate, err = parseRange(*from, *to, loc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(exitUsage)
		}
	}
	if *show != "" {
		if _, err := time.Parse(models.WorkDateLayout, *show); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -show date %q: %v\n", *show, err)
			os.Exit(exitUsage)
		}
	}

	// 初始化日志
	log, err := logpkg.NewLogger(cfg.Log.Level, cfg.Log.Format, "wisefido-attendance")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(exitFailure)
	}
	defer log.Sync()

	log.Info("Starting wisefido-attendance service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := service.NewAttendanceService(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to create attendance service", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if *from != "" || *show != "" || *lastRun {
		var code int
		switch {
		case *from != "":
			code = runOnce(ctx, cancel, sigChan, svc, log, fromDate, toDate)
		case *show != "":
			code = printResult(log, func() (any, error) { return svc.RecordsForDate(ctx, *show) })
		default:
			code = printResult(log, func() (any, error) { return svc.LastRun(ctx) })
		}
		svc.Stop(context.Background())
		log.Sync()
		os.Exit(code)
	}

	// 启动服务（在 goroutine 中）
	errChan := make(chan error, 1)
	go func() {
		if err := svc.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// 等待信号或错误
	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	case err := <-errChan:
		log.Error("Service error", zap.Error(err))
		cancel()
	}

	if err := svc.Stop(ctx); err != nil {
		log.Error("Error stopping service", zap.Error(err))
	}

	log.Info("Service stopped")
}

// parseRange parses -from/-to as work dates in loc; an empty to means from.
func parseRange(fromStr, toStr string, loc *time.Location) (time.Time, time.Time, error) {
	if toStr == "" {
		toStr = fromStr
	}
	from, err := time.ParseInLocation(models.WorkDateLayout, fromStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -from date %q: %w", fromStr, err)
	}
	to, err := time.ParseInLocation(models.WorkDateLayout, toStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -to date %q: %w", toStr, err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("invalid range: -to " + toStr + " is before -from " + fromStr)
	}
	return from, to, nil
}

func runOnce(ctx context.Context, cancel context.CancelFunc, sigChan <-chan os.Signal, svc *service.AttendanceService, log *zap.Logger, from, to time.Time) int {
	go func() {
		select {
		case sig := <-sigChan:
			log.Info("Received signal, cancelling run", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	summary, err := svc.RunBatch(ctx, from, to)
	if err != nil {
		log.Error("Attendance batch failed", zap.Error(err))
		return exitFailure
	}

	log.Info("Attendance batch finished",
		zap.String("run_id", summary.RunID),
		zap.Int("record_count", summary.RecordCount),
		zap.String("export_path", summary.ExportPath),
	)
	return exitOK
}

// printResult writes the query result to stdout as indented JSON.
func printResult(log *zap.Logger, query func() (any, error)) int {
	result, err := query()
	if err != nil {
		log.Error("Attendance query failed", zap.Error(err))
		return exitFailure
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Error("Failed to encode query result", zap.Error(err))
		return exitFailure
	}
	fmt.Println(string(out))
	return exitOK
}
