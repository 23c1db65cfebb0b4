package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"wisefido-attendance/internal/common/config"
)

// Config 考勤服务配置
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	Attendance struct {
		// 班次配置文件（YAML），为空时使用内置 A/B/C 班次
		ShiftConfigPath string

		// 打卡时间与工作日期按此时区解释，如 "Asia/Shanghai"
		Timezone string

		// 同一员工两次打卡间隔 <= 阈值（分钟）视为同一次打卡
		BurstThresholdMinutes int

		// 触发方式：polling（轮询）、events（Redis Streams 事件驱动）
		TriggerMode string

		Polling struct {
			Interval     int // 轮询间隔（秒），默认 300 秒
			LookbackDays int // 每次重算最近 N 天，默认 2 天
		}

		EventStream   string // 事件流名称，如 "attendance:events"
		ConsumerGroup string
		ConsumerName  string
		BatchSize     int

		CacheTTL  time.Duration
		ExportDir string // 非空时每次运行导出 xlsx

		// 上游过滤
		AllowedStatuses []string // 例如 "Success"；为空表示不过滤
		Employees       []string // 员工姓名白名单；为空表示不过滤
	}

	Dashboard struct {
		Enabled bool
		URL     string
		Timeout time.Duration
	}

	Notify struct {
		MQTTEnabled bool
		MQTTTopic   string
		// 每次运行结束向该 stream 发布 attendance.computed 事件
		ResultStreamEnabled bool
		ResultStream        string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = 5432
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "owlrd")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = 10
	cfg.Database.MaxIdle = 5
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "wisefido-attendance")
	cfg.MQTT.QoS = 1
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Attendance.ShiftConfigPath = getEnv("ATTENDANCE_SHIFT_CONFIG", "")
	cfg.Attendance.Timezone = getEnv("ATTENDANCE_TIMEZONE", "UTC")
	cfg.Attendance.BurstThresholdMinutes = getEnvNonNegativeInt("ATTENDANCE_BURST_THRESHOLD_MINUTES", 3)
	cfg.Attendance.TriggerMode = getEnv("ATTENDANCE_TRIGGER_MODE", "polling")
	cfg.Attendance.Polling.Interval = getEnvInt("ATTENDANCE_POLLING_INTERVAL", 300)
	cfg.Attendance.Polling.LookbackDays = getEnvInt("ATTENDANCE_LOOKBACK_DAYS", 2)
	cfg.Attendance.EventStream = getEnv("ATTENDANCE_EVENT_STREAM", "attendance:events")
	cfg.Attendance.ConsumerGroup = getEnv("ATTENDANCE_CONSUMER_GROUP", "attendance-group")
	cfg.Attendance.ConsumerName = getEnv("ATTENDANCE_CONSUMER_NAME", "attendance-1")
	cfg.Attendance.BatchSize = getEnvInt("ATTENDANCE_BATCH_SIZE", 10)
	cfg.Attendance.CacheTTL = time.Duration(getEnvNonNegativeInt("ATTENDANCE_CACHE_TTL", 86400)) * time.Second
	cfg.Attendance.ExportDir = getEnv("ATTENDANCE_EXPORT_DIR", "")
	cfg.Attendance.AllowedStatuses = splitList(getEnv("ATTENDANCE_ALLOWED_STATUSES", ""))
	cfg.Attendance.Employees = splitList(getEnv("ATTENDANCE_EMPLOYEES", ""))

	cfg.Dashboard.Enabled = getEnv("DASHBOARD_ENABLED", "false") == "true"
	cfg.Dashboard.URL = getEnv("DASHBOARD_URL", "http://localhost:8080")
	cfg.Dashboard.Timeout = time.Duration(getEnvInt("DASHBOARD_TIMEOUT", 10)) * time.Second

	cfg.Notify.MQTTEnabled = getEnv("ATTENDANCE_MQTT_ENABLED", "false") == "true"
	cfg.Notify.MQTTTopic = getEnv("ATTENDANCE_MQTT_TOPIC", "attendance/runs")
	cfg.Notify.ResultStreamEnabled = getEnv("ATTENDANCE_RESULT_STREAM_ENABLED", "true") == "true"
	cfg.Notify.ResultStream = getEnv("ATTENDANCE_RESULT_STREAM", "attendance:results")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt 非法或非正数时回退默认值
func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

// getEnvNonNegativeInt 允许 0：阈值 0 只合并同一秒的打卡，TTL 0 表示不过期
func getEnvNonNegativeInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil && v >= 0 {
		return v
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
