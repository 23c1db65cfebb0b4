package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// LoadFromEnv overrides fields from <prefix>_HOST, <prefix>_PORT, ... when set.
func (c *DatabaseConfig) LoadFromEnv(prefix string) {
	stringFromEnv(&c.Host, prefix+"_HOST")
	portFromEnv(&c.Port, prefix+"_PORT")
	stringFromEnv(&c.User, prefix+"_USER")
	stringFromEnv(&c.Password, prefix+"_PASSWORD")
	stringFromEnv(&c.Database, prefix+"_NAME")
	stringFromEnv(&c.SSLMode, prefix+"_SSLMODE")
	portFromEnv(&c.MaxConns, prefix+"_MAX_CONNS")
	portFromEnv(&c.MaxIdle, prefix+"_MAX_IDLE")
}

// LoadFromEnv 从 <prefix>_ADDR / _PASSWORD / _DB 覆盖
func (c *RedisConfig) LoadFromEnv(prefix string) {
	stringFromEnv(&c.Addr, prefix+"_ADDR")
	stringFromEnv(&c.Password, prefix+"_PASSWORD")
	if db, ok := intFromEnv(prefix + "_DB"); ok && db >= 0 {
		c.DB = db
	}
}

// LoadFromEnv 从 <prefix>_BROKER / _CLIENT_ID / _USERNAME / _PASSWORD / _QOS 覆盖
func (c *MQTTConfig) LoadFromEnv(prefix string) {
	stringFromEnv(&c.Broker, prefix+"_BROKER")
	stringFromEnv(&c.ClientID, prefix+"_CLIENT_ID")
	stringFromEnv(&c.Username, prefix+"_USERNAME")
	stringFromEnv(&c.Password, prefix+"_PASSWORD")
	if qos, ok := intFromEnv(prefix + "_QOS"); ok && qos >= 0 && qos <= 2 {
		c.QoS = byte(qos)
	}
}

func stringFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// portFromEnv only accepts positive values.
func portFromEnv(dst *int, key string) {
	if v, ok := intFromEnv(key); ok && v > 0 {
		*dst = v
	}
}

func intFromEnv(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
