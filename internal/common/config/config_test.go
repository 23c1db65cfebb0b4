package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_GetDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "owlrd", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=owlrd sslmode=disable", c.GetDSN())
}

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("PG_HOST", "pg.internal")
	t.Setenv("PG_PORT", "6543")
	t.Setenv("PG_NAME", "attendance")
	t.Setenv("PG_MAX_CONNS", "not-a-number")

	c := DatabaseConfig{Host: "localhost", Port: 5432, Database: "owlrd", MaxConns: 4}
	c.LoadFromEnv("PG")

	assert.Equal(t, "pg.internal", c.Host)
	assert.Equal(t, 6543, c.Port)
	assert.Equal(t, "attendance", c.Database)
	// 非法数字保持原值
	assert.Equal(t, 4, c.MaxConns)
}

func TestMQTTConfig_LoadFromEnv_QoSBounds(t *testing.T) {
	t.Setenv("BROKER_QOS", "5")
	c := MQTTConfig{QoS: 1}
	c.LoadFromEnv("BROKER")
	assert.Equal(t, byte(1), c.QoS)

	t.Setenv("BROKER_QOS", "2")
	c.LoadFromEnv("BROKER")
	assert.Equal(t, byte(2), c.QoS)
}

func TestRedisConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("CACHE_ADDR", "redis:6380")
	t.Setenv("CACHE_DB", "3")
	c := RedisConfig{Addr: "localhost:6379"}
	c.LoadFromEnv("CACHE")
	assert.Equal(t, "redis:6380", c.Addr)
	assert.Equal(t, 3, c.DB)
	assert.Equal(t, "", c.Password)
}
