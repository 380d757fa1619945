package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "inspections")
	t.Setenv("DB_MAX_CONNS", "12")

	cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres"}
	cfg.LoadFromEnv("DB")

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "postgres", cfg.User)
	assert.Equal(t, "inspections", cfg.Database)
	assert.Equal(t, 12, cfg.MaxConns)
}

func TestDatabaseConfig_GetDSN_DefaultsSSLMode(t *testing.T) {
	cfg := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", Database: "d"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", cfg.GetDSN())
}

func TestMQTTConfig_LoadFromEnv_IgnoresInvalidQoS(t *testing.T) {
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("MQTT_QOS", "7")

	cfg := MQTTConfig{QoS: 1}
	cfg.LoadFromEnv("MQTT")

	assert.Equal(t, "tcp://broker:1883", cfg.Broker)
	assert.Equal(t, byte(1), cfg.QoS)
}
