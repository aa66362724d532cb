package config

import (
	"time"

	"github.com/spf13/viper"
)

// defaults are the values a bare development checkout runs with
var defaults = map[string]any{
	"app.name": "fixflow",
	"app.env":  "development",
	"app.port": "8080",

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.dbname":             "fixflow",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"jwt.issuer":                  "fixflow",
	"jwt.access_token_expiration": time.Hour,

	"log.level":              "info",
	"log.format":             "console",
	"log.output":             "stdout",
	"log.sql_level":          "warn",
	"log.sql_slow_threshold": 200 * time.Millisecond,

	"http.read_timeout":     15 * time.Second,
	"http.write_timeout":    15 * time.Second,
	"http.idle_timeout":     time.Minute,
	"http.max_header_bytes": 1 << 20,
	"http.request_timeout":  10 * time.Second,
	"http.idempotency_ttl":  24 * time.Hour,

	"invoice.number_prefix": "INV",

	"storage.region": "us-east-1",

	"redis.port": 6379,

	"telemetry.collector_endpoint": "localhost:4317",
	"telemetry.sampling_ratio":     1.0,
	"telemetry.service_name":       "fixflow",
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
