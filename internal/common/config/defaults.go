package config

// defaults 各配置项默认值，键与 YAML 路径一致
func defaults() map[string]interface{} {
	ledger := DefaultLedgerConfig()
	return map[string]interface{}{
		"server.name":             "fitness-crm-backend",
		"server.mode":             "debug",
		"server.port":             8000,
		"server.read_timeout":     30,
		"server.write_timeout":    30,
		"server.shutdown_timeout": 10,
		"server.max_body_bytes":   1 << 20,

		"database.driver":            DriverPostgres,
		"database.path":              "./data/fitness.db",
		"database.host":              "localhost",
		"database.port":              5432,
		"database.user":              "postgres",
		"database.password":          "postgres",
		"database.name":              "fitness_crm",
		"database.sslmode":           "disable",
		"database.timezone":          "UTC",
		"database.max_idle_conns":    10,
		"database.max_open_conns":    50,
		"database.conn_max_lifetime": 60,
		"database.log_mode":          false,
		"database.slow_threshold":    200,
		"database.auto_migrate":      true,

		"redis.enabled":        false,
		"redis.host":           "localhost",
		"redis.port":           6379,
		"redis.password":       "",
		"redis.db":             0,
		"redis.pool_size":      20,
		"redis.min_idle_conns": 2,
		"redis.dial_timeout":   5,
		"redis.read_timeout":   3,
		"redis.write_timeout":  3,

		"jwt.secret":               "change-me-in-production",
		"jwt.access_token_expire":  12,
		"jwt.refresh_token_expire": 168,
		"jwt.issuer":               "fitness-crm",

		"crypto.bcrypt_cost": 10,

		"logger.level":       "info",
		"logger.format":      "console",
		"logger.output":      "stdout",
		"logger.file_path":   "./logs/app.log",
		"logger.max_size":    100,
		"logger.max_backups": 10,
		"logger.max_age":     30,
		"logger.compress":    true,
		"logger.caller":      true,

		"metrics.enabled":   true,
		"metrics.namespace": "fitness_crm",
		"metrics.path":      "/metrics",

		"tracing.enabled":      false,
		"tracing.service_name": "fitness-crm-backend",
		"tracing.sample_rate":  1.0,

		"ratelimit.enabled": true,
		"ratelimit.limit":   300,
		"ratelimit.window":  60,

		"cors.allowed_origins":   []string{"*"},
		"cors.allowed_methods":   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		"cors.allowed_headers":   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		"cors.exposed_headers":   []string{"X-Request-ID", "X-Trace-ID"},
		"cors.allow_credentials": true,
		"cors.max_age":           86400,

		"business.ledger.payment_no_prefix":         ledger.PaymentNoPrefix,
		"business.ledger.refund_no_prefix":          ledger.RefundNoPrefix,
		"business.ledger.locker_no_prefix":          ledger.LockerNoPrefix,
		"business.ledger.number_retry_attempts":     ledger.NumberRetryAttempts,
		"business.ledger.number_retry_delay_ms":     ledger.NumberRetryDelayMs,
		"business.ledger.expiry_window_days":        ledger.ExpiryWindowDays,
		"business.ledger.top_staff_limit":           ledger.TopStaffLimit,
		"business.ledger.stats_cache_ttl":           ledger.StatsCacheTTL,
		"business.ledger.stats_refresh_interval":    ledger.StatsRefreshInterval,
		"business.ledger.partial_refund_terminates": ledger.PartialRefundTerminates,
	}
}
