package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// ==================== LoadFrom 测试 ====================

func TestLoadFrom_WithDefaultValues(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "server:\n  port: 8000\n"))
	require.NoError(t, err)

	assert.Equal(t, "fitness-crm-backend", cfg.Server.Name)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFrom_WithConfigFile(t *testing.T) {
	path := writeConfig(t, `
server:
  name: "desk"
  mode: "release"
  port: 9000
database:
  driver: "sqlite"
  path: "/tmp/desk.db"
business:
  ledger:
    payment_no_prefix: "FIT"
    expiry_window_days: 14
    partial_refund_terminates: false
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "desk", cfg.Server.Name)
	assert.True(t, cfg.IsRelease())
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/desk.db", cfg.Database.DSN())
	assert.Equal(t, "FIT", cfg.Business.Ledger.PaymentNoPrefix)
	assert.Equal(t, 14, cfg.Business.Ledger.ExpiryWindowDays)
	assert.False(t, cfg.Business.Ledger.PartialRefundTerminates)
	// 未覆盖的字段保留默认值
	assert.Equal(t, "RF", cfg.Business.Ledger.RefundNoPrefix)
	assert.EqualValues(t, 3, cfg.Business.Ledger.NumberRetryAttempts)
}

func TestLoadFrom_InvalidDriver(t *testing.T) {
	_, err := LoadFrom(writeConfig(t, "database:\n  driver: \"mysql\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	t.Setenv("FITNESS_BUSINESS_LEDGER_TOP_STAFF_LIMIT", "8")
	t.Setenv("FITNESS_DATABASE_HOST", "db.internal")

	cfg, err := LoadFrom(writeConfig(t, "server:\n  port: 8000\n"))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Business.Ledger.TopStaffLimit)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// ==================== Get 测试 ====================

func TestGet_ReturnsSameInstance(t *testing.T) {
	cfg1 := Get()
	cfg2 := Get()
	require.NotNil(t, cfg1)
	assert.Same(t, cfg1, cfg2)
}

// ==================== DatabaseConfig 测试 ====================

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name   string
		config DatabaseConfig
		want   string
	}{
		{
			name: "postgres",
			config: DatabaseConfig{
				Driver:   DriverPostgres,
				Host:     "localhost",
				Port:     5432,
				User:     "postgres",
				Password: "secret",
				Name:     "fitness",
				SSLMode:  "disable",
				Timezone: "UTC",
			},
			want: "host=localhost port=5432 user=postgres password=secret dbname=fitness sslmode=disable TimeZone=UTC",
		},
		{
			name:   "sqlite",
			config: DatabaseConfig{Driver: DriverSQLite, Path: "./data/fitness.db"},
			want:   "./data/fitness.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.DSN())
		})
	}
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "redis.example.com", Port: 6380}
	assert.Equal(t, "redis.example.com:6380", cfg.Addr())
}

// ==================== 时长换算测试 ====================

func TestDurations(t *testing.T) {
	jwtCfg := JWTConfig{AccessTokenExpire: 12, RefreshTokenExpire: 168}
	assert.Equal(t, 12*time.Hour, jwtCfg.AccessTokenDuration())
	assert.Equal(t, 168*time.Hour, jwtCfg.RefreshTokenDuration())

	rl := RateLimitConfig{Window: 60}
	assert.Equal(t, time.Minute, rl.WindowDuration())

	ledger := DefaultLedgerConfig()
	assert.Equal(t, 20*time.Millisecond, ledger.NumberRetryDelay())
	assert.Equal(t, time.Minute, ledger.StatsCacheDuration())
	assert.Equal(t, 5*time.Minute, ledger.StatsRefreshDuration())
}

// ==================== Validate 测试 ====================

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: DriverPostgres},
			Business: BusinessConfig{Ledger: DefaultLedgerConfig()},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"默认配置合法", func(c *Config) {}, false},
		{"sqlite 缺少路径", func(c *Config) { c.Database.Driver = DriverSQLite }, true},
		{"支付单号前缀为空", func(c *Config) { c.Business.Ledger.PaymentNoPrefix = "" }, true},
		{"重试次数为 0", func(c *Config) { c.Business.Ledger.NumberRetryAttempts = 0 }, true},
		{"到期窗口为负", func(c *Config) { c.Business.Ledger.ExpiryWindowDays = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ==================== 默认值测试 ====================

func TestConfig_ValidateJoinsErrors(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: DriverSQLite}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.path")
	assert.Contains(t, err.Error(), "number_retry_attempts")
}

func TestLedgerConfig_Defaults(t *testing.T) {
	cfg := Get()

	assert.Equal(t, "PAY", cfg.Business.Ledger.PaymentNoPrefix)
	assert.Equal(t, "LCK", cfg.Business.Ledger.LockerNoPrefix)
	assert.Equal(t, 30, cfg.Business.Ledger.ExpiryWindowDays)
	assert.Equal(t, 5, cfg.Business.Ledger.TopStaffLimit)
	assert.True(t, cfg.Business.Ledger.PartialRefundTerminates)
}

func TestConfig_IsDebug(t *testing.T) {
	tests := []struct {
		mode string
		want bool
	}{
		{"debug", true},
		{"release", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := &Config{Server: ServerConfig{Mode: tt.mode}}
			assert.Equal(t, tt.want, cfg.IsDebug())
		})
	}
}
