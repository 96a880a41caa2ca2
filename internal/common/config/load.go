package config

import (
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，如 FITNESS_DATABASE_HOST 覆盖 database.host
const EnvPrefix = "FITNESS"

var (
	mu     sync.Mutex
	loaded *Config
)

// Load 进程内只加载一次，之后返回同一份配置
func Load(path string) (*Config, error) {
	mu.Lock()
	defer mu.Unlock()
	if loaded != nil {
		return loaded, nil
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		return nil, err
	}
	loaded = cfg
	return cfg, nil
}

// LoadFrom 读取 path；path 为空时在 ./configs 与当前目录查找 config.yaml，找不到则只用默认值
func LoadFrom(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Get 已加载的配置，未加载时返回默认配置
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()
	if loaded == nil {
		loaded = new(Config)
		_ = newViper().Unmarshal(loaded)
	}
	return loaded
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	return v
}

// Validate 汇总所有配置错误
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverPostgres:
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, stderrors.New("sqlite 驱动必须配置 database.path"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}

	l := c.Business.Ledger
	if l.PaymentNoPrefix == "" || l.RefundNoPrefix == "" {
		errs = append(errs, stderrors.New("business.ledger 的单号前缀不能为空"))
	}
	if l.NumberRetryAttempts == 0 {
		errs = append(errs, stderrors.New("business.ledger.number_retry_attempts 至少为 1"))
	}
	if l.ExpiryWindowDays < 0 {
		errs = append(errs, stderrors.New("business.ledger.expiry_window_days 不能为负数"))
	}
	return stderrors.Join(errs...)
}
