// Package logger 基于 zap 的结构化日志，文件输出经 lumberjack 滚动
package logger

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dumeirei/fitness-crm-backend/internal/common/config"
)

const timeLayout = "2006-01-02 15:04:05.000"

var (
	mu  sync.RWMutex
	log *zap.Logger
)

// Init 按配置替换全局日志器
func Init(cfg *config.LoggerConfig) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	log = l
	mu.Unlock()
	return nil
}

// New 按配置创建日志器。format 为 json 时输出 JSON，否则为彩色控制台格式；
// output 可选 stdout、file、both
func New(cfg *config.LoggerConfig) (*zap.Logger, error) {
	core := zapcore.NewCore(newEncoder(cfg.Format), sinks(cfg), parseLevel(cfg.Level))

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Caller {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(core, opts...), nil
}

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

func sinks(cfg *config.LoggerConfig) zapcore.WriteSyncer {
	stdout := zapcore.Lock(os.Stdout)
	switch cfg.Output {
	case "", "stdout":
		return stdout
	case "both":
		return zapcore.NewMultiWriteSyncer(stdout, rolling(cfg))
	default:
		return rolling(cfg)
	}
}

func rolling(cfg *config.LoggerConfig) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	})
}

// parseLevel 无法识别时为 info
func parseLevel(s string) zapcore.Level {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(s)); err != nil || s == "" {
		return zapcore.InfoLevel
	}
	return lvl
}

// GetLogger 全局日志器，未初始化时退回开发模式
func GetLogger() *zap.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if log == nil {
		log, _ = zap.NewDevelopment()
	}
	return log
}

// Sync 刷新缓冲
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if log == nil {
		return nil
	}
	return log.Sync()
}

// Named 子日志器，按模块命名
func Named(name string) *zap.Logger { return GetLogger().Named(name) }

func skip() *zap.Logger { return GetLogger().WithOptions(zap.AddCallerSkip(1)) }

// Info 全局 info 日志
func Info(msg string, fields ...zap.Field) { skip().Info(msg, fields...) }

// Warn 全局 warn 日志
func Warn(msg string, fields ...zap.Field) { skip().Warn(msg, fields...) }

// Error 全局 error 日志
func Error(msg string, fields ...zap.Field) { skip().Error(msg, fields...) }

// 业务字段

func RequestID(id string) zap.Field { return zap.String("request_id", id) }
func StaffID(id int64) zap.Field { return zap.Int64("staff_id", id) }
func MemberID(id int64) zap.Field { return zap.Int64("member_id", id) }
func PaymentID(id int64) zap.Field { return zap.Int64("payment_id", id) }
func PaymentNo(no string) zap.Field { return zap.String("payment_no", no) }
func RefundID(id int64) zap.Field { return zap.Int64("refund_id", id) }
func Elapsed(d time.Duration) zap.Field { return zap.Duration("elapsed", d) }
