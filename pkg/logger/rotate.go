package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RotateConfig 日志文件轮转配置
type RotateConfig struct {
	Filename   string // 日志文件路径
	MaxSize    int    // 单个文件最大大小（MB），按大小轮转
	MaxBackups int    // 保留的旧文件数量，按大小轮转
	MaxAge     int    // 保留天数
	Compress   bool   // 是否压缩旧文件，按大小轮转

	RotationTime time.Duration // 轮转周期，按时间轮转
	LocalTime    bool          // 使用本地时间命名
}

// NewRotateBySize 按文件大小轮转
func NewRotateBySize(cfg *RotateConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  cfg.LocalTime,
	}
}

// NewProductionRotateBySize 常用的按大小轮转配置：100MB、保留 30 天
func NewProductionRotateBySize(filename string) io.Writer {
	return NewRotateBySize(&RotateConfig{
		Filename:   filename,
		MaxSize:    100,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
		LocalTime:  true,
	})
}

// NewRotateByTime 按时间轮转，filename 作为指向最新文件的软链接。
// 创建失败时退回到 stderr。
func NewRotateByTime(cfg *RotateConfig) io.Writer {
	rotation := cfg.RotationTime
	if rotation <= 0 {
		rotation = 24 * time.Hour
	}
	maxAge := time.Duration(cfg.MaxAge) * 24 * time.Hour
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}

	opts := []rotatelogs.Option{
		rotatelogs.WithLinkName(cfg.Filename),
		rotatelogs.WithRotationTime(rotation),
		rotatelogs.WithMaxAge(maxAge),
	}
	if cfg.LocalTime {
		opts = append(opts, rotatelogs.WithClock(rotatelogs.Local))
	} else {
		opts = append(opts, rotatelogs.WithClock(rotatelogs.UTC))
	}

	ext := filepath.Ext(cfg.Filename)
	pattern := cfg.Filename[:len(cfg.Filename)-len(ext)] + ".%Y%m%d%H%M" + ext

	w, err := rotatelogs.New(pattern, opts...)
	if err != nil {
		return os.Stderr
	}
	return w
}
