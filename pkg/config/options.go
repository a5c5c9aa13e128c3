package config

import (
	"time"

	"github.com/junbin-yang/go-fsmkit/pkg/logger"
)

// Option 配置管理器选项
type Option func(*options)

type options struct {
	appName       string
	serializer    Serializer   // 无法识别后缀时使用
	forceFormat   Serializer   // 强制格式（优先级最高）
	formats       []Serializer // 支持的格式
	defaultPaths  []string     // 默认查找路径模板
	envFiles      []string     // .env 文件
	envPrefix     string       // 环境变量前缀
	watch         bool
	watchDebounce time.Duration
	log           logger.Logger
}

func defaultOptions() options {
	return options{
		appName:    "app",
		serializer: &YAMLSerializer{},
		formats:    []Serializer{&YAMLSerializer{}, &JSONSerializer{}, &INISerializer{}},
		defaultPaths: []string{
			"./{{.AppName}}",
			"{{.ExecDir}}/{{.AppName}}",
			"/etc/{{.AppName}}",
		},
		watchDebounce: 500 * time.Millisecond,
		log:           logger.Default(),
	}
}

// WithAppName 设置应用名称（用于默认配置文件名）
func WithAppName(name string) Option {
	return func(o *options) {
		o.appName = name
	}
}

// WithSerializer 设置默认序列化器
func WithSerializer(s Serializer) Option {
	return func(o *options) {
		o.serializer = s
	}
}

// WithForceFormat 强制指定配置格式（无视文件后缀）
func WithForceFormat(s Serializer) Option {
	return func(o *options) {
		o.forceFormat = s
	}
}

// WithDefaultPaths 设置默认配置文件查找路径
func WithDefaultPaths(paths ...string) Option {
	return func(o *options) {
		o.defaultPaths = paths
	}
}

// WithConfigFormats 设置支持的配置格式列表
func WithConfigFormats(formats ...Serializer) Option {
	return func(o *options) {
		o.formats = formats
	}
}

// WithEnvFiles 加载配置前读取 .env 文件，不存在的文件会被忽略
func WithEnvFiles(files ...string) Option {
	return func(o *options) {
		o.envFiles = files
	}
}

// WithEnvPrefix 环境变量前缀，例如 "FSM_"
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithConfigWatch 启用配置文件监听（文件变化自动重载）
func WithConfigWatch(enable bool, interval time.Duration) Option {
	return func(o *options) {
		o.watch = enable
		if interval > 0 {
			o.watchDebounce = interval
		}
	}
}

// WithLogger 设置日志实现
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
