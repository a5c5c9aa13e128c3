package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/junbin-yang/go-fsmkit/pkg/logger"
)

// ErrManagerClosed Close 之后请求监听
var ErrManagerClosed = errors.New("config manager closed")

// Manager 泛型配置管理器，T 为配置结构体类型
type Manager[T any] struct {
	mu         sync.RWMutex
	cfg        *T
	configPath string
	serializer Serializer
	loaded     bool

	opts   options
	dotenv *dotenv

	watcher   *fsnotify.Watcher
	closed    bool
	watchQuit chan struct{}
	closeOnce sync.Once

	callbacks []func(old, new *T)
}

// NewManager 创建配置管理器
func NewManager[T any](opts ...Option) *Manager[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Manager[T]{
		serializer: o.serializer,
		opts:       o,
		dotenv:     newDotenv(o.envFiles),
		watchQuit:  make(chan struct{}),
	}
}

// Load 加载配置文件，path 为空时按默认路径查找。
// 加载顺序：文件 -> .env 文件 -> 环境变量覆盖。
func (m *Manager[T]) Load(path string) error {
	m.mu.Lock()

	if path != "" {
		if err := validateConfigPath(path); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("invalid config path: %w", err)
		}
		m.configPath = path
		m.serializer = m.chooseSerializer(path)
	} else {
		found, s, err := m.findDefaultConfigPath()
		if err != nil {
			m.mu.Unlock()
			return fmt.Errorf("default config not found: %w", err)
		}
		m.configPath = found
		m.serializer = s
	}

	cfg, err := m.decode(m.configPath, m.serializer)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.cfg = cfg
	m.loaded = true
	m.mu.Unlock()

	if m.opts.watch {
		return m.startWatch()
	}
	return nil
}

// Get 返回当前配置，重新加载后返回新的实例
func (m *Manager[T]) Get() (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.loaded {
		return nil, errors.New("config not loaded, call Load first")
	}
	return m.cfg, nil
}

// Path 返回当前配置文件路径
func (m *Manager[T]) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configPath
}

// Save 将当前配置写回文件
func (m *Manager[T]) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded || m.configPath == "" {
		return errors.New("config not loaded")
	}

	data, err := m.serializer.Marshal(m.cfg)
	if err != nil {
		return fmt.Errorf("marshal config failed: %w", err)
	}

	// 先写临时文件再替换，避免写坏原文件
	tmpPath := m.configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp config failed: %w", err)
	}
	if err := os.Rename(tmpPath, m.configPath); err != nil {
		return fmt.Errorf("rename temp config failed: %w", err)
	}
	return nil
}

// Reload 重新读取配置文件并触发变更回调
func (m *Manager[T]) Reload() error {
	m.mu.RLock()
	path, s := m.configPath, m.serializer
	m.mu.RUnlock()

	if path == "" {
		return errors.New("config path not initialized")
	}

	cfg, err := m.decode(path, s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	old := m.cfg
	m.cfg = cfg
	m.loaded = true
	callbacks := make([]func(old, new *T), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	// 回调在锁外执行
	for _, cb := range callbacks {
		cb(old, cfg)
	}
	return nil
}

// OnChange 注册配置变更回调
func (m *Manager[T]) OnChange(cb func(old, new *T)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// Close 停止监听。关闭后开启监听的 Load 仍会更新配置，但返回 ErrManagerClosed 且不再监听。
func (m *Manager[T]) Close() {
	m.closeOnce.Do(func() {
		close(m.watchQuit)
		m.mu.Lock()
		m.closed = true
		if m.watcher != nil {
			_ = m.watcher.Close()
			m.watcher = nil
		}
		m.mu.Unlock()
	})
}

// decode 读取并解析文件，再应用环境变量覆盖
func (m *Manager[T]) decode(path string, s Serializer) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file failed: %w", err)
	}

	cfg := new(T)
	if err := s.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal failed (%s): %w", s.GetName(), err)
	}

	if err := m.dotenv.load(); err != nil {
		return nil, fmt.Errorf("load env files failed: %w", err)
	}
	if err := applyEnvOverrides(cfg, m.opts.envPrefix); err != nil {
		return nil, fmt.Errorf("apply env overrides failed: %w", err)
	}
	return cfg, nil
}

// chooseSerializer 强制格式 > 后缀识别 > 默认
func (m *Manager[T]) chooseSerializer(path string) Serializer {
	if m.opts.forceFormat != nil {
		return m.opts.forceFormat
	}

	ext := filepath.Ext(path)
	for _, format := range m.opts.formats {
		for _, e := range format.GetFileExts() {
			if e == ext {
				return format
			}
		}
	}
	return m.opts.serializer
}

// findDefaultConfigPath 在默认路径模板中查找配置文件
func (m *Manager[T]) findDefaultConfigPath() (string, Serializer, error) {
	execPath, _ := os.Executable()
	execDir := filepath.Dir(execPath)

	for _, tpl := range m.opts.defaultPaths {
		base := replacePathVars(tpl, map[string]string{
			"AppName": m.opts.appName,
			"ExecDir": execDir,
		})

		if err := validateConfigPath(base); err == nil {
			return base, m.chooseSerializer(base), nil
		}

		for _, format := range m.opts.formats {
			for _, ext := range format.GetFileExts() {
				full := base + ext
				if err := validateConfigPath(full); err == nil {
					return full, format, nil
				}
			}
		}
	}

	return "", nil, errors.New("no valid config file found (tried default paths and formats)")
}

// startWatch 监听配置文件所在目录。
// 监听目录而不是文件，编辑器的"写临时文件再重命名"也能被捕获。
func (m *Manager[T]) startWatch() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrManagerClosed
	}
	if m.watcher != nil {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher failed: %w", err)
	}
	if err := w.Add(filepath.Dir(m.configPath)); err != nil {
		_ = w.Close()
		return fmt.Errorf("add watch path failed: %w", err)
	}

	m.watcher = w
	go m.watchLoop(w, filepath.Clean(m.configPath))
	return nil
}

// watchLoop 防抖后自动重新加载
func (m *Manager[T]) watchLoop(w *fsnotify.Watcher, target string) {
	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	log := m.opts.log
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce.Reset(m.opts.watchDebounce)
			}

		case <-debounce.C:
			if err := m.Reload(); err != nil {
				log.Warn("config auto reload failed", logger.Err(err))
			} else {
				log.Info("config auto reloaded", logger.String("path", target))
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Warn("config watch error", logger.Err(err))

		case <-m.watchQuit:
			return
		}
	}
}
