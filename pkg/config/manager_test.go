package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junbin-yang/go-fsmkit/pkg/logger"
)

type testConfig struct {
	Logger struct {
		Level string `yaml:"level" json:"level" ini:"level" env:"LOG_LEVEL"`
	} `yaml:"logger" json:"logger" ini:"logger"`
	Player struct {
		EntityID      uint32        `yaml:"entity_id" json:"entity_id" ini:"entity_id"`
		WalkThreshold float64       `yaml:"walk_threshold" json:"walk_threshold" ini:"walk_threshold" env:"WALK_THRESHOLD"`
		TickInterval  time.Duration `yaml:"tick_interval" json:"tick_interval" ini:"tick_interval"`
	} `yaml:"player" json:"player" ini:"player"`
}

const testYAML = `logger:
  level: info
player:
  entity_id: 7
  walk_threshold: 0.1
  tick_interval: 250ms
`

const testJSON = `{
  "logger": {"level": "debug"},
  "player": {"entity_id": 9, "walk_threshold": 0.5}
}`

const testINI = `[logger]
level = warn

[player]
entity_id = 3
walk_threshold = 1.5
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func quietManager[T any](opts ...Option) *Manager[T] {
	return NewManager[T](append([]Option{WithLogger(logger.NewNop())}, opts...)...)
}

// 场景1：YAML（按后缀识别）
func TestManager_LoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fsm.yml", testYAML)

	m := quietManager[testConfig]()
	require.NoError(t, m.Load(path))

	cfg, err := m.Get()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, uint32(7), cfg.Player.EntityID)
	assert.Equal(t, 0.1, cfg.Player.WalkThreshold)
	assert.Equal(t, 250*time.Millisecond, cfg.Player.TickInterval)
	assert.Equal(t, path, m.Path())
}

// 场景2：JSON
func TestManager_LoadJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fsm.json", testJSON)

	m := quietManager[testConfig]()
	require.NoError(t, m.Load(path))

	cfg, _ := m.Get()
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, uint32(9), cfg.Player.EntityID)
}

// 场景3：INI
func TestManager_LoadINI(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fsm.ini", testINI)

	m := quietManager[testConfig]()
	require.NoError(t, m.Load(path))

	cfg, _ := m.Get()
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, 1.5, cfg.Player.WalkThreshold)
}

// 场景4：无后缀文件使用强制格式
func TestManager_ForceFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fsmconfig", testJSON)

	m := quietManager[testConfig](WithForceFormat(&JSONSerializer{}))
	require.NoError(t, m.Load(path))

	cfg, _ := m.Get()
	assert.Equal(t, uint32(9), cfg.Player.EntityID)
}

func TestManager_GetBeforeLoad(t *testing.T) {
	m := quietManager[testConfig]()
	_, err := m.Get()
	assert.Error(t, err)
	assert.Error(t, m.Save())
	assert.Error(t, m.Reload())
}

func TestManager_InvalidPath(t *testing.T) {
	m := quietManager[testConfig]()
	assert.Error(t, m.Load(filepath.Join(t.TempDir(), "missing.yml")))
	assert.Error(t, m.Load(t.TempDir()))
}

func TestManager_UnknownYAMLField(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fsm.yml", "player:\n  speed_limit: 3\n")

	m := quietManager[testConfig]()
	assert.Error(t, m.Load(path))
}

func TestManager_DefaultPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "player.yaml", testYAML)

	m := quietManager[testConfig](
		WithAppName("player"),
		WithDefaultPaths(filepath.Join(dir, "nope", "{{.AppName}}"), filepath.Join(dir, "{{.AppName}}")),
	)
	require.NoError(t, m.Load(""))
	assert.Equal(t, filepath.Join(dir, "player.yaml"), m.Path())

	empty := quietManager[testConfig](WithDefaultPaths(filepath.Join(dir, "none")))
	assert.Error(t, empty.Load(""))
}

func TestManager_EnvOverride(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fsm.yml", testYAML)
	t.Setenv("FSMTEST_LOG_LEVEL", "error")
	t.Setenv("FSMTEST_WALK_THRESHOLD", "0.75")

	m := quietManager[testConfig](WithEnvPrefix("FSMTEST_"))
	require.NoError(t, m.Load(path))

	cfg, _ := m.Get()
	assert.Equal(t, "error", cfg.Logger.Level)
	assert.Equal(t, 0.75, cfg.Player.WalkThreshold)
	assert.Equal(t, uint32(7), cfg.Player.EntityID)
}

func TestManager_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fsm.yml", testYAML)
	envFile := writeFile(t, dir, ".env", "FSMDOTENV_LOG_LEVEL=debug\n")
	t.Cleanup(func() { _ = os.Unsetenv("FSMDOTENV_LOG_LEVEL") })

	m := quietManager[testConfig](
		WithEnvPrefix("FSMDOTENV_"),
		WithEnvFiles(envFile, filepath.Join(dir, "missing.env")),
	)
	require.NoError(t, m.Load(path))

	cfg, _ := m.Get()
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestManager_SaveAndReload(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fsm.yml", testYAML)

	m := quietManager[testConfig]()
	require.NoError(t, m.Load(path))

	cfg, _ := m.Get()
	cfg.Player.WalkThreshold = 0.3
	require.NoError(t, m.Save())

	var calls int
	m.OnChange(func(old, new *testConfig) {
		calls++
		assert.Equal(t, 0.3, old.Player.WalkThreshold)
		assert.Equal(t, 0.3, new.Player.WalkThreshold)
	})
	require.NoError(t, m.Reload())
	assert.Equal(t, 1, calls)

	reloaded, _ := m.Get()
	assert.NotSame(t, cfg, reloaded)
}

func TestManager_Watch(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fsm.yml", testYAML)

	m := quietManager[testConfig](WithConfigWatch(true, 20*time.Millisecond))
	require.NoError(t, m.Load(path))
	defer m.Close()

	var level atomic.Value
	m.OnChange(func(_, new *testConfig) {
		level.Store(new.Logger.Level)
	})

	require.NoError(t, os.WriteFile(path, []byte("logger:\n  level: debug\n"), 0644))

	require.Eventually(t, func() bool {
		v, _ := level.Load().(string)
		return v == "debug"
	}, 3*time.Second, 20*time.Millisecond)

	cfg, _ := m.Get()
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestManager_CloseTwice(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fsm.yml", testYAML)

	m := quietManager[testConfig](WithConfigWatch(true, 0))
	require.NoError(t, m.Load(path))
	m.Close()
	m.Close()
}

// 关闭后再次 Load 不会创建新的 watcher
func TestManager_LoadAfterClose(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fsm.yml", testYAML)

	m := quietManager[testConfig](WithConfigWatch(true, 0))
	require.NoError(t, m.Load(path))
	m.Close()

	err := m.Load(path)
	assert.ErrorIs(t, err, ErrManagerClosed)
	assert.Nil(t, m.watcher)

	// 配置本身仍然更新
	cfg, err := m.Get()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), cfg.Player.EntityID)
}

// 重新加载时 .env 的修改生效，进程原有的环境变量仍然优先
func TestManager_EnvFileReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fsm.yml", testYAML)
	envFile := writeFile(t, dir, ".env", "FSMRELOAD_LOG_LEVEL=debug\nFSMRELOAD_WALK_THRESHOLD=0.2\n")
	t.Setenv("FSMRELOAD_WALK_THRESHOLD", "0.9")
	t.Cleanup(func() { _ = os.Unsetenv("FSMRELOAD_LOG_LEVEL") })

	m := quietManager[testConfig](WithEnvPrefix("FSMRELOAD_"), WithEnvFiles(envFile))
	require.NoError(t, m.Load(path))

	cfg, _ := m.Get()
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 0.9, cfg.Player.WalkThreshold)

	writeFile(t, dir, ".env", "FSMRELOAD_LOG_LEVEL=warn\nFSMRELOAD_WALK_THRESHOLD=0.3\n")
	require.NoError(t, m.Reload())

	cfg, _ = m.Get()
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, 0.9, cfg.Player.WalkThreshold)

	// 从 .env 删除的变量不再生效
	writeFile(t, dir, ".env", "")
	require.NoError(t, m.Reload())

	cfg, _ = m.Get()
	assert.Equal(t, "info", cfg.Logger.Level)
	_, set := os.LookupEnv("FSMRELOAD_LOG_LEVEL")
	assert.False(t, set)
	assert.Equal(t, "0.9", os.Getenv("FSMRELOAD_WALK_THRESHOLD"))
}

func TestReplacePathVars(t *testing.T) {
	got := replacePathVars("{{.ExecDir}}/{{.AppName}}", map[string]string{
		"AppName": "player",
		"ExecDir": "/opt/bin",
	})
	assert.Equal(t, "/opt/bin/player", got)
}

func TestValidateConfigPath(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, validateConfigPath(""))
	assert.Error(t, validateConfigPath(dir))
	assert.Error(t, validateConfigPath(filepath.Join(dir, "missing")))
	assert.NoError(t, validateConfigPath(writeFile(t, dir, "ok.yml", testYAML)))
}

func TestJSONSerializer_UnknownFields(t *testing.T) {
	data := []byte(`{"player": {"entity_id": 2, "speed_limit": 3}}`)

	var strict testConfig
	assert.Error(t, (&JSONSerializer{}).Unmarshal(data, &strict))

	var lenient testConfig
	require.NoError(t, (&JSONSerializer{AllowUnknownFields: true}).Unmarshal(data, &lenient))
	assert.Equal(t, uint32(2), lenient.Player.EntityID)

	assert.Error(t, (&JSONSerializer{}).Unmarshal([]byte(`{} {}`), &strict))
}

func TestJSONSerializer_Indent(t *testing.T) {
	v := map[string]int{"a": 1}

	data, err := (&JSONSerializer{}).Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", string(data))

	data, err = (&JSONSerializer{Indent: "\t"}).Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, "{\n\t\"a\": 1\n}\n", string(data))
}

func TestYAMLSerializer_AllowUnknownFields(t *testing.T) {
	data := []byte("player:\n  entity_id: 4\n  speed_limit: 3\n")

	var cfg testConfig
	require.NoError(t, (&YAMLSerializer{AllowUnknownFields: true}).Unmarshal(data, &cfg))
	assert.Equal(t, uint32(4), cfg.Player.EntityID)
}

func TestSerializerGetName(t *testing.T) {
	assert.Equal(t, "yaml", (&YAMLSerializer{}).GetName())
	assert.Equal(t, "json", (&JSONSerializer{}).GetName())
	assert.Equal(t, "ini", (&INISerializer{}).GetName())
	assert.Equal(t, []string{".yml", ".yaml"}, (&YAMLSerializer{}).GetFileExts())
}
