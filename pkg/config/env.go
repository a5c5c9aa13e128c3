package config

import (
	"errors"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// dotenv 把 .env 文件写入进程环境。
//
// 首次加载时已存在的环境变量优先，不会被覆盖；由 .env 写入的变量
// 记为自有，重新加载时按文件最新内容覆盖，文件中删除的自有变量会被清除。
// 多个文件定义同一变量时靠前的文件生效。
type dotenv struct {
	mu    sync.Mutex
	files []string
	owned map[string]struct{}
}

func newDotenv(files []string) *dotenv {
	return &dotenv{files: files, owned: make(map[string]struct{})}
}

func (d *dotenv) load() error {
	values := make(map[string]string)
	for _, f := range d.files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		m, err := godotenv.Read(f)
		if err != nil {
			return err
		}
		for k, v := range m {
			if _, ok := values[k]; !ok {
				values[k] = v
			}
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for k, v := range values {
		if _, own := d.owned[k]; !own {
			if _, set := os.LookupEnv(k); set {
				continue
			}
			d.owned[k] = struct{}{}
		}
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	for k := range d.owned {
		if _, ok := values[k]; !ok {
			_ = os.Unsetenv(k)
			delete(d.owned, k)
		}
	}
	return nil
}

// applyEnvOverrides 按 `env` 标签用环境变量覆盖配置，未设置的变量不改变原值
func applyEnvOverrides(v interface{}, prefix string) error {
	return env.ParseWithOptions(v, env.Options{Prefix: prefix})
}
