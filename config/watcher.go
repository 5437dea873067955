package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
)

// Watch 监听.env文件变化并热重载配置
// 原插件支持Cookie热重载，这里监听配置文件实现同样效果。
// onChange在每次成功重载后收到新配置，返回停止函数。
func Watch(envPath string, onChange func(*Config)) (func() error, error) {
	if envPath == "" {
		envPath = ".env"
	}
	absPath, err := filepath.Abs(envPath)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// 监听目录而非文件本身，编辑器保存往往是rename+create
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		var lastReload time.Time
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				// 简单去抖，部分编辑器一次保存触发多个事件
				if time.Since(lastReload) < time.Second {
					continue
				}
				lastReload = time.Now()
				reloadEnvFile(absPath)
				onChange(Load())
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return watcher.Close, nil
}

// reloadEnvFile 重新读取.env并覆盖进程环境变量
// godotenv.Load不覆盖已有变量，热重载需要Overload语义。
func reloadEnvFile(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Overload(path)
}
