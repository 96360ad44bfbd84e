package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"sigfuse/internal/logger"
)

// Watcher 监听配置文件变更并热加载。
// 只有重新加载且校验通过的配置才会被回调，失败时继续沿用旧配置。
type Watcher struct {
	path     string
	onChange func(*Config)
	watcher  *fsnotify.Watcher
}

// NewWatcher 创建配置监听器，onChange 在新配置通过校验后被调用。
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// 监听目录而不是文件本体，编辑器原子替换会使文件级 watch 失效
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{path: path, onChange: onChange, watcher: fw}, nil
}

// Run 阻塞处理事件直到 ctx 取消。
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				logger.Warnf("[config] reload rejected: %v", err)
				continue
			}
			logger.Infof("[config] reloaded %s", w.path)
			if w.onChange != nil {
				w.onChange(cfg)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("[config] watcher error: %v", err)
		}
	}
}
