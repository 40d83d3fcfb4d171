package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher 基于 fsnotify 监听配置文件变更，重新加载并回调。
// 变更做去抖处理：CooldownTime 内的连续写入合并为窗口收口后的
// 一次重载，编辑器多次落盘不会抖动，最后一次写入也不会丢失。
type Watcher struct {
	Path         string
	CooldownTime time.Duration
}

// Start 阻塞监听直到 ctx 取消；配置变更且校验通过时调用 onUpdate。
// 加载失败只跳过本次更新，不终止监听。
func (w Watcher) Start(ctx context.Context, onUpdate func(AppConfig)) error {
	if w.CooldownTime <= 0 {
		w.CooldownTime = 2 * time.Second
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// 监听目录而非文件：常见的原子替换（写临时文件再 rename）
	// 会使对单个文件的 watch 失效。
	dir := filepath.Dir(w.Path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(w.Path)

	// 去抖定时器：初始停住，首个匹配事件才开表；窗口内的后续事件
	// 只是重置窗口，到期后统一读一次文件。
	debounce := time.NewTimer(w.CooldownTime)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(w.CooldownTime)
		case <-debounce.C:
			cfg, err := LoadWithEnvOverrides(w.Path)
			if err != nil {
				continue
			}
			if onUpdate != nil {
				onUpdate(cfg)
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}
