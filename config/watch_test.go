package config

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	path := writeTempConfig(t, validYAML)

	updates := make(chan AppConfig, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w := Watcher{Path: path, CooldownTime: time.Millisecond}
	done := make(chan error, 1)
	go func() {
		done <- w.Start(ctx, func(cfg AppConfig) {
			select {
			case updates <- cfg:
			default:
			}
		})
	}()

	// 等监听就绪后改写配置
	time.Sleep(100 * time.Millisecond)
	changed := strings.Replace(validYAML, "seed: 7", "seed: 99", 1)
	if err := os.WriteFile(path, []byte(changed), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-updates:
		if cfg.Sim.Seed != 99 {
			t.Fatalf("expected reloaded seed 99, got %d", cfg.Sim.Seed)
		}
	case <-ctx.Done():
		t.Fatalf("no reload observed before timeout")
	}

	cancel()
	if err := <-done; err != context.Canceled && err != context.DeadlineExceeded {
		t.Fatalf("unexpected watcher exit: %v", err)
	}
}

// 窗口内的连续写入合并为一次重载，应用的是最后落盘的内容。
func TestWatcherBurstAppliesLastWrite(t *testing.T) {
	path := writeTempConfig(t, validYAML)

	updates := make(chan AppConfig, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w := Watcher{Path: path, CooldownTime: 300 * time.Millisecond}
	go func() {
		_ = w.Start(ctx, func(cfg AppConfig) {
			updates <- cfg
		})
	}()

	time.Sleep(100 * time.Millisecond)
	for _, seed := range []string{"seed: 11", "seed: 22", "seed: 33"} {
		changed := strings.Replace(validYAML, "seed: 7", seed, 1)
		if err := os.WriteFile(path, []byte(changed), 0o644); err != nil {
			t.Fatalf("rewrite config: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case cfg := <-updates:
		if cfg.Sim.Seed != 33 {
			t.Fatalf("expected the last write of the burst to apply, got seed %d", cfg.Sim.Seed)
		}
	case <-ctx.Done():
		t.Fatalf("no reload observed before timeout")
	}
}

func TestWatcherSkipsInvalidConfig(t *testing.T) {
	path := writeTempConfig(t, validYAML)

	updates := make(chan AppConfig, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	w := Watcher{Path: path, CooldownTime: time.Millisecond}
	go func() {
		_ = w.Start(ctx, func(cfg AppConfig) {
			select {
			case updates <- cfg:
			default:
			}
		})
	}()

	time.Sleep(100 * time.Millisecond)
	// 校验失败的配置不触发回调
	if err := os.WriteFile(path, []byte("env: ''\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-updates:
		t.Fatalf("invalid config must not trigger an update, got %+v", cfg)
	case <-time.After(500 * time.Millisecond):
	}
}
