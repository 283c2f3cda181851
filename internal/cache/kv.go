// 包 cache：定位结果的键值缓存（带时间戳过期策略）与多种键值后端
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// 文档注释：键值后端契约
// 背景：对应浏览器 localStorage 的最小能力集；服务端使用 Redis，命令行使用 JSON 文件，测试使用内存实现。
// 约束：Get 未命中返回 ok=false 且 err=nil；实现需并发安全。
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, val string) error
	Delete(ctx context.Context, key string) error
}

// RedisKV：Redis 后端；TTL>0 时同时设置 Redis 侧过期，作为过期策略之外的内存回收
type RedisKV struct {
	RC  *redis.Client
	TTL time.Duration
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	s, err := r.RC.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, val string) error {
	return r.RC.Set(ctx, key, val, r.TTL).Err()
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	return r.RC.Del(ctx, key).Err()
}

// DefaultMemoryEntries 进程内后端的默认容量
const DefaultMemoryEntries = 4096

// 文档注释：进程内实现，Redis 不可用时的退化后端
// 约束：服务端按访客 IP 分键，容量有上限，超出时淘汰最久未使用的条目。
type MemoryKV struct {
	c *lru.Cache[string, string]
}

func NewMemoryKV() *MemoryKV { return NewMemoryKVSize(DefaultMemoryEntries) }

func NewMemoryKVSize(n int) *MemoryKV {
	if n <= 0 {
		n = DefaultMemoryEntries
	}
	c, _ := lru.New[string, string](n)
	return &MemoryKV{c: c}
}

func (k *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := k.c.Get(key)
	return v, ok, nil
}

func (k *MemoryKV) Set(_ context.Context, key, val string) error {
	k.c.Add(key, val)
	return nil
}

func (k *MemoryKV) Delete(_ context.Context, key string) error {
	k.c.Remove(key)
	return nil
}

// 文档注释：JSON 文件后端
// 背景：命令行场景没有常驻进程，用单个 JSON 对象文件持久化键值，语义与 localStorage 一致。
// 约束：每次写入整体重写文件（先写临时文件再改名）；文件损坏时视为空并在下次写入时覆盖。
type FileKV struct {
	mu   sync.Mutex
	path string
}

func NewFileKV(path string) *FileKV { return &FileKV{path: path} }

func (f *FileKV) load() map[string]string {
	m := map[string]string{}
	b, err := os.ReadFile(f.path)
	if err != nil {
		return m
	}
	_ = json.Unmarshal(b, &m)
	return m
}

func (f *FileKV) save(m map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.load()[key]
	return v, ok, nil
}

func (f *FileKV) Set(_ context.Context, key, val string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.load()
	m[key] = val
	return f.save(m)
}

func (f *FileKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.load()
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return f.save(m)
}
