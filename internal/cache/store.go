package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/benbjohnson/clock"

	"ip-welcome/internal/geo"
	"ip-welcome/internal/logger"
	"ip-welcome/internal/metrics"
)

const (
	// Key：定位结果缓存键
	Key = "ip_info_cache"
	// PermissionKey：定位权限标记键（总是自动授予）
	PermissionKey = "locationPermission"
	granted       = "granted"
)

// ErrCorrupt：缓存内容无法解析
var ErrCorrupt = errors.New("cache entry corrupt")

// Entry：持久化格式 {data, timestamp}，timestamp 为毫秒时间戳
type Entry struct {
	Data      geo.GeoResult `json:"data"`
	Timestamp int64         `json:"timestamp"`
}

// KeyFor：按访客区分缓存键；visitor 为空时使用固定键
func KeyFor(visitor string) string {
	if visitor == "" {
		return Key
	}
	return Key + ":" + visitor
}

// 文档注释：定位结果缓存
// 背景：单键单条目，每次成功解析后整体覆盖；读取时按写入时间判断过期，过期或损坏的条目立即删除并视为未命中。
// 约束：缓存是尽力而为的，读写错误只记录日志，不阻断渲染。
type Store struct {
	kv  KV
	key string
	ttl time.Duration
	clk clock.Clock
}

func NewStore(kv KV, key string, ttl time.Duration, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.New()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{kv: kv, key: key, ttl: ttl, clk: clk}
}

func (s *Store) Key() string { return s.key }

// 文档注释：读取缓存
// 返回：未过期的定位结果与命中标记；条目年龄恰好等于有效期时仍视为有效。
func (s *Store) Read(ctx context.Context) (*geo.GeoResult, bool) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		logger.From(ctx).Warn("cache_read_error", "key", s.key, "err", err)
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	if !ok || raw == "" {
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	e, err := decode(raw)
	if err != nil || s.clk.Now().UnixMilli()-e.Timestamp > s.ttl.Milliseconds() {
		logger.From(ctx).Debug("cache_evict", "key", s.key, "corrupt", err != nil)
		_ = s.kv.Delete(ctx, s.key)
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	metrics.CacheHitsTotal.Inc()
	return &e.Data, true
}

// Write：以当前时间戳覆盖写入；失败仅记录
func (s *Store) Write(ctx context.Context, r geo.GeoResult) {
	b, err := json.Marshal(Entry{Data: r, Timestamp: s.clk.Now().UnixMilli()})
	if err == nil {
		err = s.kv.Set(ctx, s.key, string(b))
	}
	if err != nil {
		metrics.CacheErrorsTotal.Inc()
		logger.From(ctx).Error("cache_write_error", "key", s.key, "err", err)
	}
}

// Clear：删除缓存（重试前调用）
func (s *Store) Clear(ctx context.Context) {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		logger.From(ctx).Warn("cache_clear_error", "key", s.key, "err", err)
	}
}

func decode(raw string) (Entry, error) {
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return e, ErrCorrupt
	}
	if e.Timestamp <= 0 {
		return e, ErrCorrupt
	}
	return e, nil
}

// 文档注释：确保定位权限已授予
// 背景：不向访客弹出授权对话框，未授予（含从未设置）时直接写入 granted。
func EnsurePermission(ctx context.Context, kv KV) {
	v, _, err := kv.Get(ctx, PermissionKey)
	if err == nil && v == granted {
		return
	}
	if err := kv.Set(ctx, PermissionKey, granted); err != nil {
		logger.From(ctx).Warn("permission_set_error", "err", err)
	}
}
