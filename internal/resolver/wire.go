package resolver

import (
	"ip-welcome/internal/config"
	"ip-welcome/internal/localdb"
	"ip-welcome/internal/localdb/ip2region"
	"ip-welcome/internal/localdb/mmdb"
	"ip-welcome/internal/logger"
	"ip-welcome/internal/upstream"
)

// 文档注释：按配置组装解析链
// 背景：ipify → 百度 → ipapi.co 为固定链路；高德与离线库按配置追加，离线库打开失败只记录日志并跳过该库。
// 参数：extra 追加在配置项之后，服务端用 WithoutEcho 关闭回显。
// 返回：解析器与释放离线库句柄的关闭函数（总是非 nil）。
func FromConfig(cfg config.Config, extra ...Option) (*Resolver, func()) {
	l := logger.L()
	client := upstream.NewHTTPClient(cfg.HTTPTimeout)
	opts := []Option{
		WithFallback(&IPAPISource{API: &upstream.IPAPI{Client: client, URL: cfg.IPAPIURL}, Ref: cfg.Reference}),
	}
	if cfg.AMapKey != "" {
		opts = append(opts, WithFallback(&AMapSource{API: &upstream.AMap{Client: client, Key: cfg.AMapKey}}))
		l.Info("resolver_tier", "source", "amap")
	}
	var closers []func()
	var offline localdb.Chain
	if cfg.MMDBPath != "" {
		if r, err := mmdb.Open(cfg.MMDBPath); err == nil {
			offline = append(offline, r)
			closers = append(closers, func() { _ = r.Close() })
			info := r.Info()
			l.Info("resolver_offline_db", "kind", "mmdb", "path", cfg.MMDBPath, "type", info.Type, "build", info.BuildTime.Format("2006-01-02"))
		} else {
			l.Error("mmdb_open_error", "path", cfg.MMDBPath, "err", err)
		}
	}
	if cfg.IP2RegionPath != "" {
		if c, err := ip2region.Open(cfg.IP2RegionPath); err == nil {
			offline = append(offline, c)
			closers = append(closers, c.Close)
			l.Info("resolver_offline_db", "kind", "ip2region", "path", cfg.IP2RegionPath)
		} else {
			l.Error("ip2region_open_error", "path", cfg.IP2RegionPath, "err", err)
		}
	}
	// 离线库合成一层，mmdb 在前
	if len(offline) > 0 {
		opts = append(opts, WithFallback(&LocalSource{Label: "localdb", DB: offline, Ref: cfg.Reference}))
		l.Info("resolver_tier", "source", "localdb", "dbs", len(offline))
	}
	if !cfg.StaticFallback {
		opts = append(opts, WithoutStatic())
	}
	opts = append(opts, extra...)
	if cfg.BaiduAK == "" {
		l.Warn("baidu_ak_missing")
	}
	r := New(
		&upstream.IPv4Echo{Client: client, URL: cfg.IPv4URL},
		&upstream.Baidu{Client: client, URL: cfg.BaiduURL, AK: cfg.BaiduAK},
		cfg.Reference,
		opts...,
	)
	return r, func() {
		for _, c := range closers {
			c()
		}
	}
}
