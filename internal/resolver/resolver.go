// 包 resolver：访客 IP 定位编排（IPv4 获取 → 主逆地理 → 备用一体化服务 → 可选附加源 → 静态兜底）
package resolver

import (
	"context"
	"errors"
	"net/netip"
	"time"

	"ip-welcome/internal/geo"
	"ip-welcome/internal/logger"
	"ip-welcome/internal/metrics"
	"ip-welcome/internal/upstream"
)

// IPv4Source：获取调用方出口 IPv4
type IPv4Source interface {
	IPv4(ctx context.Context) (string, error)
}

// Geocoder：主链路逆地理（按 IP 返回省市区与坐标）
type Geocoder interface {
	Locate(ctx context.Context, ip string) (geo.GeoResult, error)
}

// 文档注释：兜底数据源契约
// 背景：主链路失败后按注册顺序逐个尝试，首个成功即返回；每个源自行把结果整理为 GeoResult 形状。
// 约束：ip 可能为空（IPv4 获取失败时），源需自行决定按出口 IP 查询或直接失败。
type Source interface {
	Name() string
	Resolve(ctx context.Context, ip string) (geo.GeoResult, error)
}

var (
	// ErrUnresolved：全部数据源失败且未启用静态兜底
	ErrUnresolved = errors.New("visitor location unresolved")
	// ErrNotIPv4：主逆地理只接受 IPv4
	ErrNotIPv4 = errors.New("primary geocoder accepts ipv4 only")
)

type Resolver struct {
	echo      IPv4Source
	primary   Geocoder
	fallbacks []Source
	ref       geo.Reference
	static    bool
}

// Option：构造选项
type Option func(*Resolver)

// WithFallback：追加兜底源（按追加顺序尝试）
func WithFallback(s Source) Option {
	return func(r *Resolver) {
		if s != nil {
			r.fallbacks = append(r.fallbacks, s)
		}
	}
}

// WithoutStatic：关闭静态兜底，全部失败时返回 ErrUnresolved
func WithoutStatic() Option { return func(r *Resolver) { r.static = false } }

// 文档注释：不使用 IPv4 回显
// 背景：服务端的回显结果是服务器自己的出口地址而不是访客；ip 为空时直接走静态兜底（或 ErrUnresolved），也不让兜底源按出口 IP 查询。
func WithoutEcho() Option { return func(r *Resolver) { r.echo = nil } }

func New(echo IPv4Source, primary Geocoder, ref geo.Reference, opts ...Option) *Resolver {
	r := &Resolver{echo: echo, primary: primary, ref: ref, static: true}
	for _, o := range opts {
		o(r)
	}
	return r
}

// 文档注释：解析访客位置
// 背景：ip 为空时先经 IPv4 回显服务获取；主逆地理状态非 0 视为失败，IPv6 访客跳过主逆地理。任一步失败进入兜底链，兜底链全部失败时返回静态结果，尽量不向访客展示错误。
// 约束：不做重试与显式超时，截止时间由 HTTP 客户端与 ctx 决定；ctx 取消时直接返回错误。
func (r *Resolver) Resolve(ctx context.Context, ip string) (geo.GeoResult, error) {
	l := logger.From(ctx)
	if ip == "" && r.echo == nil {
		l.Warn("resolve_no_visitor_ip")
		return r.exhausted(ctx)
	}
	res, err := r.resolvePrimary(ctx, &ip)
	if err == nil {
		return res, nil
	}
	l.Warn("resolve_primary_failed", "ip", ip, "logical", upstream.IsLogical(err), "err", err)
	for _, s := range r.fallbacks {
		if ctx.Err() != nil {
			return geo.GeoResult{}, ctx.Err()
		}
		res, err := observe(s.Name(), func() (geo.GeoResult, error) { return s.Resolve(ctx, ip) })
		if err == nil {
			l.Info("resolve_fallback_ok", "source", s.Name(), "ip", res.Address)
			return res, nil
		}
		l.Warn("resolve_fallback_failed", "source", s.Name(), "err", err)
	}
	return r.exhausted(ctx)
}

func (r *Resolver) exhausted(ctx context.Context) (geo.GeoResult, error) {
	if ctx.Err() != nil {
		return geo.GeoResult{}, ctx.Err()
	}
	l := logger.From(ctx)
	if !r.static {
		l.Error("resolve_all_failed")
		return geo.GeoResult{}, ErrUnresolved
	}
	l.Error("resolve_all_failed_static")
	metrics.StaticFallbackTotal.Inc()
	return Static(r.ref), nil
}

func (r *Resolver) resolvePrimary(ctx context.Context, ip *string) (geo.GeoResult, error) {
	if *ip == "" {
		if r.echo == nil {
			return geo.GeoResult{}, errors.New("no ipv4 source")
		}
		v4, err := observeIP(func() (string, error) { return r.echo.IPv4(ctx) })
		if err != nil {
			return geo.GeoResult{}, err
		}
		*ip = v4
		logger.From(ctx).Debug("resolve_ipv4", "ip", v4)
	}
	if !isIPv4(*ip) {
		return geo.GeoResult{}, ErrNotIPv4
	}
	if r.primary == nil {
		return geo.GeoResult{}, errors.New("no primary geocoder")
	}
	v := *ip
	return observe("baidu", func() (geo.GeoResult, error) { return r.primary.Locate(ctx, v) })
}

func isIPv4(ip string) bool {
	a, err := netip.ParseAddr(ip)
	return err == nil && a.Unmap().Is4()
}

func observe(name string, fn func() (geo.GeoResult, error)) (geo.GeoResult, error) {
	t0 := time.Now()
	metrics.SourceRequestsTotal.WithLabelValues(name).Inc()
	res, err := fn()
	metrics.SourceDurationMs.WithLabelValues(name).Observe(float64(time.Since(t0).Milliseconds()))
	if err != nil {
		metrics.SourceFailTotal.WithLabelValues(name).Inc()
	}
	return res, err
}

func observeIP(fn func() (string, error)) (string, error) {
	var ip string
	_, err := observe("ipify", func() (geo.GeoResult, error) {
		var err error
		ip, err = fn()
		return geo.GeoResult{}, err
	})
	return ip, err
}

// 文档注释：静态兜底结果
// 背景：全部数据源不可用时返回博主所在地，访客看到的是一张正常卡片而非错误提示。
func Static(ref geo.Reference) geo.GeoResult {
	var r geo.GeoResult
	r.Address = "114.xxx.xxx.xxx"
	r.Content.AddressDetail = geo.AddressDetail{Province: "湖北省", City: "武汉市", District: "洪山区"}
	r.Content.Point = geo.Point{X: geo.C(ref.Lng), Y: geo.C(ref.Lat)}
	return r
}
