// 包 controller：欢迎卡片的启动流程（可见性门控 → 加载态 → 缓存 → 解析 → 渲染）
package controller

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/singleflight"

	"ip-welcome/internal/cache"
	"ip-welcome/internal/config"
	"ip-welcome/internal/geo"
	"ip-welcome/internal/logger"
	"ip-welcome/internal/metrics"
	"ip-welcome/internal/render"
	"ip-welcome/internal/welcome"
)

// NetworkErrorMessage：解析失败时展示给访客的提示
const NetworkErrorMessage = "无法获取位置信息，请检查网络连接"

// Resolver：访客定位契约
type Resolver interface {
	Resolve(ctx context.Context, ip string) (geo.GeoResult, error)
}

// 文档注释：一次页面访问
// 背景：Announcements 表示页面上存在公告卡片；门控失败时控制器把 Removed 置为 true，由页面侧移除公告。
// 约束：Target 为 nil 表示欢迎容器不存在，流程静默结束；同一 Page 上的重试复用渲染器以保持状态迁移连续。
type Page struct {
	Path          string
	Announcements bool
	Target        render.Target
	Removed       bool

	view *render.Renderer
}

func (p *Page) renderer() *render.Renderer {
	if p.view == nil || p.view.State() == render.Success {
		p.view = render.New(p.Target)
	}
	return p.view
}

// Outcome：一次流程的结果，Data 与 Message 仅在成功态非空
type Outcome struct {
	State   render.State     `json:"state"`
	Cached  bool             `json:"cached"`
	Data    *geo.GeoResult   `json:"data,omitempty"`
	Message *welcome.Message `json:"message,omitempty"`
}

type Controller struct {
	homeOnly bool
	tz       *time.Location
	ttl      time.Duration
	kv       cache.KV
	resolver Resolver
	composer welcome.Composer
	clk      clock.Clock
	group    singleflight.Group
}

// Option：构造选项
type Option func(*Controller)

// WithClock：替换时钟（缓存时间戳与时段问候共用）
func WithClock(c clock.Clock) Option { return func(ct *Controller) { ct.clk = c } }

// WithRand：替换占位距离的随机源
func WithRand(f func(n int) int) Option { return func(ct *Controller) { ct.composer.Rand = f } }

func New(cfg config.Config, kv cache.KV, res Resolver, table welcome.Table, opts ...Option) *Controller {
	if table == nil {
		table = welcome.DefaultTable()
	}
	c := &Controller{
		homeOnly: cfg.HomePageOnly,
		tz:       cfg.Timezone,
		ttl:      cfg.CacheDuration,
		kv:       kv,
		resolver: res,
		composer: welcome.Composer{Ref: cfg.Reference, Table: table, Rand: rand.IntN},
		clk:      clock.New(),
	}
	if c.tz == nil {
		c.tz = time.Local
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// IsHome：根路径、/index.html 或以 / 结尾的路径视为首页
func IsHome(path string) bool {
	return path == "/" || path == "/index.html" || strings.HasSuffix(path, "/")
}

// 文档注释：执行一次欢迎流程
// 背景：无公告时直接结束；仅首页展示且当前不是首页时移除公告，不发起任何网络请求；缓存命中时不解析。
// 参数：ip 为访客 IPv4，为空时由解析器经回显服务获取；缓存键按 ip 区分。
// 返回：最终状态；解析失败时渲染错误态并返回错误。
func (c *Controller) Run(ctx context.Context, p *Page, ip string) (Outcome, error) {
	l := logger.From(ctx)
	if !p.Announcements {
		return Outcome{State: render.Hidden}, nil
	}
	if c.homeOnly && !IsHome(p.Path) {
		p.Removed = true
		metrics.GateRejectedTotal.Inc()
		l.Debug("welcome_gate_rejected", "path", p.Path)
		return Outcome{State: render.Hidden}, nil
	}
	if p.Target == nil {
		return Outcome{State: render.Hidden}, nil
	}
	metrics.WelcomeRequestsTotal.Inc()
	t0 := c.clk.Now()
	defer func() {
		metrics.WelcomeDurationMs.Observe(float64(c.clk.Since(t0).Milliseconds()))
	}()

	cache.EnsurePermission(ctx, c.kv)
	view := p.renderer()
	if err := view.Loading(); err != nil {
		l.Warn("welcome_render_error", "state", render.Loading, "err", err)
	}
	store := cache.NewStore(c.kv, cache.KeyFor(ip), c.ttl, c.clk)
	if data, ok := store.Read(ctx); ok {
		l.Debug("welcome_cache_hit", "key", store.Key())
		return c.show(ctx, view, *data, true)
	}

	// 解析与首个调用方的生命周期解绑：首个访客断开不会让同键的其他等待者进入错误态
	ch := c.group.DoChan(store.Key(), func() (any, error) {
		rctx := context.WithoutCancel(ctx)
		res, err := c.resolver.Resolve(rctx, ip)
		if err != nil {
			return nil, err
		}
		store.Write(rctx, res)
		return res, nil
	})
	var r singleflight.Result
	select {
	case r = <-ch:
	case <-ctx.Done():
		r = singleflight.Result{Err: ctx.Err()}
	}
	v, err, shared := r.Val, r.Err, r.Shared
	if err != nil {
		l.Error("welcome_resolve_failed", "ip", ip, "err", err)
		if rerr := view.Error(NetworkErrorMessage); rerr != nil {
			l.Warn("welcome_render_error", "state", render.Error, "err", rerr)
		}
		return Outcome{State: render.Error}, err
	}
	if shared {
		l.Debug("welcome_resolve_shared", "key", store.Key())
	}
	return c.show(ctx, view, v.(geo.GeoResult), false)
}

// Retry：清除该访客的缓存后重新执行
func (c *Controller) Retry(ctx context.Context, p *Page, ip string) (Outcome, error) {
	cache.NewStore(c.kv, cache.KeyFor(ip), c.ttl, c.clk).Clear(ctx)
	logger.From(ctx).Info("welcome_retry", "ip", ip)
	return c.Run(ctx, p, ip)
}

// Lookup：只解析不渲染，绕过缓存
func (c *Controller) Lookup(ctx context.Context, ip string) (geo.GeoResult, error) {
	return c.resolver.Resolve(ctx, ip)
}

func (c *Controller) show(ctx context.Context, view *render.Renderer, data geo.GeoResult, cached bool) (Outcome, error) {
	msg := c.composer.Compose(data, c.clk.Now().In(c.tz).Hour())
	if err := view.Success(msg); err != nil {
		logger.From(ctx).Warn("welcome_render_error", "state", render.Success, "err", err)
	}
	logger.From(ctx).Info("welcome_shown",
		"province", msg.Province,
		"city", msg.City,
		"district", msg.District,
		"ip", msg.IP,
		"distance", msg.Distance,
		"cached", cached,
	)
	return Outcome{State: render.Success, Cached: cached, Data: &data, Message: &msg}, nil
}
