// 包 api：集中注册 HTTP API 路由以解耦主入口
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"

	"ip-welcome/internal/controller"
	"ip-welcome/internal/geo"
	"ip-welcome/internal/logger"
	"ip-welcome/internal/metrics"
	"ip-welcome/internal/render"
	"ip-welcome/internal/store"
	"ip-welcome/internal/welcome"
)

// Deps：路由依赖；Stats 为 nil 时关闭统计，RC 为 nil 时每次展示都按独立访客计
type Deps struct {
	Controller *controller.Controller
	Stats      *store.Store
	RC         *redis.Client
	Clock      clock.Clock
}

// 文档注释：欢迎卡片接口响应
// 背景：页面脚本只需把 html 写入欢迎容器；remove_announcement 为 true 时移除公告卡片。
type welcomeResponse struct {
	State              render.State     `json:"state"`
	HTML               string           `json:"html"`
	RemoveAnnouncement bool             `json:"remove_announcement"`
	Cached             bool             `json:"cached"`
	Data               *geo.GeoResult   `json:"data,omitempty"`
	Message            *welcome.Message `json:"message,omitempty"`
}

type statsResponse struct {
	Enabled bool          `json:"enabled"`
	Totals  *store.Totals `json:"totals,omitempty"`
	Places  []store.Place `json:"places,omitempty"`
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	h := &handlers{Deps: d, visitors: visitorFilter{rc: d.RC}}
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/welcome", h.welcome)
	apiMux.HandleFunc("/welcome/retry", h.retry)
	apiMux.HandleFunc("/ip", h.ip)
	apiMux.HandleFunc("/stats", h.stats)
	apiMux.HandleFunc("/welcome.css", StylesHandler)
	return apiMux
}

// StylesHandler：欢迎卡片样式
func StylesHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("content-type", "text/css; charset=utf-8")
	w.Header().Set("cache-control", "public, max-age=86400")
	_, _ = w.Write([]byte(render.Styles))
}

type handlers struct {
	Deps
	visitors visitorFilter
}

func (h *handlers) welcome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.serveWelcome(w, r, h.Controller.Run)
}

func (h *handlers) retry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.serveWelcome(w, r, h.Controller.Retry)
}

type runFunc func(ctx context.Context, p *controller.Page, ip string) (controller.Outcome, error)

// 文档注释：执行欢迎流程并输出卡片
// 背景：path 为页面路径（默认 /），announcements=false 表示页面没有公告卡片；解析失败时仍返回 200 与错误态卡片，由页面展示重试入口。
func (h *handlers) serveWelcome(w http.ResponseWriter, r *http.Request, run runFunc) {
	ctx := r.Context()
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		path = "/"
	}
	announcements := true
	if s := q.Get("announcements"); s != "" {
		announcements, _ = strconv.ParseBool(s)
	}
	target := &render.Buffer{}
	page := &controller.Page{Path: path, Announcements: announcements, Target: target}
	ip := visitorAddr(getVisitorIP(r))

	out, err := run(ctx, page, ip)
	if err != nil {
		logger.From(ctx).Warn("welcome_failed", "path", path, "err", err)
	}
	_, html, _ := target.Snapshot()
	resp := welcomeResponse{
		State:              out.State,
		HTML:               string(html),
		RemoveAnnouncement: page.Removed,
		Cached:             out.Cached,
	}
	if out.Data != nil {
		resp.Data = out.Data
		resp.Message = out.Message
		h.recordVisit(ctx, ip, out)
	}
	writeJSON(w, http.StatusOK, resp)
}

// 文档注释：记录展示统计
// 约束：统计失败只计数与记录日志，不影响响应。
func (h *handlers) recordVisit(ctx context.Context, ip string, out controller.Outcome) {
	if h.Stats == nil {
		return
	}
	l := logger.From(ctx)
	unique, err := h.visitors.firstSeen(ctx, ip, h.Clock.Now())
	if err != nil {
		l.Warn("visitor_bloom_error", "err", err)
	}
	if err := h.Stats.IncrVisit(ctx, unique); err != nil {
		metrics.StatsErrorsTotal.Inc()
		l.Warn("stats_incr_error", "err", err)
		return
	}
	if ip != "" && out.Message != nil {
		if err := h.Stats.RecordVisitor(ctx, ip, out.Message.Province, out.Message.City); err != nil {
			metrics.StatsErrorsTotal.Inc()
			l.Warn("stats_visitor_error", "err", err)
		}
	}
}

func (h *handlers) ip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := strings.TrimSpace(r.URL.Query().Get("ip"))
	if ip == "" {
		ip = visitorAddr(getVisitorIP(r))
	}
	res, err := h.Controller.Lookup(ctx, ip)
	if err != nil {
		logger.From(ctx).Warn("ip_lookup_failed", "ip", ip, "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	if h.Stats == nil {
		writeJSON(w, http.StatusOK, statsResponse{})
		return
	}
	ctx := r.Context()
	t, err := h.Stats.GetTotals(ctx)
	if err != nil {
		logger.From(ctx).Error("stats_totals_error", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
		return
	}
	hours, _ := strconv.Atoi(r.URL.Query().Get("hours"))
	places, err := h.Stats.TopPlaces(ctx, hours, 10)
	if err != nil {
		logger.From(ctx).Warn("stats_places_error", "err", err)
	}
	writeJSON(w, http.StatusOK, statsResponse{Enabled: true, Totals: t, Places: places})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
