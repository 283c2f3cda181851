// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"ip-welcome/internal/api"
	"ip-welcome/internal/cache"
	"ip-welcome/internal/config"
	"ip-welcome/internal/controller"
	"ip-welcome/internal/logger"
	"ip-welcome/internal/metrics"
	"ip-welcome/internal/middleware"
	"ip-welcome/internal/migrate"
	"ip-welcome/internal/resolver"
	"ip-welcome/internal/store"
	"ip-welcome/internal/utils"
	"ip-welcome/internal/welcome"
)

func main() {
	config.LoadEnv()
	// 日志初始化
	l := logger.Setup()
	cfg := config.FromEnv()
	l.Debug("config_loaded",
		"api_base", cfg.APIBase,
		"home_page_only", cfg.HomePageOnly,
		"cache_ms", cfg.CacheDuration.Milliseconds(),
		"timezone", cfg.Timezone.String(),
	)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 背景：Redis 不可用时退化到进程内缓存，欢迎卡片照常展示
	var kv cache.KV = cache.NewMemoryKV()
	var rc *redis.Client
	if cfg.RedisEnabled {
		rc = utils.PingRedis(ctx, utils.OpenRedisFromEnv())
	}
	if rc != nil {
		defer rc.Close()
		kv = &cache.RedisKV{RC: rc, TTL: cfg.CacheDuration + time.Minute}
		l.Info("cache_backend", "kind", "redis")
	} else {
		l.Info("cache_backend", "kind", "memory")
	}

	var st *store.Store
	if cfg.StatsEnabled {
		st = openStats(l)
		if st != nil {
			defer st.Close()
		}
	}

	table := welcome.DefaultTable()
	if cfg.GreetingsPath != "" {
		if t, err := welcome.LoadTable(cfg.GreetingsPath); err == nil {
			table = t
			l.Info("greetings_loaded", "path", cfg.GreetingsPath, "countries", len(t))
		} else {
			l.Error("greetings_load_error", "path", cfg.GreetingsPath, "err", err)
		}
	}

	// 服务端的出口地址不是访客地址，不使用回显
	res, closeTiers := resolver.FromConfig(cfg, resolver.WithoutEcho())
	defer closeTiers()
	ctl := controller.New(cfg, kv, res, table)

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(api.Deps{Controller: ctl, Stats: st, RC: rc})
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())
	mux.HandleFunc("/welcome.css", api.StylesHandler)

	var tb *middleware.TokenBucket
	if cfg.RateLimitOn {
		tb = middleware.NewTokenBucket(cfg.RateLimitQPS, nil)
		l.Info("rate_limit_on", "qps", cfg.RateLimitQPS)
	}
	handler := middleware.RateLimit(tb)(mux)
	handler = logger.AccessMiddleware(l)(handler)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	var err error
	if cfg.TLSEnabled {
		if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "ip-welcome.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
		err = s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
	} else {
		l.Info("listening", "addr", cfg.Addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("server_stopped")
}

// 文档注释：打开统计库并确保表结构
// 背景：统计是附加功能，数据库不可用时关闭统计而不是退出。
func openStats(l *slog.Logger) *store.Store {
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		return nil
	}
	if err := db.Ping(); err != nil {
		l.Error("db_ping_error", "err", err)
		_ = db.Close()
		return nil
	}
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		_ = db.Close()
		return nil
	}
	l.Info("stats_enabled")
	return store.AttachDB(db)
}
