// 包 config：进程级不可变配置；启动时从环境变量（含 .env）读取一次，之后以值的形式传入各组件
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"ip-welcome/internal/geo"
)

// Config：所有字段在构造后只读
type Config struct {
	Reference     geo.Reference
	CacheDuration time.Duration
	HomePageOnly  bool
	Timezone      *time.Location

	// StaticFallback 为 false 时全部数据源失败会进入错误态
	StaticFallback bool

	HTTPTimeout time.Duration
	IPv4URL     string
	BaiduURL    string
	BaiduAK     string
	IPAPIURL    string
	AMapKey     string

	MMDBPath      string
	IP2RegionPath string
	GreetingsPath string

	Addr         string
	APIBase      string
	RateLimitQPS int
	RateLimitOn  bool
	StatsEnabled bool
	CacheFile    string
	RedisEnabled bool

	TLSEnabled  bool
	TLSCertPath string
	TLSKeyPath  string
}

// LoadEnv：依次加载工作目录与 data/env 下的 .env，已存在的环境变量不被覆盖
func LoadEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// 文档注释：从环境变量构建配置
// 背景：集中解析与默认值，避免各组件直接读取环境变量；非法数值静默回退默认值。
func FromEnv() Config {
	c := Config{
		Reference:     geo.DefaultReference,
		CacheDuration: time.Hour,
		HomePageOnly:  true,
		HTTPTimeout:   5 * time.Second,
		IPv4URL:       "https://api.ipify.org?format=json",
		BaiduURL:      "https://api.map.baidu.com/location/ip",
		IPAPIURL:      "https://ipapi.co",
		Addr:          ":8080",
		APIBase:       "/api",
		RateLimitQPS:  200,
		CacheFile:     filepath.Join("data", "cache", "welcome.json"),
	}
	c.Reference.Lng = envFloat("REFERENCE_LNG", c.Reference.Lng)
	c.Reference.Lat = envFloat("REFERENCE_LAT", c.Reference.Lat)
	if s := os.Getenv("REFERENCE_COUNTRY"); s != "" {
		c.Reference.Country = s
	}
	if ms := envInt("CACHE_DURATION_MS", 0); ms > 0 {
		c.CacheDuration = time.Duration(ms) * time.Millisecond
	}
	if s := os.Getenv("HOME_PAGE_ONLY"); s != "" {
		c.HomePageOnly = strings.EqualFold(s, "true")
	}
	c.StaticFallback = !strings.EqualFold(os.Getenv("STATIC_FALLBACK"), "false")
	c.Timezone = time.Local
	tz := os.Getenv("TIMEZONE")
	if tz == "" {
		tz = "Asia/Shanghai"
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		c.Timezone = loc
	}
	if ms := envInt("HTTP_TIMEOUT_MS", 0); ms > 0 {
		c.HTTPTimeout = time.Duration(ms) * time.Millisecond
	}
	c.IPv4URL = envStr("IPV4_URL", c.IPv4URL)
	c.BaiduURL = envStr("BAIDU_URL", c.BaiduURL)
	c.BaiduAK = os.Getenv("BAIDU_AK")
	c.IPAPIURL = envStr("IPAPI_URL", c.IPAPIURL)
	c.AMapKey = os.Getenv("AMAP_SERVER_KEY")
	c.MMDBPath = os.Getenv("MMDB_PATH")
	c.IP2RegionPath = os.Getenv("IP2REGION_V4_PATH")
	c.GreetingsPath = os.Getenv("GREETINGS_PATH")
	c.Addr = envStr("ADDR", c.Addr)
	c.APIBase = envStr("API_BASE", c.APIBase)
	c.RateLimitOn = os.Getenv("RATE_LIMIT_ENABLED") == "true"
	if n := envInt("RATE_LIMIT_QPS", 0); n > 0 {
		c.RateLimitQPS = n
	}
	c.StatsEnabled = os.Getenv("STATS_ENABLED") == "true"
	c.RedisEnabled = os.Getenv("REDIS_ENABLED") != "false"
	c.CacheFile = envStr("CACHE_FILE", c.CacheFile)
	c.TLSEnabled = os.Getenv("TLS_ENABLE") == "true"
	c.TLSCertPath = envStr("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt"))
	c.TLSKeyPath = envStr("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key"))
	return c
}

func envStr(k, def string) string {
	if s := os.Getenv(k); s != "" {
		return s
	}
	return def
}

func envInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if s := os.Getenv(k); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return def
}
