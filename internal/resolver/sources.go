package resolver

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"ip-welcome/internal/geo"
	"ip-welcome/internal/localdb"
	"ip-welcome/internal/upstream"
)

const unknown = "未知"

// IPAPILookup：ipapi.co 查询契约
type IPAPILookup interface {
	Lookup(ctx context.Context, ip string) (upstream.IPAPIResponse, error)
}

// 文档注释：备用一体化定位源（ipapi.co）
// 背景：一次请求同时给出地址与坐标；不提供区县，district 置空；省份依次取 region、region_code，再缺失为“未知”。
// 约束：坐标缺失时以参考点加 ±0.5° 随机抖动代替，避免距离恒为 0；国内结果不写国家字段，交由参考国家格式化。
type IPAPISource struct {
	API      IPAPILookup
	Ref      geo.Reference
	HomeCode string
	Jitter   func() float64
}

func (s *IPAPISource) Name() string { return "ipapi" }

func (s *IPAPISource) Resolve(ctx context.Context, ip string) (geo.GeoResult, error) {
	var out geo.GeoResult
	d, err := s.API.Lookup(ctx, ip)
	if err != nil {
		return out, err
	}
	jitter := s.Jitter
	if jitter == nil {
		jitter = func() float64 { return rand.Float64() - 0.5 }
	}
	out.Address = d.IP
	if out.Address == "" {
		out.Address = ip
	}
	province := firstNonEmpty(d.Region, d.RegionCode, unknown)
	out.Content.AddressDetail = geo.AddressDetail{
		Province: province,
		City:     firstNonEmpty(d.City, unknown),
	}
	home := s.HomeCode
	if home == "" {
		home = "CN"
	}
	if d.CountryName != "" && !strings.EqualFold(countryCode(d), home) {
		out.Content.AddressDetail.Country = d.CountryName
	}
	if d.Longitude != nil && *d.Longitude != 0 {
		out.Content.Point.X = geo.C(*d.Longitude)
	} else {
		out.Content.Point.X = geo.C(s.Ref.Lng + jitter())
	}
	if d.Latitude != nil && *d.Latitude != 0 {
		out.Content.Point.Y = geo.C(*d.Latitude)
	} else {
		out.Content.Point.Y = geo.C(s.Ref.Lat + jitter())
	}
	return out, nil
}

// ipapi.co 的国家代码字段缺失时，用国家名粗略判断
func countryCode(d upstream.IPAPIResponse) string {
	if d.CountryCode != "" {
		return d.CountryCode
	}
	switch d.CountryName {
	case "China", "中国":
		return "CN"
	}
	return d.CountryName
}

// AMapQuery：高德 IP 定位契约
type AMapQuery interface {
	QueryIP(ctx context.Context, ip string) (upstream.AMapResponse, error)
}

// AMapSource：高德 IP 定位附加源；坐标取矩形中心
type AMapSource struct {
	API AMapQuery
}

func (s *AMapSource) Name() string { return "amap" }

func (s *AMapSource) Resolve(ctx context.Context, ip string) (geo.GeoResult, error) {
	var out geo.GeoResult
	if !isIPv4(ip) {
		return out, errors.New("amap: ipv4 required")
	}
	r, err := s.API.QueryIP(ctx, ip)
	if err != nil {
		return out, err
	}
	out.Address = ip
	out.Content.AddressDetail = geo.AddressDetail{Province: string(r.Province), City: string(r.City)}
	if lng, lat, ok := r.Center(); ok {
		out.Content.Point = geo.Point{X: geo.C(lng), Y: geo.C(lat)}
	}
	return out, nil
}

// 文档注释：本地离线库附加源
// 背景：mmdb 与 ip2region 均不依赖网络，放在在线源之后、静态兜底之前；无坐标时坐标留空，由距离层生成占位距离。
type LocalSource struct {
	Label string
	DB    localdb.Lookuper
	Ref   geo.Reference
}

func (s *LocalSource) Name() string { return s.Label }

func (s *LocalSource) Resolve(_ context.Context, ip string) (geo.GeoResult, error) {
	var out geo.GeoResult
	if ip == "" || s.DB == nil {
		return out, errors.New(s.Label + ": ip required")
	}
	l, ok := s.DB.Lookup(ip)
	if !ok {
		return out, errors.New(s.Label + ": miss")
	}
	out.Address = ip
	out.Content.AddressDetail = geo.AddressDetail{Province: l.Province, City: l.City}
	if l.Country != "" && l.Country != s.Ref.Country && l.Country != "China" {
		out.Content.AddressDetail.Country = l.Country
	}
	if l.HasPoint {
		out.Content.Point = geo.Point{X: geo.C(l.Lng), Y: geo.C(l.Lat)}
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
