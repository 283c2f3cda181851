package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// 文档注释：高德 IP 定位响应
// 背景：province/city 无数据时为空数组；rectangle 为 "lng1,lat1;lng2,lat2" 矩形，用中心点近似坐标。
type AMapResponse struct {
	Status    string     `json:"status"`
	Info      string     `json:"info"`
	Infocode  string     `json:"infocode"`
	Province  flexString `json:"province"`
	City      flexString `json:"city"`
	Adcode    flexString `json:"adcode"`
	Rectangle flexString `json:"rectangle"`
}

// Center：矩形中心点；解析失败返回 ok=false
func (r AMapResponse) Center() (lng, lat float64, ok bool) {
	corners := strings.Split(string(r.Rectangle), ";")
	if len(corners) != 2 {
		return 0, 0, false
	}
	var xs, ys [2]float64
	for i, c := range corners {
		p := strings.Split(c, ",")
		if len(p) != 2 {
			return 0, 0, false
		}
		x, e1 := strconv.ParseFloat(p[0], 64)
		y, e2 := strconv.ParseFloat(p[1], 64)
		if e1 != nil || e2 != nil {
			return 0, 0, false
		}
		xs[i], ys[i] = x, y
	}
	return (xs[0] + xs[1]) / 2, (ys[0] + ys[1]) / 2, true
}

// AMap：高德 IP 定位（仅国内 IPv4），作为可选的附加数据源
type AMap struct {
	Client *http.Client
	URL    string
	Key    string
}

func (a *AMap) QueryIP(ctx context.Context, ip string) (AMapResponse, error) {
	var r AMapResponse
	if a.Key == "" {
		return r, fmt.Errorf("%w: amap: missing key", ErrUpstream)
	}
	q := url.Values{}
	q.Set("key", a.Key)
	if ip != "" {
		q.Set("ip", ip)
	}
	base := a.URL
	if base == "" {
		base = "https://restapi.amap.com/v3/ip"
	}
	if err := getJSON(ctx, a.Client, "amap", base+"?"+q.Encode(), &r); err != nil {
		return r, err
	}
	if r.Status != "1" {
		return r, fmt.Errorf("%w: amap: %s (%s)", ErrUpstream, r.Info, r.Infocode)
	}
	if r.Province == "" {
		return r, fmt.Errorf("%w: amap: no data", ErrUpstream)
	}
	return r, nil
}
