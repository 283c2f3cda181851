package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"ip-welcome/internal/geo"
)

// 文档注释：百度地图 IP 定位客户端
// 背景：主链路的逆地理服务，返回结构即 GeoResult；坐标系为 bd09ll。
// 约束：status 非 0 视为业务失败并携带 message；需要 ak。
type Baidu struct {
	Client *http.Client
	URL    string
	AK     string
}

func (b *Baidu) Locate(ctx context.Context, ip string) (geo.GeoResult, error) {
	var r geo.GeoResult
	if b.AK == "" {
		return r, fmt.Errorf("%w: baidu: missing ak", ErrUpstream)
	}
	q := url.Values{}
	q.Set("ak", b.AK)
	q.Set("ip", ip)
	q.Set("coor", "bd09ll")
	if err := getJSON(ctx, b.Client, "baidu", b.URL+"?"+q.Encode(), &r); err != nil {
		return r, err
	}
	if r.Status != 0 {
		msg := r.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", r.Status)
		}
		return r, fmt.Errorf("%w: baidu: %s", ErrUpstream, msg)
	}
	r.Address = ip
	return r, nil
}

// IsLogical：是否为上游业务失败（而非网络失败）
func IsLogical(err error) bool { return errors.Is(err, ErrUpstream) }
