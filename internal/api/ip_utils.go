package api

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// 文档注释：获取访问者 IP（用于欢迎卡片与去重）
// 背景：多层代理环境下，依次读取常见反向代理头，最后回退远端地址。
// 约束：头部存在伪造风险，部署于未经信任的代理链路需配合网关过滤。
func getVisitorIP(r *http.Request) string {
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	for _, k := range []string{"cf-connecting-ip", "x-real-ip", "x-client-ip", "x-edge-client-ip"} {
		if x := h.Get(k); x != "" {
			return strings.TrimSpace(x)
		}
	}
	if x := h.Get("forwarded"); x != "" {
		if i := strings.Index(strings.ToLower(x), "for="); i >= 0 {
			y := strings.Trim(x[i+4:], "\" ")
			if p := strings.IndexAny(y, ";,"); p >= 0 {
				y = y[:p]
			}
			return strings.Trim(y, "\"")
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// 文档注释：归一化为可定位的公网地址
// 背景：公网 IPv4 交给主逆地理；公网 IPv6 只能由兜底源定位；内网、回环与链路本地地址返回空串，解析器不会用服务器出口地址冒充访客。
func visitorAddr(ip string) string {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return ""
	}
	a = a.Unmap().WithZone("")
	if !a.IsGlobalUnicast() || a.IsPrivate() || a.IsLoopback() {
		return ""
	}
	return a.String()
}
