package upstream

import (
	"context"
	"fmt"
	"net"
	"net/http"
)

// IPv4Echo：IPv4 回显服务（ipify），返回调用方出口 IPv4
type IPv4Echo struct {
	Client *http.Client
	URL    string
}

func (e *IPv4Echo) IPv4(ctx context.Context) (string, error) {
	var m struct {
		IP string `json:"ip"`
	}
	if err := getJSON(ctx, e.Client, "ipify", e.URL, &m); err != nil {
		return "", err
	}
	if ip := net.ParseIP(m.IP); ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("%w: ipify: not an ipv4 address %q", ErrUpstream, m.IP)
	}
	return m.IP, nil
}
