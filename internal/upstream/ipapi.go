package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// IPAPIResponse：ipapi.co 返回字段（仅本服务用到的部分）
type IPAPIResponse struct {
	IP          string   `json:"ip"`
	Region      string   `json:"region"`
	RegionCode  string   `json:"region_code"`
	City        string   `json:"city"`
	CountryName string   `json:"country_name"`
	CountryCode string   `json:"country_code"`
	Longitude   *float64 `json:"longitude"`
	Latitude    *float64 `json:"latitude"`
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
}

// IPAPI：备用的一体化 IP 定位服务；ip 为空时按调用方出口 IP 定位
type IPAPI struct {
	Client *http.Client
	URL    string
}

func (a *IPAPI) Lookup(ctx context.Context, ip string) (IPAPIResponse, error) {
	var r IPAPIResponse
	u := strings.TrimRight(a.URL, "/")
	if ip != "" {
		u += "/" + url.PathEscape(ip)
	}
	u += "/json/"
	if err := getJSON(ctx, a.Client, "ipapi", u, &r); err != nil {
		return r, err
	}
	if r.Error {
		return r, fmt.Errorf("%w: ipapi: %s", ErrUpstream, r.Reason)
	}
	return r, nil
}
