// 包 upstream：第三方定位服务的 HTTP 客户端（IPv4 回显、百度 IP 定位、ipapi.co、高德 IP 定位）
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ip-welcome/internal/logger"
)

var (
	// ErrNetwork：请求失败、非 2xx 或响应无法解析
	ErrNetwork = errors.New("upstream network failure")
	// ErrUpstream：HTTP 成功但业务状态非成功
	ErrUpstream = errors.New("upstream logical failure")
)

// StatusError：非 2xx 响应，保留状态码与截断后的响应体
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrNetwork }

// NewHTTPClient：各客户端共用；超时即唯一的截止时间，不做重试
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// 文档注释：GET 并解码 JSON
// 背景：统一错误分类，网络错误、非 2xx 与解码失败均包装为 ErrNetwork，便于解析器按类型降级。
func getJSON(ctx context.Context, client *http.Client, name, u string, out any) error {
	if client == nil {
		client = NewHTTPClient(0)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNetwork, name, err)
	}
	req.Header.Set("accept", "application/json")
	t0 := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		logger.From(ctx).Debug("upstream_http_error", "source", name, "err", err)
		return fmt.Errorf("%w: %s: %v", ErrNetwork, name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%s: %w", name, &StatusError{StatusCode: resp.StatusCode, Body: string(b)})
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decode: %v", ErrNetwork, name, err)
	}
	logger.From(ctx).Debug("upstream_resp", "source", name, "status", resp.StatusCode, "duration_ms", time.Since(t0).Milliseconds())
	return nil
}

// flexString：兼容字符串或空数组（高德在无数据时返回 []）
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	*f = ""
	return nil
}
