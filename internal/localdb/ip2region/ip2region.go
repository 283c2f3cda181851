package ip2region

import (
	"net"
	"strings"
	"sync"

	"github.com/lionsoul2014/ip2region/binding/golang/xdb"

	"ip-welcome/internal/localdb"
)

// searcher：xdb.Searcher 中本包用到的部分
type searcher interface {
	SearchByStr(ip string) (string, error)
	Close()
}

// 文档注释：ip2region v4 xdb 查询
// 背景：区域串格式为 国家|区域|省份|城市|ISP，"0" 表示缺失；不含坐标。
// 约束：仅按文件读取（不整体载入内存）；文件模式的 Searcher 在同一文件句柄上 Seek 后 Read，非并发安全，查询与关闭都在 mu 下串行执行。
type Cache struct {
	mu sync.Mutex
	v4 searcher
}

func Open(v4Path string) (*Cache, error) {
	s, err := xdb.NewWithFileOnly(xdb.IPv4, v4Path)
	if err != nil {
		return nil, err
	}
	return &Cache{v4: s}, nil
}

func (c *Cache) Lookup(ip string) (localdb.Location, bool) {
	if c == nil || net.ParseIP(ip).To4() == nil {
		return localdb.Location{}, false
	}
	c.mu.Lock()
	if c.v4 == nil {
		c.mu.Unlock()
		return localdb.Location{}, false
	}
	region, err := c.v4.SearchByStr(ip)
	c.mu.Unlock()
	if err != nil || region == "" {
		return localdb.Location{}, false
	}
	l := ParseRegion(region)
	if l.Province == "" && l.City == "" {
		return l, false
	}
	return l, true
}

func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.v4 != nil {
		c.v4.Close()
		c.v4 = nil
	}
}

// ParseRegion：解析 xdb 区域串
func ParseRegion(s string) localdb.Location {
	parts := strings.Split(s, "|")
	get := func(i int) string {
		if i >= len(parts) {
			return ""
		}
		v := strings.TrimSpace(parts[i])
		if v == "0" || strings.EqualFold(v, "unknown") {
			return ""
		}
		return v
	}
	return localdb.Location{Country: get(0), Province: get(2), City: get(3), ISP: get(4)}
}
