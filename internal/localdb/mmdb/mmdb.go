package mmdb

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"

	"ip-welcome/internal/localdb"
)

// 文档注释：MaxMind GeoIP2/GeoLite2 City 库查询
// 背景：取 zh-CN 名称（缺失时退回英文），首个行政区划作为省份，附带经纬度。
type Reader struct {
	db   *geoip2.Reader
	lang string
}

func Open(path string) (*Reader, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	// 约束：只接受含城市粒度的库（GeoIP2-City、GeoLite2-City、dbip-city-lite 等）
	if t := db.Metadata().DatabaseType; !strings.Contains(strings.ToLower(t), "city") {
		_ = db.Close()
		return nil, fmt.Errorf("mmdb: unsupported database type %q", t)
	}
	return &Reader{db: db, lang: "zh-CN"}, nil
}

// Info 描述库的类型、构建时间与节点数量，供启动日志使用
type Info struct {
	Type      string
	BuildTime time.Time
	Nodes     uint
}

func (r *Reader) Info() Info {
	return infoOf(r.db.Metadata())
}

func infoOf(m maxminddb.Metadata) Info {
	return Info{
		Type:      m.DatabaseType,
		BuildTime: time.Unix(int64(m.BuildEpoch), 0).UTC(),
		Nodes:     m.NodeCount,
	}
}

func (r *Reader) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Reader) Lookup(ip string) (localdb.Location, bool) {
	var out localdb.Location
	p := net.ParseIP(ip)
	if r == nil || r.db == nil || p == nil {
		return out, false
	}
	rec, err := r.db.City(p)
	if err != nil {
		return out, false
	}
	out.Country = r.name(rec.Country.Names)
	if len(rec.Subdivisions) > 0 {
		out.Province = r.name(rec.Subdivisions[0].Names)
	}
	out.City = r.name(rec.City.Names)
	if rec.Location.Latitude != 0 || rec.Location.Longitude != 0 {
		out.Lng = rec.Location.Longitude
		out.Lat = rec.Location.Latitude
		out.HasPoint = true
	}
	if out.Country == "" && out.Province == "" && out.City == "" {
		return out, false
	}
	return out, true
}

func (r *Reader) name(names map[string]string) string {
	if v := names[r.lang]; v != "" {
		return v
	}
	return names["en"]
}
