// 包 localdb：本地离线 IP 库（MaxMind mmdb、ip2region xdb），作为在线定位全部失败后的附加兜底层
package localdb

// Location：离线库命中结果；HasPoint 为 false 时坐标无意义
type Location struct {
	Country  string
	Province string
	City     string
	ISP      string
	Lng      float64
	Lat      float64
	HasPoint bool
}

// Lookuper：离线库统一查询契约
type Lookuper interface {
	Lookup(ip string) (Location, bool)
}

// Chain：按顺序查询，首个命中即返回；nil 成员跳过
type Chain []Lookuper

func (c Chain) Lookup(ip string) (Location, bool) {
	for _, s := range c {
		if s == nil {
			continue
		}
		if l, ok := s.Lookup(ip); ok {
			return l, true
		}
	}
	return Location{}, false
}
