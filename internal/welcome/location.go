// 包 welcome：欢迎卡片的纯计算部分（地点格式化、问候语选择、时段问候与文案组装）
// 背景：与网络、存储、渲染副作用分离，便于在无浏览器环境下单元测试。
package welcome

import "strings"

const (
	MysteryRegion   = "神秘地区"
	UnknownProvince = "未知省份"
	UnknownCity     = "未知城市"
	UnknownIP       = "未知IP"
)

// 文档注释：格式化地点名称
// 背景：参考国家内按“省 市 区”拼接，跳过占位值与重复段（如直辖市省市同名）；其他国家直接返回国家名。
// 约束：结果中不会出现相邻重复段；全部缺失时返回“神秘地区”。
func FormatLocation(refCountry, country, province, city, district string) string {
	if country == "" {
		return MysteryRegion
	}
	if country != refCountry {
		return country
	}
	var parts []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || s == UnknownProvince || s == UnknownCity {
			return
		}
		if len(parts) > 0 && parts[len(parts)-1] == s {
			return
		}
		parts = append(parts, s)
	}
	add(province)
	add(city)
	add(district)
	if len(parts) == 0 {
		return MysteryRegion
	}
	return strings.Join(parts, " ")
}

// FormatIP：空值展示为“未知IP”
func FormatIP(ip string) string {
	if ip == "" {
		return UnknownIP
	}
	return ip
}
