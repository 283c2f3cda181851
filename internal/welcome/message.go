package welcome

import (
	"strconv"

	"ip-welcome/internal/geo"
)

// Message：欢迎卡片的全部展示字段，渲染层只负责排版
type Message struct {
	Place    string `json:"place"`
	Distance string `json:"distance"`
	IP       string `json:"ip"`
	TimeTip  string `json:"time_tip"`
	Tip      string `json:"tip"`
	Province string `json:"province"`
	City     string `json:"city"`
	District string `json:"district"`
}

// UnknownDistance：坐标缺失且未配置随机源时的距离文案
const UnknownDistance = "未知距离"

// Composer：组装欢迎文案所需的不可变依赖；Rand 为 nil 时坐标缺失展示“未知距离”
type Composer struct {
	Ref   geo.Reference
	Table Table
	Rand  func(n int) int
}

// 文档注释：由定位结果组装欢迎文案
// 背景：省市缺失时使用占位值；坐标缺失时距离使用随机占位，未配置随机源时为“未知距离”；国家缺失时按参考国家处理。
func (c Composer) Compose(r geo.GeoResult, hour int) Message {
	d := r.Content.AddressDetail
	province := d.Province
	if province == "" {
		province = UnknownProvince
	}
	city := d.City
	if city == "" {
		city = UnknownCity
	}
	country := d.Country
	if country == "" {
		country = c.Ref.Country
	}
	distance := UnknownDistance
	if dist := geo.DistanceOrPlaceholder(c.Ref, r.Content.Point, c.Rand); dist != geo.UnknownDistance {
		distance = strconv.Itoa(dist) + " 公里"
	}
	return Message{
		Place:    FormatLocation(c.Ref.Country, country, province, city, d.District),
		Distance: distance,
		IP:       FormatIP(r.Address),
		TimeTip:  TimeGreeting(hour),
		Tip:      Select(c.Table, country, province, city),
		Province: province,
		City:     city,
		District: d.District,
	}
}
