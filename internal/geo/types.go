// 包 geo：访客定位结果的数据模型与距离计算，保持纯计算，不依赖网络与存储
package geo

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// 文档注释：定位结果（与上游百度定位接口同构）
// 背景：主链路、备用链路与静态兜底都统一产出该结构，缓存中也原样保存；前端与渲染层只认这一种形状。
// 约束：Status 为 0 表示成功；Address 为访客 IPv4 文本；省市区可能为空。
type GeoResult struct {
	Status  int     `json:"status"`
	Message string  `json:"message,omitempty"`
	Address string  `json:"address"`
	Content Content `json:"content"`
}

type Content struct {
	AddressDetail AddressDetail `json:"address_detail"`
	Point         Point         `json:"point"`
}

// 国家字段百度接口不返回，由备用/本地数据源补充；为空时按参考国家处理
type AddressDetail struct {
	Country  string `json:"country,omitempty"`
	Province string `json:"province"`
	City     string `json:"city"`
	District string `json:"district"`
}

// Point：X 为经度，Y 为纬度
type Point struct {
	X Coord `json:"x"`
	Y Coord `json:"y"`
}

// 文档注释：坐标分量
// 背景：上游以数字字符串返回坐标，备用源返回数字；统一解析为浮点并记录是否有效。
// 约束：无法解析（含空串、null）时 Valid=false，编码时输出空串。
type Coord struct {
	Value float64
	Valid bool
}

func C(v float64) Coord { return Coord{Value: v, Valid: true} }

func (c Coord) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte(`""`), nil
	}
	return json.Marshal(strconv.FormatFloat(c.Value, 'f', -1, 64))
}

func (c *Coord) UnmarshalJSON(b []byte) error {
	*c = Coord{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
	}
	*c = ParseCoord(s)
	return nil
}

// ParseCoord：宽松解析字符串坐标，失败返回无效坐标
func ParseCoord(s string) Coord {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Coord{}
	}
	return C(f)
}

// Reference：博主所在位置（距离计算的固定参考点）
type Reference struct {
	Lng     float64
	Lat     float64
	Country string
}

// DefaultReference：武汉洪山
var DefaultReference = Reference{Lng: 114.25816, Lat: 30.43798, Country: "中国"}
