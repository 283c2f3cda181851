package geo

import "math"

const earthRadiusKm = 6371.0

// UnknownDistance：坐标缺失且不生成占位距离时的返回值
const UnknownDistance = -1

// 文档注释：球面距离（Haversine）
// 背景：计算访客坐标到参考点的大圆距离，四舍五入到整公里用于展示。
// 约束：输入为经纬度（度）；结果非负，对参考点自身为 0。
func Distance(ref Reference, lng, lat float64) int {
	const rad = math.Pi / 180
	dLat := (lat - ref.Lat) * rad
	dLon := (lng - ref.Lng) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(ref.Lat*rad)*math.Cos(lat*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	if a > 1 {
		a = 1
	}
	return int(math.Round(earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))))
}

// 文档注释：距离或占位距离
// 背景：坐标缺失时不向访客展示“未知”，改为 [100,1000) 的随机整数；0 坐标同样视为缺失。
// 参数：rnd 返回 [0,n) 的随机整数，测试中可替换为固定值；为 nil 时坐标缺失返回 UnknownDistance。
func DistanceOrPlaceholder(ref Reference, p Point, rnd func(n int) int) int {
	if !p.X.Valid || !p.Y.Valid || math.IsNaN(p.X.Value) || math.IsNaN(p.Y.Value) || p.X.Value == 0 || p.Y.Value == 0 {
		if rnd == nil {
			return UnknownDistance
		}
		return 100 + rnd(900)
	}
	return Distance(ref, p.X.Value, p.Y.Value)
}
