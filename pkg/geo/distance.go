package geo

import "github.com/golang/geo/s2"

// EarthRadiusMeters 地球平均半径
const EarthRadiusMeters = 6371008.8

// Point 经纬度，十进制度
type Point struct {
	Lat float64
	Lon float64
}

// Distance 两点间大圆距离，单位米
func Distance(a, b Point) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lon)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// PathLength 按顺序累加相邻点距离
func PathLength(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}
