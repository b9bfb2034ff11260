package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	// 马拉喀什 Jemaa el-Fnaa 到 Koutoubia，约 420 米
	a := Point{Lat: 31.625826, Lon: -7.989161}
	b := Point{Lat: 31.623703, Lon: -7.992804}

	d := Distance(a, b)
	assert.InDelta(t, 420, d, 60)
	assert.InDelta(t, d, Distance(b, a), 1e-9)
	assert.Zero(t, Distance(a, a))
}

func TestDistanceOneDegreeOfLatitude(t *testing.T) {
	d := Distance(Point{Lat: 0, Lon: 0}, Point{Lat: 1, Lon: 0})
	assert.InDelta(t, 111195, d, 10)
}

func TestPathLength(t *testing.T) {
	assert.Zero(t, PathLength(nil))
	assert.Zero(t, PathLength([]Point{{Lat: 1, Lon: 1}}))

	pts := []Point{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 0}, {Lat: 2, Lon: 0}}
	assert.InDelta(t, 2*111195, PathLength(pts), 20)
}
