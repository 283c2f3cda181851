package geo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceToReferenceIsZero(t *testing.T) {
	assert.Equal(t, 0, Distance(DefaultReference, DefaultReference.Lng, DefaultReference.Lat))
}

func TestDistanceKnownCities(t *testing.T) {
	// 北京天安门附近，武汉到北京约 1071km
	d := Distance(DefaultReference, 116.397, 39.908)
	assert.Equal(t, 1071, d)
}

func TestDistanceSymmetricAndNonNegative(t *testing.T) {
	pts := [][2]float64{{-122.4, 37.7}, {151.2, -33.8}, {0.1, 0.1}, {179.9, -89.9}, {114.3, 30.4}}
	for _, p := range pts {
		d1 := Distance(DefaultReference, p[0], p[1])
		back := Reference{Lng: p[0], Lat: p[1]}
		d2 := Distance(back, DefaultReference.Lng, DefaultReference.Lat)
		assert.GreaterOrEqual(t, d1, 0)
		assert.Equal(t, d1, d2, "point %v", p)
	}
}

func TestDistanceOrPlaceholder(t *testing.T) {
	fixed := func(n int) int { return n - 1 }
	assert.Equal(t, 999, DistanceOrPlaceholder(DefaultReference, Point{}, fixed))
	zero := func(int) int { return 0 }
	assert.Equal(t, 100, DistanceOrPlaceholder(DefaultReference, Point{X: C(0), Y: C(30)}, zero))
	got := DistanceOrPlaceholder(DefaultReference, Point{X: C(DefaultReference.Lng), Y: C(DefaultReference.Lat)}, zero)
	assert.Equal(t, 0, got)
	assert.Equal(t, UnknownDistance, DistanceOrPlaceholder(DefaultReference, Point{}, nil))
	assert.Equal(t, 0, DistanceOrPlaceholder(DefaultReference, Point{X: C(DefaultReference.Lng), Y: C(DefaultReference.Lat)}, nil))
}

func TestCoordAcceptsStringsAndNumbers(t *testing.T) {
	var p Point
	require.NoError(t, json.Unmarshal([]byte(`{"x":"114.25","y":30.5}`), &p))
	assert.Equal(t, C(114.25), p.X)
	assert.Equal(t, C(30.5), p.Y)

	require.NoError(t, json.Unmarshal([]byte(`{"x":"abc","y":null}`), &p))
	assert.False(t, p.X.Valid)
	assert.False(t, p.Y.Valid)

	b, err := json.Marshal(Point{X: C(114.25816)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":"114.25816","y":""}`, string(b))
}

func TestParseCoord(t *testing.T) {
	assert.Equal(t, C(30.43798), ParseCoord(" 30.43798 "))
	assert.False(t, ParseCoord("").Valid)
	assert.False(t, ParseCoord("n/a").Valid)
}
