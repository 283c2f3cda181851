package mmdb

import (
	"testing"
	"time"

	"github.com/oschwald/maxminddb-golang"
	"github.com/stretchr/testify/assert"
)

func TestInfoOf(t *testing.T) {
	got := infoOf(maxminddb.Metadata{DatabaseType: "GeoLite2-City", BuildEpoch: 1700000000, NodeCount: 42})
	assert.Equal(t, "GeoLite2-City", got.Type)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), got.BuildTime)
	assert.Equal(t, uint(42), got.Nodes)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open("testdata/missing.mmdb")
	assert.Error(t, err)
}

func TestNilReader(t *testing.T) {
	var r *Reader
	_, ok := r.Lookup("1.2.3.4")
	assert.False(t, ok)
	assert.NoError(t, r.Close())
}

func TestName(t *testing.T) {
	r := &Reader{lang: "zh-CN"}
	assert.Equal(t, "武汉", r.name(map[string]string{"zh-CN": "武汉", "en": "Wuhan"}))
	assert.Equal(t, "Wuhan", r.name(map[string]string{"en": "Wuhan"}))
}
