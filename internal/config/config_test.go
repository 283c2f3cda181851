package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ip-welcome/internal/geo"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"REFERENCE_LNG", "REFERENCE_LAT", "CACHE_DURATION_MS", "HOME_PAGE_ONLY", "HTTP_TIMEOUT_MS", "TIMEZONE", "STATIC_FALLBACK"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	assert.Equal(t, geo.DefaultReference, c.Reference)
	assert.Equal(t, time.Hour, c.CacheDuration)
	assert.True(t, c.HomePageOnly)
	assert.Equal(t, 5*time.Second, c.HTTPTimeout)
	assert.Equal(t, "/api", c.APIBase)
	assert.True(t, c.StaticFallback)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("REFERENCE_LNG", "116.4")
	t.Setenv("REFERENCE_LAT", "39.9")
	t.Setenv("CACHE_DURATION_MS", "60000")
	t.Setenv("HOME_PAGE_ONLY", "false")
	t.Setenv("HTTP_TIMEOUT_MS", "bad")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("STATIC_FALLBACK", "false")
	c := FromEnv()
	assert.Equal(t, 116.4, c.Reference.Lng)
	assert.Equal(t, 39.9, c.Reference.Lat)
	assert.Equal(t, time.Minute, c.CacheDuration)
	assert.False(t, c.HomePageOnly)
	assert.Equal(t, 5*time.Second, c.HTTPTimeout)
	assert.Equal(t, "UTC", c.Timezone.String())
	assert.False(t, c.StaticFallback)
}
