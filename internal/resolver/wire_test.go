package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ip-welcome/internal/config"
	"ip-welcome/internal/geo"
)

func TestFromConfigEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ipify", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"61.183.1.2"}`))
	})
	mux.HandleFunc("/baidu", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":1,"message":"Internal Service Error"}`))
	})
	mux.HandleFunc("/ipapi/61.183.1.2/json/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"61.183.1.2","region":"Hubei","city":"Wuhan","country_code":"CN","country_name":"China","longitude":114.3,"latitude":30.6}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.Config{
		Reference:      geo.DefaultReference,
		HTTPTimeout:    time.Second,
		IPv4URL:        srv.URL + "/ipify",
		BaiduURL:       srv.URL + "/baidu",
		BaiduAK:        "k",
		IPAPIURL:       srv.URL + "/ipapi",
		MMDBPath:       filepath.Join(t.TempDir(), "missing.mmdb"),
		IP2RegionPath:  filepath.Join(t.TempDir(), "missing.xdb"),
		StaticFallback: true,
	}
	r, closeFn := FromConfig(cfg)
	defer closeFn()
	assert.Len(t, r.fallbacks, 1)

	res, err := r.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "61.183.1.2", res.Address)
	assert.Equal(t, "Hubei", res.Content.AddressDetail.Province)
}

func TestFromConfigWithoutStatic(t *testing.T) {
	r, closeFn := FromConfig(config.Config{Reference: geo.DefaultReference, AMapKey: "k"})
	defer closeFn()
	assert.False(t, r.static)
	assert.Len(t, r.fallbacks, 2)
}
