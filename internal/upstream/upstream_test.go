package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIPv4Echo(t *testing.T) {
	srv := serve(t, 200, `{"ip":"61.183.1.2"}`, nil)
	ip, err := (&IPv4Echo{URL: srv.URL}).IPv4(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "61.183.1.2", ip)

	srv6 := serve(t, 200, `{"ip":"2001:db8::1"}`, nil)
	_, err = (&IPv4Echo{URL: srv6.URL}).IPv4(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestBaiduLocate(t *testing.T) {
	body := `{"status":0,"address":"CN|湖北省|武汉市","content":{"address_detail":{"province":"湖北省","city":"武汉市","district":""},"point":{"x":"114.31","y":"30.59"}}}`
	srv := serve(t, 200, body, func(r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("ak"))
		assert.Equal(t, "61.183.1.2", r.URL.Query().Get("ip"))
		assert.Equal(t, "bd09ll", r.URL.Query().Get("coor"))
	})
	b := &Baidu{URL: srv.URL, AK: "k"}
	r, err := b.Locate(context.Background(), "61.183.1.2")
	require.NoError(t, err)
	assert.Equal(t, "61.183.1.2", r.Address)
	assert.Equal(t, "武汉市", r.Content.AddressDetail.City)
	assert.InDelta(t, 114.31, r.Content.Point.X.Value, 1e-9)
}

func TestBaiduLogicalFailure(t *testing.T) {
	srv := serve(t, 200, `{"status":240,"message":"APP 服务被禁用"}`, nil)
	_, err := (&Baidu{URL: srv.URL, AK: "k"}).Locate(context.Background(), "1.1.1.1")
	require.Error(t, err)
	assert.True(t, IsLogical(err))
	assert.Contains(t, err.Error(), "APP 服务被禁用")
}

func TestBaiduNetworkFailure(t *testing.T) {
	srv := serve(t, 502, `bad gateway`, nil)
	_, err := (&Baidu{URL: srv.URL, AK: "k"}).Locate(context.Background(), "1.1.1.1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 502, se.StatusCode)
}

func TestIPAPILookup(t *testing.T) {
	srv := serve(t, 200, `{"ip":"8.8.8.8","region":"California","region_code":"CA","city":"Mountain View","country_name":"United States","longitude":-122.08,"latitude":37.38}`, func(r *http.Request) {
		assert.Equal(t, "/8.8.8.8/json/", r.URL.Path)
	})
	r, err := (&IPAPI{URL: srv.URL}).Lookup(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, "California", r.Region)
	require.NotNil(t, r.Longitude)
	assert.Equal(t, -122.08, *r.Longitude)

	limited := serve(t, 200, `{"error":true,"reason":"RateLimited"}`, nil)
	_, err = (&IPAPI{URL: limited.URL}).Lookup(context.Background(), "")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestAMapQueryIP(t *testing.T) {
	srv := serve(t, 200, `{"status":"1","info":"OK","infocode":"10000","province":"湖北省","city":"武汉市","adcode":"420100","rectangle":"114.0,30.0;115.0,31.0"}`, nil)
	r, err := (&AMap{URL: srv.URL, Key: "k"}).QueryIP(context.Background(), "61.183.1.2")
	require.NoError(t, err)
	lng, lat, ok := r.Center()
	require.True(t, ok)
	assert.Equal(t, 114.5, lng)
	assert.Equal(t, 30.5, lat)

	empty := serve(t, 200, `{"status":"1","info":"OK","infocode":"10000","province":[],"city":[],"adcode":[],"rectangle":[]}`, nil)
	_, err = (&AMap{URL: empty.URL, Key: "k"}).QueryIP(context.Background(), "8.8.8.8")
	assert.ErrorIs(t, err, ErrUpstream)
}
