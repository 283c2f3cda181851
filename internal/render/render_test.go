package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ip-welcome/internal/welcome"
)

func msg() welcome.Message {
	return welcome.Message{
		Place:    "湖北省 武汉市 洪山区",
		Distance: "0 公里",
		IP:       "114.xxx.xxx.xxx",
		TimeTip:  "早上好🌤️，一日之计在于晨",
		Tip:      "欢迎来到我的博客！",
	}
}

func TestLifecycle(t *testing.T) {
	b := &Buffer{}
	r := New(b)
	assert.Equal(t, Hidden, r.State())

	require.NoError(t, r.Loading())
	st, h, _ := b.Snapshot()
	assert.Equal(t, Loading, st)
	assert.Contains(t, string(h), "loading-spinner")

	require.NoError(t, r.Error("无法获取位置信息，请检查网络连接"))
	st, h, _ = b.Snapshot()
	assert.Equal(t, Error, st)
	assert.Contains(t, string(h), "无法获取位置信息，请检查网络连接")
	assert.Contains(t, string(h), `id="retry-button"`)

	require.NoError(t, r.Loading())
	require.NoError(t, r.Success(msg()))
	st, h, n := b.Snapshot()
	assert.Equal(t, Success, st)
	assert.Equal(t, 4, n)
	assert.Contains(t, string(h), "欢迎来自 <b>湖北省 武汉市 洪山区</b> 的小友💖")
	assert.Contains(t, string(h), "你当前距博主约 <b>0 公里</b>！")
	assert.Contains(t, string(h), "Tip：<b>欢迎来到我的博客！🍂</b>")
}

func TestIllegalTransitions(t *testing.T) {
	b := &Buffer{}
	r := New(b)
	assert.ErrorIs(t, r.Success(msg()), ErrIllegalTransition)
	assert.ErrorIs(t, r.Error(""), ErrIllegalTransition)
	_, _, n := b.Snapshot()
	assert.Zero(t, n)

	require.NoError(t, r.Loading())
	assert.ErrorIs(t, r.Loading(), ErrIllegalTransition)
	require.NoError(t, r.Success(msg()))
	assert.ErrorIs(t, r.Error(""), ErrIllegalTransition)
	assert.Equal(t, Success, r.State())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(Hidden, Loading))
	assert.True(t, CanTransition(Error, Loading))
	assert.False(t, CanTransition(Success, Error))
	assert.False(t, CanTransition(Hidden, Success))
}

func TestNilTargetIsNoop(t *testing.T) {
	r := New(nil)
	assert.NoError(t, r.Loading())
	assert.NoError(t, r.Success(msg()))
	assert.Equal(t, Hidden, r.State())
}

func TestWelcomeHTMLEscapes(t *testing.T) {
	m := msg()
	m.Tip = "<script>alert(1)</script>"
	h, err := WelcomeHTML(m)
	require.NoError(t, err)
	assert.NotContains(t, string(h), "<script>")
	assert.Contains(t, string(h), "&lt;script&gt;")
}

func TestErrorHTMLDefault(t *testing.T) {
	h, err := ErrorHTML("")
	require.NoError(t, err)
	assert.Contains(t, string(h), DefaultErrorMessage)
}

func TestWriterTargetSkipsLoading(t *testing.T) {
	var out bytes.Buffer
	r := New(WriterTarget{W: &out, OnlyFinal: true})
	require.NoError(t, r.Loading())
	assert.Zero(t, out.Len())
	require.NoError(t, r.Success(msg()))
	assert.Contains(t, out.String(), "114.xxx.xxx.xxx")
}
