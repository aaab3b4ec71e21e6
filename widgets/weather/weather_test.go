package weather

import (
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReading(t *testing.T) {
	r, ok := parseReading("Chongqing|Partly cloudy|+12°C\n")
	require.True(t, ok)
	assert.Equal(t, `Chongqing`, r.location)
	assert.Equal(t, `Partly cloudy`, r.desc)
	assert.Equal(t, `12`, r.temp)
}

func TestParseReadingNegativeTemp(t *testing.T) {
	r, ok := parseReading(`Oslo|Snow|-3°C`)
	require.True(t, ok)
	assert.Equal(t, `-3`, r.temp)
}

func TestParseReadingMalformed(t *testing.T) {
	for _, s := range []string{``, `just text`, `a|b`, `a|b|c|d`} {
		_, ok := parseReading(s)
		assert.False(t, ok, `input %q`, s)
	}
}

func TestRenderWithStubServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`Berlin|Sunny|+21°C`))
	}))
	defer srv.Close()

	mod, err := New()
	require.NoError(t, err)
	w := mod.(*Weather)
	w.url = srv.URL

	img, err := w.Render(300, 80)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 300, 80), img.Bounds())
	assert.Equal(t, `Berlin`, w.cache.location)
	assert.Equal(t, `21`, w.cache.temp)
}

func TestRenderKeepsStaleReadingOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `backend gone`, http.StatusBadGateway)
	}))
	defer srv.Close()

	mod, err := New()
	require.NoError(t, err)
	w := mod.(*Weather)
	w.url = srv.URL
	w.cache = reading{location: `Berlin`, desc: `Sunny`, temp: `21`,
		at: time.Now().Add(-2 * refreshEvery)}

	_, err = w.Render(300, 80)
	require.NoError(t, err, `fetch failures must not escape Render`)
	assert.Equal(t, `21`, w.cache.temp, `stale reading kept on failure`)
}
