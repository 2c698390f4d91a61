package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"print-area-pricing/colors"
	"print-area-pricing/metrics"
	"print-area-pricing/models"
)

func pngBytes(t *testing.T, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeDrive struct {
	files map[string][]byte
	calls int
}

func (f *fakeDrive) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	f.calls++
	data, ok := f.files[fileID]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

func TestImageSource_DataURI(t *testing.T) {
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, color.NRGBA{R: 255, A: 255}))
	s := NewImageSource(ImageSourceConfig{}, nil, nil, zap.NewNop())

	img, err := s.LoadImage(context.Background(), src)

	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	r, g, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0}, []uint32{r, g, b})
}

func TestImageSource_HTTPWithCache(t *testing.T) {
	var hits atomic.Int32
	body := pngBytes(t, color.NRGBA{B: 255, A: 255})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/uploads/logo.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer server.Close()

	cache, err := NewImageCache(t.TempDir(), 0)
	require.NoError(t, err)
	s := NewImageSource(ImageSourceConfig{BaseURL: server.URL}, nil, cache, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := s.LoadImage(context.Background(), "/uploads/logo.png")
		require.NoError(t, err)
	}
	_, err = s.LoadImage(context.Background(), server.URL+"/uploads/logo.png")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load(), "relative and absolute sources are cached separately")

	_, err = s.LoadImage(context.Background(), server.URL+"/missing.png")
	assert.ErrorContains(t, err, "status 404")
}

func TestImageSource_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer server.Close()
	s := NewImageSource(ImageSourceConfig{BaseURL: server.URL, MaxBytes: 1024}, nil, nil, nil)

	_, err := s.Fetch(context.Background(), server.URL)

	assert.ErrorContains(t, err, "exceeds 1024 bytes")
}

func TestImageSource_RejectsHostsOutsideAllowList(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(pngBytes(t, color.NRGBA{A: 255}))
	}))
	defer server.Close()
	ctx := context.Background()

	s := NewImageSource(ImageSourceConfig{BaseURL: "https://storefront.example.com"}, nil, nil, nil)
	for _, src := range []string{
		"http://169.254.169.254/latest/meta-data/",
		"http://localhost:8080/admin",
		server.URL + "/a.png",
		"//evil.example.com/a.png",
	} {
		_, err := s.Fetch(ctx, src)
		assert.ErrorIs(t, err, ErrUnsupportedSource, src)
	}
	assert.Zero(t, hits.Load(), "rejected sources are never requested")

	allowed := NewImageSource(ImageSourceConfig{AllowedHosts: []string{server.Listener.Addr().String()}}, nil, nil, nil)
	_, err := allowed.Fetch(ctx, server.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestImageSource_RejectsRedirectToOtherHost(t *testing.T) {
	var internalHits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalHits.Add(1)
		w.Write([]byte("secret"))
	}))
	defer internal.Close()
	public := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, internal.URL+"/secret", http.StatusFound)
	}))
	defer public.Close()

	s := NewImageSource(ImageSourceConfig{BaseURL: public.URL}, nil, nil, nil)
	_, err := s.Fetch(context.Background(), "/logo.png")

	assert.ErrorIs(t, err, ErrUnsupportedSource)
	assert.Zero(t, internalHits.Load())
}

// pngHeader returns a PNG signature and IHDR chunk declaring w x h pixels, with no
// image data behind it
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestImageSource_PixelLimit(t *testing.T) {
	ctx := context.Background()
	s := NewImageSource(ImageSourceConfig{MaxPixels: 10}, nil, nil, nil)

	_, err := s.LoadImage(ctx, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngBytes(t, color.NRGBA{A: 255})))
	assert.ErrorIs(t, err, ErrImageTooLarge, "4x4 is over 10 pixels")

	bomb := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader(50000, 50000))
	_, err = NewImageSource(ImageSourceConfig{}, nil, nil, nil).LoadImage(ctx, bomb)
	assert.ErrorIs(t, err, ErrImageTooLarge, "declared dimensions are rejected before decoding")
	assert.ErrorContains(t, err, "50000x50000")
}

func TestImageSource_OversizedImageSamplesNoColors(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := metrics.New(prometheus.NewRegistry())
	ex := colors.NewExtractor(NewImageSource(ImageSourceConfig{}, nil, nil, nil), zap.New(core), m)
	obj := models.DesignObject{
		Type: models.ObjectTypeImage,
		Src:  "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader(40000, 40000)),
	}

	clusters := ex.Extract(context.Background(), obj, colors.Options{Sensitivity: 30, Sample: colors.DefaultSampleOptions()})

	assert.Empty(t, clusters)
	assert.Equal(t, 1, logs.FilterMessageSnippet("sampling failed").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SampleFailures))
}

func TestImageSource_Drive(t *testing.T) {
	drive := &fakeDrive{files: map[string][]byte{"abc123": pngBytes(t, color.NRGBA{G: 255, A: 255})}}
	s := NewImageSource(ImageSourceConfig{}, drive, nil, nil)

	img, err := s.LoadImage(context.Background(), "drive://abc123")
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dy())
	assert.Equal(t, 1, drive.calls)

	_, err = s.LoadImage(context.Background(), "drive://nope")
	assert.Error(t, err)

	_, err = NewImageSource(ImageSourceConfig{}, nil, nil, nil).Fetch(context.Background(), "drive://abc123")
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestImageSource_UnsupportedAndInvalid(t *testing.T) {
	s := NewImageSource(ImageSourceConfig{}, nil, nil, nil)
	ctx := context.Background()

	for _, src := range []string{"", "ftp://host/a.png", "/relative/without/base.png", "blob:abc"} {
		_, err := s.Fetch(ctx, src)
		assert.ErrorIs(t, err, ErrUnsupportedSource, src)
	}

	_, err := s.LoadImage(ctx, "data:image/png;base64,bm90IGFuIGltYWdl")
	assert.ErrorContains(t, err, "failed to decode image")

	_, err = s.Fetch(ctx, "data:image/png;base64")
	assert.Error(t, err)
}

func TestDecodeDataURI(t *testing.T) {
	data, err := decodeDataURI("data:text/plain,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	data, err = decodeDataURI("data:;base64,aGk")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))
}

func TestImageCache(t *testing.T) {
	cache, err := NewImageCache(t.TempDir(), 0)
	require.NoError(t, err)

	_, ok := cache.Get("https://cdn/x.png")
	assert.False(t, ok)

	require.NoError(t, cache.Put("https://cdn/x.png", []byte("payload")))
	data, ok := cache.Get("https://cdn/x.png")
	assert.True(t, ok)
	assert.Equal(t, "payload", string(data))
	assert.NotEqual(t, cache.Path("a"), cache.Path("b"))
}

func TestImageCache_PrunesLeastRecentlyUsed(t *testing.T) {
	cache, err := NewImageCache(t.TempDir(), 100)
	require.NoError(t, err)
	payload := bytes.Repeat([]byte("x"), 40)

	require.NoError(t, cache.Put("old", payload))
	require.NoError(t, cache.Put("used", payload))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(cache.Path("old"), past, past))
	require.NoError(t, os.Chtimes(cache.Path("used"), past.Add(time.Minute), past.Add(time.Minute)))

	_, ok := cache.Get("used")
	require.True(t, ok, "a hit refreshes the entry")
	require.NoError(t, cache.Put("new", payload))

	_, ok = cache.Get("old")
	assert.False(t, ok, "oldest entry is pruned")
	_, ok = cache.Get("used")
	assert.True(t, ok)
	_, ok = cache.Get("new")
	assert.True(t, ok)

	size, err := cache.Size()
	require.NoError(t, err)
	assert.LessOrEqual(t, size, int64(100))

	require.NoError(t, cache.Put("huge", bytes.Repeat([]byte("x"), 500)))
	size, err = cache.Size()
	require.NoError(t, err)
	assert.LessOrEqual(t, size, int64(100), "an entry larger than the cap does not stay")
}
