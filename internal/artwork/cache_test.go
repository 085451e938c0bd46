package artwork

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newImageServer(t *testing.T, data []byte, contentType string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://i.scdn.co/image/ab67616d0000b273", "ab67616d0000b273.jpg"},
		{"https://ichef.bbci.co.uk/images/ic/640x640/p0h2q9rt.jpg", "p0h2q9rt.jpg.jpg"},
		{"https://example.com/art/cover?size=large", "cover.jpg"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := Name(tt.url); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestName_HashesAmbiguousNames(t *testing.T) {
	a := Name("https://is1-ssl.mzstatic.com/image/thumb/Music/v4/aa/source/640x640bb.jpg")
	b := Name("https://is1-ssl.mzstatic.com/image/thumb/Music/v4/bb/source/640x640bb.jpg")
	if a == b {
		t.Errorf("expected distinct names for different albums, both %q", a)
	}
	if strings.Contains(a, "640x640") {
		t.Errorf("Name() = %q, want hashed name", a)
	}

	c := Name("file:///tmp/one/cover.png")
	d := Name("file:///tmp/two/cover.png")
	if c == d || !strings.HasSuffix(c, ".jpg") {
		t.Errorf("unexpected local names %q and %q", c, d)
	}
	if Name("file:///tmp/one/cover.png") != c {
		t.Error("expected stable names")
	}
}

func TestCache_StoreResizesAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := newImageServer(t, testPNG(t, 1000, 500), "image/png", &hits)

	dir := t.TempDir()
	c := NewCache(dir, NewFetcher(), zerolog.Nop())

	url := srv.URL + "/art/abc123"
	name, err := c.Store(context.Background(), url)
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if name != "abc123.jpg" {
		t.Errorf("Store() name = %q, want abc123.jpg", name)
	}
	if !c.Has(name) {
		t.Error("Has() = false after Store")
	}

	img, err := imaging.Open(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("cached file is not an image: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 320 {
		t.Errorf("cached size = %dx%d, want 640x320", b.Dx(), b.Dy())
	}

	// Second store is served from disk
	if _, err := c.Store(context.Background(), url); err != nil {
		t.Fatalf("second Store() error = %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("expected 1 download, got %d", n)
	}
}

func TestCache_StoreDoesNotUpscale(t *testing.T) {
	var hits atomic.Int32
	srv := newImageServer(t, testPNG(t, 100, 80), "image/png", &hits)

	dir := t.TempDir()
	c := NewCache(dir, NewFetcher(), zerolog.Nop())

	name, err := c.Store(context.Background(), srv.URL+"/small")
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	img, err := imaging.Open(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 80 {
		t.Errorf("cached size = %dx%d, want 100x80", b.Dx(), b.Dy())
	}
}

func TestCache_StoreErrors(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
	}{
		{"not an image content type", []byte("<html></html>"), "text/html"},
		{"corrupt image", []byte("not really a png"), "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := newImageServer(t, tt.data, tt.contentType, &hits)

			dir := t.TempDir()
			c := NewCache(dir, NewFetcher(), zerolog.Nop())
			if _, err := c.Store(context.Background(), srv.URL+"/bad"); err == nil {
				t.Fatal("expected error")
			}

			entries, err := os.ReadDir(dir)
			if err != nil && !os.IsNotExist(err) {
				t.Fatal(err)
			}
			if len(entries) != 0 {
				t.Errorf("expected empty cache, found %d files", len(entries))
			}
		})
	}

	c := NewCache(t.TempDir(), NewFetcher(), zerolog.Nop())
	if _, err := c.Store(context.Background(), ""); err == nil {
		t.Error("expected error for empty url")
	}
}

func TestCache_StoreLocalFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "cover.png")
	if err := os.WriteFile(src, testPNG(t, 50, 50), 0644); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	c := NewCache(dir, NewFetcher(), zerolog.Nop())

	name, err := c.Store(context.Background(), "file://"+src)
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if !c.Has(name) {
		t.Errorf("expected %s in cache", name)
	}
}
