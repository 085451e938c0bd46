package artwork

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
)

// MaxSize bounds both dimensions of cached artwork
const MaxSize = 640

// sizeSegment matches file names that only describe a size, like the
// 600x600bb.jpg every iTunes artwork URL ends in
var sizeSegment = regexp.MustCompile(`^\d+x\d+[a-z]*(\.[a-z]+)?$`)

// Source downloads image bytes
type Source interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Cache stores artwork as <name>.jpg files in a directory
type Cache struct {
	dir    string
	source Source
	logger zerolog.Logger
}

// NewCache creates a cache in dir
func NewCache(dir string, source Source, logger zerolog.Logger) *Cache {
	return &Cache{
		dir:    dir,
		source: source,
		logger: logger.With().Str("component", "artwork").Logger(),
	}
}

// Dir returns the cache directory
func (c *Cache) Dir() string {
	return c.dir
}

// Name returns the cached file name for an artwork URL: its last path
// segment plus ".jpg". Local files and size-only segments are named by a
// hash of the URL instead, since those names repeat across albums.
func Name(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if strings.HasPrefix(rawURL, "file://") {
		sum := sha1.Sum([]byte(rawURL))
		return hex.EncodeToString(sum[:8]) + ".jpg"
	}

	seg := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		seg = u.Path
	}
	seg = strings.TrimRight(seg, "/")
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	seg = sanitize(seg)
	if seg == "" || sizeSegment.MatchString(seg) {
		sum := sha1.Sum([]byte(rawURL))
		seg = hex.EncodeToString(sum[:8])
	}
	return seg + ".jpg"
}

// Store makes sure the artwork at rawURL is cached and returns its name.
// Already cached artwork is not fetched again.
func (c *Cache) Store(ctx context.Context, rawURL string) (string, error) {
	name := Name(rawURL)
	if name == "" {
		return "", errors.New("artwork: empty url")
	}

	path := filepath.Join(c.dir, name)
	if _, err := os.Stat(path); err == nil {
		return name, nil
	}

	c.logger.Debug().Str("url", rawURL).Str("name", name).Msg("Caching artwork")

	data, err := c.source.Fetch(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch artwork: %w", err)
	}

	jpeg, err := normalize(data)
	if err != nil {
		return "", err
	}

	if err := writeAtomic(path, jpeg); err != nil {
		return "", err
	}

	c.logger.Info().Str("name", name).Int("bytes", len(jpeg)).Msg("Artwork cached")
	return name, nil
}

// Has reports whether name is in the cache
func (c *Cache) Has(name string) bool {
	if name == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(c.dir, name))
	return err == nil
}

// normalize decodes any supported image, shrinks it to fit MaxSize and
// re-encodes it as JPEG
func normalize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", b.Dx(), b.Dy())
	}

	// Fit never upscales
	img = imaging.Fit(img, MaxSize, MaxSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artwork-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write artwork: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod artwork: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename artwork: %w", err)
	}
	return nil
}

// sanitize keeps characters that are safe in file names and URLs
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		default:
			return -1
		}
	}, s)
}
