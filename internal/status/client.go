package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrNotModified is returned by Fetch when the server reports the document
// unchanged since the previous fetch
var ErrNotModified = errors.New("status: document not modified")

// maxDocumentSize bounds how much of a response Fetch will read
const maxDocumentSize = 1 << 20

// Client fetches the status document and its artwork. The location may be
// an http(s) URL, a file:// URL or a plain path.
type Client struct {
	location string
	http     *http.Client

	mu           sync.Mutex
	lastModified string
}

// NewClient creates a client for the document at location
func NewClient(location string) *Client {
	return &Client{
		location: location,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Location returns the configured document location
func (c *Client) Location() string {
	return c.location
}

// Fetch retrieves and decodes the current document
func (c *Client) Fetch(ctx context.Context) (*Document, error) {
	if path, ok := localPath(c.location); ok {
		return Read(path)
	}

	u, err := url.Parse(c.location)
	if err != nil {
		return nil, fmt.Errorf("invalid status URL: %w", err)
	}
	// A random query defeats caches between us and the publisher
	u.RawQuery = strconv.FormatFloat(rand.Float64(), 'f', -1, 64)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.mu.Lock()
	if c.lastModified != "" {
		req.Header.Set("If-Modified-Since", c.lastModified)
	}
	c.mu.Unlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		return nil, ErrNotModified
	default:
		return nil, fmt.Errorf("unexpected status fetching document: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}

	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.lastModified = resp.Header.Get("Last-Modified")
	c.mu.Unlock()

	return doc, nil
}

// ArtworkURL returns where the cached artwork named image lives: the
// cache/ directory next to the document
func (c *Client) ArtworkURL(image string) string {
	if image == "" {
		return ""
	}
	if path, ok := localPath(c.location); ok {
		return filepath.Join(filepath.Dir(path), "cache", image)
	}

	base, err := url.Parse(c.location)
	if err != nil {
		return ""
	}
	ref := &url.URL{Path: "cache/" + image}
	return base.ResolveReference(ref).String()
}

// OpenArtwork opens the cached artwork named image for reading
func (c *Client) OpenArtwork(ctx context.Context, image string) (io.ReadCloser, error) {
	loc := c.ArtworkURL(image)
	if loc == "" {
		return nil, fmt.Errorf("no artwork location for %q", image)
	}
	if _, ok := localPath(c.location); ok {
		f, err := os.Open(loc)
		if err != nil {
			return nil, fmt.Errorf("failed to open artwork: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch artwork: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status fetching artwork: %s", resp.Status)
	}
	return resp.Body, nil
}

// localPath reports whether location names a file on disk
func localPath(location string) (string, bool) {
	if strings.HasPrefix(location, "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return strings.TrimPrefix(location, "file://"), true
		}
		return u.Path, true
	}
	if strings.Contains(location, "://") {
		return "", false
	}
	return location, true
}
