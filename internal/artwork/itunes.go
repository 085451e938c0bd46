package artwork

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Lookup finds artwork URLs on the iTunes Search API for tracks whose
// player reports none, and caches results to avoid repeated lookups for
// the same album.
type Lookup struct {
	mu       sync.Mutex
	cache    map[string]string
	client   *http.Client
	endpoint string
}

// NewLookup creates an iTunes artwork lookup
func NewLookup() *Lookup {
	return &Lookup{
		cache: make(map[string]string),
		client: &http.Client{
			Timeout: 3 * time.Second,
		},
		endpoint: "https://itunes.apple.com/search",
	}
}

type itunesResponse struct {
	Results []itunesResult `json:"results"`
}

type itunesResult struct {
	ArtworkURL100 string `json:"artworkUrl100"`
}

// Find returns an artwork URL for the given artist and album, falling back
// to a song search with title when the album search has no match.
// Returns empty string on any failure; artwork is optional.
func (l *Lookup) Find(ctx context.Context, artist, album, title string) string {
	if artist == "" || (album == "" && title == "") {
		return ""
	}

	key := artist + "|" + album + "|" + title
	l.mu.Lock()
	if u, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return u
	}
	l.mu.Unlock()

	var artURL string
	if album != "" {
		artURL = l.search(ctx, artist+" "+album, "album")
	}
	if artURL == "" && title != "" {
		artURL = l.search(ctx, artist+" "+title, "song")
	}

	l.mu.Lock()
	l.cache[key] = artURL
	l.mu.Unlock()

	return artURL
}

func (l *Lookup) search(ctx context.Context, term, entity string) string {
	query := url.Values{
		"term":   {term},
		"entity": {entity},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", l.endpoint, query.Encode()), nil)
	if err != nil {
		return ""
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var result itunesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ""
	}
	if len(result.Results) == 0 || result.Results[0].ArtworkURL100 == "" {
		return ""
	}

	// Upscale from 100x100 to the cached size
	return strings.Replace(result.Results[0].ArtworkURL100, "100x100bb", "640x640bb", 1)
}
