// Package fetch retrieves song lyrics from the supported lyric sites.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"lyricfetch/internal/cache"
	"lyricfetch/internal/lyrics"
)

// ErrNotSupported is returned when a site does not provide an operation,
// such as searching a site that has no search page.
var ErrNotSupported = errors.New("not supported")

// Result is a single search or index hit.
type Result struct {
	Album string `json:"album,omitempty"`
	Song  string `json:"song"`
	Link  string `json:"link"`
}

// Fetcher retrieves lyric pages from one site.
type Fetcher interface {
	// Name is the registry name of the site.
	Name() string
	// SongURL returns the absolute URL of a song endpoint.
	SongURL(endpoint string) string
	// Search returns lyric pages matching a query.
	Search(ctx context.Context, query, subQuery string) ([]Result, error)
	// Index returns lyric pages from an artist's index.
	Index(ctx context.Context, artist string) ([]Result, error)
	// Lyrics fetches and extracts the lyrics at a song endpoint. A
	// non-empty title overrides the title found on the page.
	Lyrics(ctx context.Context, endpoint, title string) (*lyrics.Lyrics, error)
}

// Registry maps site names to their fetchers.
type Registry struct {
	fetchers map[string]Fetcher
}

// NewRegistry builds the registry of supported sites. The page cache is
// shared by all fetchers; indexFile optionally overrides the built-in
// artist index table for colorcodedlyrics.
func NewRegistry(pageCache *cache.PageCache, indexFile string) (*Registry, error) {
	r := &Registry{fetchers: make(map[string]Fetcher)}

	ccl, err := NewColorCoded(pageCache, indexFile)
	if err != nil {
		return nil, err
	}
	kl, err := NewKlyrics(pageCache)
	if err != nil {
		return nil, err
	}
	lt, err := NewLyricsTranslate(pageCache)
	if err != nil {
		return nil, err
	}
	mm, err := NewMusixMatch(pageCache)
	if err != nil {
		return nil, err
	}

	for _, f := range []Fetcher{ccl, kl, lt, mm, NewFile()} {
		r.Register(f)
	}
	return r, nil
}

// Register adds a fetcher to the registry, replacing any fetcher already
// registered under the same name.
func (r *Registry) Register(f Fetcher) {
	if r.fetchers == nil {
		r.fetchers = make(map[string]Fetcher)
	}
	r.fetchers[f.Name()] = f
}

// Get returns the fetcher registered under the given name.
func (r *Registry) Get(name string) (Fetcher, bool) {
	f, ok := r.fetchers[name]
	return f, ok
}

// Names returns the registered site names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fetchers))
	for name := range r.fetchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Korean fetches the Korean lyrics and title for a song.
func Korean(ctx context.Context, f Fetcher, endpoint string) ([]string, string, error) {
	ly, err := f.Lyrics(ctx, endpoint, "")
	if err != nil {
		return nil, "", err
	}
	return ly.Korean, ly.Title, nil
}

// English fetches the English translation and title for a song.
func English(ctx context.Context, f Fetcher, endpoint string) ([]string, string, error) {
	ly, err := f.Lyrics(ctx, endpoint, "")
	if err != nil {
		return nil, "", err
	}
	return ly.English, ly.Title, nil
}

// linkPath reduces an absolute or rooted link to its path without the
// leading slash, so results link back through the local /song/ route.
func linkPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimPrefix(raw, "/")
	}
	return strings.TrimPrefix(u.Path, "/")
}

// entryResults extracts search results from pages where each hit is an
// entry-title heading wrapping a link.
func entryResults(doc *goquery.Document, selector string) []Result {
	var results []Result
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		link, ok := sel.Find("a").Attr("href")
		if !ok {
			return
		}
		results = append(results, Result{
			Song: strings.TrimSpace(sel.Text()),
			Link: linkPath(link),
		})
	})
	return results
}

func parseDoc(page string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}
