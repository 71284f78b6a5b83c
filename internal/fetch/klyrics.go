package fetch

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"lyricfetch/internal/cache"
	"lyricfetch/internal/htmltext"
	"lyricfetch/internal/logging"
	"lyricfetch/internal/lyrics"
)

const klyricsSite = "https://klyrics.net"

var hangulTitlePat = regexp.MustCompile(`^(.*?)\s+Hangul$`)

// Klyrics fetches lyrics from klyrics.net. Lyric pages hold per-language
// sections headed by "<title> Hangul" and "<title> English Translation".
type Klyrics struct {
	client *Client
}

// NewKlyrics creates the klyrics fetcher.
func NewKlyrics(pageCache *cache.PageCache) (*Klyrics, error) {
	client, err := NewClient(klyricsSite, pageCache)
	if err != nil {
		return nil, err
	}
	return &Klyrics{client: client}, nil
}

func (f *Klyrics) Name() string {
	return "klyrics"
}

func (f *Klyrics) SongURL(endpoint string) string {
	return f.client.URLFor(endpoint)
}

func (f *Klyrics) Search(ctx context.Context, query, subQuery string) ([]Result, error) {
	page, err := f.client.GetSearch(ctx, "/", url.Values{"s": {query}})
	if err != nil {
		return nil, err
	}
	doc, err := parseDoc(page)
	if err != nil {
		return nil, err
	}
	return entryResults(doc, "h3.entry-title"), nil
}

func (f *Klyrics) Index(ctx context.Context, artist string) ([]Result, error) {
	return nil, ErrNotSupported
}

func (f *Klyrics) Lyrics(ctx context.Context, endpoint, title string) (*lyrics.Lyrics, error) {
	page, err := f.client.GetPage(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	doc, err := parseDoc(page)
	if err != nil {
		return nil, err
	}

	ly := &lyrics.Lyrics{Title: title}
	doc.Find("div.td-post-content h2").Each(func(_ int, h2 *goquery.Selection) {
		heading := strings.TrimSpace(h2.Text())
		var lang string
		switch {
		case strings.HasSuffix(heading, "Hangul"):
			lang = lyrics.LangKorean
			if ly.Title == "" {
				if m := hangulTitlePat.FindStringSubmatch(heading); m != nil {
					ly.Title = m[1]
				}
			}
		case strings.HasSuffix(heading, "English Translation"):
			lang = lyrics.LangEnglish
		default:
			return
		}

		logging.Debug("Found %s section", lang)
		lines := sectionLines(h2.Nodes[0])
		if lang == lyrics.LangKorean {
			ly.Korean = append(ly.Korean, lines...)
		} else {
			ly.English = append(ly.English, lines...)
		}
	})
	return ly, nil
}

// sectionLines collects the stanza lines from the <p> elements following
// a section heading, stopping at the next non-paragraph element.
func sectionLines(heading *html.Node) []string {
	var lines []string
	for n := heading.NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.TextNode {
			continue
		}
		if n.Type != html.ElementNode || n.Data != "p" {
			break
		}
		stanza := htmltext.Lines(n)
		logging.Debug("Found stanza with %d lines", len(stanza))
		lines = append(lines, stanza...)
		lines = append(lines, lyrics.Break)
	}
	return lines
}
