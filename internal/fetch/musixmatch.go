package fetch

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"lyricfetch/internal/cache"
	"lyricfetch/internal/lyrics"
)

const musixMatchSite = "https://musixmatch.com"

// firefoxHeaders imitate a desktop Firefox browser; musixmatch refuses
// requests with an obvious bot User-Agent.
var firefoxHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:108.0) Gecko/20100101 Firefox/108.0",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
	"Upgrade-Insecure-Requests": "1",
}

var (
	mxmLyricsPat = regexp.MustCompile(`/lyrics/.*`)
	mxmAlbumPat  = regexp.MustCompile(`/album/.*`)
	mxmTitlePat  = regexp.MustCompile(`.*title$`)
)

// MusixMatch fetches lyrics from musixmatch.com translation pages, where
// Korean lines and their English translations appear in pairs.
type MusixMatch struct {
	client *Client
}

// NewMusixMatch creates the musixmatch fetcher.
func NewMusixMatch(pageCache *cache.PageCache) (*MusixMatch, error) {
	client, err := NewClient(musixMatchSite, pageCache)
	if err != nil {
		return nil, err
	}
	client.SetHeaders(firefoxHeaders)
	return &MusixMatch{client: client}, nil
}

func (f *MusixMatch) Name() string {
	return "musixmatch"
}

// normalizeEndpoint ensures a song endpoint points at the English
// translation page.
func normalizeEndpoint(song string) string {
	song = strings.TrimSuffix(song, "/")
	if !strings.HasSuffix(song, "/translation/english") {
		song += "/translation/english"
	}
	return song
}

func (f *MusixMatch) SongURL(endpoint string) string {
	return f.client.URLFor(normalizeEndpoint(endpoint))
}

func (f *MusixMatch) Search(ctx context.Context, query, subQuery string) ([]Result, error) {
	page, err := f.client.GetSearch(ctx, fmt.Sprintf("search/%s/tracks", query), nil)
	if err != nil {
		return nil, err
	}
	doc, err := parseDoc(page)
	if err != nil {
		return nil, err
	}

	var results []Result
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		link := a.AttrOr("href", "")
		if !mxmLyricsPat.MatchString(link) {
			return
		}
		if strings.HasSuffix(link, "/edit") || strings.HasSuffix(link, "/add") {
			return
		}
		results = append(results, Result{
			Song: strings.TrimSpace(a.Text()),
			Link: linkPath(link),
		})
	})
	return results, nil
}

func (f *MusixMatch) Index(ctx context.Context, artist string) ([]Result, error) {
	page, err := f.client.GetIndex(ctx, fmt.Sprintf("artist/%s/albums", artist))
	if err != nil {
		return nil, err
	}
	doc, err := parseDoc(page)
	if err != nil {
		return nil, err
	}

	var results []Result
	var walkErr error
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		link := a.AttrOr("href", "")
		if !mxmAlbumPat.MatchString(link) {
			return true
		}

		album := strings.TrimSpace(a.Text())
		if year := siblingText(a); year != "" {
			album = fmt.Sprintf("[%s] %s", year, album)
		}

		tracks, err := f.albumTracks(ctx, linkPath(link), album)
		if err != nil {
			walkErr = err
			return false
		}
		results = append(results, tracks...)
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return results, nil
}

func (f *MusixMatch) albumTracks(ctx context.Context, endpoint, album string) ([]Result, error) {
	page, err := f.client.GetPage(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	doc, err := parseDoc(page)
	if err != nil {
		return nil, err
	}

	var results []Result
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		link := a.AttrOr("href", "")
		if !mxmLyricsPat.MatchString(link) || strings.HasSuffix(link, "/edit") {
			return
		}
		name := a.Find("h2").FilterFunction(func(_ int, h *goquery.Selection) bool {
			return mxmTitlePat.MatchString(h.AttrOr("class", ""))
		}).First().Text()
		if name == "" {
			return
		}
		results = append(results, Result{
			Album: album,
			Song:  strings.TrimSpace(name),
			Link:  linkPath(link),
		})
	})
	return results, nil
}

func (f *MusixMatch) Lyrics(ctx context.Context, endpoint, title string) (*lyrics.Lyrics, error) {
	page, err := f.client.GetPage(ctx, normalizeEndpoint(endpoint), nil)
	if err != nil {
		return nil, err
	}
	doc, err := parseDoc(page)
	if err != nil {
		return nil, err
	}

	if title == "" {
		header := doc.Find("div.mxm-track-title")
		track := strings.TrimSpace(header.Find("h1").Contents().Last().Text())
		artist := strings.TrimSpace(header.Find("h2").Text())
		title = fmt.Sprintf("%s - %s", artist, track)
	}

	ly := &lyrics.Lyrics{Title: title}
	doc.Find("div.mxm-track-lyrics-container div.mxm-translatable-line-readonly").
		Each(func(_ int, row *goquery.Selection) {
			parts := row.Find("div").FilterFunction(func(_ int, div *goquery.Selection) bool {
				class, ok := div.Attr("class")
				return ok && class == ""
			})

			lastIdx := -1
			parts.Each(func(i int, div *goquery.Selection) {
				text := strings.TrimSpace(div.Text())
				if text == "" {
					text = lyrics.Break
				}
				switch i {
				case 0:
					ly.Korean = append(ly.Korean, text)
				case 1:
					ly.English = append(ly.English, text)
				}
				lastIdx = i
			})

			// A row with only the original line means the translation
			// skipped a line; keep the languages aligned
			if lastIdx == 0 && len(ly.Korean) != len(ly.English) {
				ly.English = append(ly.English, lyrics.Break)
			}
		})
	return ly, nil
}

// siblingText returns the text of the next element after the given
// selection's parent, which on album listings holds the release year.
func siblingText(a *goquery.Selection) string {
	if len(a.Nodes) == 0 || a.Nodes[0].Parent == nil {
		return ""
	}
	for n := a.Nodes[0].Parent.NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode || n.Type == html.TextNode {
			return strings.TrimSpace(goquery.NewDocumentFromNode(n).Text())
		}
	}
	return ""
}
