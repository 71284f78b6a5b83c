package fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"lyricfetch/internal/cache"
	"lyricfetch/internal/htmltext"
	"lyricfetch/internal/lyrics"
)

const lyricsTranslateSite = "https://lyricstranslate.com"

// LyricsTranslate fetches English translations from lyricstranslate.com.
// The site only provides translations, so songs fetched from it carry no
// Korean lyrics; it is mainly useful combined with another site.
type LyricsTranslate struct {
	client *Client
}

// NewLyricsTranslate creates the lyricstranslate fetcher.
func NewLyricsTranslate(pageCache *cache.PageCache) (*LyricsTranslate, error) {
	client, err := NewClient(lyricsTranslateSite, pageCache)
	if err != nil {
		return nil, err
	}
	return &LyricsTranslate{client: client}, nil
}

func (f *LyricsTranslate) Name() string {
	return "lyricstranslate"
}

func (f *LyricsTranslate) SongURL(endpoint string) string {
	return f.client.URLFor(endpoint)
}

func (f *LyricsTranslate) Search(ctx context.Context, artist, song string) ([]Result, error) {
	if song == "" {
		song = "none"
	}
	endpoint := fmt.Sprintf("en/translations/0/328/%s/%s/none/0/0/0/0", artist, song)
	page, err := f.client.GetSearch(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	doc, err := parseDoc(page)
	if err != nil {
		return nil, err
	}

	var results []Result
	doc.Find("div.ltsearch-results-line tr").Each(func(_ int, row *goquery.Selection) {
		lang := row.Find("td.ltsearch-translatelanguages")
		if lang.Length() == 0 || !strings.Contains(lang.Text(), "English") {
			return
		}
		a := row.Find("td.ltsearch-translatenameoriginal").Eq(1).Find("a")
		link, ok := a.Attr("href")
		if !ok {
			return
		}
		results = append(results, Result{
			Song: strings.TrimSpace(a.Text()),
			Link: linkPath(link),
		})
	})
	return results, nil
}

func (f *LyricsTranslate) Index(ctx context.Context, artist string) ([]Result, error) {
	return nil, ErrNotSupported
}

func (f *LyricsTranslate) Lyrics(ctx context.Context, endpoint, title string) (*lyrics.Lyrics, error) {
	page, err := f.client.GetPage(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	doc, err := parseDoc(page)
	if err != nil {
		return nil, err
	}

	if title == "" {
		artist := strings.TrimSpace(strings.Replace(
			doc.Find("li.song-node-info-artist").First().Text(), "Artist:", "", 1))
		song := strings.TrimSpace(doc.Find("h2.title-h2").First().Text())
		title = fmt.Sprintf("%s - %s", artist, song)
	}

	var english []string
	doc.Find("div.ltf div.par").Each(func(_ int, par *goquery.Selection) {
		english = append(english, htmltext.Lines(par.Nodes[0])...)
		english = append(english, lyrics.Break)
	})

	return &lyrics.Lyrics{Title: title, English: english}, nil
}
