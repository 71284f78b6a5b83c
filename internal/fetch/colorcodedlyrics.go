package fetch

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"lyricfetch/internal/cache"
	"lyricfetch/internal/htmltext"
	"lyricfetch/internal/logging"
	"lyricfetch/internal/lyrics"
)

const colorCodedSite = "https://colorcodedlyrics.com"

var (
	// namePrefixPat matches singer name prefixes like "[JE/ALL]" that
	// color coded lyric lines carry.
	namePrefixPat = regexp.MustCompile(`^\[\w+(?:/\w+)+]\s*(.*)$`)

	artistKeyPat = regexp.MustCompile(`[\[\]~!@#$%^&*(){}:;<>,.?/\\+= -]`)
)

// ColorCoded fetches lyrics from colorcodedlyrics.com. Lyric pages carry
// three language columns (romanized, Korean, English), either as column
// blocks or as a table.
type ColorCoded struct {
	client  *Client
	indexes map[string]string
}

// NewColorCoded creates the colorcodedlyrics fetcher. indexFile, when
// non-empty, points at a YAML file overriding the built-in artist index
// table.
func NewColorCoded(pageCache *cache.PageCache, indexFile string) (*ColorCoded, error) {
	client, err := NewClient(colorCodedSite, pageCache)
	if err != nil {
		return nil, err
	}
	indexes, err := loadIndexes(indexFile)
	if err != nil {
		return nil, err
	}
	return &ColorCoded{client: client, indexes: indexes}, nil
}

func (f *ColorCoded) Name() string {
	return "colorcodedlyrics"
}

func (f *ColorCoded) SongURL(endpoint string) string {
	return f.client.URLFor(endpoint)
}

func (f *ColorCoded) Search(ctx context.Context, query, subQuery string) ([]Result, error) {
	page, err := f.client.GetSearch(ctx, "/", url.Values{"s": {query}})
	if err != nil {
		return nil, err
	}
	doc, err := parseDoc(page)
	if err != nil {
		return nil, err
	}
	return entryResults(doc, "h2.entry-title"), nil
}

func (f *ColorCoded) Index(ctx context.Context, artist string) ([]Result, error) {
	key := artistKeyPat.ReplaceAllString(strings.ToLower(artist), "")
	endpoint, ok := f.indexes[key]
	if !ok {
		return nil, fmt.Errorf("no index is configured for %q", artist)
	}

	page, err := f.client.GetIndex(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	doc, err := parseDoc(page)
	if err != nil {
		return nil, err
	}

	var results []Result
	doc.Find("td").Each(func(_ int, td *goquery.Selection) {
		album := td.Find("img").First().AttrOr("title", "")
		td.Find("a").Each(func(_ int, a *goquery.Selection) {
			link, ok := a.Attr("href")
			if !ok {
				return
			}
			results = append(results, Result{
				Album: album,
				Song:  strings.TrimSpace(a.Text()),
				Link:  linkPath(link),
			})
		})
	})
	return results, nil
}

func (f *ColorCoded) Lyrics(ctx context.Context, endpoint, title string) (*lyrics.Lyrics, error) {
	logging.Debug("Getting lyrics for %q", endpoint)
	page, err := f.client.GetPage(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	doc, err := parseDoc(page)
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = strings.TrimSpace(doc.Find("h1.entry-title").First().Text())
	}

	korean, english, err := f.langColumns(doc)
	if err != nil {
		return nil, err
	}

	return &lyrics.Lyrics{
		Title:   title,
		Korean:  columnLines(korean),
		English: columnLines(english),
	}, nil
}

// langColumns locates the Korean and English lyric columns. Newer pages
// lay the languages out as column blocks whose headers use inline color
// spans; older pages use a table with one language per cell.
func (f *ColorCoded) langColumns(doc *goquery.Document) (*goquery.Selection, *goquery.Selection, error) {
	columns := doc.Find(".wp-block-column").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("strong .has-inline-color").Length() > 0
	})
	if columns.Length() >= 3 {
		return columns.Eq(1), columns.Eq(2), nil
	}

	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, nil, fmt.Errorf("unable to find any language columns")
	}
	table := tables.Last()
	korean := table.Find("tr td:nth-child(2)").First()
	english := table.Find("tr td:nth-child(3)").First()
	if korean.Length() == 0 || english.Length() == 0 {
		return nil, nil, fmt.Errorf("unable to find any language columns")
	}
	return korean, english, nil
}

// columnLines flattens a language column into lyric lines with stanza
// break markers. The first line is the column's language header and is
// dropped; singer name prefixes are stripped.
func columnLines(sel *goquery.Selection) []string {
	if sel.Length() == 0 {
		return nil
	}
	text := strings.TrimSpace(htmltext.Text(sel.Nodes[0]))
	raw := strings.Split(text, "\n")
	if len(raw) > 0 {
		raw = raw[1:]
	}

	var lines []string
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			if n := len(lines); n > 0 && lines[n-1] != lyrics.Break {
				lines = append(lines, lyrics.Break)
			}
			continue
		}
		if m := namePrefixPat.FindStringSubmatch(line); m != nil {
			line = strings.TrimSpace(m[1])
		}
		lines = append(lines, line)
	}
	for len(lines) > 0 && lines[len(lines)-1] == lyrics.Break {
		lines = lines[:len(lines)-1]
	}
	return lines
}
