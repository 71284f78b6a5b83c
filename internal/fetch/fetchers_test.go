package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"lyricfetch/internal/cache"
	"lyricfetch/internal/lyrics"
)

const colorCodedColumnsPage = `<html><body>
<h1 class="entry-title">BLACKPINK - Really</h1>
<div class="wp-block-columns">
<div class="wp-block-column">
<p><strong><span class="has-inline-color">Romanization</span></strong></p>
<p>annyeong</p>
</div>
<div class="wp-block-column">
<p><strong><span class="has-inline-color">Korean</span></strong></p>
<p>안녕 안녕<br>[JE/ALL] 잘 가</p>
<p>둘째 절</p>
</div>
<div class="wp-block-column">
<p><strong><span class="has-inline-color">English</span></strong></p>
<p>hello hello<br>goodbye</p>
<p>second stanza</p>
</div>
</div>
</body></html>`

const colorCodedTablePage = `<html><body>
<h1 class="entry-title">SNSD - Gee</h1>
<table><tbody><tr>
<td>Romanization<br>neomu</td>
<td>Korean<br>너무 너무<br><br>어쩌면</td>
<td>English<br>so so<br><br>maybe</td>
</tr></tbody></table>
</body></html>`

func newColorCoded(t *testing.T, site string, indexes map[string]string) *ColorCoded {
	t.Helper()
	return &ColorCoded{client: newTestClient(t, site), indexes: indexes}
}

func TestColorCodedLyricsColumns(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{
		"/2018/06/blackpink-really": colorCodedColumnsPage,
	})
	f := newColorCoded(t, srv.URL, nil)

	ly, err := f.Lyrics(context.Background(), "2018/06/blackpink-really", "")
	if err != nil {
		t.Fatalf("Lyrics failed: %v", err)
	}

	if ly.Title != "BLACKPINK - Really" {
		t.Errorf("unexpected title %q", ly.Title)
	}
	wantKorean := []string{"안녕 안녕", "잘 가", lyrics.Break, "둘째 절"}
	if !reflect.DeepEqual(ly.Korean, wantKorean) {
		t.Errorf("Korean = %q, want %q", ly.Korean, wantKorean)
	}
	wantEnglish := []string{"hello hello", "goodbye", lyrics.Break, "second stanza"}
	if !reflect.DeepEqual(ly.English, wantEnglish) {
		t.Errorf("English = %q, want %q", ly.English, wantEnglish)
	}
}

func TestColorCodedLyricsTable(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{
		"/2012/02/snsd-gee": colorCodedTablePage,
	})
	f := newColorCoded(t, srv.URL, nil)

	ly, err := f.Lyrics(context.Background(), "2012/02/snsd-gee", "")
	if err != nil {
		t.Fatalf("Lyrics failed: %v", err)
	}

	wantKorean := []string{"너무 너무", lyrics.Break, "어쩌면"}
	if !reflect.DeepEqual(ly.Korean, wantKorean) {
		t.Errorf("Korean = %q, want %q", ly.Korean, wantKorean)
	}
	wantEnglish := []string{"so so", lyrics.Break, "maybe"}
	if !reflect.DeepEqual(ly.English, wantEnglish) {
		t.Errorf("English = %q, want %q", ly.English, wantEnglish)
	}
}

func TestColorCodedLyricsTitleOverride(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{
		"/2012/02/snsd-gee": colorCodedTablePage,
	})
	f := newColorCoded(t, srv.URL, nil)

	ly, err := f.Lyrics(context.Background(), "2012/02/snsd-gee", "My Title")
	if err != nil {
		t.Fatalf("Lyrics failed: %v", err)
	}
	if ly.Title != "My Title" {
		t.Errorf("expected the given title to win, got %q", ly.Title)
	}
}

func TestColorCodedLyricsNoColumns(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{
		"/empty": "<html><body><p>nothing here</p></body></html>",
	})
	f := newColorCoded(t, srv.URL, nil)

	if _, err := f.Lyrics(context.Background(), "empty", ""); err == nil {
		t.Fatal("expected an error for a page without language columns")
	}
}

func TestColorCodedSearch(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{
		"/": `<html><body>
<h2 class="entry-title"><a href="https://colorcodedlyrics.com/2016/04/twice-cheer-up">TWICE - Cheer Up</a></h2>
<h2 class="entry-title"><a href="https://colorcodedlyrics.com/2016/10/twice-tt">TWICE - TT</a></h2>
</body></html>`,
	})
	f := newColorCoded(t, srv.URL, nil)

	results, err := f.Search(context.Background(), "twice", "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	want := []Result{
		{Song: "TWICE - Cheer Up", Link: "2016/04/twice-cheer-up"},
		{Song: "TWICE - TT", Link: "2016/10/twice-tt"},
	}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("Search = %+v, want %+v", results, want)
	}
}

func TestColorCodedIndex(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{
		"/2016/04/twice-lyrics-index": `<html><body><table><tr>
<td><img title="Page Two" src="x.jpg">
<a href="/2016/10/twice-tt">TT</a>
<a href="/2016/10/twice-1-to-10">One in a Million</a>
</td>
</tr></table></body></html>`,
	})
	f := newColorCoded(t, srv.URL, map[string]string{"twice": "2016/04/twice-lyrics-index"})

	results, err := f.Index(context.Background(), "TWICE")
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	want := []Result{
		{Album: "Page Two", Song: "TT", Link: "2016/10/twice-tt"},
		{Album: "Page Two", Song: "One in a Million", Link: "2016/10/twice-1-to-10"},
	}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("Index = %+v, want %+v", results, want)
	}
}

func TestColorCodedIndexUnknownArtist(t *testing.T) {
	f := newColorCoded(t, "https://example.com", nil)
	if _, err := f.Index(context.Background(), "nobody"); err == nil {
		t.Fatal("expected an error for an artist without an index")
	}
}

func TestColorCodedIndexArtistNormalization(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{
		"/2018/05/g-dle-lyrics-index": "<html><body><table></table></body></html>",
	})
	f := newColorCoded(t, srv.URL, map[string]string{"gidle": "2018/05/g-dle-lyrics-index"})

	// Punctuation, spaces and case are stripped from the artist name
	if _, err := f.Index(context.Background(), "(G)I-DLE"); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
}

const klyricsPage = `<html><body><div class="td-post-content">
<h2>TWICE TT Hangul</h2>
<p>바 바<br>바</p>
<p>둘째</p>
<h2>TWICE TT English Translation</h2>
<p>ba ba<br>ba</p>
<h2>Unrelated Section</h2>
<p>ignored</p>
</div></body></html>`

func TestKlyricsLyrics(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{"/twice-tt-lyrics": klyricsPage})
	f := &Klyrics{client: newTestClient(t, srv.URL)}

	ly, err := f.Lyrics(context.Background(), "twice-tt-lyrics", "")
	if err != nil {
		t.Fatalf("Lyrics failed: %v", err)
	}

	if ly.Title != "TWICE TT" {
		t.Errorf("unexpected title %q", ly.Title)
	}
	wantKorean := []string{"바 바", "바", lyrics.Break, "둘째", lyrics.Break}
	if !reflect.DeepEqual(ly.Korean, wantKorean) {
		t.Errorf("Korean = %q, want %q", ly.Korean, wantKorean)
	}
	wantEnglish := []string{"ba ba", "ba", lyrics.Break}
	if !reflect.DeepEqual(ly.English, wantEnglish) {
		t.Errorf("English = %q, want %q", ly.English, wantEnglish)
	}
}

func TestKlyricsIndexNotSupported(t *testing.T) {
	f := &Klyrics{client: newTestClient(t, "https://example.com")}
	if _, err := f.Index(context.Background(), "twice"); !errors.Is(err, ErrNotSupported) {
		t.Errorf("expected ErrNotSupported, got %v", err)
	}
}

const lyricsTranslatePage = `<html><body>
<li class="song-node-info-artist">Artist: IU</li>
<h2 class="title-h2">Eight</h2>
<div class="ltf">
<div class="par">So are you happy now<br>Finally happy now, are you</div>
<div class="par">I got all the time in the world</div>
</div>
</body></html>`

func TestLyricsTranslateLyrics(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{"/iu-eight": lyricsTranslatePage})
	f := &LyricsTranslate{client: newTestClient(t, srv.URL)}

	ly, err := f.Lyrics(context.Background(), "iu-eight", "")
	if err != nil {
		t.Fatalf("Lyrics failed: %v", err)
	}

	if ly.Title != "IU - Eight" {
		t.Errorf("unexpected title %q", ly.Title)
	}
	if len(ly.Korean) != 0 {
		t.Errorf("expected no Korean lyrics, got %q", ly.Korean)
	}
	wantEnglish := []string{
		"So are you happy now", "Finally happy now, are you", lyrics.Break,
		"I got all the time in the world", lyrics.Break,
	}
	if !reflect.DeepEqual(ly.English, wantEnglish) {
		t.Errorf("English = %q, want %q", ly.English, wantEnglish)
	}
}

func TestLyricsTranslateSearch(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{
		"/en/translations/0/328/iu/eight/none/0/0/0/0": `<html><body><div class="ltsearch-results-line"><table>
<tr>
<td class="ltsearch-translatenameoriginal"><a href="/en/iu-lyrics">IU</a></td>
<td class="ltsearch-translatenameoriginal"><a href="/en/eight-lyrics">Eight</a></td>
<td class="ltsearch-translatelanguages">Korean → English</td>
</tr>
<tr>
<td class="ltsearch-translatenameoriginal"><a href="/en/iu-lyrics">IU</a></td>
<td class="ltsearch-translatenameoriginal"><a href="/en/eight-lyrics-es">Eight</a></td>
<td class="ltsearch-translatelanguages">Korean → Spanish</td>
</tr>
</table></div></body></html>`,
	})
	f := &LyricsTranslate{client: newTestClient(t, srv.URL)}

	results, err := f.Search(context.Background(), "iu", "eight")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	want := []Result{{Song: "Eight", Link: "en/eight-lyrics"}}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("Search = %+v, want %+v", results, want)
	}
}

const musixMatchPage = `<html><body>
<div class="mxm-track-title"><h1><small>Lyrics</small>Spring Day</h1><h2>BTS</h2></div>
<div class="mxm-track-lyrics-container">
<div class="mxm-translatable-line-readonly"><div><div class="">보고 싶다</div><div class="">I miss you</div></div></div>
<div class="mxm-translatable-line-readonly"><div><div class=""></div><div class=""></div></div></div>
<div class="mxm-translatable-line-readonly"><div><div class="">이렇게</div></div></div>
</div>
</body></html>`

func TestMusixMatchLyrics(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{
		"/lyrics/BTS/Spring-Day/translation/english": musixMatchPage,
	})
	f := &MusixMatch{client: newTestClient(t, srv.URL)}

	ly, err := f.Lyrics(context.Background(), "lyrics/BTS/Spring-Day", "")
	if err != nil {
		t.Fatalf("Lyrics failed: %v", err)
	}

	if ly.Title != "BTS - Spring Day" {
		t.Errorf("unexpected title %q", ly.Title)
	}
	wantKorean := []string{"보고 싶다", lyrics.Break, "이렇게"}
	if !reflect.DeepEqual(ly.Korean, wantKorean) {
		t.Errorf("Korean = %q, want %q", ly.Korean, wantKorean)
	}
	// The untranslated last line is padded so the languages stay aligned
	wantEnglish := []string{"I miss you", lyrics.Break, lyrics.Break}
	if !reflect.DeepEqual(ly.English, wantEnglish) {
		t.Errorf("English = %q, want %q", ly.English, wantEnglish)
	}
}

func TestMusixMatchSearch(t *testing.T) {
	srv, _ := newSiteServer(t, map[string]string{
		"/search/spring day/tracks": `<html><body>
<a href="/lyrics/BTS/Spring-Day">Spring Day</a>
<a href="/lyrics/BTS/Spring-Day/edit">Edit</a>
<a href="/lyrics/BTS/Not-Today/add">Add</a>
<a href="/artist/BTS">BTS</a>
</body></html>`,
	})
	f := &MusixMatch{client: newTestClient(t, srv.URL)}

	results, err := f.Search(context.Background(), "spring day", "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	want := []Result{{Song: "Spring Day", Link: "lyrics/BTS/Spring-Day"}}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("Search = %+v, want %+v", results, want)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"lyrics/BTS/DNA", "lyrics/BTS/DNA/translation/english"},
		{"lyrics/BTS/DNA/", "lyrics/BTS/DNA/translation/english"},
		{"lyrics/BTS/DNA/translation/english", "lyrics/BTS/DNA/translation/english"},
	}
	for _, tt := range tests {
		if got := normalizeEndpoint(tt.endpoint); got != tt.want {
			t.Errorf("normalizeEndpoint(%q) = %q, want %q", tt.endpoint, got, tt.want)
		}
	}
}

func TestFileLyrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spring_day.txt")
	content := "\n보고 싶다\n이렇게 말하니까\n\n더 보고 싶다\n\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write lyric file: %v", err)
	}

	f := NewFile()
	ly, err := f.Lyrics(context.Background(), path, "")
	if err != nil {
		t.Fatalf("Lyrics failed: %v", err)
	}

	if ly.Title != "spring_day" {
		t.Errorf("unexpected title %q", ly.Title)
	}
	want := []string{"보고 싶다", "이렇게 말하니까", lyrics.Break, "더 보고 싶다"}
	if !reflect.DeepEqual(ly.Korean, want) {
		t.Errorf("Korean = %q, want %q", ly.Korean, want)
	}
	if !reflect.DeepEqual(ly.English, want) {
		t.Errorf("English = %q, want %q", ly.English, want)
	}
}

func TestFileSearchNotSupported(t *testing.T) {
	f := NewFile()
	if _, err := f.Search(context.Background(), "q", ""); !errors.Is(err, ErrNotSupported) {
		t.Errorf("expected ErrNotSupported, got %v", err)
	}
	if _, err := f.Index(context.Background(), "artist"); !errors.Is(err, ErrNotSupported) {
		t.Errorf("expected ErrNotSupported, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	pageCache, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	registry, err := NewRegistry(pageCache, "")
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	want := []string{"colorcodedlyrics", "file", "klyrics", "lyricstranslate", "musixmatch"}
	if got := registry.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
	if _, ok := registry.Get("klyrics"); !ok {
		t.Error("expected klyrics to be registered")
	}
	if _, ok := registry.Get("unknown"); ok {
		t.Error("did not expect an unknown site to resolve")
	}
}

func TestLoadIndexes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indexes.yml")
	data := "twice: 2020/01/custom-twice-index\nnewgroup: 2024/06/newgroup-index\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write index file: %v", err)
	}

	indexes, err := loadIndexes(path)
	if err != nil {
		t.Fatalf("loadIndexes failed: %v", err)
	}
	if indexes["twice"] != "2020/01/custom-twice-index" {
		t.Errorf("expected the file to override twice, got %q", indexes["twice"])
	}
	if indexes["newgroup"] != "2024/06/newgroup-index" {
		t.Errorf("expected the new artist to be added, got %q", indexes["newgroup"])
	}
	if indexes["blackpink"] != defaultIndexes["blackpink"] {
		t.Errorf("expected defaults to survive, got %q", indexes["blackpink"])
	}
}
