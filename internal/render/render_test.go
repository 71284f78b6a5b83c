package render

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"lyricfetch/internal/lyrics"
)

func testStanzas() lyrics.Stanzas {
	return lyrics.Stanzas{
		lyrics.LangKorean: {
			{"보고 싶다", "이렇게 말하니까"},
			{"더 보고 싶다"},
		},
		lyrics.LangEnglish: {
			{"I miss you", "Saying this"},
			{"I miss you more"},
		},
	}
}

func TestNewSong(t *testing.T) {
	song := NewSong("BTS - Spring Day", testStanzas())

	if song.Title != "BTS - Spring Day" {
		t.Errorf("unexpected title %q", song.Title)
	}
	wantLangs := []string{lyrics.LangKorean, lyrics.LangTranslation}
	if !reflect.DeepEqual(song.Langs, wantLangs) {
		t.Errorf("Langs = %v, want %v", song.Langs, wantLangs)
	}
	if len(song.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(song.Rows))
	}
	if !reflect.DeepEqual(song.Rows[0][0], []string{"보고 싶다", "이렇게 말하니까"}) {
		t.Errorf("unexpected first Korean stanza %q", song.Rows[0][0])
	}
	if !reflect.DeepEqual(song.Rows[1][1], []string{"I miss you more"}) {
		t.Errorf("unexpected second translation stanza %q", song.Rows[1][1])
	}
}

func TestNewSongPadsShortLanguages(t *testing.T) {
	st := lyrics.Stanzas{
		lyrics.LangKorean:  {{"하나"}, {"둘"}},
		lyrics.LangEnglish: {{"one"}},
	}
	song := NewSong("Title", st)

	if len(song.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(song.Rows))
	}
	if len(song.Rows[1][1]) != 0 {
		t.Errorf("expected the missing stanza to be empty, got %q", song.Rows[1][1])
	}
}

func TestRender(t *testing.T) {
	song := NewSong("BTS - Spring Day", testStanzas())

	var buf bytes.Buffer
	if err := song.Render(&buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"<title>BTS - Spring Day</title>",
		"<th>Korean</th>",
		"<th>Translation</th>",
		"보고 싶다<br>이렇게 말하니까",
		"I miss you more",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"TWICE - TT", "lyrics_TWICE_-_TT.html"},
		{"Am I Wrong?", "lyrics_Am_I_Wrong.html"},
		{"Simple", "lyrics_Simple.html"},
	}
	for _, tt := range tests {
		if got := FileName(tt.title); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	song := NewSong("TWICE - TT", testStanzas())

	path, err := song.WriteFile(dir)
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if filepath.Base(path) != "lyrics_TWICE_-_TT.html" {
		t.Errorf("unexpected file name %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written file: %v", err)
	}
	if !strings.Contains(string(data), "보고 싶다") {
		t.Error("written file missing lyric content")
	}
}
