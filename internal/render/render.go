// Package render turns normalized stanzas into the side by side lyric
// page and writes exported song files.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lyricfetch/internal/lyrics"
)

//go:embed song.html
var songFS embed.FS

var songTemplate = template.Must(template.ParseFS(songFS, "song.html"))

// Song is the display model for a lyric page: one column per language,
// one row per stanza.
type Song struct {
	Title string
	Langs []string
	// Rows holds one stanza per language, aligned by stanza index.
	Rows [][][]string
}

// langOrder puts Korean before its translation; any other language sorts
// after them.
func langOrder(lang string) int {
	switch lang {
	case lyrics.LangKorean:
		return 0
	case lyrics.LangTranslation:
		return 1
	}
	return 2
}

// NewSong builds the display model from normalized stanzas.
func NewSong(title string, st lyrics.Stanzas) *Song {
	display, count := lyrics.ForDisplay(st)

	langs := make([]string, 0, len(display))
	for lang := range display {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		if a, b := langOrder(langs[i]), langOrder(langs[j]); a != b {
			return a < b
		}
		return langs[i] < langs[j]
	})

	rows := make([][][]string, count)
	for i := range rows {
		row := make([][]string, len(langs))
		for j, lang := range langs {
			row[j] = display[lang][i]
		}
		rows[i] = row
	}

	return &Song{Title: title, Langs: langs, Rows: rows}
}

// Render writes the song page HTML.
func (s *Song) Render(w io.Writer) error {
	if err := songTemplate.Execute(w, s); err != nil {
		return fmt.Errorf("failed to render song page: %w", err)
	}
	return nil
}

// FileName returns the export file name for a song title.
func FileName(title string) string {
	name := strings.ReplaceAll(title, " ", "_")
	name = strings.ReplaceAll(name, "?", "")
	return "lyrics_" + name + ".html"
}

// WriteFile renders the song page into the output directory and returns
// the written path.
func (s *Song) WriteFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, FileName(s.Title))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create song file: %w", err)
	}
	defer f.Close()

	if err := s.Render(f); err != nil {
		return "", err
	}
	return path, nil
}
