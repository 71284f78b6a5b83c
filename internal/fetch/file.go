package fetch

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"lyricfetch/internal/lyrics"
)

// File reads lyrics from a local text file instead of a web site. Blank
// lines in the file separate stanzas. The same lines are returned for
// both languages so the file source can feed the hybrid flow on either
// side.
type File struct{}

func NewFile() *File {
	return &File{}
}

func (f *File) Name() string {
	return "file"
}

func (f *File) SongURL(endpoint string) string {
	return endpoint
}

func (f *File) Search(ctx context.Context, query, subQuery string) ([]Result, error) {
	return nil, ErrNotSupported
}

func (f *File) Index(ctx context.Context, artist string) ([]Result, error) {
	return nil, ErrNotSupported
}

func (f *File) Lyrics(ctx context.Context, endpoint, title string) (*lyrics.Lyrics, error) {
	data, err := os.ReadFile(endpoint)
	if err != nil {
		return nil, err
	}

	if title == "" {
		base := filepath.Base(endpoint)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			line = lyrics.Break
		}
		lines = append(lines, line)
	}
	// Trim leading and trailing stanza markers left by blank lines at
	// the edges of the file
	for len(lines) > 0 && lines[0] == lyrics.Break {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == lyrics.Break {
		lines = lines[:len(lines)-1]
	}

	return &lyrics.Lyrics{
		Title:   title,
		Korean:  lines,
		English: append([]string(nil), lines...),
	}, nil
}
