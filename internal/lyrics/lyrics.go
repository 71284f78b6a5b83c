// Package lyrics holds the lyric data model and stanza normalization.
//
// Fetched lyrics are flat per-language line lists in which a `<br/>` line
// marks a stanza boundary. Normalization turns those into per-language
// stanza lists and verifies the languages line up.
package lyrics

import (
	"strings"
)

// Break is the line marker separating stanzas in raw fetched lyrics.
const Break = "<br/>"

// Language keys
const (
	LangKorean      = "Korean"
	LangEnglish     = "English"
	LangTranslation = "Translation"
)

// Lyrics holds the raw lines fetched for a song.
type Lyrics struct {
	Title   string
	Korean  []string
	English []string
}

// ByLang returns the raw lines keyed by language name.
func (l *Lyrics) ByLang() map[string][]string {
	return map[string][]string{
		LangKorean:  l.Korean,
		LangEnglish: l.English,
	}
}

// Stanzas maps a language to its list of stanzas (each a list of lines).
type Stanzas map[string][][]string

// SplitText splits manually edited lyric text into stanzas at blank lines.
func SplitText(text string) [][]string {
	text = strings.ReplaceAll(text, "\r", "")
	var stanzas [][]string
	for _, block := range strings.Split(strings.TrimSpace(text), "\n\n") {
		var stanza []string
		for _, line := range strings.Split(block, "\n") {
			stanza = append(stanza, strings.TrimSpace(line))
		}
		stanzas = append(stanzas, stanza)
	}
	return stanzas
}
