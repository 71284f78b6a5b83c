package lyrics

import (
	"fmt"
	"sort"
	"strings"

	"lyricfetch/internal/logging"
)

// NormalizeOptions adjust how raw lines are split into stanzas.
type NormalizeOptions struct {
	// ExtraBreaks lists additional line indices (per language) at which a
	// new stanza starts. Negative indices count from the end.
	ExtraBreaks map[string][]int

	// ExtraLines are appended to a language's lines before splitting.
	ExtraLines map[string][]string

	// ReplaceBreaks drops the pre-existing stanza break markers, so only
	// ExtraBreaks apply.
	ReplaceBreaks bool

	// IgnoreMismatch logs a warning instead of failing when languages end
	// up with different stanza counts.
	IgnoreMismatch bool
}

// MismatchError reports languages whose stanza counts differ after
// normalization. It carries the joined stanza text so the lyrics can be
// fixed up by hand.
type MismatchError struct {
	// Counts is the stanza count per language.
	Counts map[string]int
	// Text is the per-language stanza text, stanzas separated by blank lines.
	Text map[string]string
	// MaxLines is the largest line count among the language texts.
	MaxLines int
}

func (e *MismatchError) Error() string {
	langs := make([]string, 0, len(e.Counts))
	for lang := range e.Counts {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	parts := make([]string, 0, len(langs))
	for _, lang := range langs {
		parts = append(parts, fmt.Sprintf("%s=%d", lang, e.Counts[lang]))
	}
	return "stanza lengths don't match: " + strings.Join(parts, ", ")
}

func newMismatchError(stanzas Stanzas) *MismatchError {
	err := &MismatchError{
		Counts: make(map[string]int, len(stanzas)),
		Text:   make(map[string]string, len(stanzas)),
	}
	for lang, langStanzas := range stanzas {
		err.Counts[lang] = len(langStanzas)
		joined := make([]string, 0, len(langStanzas))
		for _, stanza := range langStanzas {
			joined = append(joined, strings.Join(stanza, "\n"))
		}
		text := strings.Join(joined, "\n\n")
		err.Text[lang] = text
		if lines := strings.Count(text, "\n"); lines > err.MaxLines {
			err.MaxLines = lines
		}
	}
	return err
}

// Normalize splits the raw per-language lines into stanzas. Stanza breaks
// occur at Break marker lines and at the configured extra break indices.
// All languages must produce the same number of stanzas unless mismatches
// are ignored.
func Normalize(ly *Lyrics, opts NormalizeOptions) (Stanzas, error) {
	stanzas := make(Stanzas)

	for lang, lines := range ly.ByLang() {
		if opts.ReplaceBreaks {
			kept := make([]string, 0, len(lines))
			for _, line := range lines {
				if line != Break {
					kept = append(kept, line)
				}
			}
			lines = kept
		}

		breakAt := make(map[int]bool)
		for _, idx := range opts.ExtraBreaks[lang] {
			if idx < 0 {
				idx += len(lines)
			}
			breakAt[idx] = true
		}

		all := lines
		if extra := opts.ExtraLines[lang]; len(extra) > 0 {
			all = append(append([]string{}, lines...), extra...)
		}

		langStanzas := [][]string{}
		var stanza []string
		for i, line := range all {
			line = strings.TrimSpace(line)
			isBreak := line == Break
			switch {
			case isBreak || breakAt[i]:
				if len(stanza) > 0 {
					langStanzas = append(langStanzas, stanza)
					stanza = nil
				}
				if !isBreak && line != "" {
					stanza = append(stanza, line)
				}
			case line != "":
				stanza = append(stanza, line)
			}
		}
		if len(stanza) > 0 {
			langStanzas = append(langStanzas, stanza)
		}
		stanzas[lang] = langStanzas
	}

	counts := make(map[int]bool)
	for _, langStanzas := range stanzas {
		counts[len(langStanzas)] = true
	}
	if len(counts) > 1 {
		err := newMismatchError(stanzas)
		if !opts.IgnoreMismatch {
			return nil, err
		}
		logging.Warning("%v", err)
	}

	return stanzas, nil
}

// ForDisplay prepares stanzas for rendering: English becomes Translation
// and every language is padded with empty stanzas to the same count.
// It returns the padded stanzas and the stanza count.
func ForDisplay(st Stanzas) (Stanzas, int) {
	display := make(Stanzas, len(st))
	maxStanzas := 0
	for lang, langStanzas := range st {
		if lang == LangEnglish {
			lang = LangTranslation
		}
		display[lang] = langStanzas
		if len(langStanzas) > maxStanzas {
			maxStanzas = len(langStanzas)
		}
	}
	for lang, langStanzas := range display {
		for len(langStanzas) < maxStanzas {
			langStanzas = append(langStanzas, []string{})
		}
		display[lang] = langStanzas
	}
	return display, maxStanzas
}
