package fetch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultIndexes maps normalized artist names to their colorcodedlyrics
// index page endpoints.
var defaultIndexes = map[string]string{
	"redvelvet": "2015/03/red-velvet-lyrics-index",
	"gidle":     "2018/05/g-dle-lyrics-index",
	"wekimeki":  "2017/09/weki-meki-wikimiki-lyrics-index",
	"blackpink": "2017/09/blackpink-beullaegpingkeu-lyrics-index",
	"ioi":       "2016/05/ioi-lyrics-index",
	"twice":     "2016/04/twice-lyrics-index",
	"mamamoo":   "2016/04/mamamoo-lyric-index",
	"gfriend":   "2016/02/gfriend-yeojachingu-lyrics-index",
	"2ne1":      "2012/02/2ne1_lyrics_index",
	"snsd":      "2012/02/snsd_lyrics_index",
	"missa":     "2011/11/miss_a_lyrics_index",
	"apink":     "2011/11/a_pink_index",
	"momoland":  "2018/02/momoland-momolaendeu-lyrics-index",
}

// loadIndexes returns the artist index table, merging entries from the
// given YAML file (artist: endpoint) over the built-in defaults. An empty
// path returns the defaults.
func loadIndexes(path string) (map[string]string, error) {
	indexes := make(map[string]string, len(defaultIndexes))
	for artist, endpoint := range defaultIndexes {
		indexes[artist] = endpoint
	}
	if path == "" {
		return indexes, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	overrides := make(map[string]string)
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse index file %s: %w", path, err)
	}
	for artist, endpoint := range overrides {
		indexes[artist] = endpoint
	}
	return indexes, nil
}
