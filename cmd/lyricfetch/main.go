// Package main is the lyric fetcher command line interface
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"lyricfetch/internal/cache"
	"lyricfetch/internal/config"
	"lyricfetch/internal/database"
	"lyricfetch/internal/fetch"
	"lyricfetch/internal/logging"
	"lyricfetch/internal/lyrics"
	"lyricfetch/internal/render"
	"lyricfetch/internal/update"
	"lyricfetch/internal/version"
)

const usage = `Usage: lyricfetch <command> [flags]

Commands:
  list      list the supported lyric sites
  search    search a site for songs
  index     list songs from an artist's index page
  get       fetch a song and write the side by side lyric page
  hybrid    combine Korean and English lyrics from two sites
  file      render lyrics from a local text file
  history   show recently fetched songs
  update    update to the latest released version
  version   print version information

Run 'lyricfetch <command> -h' for command flags.
`

func main() {
	if err := godotenv.Load(); err != nil && os.Getenv("DEBUG") == "true" {
		fmt.Fprintf(os.Stderr, "No .env file found or error loading it: %v\n", err)
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "list":
		err = runList(args)
	case "search":
		err = runSearch(args)
	case "index":
		err = runIndex(args)
	case "get":
		err = runGet(args)
	case "hybrid":
		err = runHybrid(args)
	case "file":
		err = runFile(args)
	case "history":
		err = runHistory(args)
	case "update":
		err = runUpdate(args)
	case "version":
		info := version.Get()
		fmt.Printf("lyricfetch version %s\n", info.Version)
		fmt.Printf("  commit: %s\n", info.Commit)
		fmt.Printf("  built: %s\n", info.BuildDate)
		fmt.Printf("  go: %s\n", info.GoVersion)
		fmt.Printf("  platform: %s\n", info.Platform)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the fetcher registry.
func setup() (*config.Config, *fetch.Registry, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Verbosity > 0 && logging.Verbosity() == 0 {
		logging.SetVerbosity(cfg.Verbosity)
	}
	pageCache, err := cache.New(cfg.CacheDir)
	if err != nil {
		return nil, nil, err
	}
	registry, err := fetch.NewRegistry(pageCache, cfg.IndexFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, registry, nil
}

func fetcherFor(registry *fetch.Registry, site string) (fetch.Fetcher, error) {
	f, ok := registry.Get(site)
	if !ok {
		return nil, fmt.Errorf("unknown site %q, try 'lyricfetch list'", site)
	}
	return f, nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, registry, err := setup()
	if err != nil {
		return err
	}
	for _, name := range registry.Names() {
		fmt.Println(name)
	}
	return nil
}

func printResults(results []fetch.Result) {
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ALBUM\tSONG\tENDPOINT")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Album, r.Song, r.Link)
	}
	w.Flush()
}

func runSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	site := fs.String("s", config.DefaultSite, "site to search")
	subQuery := fs.String("sub", "", "sub query (song, for sites that search by artist)")
	verbosityFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("search takes exactly one query argument")
	}

	_, registry, err := setup()
	if err != nil {
		return err
	}
	f, err := fetcherFor(registry, *site)
	if err != nil {
		return err
	}

	results, err := f.Search(context.Background(), fs.Arg(0), *subQuery)
	if err != nil {
		return err
	}
	printResults(results)
	return nil
}

func runIndex(args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	site := fs.String("s", config.DefaultSite, "site to use")
	albumFilter := fs.String("af", "", "only show albums matching this regular expression")
	listAlbums := fs.Bool("L", false, "list album names instead of song links")
	verbosityFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("index takes exactly one artist argument")
	}

	_, registry, err := setup()
	if err != nil {
		return err
	}
	f, err := fetcherFor(registry, *site)
	if err != nil {
		return err
	}

	results, err := f.Index(context.Background(), fs.Arg(0))
	if err != nil {
		return err
	}

	if *albumFilter != "" {
		pat, err := regexp.Compile(*albumFilter)
		if err != nil {
			return fmt.Errorf("invalid album filter: %w", err)
		}
		filtered := results[:0]
		for _, r := range results {
			if r.Album != "" && pat.MatchString(r.Album) {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	if *listAlbums {
		seen := make(map[string]bool)
		var albums []string
		for _, r := range results {
			if r.Album != "" && !seen[r.Album] {
				seen[r.Album] = true
				albums = append(albums, r.Album)
			}
		}
		sort.Strings(albums)
		for _, album := range albums {
			fmt.Println(album)
		}
		return nil
	}

	printResults(results)
	return nil
}

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	site := fs.String("s", config.DefaultSite, "site to fetch from")
	title := fs.String("t", "", "song title (overrides the page title)")
	ignore := fs.Bool("i", false, "ignore stanza count mismatches")
	replace := fs.Bool("R", false, "drop the page's stanza breaks, keep only -kb/-eb")
	koreanBreaks := fs.String("kb", "", "extra Korean stanza breaks, comma separated line indices")
	englishBreaks := fs.String("eb", "", "extra English stanza breaks, comma separated line indices")
	var koreanExtra, englishExtra lineList
	fs.Var(&koreanExtra, "kx", "extra line appended to the Korean lyrics (repeatable)")
	fs.Var(&englishExtra, "ex", "extra line appended to the English lyrics (repeatable)")
	outDir := fs.String("o", "", "output directory (defaults to configuration)")
	verbosityFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("get takes exactly one endpoint argument")
	}

	cfg, registry, err := setup()
	if err != nil {
		return err
	}
	f, err := fetcherFor(registry, *site)
	if err != nil {
		return err
	}

	ly, err := f.Lyrics(context.Background(), fs.Arg(0), *title)
	if err != nil {
		return err
	}

	opts := lyrics.NormalizeOptions{
		IgnoreMismatch: *ignore,
		ReplaceBreaks:  *replace,
		ExtraLines:     extraLines(koreanExtra, englishExtra),
	}
	if opts.ExtraBreaks, err = parseBreaks(*koreanBreaks, *englishBreaks); err != nil {
		return err
	}

	return writeSong(ly, opts, outputDir(cfg, *outDir))
}

func runHybrid(args []string) error {
	fs := flag.NewFlagSet("hybrid", flag.ExitOnError)
	koreanSite := fs.String("ks", config.DefaultSite, "site for the Korean lyrics")
	koreanEndpoint := fs.String("ke", "", "endpoint for the Korean lyrics")
	englishSite := fs.String("es", "lyricstranslate", "site for the English translation")
	englishEndpoint := fs.String("ee", "", "endpoint for the English translation")
	title := fs.String("t", "", "song title (overrides the page title)")
	ignore := fs.Bool("i", false, "ignore stanza count mismatches")
	koreanBreaks := fs.String("kb", "", "extra Korean stanza breaks, comma separated line indices")
	englishBreaks := fs.String("eb", "", "extra English stanza breaks, comma separated line indices")
	var koreanExtra, englishExtra lineList
	fs.Var(&koreanExtra, "kx", "extra line appended to the Korean lyrics (repeatable)")
	fs.Var(&englishExtra, "ex", "extra line appended to the English lyrics (repeatable)")
	outDir := fs.String("o", "", "output directory (defaults to configuration)")
	verbosityFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *koreanEndpoint == "" || *englishEndpoint == "" {
		return errors.New("hybrid requires both -ke and -ee endpoints")
	}

	cfg, registry, err := setup()
	if err != nil {
		return err
	}
	kf, err := fetcherFor(registry, *koreanSite)
	if err != nil {
		return err
	}
	ef, err := fetcherFor(registry, *englishSite)
	if err != nil {
		return err
	}

	ctx := context.Background()
	korean, koreanTitle, err := fetch.Korean(ctx, kf, *koreanEndpoint)
	if err != nil {
		return fmt.Errorf("failed to fetch Korean lyrics: %w", err)
	}
	english, englishTitle, err := fetch.English(ctx, ef, *englishEndpoint)
	if err != nil {
		return fmt.Errorf("failed to fetch English translation: %w", err)
	}

	songTitle := *title
	if songTitle == "" {
		songTitle = koreanTitle
	}
	if songTitle == "" {
		songTitle = englishTitle
	}

	ly := &lyrics.Lyrics{Title: songTitle, Korean: korean, English: english}
	opts := lyrics.NormalizeOptions{
		IgnoreMismatch: *ignore,
		ExtraLines:     extraLines(koreanExtra, englishExtra),
	}
	if opts.ExtraBreaks, err = parseBreaks(*koreanBreaks, *englishBreaks); err != nil {
		return err
	}

	return writeSong(ly, opts, outputDir(cfg, *outDir))
}

func runFile(args []string) error {
	fs := flag.NewFlagSet("file", flag.ExitOnError)
	title := fs.String("t", "", "song title (defaults to the file name)")
	outDir := fs.String("o", "", "output directory (defaults to configuration)")
	verbosityFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("file takes exactly one path argument")
	}

	cfg, registry, err := setup()
	if err != nil {
		return err
	}
	f, err := fetcherFor(registry, "file")
	if err != nil {
		return err
	}

	ly, err := f.Lyrics(context.Background(), fs.Arg(0), *title)
	if err != nil {
		return err
	}
	return writeSong(ly, lyrics.NormalizeOptions{}, outputDir(cfg, *outDir))
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("n", 25, "number of fetches to show")
	verbosityFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := database.Initialize(cfg.DatabasePath); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	fetches, err := database.RecentFetches(*limit)
	if err != nil {
		return err
	}
	if len(fetches) == 0 {
		fmt.Println("No fetches recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "FETCHED\tSITE\tTITLE\tENDPOINT")
	for _, f := range fetches {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.FetchedAt.Format("2006-01-02 15:04"), f.Site, f.Title.String, f.Endpoint)
	}
	return w.Flush()
}

func runUpdate(args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	checkOnly := fs.Bool("n", false, "only check for an update, do not apply it")
	verbosityFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc := update.NewService("lyricfetch")
	info, err := svc.Check()
	if err != nil {
		return err
	}

	if !info.Available {
		fmt.Printf("Already up to date (version %s)\n", info.CurrentVersion)
		return nil
	}
	fmt.Printf("Update available: %s -> %s\n", info.CurrentVersion, info.LatestVersion)
	if *checkOnly {
		return nil
	}

	if err := svc.Apply(); err != nil {
		return err
	}
	fmt.Printf("Updated to version %s\n", info.LatestVersion)
	return nil
}

func writeSong(ly *lyrics.Lyrics, opts lyrics.NormalizeOptions, outDir string) error {
	stanzas, err := lyrics.Normalize(ly, opts)
	if err != nil {
		var mismatch *lyrics.MismatchError
		if errors.As(err, &mismatch) {
			printMismatch(mismatch)
		}
		return err
	}

	path, err := render.NewSong(ly.Title, stanzas).WriteFile(outDir)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// printMismatch dumps the per-language stanza text so break indices for
// -kb/-eb can be picked out.
func printMismatch(mismatch *lyrics.MismatchError) {
	langs := make([]string, 0, len(mismatch.Text))
	for lang := range mismatch.Text {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		fmt.Fprintf(os.Stderr, "--- %s (%d stanzas) ---\n%s\n\n", lang, mismatch.Counts[lang], mismatch.Text[lang])
	}
}

func outputDir(cfg *config.Config, override string) string {
	if override != "" {
		return override
	}
	return cfg.OutputDir
}

// lineList collects the values of a repeatable flag.
type lineList []string

func (l *lineList) String() string { return strings.Join(*l, ", ") }

func (l *lineList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// extraLines builds the extra line map from the -kx and -ex flags.
func extraLines(korean, english lineList) map[string][]string {
	if len(korean) == 0 && len(english) == 0 {
		return nil
	}
	extra := make(map[string][]string)
	if len(korean) > 0 {
		extra[lyrics.LangKorean] = korean
	}
	if len(english) > 0 {
		extra[lyrics.LangEnglish] = english
	}
	return extra
}

// parseBreaks builds the extra break map from the -kb and -eb flags.
func parseBreaks(korean, english string) (map[string][]int, error) {
	breaks := make(map[string][]int)
	for lang, value := range map[string]string{
		lyrics.LangKorean:  korean,
		lyrics.LangEnglish: english,
	} {
		if value == "" {
			continue
		}
		for _, part := range strings.Split(value, ",") {
			idx, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("invalid break index %q: %w", part, err)
			}
			breaks[lang] = append(breaks[lang], idx)
		}
	}
	if len(breaks) == 0 {
		return nil, nil
	}
	return breaks, nil
}

// verbosityFlags wires -v and -vv into every subcommand.
func verbosityFlags(fs *flag.FlagSet) {
	fs.BoolFunc("v", "info logging", func(string) error {
		logging.SetVerbosity(1)
		return nil
	})
	fs.BoolFunc("vv", "debug logging", func(string) error {
		logging.SetVerbosity(2)
		return nil
	})
}
