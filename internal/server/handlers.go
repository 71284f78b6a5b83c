package server

import (
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/gorilla/sessions"

	"lyricfetch/internal/config"
	"lyricfetch/internal/database"
	"lyricfetch/internal/fetch"
	"lyricfetch/internal/logging"
	"lyricfetch/internal/lyrics"
	"lyricfetch/internal/render"
)

type searchPage struct {
	Flashes  []interface{}
	Query    string
	SubQuery string
	Site     string
	Sites    []string
	Index    bool
	Searched bool
	Error    string
	Results  []fetch.Result
	History  []database.FetchHistory
}

type errorPage struct {
	Flashes []interface{}
	Message string
}

type reformatLang struct {
	Name  string
	Count int
	Text  string
}

type reformatPage struct {
	Flashes   []interface{}
	SongTitle string
	SongURL   string
	Rows      int
	Langs     []reformatLang
}

func (s *Server) session(r *http.Request) *sessions.Session {
	session, err := s.sessionStore.Get(r, sessionName)
	if err != nil {
		// Get returns a fresh session alongside the error
		logging.Debug("Session decode failed: %v", err)
	}
	return session
}

func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data interface{}) {
	tmpl, ok := s.templates[name]
	if !ok {
		logging.Error("Unknown template %q", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		logging.Error("Failed to render %s: %v", name, err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, status int, message string) {
	s.renderPage(w, status, "error", &errorPage{Message: message})
}

// handleHome redirects the root path to the search page
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/search", http.StatusFound)
}

// siteOrDefault resolves the site to use: explicit parameter, then the
// last site used in this session, then the configured default.
func (s *Server) siteOrDefault(session *sessions.Session, site string) string {
	if site != "" {
		return site
	}
	if last, ok := session.Values["site"].(string); ok && last != "" {
		return last
	}
	return config.DefaultSite
}

// handleSearch renders the search form and performs searches. Submitting
// the form posts here and redirects to a bookmarkable GET URL.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			s.renderError(w, http.StatusBadRequest, "Invalid form submission")
			return
		}

		site := s.siteOrDefault(session, r.PostFormValue("site"))
		session.Values["site"] = site
		if err := session.Save(r, w); err != nil {
			logging.Warning("Failed to save session: %v", err)
		}

		params := url.Values{}
		params.Set("q", r.PostFormValue("q"))
		if subq := r.PostFormValue("subq"); subq != "" {
			params.Set("subq", subq)
		}
		params.Set("site", site)
		if r.PostFormValue("index") != "" {
			params.Set("index", "1")
		}
		http.Redirect(w, r, "/search?"+params.Encode(), http.StatusSeeOther)
		return
	}

	query := r.URL.Query()
	page := &searchPage{
		Query:    query.Get("q"),
		SubQuery: query.Get("subq"),
		Site:     s.siteOrDefault(session, query.Get("site")),
		Sites:    s.registry.Names(),
		Index:    query.Get("index") != "",
	}

	page.Flashes = session.Flashes()
	if len(page.Flashes) > 0 {
		if err := session.Save(r, w); err != nil {
			logging.Warning("Failed to save session: %v", err)
		}
	}

	if history, err := database.RecentFetches(10); err == nil {
		page.History = history
	}

	if page.Query == "" {
		page.Error = "You must provide a valid query."
	} else if fetcher, ok := s.registry.Get(page.Site); !ok {
		page.Error = "Invalid site " + page.Site + "."
		s.renderPage(w, http.StatusBadRequest, "search", page)
		return
	} else {
		var results []fetch.Result
		var err error
		if page.Index {
			results, err = fetcher.Index(r.Context(), page.Query)
		} else {
			results, err = fetcher.Search(r.Context(), page.Query, page.SubQuery)
		}
		if errors.Is(err, fetch.ErrNotSupported) {
			what := "search"
			if page.Index {
				what = "an artist index"
			}
			s.renderError(w, http.StatusNotImplemented, page.Site+" does not support "+what)
			return
		}
		if err != nil {
			logging.Error("Search on %s failed: %v", page.Site, err)
			s.renderError(w, http.StatusBadGateway, "Search failed: "+err.Error())
			return
		}
		page.Searched = true
		page.Results = results
		if len(results) == 0 {
			page.Error = "No results."
		}
	}

	s.renderPage(w, http.StatusOK, "search", page)
}

// handleSong fetches a song and renders the side by side lyric page. A
// stanza mismatch renders the fix-up form instead.
func (s *Server) handleSong(w http.ResponseWriter, r *http.Request) {
	endpoint := strings.TrimPrefix(r.URL.Path, "/song/")
	if endpoint == "" {
		http.NotFound(w, r)
		return
	}

	session := s.session(r)
	query := r.URL.Query()
	site := s.siteOrDefault(session, query.Get("site"))

	fetcher, ok := s.registry.Get(site)
	if !ok {
		s.renderError(w, http.StatusBadRequest, "Unknown site "+site)
		return
	}

	ly, err := fetcher.Lyrics(r.Context(), endpoint, query.Get("title"))
	if err != nil {
		logging.Error("Fetch from %s failed: %v", site, err)
		s.renderError(w, http.StatusBadGateway, "Failed to fetch lyrics: "+err.Error())
		return
	}
	if ly.Title == "" {
		ly.Title = endpoint
	}

	stanzas, err := lyrics.Normalize(ly, lyrics.NormalizeOptions{
		IgnoreMismatch: query.Get("ignore_len") != "",
	})
	if err != nil {
		var mismatch *lyrics.MismatchError
		if errors.As(err, &mismatch) {
			s.renderReformat(w, ly.Title, fetcher.SongURL(endpoint), mismatch)
			return
		}
		s.renderError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := database.RecordFetch(site, endpoint, ly.Title); err != nil {
		logging.Debug("Failed to record fetch history: %v", err)
	}

	s.renderSong(w, ly.Title, stanzas)
}

func (s *Server) renderReformat(w http.ResponseWriter, title, songURL string, mismatch *lyrics.MismatchError) {
	page := &reformatPage{
		SongTitle: title,
		SongURL:   songURL,
		Rows:      mismatch.MaxLines + 1,
	}

	langs := make([]string, 0, len(mismatch.Text))
	for lang := range mismatch.Text {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		page.Langs = append(page.Langs, reformatLang{
			Name:  lang,
			Count: mismatch.Counts[lang],
			Text:  mismatch.Text[lang],
		})
	}

	s.renderPage(w, http.StatusOK, "reformat", page)
}

// handleReformatted renders the song page from manually fixed up stanza
// text submitted by the reformat form.
func (s *Server) handleReformatted(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderError(w, http.StatusBadRequest, "Invalid form submission")
		return
	}

	stanzas := make(lyrics.Stanzas)
	for key, values := range r.PostForm {
		if !strings.HasPrefix(key, "text_") || len(values) == 0 {
			continue
		}
		lang := strings.TrimPrefix(key, "text_")
		stanzas[lang] = lyrics.SplitText(values[0])
	}
	if len(stanzas) == 0 {
		s.renderError(w, http.StatusBadRequest, "No lyric text submitted")
		return
	}

	s.renderSong(w, r.PostFormValue("title"), stanzas)
}

func (s *Server) renderSong(w http.ResponseWriter, title string, stanzas lyrics.Stanzas) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.NewSong(title, stanzas).Render(w); err != nil {
		logging.Error("Failed to render song page: %v", err)
	}
}
