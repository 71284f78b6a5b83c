package update

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"
)

const githubAPI = "https://api.github.com"

// githubSource fetches releases from the project's GitHub repository.
type githubSource struct {
	apiBase string
	owner   string
	repo    string
	client  *http.Client
}

func newGitHubSource() *githubSource {
	return &githubSource{
		apiBase: githubAPI,
		owner:   "lyricfetch",
		repo:    "lyricfetch",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type githubRelease struct {
	TagName     string        `json:"tag_name"`
	Body        string        `json:"body"`
	PublishedAt time.Time     `json:"published_at"`
	Assets      []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

func (s *githubSource) get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// GitHub API requires a user agent
	req.Header.Set("User-Agent", "lyricfetch-updater")
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return resp, nil
}

// latestRelease fetches the most recent non-prerelease.
func (s *githubSource) latestRelease() (*githubRelease, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", s.apiBase, s.owner, s.repo)
	resp, err := s.get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}
	return &release, nil
}

// platformAsset picks the tar.gz archive for the running platform.
// Release archives are named lyricfetch_<version>_<os>_<arch>.tar.gz.
func (s *githubSource) platformAsset(release *githubRelease) (*githubAsset, error) {
	suffix := fmt.Sprintf("_%s_%s.tar.gz", runtime.GOOS, runtime.GOARCH)
	for i := range release.Assets {
		if strings.HasSuffix(release.Assets[i].Name, suffix) {
			return &release.Assets[i], nil
		}
	}
	return nil, fmt.Errorf("no release asset for %s/%s", runtime.GOOS, runtime.GOARCH)
}

// checksums downloads and parses the release's checksums.txt, mapping
// asset names to their SHA256 hex digests. A missing checksums file is
// not an error; verification is skipped.
func (s *githubSource) checksums(release *githubRelease) (map[string]string, error) {
	var url string
	for _, asset := range release.Assets {
		if asset.Name == "checksums.txt" {
			url = asset.BrowserDownloadURL
			break
		}
	}
	if url == "" {
		return nil, nil
	}

	resp, err := s.get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checksums: %w", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read checksums: %w", err)
	}

	sums := make(map[string]string)
	for _, line := range strings.Split(string(content), "\n") {
		if parts := strings.Fields(line); len(parts) == 2 {
			sums[parts[1]] = parts[0]
		}
	}
	return sums, nil
}

// download fetches an asset's archive into memory.
func (s *githubSource) download(asset *githubAsset) ([]byte, error) {
	resp, err := s.get(asset.BrowserDownloadURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", asset.Name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", asset.Name, err)
	}
	return data, nil
}
