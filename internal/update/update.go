// Package update lets the installed binaries replace themselves with the
// latest GitHub release.
package update

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/minio/selfupdate"

	"lyricfetch/internal/logging"
	"lyricfetch/internal/version"
)

// Info describes the outcome of an update check.
type Info struct {
	CurrentVersion string    `json:"current_version"`
	LatestVersion  string    `json:"latest_version"`
	Available      bool      `json:"available"`
	ReleaseNotes   string    `json:"release_notes,omitempty"`
	ReleaseDate    time.Time `json:"release_date,omitempty"`
}

// Service checks for and applies updates for one binary.
type Service struct {
	binary  string
	current string
	source  *githubSource
}

// NewService creates an update service for the named binary, for example
// "lyricfetch" or "lyricfetch-server".
func NewService(binary string) *Service {
	return &Service{
		binary:  binary,
		current: version.Get().Version,
		source:  newGitHubSource(),
	}
}

// Check looks up the latest release and reports whether it is newer than
// the running version.
func (s *Service) Check() (*Info, error) {
	release, err := s.source.latestRelease()
	if err != nil {
		return nil, err
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	return &Info{
		CurrentVersion: s.current,
		LatestVersion:  latest,
		Available:      s.isNewer(latest),
		ReleaseNotes:   release.Body,
		ReleaseDate:    release.PublishedAt,
	}, nil
}

// Apply downloads the latest release, verifies the archive checksum when
// one is published, and swaps the running binary for the new one.
func (s *Service) Apply() error {
	release, err := s.source.latestRelease()
	if err != nil {
		return err
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	if !s.isNewer(latest) {
		return fmt.Errorf("no update available (current: %s, latest: %s)", s.current, latest)
	}

	asset, err := s.source.platformAsset(release)
	if err != nil {
		return err
	}

	logging.Info("Downloading %s", asset.Name)
	archive, err := s.source.download(asset)
	if err != nil {
		return err
	}

	sums, err := s.source.checksums(release)
	if err != nil {
		return err
	}
	if want, ok := sums[asset.Name]; ok {
		sum := sha256.Sum256(archive)
		if got := hex.EncodeToString(sum[:]); got != want {
			return fmt.Errorf("checksum mismatch for %s: got %s, want %s", asset.Name, got, want)
		}
	} else {
		logging.Warning("No checksum published for %s, skipping verification", asset.Name)
	}

	binary, err := extractBinary(bytes.NewReader(archive), s.binary)
	if err != nil {
		return err
	}

	if err := selfupdate.Apply(bytes.NewReader(binary), selfupdate.Options{}); err != nil {
		if rerr := selfupdate.RollbackError(err); rerr != nil {
			return fmt.Errorf("update failed and rollback failed: %v, rollback error: %v", err, rerr)
		}
		return fmt.Errorf("failed to apply update: %w", err)
	}

	logging.Info("Updated %s to version %s", s.binary, latest)
	return nil
}

// extractBinary pulls the named file out of a tar.gz archive.
func extractBinary(r io.Reader, name string) ([]byte, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read archive: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		if header.Name == name || strings.HasSuffix(header.Name, "/"+name) {
			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("failed to extract %s: %w", name, err)
			}
			return data, nil
		}
	}
	return nil, fmt.Errorf("archive does not contain %s", name)
}

func (s *Service) isNewer(latest string) bool {
	current := strings.TrimPrefix(s.current, "v")
	// Development builds always accept updates
	if current == "dev" || current == "unknown" {
		return true
	}
	return compareVersions(latest, current) > 0
}

// compareVersions compares dotted version strings with an optional
// pre-release suffix. It returns 1 if v1 > v2, -1 if v1 < v2, 0 if equal.
func compareVersions(v1, v2 string) int {
	main1, pre1, _ := strings.Cut(v1, "-")
	main2, pre2, _ := strings.Cut(v2, "-")

	if cmp := compareDotted(main1, main2); cmp != 0 {
		return cmp
	}

	// A release outranks any pre-release of the same version
	switch {
	case pre1 == "" && pre2 != "":
		return 1
	case pre1 != "" && pre2 == "":
		return -1
	case pre1 == "" && pre2 == "":
		return 0
	}
	return compareDotted(pre1, pre2)
}

// compareDotted compares dot separated parts, numerically where both
// sides parse as numbers and lexically otherwise.
func compareDotted(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	for i := 0; i < len(parts1) || i < len(parts2); i++ {
		// Missing parts compare as zero
		p1, p2 := "0", "0"
		if i < len(parts1) {
			p1 = parts1[i]
		}
		if i < len(parts2) {
			p2 = parts2[i]
		}

		n1, err1 := strconv.Atoi(p1)
		n2, err2 := strconv.Atoi(p2)
		if err1 == nil && err2 == nil {
			if n1 != n2 {
				if n1 > n2 {
					return 1
				}
				return -1
			}
			continue
		}
		if cmp := strings.Compare(p1, p2); cmp != 0 {
			return cmp
		}
	}
	return 0
}
