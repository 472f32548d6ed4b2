package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	CurrentVersion = "v0.1.0" // Will be overwritten by ldflags during build
	ReleasesAPI    = "https://api.github.com/repos/chukul/daintree/releases/latest"
	CheckInterval  = 24 * time.Hour
)

type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

type versionCheck struct {
	LastChecked   time.Time `json:"last_checked"`
	LatestVersion string    `json:"latest_version"`
}

// UpdateChecker looks for newer releases at most once per CheckInterval.
type UpdateChecker struct {
	Client    *http.Client
	URL       string
	CachePath string
	Now       func() time.Time
}

// NewUpdateChecker returns a checker caching in ~/.daintree.
func NewUpdateChecker() *UpdateChecker {
	return &UpdateChecker{
		Client:    &http.Client{Timeout: 3 * time.Second},
		URL:       ReleasesAPI,
		CachePath: filepath.Join(os.Getenv("HOME"), ".daintree", "version_check.json"),
		Now:       time.Now,
	}
}

// Due reports whether the cache is older than CheckInterval.
func (u *UpdateChecker) Due() bool {
	data, err := os.ReadFile(u.CachePath)
	if err != nil {
		return true
	}
	var check versionCheck
	if err := json.Unmarshal(data, &check); err != nil {
		return true
	}
	return u.Now().Sub(check.LastChecked) > CheckInterval
}

// Latest fetches the latest release and records the check.
func (u *UpdateChecker) Latest(ctx context.Context) (Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.URL, nil)
	if err != nil {
		return Release{}, err
	}
	resp, err := u.Client.Do(req)
	if err != nil {
		return Release{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Release{}, fmt.Errorf("status %d", resp.StatusCode)
	}
	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return Release{}, err
	}

	u.save(release.TagName)
	return release, nil
}

func (u *UpdateChecker) save(version string) {
	data, _ := json.Marshal(versionCheck{LastChecked: u.Now(), LatestVersion: version})
	_ = os.MkdirAll(filepath.Dir(u.CachePath), 0o700)
	_ = os.WriteFile(u.CachePath, data, 0o600)
}

// IsNewer compares two vMAJOR.MINOR.PATCH versions numerically.
func IsNewer(latest, current string) bool {
	l := parseVersion(latest)
	c := parseVersion(current)
	for i := range l {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

func parseVersion(v string) [3]int {
	var out [3]int
	v = strings.TrimPrefix(v, "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	for i, p := range strings.SplitN(v, ".", 3) {
		n, _ := strconv.Atoi(p)
		out[i] = n
	}
	return out
}
