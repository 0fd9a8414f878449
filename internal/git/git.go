// Package git resolves repository metadata for monitored project paths.
package git

import (
	"os/exec"
	"regexp"
	"strings"
	"sync"
)

// IsGitRepo checks if the given directory is inside a git repository.
func IsGitRepo(dir string) bool {
	cmd := exec.Command("git", "-C", dir, "rev-parse", "--git-dir")
	return cmd.Run() == nil
}

// GetCurrentBranch returns the checked-out branch name for the repository
// at dir, or "" when dir is not a repository.
func GetCurrentBranch(dir string) string {
	cmd := exec.Command("git", "-C", dir, "rev-parse", "--abbrev-ref", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// remoteURLCache avoids re-running git for every poll; origin URLs do not
// change while a session runs.
var (
	remoteURLCache   = make(map[string]string)
	remoteURLCacheMu sync.Mutex
)

// GitHubURL returns the https GitHub page for dir's origin remote, or ""
// when there is no remote or it does not point at GitHub.
func GitHubURL(dir string) string {
	remoteURLCacheMu.Lock()
	if url, ok := remoteURLCache[dir]; ok {
		remoteURLCacheMu.Unlock()
		return url
	}
	remoteURLCacheMu.Unlock()

	url := NormalizeGitHubRemote(remoteOriginURL(dir))

	remoteURLCacheMu.Lock()
	remoteURLCache[dir] = url
	remoteURLCacheMu.Unlock()
	return url
}

// ClearURLCache drops cached remote lookups. Intended for tests.
func ClearURLCache() {
	remoteURLCacheMu.Lock()
	defer remoteURLCacheMu.Unlock()
	remoteURLCache = make(map[string]string)
}

func remoteOriginURL(dir string) string {
	cmd := exec.Command("git", "-C", dir, "config", "--get", "remote.origin.url")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

var githubRemoteRegex = regexp.MustCompile(`^(?:https://github\.com/|git@github\.com:|ssh://git@github\.com/)([^/]+/[^/]+?)(?:\.git)?$`)

// NormalizeGitHubRemote converts any GitHub remote form (https, ssh, scp-ish)
// to the canonical https page URL. Non-GitHub remotes map to "".
func NormalizeGitHubRemote(remote string) string {
	m := githubRemoteRegex.FindStringSubmatch(remote)
	if m == nil {
		return ""
	}
	return "https://github.com/" + m[1]
}
