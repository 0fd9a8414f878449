package session

import (
	"regexp"
	"strings"
)

// projectDirRegex matches any character Claude Code replaces with a hyphen
// when encoding a project path as a directory name.
var projectDirRegex = regexp.MustCompile(`[^a-zA-Z0-9-]`)

// EncodeProjectDir converts a filesystem path to Claude Code's directory
// naming format. Every character outside [a-zA-Z0-9-] becomes a hyphen.
// Example: /Users/ozan/Projects/my_app -> -Users-ozan-Projects-my-app
func EncodeProjectDir(path string) string {
	return projectDirRegex.ReplaceAllString(path, "-")
}

// landmarkTokens are path components that mark the directory holding
// projects. Everything after the landmark in an encoded name belongs to a
// single project directory, which is the one component allowed to contain
// hyphens of its own.
var landmarkTokens = []string{"Projects", "projects", "code", "src", "repos"}

// DecodeProjectDir recovers the best-guess absolute path from an encoded
// project directory name. The encoding is lossy: "/" and "-" both become "-",
// so a landmark token is used to decide where path components end and the
// project name begins. With no landmark the decode falls back to treating
// every hyphen as a separator, which over-splits hyphenated names.
//
//	-Users-ozan-Projects-ai-image-dashboard -> /Users/ozan/Projects/ai-image-dashboard
func DecodeProjectDir(name string) string {
	trimmed := strings.TrimPrefix(name, "-")
	tokens := strings.Split(trimmed, "-")

	for i, tok := range tokens {
		if !isLandmarkToken(tok) {
			continue
		}
		if i == len(tokens)-1 {
			break
		}
		prefix := strings.Join(tokens[:i+1], "/")
		project := strings.Join(tokens[i+1:], "-")
		return "/" + prefix + "/" + project
	}

	// No landmark: naive replacement, lossy for hyphenated names.
	path := strings.ReplaceAll(name, "-", "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func isLandmarkToken(tok string) bool {
	for _, l := range landmarkTokens {
		if tok == l {
			return true
		}
	}
	return false
}

// projectNameFromPath returns the last non-empty path component for display.
func projectNameFromPath(path string) string {
	parts := strings.Split(path, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return "Unknown"
}
