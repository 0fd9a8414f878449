package session

import (
	"testing"
)

func TestEncodeProjectDir(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/Users/ozan/Projects/my-app", "-Users-ozan-Projects-my-app"},
		{"/Users/ozan/Projects/my_app", "-Users-ozan-Projects-my-app"},
		{"/Users/ozan/Projects/ai-image-dashboard", "-Users-ozan-Projects-ai-image-dashboard"},
		{"/home/user/code/api.server", "-home-user-code-api-server"},
		{"/tmp/x y z", "-tmp-x-y-z"},
	}

	for _, tt := range tests {
		if got := EncodeProjectDir(tt.path); got != tt.expected {
			t.Errorf("EncodeProjectDir(%q) = %q, want %q", tt.path, got, tt.expected)
		}
	}
}

func TestDecodeProjectDir(t *testing.T) {
	tests := []struct {
		name     string
		encoded  string
		expected string
	}{
		{
			name:     "hyphenated project under Projects",
			encoded:  "-Users-ozan-Projects-ai-image-dashboard",
			expected: "/Users/ozan/Projects/ai-image-dashboard",
		},
		{
			name:     "worktree suffix with double hyphen",
			encoded:  "-Users-ozan-Projects-ai-image-dashboard--rsworktree-feature",
			expected: "/Users/ozan/Projects/ai-image-dashboard--rsworktree-feature",
		},
		{
			name:     "lowercase projects landmark",
			encoded:  "-home-dev-projects-my-tool",
			expected: "/home/dev/projects/my-tool",
		},
		{
			name:     "code landmark",
			encoded:  "-home-dev-code-web-frontend",
			expected: "/home/dev/code/web-frontend",
		},
		{
			name:     "src landmark",
			encoded:  "-home-dev-src-parser",
			expected: "/home/dev/src/parser",
		},
		{
			name:     "no landmark falls back to naive split",
			encoded:  "-Users-ozan-scratch",
			expected: "/Users/ozan/scratch",
		},
		{
			name:     "landmark as final token is not a separator",
			encoded:  "-Users-ozan-Projects",
			expected: "/Users/ozan/Projects",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeProjectDir(tt.encoded); got != tt.expected {
				t.Errorf("DecodeProjectDir(%q) = %q, want %q", tt.encoded, got, tt.expected)
			}
		})
	}
}

// Decoding an encoded path with a landmark must round-trip even when the
// project name itself contains hyphens.
func TestDecodeProjectDirRoundTrip(t *testing.T) {
	paths := []string{
		"/Users/ozan/Projects/ai-image-dashboard",
		"/home/dev/code/my-long-project-name",
		"/home/dev/src/tool",
	}
	for _, path := range paths {
		if got := DecodeProjectDir(EncodeProjectDir(path)); got != path {
			t.Errorf("round trip of %q gave %q", path, got)
		}
	}
}

func TestProjectNameFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/Users/ozan/Projects/my-app", "my-app"},
		{"/Users/ozan/Projects/my-app/", "my-app"},
		{"/", "Unknown"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		if got := projectNameFromPath(tt.path); got != tt.expected {
			t.Errorf("projectNameFromPath(%q) = %q, want %q", tt.path, got, tt.expected)
		}
	}
}
