package platform

import (
	"runtime"
	"testing"
)

func TestDetect(t *testing.T) {
	detectionDone = false
	detectedPlatform = ""

	p := Detect()
	if p == "" {
		t.Error("Detect() returned empty platform")
	}

	switch runtime.GOOS {
	case "darwin":
		if p != PlatformMacOS {
			t.Errorf("expected macOS on darwin, got %s", p)
		}
	case "linux":
		if p != PlatformLinux && p != PlatformWSL1 && p != PlatformWSL2 {
			t.Errorf("expected Linux/WSL on linux, got %s", p)
		}
	case "windows":
		if p != PlatformWindows {
			t.Errorf("expected Windows on windows, got %s", p)
		}
	}

	// Detection is cached.
	if p2 := Detect(); p != p2 {
		t.Errorf("Detect() not cached: got %s then %s", p, p2)
	}
}

func TestPlatformString(t *testing.T) {
	tests := []struct {
		platform Platform
		expected string
	}{
		{PlatformMacOS, "macOS"},
		{PlatformLinux, "Linux"},
		{PlatformWSL1, "WSL1"},
		{PlatformWSL2, "WSL2"},
		{PlatformWindows, "Windows"},
		{PlatformUnknown, "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.platform.String(); got != tt.expected {
			t.Errorf("Platform(%s).String() = %s, want %s", tt.platform, got, tt.expected)
		}
	}
}

func TestIsWSL(t *testing.T) {
	tests := []struct {
		platform Platform
		isWSL    bool
	}{
		{PlatformMacOS, false},
		{PlatformLinux, false},
		{PlatformWSL1, true},
		{PlatformWSL2, true},
		{PlatformWindows, false},
	}
	for _, tt := range tests {
		detectedPlatform = tt.platform
		detectionDone = true
		if got := IsWSL(); got != tt.isWSL {
			t.Errorf("IsWSL() for %s = %v, want %v", tt.platform, got, tt.isWSL)
		}
	}
	detectionDone = false
}

func TestSupportsProcessCwd(t *testing.T) {
	tests := []struct {
		platform Platform
		expected bool
	}{
		{PlatformMacOS, true},
		{PlatformLinux, true},
		{PlatformWSL1, true},
		{PlatformWSL2, true},
		{PlatformWindows, false},
		{PlatformUnknown, false},
	}
	for _, tt := range tests {
		detectedPlatform = tt.platform
		detectionDone = true
		if got := SupportsProcessCwd(); got != tt.expected {
			t.Errorf("SupportsProcessCwd() for %s = %v, want %v", tt.platform, got, tt.expected)
		}
	}
	detectionDone = false
}

func TestCheckFsnotifySupport(t *testing.T) {
	supported, reason := CheckFsnotifySupport(t.TempDir())
	if !supported && reason == "" {
		t.Error("unsupported filesystem must come with a reason")
	}
}
