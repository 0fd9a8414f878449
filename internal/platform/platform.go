package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Platform identifies the host environment. WSL matters to us twice over:
// fsnotify is unreliable on 9p mounts, and WSL1 reports process CPU oddly.
type Platform string

const (
	PlatformMacOS   Platform = "macos"
	PlatformLinux   Platform = "linux"
	PlatformWSL1    Platform = "wsl1"
	PlatformWSL2    Platform = "wsl2"
	PlatformWindows Platform = "windows"
	PlatformUnknown Platform = "unknown"
)

var (
	detectedPlatform Platform
	detectionDone    bool
)

// Detect returns the current platform, caching the result.
func Detect() Platform {
	if detectionDone {
		return detectedPlatform
	}
	detectedPlatform = detectPlatform()
	detectionDone = true
	return detectedPlatform
}

func detectPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		return PlatformMacOS
	case "windows":
		return PlatformWindows
	case "linux":
		return detectLinuxOrWSL()
	default:
		return PlatformUnknown
	}
}

// detectLinuxOrWSL distinguishes native Linux from WSL (1 or 2).
func detectLinuxOrWSL() Platform {
	if os.Getenv("WSL_DISTRO_NAME") != "" {
		return detectWSLVersion()
	}

	procVersion, err := os.ReadFile("/proc/version")
	if err != nil {
		return PlatformLinux
	}
	if strings.Contains(strings.ToLower(string(procVersion)), "microsoft") {
		return detectWSLVersion()
	}
	return PlatformLinux
}

// detectWSLVersion distinguishes WSL1 from WSL2. WSL2 kernels carry a
// "microsoft-standard" signature; WSL1 shows "Microsoft" without it.
func detectWSLVersion() Platform {
	procVersion, err := os.ReadFile("/proc/version")
	if err == nil {
		versionStr := string(procVersion)
		if strings.Contains(versionStr, "microsoft-standard") {
			return PlatformWSL2
		}
		if strings.Contains(versionStr, "Microsoft") {
			return PlatformWSL1
		}
	}

	// /run/WSL and /dev/vsock exist only under WSL2's VM.
	if _, err := os.Stat("/run/WSL"); err == nil {
		return PlatformWSL2
	}
	if _, err := os.Stat("/dev/vsock"); err == nil {
		return PlatformWSL2
	}

	// Assume WSL1 when undecidable; it is the more limited environment.
	return PlatformWSL1
}

// IsWSL returns true in any WSL environment.
func IsWSL() bool {
	p := Detect()
	return p == PlatformWSL1 || p == PlatformWSL2
}

// SupportsProcessCwd reports whether the platform lets us read another
// process's working directory. Without it, process-to-project matching
// cannot work and every scan comes back empty.
func SupportsProcessCwd() bool {
	switch Detect() {
	case PlatformLinux, PlatformWSL1, PlatformWSL2, PlatformMacOS:
		return true
	default:
		return false
	}
}

// String returns a human-readable platform name.
func (p Platform) String() string {
	switch p {
	case PlatformMacOS:
		return "macOS"
	case PlatformLinux:
		return "Linux"
	case PlatformWSL1:
		return "WSL1"
	case PlatformWSL2:
		return "WSL2"
	case PlatformWindows:
		return "Windows"
	default:
		return "Unknown"
	}
}

// CheckFsnotifySupport reports whether file events for path are reliable.
// Network and 9p filesystems (the WSL2 view of the Windows drive) drop or
// delay inotify events, so transcript watching silently degrades there.
// Returns a human-readable reason when unreliable.
func CheckFsnotifySupport(path string) (supported bool, reason string) {
	if runtime.GOOS != "linux" {
		return true, ""
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return true, ""
	}

	mounts, err := os.ReadFile("/proc/mounts")
	if err != nil {
		return true, ""
	}

	// Longest mountpoint prefix wins.
	var matchedMount, matchedFsType string
	for _, line := range strings.Split(string(mounts), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		mountPoint, fsType := fields[1], fields[2]
		if strings.HasPrefix(absPath, mountPoint) && len(mountPoint) > len(matchedMount) {
			matchedMount = mountPoint
			matchedFsType = fsType
		}
	}

	switch {
	case matchedFsType == "9p":
		return false, "transcripts on a 9p mount (WSL2 Windows filesystem); falling back to polling only"
	case matchedFsType == "nfs", matchedFsType == "nfs4":
		return false, "transcripts on an NFS mount; file events may arrive late"
	case matchedFsType == "cifs", matchedFsType == "smbfs":
		return false, "transcripts on a CIFS/SMB mount; file events may arrive late"
	case strings.HasPrefix(matchedFsType, "fuse.sshfs"):
		return false, "transcripts on an SSHFS mount; falling back to polling only"
	}
	return true, ""
}
