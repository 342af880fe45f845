package provision

const releaseBase = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/"

// BinaryName is the local file name of the engine.
func BinaryName(goos string) string {
	if goos == "windows" {
		return "yt-dlp.exe"
	}
	return "yt-dlp"
}

// ReleaseURL picks the yt-dlp release asset for a platform. Unknown
// platforms get the zipapp, which needs a python3 on PATH.
func ReleaseURL(goos, goarch string) string {
	var asset string
	switch goos {
	case "windows":
		asset = "yt-dlp.exe"
		if goarch == "386" {
			asset = "yt-dlp_x86.exe"
		}
	case "darwin":
		asset = "yt-dlp_macos"
	case "linux":
		switch goarch {
		case "amd64":
			asset = "yt-dlp_linux"
		case "arm64":
			asset = "yt-dlp_linux_aarch64"
		case "arm":
			asset = "yt-dlp_linux_armv7l"
		default:
			asset = "yt-dlp"
		}
	default:
		asset = "yt-dlp"
	}
	return releaseBase + asset
}
