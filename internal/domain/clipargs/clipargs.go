package clipargs

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/forPelevin/ytclip/internal/types"
)

const (
	OutputExt = ".mp4"

	// yt-dlp sort key: prefer mp4 video and m4a audio.
	sortPreference = "ext:mp4:m4a"
	remuxTarget    = "mp4"
)

// Input is what Build needs besides the request itself.
type Input struct {
	Request      types.ClipRequest
	FFmpegPath   string
	DownloadsDir string
}

// Build returns the yt-dlp argument list for a request that passed
// Validate. It does no I/O.
func Build(in Input) []string {
	req := in.Request
	args := []string{
		req.SourceURL,
		"--ffmpeg-location", in.FFmpegPath,
		"--download-sections", SectionSelector(req.StartTime, req.EndTime),
		"-o", OutputPath(in.DownloadsDir, req.OutputName),
		"--force-overwrites",
		"-S", sortPreference,
		"--remux-video", remuxTarget,
	}
	if q := strings.TrimSpace(req.Quality); q != "" && !strings.EqualFold(q, types.QualityBest) {
		args = append(args, "-f", FormatSelector(q))
	}
	return args
}

// SectionSelector is the --download-sections value for a time range.
func SectionSelector(start, end string) string {
	return "*" + start + "-" + end
}

// FormatSelector caps video height at quality. The strict mp4+m4a pair is
// tried first, then any single file under the cap, then whatever is best.
func FormatSelector(quality string) string {
	return fmt.Sprintf("bv*[height<=%[1]s][ext=mp4]+ba[ext=m4a]/b[height<=%[1]s]/b", quality)
}

// DefaultName is used when the request carries no output name.
const DefaultName = "clip"

// OutputPath is <dir>/<sanitized name>.mp4.
func OutputPath(dir, name string) string {
	safe := SanitizeName(name)
	if safe == "" {
		safe = DefaultName
	}
	return filepath.Join(dir, safe+OutputExt)
}

// SanitizeName maps every rune outside [A-Za-z0-9] to '_' and lower-cases
// the result.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
