package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Adapter resolves the ffmpeg handed to yt-dlp and probes finished clips.
type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = siblingProbe(ffmpegPath)
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// Locate returns an absolute path to ffmpeg, searching PATH for bare names.
func (a *Adapter) Locate() (string, error) {
	p, err := exec.LookPath(a.ffmpeg)
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found (set FFMPEG_PATH): %w", err)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return abs, nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, inMP4 string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inMP4,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	return parseDuration(string(b))
}

func parseDuration(out string) (time.Duration, error) {
	s := strings.TrimSpace(out)
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// siblingProbe guesses ffprobe next to a configured ffmpeg binary.
func siblingProbe(ffmpegPath string) string {
	dir, base := filepath.Split(ffmpegPath)
	if dir == "" {
		return "ffprobe"
	}
	return filepath.Join(dir, strings.Replace(base, "ffmpeg", "ffprobe", 1))
}
