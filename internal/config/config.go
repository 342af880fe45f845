package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/ytclip/internal/provision"
)

const appName = "ytclip"

// Config holds runtime settings, read from the environment.
type Config struct {
	BinDir       string
	BinaryName   string
	DownloadsDir string
	YtDlpURL     string
	AllowedHosts []string

	FFmpegPath  string
	FFprobePath string

	SettleDelay  time.Duration
	MaxRedirects int

	LogLevel  string
	LogFormat string
	Addr      string

	// AllowedOrigins are the browser origins serve accepts; empty means
	// loopback only.
	AllowedOrigins []string
}

// Load reads environment variables and fills in platform defaults.
func Load() Config {
	return Config{
		BinDir:       getEnv("YTCLIP_BIN_DIR", defaultBinDir()),
		BinaryName:   provision.BinaryName(runtime.GOOS),
		DownloadsDir: getEnv("YTCLIP_DOWNLOADS_DIR", defaultDownloadsDir()),
		YtDlpURL:     getEnv("YTDLP_URL", provision.ReleaseURL(runtime.GOOS, runtime.GOARCH)),
		AllowedHosts: splitList(os.Getenv("YTCLIP_ALLOWED_HOSTS")),
		FFmpegPath:   getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:  strings.TrimSpace(os.Getenv("FFPROBE_PATH")),
		SettleDelay:  time.Duration(getEnvInt("YTCLIP_SETTLE_MS", int(provision.DefaultSettleDelay/time.Millisecond))) * time.Millisecond,
		MaxRedirects: getEnvInt("YTCLIP_MAX_REDIRECTS", provision.DefaultMaxRedirects),
		LogLevel:     getEnv("YTCLIP_LOG_LEVEL", "info"),
		LogFormat:    getEnv("YTCLIP_LOG_FORMAT", "text"),
		Addr:         getEnv("YTCLIP_ADDR", "127.0.0.1:8787"),

		AllowedOrigins: splitList(os.Getenv("YTCLIP_ALLOWED_ORIGINS")),
	}
}

// BinaryPath is where the engine lives once provisioned.
func (c Config) BinaryPath() string {
	return filepath.Join(c.BinDir, c.BinaryName)
}

func (c Config) Validate() error {
	if c.BinDir == "" {
		return errors.New("bin dir is empty")
	}
	if c.BinaryName == "" {
		return errors.New("binary name is empty")
	}
	if c.DownloadsDir == "" {
		return errors.New("downloads dir is empty")
	}
	if err := ValidateSourceURL(c.YtDlpURL, c.AllowedHosts); err != nil {
		return err
	}
	if c.MaxRedirects <= 0 {
		return errors.New("max redirects must be > 0")
	}
	if c.SettleDelay < 0 {
		return errors.New("settle delay must be >= 0")
	}
	return nil
}

func defaultBinDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, appName, "bin")
}

func defaultDownloadsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "Downloads")
	}
	return filepath.Join(home, "Downloads")
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

// getEnvInt accepts non-negative integers; anything else yields fallback.
func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	out, err := strconv.Atoi(value)
	if err != nil || out < 0 {
		return fallback
	}
	return out
}
