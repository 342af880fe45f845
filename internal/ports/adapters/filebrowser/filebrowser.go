package filebrowser

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
)

var linuxFileManagers = []string{"nautilus", "dolphin", "thunar", "nemo", "pcmanfm"}

// Revealer shows a file in the host file browser.
type Revealer struct {
	goos     string
	run      func(name string, args ...string) error
	lookPath func(string) (string, error)
}

func New() *Revealer {
	return &Revealer{goos: runtime.GOOS, run: runCommand, lookPath: exec.LookPath}
}

// Reveal selects path in Finder/Explorer. On Linux, where selection is not
// standardized, the containing directory is opened instead.
func (r *Revealer) Reveal(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("reveal: %w", err)
	}
	switch r.goos {
	case "darwin":
		return r.run("open", "-R", abs)
	case "windows":
		return r.run("explorer", "/select,", abs)
	case "linux", "freebsd", "openbsd", "netbsd":
		return r.revealUnix(filepath.Dir(abs))
	default:
		return fmt.Errorf("reveal: unsupported operating system: %s", r.goos)
	}
}

func (r *Revealer) revealUnix(dir string) error {
	if err := r.run("xdg-open", dir); err == nil {
		return nil
	}
	for _, fm := range linuxFileManagers {
		if _, err := r.lookPath(fm); err == nil {
			return r.run(fm, dir)
		}
	}
	return errors.New("reveal: no suitable file manager found")
}

// runCommand starts the browser without waiting on it; xdg-open and friends
// may stay attached to the spawned window.
func runCommand(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// Nop is used when revealing is disabled.
type Nop struct{}

func (Nop) Reveal(string) error { return nil }
