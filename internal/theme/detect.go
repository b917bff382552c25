package theme

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Detector reports the operating system's dark-mode preference.
// known is false when no signal is available.
type Detector interface {
	DarkMode() (dark bool, known bool)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func() (bool, bool)

func (f DetectorFunc) DarkMode() (bool, bool) { return f() }

// OSDetector checks, in order:
//  1. MUSE_THEME=light|dark (explicit override, "auto" ignored)
//  2. COLORFGBG ("fg;bg", a low bg index is dark)
//  3. macOS: defaults read -g AppleInterfaceStyle
//  4. Linux: gsettings org.gnome.desktop.interface color-scheme
type OSDetector struct {
	Getenv  func(string) string
	Run     func(ctx context.Context, name string, args ...string) ([]byte, error)
	GOOS    string
	Timeout time.Duration
}

// NewOSDetector returns a detector wired to the real environment.
func NewOSDetector() *OSDetector {
	return &OSDetector{
		Getenv: os.Getenv,
		Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
		GOOS:    runtime.GOOS,
		Timeout: 200 * time.Millisecond,
	}
}

// DarkMode implements Detector.
func (d *OSDetector) DarkMode() (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(d.Getenv("MUSE_THEME"))) {
	case "dark":
		return true, true
	case "light":
		return false, true
	}

	if v := strings.TrimSpace(d.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			return bg < 7 || bg == 8, true
		}
	}

	switch d.GOOS {
	case "darwin":
		return d.macOS()
	case "linux":
		return d.gnome()
	}
	return false, false
}

// run reports ok=false when the command could not answer in time.
func (d *OSDetector) run(name string, args ...string) ([]byte, bool, error) {
	if d.Run == nil {
		return nil, false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
	defer cancel()
	out, err := d.Run(ctx, name, args...)
	if ctx.Err() != nil {
		return nil, false, nil
	}
	return out, true, err
}

func (d *OSDetector) macOS() (bool, bool) {
	// Prints "Dark" in dark mode; exits 1 in light mode (key missing).
	out, ok, err := d.run("defaults", "read", "-g", "AppleInterfaceStyle")
	if !ok {
		return false, false
	}
	if err == nil {
		return strings.Contains(strings.ToLower(string(out)), "dark"), true
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) && ee.ExitCode() == 1 {
		return false, true
	}
	return false, false
}

func (d *OSDetector) gnome() (bool, bool) {
	out, ok, err := d.run("gsettings", "get", "org.gnome.desktop.interface", "color-scheme")
	if !ok || err != nil {
		return false, false
	}
	v := strings.Trim(strings.TrimSpace(string(out)), "'")
	switch v {
	case "prefer-dark":
		return true, true
	case "prefer-light", "default":
		return false, true
	}
	return false, false
}
