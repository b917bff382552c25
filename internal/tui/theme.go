package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/starford/muse/internal/render"
	"github.com/starford/muse/internal/theme"
)

// Every color is adaptive so that flipping the dark-background flag is all
// a theme change has to do.
func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted      = ac("240", "243")
	colorBorder     = ac("250", "238")
	colorAccent     = ac("27", "69")
	colorSelectedBg = ac("#e9e9e9", "#262626")
	colorSelectedFg = ac("235", "255")
	colorSurfaceFg  = ac("235", "252")
	colorError      = ac("160", "203")
	colorSuccess    = ac("28", "114")
)

func styleMuted() lipgloss.Style { return lipgloss.NewStyle().Foreground(colorMuted) }

func styleError() lipgloss.Style { return lipgloss.NewStyle().Foreground(colorError) }

func styleTitle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
}

func styleSelected() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg)
}

func styleGutter(active bool) lipgloss.Style {
	if active {
		return lipgloss.NewStyle().Foreground(colorAccent)
	}
	return lipgloss.NewStyle().Foreground(colorBorder)
}

// applyColorProfilePreference sets Lip Gloss's color profile for the TUI.
// Only NO_COLOR is honored; CLICOLOR is meant for plain CLI output.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()

	// Some terminals under-report; trust TERM/COLORTERM when they claim more.
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") && profile != termenv.TrueColor {
		profile = termenv.ANSI256
	}

	lipgloss.SetColorProfile(profile)
}

// applyTheme points the adaptive palette at the resolved theme and returns
// the matching markdown style.
func applyTheme(r theme.Resolved) string {
	lipgloss.SetHasDarkBackground(r == theme.Dark)
	if r == theme.Dark {
		return render.StyleDark
	}
	return render.StyleLight
}
