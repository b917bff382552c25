package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Workspace WorkspaceConfig   `yaml:"workspace"`
	Editor    EditorConfig      `yaml:"editor"`
	Settings  SettingsConfig    `yaml:"settings"`
	Theme     ThemeConfig       `yaml:"theme"`
	Preview   PreviewConfig     `yaml:"preview"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validators := []validation.Validatable{
		&c.Workspace, &c.Editor, &c.Theme, &c.Preview,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// LogFile receives the editor's logs; the terminal belongs to the UI.
	// Empty means muse.log in the state directory.
	LogFile string `yaml:"log_file"`
}

// LogPath returns the resolved log file location.
func (c *ApplicationConfig) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(StateDir(), "muse.log")
}

// WorkspaceConfig holds the markdown directory.
type WorkspaceConfig struct {
	Dir         string `yaml:"dir"`
	SampleFiles bool   `yaml:"sample_files"`
}

// Validate validates the workspace configuration.
func (c *WorkspaceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// EditorConfig tunes the block editor.
type EditorConfig struct {
	AutosaveDelay time.Duration `yaml:"autosave_delay"`
	// WrapWidth caps the document column; 0 fills the terminal.
	WrapWidth int `yaml:"wrap_width"`
}

// Validate validates the editor configuration.
func (c *EditorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AutosaveDelay, validation.Required, validation.Min(50*time.Millisecond)),
		validation.Field(&c.WrapWidth, validation.Min(0), validation.Max(1000)),
	)
}

// SettingsConfig holds the SQLite settings database location.
type SettingsConfig struct {
	// Path empty means settings.db in the state directory.
	Path string `yaml:"path"`
}

// DBPath returns the resolved database location.
func (c *SettingsConfig) DBPath() string {
	if c.Path != "" {
		return c.Path
	}
	return filepath.Join(StateDir(), "settings.db")
}

// ThemeConfig controls OS theme detection.
type ThemeConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Validate validates the theme configuration.
func (c *ThemeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PollInterval, validation.Required, validation.Min(time.Second)),
	)
}

// PreviewConfig holds the optional read-only HTTP preview server.
type PreviewConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Port      int           `yaml:"port"`
	Token     string        `yaml:"token"`
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// Address returns the HTTP listen address. The preview only binds loopback.
func (c *PreviewConfig) Address() string {
	return fmt.Sprintf("127.0.0.1:%d", c.Port)
}

// Validate validates the preview configuration.
func (c *PreviewConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Heartbeat, validation.Required, validation.Min(time.Second)),
	)
}

// StateDir is where the settings database and log file live by default.
func StateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "muse")
	}
	return ".muse"
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Workspace: WorkspaceConfig{
			Dir:         ".",
			SampleFiles: true,
		},
		Editor: EditorConfig{
			AutosaveDelay: time.Second,
		},
		Theme: ThemeConfig{
			PollInterval: 5 * time.Second,
		},
		Preview: PreviewConfig{
			Port:      8080,
			Heartbeat: 15 * time.Second,
		},
	}
}
