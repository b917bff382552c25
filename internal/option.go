package internal

import (
	"io"
	"os"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	version string
	stderr  io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithVersion sets the version reported by the settings panel and the MCP
// server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithStderr redirects the log output of the serve and mcp commands.
func WithStderr(w io.Writer) Option {
	return func(a *application) {
		a.stderr = w
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", stderr: os.Stderr}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, errConfigRequired
	}
	return app, nil
}
