package internal

import (
	"io"
	"os"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	logOutput io.Writer
	signals   <-chan os.Signal
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogOutput redirects the structured log stream. Stdio hosts must log to
// stderr so stdout stays reserved for the protocol.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithSignals replaces the OS shutdown signal channel.
func WithSignals(ch <-chan os.Signal) Option {
	return func(a *application) {
		a.signals = ch
	}
}
