// Package config provides functionality for managing configuration options
// for the dashboard using command-line flags, a JSON config file and
// environment variables, in increasing order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/atinyakov/cardash/internal/backend"
	"github.com/atinyakov/cardash/internal/view"
)

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the dashboard's listening address (ip:port).
	Addr string `json:"addr"`

	// BaseURL is the root of the car backend every call is made against.
	BaseURL string `json:"base_url"`

	// CAFile optionally pins the backend's TLS roots to a PEM bundle.
	CAFile string `json:"ca_file"`

	// RequestTimeout bounds each backend call; 0 disables it.
	RequestTimeout Duration `json:"request_timeout"`

	// FetchAttempts is how many times the car list GET is tried.
	FetchAttempts uint `json:"fetch_attempts"`

	// ResetPolicy is "always" or "success".
	ResetPolicy string `json:"reset_policy"`

	// ViewTTL is how long an untouched view stays mounted.
	ViewTTL Duration `json:"view_ttl"`

	// RenderWait is how long the car list page waits for its fetch before
	// rendering the loading state.
	RenderWait Duration `json:"render_wait"`

	// LogLevel is a zap level name.
	LogLevel string `json:"log_level"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Duration is a time.Duration that reads "10s" style strings from JSON.
type Duration time.Duration

// UnmarshalJSON accepts a Go duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration must be a string or integer: %w", err)
	}
	*d = Duration(n)
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Parse parses the process flags and environment. Invalid configuration is fatal.
func Parse() *Options {
	opts, err := ParseArgs(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return opts
}

// ParseArgs builds Options from args and the getenv lookup.
func ParseArgs(args []string, getenv func(string) string) (*Options, error) {
	options := &Options{}
	var (
		timeout    time.Duration
		viewTTL    time.Duration
		renderWait time.Duration
	)

	fs := flag.NewFlagSet("cardash", flag.ContinueOnError)
	fs.StringVar(&options.Addr, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.BaseURL, "b", backend.DefaultBaseURL, "car backend base URL")
	fs.StringVar(&options.CAFile, "ca", "", "PEM CA bundle for the backend (optional)")
	fs.DurationVar(&timeout, "timeout", 10*time.Second, "per backend call timeout, 0 disables")
	fs.UintVar(&options.FetchAttempts, "attempts", 1, "car list fetch attempts")
	fs.StringVar(&options.ResetPolicy, "reset", string(view.ResetAlways), "form reset policy: always | success")
	fs.DurationVar(&viewTTL, "view-ttl", 30*time.Minute, "idle time before a view is unmounted")
	fs.DurationVar(&renderWait, "render-wait", 2*time.Second, "how long the car list page waits for data")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	options.RequestTimeout = Duration(timeout)
	options.ViewTTL = Duration(viewTTL)
	options.RenderWait = Duration(renderWait)

	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if err := applyEnv(options, getenv); err != nil {
		return nil, err
	}
	if err := options.validate(); err != nil {
		return nil, err
	}
	return options, nil
}

func applyEnv(options *Options, getenv func(string) string) error {
	if v := getenv("SERVER_ADDRESS"); v != "" {
		options.Addr = v
	}
	if v := getenv("BACKEND_URL"); v != "" {
		options.BaseURL = v
	}
	if v := getenv("BACKEND_CA"); v != "" {
		options.CAFile = v
	}
	if v := getenv("RESET_POLICY"); v != "" {
		options.ResetPolicy = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		options.LogLevel = v
	}
	if v := getenv("FETCH_ATTEMPTS"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("FETCH_ATTEMPTS: %w", err)
		}
		options.FetchAttempts = uint(n)
	}

	durations := []struct {
		env string
		dst *Duration
	}{
		{"REQUEST_TIMEOUT", &options.RequestTimeout},
		{"VIEW_TTL", &options.ViewTTL},
		{"RENDER_WAIT", &options.RenderWait},
	}
	for _, d := range durations {
		v := getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.env, err)
		}
		*d.dst = Duration(parsed)
	}
	return nil
}

func (o *Options) validate() error {
	if o.BaseURL == "" {
		return errors.New("backend base URL is empty")
	}
	if _, err := view.ParseResetPolicy(o.ResetPolicy); err != nil {
		return err
	}
	if o.FetchAttempts < 1 {
		return errors.New("fetch attempts must be at least 1")
	}
	if o.ViewTTL <= 0 {
		return errors.New("view ttl must be positive")
	}
	if o.RequestTimeout < 0 || o.RenderWait < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}
