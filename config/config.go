// Package config holds the client settings. Defaults are overridden by the
// environment, and the command line overrides both.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const DefaultAPIURL = "https://sortalost.is-a.dev/bj_api"

const (
	EnvAPIURL          = "BJ_API_URL"
	EnvRequestTimeout  = "BJ_REQUEST_TIMEOUT"
	EnvPollInterval    = "BJ_POLL_INTERVAL"
	EnvQueueInterval   = "BJ_QUEUE_INTERVAL"
	EnvMaxPollFailures = "BJ_MAX_POLL_FAILURES"
	EnvProfile         = "BJ_PROFILE"
	EnvDebug           = "BJ_DEBUG"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	APIURL          string
	RequestTimeout  time.Duration
	PollInterval    time.Duration
	QueueInterval   time.Duration
	MaxPollFailures int
	// ProfilePath is where the profile store lives; "" disables it.
	ProfilePath string
	Debug       bool
}

// DefaultProfilePath is the profile database under the user config
// directory, or "" when the platform has none.
func DefaultProfilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "blackjack", "profile.db")
}

func Default() Config {
	return Config{
		APIURL:          DefaultAPIURL,
		RequestTimeout:  10 * time.Second,
		PollInterval:    2 * time.Second,
		QueueInterval:   2 * time.Second,
		MaxPollFailures: 5,
		ProfilePath:     DefaultProfilePath(),
	}
}

// FromEnv returns Default() with the BJ_* variables found by lookup applied.
// A nil lookup reads the process environment.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	c := Default()
	var errs []error
	if v, ok := get(EnvAPIURL); ok {
		c.APIURL = v
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{EnvRequestTimeout, &c.RequestTimeout},
		{EnvPollInterval, &c.PollInterval},
		{EnvQueueInterval, &c.QueueInterval},
	}
	for _, d := range durations {
		v, ok := get(d.key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.key, err))
			continue
		}
		*d.dst = parsed
	}
	if v, ok := get(EnvMaxPollFailures); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvMaxPollFailures, err))
		} else {
			c.MaxPollFailures = n
		}
	}
	if v, ok := lookup(EnvProfile); ok {
		c.ProfilePath = strings.TrimSpace(v)
	}
	if v, ok := get(EnvDebug); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvDebug, err))
		} else {
			c.Debug = debug
		}
	}
	if len(errs) > 0 {
		return c, fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return c, nil
}

func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("%w: api url: %w", ErrInvalid, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: api url %q is not an http(s) url", ErrInvalid, c.APIURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalid)
	}
	if c.PollInterval <= 0 || c.QueueInterval <= 0 {
		return fmt.Errorf("%w: poll and queue intervals must be positive", ErrInvalid)
	}
	if c.MaxPollFailures < 1 {
		return fmt.Errorf("%w: max poll failures must be at least 1", ErrInvalid)
	}
	return nil
}
