package config

import (
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.APIURL != DefaultAPIURL || c.PollInterval != 2*time.Second {
		t.Fatalf("unexpected defaults %+v", c)
	}
}

func TestFromEnv(t *testing.T) {
	c, err := FromEnv(env(map[string]string{
		EnvAPIURL:          "http://localhost:5000 ",
		EnvPollInterval:    "500ms",
		EnvMaxPollFailures: "3",
		EnvProfile:         "",
		EnvDebug:           "true",
		EnvQueueInterval:   " ",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if c.APIURL != "http://localhost:5000" {
		t.Errorf("api url %q", c.APIURL)
	}
	if c.PollInterval != 500*time.Millisecond {
		t.Errorf("poll interval %s", c.PollInterval)
	}
	if c.QueueInterval != 2*time.Second {
		t.Errorf("blank value should keep the default, got %s", c.QueueInterval)
	}
	if c.MaxPollFailures != 3 || !c.Debug {
		t.Errorf("unexpected config %+v", c)
	}
	if c.ProfilePath != "" {
		t.Errorf("empty BJ_PROFILE should disable the profile, got %q", c.ProfilePath)
	}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestFromEnvReportsEveryBadValue(t *testing.T) {
	_, err := FromEnv(env(map[string]string{
		EnvRequestTimeout:  "soon",
		EnvMaxPollFailures: "many",
	}))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	for _, key := range []string{EnvRequestTimeout, EnvMaxPollFailures} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestValidate(t *testing.T) {
	bad := []func(*Config){
		func(c *Config) { c.APIURL = "sortalost.is-a.dev" },
		func(c *Config) { c.APIURL = "ftp://example.com" },
		func(c *Config) { c.RequestTimeout = 0 },
		func(c *Config) { c.PollInterval = -time.Second },
		func(c *Config) { c.MaxPollFailures = 0 },
	}
	for i, mutate := range bad {
		c := Default()
		mutate(&c)
		if err := c.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("case %d: expected ErrInvalid, got %v", i, err)
		}
	}
}


func TestDefaultProfilePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	got := DefaultProfilePath()
	if runtime.GOOS == "linux" {
		if want := filepath.Join(dir, "blackjack", "profile.db"); got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	} else if got != "" && filepath.Base(got) != "profile.db" {
		t.Fatalf("unexpected profile path %s", got)
	}
	if Default().ProfilePath != got {
		t.Fatalf("Default uses %q, want %q", Default().ProfilePath, got)
	}
}
