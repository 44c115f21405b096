package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	// A minimal file leaves every default in place.
	path := writeConfig(t, "scan:\n  comp_ids: \"1-3\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Source.MultibetURL != "http://odds.aussportsbetting.com/multibet" {
		t.Errorf("multibet_url = %q", cfg.Source.MultibetURL)
	}
	if cfg.Source.NavTimeout != 15*time.Second {
		t.Errorf("nav_timeout = %v", cfg.Source.NavTimeout)
	}
	if !cfg.Source.Headless {
		t.Error("headless should default to true")
	}
	if cfg.Scan.ROIThreshold != 0.02 {
		t.Errorf("roi_threshold = %v", cfg.Scan.ROIThreshold)
	}
	if cfg.Storage.Driver != "file" || cfg.Storage.OpportunitiesFile != "opportunities.json" {
		t.Errorf("storage defaults: %+v", cfg.Storage)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("logging defaults: %+v", cfg.Logging)
	}
	if cfg.Notify.Telegram.Enabled || cfg.Notify.Discord.Enabled {
		t.Error("notification channels should default to disabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaulted config should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
source:
  multibet_url: "http://example.com/multibet"
  nav_timeout: 30s
  headless: false
scan:
  comp_ids: "11,12,40-42"
  skip_ids: [41]
  roi_threshold: 0.05
  allowed_agencies: ["sportsbet"]
storage:
  driver: postgres
  postgres_dsn: "postgres://localhost/arbscan?sslmode=disable"
logging:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Source.MultibetURL != "http://example.com/multibet" || cfg.Source.NavTimeout != 30*time.Second || cfg.Source.Headless {
		t.Errorf("source overrides not applied: %+v", cfg.Source)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	ids, err := cfg.CompetitionIDs()
	if err != nil {
		t.Fatalf("competition IDs: %v", err)
	}
	if !reflect.DeepEqual(ids, []int{11, 12, 40, 42}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateErrors(t *testing.T) {
	base := func() *Config {
		path := writeConfig(t, "scan:\n  comp_ids: \"1-3\"\n")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty multibet url", func(c *Config) { c.Source.MultibetURL = "" }},
		{"sub-second nav timeout", func(c *Config) { c.Source.NavTimeout = 100 * time.Millisecond }},
		{"bad comp ids", func(c *Config) { c.Scan.CompIDs = "abc" }},
		{"roi threshold too high", func(c *Config) { c.Scan.ROIThreshold = 1.5 }},
		{"negative roi threshold", func(c *Config) { c.Scan.ROIThreshold = -0.1 }},
		{"empty allow list", func(c *Config) { c.Scan.AllowedAgencies = nil }},
		{"telegram enabled without token", func(c *Config) { c.Notify.Telegram.Enabled = true; c.Notify.Telegram.ChatID = "1" }},
		{"discord enabled without webhook", func(c *Config) { c.Notify.Discord.Enabled = true }},
		{"unknown storage driver", func(c *Config) { c.Storage.Driver = "sqlite" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestParseCompIDs(t *testing.T) {
	tests := []struct {
		name string
		spec string
		skip []int
		want []int
	}{
		{"single range", "1-4", nil, []int{1, 2, 3, 4}},
		{"reversed range", "4-1", nil, []int{1, 2, 3, 4}},
		{"mixed list", "11,12,40-42", nil, []int{11, 12, 40, 41, 42}},
		{"skip applied", "1-5", []int{2, 4}, []int{1, 3, 5}},
		{"duplicates collapsed", "3,1-4,3", nil, []int{3, 1, 2, 4}},
		{"whitespace tolerated", " 7 , 9 - 10 ", nil, []int{7, 9, 10}},
	}
	for _, tt := range tests {
		got, err := ParseCompIDs(tt.spec, tt.skip)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseCompIDsErrors(t *testing.T) {
	specs := []string{"abc", "1-x", "", "2-3", ","}
	skips := [][]int{nil, nil, nil, []int{2, 3}, nil}
	for i, spec := range specs {
		if _, err := ParseCompIDs(spec, skips[i]); err == nil {
			t.Errorf("spec %q with skip %v: expected error", spec, skips[i])
		}
	}
}
