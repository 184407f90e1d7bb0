package main

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSetConfigValue(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{"base url", "default.base_url", "https://planner.example.com/", false},
		{"local db", "default.local_db", "/tmp/planner.db", false},
		{"timeout", "default.timeout", "5s", false},
		{"bad timeout", "default.timeout", "soon", true},
		{"no section", "base_url", "x", true},
		{"unknown section", "auth.token", "x", true},
		{"unknown field", "default.color", "x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := setConfigValue(&Config{}, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("setConfigValue(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestConfigRoundTripAndDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.baseURL() != defaultBaseURL {
		t.Errorf("baseURL() = %q, want default", cfg.baseURL())
	}
	if got := cfg.localDB("/home/x/.planner"); got != filepath.Join("/home/x/.planner", "local.db") {
		t.Errorf("localDB() = %q", got)
	}

	setConfigValue(cfg, "default.base_url", "https://planner.example.com/")
	setConfigValue(cfg, "default.timeout", "750ms")
	if err := saveConfig(cfg); err != nil {
		t.Fatalf("saveConfig failed: %v", err)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if loaded.baseURL() != "https://planner.example.com" {
		t.Errorf("baseURL() = %q", loaded.baseURL())
	}
	if d, err := loaded.probeTimeout(); err != nil || d != 750*time.Millisecond {
		t.Errorf("probeTimeout() = %v, %v", d, err)
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2026, 7, 4, 18, 30, 0, 0, time.Local)
	for _, in := range []string{"2026-07-04 18:30", "2026-07-04T18:30"} {
		got, err := parseTime(in)
		if err != nil || !got.Equal(want) {
			t.Errorf("parseTime(%q) = %v, %v", in, got, err)
		}
	}
	if got, err := parseTime(""); err != nil || !got.IsZero() {
		t.Errorf("parseTime(\"\") = %v, %v", got, err)
	}
	if _, err := parseTime("next tuesday"); err == nil {
		t.Error("Expected an error for an unparseable time")
	}
}
