package config

import (
	"path/filepath"
	"testing"
)

func TestBodiesListDeduplicates(t *testing.T) {
	t.Parallel()
	cfg := &Config{GovernmentBodies: "City Council, Planning Commission ,City Council,, "}
	bodies := cfg.BodiesList()
	if len(bodies) != 2 {
		t.Fatalf("bodies = %v, want 2 entries", bodies)
	}
	if bodies[0] != "City Council" || bodies[1] != "Planning Commission" {
		t.Errorf("bodies = %v, want trimmed originals in order", bodies)
	}
}

func TestResolvedLedgerPathDefaultsIntoDataDir(t *testing.T) {
	t.Parallel()
	cfg := &Config{DataDir: "data"}
	if got, want := cfg.ResolvedLedgerPath(), filepath.Join("data", "civicsum_runs.db"); got != want {
		t.Errorf("ResolvedLedgerPath() = %q, want %q", got, want)
	}

	cfg.LedgerPath = "/tmp/runs.db"
	if got := cfg.ResolvedLedgerPath(); got != "/tmp/runs.db" {
		t.Errorf("ResolvedLedgerPath() = %q, want explicit override", got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	valid := Config{
		DataDir:          "data",
		CityBaseURL:      "https://lcf.ca.gov",
		GovernmentBodies: "City Council",
		MaxTokens:        1000,
		SMTPPort:         587,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing data dir", func(c *Config) { c.DataDir = " " }},
		{"missing base url", func(c *Config) { c.CityBaseURL = "" }},
		{"no bodies", func(c *Config) { c.GovernmentBodies = " , " }},
		{"bad max tokens", func(c *Config) { c.MaxTokens = 0 }},
		{"bad smtp port", func(c *Config) { c.SMTPPort = 0 }},
		{"email enabled without recipients", func(c *Config) { c.SendEmail = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
