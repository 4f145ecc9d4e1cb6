package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DataDir    string `envconfig:"DATA_DIR" default:"data"`
	LedgerPath string `envconfig:"LEDGER_PATH" default:""`

	CityBaseURL      string `envconfig:"CITY_BASE_URL" default:"https://lcf.ca.gov"`
	MeetingsURL      string `envconfig:"MEETINGS_URL" default:"https://lcf.ca.gov/city-clerk/agenda-minutes/"`
	GovernmentBodies string `envconfig:"GOVERNMENT_BODIES" default:"City Council,Planning Commission,Public Safety Commission,Parks & Recreation Commission,Design Review Board,Environmental Commission,Traffic & Safety Commission,Investment & Financing Advisory Committee"`

	OpenAIAPIKey      string        `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIModel       string        `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	MaxTokens         int           `envconfig:"MAX_TOKENS" default:"1000"`
	UseAISummaries    bool          `envconfig:"USE_AI_SUMMARIES" default:"true"`
	MaxAPICallsPerRun int           `envconfig:"MAX_API_CALLS_PER_RUN" default:"20"`
	APICallDelay      time.Duration `envconfig:"API_CALL_DELAY" default:"2s"`

	SMTPServer   string `envconfig:"SMTP_SERVER" default:"smtp.gmail.com"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME" default:""`
	SMTPPassword string `envconfig:"SMTP_PASSWORD" default:""`
	EmailFrom    string `envconfig:"EMAIL_FROM" default:""`
	EmailTo      string `envconfig:"EMAIL_TO" default:""`
	SendEmail    bool   `envconfig:"SEND_EMAIL" default:"false"`

	ScheduleSpec string `envconfig:"SCHEDULE_SPEC" default:"0 9 * * MON"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if strings.TrimSpace(c.CityBaseURL) == "" {
		return fmt.Errorf("CITY_BASE_URL is required")
	}
	if len(c.BodiesList()) == 0 {
		return fmt.Errorf("GOVERNMENT_BODIES must name at least one body")
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("MAX_TOKENS must be >= 1")
	}
	if c.MaxAPICallsPerRun < 0 {
		return fmt.Errorf("MAX_API_CALLS_PER_RUN must be >= 0")
	}
	if c.SMTPPort < 1 || c.SMTPPort > 65535 {
		return fmt.Errorf("SMTP_PORT must be between 1 and 65535")
	}
	if c.SendEmail {
		if strings.TrimSpace(c.EmailFrom) == "" || strings.TrimSpace(c.EmailTo) == "" {
			return fmt.Errorf("SEND_EMAIL requires EMAIL_FROM and EMAIL_TO")
		}
	}
	return nil
}

// BodiesList splits GOVERNMENT_BODIES into a deduplicated name list.
func (c *Config) BodiesList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.GovernmentBodies, ",")
	bodies := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		body := strings.TrimSpace(part)
		if body == "" {
			continue
		}
		if _, exists := seen[body]; exists {
			continue
		}
		seen[body] = struct{}{}
		bodies = append(bodies, body)
	}
	return bodies
}

// ResolvedLedgerPath defaults the run-ledger database into the data directory.
func (c *Config) ResolvedLedgerPath() string {
	if path := strings.TrimSpace(c.LedgerPath); path != "" {
		return path
	}
	return filepath.Join(c.DataDir, "civicsum_runs.db")
}
