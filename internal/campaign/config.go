// Package campaign schedules recurring design runs over independent
// workspaces. A campaign names a settings record and a cron expression;
// the scheduler launches a full pipeline run whenever the expression
// fires and the previous run for that campaign has finished.
package campaign

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/taejun-song/bindcraft-nhej/internal/settings"
)

// Duration is a time.Duration that reads from TOML as a string like
// "8h" or "90m" rather than a nanosecond count.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// CampaignConfig describes one scheduled design campaign.
type CampaignConfig struct {
	Name             string   `toml:"name"`
	SettingsPath     string   `toml:"settings_path"`
	ProtocolPath     string   `toml:"protocol_path"`
	Cron             string   `toml:"cron"`
	MaxDuration      Duration `toml:"max_duration"`
	NotifyOnComplete bool     `toml:"notify_on_complete"`
}

// ScheduleConfig holds all campaign configurations.
type ScheduleConfig struct {
	Campaigns []CampaignConfig `toml:"campaign"`
}

// Validate checks if the config is valid.
func (c *CampaignConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("campaign name is required")
	}
	if c.SettingsPath == "" {
		return fmt.Errorf("settings_path is required")
	}
	if c.Cron == "" {
		return fmt.Errorf("cron expression is required")
	}
	if _, err := ParseCron(c.Cron); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = Duration(12 * time.Hour) // Default
	}
	return nil
}

// LoadScheduleConfig loads campaign configuration from a TOML file.
// Campaigns must not share a design workspace: only one run may mutate
// a workspace at a time, so two campaigns pointing at the same
// design_path would race.
func LoadScheduleConfig(path string) (*ScheduleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ScheduleConfig{}, nil
		}
		return nil, err
	}

	var cfg ScheduleConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	workspaces := make(map[string]string)
	for i := range cfg.Campaigns {
		c := &cfg.Campaigns[i]
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("campaign %d: %w", i, err)
		}

		run, err := settings.Load(c.SettingsPath)
		if err != nil {
			return nil, fmt.Errorf("campaign %s: %w", c.Name, err)
		}
		if other, taken := workspaces[run.DesignPath]; taken {
			return nil, fmt.Errorf("campaigns %s and %s share workspace %s", other, c.Name, run.DesignPath)
		}
		workspaces[run.DesignPath] = c.Name
	}

	return &cfg, nil
}
