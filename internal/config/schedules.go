package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"spinbot.dev/spin-api-go/internal/schedule"
)

// ScheduleOverrides optionally adjusts the recurring task definitions.
// Absent fields keep their defaults: funds checks hourly, achievement
// claims daily at window end, token refresh daily at window start.
type ScheduleOverrides struct {
	FundsIntervalMinutes int    `yaml:"fundsIntervalMinutes"`
	ClaimTime            string `yaml:"claimTime"`   // HH:MM UTC, empty = account window end
	RefreshTime          string `yaml:"refreshTime"` // HH:MM UTC, empty = account window start
}

// LoadSchedules reads an optional schedules.yaml. A missing path returns
// empty overrides.
func LoadSchedules(path string) (*ScheduleOverrides, error) {
	overrides := &ScheduleOverrides{}
	if path == "" {
		return overrides, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return overrides, nil
		}
		return nil, fmt.Errorf("failed to read schedules file: %w", err)
	}

	if err := yaml.Unmarshal(data, overrides); err != nil {
		return nil, fmt.Errorf("failed to parse schedules file: %w", err)
	}

	if overrides.ClaimTime != "" {
		if _, err := schedule.ParseClock(overrides.ClaimTime); err != nil {
			return nil, fmt.Errorf("schedules claimTime: %w", err)
		}
	}
	if overrides.RefreshTime != "" {
		if _, err := schedule.ParseClock(overrides.RefreshTime); err != nil {
			return nil, fmt.Errorf("schedules refreshTime: %w", err)
		}
	}
	if overrides.FundsIntervalMinutes < 0 {
		return nil, fmt.Errorf("schedules fundsIntervalMinutes must not be negative")
	}

	return overrides, nil
}
