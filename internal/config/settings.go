package config

import (
	"fmt"
	"time"

	"gopkg.in/ini.v1"
)

// Settings holds process-wide configuration loaded from Settings.ini
type Settings struct {
	// Remote API
	APIBaseURL     string
	RequestTimeout time.Duration

	// Scheduling
	TickInterval    time.Duration
	CooldownSeconds int // pause after a rate-limited response
	ClaimDelayMinMs int // inter-claim delay bounds
	ClaimDelayMaxMs int
	FundsInterval   time.Duration

	// Status API
	ListenAddr string

	// Storage
	DatabasePath      string
	AccountsPath      string
	SchedulesPath     string
	FlushInterval     time.Duration
	ActivityRetention time.Duration // activity rows older than this are pruned

	// Logging
	LogLevel    string
	LogFilePath string // empty = stderr only
}

// LoadSettings loads configuration from a Settings.ini file
func LoadSettings(path string) (*Settings, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	section := cfg.Section("Bot")

	settings := &Settings{}

	// Remote API
	settings.APIBaseURL = section.Key("apiBaseUrl").MustString("https://api.luckyspin.example.com")
	settings.RequestTimeout = time.Duration(section.Key("requestTimeoutSeconds").MustInt(15)) * time.Second

	// Scheduling
	settings.TickInterval = time.Duration(section.Key("tickIntervalSeconds").MustInt(30)) * time.Second
	settings.CooldownSeconds = section.Key("cooldownSeconds").MustInt(45)
	settings.ClaimDelayMinMs = section.Key("claimDelayMinMs").MustInt(400)
	settings.ClaimDelayMaxMs = section.Key("claimDelayMaxMs").MustInt(2500)
	settings.FundsInterval = time.Duration(section.Key("fundsIntervalMinutes").MustInt(60)) * time.Minute

	// Status API
	settings.ListenAddr = section.Key("listenAddr").MustString("127.0.0.1:8787")

	// Storage
	settings.DatabasePath = section.Key("databasePath").MustString("data/spinbot.db")
	settings.AccountsPath = section.Key("accountsPath").MustString("accounts.json")
	settings.SchedulesPath = section.Key("schedulesPath").MustString("")
	settings.FlushInterval = time.Duration(section.Key("flushIntervalMinutes").MustInt(5)) * time.Minute
	settings.ActivityRetention = time.Duration(section.Key("activityRetentionDays").MustInt(14)) * 24 * time.Hour

	// Logging
	settings.LogLevel = section.Key("logLevel").MustString("INFO")
	settings.LogFilePath = section.Key("logFile").MustString("")

	if settings.ClaimDelayMinMs > settings.ClaimDelayMaxMs {
		settings.ClaimDelayMinMs, settings.ClaimDelayMaxMs = settings.ClaimDelayMaxMs, settings.ClaimDelayMinMs
	}

	return settings, nil
}

// NewDefaultSettings creates settings with default values
func NewDefaultSettings() *Settings {
	return &Settings{
		APIBaseURL:        "https://api.luckyspin.example.com",
		RequestTimeout:    15 * time.Second,
		TickInterval:      30 * time.Second,
		CooldownSeconds:   45,
		ClaimDelayMinMs:   400,
		ClaimDelayMaxMs:   2500,
		FundsInterval:     time.Hour,
		ListenAddr:        "127.0.0.1:8787",
		DatabasePath:      "data/spinbot.db",
		AccountsPath:      "accounts.json",
		FlushInterval:     5 * time.Minute,
		ActivityRetention: 14 * 24 * time.Hour,
		LogLevel:          "INFO",
	}
}

// SaveSettings writes settings back to an INI file
func SaveSettings(settings *Settings, path string) error {
	cfg := ini.Empty()
	section := cfg.Section("Bot")

	section.Key("apiBaseUrl").SetValue(settings.APIBaseURL)
	section.Key("requestTimeoutSeconds").SetValue(fmt.Sprintf("%d", int(settings.RequestTimeout.Seconds())))
	section.Key("tickIntervalSeconds").SetValue(fmt.Sprintf("%d", int(settings.TickInterval.Seconds())))
	section.Key("cooldownSeconds").SetValue(fmt.Sprintf("%d", settings.CooldownSeconds))
	section.Key("claimDelayMinMs").SetValue(fmt.Sprintf("%d", settings.ClaimDelayMinMs))
	section.Key("claimDelayMaxMs").SetValue(fmt.Sprintf("%d", settings.ClaimDelayMaxMs))
	section.Key("fundsIntervalMinutes").SetValue(fmt.Sprintf("%d", int(settings.FundsInterval.Minutes())))
	section.Key("listenAddr").SetValue(settings.ListenAddr)
	section.Key("databasePath").SetValue(settings.DatabasePath)
	section.Key("accountsPath").SetValue(settings.AccountsPath)
	section.Key("schedulesPath").SetValue(settings.SchedulesPath)
	section.Key("flushIntervalMinutes").SetValue(fmt.Sprintf("%d", int(settings.FlushInterval.Minutes())))
	section.Key("activityRetentionDays").SetValue(fmt.Sprintf("%d", int(settings.ActivityRetention.Hours()/24)))
	section.Key("logLevel").SetValue(settings.LogLevel)
	section.Key("logFile").SetValue(settings.LogFilePath)

	return cfg.SaveTo(path)
}
