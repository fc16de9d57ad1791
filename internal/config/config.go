package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultQuietStart           = 23
	DefaultQuietEnd             = 7
	DefaultDailyCap             = 8
	DefaultPerTickCap           = 3
	DefaultDedupWindowHours     = 24
	DefaultHistoryRetentionDays = 7
	DefaultCheckSchedule        = "@every 3h"
	DefaultDigestSchedule       = "0 10 * * 0"
	DefaultProviderTimeoutSecs  = 15
	DefaultFetchDaysBack        = 120
)

type Config struct {
	Name     string         `json:"name,omitempty"`
	ChatID   string         `json:"chatId"`
	Telegram TelegramConfig `json:"telegram"`
	Nudges   NudgesConfig   `json:"nudges"`
	Source   SourceConfig   `json:"source"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
}

// NudgesConfig controls when and how often proactive messages go out.
type NudgesConfig struct {
	QuietStart           int    `json:"quietStart"` // hour 0-23, inclusive
	QuietEnd             int    `json:"quietEnd"`   // hour 0-23, exclusive
	DailyCap             int    `json:"dailyCap"`
	PerTickCap           int    `json:"perTickCap"`
	DedupWindowHours     int    `json:"dedupWindowHours"`
	HistoryRetentionDays int    `json:"historyRetentionDays"`
	CheckSchedule        string `json:"checkSchedule"`
	DigestSchedule       string `json:"digestSchedule"`
	ProviderTimeoutSecs  int    `json:"providerTimeoutSeconds"`
}

type SourceConfig struct {
	Path          string `json:"path,omitempty"` // defaults to <data>/transactions.json
	FetchDaysBack int    `json:"fetchDaysBack"`
}

func DefaultConfig() *Config {
	return &Config{
		Nudges: NudgesConfig{
			QuietStart:           DefaultQuietStart,
			QuietEnd:             DefaultQuietEnd,
			DailyCap:             DefaultDailyCap,
			PerTickCap:           DefaultPerTickCap,
			DedupWindowHours:     DefaultDedupWindowHours,
			HistoryRetentionDays: DefaultHistoryRetentionDays,
			CheckSchedule:        DefaultCheckSchedule,
			DigestSchedule:       DefaultDigestSchedule,
			ProviderTimeoutSecs:  DefaultProviderTimeoutSecs,
		},
		Source: SourceConfig{
			FetchDaysBack: DefaultFetchDaysBack,
		},
	}
}

func ConfigDir() string {
	if dir := os.Getenv("KIYOMI_DIR"); dir != "" {
		return dir
	}
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".kiyomi")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func DataDir() string {
	return filepath.Join(ConfigDir(), "data")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if token := os.Getenv("KIYOMI_TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
		cfg.Telegram.Enabled = true
	}
	if chatID := os.Getenv("KIYOMI_CHAT_ID"); chatID != "" {
		cfg.ChatID = chatID
	}
	if path := os.Getenv("KIYOMI_TRANSACTIONS_PATH"); path != "" {
		cfg.Source.Path = path
	}
	if cap := os.Getenv("KIYOMI_DAILY_CAP"); cap != "" {
		if parsed, err := strconv.Atoi(cap); err == nil {
			cfg.Nudges.DailyCap = parsed
		}
	}

	cfg.applyFallbacks()
	return cfg, nil
}

// applyFallbacks repairs zero or out-of-range values left by a partial
// config file.
func (c *Config) applyFallbacks() {
	n := &c.Nudges
	if n.QuietStart < 0 || n.QuietStart > 23 {
		n.QuietStart = DefaultQuietStart
	}
	if n.QuietEnd < 0 || n.QuietEnd > 23 {
		n.QuietEnd = DefaultQuietEnd
	}
	if n.DailyCap <= 0 {
		n.DailyCap = DefaultDailyCap
	}
	if n.PerTickCap <= 0 {
		n.PerTickCap = DefaultPerTickCap
	}
	if n.DedupWindowHours <= 0 {
		n.DedupWindowHours = DefaultDedupWindowHours
	}
	if n.HistoryRetentionDays <= 0 {
		n.HistoryRetentionDays = DefaultHistoryRetentionDays
	}
	if n.CheckSchedule == "" {
		n.CheckSchedule = DefaultCheckSchedule
	}
	if n.DigestSchedule == "" {
		n.DigestSchedule = DefaultDigestSchedule
	}
	if n.ProviderTimeoutSecs <= 0 {
		n.ProviderTimeoutSecs = DefaultProviderTimeoutSecs
	}
	if c.Source.FetchDaysBack <= 0 {
		c.Source.FetchDaysBack = DefaultFetchDaysBack
	}
	if c.Source.Path == "" {
		c.Source.Path = filepath.Join(DataDir(), "transactions.json")
	}
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
