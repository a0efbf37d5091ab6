package core

import (
	"fmt"
	"strings"
	"time"
)

type ReminderConfig struct {
	StaleThresholdDays int    `koanf:"stale_threshold_days" mapstructure:"stale_threshold_days"`
	MinSendDelayMS     int    `koanf:"min_send_delay_ms" mapstructure:"min_send_delay_ms"`
	CronSpec           string `koanf:"cron_spec" mapstructure:"cron_spec"`
	AdminEmail         string `koanf:"admin_email" mapstructure:"admin_email"`
}

func (c ReminderConfig) StaleThreshold() time.Duration {
	days := c.StaleThresholdDays
	if days <= 0 {
		days = DefaultStaleThresholdDays
	}
	return time.Duration(days) * 24 * time.Hour
}

func (c ReminderConfig) MinSendDelay() time.Duration {
	if c.MinSendDelayMS <= 0 {
		return DefaultMinSendDelay
	}
	return time.Duration(c.MinSendDelayMS) * time.Millisecond
}

type Config struct {
	ServiceName     string         `koanf:"service_name" mapstructure:"service_name"`
	DefaultTimeZone string         `koanf:"default_time_zone" mapstructure:"default_time_zone"`
	Reminder        ReminderConfig `koanf:"reminder" mapstructure:"reminder"`
}

const (
	DefaultStaleThresholdDays = 30
	DefaultMinSendDelay       = time.Second
	// DefaultReminderCronSpec fires the reminder batch every morning at 8 AM.
	DefaultReminderCronSpec = "0 8 * * *"
	DefaultTimeZone         = "Europe/Budapest"
)

func DefaultConfig() Config {
	return Config{
		ServiceName:     "calsync",
		DefaultTimeZone: DefaultTimeZone,
		Reminder: ReminderConfig{
			StaleThresholdDays: DefaultStaleThresholdDays,
			MinSendDelayMS:     int(DefaultMinSendDelay / time.Millisecond),
			CronSpec:           DefaultReminderCronSpec,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Reminder.StaleThresholdDays < 0 {
		return fmt.Errorf("core: reminder.stale_threshold_days must not be negative")
	}
	if c.Reminder.MinSendDelayMS < 0 {
		return fmt.Errorf("core: reminder.min_send_delay_ms must not be negative")
	}
	return nil
}
