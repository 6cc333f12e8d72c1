package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Poll    PollConfig    `mapstructure:"poll"`
	Feed    FeedConfig    `mapstructure:"feed"`
	Quota   QuotaConfig   `mapstructure:"quota"`
	Discord DiscordConfig `mapstructure:"discord"`
}

type PollConfig struct {
	LiveInterval        time.Duration `mapstructure:"live_interval"`
	ApproachingInterval time.Duration `mapstructure:"approaching_interval"`
	GameDayInterval     time.Duration `mapstructure:"gameday_interval"`
	// KickoffLead is how far before kickoff a game counts as "approaching".
	KickoffLead time.Duration `mapstructure:"kickoff_lead"`
	// LiveWindow is how long after kickoff a game is still plausibly live.
	// Heuristic, not a guarantee; see the stuck-game sweep.
	LiveWindow          time.Duration `mapstructure:"live_window"`
	SettlementSweepCron string        `mapstructure:"settlement_sweep_cron"`
}

type FeedConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	BackupURL   string        `mapstructure:"backup_url"`
	CalendarURL string        `mapstructure:"calendar_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type QuotaConfig struct {
	MonthlyBudget int `mapstructure:"monthly_budget"`
}

type DiscordConfig struct {
	ChannelID string `mapstructure:"channel_id"`
}

// Load reads config.yaml (if present) with env-variable overrides. Secrets
// (DATABASE_URL, FEED_TOKEN, DISCORD_BOT_TOKEN) stay in the environment and
// never appear in the config file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("poll.live_interval", 5*time.Minute)
	v.SetDefault("poll.approaching_interval", 10*time.Minute)
	v.SetDefault("poll.gameday_interval", 30*time.Minute)
	v.SetDefault("poll.kickoff_lead", 30*time.Minute)
	v.SetDefault("poll.live_window", 4*time.Hour)
	v.SetDefault("poll.settlement_sweep_cron", "0 */2 * * * *")
	v.SetDefault("feed.base_url", "https://api.collegefootballdata.com/scoreboard")
	v.SetDefault("feed.backup_url", "")
	v.SetDefault("feed.calendar_url", "https://api.perfectfall.com/week-season")
	v.SetDefault("feed.timeout", 8*time.Second)
	v.SetDefault("quota.monthly_budget", 4500)
	v.SetDefault("discord.channel_id", "")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Defaults cover everything; a missing file is fine.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
