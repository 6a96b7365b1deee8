package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
// Credentials are expected via COINSAGE_-prefixed environment variables.
type Config struct {
	DiscordToken    string
	AppID           string
	ChannelID       string
	FireworksAPIKey string
	GenModel        string
	GenBaseURL      string
	GenMaxTokens    int
	GenTemperature  float64
	GenTimeout      time.Duration
	MarketBaseURL   string
	VsCurrency      string
	MinVolume       float64
	MarketRPS       float64
	Coin            string
	Cron            string
	ArchivePath     string
	PGDSN           string
	LogLevel        string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COINSAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("gen-model", "accounts/sentientfoundation-serverless/models/dobby-mini-unhinged-plus-llama-3-1-8b")
	v.SetDefault("gen-base-url", "https://api.fireworks.ai/inference/v1")
	v.SetDefault("gen-max-tokens", 250)
	v.SetDefault("gen-temperature", 0.8)
	v.SetDefault("gen-timeout", 15*time.Second)
	v.SetDefault("market-base-url", "https://api.coingecko.com/api/v3")
	v.SetDefault("vs-currency", "usd")
	v.SetDefault("min-volume", float64(1000))
	v.SetDefault("market-rps", float64(1))
	v.SetDefault("archive", "./data/predictions.jsonl")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		DiscordToken:    v.GetString("discord-token"),
		AppID:           v.GetString("app-id"),
		ChannelID:       v.GetString("channel"),
		FireworksAPIKey: v.GetString("fireworks-api-key"),
		GenModel:        v.GetString("gen-model"),
		GenBaseURL:      v.GetString("gen-base-url"),
		GenMaxTokens:    v.GetInt("gen-max-tokens"),
		GenTemperature:  v.GetFloat64("gen-temperature"),
		GenTimeout:      v.GetDuration("gen-timeout"),
		MarketBaseURL:   v.GetString("market-base-url"),
		VsCurrency:      v.GetString("vs-currency"),
		MinVolume:       v.GetFloat64("min-volume"),
		MarketRPS:       v.GetFloat64("market-rps"),
		Coin:            v.GetString("coin"),
		Cron:            v.GetString("cron"),
		ArchivePath:     v.GetString("archive"),
		PGDSN:           v.GetString("pg-dsn"),
		LogLevel:        v.GetString("log-level"),
	}

	return cfg, nil
}
