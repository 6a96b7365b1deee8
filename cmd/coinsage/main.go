package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"coinSage/internal/bot"
	"coinSage/internal/config"
	"coinSage/internal/market"
	"coinSage/internal/narrate"
	"coinSage/internal/resolve"
	"coinSage/internal/storage"
	"coinSage/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "coinsage",
		Short:        "Discord crypto price outlook bot",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bot",
		RunE:  runBot,
	}

	runCmd.Flags().String("discord-token", "", "Discord bot token")
	runCmd.Flags().String("app-id", "", "Discord application id")
	runCmd.Flags().String("channel", "", "default delivery channel id")
	runCmd.Flags().String("fireworks-api-key", "", "Fireworks API key")
	runCmd.Flags().String("gen-model", "", "text generation model")
	runCmd.Flags().String("gen-base-url", "", "chat completions base URL")
	runCmd.Flags().Int("gen-max-tokens", 250, "completion token ceiling")
	runCmd.Flags().Float64("gen-temperature", 0.8, "sampling temperature")
	runCmd.Flags().Duration("gen-timeout", 15*time.Second, "generation request timeout")
	runCmd.Flags().String("market-base-url", "", "CoinGecko API base URL")
	runCmd.Flags().String("vs-currency", "usd", "quote currency")
	runCmd.Flags().Float64("min-volume", 1000, "24h volume floor before a coin is flagged suspicious")
	runCmd.Flags().Float64("market-rps", 1, "CoinGecko requests per second")
	runCmd.Flags().String("coin", "", "coin symbol or id to predict at startup")
	runCmd.Flags().String("cron", "", "cron schedule for the startup coin (e.g. \"0 */1 * * *\")")
	runCmd.Flags().String("archive", "./data/predictions.jsonl", "prediction archive JSONL path")
	runCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for the prediction archive")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.DiscordToken == "" {
		return fmt.Errorf("discord token is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	marketClient := market.NewClient(cfg.MarketBaseURL, cfg.VsCurrency, cfg.MarketRPS, logger)
	resolver := resolve.New(marketClient, logger)
	fetcher := market.NewFetcher(marketClient, cfg.MinVolume, logger)
	generator := narrate.New(narrate.Config{
		APIKey:      cfg.FireworksAPIKey,
		BaseURL:     cfg.GenBaseURL,
		Model:       cfg.GenModel,
		MaxTokens:   cfg.GenMaxTokens,
		Temperature: cfg.GenTemperature,
		Timeout:     cfg.GenTimeout,
	}, logger)

	var archive storage.Store
	switch {
	case cfg.PGDSN != "":
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		archive = store
	case cfg.ArchivePath != "":
		archive = storage.NewJsonlStore(cfg.ArchivePath)
	}

	scheduler := bot.NewScheduler(logger)

	b, err := bot.New(bot.Config{
		Token:            cfg.DiscordToken,
		AppID:            cfg.AppID,
		DefaultChannelID: cfg.ChannelID,
	}, resolver, fetcher, generator, archive, scheduler, logger)
	if err != nil {
		return err
	}

	if err := b.Open(); err != nil {
		return err
	}
	defer b.Close()

	if err := b.RegisterCommands(); err != nil {
		return err
	}

	scheduler.Start()
	defer scheduler.Stop()

	if err := b.RunStartup(ctx, cfg.Coin, cfg.Cron); err != nil {
		return err
	}

	logger.Info("bot started",
		zap.String("default_channel", cfg.ChannelID),
		zap.String("vs_currency", cfg.VsCurrency),
		zap.Float64("min_volume", cfg.MinVolume),
		zap.Bool("archive_enabled", archive != nil),
	)

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
