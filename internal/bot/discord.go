package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"coinSage/internal/market"
	"coinSage/internal/narrate"
	"coinSage/internal/resolve"
	"coinSage/internal/storage"
)

// Config holds the Discord-side settings of the bot.
type Config struct {
	Token            string
	AppID            string
	DefaultChannelID string
}

// Bot connects the Discord gateway to the prediction pipeline and the
// scheduler.
type Bot struct {
	cfg       Config
	session   *discordgo.Session
	pipeline  *Pipeline
	scheduler *Scheduler
	logger    *zap.Logger
}

// New builds the bot and its session. The session is not opened yet; call
// Open.
func New(cfg Config, resolver Resolver, snapshots SnapshotSource, narrator Narrator, archive storage.Store, scheduler *Scheduler, logger *zap.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord token is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	b := &Bot{
		cfg:       cfg,
		session:   session,
		scheduler: scheduler,
		logger:    logger,
	}
	b.pipeline = NewPipeline(resolver, snapshots, narrator, channelMessenger{session: session}, archive, logger)

	session.AddHandler(b.handleReady)
	session.AddHandler(b.handleInteraction)

	return b, nil
}

// Open connects to the Discord gateway.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// RegisterCommands registers the /predict slash command. Discord upserts by
// command name, so repeating this on every startup is safe.
func (b *Bot) RegisterCommands() error {
	if b.cfg.AppID == "" {
		b.logger.Warn("app id not set, skipping slash command registration")
		return nil
	}

	command := &discordgo.ApplicationCommand{
		Name:        "predict",
		Description: "Get a price prediction for a crypto coin",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "coin",
				Description: "Coin symbol or CoinGecko id (e.g. btc or bitcoin)",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "interval",
				Description: "Optional cron schedule (e.g. 0 */1 * * *)",
				Required:    false,
			},
		},
	}

	if _, err := b.session.ApplicationCommandCreate(b.cfg.AppID, "", command); err != nil {
		return fmt.Errorf("register slash command: %w", err)
	}
	b.logger.Info("slash command registered", zap.String("command", command.Name))
	return nil
}

// RunStartup executes the optional startup coin argument against the default
// channel: one immediate pass, plus a schedule when a cron expression was
// given. A failed startup pass is logged, not fatal.
func (b *Bot) RunStartup(ctx context.Context, coin, cronExpr string) error {
	if coin == "" {
		if cronExpr != "" {
			b.logger.Warn("cron expression without coin argument, ignoring", zap.String("cron", cronExpr))
		}
		return nil
	}
	if b.cfg.DefaultChannelID == "" {
		return fmt.Errorf("default channel id is required for startup predictions")
	}

	token := strings.ToLower(coin)
	if _, err := b.pipeline.Run(ctx, token, b.cfg.DefaultChannelID); err != nil {
		b.logger.Error("startup prediction failed", zap.String("coin", token), zap.Error(err))
	}

	if cronExpr != "" {
		return b.scheduler.Register(cronExpr, token, b.cfg.DefaultChannelID, b.runScheduled)
	}
	return nil
}

func (b *Bot) handleReady(_ *discordgo.Session, ready *discordgo.Ready) {
	b.logger.Info("discord session ready", zap.String("user", ready.User.Username))
}

func (b *Bot) handleInteraction(s *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := interaction.ApplicationCommandData()
	if data.Name != "predict" {
		return
	}

	var token, interval string
	for _, option := range data.Options {
		switch option.Name {
		case "coin":
			token = option.StringValue()
		case "interval":
			interval = option.StringValue()
		}
	}

	// Acknowledge immediately; resolution plus generation can take several
	// seconds and the interaction token expires fast.
	err := s.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		b.logger.Error("deferred ack failed", zap.Error(err))
		return
	}

	b.runCommand(interaction, token, interval)
}

// runCommand is one pass of the command state machine: Deferred → Resolving
// → Fetching → Generating → Delivered | Failed, with a stage-specific user
// message on failure.
func (b *Bot) runCommand(interaction *discordgo.InteractionCreate, token, interval string) {
	ctx := context.Background()
	channelID := interaction.ChannelID

	id, err := b.pipeline.Run(ctx, token, channelID)
	if err != nil {
		b.logger.Error("command pipeline failed", zap.String("token", token), zap.Error(err))
		b.editReply(interaction, commandFailureMessage(token, id, err))
		return
	}

	b.editReply(interaction, fmt.Sprintf("Prediction for **%s** posted in this channel.", id))

	if interval == "" {
		return
	}
	if err := b.scheduler.Register(interval, id, channelID, b.runScheduled); err != nil {
		b.followUp(interaction, fmt.Sprintf("Could not schedule updates: %v", err))
		return
	}
	b.followUp(interaction, fmt.Sprintf("Scheduled updates every `%s` for **%s** in this channel.", interval, id))
}

// runScheduled is the timer path: the same pipeline with no interactive
// acknowledgment, and failures only logged since there is no user to reply
// to.
func (b *Bot) runScheduled(identifier, channelID string) {
	if _, err := b.pipeline.Run(context.Background(), identifier, channelID); err != nil {
		b.logger.Error("scheduled prediction failed",
			zap.String("coin", identifier),
			zap.String("channel", channelID),
			zap.Error(err),
		)
	}
}

func (b *Bot) editReply(interaction *discordgo.InteractionCreate, content string) {
	_, err := b.session.InteractionResponseEdit(interaction.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	if err != nil {
		b.logger.Error("edit reply failed", zap.Error(err))
	}
}

func (b *Bot) followUp(interaction *discordgo.InteractionCreate, content string) {
	_, err := b.session.FollowupMessageCreate(interaction.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	})
	if err != nil {
		b.logger.Error("follow up failed", zap.Error(err))
	}
}

// commandFailureMessage maps a pipeline error to the user-visible message
// for its stage.
func commandFailureMessage(token, id string, err error) string {
	switch {
	case errors.Is(err, resolve.ErrNotFound):
		return fmt.Sprintf("Could not resolve coin: **%s**", token)
	case errors.Is(err, market.ErrFetchFailed):
		return fmt.Sprintf("Failed to fetch market data for **%s**.", id)
	case errors.Is(err, narrate.ErrConfigMissing):
		return "Prediction service is not configured."
	default:
		return "Internal error handling command."
	}
}

// channelMessenger adapts a discordgo session to the pipeline's Messenger.
type channelMessenger struct {
	session *discordgo.Session
}

func (m channelMessenger) Send(channelID, content string) error {
	_, err := m.session.ChannelMessageSend(channelID, content)
	return err
}
