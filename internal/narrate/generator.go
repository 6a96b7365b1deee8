package narrate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"coinSage/internal/model"
)

// ErrConfigMissing means the generation API key is absent. It fails the
// single invocation, not the process.
var ErrConfigMissing = errors.New("generation api key not configured")

const (
	defaultMaxTokens   = 250
	defaultTemperature = 0.8
	defaultTimeout     = 15 * time.Second
)

// Config holds the text-generation service settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Generator produces narrative price outlooks via a hosted chat-completions
// API.
type Generator struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// New builds a Generator. The request timeout defaults to 15s; generation is
// the only external call with an explicit ceiling.
func New(cfg Config, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Generator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Generate returns outlook text for the snapshot. Suspicious assets get the
// fixed warning without any model call. Model failures collapse to a
// per-coin error string so the caller always has something to post; only a
// missing API key surfaces as an error.
func (g *Generator) Generate(ctx context.Context, snapshot model.MarketSnapshot, id string) (string, error) {
	if snapshot.Classification == model.Suspicious {
		return SuspiciousMessage(id), nil
	}
	if g.cfg.APIKey == "" {
		return "", ErrConfigMissing
	}

	text, err := g.complete(ctx, BuildPrompt(snapshot, id))
	if err != nil {
		g.logger.Warn("generation failed", zap.String("coin", id), zap.Error(err))
		return FailureMessage(id), nil
	}
	return text, nil
}

// SuspiciousMessage is the fixed warning for coins flagged by the liquidity
// screen.
func SuspiciousMessage(id string) string {
	return fmt.Sprintf("❌ Prediction for **%s**:\n"+
		"This coin looks dead or suspicious.\n"+
		"No real price or volume activity detected. Avoid trading.",
		strings.ToUpper(id))
}

// FailureMessage is the substitute text when the model call fails.
func FailureMessage(id string) string {
	return fmt.Sprintf("Error generating prediction for %s.", id)
}

// BuildPrompt renders the deterministic analyst prompt for a viable
// snapshot.
func BuildPrompt(snapshot model.MarketSnapshot, id string) string {
	points := make([]string, 0, len(snapshot.History))
	for _, point := range snapshot.History {
		points = append(points, fmt.Sprintf("%s: $%.2f", point.Date, point.Close))
	}
	history := strings.Join(points, " | ")

	var b strings.Builder
	b.WriteString("You are a crypto market analyst and must respond in this format for Discord ")
	b.WriteString("with markdown and emojis. Be creative, avoid repetition, and say what you ")
	b.WriteString("think about the token stats.\n\n")
	fmt.Fprintf(&b, "Prediction for **%s**:\n\n", id)
	fmt.Fprintf(&b, "💰 Current price = **$%.2f**\n", snapshot.Price)
	fmt.Fprintf(&b, "📉 Last 24h: **%.2f%%**\n", snapshot.Change24hPct)
	fmt.Fprintf(&b, "📈 High: **$%.2f**, 📉 Low: **$%.2f**. Volume at **$%.2fM** 🔄\n",
		snapshot.High24h, snapshot.Low24h, snapshot.Volume/1e6)
	fmt.Fprintf(&b, "📅 Last 7 days: %s\n\n", history)
	b.WriteString("🔮 **Forecast:** give your own read on whether this trades sideways, ")
	b.WriteString("long or short from the 7-day data, with an expected daily wiggle percentage.\n")
	return b.String()
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       g.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(g.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completions: HTTP %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	text := parsed.Choices[0].Message.Content
	if text == "" {
		text = parsed.Choices[0].Text
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty completion text")
	}
	return strings.TrimSpace(text), nil
}
