package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const telegramAPIBaseURL = "https://api.telegram.org"

// TelegramConfig holds bot API credentials.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// TelegramSink posts messages to a fixed chat through the Telegram Bot API.
// The recipient list is ignored: the chat id is operator configuration, not
// per-node data.
type TelegramSink struct {
	client *resty.Client
	token  string
	chatID string
	logger *zap.Logger
}

// TelegramOption configures the sink.
type TelegramOption func(*TelegramSink)

// WithTelegramBaseURL overrides the Bot API endpoint.
func WithTelegramBaseURL(url string) TelegramOption {
	return func(s *TelegramSink) {
		if url != "" {
			s.client.SetBaseURL(url)
		}
	}
}

// NewTelegramSink constructs a Telegram sink.
func NewTelegramSink(cfg TelegramConfig, logger *zap.Logger, opts ...TelegramOption) (*TelegramSink, error) {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, errors.New("telegram sink: bot token and chat id required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(telegramAPIBaseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		SetHeader("Content-Type", "application/json")
	sink := &TelegramSink{
		client: client,
		token:  cfg.BotToken,
		chatID: cfg.ChatID,
		logger: logger,
	}
	for _, opt := range opts {
		opt(sink)
	}
	return sink, nil
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts the subject and plain body as one chat message.
func (s *TelegramSink) Send(ctx context.Context, _ []string, msg Message) error {
	if s == nil || s.client == nil {
		return errors.New("telegram sink: not configured")
	}
	var out telegramResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id": s.chatID,
			"text":    msg.Subject + "\n" + msg.BodyPlain,
		}).
		SetResult(&out).
		SetError(&out).
		Post("/bot" + s.token + "/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram sink: %w", err)
	}
	if resp.IsError() || !out.OK {
		return fmt.Errorf("telegram sink: send failed: status=%d description=%q", resp.StatusCode(), out.Description)
	}
	s.logger.Debug("telegram message sent", zap.String("subject", msg.Subject))
	return nil
}
