package telegram

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Settings configure the Bot API client.
type Settings struct {
	Token    string
	Endpoint string
	Verify   bool
}

// Bot wraps a lazily constructed Bot API client. Construction calls getMe,
// so it is deferred until first use or an explicit Verify.
type Bot struct {
	settings Settings
	client   *http.Client
	logger   *zap.Logger

	mu  sync.Mutex
	api *tgbotapi.BotAPI
}

// NewBot prepares a bot. A nil client falls back to http.DefaultClient.
func NewBot(settings Settings, client *http.Client, logger *zap.Logger) *Bot {
	if settings.Endpoint == "" {
		settings.Endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{settings: settings, client: client, logger: logger}
}

// API returns the Bot API client, creating it on first call. Failed attempts
// are not cached.
func (b *Bot) API() (*tgbotapi.BotAPI, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.api != nil {
		return b.api, nil
	}
	api, err := tgbotapi.NewBotAPIWithClient(b.settings.Token, b.settings.Endpoint, b.client)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	b.logger.Info("telegram authorized", zap.String("username", api.Self.UserName))
	b.api = api
	return api, nil
}

// Verify forces the getMe round trip when the settings ask for it.
func (b *Bot) Verify(context.Context) error {
	if !b.settings.Verify {
		return nil
	}
	_, err := b.API()
	return err
}

// SendText posts text to chatID and returns the new message id.
func (b *Bot) SendText(chatID int64, text string) (int, error) {
	api, err := b.API()
	if err != nil {
		return 0, err
	}
	msg, err := api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, fmt.Errorf("telegram: send to %d: %w", chatID, err)
	}
	return msg.MessageID, nil
}

// Stop ends any long-poll update loop started through the API.
func (b *Bot) Stop(context.Context) error {
	b.mu.Lock()
	api := b.api
	b.mu.Unlock()
	if api != nil {
		api.StopReceivingUpdates()
	}
	return nil
}
