package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mkdir-username/etlon-coffee/internal/xpkg/config"
)

// Deliverer pushes broker notifications into Telegram chats. It runs in
// the subscriber process and shares nothing with the polling bot.
type Deliverer struct {
	api *tgbotapi.BotAPI
	cfg *config.Telegram
}

func NewDeliverer(cfg *config.Telegram) (*Deliverer, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &Deliverer{api: api, cfg: cfg}, nil
}

func (d *Deliverer) DeliverUser(_ context.Context, userID int64, text string) error {
	_, err := d.api.Send(tgbotapi.NewMessage(userID, text))
	return err
}

// DeliverStaff sends to the shared staff chat when configured, falling
// back to messaging each barista directly.
func (d *Deliverer) DeliverStaff(_ context.Context, text string) error {
	if d.cfg.StaffChatID != 0 {
		_, err := d.api.Send(tgbotapi.NewMessage(d.cfg.StaffChatID, text))
		return err
	}

	var lastErr error
	for _, id := range d.cfg.BaristaIDs {
		if _, err := d.api.Send(tgbotapi.NewMessage(id, text)); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
