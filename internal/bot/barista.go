package bot

import (
	"context"
	"time"

	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
	"github.com/mkdir-username/etlon-coffee/internal/session"
	"github.com/mkdir-username/etlon-coffee/internal/stats"
)

func (b *Bot) showPanel(ctx context.Context, key session.Key) {
	if !b.cfg.IsBarista(key.UserID) {
		b.reply(key.ChatID, "Эта команда только для бариста.")
		return
	}

	active, err := b.repo.ListActive(ctx)
	if err != nil {
		b.log.Action("panel_load_failed").Error("failed to load active orders", err)
		b.reply(key.ChatID, userError(err))
		return
	}
	b.replyKeyboard(key.ChatID, activeOrdersText(active), panelKeyboard(active))
}

func (b *Bot) advanceOrder(ctx context.Context, key session.Key, orderID int64, next string) {
	if !b.cfg.IsBarista(key.UserID) {
		b.reply(key.ChatID, "Эта команда только для бариста.")
		return
	}

	order, err := b.orders.AdvanceStatus(ctx, orderID, models.OrderStatus(next))
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.log.Action("status_advanced").Info("order status updated",
		"order_id", order.ID, "status", string(order.Status), "changed_by", key.UserID)
	b.showPanel(ctx, key)
}

func (b *Bot) showAvailability(ctx context.Context, key session.Key) {
	if !b.cfg.IsBarista(key.UserID) {
		b.reply(key.ChatID, "Эта команда только для бариста.")
		return
	}

	items, err := b.catalog.ListAll(ctx)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.replyKeyboard(key.ChatID, "Наличие позиций (нажмите, чтобы переключить):", availabilityKeyboard(items))
}

func (b *Bot) toggleAvailability(ctx context.Context, key session.Key, msgID int, itemID int64) {
	if !b.cfg.IsBarista(key.UserID) {
		b.reply(key.ChatID, "Эта команда только для бариста.")
		return
	}

	item, err := b.catalog.ToggleAvailability(ctx, itemID)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.log.Action("availability_toggled").Info("menu item toggled",
		"item_id", item.ID, "available", item.Available, "changed_by", key.UserID)

	items, err := b.catalog.ListAll(ctx)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.edit(key.ChatID, msgID, "Наличие позиций (нажмите, чтобы переключить):", availabilityKeyboard(items))
}

func (b *Bot) showStats(ctx context.Context, key session.Key, weekly bool) {
	if !b.cfg.IsBarista(key.UserID) {
		b.reply(key.ChatID, "Эта команда только для бариста.")
		return
	}

	now := time.Now()
	var (
		report stats.Report
		err    error
	)
	if weekly {
		report, err = b.stats.Weekly(ctx, now)
	} else {
		report, err = b.stats.Daily(ctx, now)
	}
	if err != nil {
		b.log.Action("stats_failed").Error("failed to compute stats", err)
		b.reply(key.ChatID, userError(err))
		return
	}

	if weekly {
		b.reply(key.ChatID, stats.FormatWeekly(report))
		return
	}
	b.reply(key.ChatID, stats.FormatDaily(report))
}
