package bot

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
)

var pickupTimes = []string{"через 15 мин", "через 30 мин", "через 45 мин", "через 1 час"}

func menuKeyboard(items []models.MenuItem, favorites map[int64]bool) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(items)+1)
	for _, item := range items {
		label := fmt.Sprintf("%s — %dр", item.Name, item.Price)
		if favorites[item.ID] {
			label = "⭐ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, encodeCallback(cbItem, strconv.FormatInt(item.ID, 10))),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🛒 Корзина", cbCart),
		tgbotapi.NewInlineKeyboardButtonData("⭐ Избранное", cbFavs),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func sizesKeyboard(sizes []models.SizeOption) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(sizes)+1)
	for _, size := range sizes {
		label := size.SizeName
		if size.PriceDiff > 0 {
			label = fmt.Sprintf("%s (+%dр)", size.SizeName, size.PriceDiff)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, encodeCallback(cbSize, size.Size)),
		))
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func modifiersKeyboard(mods []models.Modifier, selected map[int64]bool) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(mods)+2)
	for _, mod := range mods {
		mark := "▫️"
		if selected[mod.ID] {
			mark = "✅"
		}
		label := fmt.Sprintf("%s %s +%dр", mark, mod.Name, mod.Price)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, encodeCallback(cbModifier, strconv.FormatInt(mod.ID, 10))),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✔️ Готово", cbModsDone),
		),
		backRow(),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cartKeyboard(cart []models.CartLine) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(cart)*2+2)
	for _, line := range cart {
		key := line.Key()
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖", encodeCallback(cbDecLine, key)),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s x%d", line.Name, line.Quantity), encodeCallback(cbComment, key)),
			tgbotapi.NewInlineKeyboardButtonData("➕", encodeCallback(cbIncLine, key)),
		))
	}
	if len(cart) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Оформить заказ", cbCheckout),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("☕ К меню", cbMenu),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func timeKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(pickupTimes)+1)
	for _, label := range pickupTimes {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, encodeCallback(cbTime, label)),
		))
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func bonusKeyboard(max int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Списать %d баллов", max), cbBonusMax),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Не списывать", cbBonusSkip),
		),
		backRow(),
	)
}

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", cbConfirm),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Изменить", cbEdit),
		),
	)
}

func ordersKeyboard(orders []models.Order, page int, total int64) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(orders)+2)
	for _, order := range orders {
		id := strconv.FormatInt(order.ID, 10)
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🔄 Повторить #%d", order.ID), encodeCallback(cbRepeat, id)),
		}
		if order.Status == models.StatusConfirmed {
			row = append(row,
				tgbotapi.NewInlineKeyboardButtonData("❌ Отменить", encodeCallback(cbCancel, id)))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav,
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", encodeCallback(cbOrders, strconv.Itoa(page-1))))
	}
	if int64(page+1)*ordersPageSize < total {
		nav = append(nav,
			tgbotapi.NewInlineKeyboardButtonData("Вперёд ➡️", encodeCallback(cbOrders, strconv.Itoa(page+1))))
	}
	if len(nav) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(nav...))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("☕ К меню", cbMenu),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func favoritesKeyboard(items []models.MenuItem) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(items)+1)
	for _, item := range items {
		id := strconv.FormatInt(item.ID, 10)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s — %dр", item.Name, item.Price), encodeCallback(cbItem, id)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", encodeCallback(cbFavDel, id)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("☕ К меню", cbMenu),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func loyaltyKeyboard(freeDrinkReady bool) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📜 История баллов", cbHistory),
		),
	}
	if freeDrinkReady {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎁 Бесплатный напиток", cbFreeDrink),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("☕ К меню", cbMenu),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func panelKeyboard(active []models.Order) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(active)+2)
	for _, order := range active {
		id := strconv.FormatInt(order.ID, 10)
		row := make([]tgbotapi.InlineKeyboardButton, 0, 2)
		for _, next := range order.Status.Successors() {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("#%d → %s", order.ID, next.DisplayName()),
				encodeCallback(cbAdvance, id, string(next)),
			))
		}
		if len(row) > 0 {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
		}
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📊 За день", cbStatsDay),
		tgbotapi.NewInlineKeyboardButtonData("📊 За неделю", cbStatsWeek),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func availabilityKeyboard(items []models.MenuItem) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(items)+1)
	for _, item := range items {
		mark := "🟢"
		if !item.Available {
			mark = "🔴"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s %s", mark, item.Name),
				encodeCallback(cbToggle, strconv.FormatInt(item.ID, 10)),
			),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🧑‍🍳 Панель", cbPanel),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func backRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbBack),
	)
}
