package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mkdir-username/etlon-coffee/internal/checkout"
	"github.com/mkdir-username/etlon-coffee/internal/loyalty"
	"github.com/mkdir-username/etlon-coffee/internal/session"
)

const ordersPageSize = 5

func (b *Bot) cmdStart(ctx context.Context, key session.Key, firstName string) {
	if _, err := b.checkout.Start(ctx, key); err != nil {
		b.log.Action("session_reset_failed").Error("failed to reset session", err, "user_id", key.UserID)
	}
	name := firstName
	if name == "" {
		name = "друг"
	}
	b.reply(key.ChatID, fmt.Sprintf("Привет, %s! 👋\nЭто бот кофейни Etlon: выбирайте напитки, заказывайте заранее и копите баллы.\n\nОткрыть меню: /menu", name))
}

func (b *Bot) showMenu(ctx context.Context, key session.Key, msgID int) {
	items, err := b.catalog.ListAvailable(ctx)
	if err != nil {
		b.log.Action("menu_load_failed").Error("failed to load menu", err)
		b.reply(key.ChatID, userError(err))
		return
	}
	favs, err := b.catalog.FavoriteIDs(ctx, key.UserID)
	if err != nil {
		favs = map[int64]bool{}
	}
	if len(items) == 0 {
		b.reply(key.ChatID, "Меню пока пусто, загляните позже.")
		return
	}
	b.edit(key.ChatID, msgID, "☕ Меню:", menuKeyboard(items, favs))
}

func (b *Bot) selectItem(ctx context.Context, key session.Key, msgID int, itemID int64) {
	sel, err := b.checkout.SelectItem(ctx, key, itemID)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}

	switch sel.Stage {
	case checkout.StageSize:
		b.edit(key.ChatID, msgID,
			fmt.Sprintf("Выберите размер — %s:", sel.Item.Name), sizesKeyboard(sel.Sizes))
	case checkout.StageModifiers:
		b.edit(key.ChatID, msgID, modifiersPrompt(sel.Item.Name, sel.RunningTotal),
			modifiersKeyboard(sel.Modifiers, sel.Selected))
	default:
		b.edit(key.ChatID, msgID, addedPrompt(sel.Session), addedKeyboard(itemID))
	}
}

func (b *Bot) chooseSize(ctx context.Context, key session.Key, msgID int, sizeCode string) {
	sel, err := b.checkout.ChooseSize(ctx, key, sizeCode)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	if sel.Stage == checkout.StageModifiers {
		b.edit(key.ChatID, msgID, modifiersPrompt("", sel.RunningTotal),
			modifiersKeyboard(sel.Modifiers, sel.Selected))
		return
	}
	b.edit(key.ChatID, msgID, addedPrompt(sel.Session), addedKeyboard(0))
}

func (b *Bot) toggleModifier(ctx context.Context, key session.Key, msgID int, modifierID int64) {
	sel, err := b.checkout.ToggleModifier(ctx, key, modifierID)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.edit(key.ChatID, msgID, modifiersPrompt("", sel.RunningTotal),
		modifiersKeyboard(sel.Modifiers, sel.Selected))
}

func (b *Bot) finishModifiers(ctx context.Context, key session.Key, msgID int) {
	sel, err := b.checkout.FinishModifiers(ctx, key)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.edit(key.ChatID, msgID, addedPrompt(sel.Session), addedKeyboard(0))
}

func (b *Bot) goBack(ctx context.Context, key session.Key, msgID int) {
	sess, err := b.checkout.Back(ctx, key)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}

	switch sess.State {
	case session.StateSelectingSize:
		sizes, err := b.catalog.SizesFor(ctx, sess.Pending.ItemID)
		if err != nil {
			b.reply(key.ChatID, userError(err))
			return
		}
		b.edit(key.ChatID, msgID,
			fmt.Sprintf("Выберите размер — %s:", sess.Pending.Name), sizesKeyboard(sizes))
	case session.StateSelectingTime:
		b.edit(key.ChatID, msgID, "Когда приготовить заказ?", timeKeyboard())
	default:
		b.showMenu(ctx, key, msgID)
	}
}

func (b *Bot) showCart(ctx context.Context, key session.Key, msgID int) {
	sess, err := b.checkout.Session(ctx, key)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.edit(key.ChatID, msgID, cartText(sess.Cart), cartKeyboard(sess.Cart))
}

func (b *Bot) changeQuantity(ctx context.Context, key session.Key, msgID int, lineKey string, delta int) {
	var (
		sess *session.Session
		err  error
	)
	if delta > 0 {
		sess, err = b.checkout.IncrementLine(ctx, key, lineKey)
	} else {
		sess, err = b.checkout.DecrementLine(ctx, key, lineKey)
	}
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.edit(key.ChatID, msgID, cartText(sess.Cart), cartKeyboard(sess.Cart))
}

func (b *Bot) startComment(ctx context.Context, key session.Key, lineKey string) {
	if _, err := b.checkout.StartComment(ctx, key, lineKey); err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.reply(key.ChatID, fmt.Sprintf("Напишите комментарий к позиции (до %d символов), например «поменьше сахара»:", checkout.MaxCommentLen))
}

func (b *Bot) applyComment(ctx context.Context, key session.Key, text string) {
	sess, err := b.checkout.SetComment(ctx, key, text)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.replyKeyboard(key.ChatID, cartText(sess.Cart), cartKeyboard(sess.Cart))
}

func (b *Bot) beginCheckout(ctx context.Context, key session.Key, msgID int) {
	if _, err := b.checkout.BeginCheckout(ctx, key); err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.edit(key.ChatID, msgID, "Когда приготовить заказ?", timeKeyboard())
}

func (b *Bot) choosePickupTime(ctx context.Context, key session.Key, msgID int, label string) {
	offer, err := b.checkout.ChoosePickupTime(ctx, key, label)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}

	if offer.Offered {
		b.edit(key.ChatID, msgID,
			fmt.Sprintf("У вас %d баллов. Можно оплатить ими до %d₽ этого заказа.\nНажмите кнопку или введите сумму вручную:", offer.Balance, offer.Max),
			bonusKeyboard(offer.Max))
		return
	}
	b.edit(key.ChatID, msgID,
		confirmText(offer.Session.Cart, offer.Session.PickupTime, 0), confirmKeyboard())
}

func (b *Bot) applyMaxBonus(ctx context.Context, key session.Key, msgID int) {
	sess, err := b.checkout.ApplyMaxBonus(ctx, key)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.edit(key.ChatID, msgID, confirmText(sess.Cart, sess.PickupTime, sess.Bonus), confirmKeyboard())
}

func (b *Bot) skipBonus(ctx context.Context, key session.Key, msgID int) {
	sess, err := b.checkout.ApplyBonus(ctx, key, 0)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.edit(key.ChatID, msgID, confirmText(sess.Cart, sess.PickupTime, 0), confirmKeyboard())
}

func (b *Bot) applyBonusText(ctx context.Context, key session.Key, text string) {
	amount, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || amount < 0 {
		b.reply(key.ChatID, "Введите число — сколько баллов списать (0, чтобы не списывать).")
		return
	}
	sess, err := b.checkout.ApplyBonus(ctx, key, amount)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.replyKeyboard(key.ChatID, confirmText(sess.Cart, sess.PickupTime, sess.Bonus), confirmKeyboard())
}

func (b *Bot) confirmOrder(ctx context.Context, key session.Key, msgID int, userName string) {
	conf, err := b.checkout.Confirm(ctx, key, userName)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}

	view := confirmationView{
		OrderID:      conf.Order.ID,
		PickupTime:   conf.Order.PickupTime,
		BonusApplied: conf.BonusApplied,
		PointsEarned: conf.PointsEarned,
		Stamps:       conf.Stamps,
		FreeDrink:    conf.FreeDrink,
	}
	b.edit(key.ChatID, msgID, confirmationText(view), afterOrderKeyboard())
}

func (b *Bot) editOrder(ctx context.Context, key session.Key, msgID int) {
	sess, err := b.checkout.EditOrder(ctx, key)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.edit(key.ChatID, msgID, cartText(sess.Cart), cartKeyboard(sess.Cart))
}

func (b *Bot) showOrders(ctx context.Context, key session.Key, msgID int, page int) {
	if page < 0 {
		page = 0
	}
	orders, total, err := b.repo.ListUserOrders(ctx, key.UserID, ordersPageSize, page*ordersPageSize)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.edit(key.ChatID, msgID, ordersText(orders, total), ordersKeyboard(orders, page, total))
}

func (b *Bot) cancelOrder(ctx context.Context, key session.Key, msgID int, orderID int64) {
	refunded, err := b.orders.CancelByClient(ctx, orderID, key.UserID)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}

	text := fmt.Sprintf("Заказ #%d отменён.", orderID)
	if refunded > 0 {
		text += fmt.Sprintf("\nВозвращено баллов: %d", refunded)
	}
	b.reply(key.ChatID, text)
	b.showOrders(ctx, key, msgID, 0)
}

func (b *Bot) repeatOrder(ctx context.Context, key session.Key, msgID int, orderID int64) {
	items, err := b.repo.ItemsForRepeat(ctx, orderID)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	added, skipped, err := b.checkout.AddRepeatItems(ctx, key, items)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}

	b.reply(key.ChatID, repeatText(added, skipped))
	if len(added) > 0 {
		b.showCart(ctx, key, msgID)
	}
}

func (b *Bot) showFavorites(ctx context.Context, key session.Key, msgID int) {
	items, err := b.catalog.ListFavorites(ctx, key.UserID)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	if len(items) == 0 {
		b.edit(key.ChatID, msgID, "В избранном пока пусто. Добавляйте напитки звёздочкой после заказа ⭐", favoritesKeyboard(nil))
		return
	}
	b.edit(key.ChatID, msgID, "⭐ Избранное:", favoritesKeyboard(items))
}

func (b *Bot) addFavorite(ctx context.Context, key session.Key, itemID int64) {
	added, err := b.catalog.AddFavorite(ctx, key.UserID, itemID)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	if added {
		b.reply(key.ChatID, "Добавлено в избранное ⭐")
	} else {
		b.reply(key.ChatID, "Уже в избранном 😉")
	}
}

func (b *Bot) removeFavorite(ctx context.Context, key session.Key, msgID int, itemID int64) {
	if _, err := b.catalog.RemoveFavorite(ctx, key.UserID, itemID); err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.showFavorites(ctx, key, msgID)
}

func (b *Bot) showLoyalty(ctx context.Context, key session.Key, msgID int) {
	acc, err := b.ledger.GetOrCreate(ctx, key.UserID)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.edit(key.ChatID, msgID, loyaltyText(acc),
		loyaltyKeyboard(acc.Stamps >= loyalty.StampsForFreeDrink))
}

func (b *Bot) showHistory(ctx context.Context, key session.Key, msgID int) {
	entries, err := b.ledger.History(ctx, key.UserID, 10)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	b.edit(key.ChatID, msgID, historyText(entries), loyaltyKeyboard(false))
}

func (b *Bot) useFreeDrink(ctx context.Context, key session.Key, msgID int) {
	ok, err := b.ledger.UseFreeDrink(ctx, key.UserID)
	if err != nil {
		b.reply(key.ChatID, userError(err))
		return
	}
	if !ok {
		b.reply(key.ChatID, "Штампов пока недостаточно.")
		return
	}
	b.reply(key.ChatID, "🎉 Бесплатный напиток активирован! Покажите это сообщение бариста.")
	b.showLoyalty(ctx, key, msgID)
}

func addedPrompt(sess *session.Session) string {
	return "Добавлено в корзину ✅\n\n" + cartText(sess.Cart)
}

func modifiersPrompt(name string, runningTotal int64) string {
	if name != "" {
		return fmt.Sprintf("Добавки — %s (итого %dр):", name, runningTotal)
	}
	return fmt.Sprintf("Добавки (итого %dр):", runningTotal)
}

func addedKeyboard(itemID int64) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("☕ К меню", cbMenu),
			tgbotapi.NewInlineKeyboardButtonData("✅ Оформить", cbCheckout),
		),
	}
	if itemID > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⭐ В избранное",
				encodeCallback(cbFavAdd, strconv.FormatInt(itemID, 10))),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func afterOrderKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Мои заказы", cbOrders),
			tgbotapi.NewInlineKeyboardButtonData("💳 Баллы", cbLoyalty),
		),
	)
}
