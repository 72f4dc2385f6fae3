package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mkdir-username/etlon-coffee/internal/catalog"
	"github.com/mkdir-username/etlon-coffee/internal/checkout"
	"github.com/mkdir-username/etlon-coffee/internal/loyalty"
	"github.com/mkdir-username/etlon-coffee/internal/orders"
	"github.com/mkdir-username/etlon-coffee/internal/session"
	"github.com/mkdir-username/etlon-coffee/internal/stats"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/config"
	xerrors "github.com/mkdir-username/etlon-coffee/internal/xpkg/errors"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

// Deps bundles everything the transport layer drives.
type Deps struct {
	Sessions  session.Store
	Checkout  *checkout.Service
	Catalog   *catalog.Repo
	Orders    *orders.Service
	OrderRepo *orders.Repo
	Ledger    *loyalty.Ledger
	Stats     *stats.Repo
}

// Bot is the Telegram transport. It owns no business rules: every update
// is translated into a service call and the result rendered back.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Telegram
	log logger.Logger

	sessions session.Store
	checkout *checkout.Service
	catalog  *catalog.Repo
	orders   *orders.Service
	repo     *orders.Repo
	ledger   *loyalty.Ledger
	stats    *stats.Repo
}

func New(cfg *config.Telegram, deps Deps, log logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	return &Bot{
		api:      api,
		cfg:      cfg,
		log:      log,
		sessions: deps.Sessions,
		checkout: deps.Checkout,
		catalog:  deps.Catalog,
		orders:   deps.Orders,
		repo:     deps.OrderRepo,
		ledger:   deps.Ledger,
		stats:    deps.Stats,
	}, nil
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Action("bot_started").Info("long polling started", "bot_username", b.api.Self.UserName)

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := b.api.GetUpdatesChan(updateCfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("updates channel closed")
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Action("update_panic").Error("panic while handling update", fmt.Errorf("%v", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	key := session.Key{UserID: msg.From.ID, ChatID: msg.Chat.ID}
	log := b.log.With("user_id", key.UserID)

	if msg.IsCommand() {
		b.handleCommand(ctx, key, msg, log)
		return
	}
	b.handleText(ctx, key, msg, log)
}

func (b *Bot) handleCommand(ctx context.Context, key session.Key, msg *tgbotapi.Message, log logger.Logger) {
	switch msg.Command() {
	case "start":
		b.cmdStart(ctx, key, msg.From.FirstName)
	case "menu":
		b.showMenu(ctx, key, 0)
	case "cart":
		b.showCart(ctx, key, 0)
	case "orders":
		b.showOrders(ctx, key, 0, 0)
	case "bonus":
		b.showLoyalty(ctx, key, 0)
	case "panel":
		b.showPanel(ctx, key)
	case "stock":
		b.showAvailability(ctx, key)
	case "stats":
		b.showStats(ctx, key, false)
	case "help":
		b.reply(key.ChatID, helpText(b.cfg.IsBarista(key.UserID)))
	default:
		b.reply(key.ChatID, "Не знаю такую команду. Попробуйте /help")
	}
	log.Action("command_handled").Debug("command processed", "command", msg.Command())
}

// handleText routes free-form text by session state: comment entry and
// manual bonus amounts are the only places the bot reads plain messages.
func (b *Bot) handleText(ctx context.Context, key session.Key, msg *tgbotapi.Message, log logger.Logger) {
	sess, err := b.sessions.Get(ctx, key)
	if err != nil {
		log.Error("failed to load session", err)
		return
	}

	switch sess.State {
	case session.StateEnteringComment:
		b.applyComment(ctx, key, msg.Text)
	case session.StateApplyingBonus:
		b.applyBonusText(ctx, key, msg.Text)
	default:
		b.reply(key.ChatID, "Выберите действие кнопками ниже или откройте /menu")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		return
	}
	key := session.Key{UserID: cq.From.ID, ChatID: cq.Message.Chat.ID}
	cb := parseCallback(cq.Data)
	log := b.log.With("user_id", key.UserID, "verb", cb.verb)

	// stop the spinner right away; errors only matter for the handler
	b.api.Request(tgbotapi.NewCallback(cq.ID, ""))

	msgID := cq.Message.MessageID

	switch cb.verb {
	case cbMenu:
		b.showMenu(ctx, key, msgID)
	case cbItem:
		b.selectItem(ctx, key, msgID, cb.int64Arg(0))
	case cbSize:
		b.chooseSize(ctx, key, msgID, cb.arg(0))
	case cbModifier:
		b.toggleModifier(ctx, key, msgID, cb.int64Arg(0))
	case cbModsDone:
		b.finishModifiers(ctx, key, msgID)
	case cbBack:
		b.goBack(ctx, key, msgID)
	case cbCart:
		b.showCart(ctx, key, msgID)
	case cbIncLine:
		b.changeQuantity(ctx, key, msgID, cb.arg(0), +1)
	case cbDecLine:
		b.changeQuantity(ctx, key, msgID, cb.arg(0), -1)
	case cbComment:
		b.startComment(ctx, key, cb.arg(0))
	case cbCheckout:
		b.beginCheckout(ctx, key, msgID)
	case cbTime:
		b.choosePickupTime(ctx, key, msgID, cb.arg(0))
	case cbBonusMax:
		b.applyMaxBonus(ctx, key, msgID)
	case cbBonusSkip:
		b.skipBonus(ctx, key, msgID)
	case cbConfirm:
		b.confirmOrder(ctx, key, msgID, cq.From.FirstName)
	case cbEdit:
		b.editOrder(ctx, key, msgID)
	case cbOrders:
		b.showOrders(ctx, key, msgID, int(cb.int64Arg(0)))
	case cbCancel:
		b.cancelOrder(ctx, key, msgID, cb.int64Arg(0))
	case cbRepeat:
		b.repeatOrder(ctx, key, msgID, cb.int64Arg(0))
	case cbFavs:
		b.showFavorites(ctx, key, msgID)
	case cbFavAdd:
		b.addFavorite(ctx, key, cb.int64Arg(0))
	case cbFavDel:
		b.removeFavorite(ctx, key, msgID, cb.int64Arg(0))
	case cbLoyalty:
		b.showLoyalty(ctx, key, msgID)
	case cbHistory:
		b.showHistory(ctx, key, msgID)
	case cbFreeDrink:
		b.useFreeDrink(ctx, key, msgID)
	case cbPanel:
		b.showPanel(ctx, key)
	case cbAdvance:
		b.advanceOrder(ctx, key, cb.int64Arg(0), cb.arg(1))
	case cbToggle:
		b.toggleAvailability(ctx, key, msgID, cb.int64Arg(0))
	case cbStatsDay:
		b.showStats(ctx, key, false)
	case cbStatsWeek:
		b.showStats(ctx, key, true)
	default:
		log.Action("unknown_callback").Warn("unhandled callback", "data", cq.Data)
	}
}

// reply sends a plain message; failures are logged, never propagated.
func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Action("send_failed").Error("failed to send message", err, "chat_id", chatID)
	}
}

func (b *Bot) replyKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.log.Action("send_failed").Error("failed to send message", err, "chat_id", chatID)
	}
}

// edit rewrites an existing inline message in place; msgID 0 sends a
// fresh message instead (commands have no message to edit).
func (b *Bot) edit(chatID int64, msgID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	if msgID == 0 {
		b.replyKeyboard(chatID, text, kb)
		return
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, kb)
	if _, err := b.api.Send(edit); err != nil {
		b.log.Action("edit_failed").Error("failed to edit message", err, "chat_id", chatID)
	}
}

// userError maps service sentinels onto user-facing Russian text.
func userError(err error) string {
	switch {
	case errors.Is(err, xerrors.ErrCartEmpty):
		return "Корзина пуста 🤷"
	case errors.Is(err, xerrors.ErrItemUnavailable):
		return "Этой позиции сейчас нет 😔"
	case errors.Is(err, xerrors.ErrSizeUnavailable):
		return "Такого размера нет."
	case errors.Is(err, xerrors.ErrModifierNotOffered):
		return "Эта добавка недоступна для выбранного напитка."
	case errors.Is(err, xerrors.ErrCommentTooLong):
		return fmt.Sprintf("Комментарий слишком длинный (максимум %d символов).", checkout.MaxCommentLen)
	case errors.Is(err, xerrors.ErrBonusTooLarge):
		return "Столько баллов списать нельзя."
	case errors.Is(err, xerrors.ErrOrderNotFound):
		return "Заказ не найден."
	case errors.Is(err, xerrors.ErrOrderInProgress):
		return "Заказ уже готовится, отменить его нельзя. Обратитесь к бариста."
	case errors.Is(err, xerrors.ErrInsufficientStamps):
		return "Штампов пока недостаточно."
	case errors.Is(err, xerrors.ErrWrongState):
		return "Эта кнопка уже неактуальна. Откройте /menu"
	default:
		return "Что-то пошло не так, попробуйте ещё раз."
	}
}

func helpText(barista bool) string {
	text := `☕ Кофейня Etlon

/menu — меню напитков
/cart — корзина
/orders — мои заказы
/bonus — карта лояльности
/help — эта справка`
	if barista {
		text += `

Для бариста:
/panel — активные заказы
/stock — наличие позиций
/stats — статистика`
	}
	return text
}
