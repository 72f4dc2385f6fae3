package bot

import (
	"fmt"
	"strings"

	"github.com/mkdir-username/etlon-coffee/internal/domain/models"
	"github.com/mkdir-username/etlon-coffee/internal/loyalty"
)

func cartText(cart []models.CartLine) string {
	if len(cart) == 0 {
		return "Корзина пуста. Выберите что-нибудь в меню ☕"
	}

	var b strings.Builder
	b.WriteString("🛒 Ваша корзина:\n\n")
	for _, line := range cart {
		b.WriteString(lineText(line))
	}
	fmt.Fprintf(&b, "\nИтого: %dр", models.CartTotal(cart))
	return b.String()
}

func lineText(line models.CartLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "• %s", line.Name)
	if line.SizeName != "" {
		fmt.Fprintf(&b, " (%s)", line.SizeName)
	}
	fmt.Fprintf(&b, " x%d — %dр\n", line.Quantity, line.LineTotal())
	if len(line.ModifierNames) > 0 {
		fmt.Fprintf(&b, "  + %s\n", strings.Join(line.ModifierNames, ", "))
	}
	if line.Comment != "" {
		fmt.Fprintf(&b, "  💬 %s\n", line.Comment)
	}
	return b.String()
}

func confirmText(cart []models.CartLine, pickupTime string, bonus int64) string {
	var b strings.Builder
	b.WriteString("Проверьте заказ:\n\n")
	for _, line := range cart {
		b.WriteString(lineText(line))
	}
	total := models.CartTotal(cart)
	fmt.Fprintf(&b, "\nЗабор: %s\n", pickupTime)
	if bonus > 0 {
		fmt.Fprintf(&b, "Баллами: −%d\n", bonus)
		fmt.Fprintf(&b, "К оплате: %dр", total-bonus)
	} else {
		fmt.Fprintf(&b, "К оплате: %dр", total)
	}
	return b.String()
}

func confirmationText(conf confirmationView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Заказ #%d принят!\n", conf.OrderID)
	fmt.Fprintf(&b, "Будет готов %s.\n\n", conf.PickupTime)
	if conf.BonusApplied > 0 {
		fmt.Fprintf(&b, "Списано баллов: %d\n", conf.BonusApplied)
	}
	if conf.PointsEarned > 0 {
		fmt.Fprintf(&b, "Начислено баллов: %d\n", conf.PointsEarned)
	}
	fmt.Fprintf(&b, "Штампов: %d/%d\n", conf.Stamps, loyalty.StampsForFreeDrink)
	if conf.FreeDrink {
		b.WriteString("\n🎉 У вас накопилось 6 штампов — следующий напиток бесплатно!")
	}
	return b.String()
}

// confirmationView keeps render inputs flat; filled from checkout results.
type confirmationView struct {
	OrderID      int64
	PickupTime   string
	BonusApplied int64
	PointsEarned int64
	Stamps       int
	FreeDrink    bool
}

func ordersText(orders []models.Order, total int64) string {
	if len(orders) == 0 {
		return "У вас пока нет заказов."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Ваши заказы (%d):\n\n", total)
	for _, order := range orders {
		fmt.Fprintf(&b, "#%d — %s, %dр (%s)\n",
			order.ID, order.Status.DisplayName(), order.Total,
			order.CreatedAt.Format("02.01 15:04"))
	}
	return b.String()
}

func loyaltyText(acc models.LoyaltyAccount) string {
	var b strings.Builder
	b.WriteString("💳 Карта лояльности\n\n")
	fmt.Fprintf(&b, "Баллы: %d\n", acc.Points)
	fmt.Fprintf(&b, "Штампы: %s %d/%d\n", stampBar(acc.Stamps), acc.Stamps, loyalty.StampsForFreeDrink)
	fmt.Fprintf(&b, "Всего заказов: %d\n", acc.TotalOrders)
	fmt.Fprintf(&b, "Всего потрачено: %dр\n", acc.TotalSpent)
	if acc.Stamps >= loyalty.StampsForFreeDrink {
		b.WriteString("\n🎁 Доступен бесплатный напиток!")
	}
	return b.String()
}

func stampBar(stamps int) string {
	if stamps > loyalty.StampsForFreeDrink {
		stamps = loyalty.StampsForFreeDrink
	}
	return strings.Repeat("●", stamps) + strings.Repeat("○", loyalty.StampsForFreeDrink-stamps)
}

func historyText(entries []models.PointsHistoryEntry) string {
	if len(entries) == 0 {
		return "История баллов пуста."
	}

	var b strings.Builder
	b.WriteString("📜 История баллов:\n\n")
	for _, e := range entries {
		// redemptions are stored negative; render sign and magnitude apart
		sign := "+"
		amount := e.Amount
		if amount < 0 {
			sign = "−"
			amount = -amount
		}
		fmt.Fprintf(&b, "%s %s%d — %s\n", e.CreatedAt.Format("02.01"), sign, amount, e.Description)
	}
	return b.String()
}

func repeatText(added, skipped []string) string {
	var b strings.Builder
	if len(added) > 0 {
		b.WriteString("Добавлено в корзину:\n")
		for _, name := range added {
			fmt.Fprintf(&b, "• %s\n", name)
		}
	}
	if len(skipped) > 0 {
		b.WriteString("\nСейчас недоступно:\n")
		for _, name := range skipped {
			fmt.Fprintf(&b, "• %s\n", name)
		}
	}
	if len(added) == 0 {
		return "Ни одна позиция из того заказа сейчас недоступна 😔"
	}
	return strings.TrimRight(b.String(), "\n")
}

func activeOrdersText(active []models.Order) string {
	if len(active) == 0 {
		return "Активных заказов нет."
	}

	var b strings.Builder
	b.WriteString("🧑‍🍳 Активные заказы:\n\n")
	for _, order := range active {
		fmt.Fprintf(&b, "#%d — %s (%s)\n", order.ID, order.UserName, order.Status.DisplayName())
		for _, item := range order.Items {
			fmt.Fprintf(&b, "  %s", item.Name)
			if item.SizeName != "" {
				fmt.Fprintf(&b, " (%s)", item.SizeName)
			}
			fmt.Fprintf(&b, " x%d\n", item.Quantity)
			if len(item.ModifierNames) > 0 {
				fmt.Fprintf(&b, "    + %s\n", strings.Join(item.ModifierNames, ", "))
			}
			if item.Comment != "" {
				fmt.Fprintf(&b, "    💬 %s\n", item.Comment)
			}
		}
		fmt.Fprintf(&b, "  Забор: %s, итого %dр\n\n", order.PickupTime, order.Total)
	}
	return strings.TrimRight(b.String(), "\n")
}
