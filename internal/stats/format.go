package stats

import (
	"fmt"
	"sort"
	"strings"
)

var weekdayNames = [7]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// FormatDaily renders the barista-facing daily summary.
func FormatDaily(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Статистика за %s\n\n", r.From.Format("02.01.2006"))
	writeTotals(&b, r)
	writeTopItems(&b, r)
	writeHours(&b, r)
	return strings.TrimRight(b.String(), "\n")
}

// FormatWeekly renders the seven-day summary with a weekday breakdown.
func FormatWeekly(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Статистика за неделю (%s — %s)\n\n",
		r.From.Format("02.01"), r.To.Format("02.01"))
	writeTotals(&b, r)
	writeTopItems(&b, r)
	writeWeekdays(&b, r)
	return strings.TrimRight(b.String(), "\n")
}

func writeTotals(b *strings.Builder, r Report) {
	fmt.Fprintf(b, "Заказов: %d\n", r.TotalOrders)
	fmt.Fprintf(b, "Выполнено: %d\n", r.CompletedOrders)
	fmt.Fprintf(b, "Отменено: %d\n", r.CancelledOrders)
	fmt.Fprintf(b, "Выручка: %dр\n", r.Revenue)
	if r.CompletedOrders > 0 {
		fmt.Fprintf(b, "Средний чек: %dр\n", r.AverageCheck)
	}
	b.WriteString("\n")
}

func writeTopItems(b *strings.Builder, r Report) {
	if len(r.TopItems) == 0 {
		return
	}
	b.WriteString("Топ напитков:\n")
	for i, item := range r.TopItems {
		fmt.Fprintf(b, "%d. %s — %d\n", i+1, item.Name, item.Quantity)
	}
	b.WriteString("\n")
}

func writeHours(b *strings.Builder, r Report) {
	if len(r.ByHour) == 0 {
		return
	}
	hours := make([]int, 0, len(r.ByHour))
	for h := range r.ByHour {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	b.WriteString("По часам:\n")
	for _, h := range hours {
		fmt.Fprintf(b, "%02d:00 — %d\n", h, r.ByHour[h])
	}
	b.WriteString("\n")
}

func writeWeekdays(b *strings.Builder, r Report) {
	if len(r.ByWeekday) == 0 {
		return
	}
	b.WriteString("По дням:\n")
	for d := 0; d < 7; d++ {
		if count, ok := r.ByWeekday[d]; ok {
			fmt.Fprintf(b, "%s — %d\n", weekdayNames[d], count)
		}
	}
	b.WriteString("\n")
}
