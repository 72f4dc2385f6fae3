package stats

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleReport() Report {
	return Report{
		From:            time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		To:              time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC),
		TotalOrders:     12,
		CompletedOrders: 9,
		CancelledOrders: 1,
		Revenue:         3150,
		AverageCheck:    350,
		TopItems: []TopItem{
			{Name: "Капучино", Quantity: 7},
			{Name: "Латте", Quantity: 4},
		},
		ByHour:    map[int]int64{9: 3, 12: 5, 16: 4},
		ByWeekday: map[int]int64{1: 12},
	}
}

func TestFormatDaily(t *testing.T) {
	out := FormatDaily(sampleReport())

	assert.Contains(t, out, "10.03.2025")
	assert.Contains(t, out, "Заказов: 12")
	assert.Contains(t, out, "Выручка: 3150р")
	assert.Contains(t, out, "Средний чек: 350р")
	assert.Contains(t, out, "1. Капучино — 7")
	assert.Contains(t, out, "09:00 — 3")
	// hours come out sorted
	assert.Less(t, strings.Index(out, "09:00"), strings.Index(out, "12:00"))
	assert.Less(t, strings.Index(out, "12:00"), strings.Index(out, "16:00"))
}

func TestFormatDailyEmptyDay(t *testing.T) {
	out := FormatDaily(Report{
		From: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	})

	assert.Contains(t, out, "Заказов: 0")
	assert.NotContains(t, out, "Средний чек")
	assert.NotContains(t, out, "Топ напитков")
	assert.NotContains(t, out, "По часам")
}

func TestFormatWeekly(t *testing.T) {
	r := sampleReport()
	r.From = r.To.AddDate(0, 0, -7)
	out := FormatWeekly(r)

	assert.Contains(t, out, "за неделю")
	assert.Contains(t, out, "Пн — 12")
	assert.NotContains(t, out, "По часам")
}
