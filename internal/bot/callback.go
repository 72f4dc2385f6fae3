package bot

import (
	"strconv"
	"strings"
)

// Callback verbs. The payload format is "verb" or "verb:arg[:arg...]".
// Cart line keys use '|' and ',' separators, so they pass through as a
// single arg.
const (
	cbMenu      = "menu"
	cbItem      = "item"
	cbSize      = "size"
	cbModifier  = "mod"
	cbModsDone  = "mods_done"
	cbBack      = "back"
	cbCart      = "cart"
	cbIncLine   = "inc"
	cbDecLine   = "dec"
	cbComment   = "note"
	cbCheckout  = "checkout"
	cbTime      = "time"
	cbBonusMax  = "bonus_max"
	cbBonusSkip = "bonus_skip"
	cbConfirm   = "confirm"
	cbEdit      = "edit"
	cbOrders    = "orders"
	cbCancel    = "cancel"
	cbRepeat    = "repeat"
	cbFavs      = "favs"
	cbFavAdd    = "fav_add"
	cbFavDel    = "fav_del"
	cbLoyalty   = "loyalty"
	cbHistory   = "history"
	cbFreeDrink = "free_drink"

	cbPanel     = "panel"
	cbAdvance   = "advance"
	cbToggle    = "toggle"
	cbStatsDay  = "stats_day"
	cbStatsWeek = "stats_week"
)

type callback struct {
	verb string
	args []string
}

func encodeCallback(verb string, args ...string) string {
	if len(args) == 0 {
		return verb
	}
	return verb + ":" + strings.Join(args, ":")
}

func parseCallback(data string) callback {
	parts := strings.Split(data, ":")
	return callback{verb: parts[0], args: parts[1:]}
}

func (c callback) arg(i int) string {
	if i >= len(c.args) {
		return ""
	}
	return c.args[i]
}

func (c callback) int64Arg(i int) int64 {
	v, _ := strconv.ParseInt(c.arg(i), 10, 64)
	return v
}
