// Package handler provides Telegram bot command and callback handlers.
package handler

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"oxide-coins-bot/internal/model"
)

// displayName picks the best available handle for a sender.
func displayName(sender *tele.User) string {
	if sender == nil {
		return "player"
	}
	if sender.Username != "" {
		return "@" + sender.Username
	}
	name := strings.TrimSpace(sender.FirstName + " " + sender.LastName)
	if name != "" {
		return name
	}
	return fmt.Sprintf("player %d", sender.ID)
}

// fullName joins the sender's first and last names.
func fullName(sender *tele.User) string {
	if sender == nil {
		return ""
	}
	return strings.TrimSpace(sender.FirstName + " " + sender.LastName)
}

// tierLabel renders a tier for display.
func tierLabel(t model.Tier) string {
	switch t {
	case model.TierTrainee:
		return "🔹 Trainee"
	case model.TierStrong:
		return "🔷 Strong"
	case model.TierYoutuber:
		return "🎬 YouTuber"
	case model.TierAdmin:
		return "👑 Admin"
	default:
		return "🔸 Newbie"
	}
}

// currencyLabel renders a currency for display.
func currencyLabel(c model.Currency) string {
	if c == model.CurrencyDemo {
		return "silver (demo)"
	}
	return "coins"
}

// SplitCallback separates the callback unique from its payload. Telebot
// encodes button data as "unique|payload" behind a \f prefix.
func SplitCallback(data string) (unique, payload string) {
	data = strings.TrimPrefix(data, "\f")
	if i := strings.IndexByte(data, '|'); i >= 0 {
		return data[:i], data[i+1:]
	}
	return data, ""
}

// backRow appends a single back button row to a markup.
func backRow(m *tele.ReplyMarkup, target string) tele.Row {
	return m.Row(m.Data("⬅️ Back", target))
}
