package handler

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"oxide-coins-bot/internal/packs"
)

// mainMenu builds the root inline menu. Admins get one extra row.
func mainMenu(isAdmin bool) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := []tele.Row{
		m.Row(m.Data("📋 Tasks", "menu_tasks"), m.Data("📦 Orders", "menu_orders")),
		m.Row(m.Data("🎮 Games", "menu_games"), m.Data("🛒 Market", "menu_market")),
		m.Row(m.Data("🎁 Daily bonus", "daily"), m.Data("🏆 Top", "top")),
		m.Row(m.Data("💸 Withdraw", "menu_withdraw"), m.Data("⭐ Buy coins", "buy_coins")),
		m.Row(m.Data("🎟 Promocode", "menu_promo"), m.Data("👥 Listings", "menu_profiles")),
		m.Row(m.Data("👤 Profile", "profile")),
	}
	if isAdmin {
		rows = append(rows, m.Row(m.Data("🛠 Admin panel", "adm_menu")))
	}
	m.Inline(rows...)
	return m
}

// backMenu builds a single back button.
func backMenu(target string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(backRow(m, target))
	return m
}

// packsMenu lists withdraw packs, marking the affordable ones.
func packsMenu(balance int64) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, pack := range packs.All() {
		if balance >= pack.Coins {
			label := fmt.Sprintf("✅ %s %d coins", pack.Emoji, pack.Coins)
			rows = append(rows, m.Row(m.Data(label, "withdraw_pick", pack.ID)))
		} else {
			label := fmt.Sprintf("❌ %s %d coins", pack.Emoji, pack.Coins)
			rows = append(rows, m.Row(m.Data(label, "not_enough")))
		}
	}
	rows = append(rows, backRow(m, "menu_main"))
	m.Inline(rows...)
	return m
}

// pager appends prev/next navigation when there are more pages.
func pager(m *tele.ReplyMarkup, unique string, page, shown, pageSize int) tele.Row {
	var btns []tele.Btn
	if page > 0 {
		btns = append(btns, m.Data("◀️", unique, fmt.Sprint(page-1)))
	}
	if shown == pageSize {
		btns = append(btns, m.Data("▶️", unique, fmt.Sprint(page+1)))
	}
	return m.Row(btns...)
}
