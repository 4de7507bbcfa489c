package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/repository"
	"oxide-coins-bot/internal/service"
)

// MarketHandler handles the marketplace.
type MarketHandler struct {
	accounts *service.AccountService
	market   *service.MarketService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(accounts *service.AccountService, market *service.MarketService) *MarketHandler {
	return &MarketHandler{accounts: accounts, market: market}
}

// HandleMenu lists the active items.
func (h *MarketHandler) HandleMenu(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := context.Background()

	items, err := h.market.ListActive(ctx)
	if err != nil {
		return c.Edit("❌ Could not load the market")
	}
	account, err := h.accounts.GetAccount(ctx, sender.ID)
	if err != nil {
		return c.Edit("❌ Something went wrong, try again later")
	}

	if len(items) == 0 {
		return c.Edit("🛒 The market is empty right now.", backMenu("menu_main"))
	}

	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, item := range items {
		label := fmt.Sprintf("🛒 %s | %d coins", item.Name, item.Price)
		rows = append(rows, m.Row(m.Data(label, "market_view", fmt.Sprint(item.ID))))
	}
	rows = append(rows, backRow(m, "menu_main"))
	m.Inline(rows...)

	text := fmt.Sprintf("🛒 Market\n\n💰 Balance: %d coins\n\nEach item can be bought once.", account.RealBalance)
	return c.Edit(text, m)
}

// HandleView shows one item with a buy button.
func (h *MarketHandler) HandleView(c tele.Context, payload string) error {
	sender := c.Sender()
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil || sender == nil {
		return nil
	}
	ctx := context.Background()

	item, err := h.market.Get(ctx, id)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Item not found", ShowAlert: true})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🛒 %s\n━━━━━━━━━━━━━━━\n", item.Name)
	if item.Description != "" {
		fmt.Fprintf(&b, "📝 %s\n", item.Description)
	}
	fmt.Fprintf(&b, "🎁 Reward: %s\n", rewardLabel(item.Reward))
	fmt.Fprintf(&b, "💰 Price: %d coins", item.Price)

	m := &tele.ReplyMarkup{}
	owned, _ := h.market.HasPurchased(ctx, sender.ID, item.ID)
	if owned {
		b.WriteString("\n\n✅ Already yours")
		m.Inline(backRow(m, "menu_market"))
	} else {
		m.Inline(
			m.Row(m.Data("💳 Buy", "market_buy", payload)),
			backRow(m, "menu_market"),
		)
	}
	return c.Edit(b.String(), m)
}

// HandleBuy purchases an item.
func (h *MarketHandler) HandleBuy(c tele.Context, payload string) error {
	sender := c.Sender()
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil || sender == nil {
		return nil
	}

	item, err := h.market.Purchase(context.Background(), sender.ID, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyPurchased):
			return c.Respond(&tele.CallbackResponse{Text: "⚠️ You already own this item", ShowAlert: true})
		case errors.Is(err, repository.ErrInsufficientFunds):
			return c.Respond(&tele.CallbackResponse{Text: "❌ Not enough coins!", ShowAlert: true})
		case errors.Is(err, repository.ErrItemNotFound), errors.Is(err, repository.ErrItemInactive):
			return c.Respond(&tele.CallbackResponse{Text: "❌ The item is gone", ShowAlert: true})
		}
		return c.Respond(&tele.CallbackResponse{Text: "❌ Purchase failed, try again later"})
	}

	if err := c.Respond(&tele.CallbackResponse{
		Text:      fmt.Sprintf("✅ Bought %s! %s", item.Name, rewardLabel(item.Reward)),
		ShowAlert: true,
	}); err != nil {
		return err
	}
	return h.HandleMenu(c)
}

// rewardLabel renders a market reward for display.
func rewardLabel(r model.Reward) string {
	switch r.Kind {
	case model.RewardCoins:
		return fmt.Sprintf("💰 %d coins", r.Coins)
	case model.RewardPrivilege:
		return tierLabel(r.Tier) + " tier"
	case model.RewardPromoCredits:
		return fmt.Sprintf("🎟 %d promo credits", r.Credits)
	}
	return "?"
}
