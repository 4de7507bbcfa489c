package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"oxide-coins-bot/internal/repository"
	"oxide-coins-bot/internal/service"
)

// PromoHandler handles promocode redemption and self-funded minting.
type PromoHandler struct {
	accounts *service.AccountService
	promos   *service.PromoService
	state    *StateStore
}

// NewPromoHandler creates a new PromoHandler.
func NewPromoHandler(accounts *service.AccountService, promos *service.PromoService, state *StateStore) *PromoHandler {
	return &PromoHandler{accounts: accounts, promos: promos, state: state}
}

// HandleMenu shows the promocode menu. Privileged tiers also see the mint
// button.
func (h *PromoHandler) HandleMenu(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	account, err := h.accounts.GetAccount(context.Background(), sender.ID)
	if err != nil {
		return c.Edit("❌ Something went wrong, try again later")
	}

	m := &tele.ReplyMarkup{}
	rows := []tele.Row{m.Row(m.Data("🎟 Enter promocode", "promo_enter"))}
	text := "🎟 Promocodes\n\nRedeem a code to get coins."
	if account.Tier.Special() {
		rows = append(rows, m.Row(m.Data("✨ Mint promocode", "promo_mint")))
		text += fmt.Sprintf("\n\n✨ You can mint your own codes.\nCredits left: %d", account.PromoCredits)
	}
	rows = append(rows, backRow(m, "menu_main"))
	m.Inline(rows...)

	return c.Edit(text, m)
}

// HandleEnter asks for a code to redeem.
func (h *PromoHandler) HandleEnter(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	h.state.Set(sender.ID, StepPromoCode, nil)
	return c.Edit("🎟 Send the promocode:", backMenu("menu_promo"))
}

// HandleCodeText redeems a typed code.
func (h *PromoHandler) HandleCodeText(c tele.Context) error {
	sender := c.Sender()
	code := strings.TrimSpace(c.Text())
	h.state.Clear(sender.ID)

	promo, err := h.promos.Redeem(context.Background(), code, sender.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPromoNotFound):
			return c.Send("❌ No such promocode.")
		case errors.Is(err, repository.ErrPromoAlreadyUsed):
			return c.Send("⚠️ You already redeemed this code.")
		case errors.Is(err, repository.ErrPromoInactive), errors.Is(err, repository.ErrPromoExhausted):
			return c.Send("❌ This code is no longer active.")
		}
		return c.Send("❌ Could not redeem the code, try again later")
	}

	return c.Send(fmt.Sprintf("✅ Promocode accepted!\n\n💰 +%d coins", promo.Coins))
}

// HandleMint starts the self-funded minting form.
func (h *PromoHandler) HandleMint(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	account, err := h.accounts.GetAccount(context.Background(), sender.ID)
	if err != nil {
		return c.Edit("❌ Something went wrong, try again later")
	}
	if !account.Tier.Special() {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Minting needs the YouTuber tier", ShowAlert: true})
	}
	if account.PromoCredits <= 0 {
		return c.Respond(&tele.CallbackResponse{Text: "❌ No minting credits left", ShowAlert: true})
	}

	h.state.Set(sender.ID, StepPromoMintValue, &PromoMintDraft{})
	return c.Edit("✨ Minting a promocode\n\n💰 How many coins per redemption?\n\n"+
		"The total cost (coins x uses) comes off your balance.", backMenu("menu_promo"))
}

// HandleMintText consumes the minting form answers.
func (h *PromoHandler) HandleMintText(c tele.Context, step Step, draft Draft) error {
	sender := c.Sender()
	pd, ok := draft.(*PromoMintDraft)
	if !ok {
		h.state.Clear(sender.ID)
		return nil
	}

	value, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil || value <= 0 {
		return c.Send("⚠️ Send a positive number")
	}

	switch step {
	case StepPromoMintValue:
		pd.Coins = value
		h.state.Advance(sender.ID, StepPromoMintUses)
		return c.Send("🔢 How many redemptions?")

	case StepPromoMintUses:
		h.state.Clear(sender.ID)
		ctx := context.Background()

		account, err := h.accounts.GetAccount(ctx, sender.ID)
		if err != nil {
			return c.Send("❌ Something went wrong, try again later")
		}

		promo, err := h.promos.Mint(ctx, account, pd.Coins, int(value))
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrNoPromoCredits):
				return c.Send("❌ No minting credits left.")
			case errors.Is(err, repository.ErrInsufficientFunds):
				return c.Send(fmt.Sprintf("❌ Not enough coins: minting costs %d.", pd.Coins*value))
			case errors.Is(err, service.ErrNotPrivileged):
				return c.Send("❌ Minting needs the YouTuber tier.")
			}
			return c.Send("❌ Could not mint the code, try again later")
		}

		return c.Send(fmt.Sprintf(
			"✨ Your promocode is ready!\n\n"+
				"🎟 %s\n💰 %d coins x %d uses\n\n"+
				"Share it with your audience.",
			promo.Code, promo.Coins, promo.MaxUses))
	}
	return nil
}
