package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"oxide-coins-bot/internal/config"
	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/packs"
	"oxide-coins-bot/internal/repository"
	"oxide-coins-bot/internal/service"
)

// WithdrawHandler handles cash-out requests.
type WithdrawHandler struct {
	cfg         *config.Config
	accounts    *service.AccountService
	withdrawals *service.WithdrawalService
	state       *StateStore
}

// NewWithdrawHandler creates a new WithdrawHandler.
func NewWithdrawHandler(cfg *config.Config, accounts *service.AccountService, withdrawals *service.WithdrawalService, state *StateStore) *WithdrawHandler {
	return &WithdrawHandler{cfg: cfg, accounts: accounts, withdrawals: withdrawals, state: state}
}

// HandleMenu shows the pack picker with the caller's balance.
func (h *WithdrawHandler) HandleMenu(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	account, err := h.accounts.GetAccount(context.Background(), sender.ID)
	if err != nil {
		return c.Edit("❌ Something went wrong, try again later")
	}

	text := fmt.Sprintf("💸 Withdraw coins\n\n💰 Balance: %d coins\n\nPick a pack:", account.RealBalance)
	return c.Edit(text, packsMenu(account.RealBalance))
}

// HandleNotEnough answers the disabled pack buttons.
func (h *WithdrawHandler) HandleNotEnough(c tele.Context) error {
	return c.Respond(&tele.CallbackResponse{Text: "❌ Not enough coins!", ShowAlert: true})
}

// HandlePick stores the chosen pack and asks for the game identity.
func (h *WithdrawHandler) HandlePick(c tele.Context, payload string) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	pack, ok := packs.Get(payload)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown pack"})
	}

	account, err := h.accounts.GetAccount(context.Background(), sender.ID)
	if err != nil || account.RealBalance < pack.Coins {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Not enough coins!", ShowAlert: true})
	}

	h.state.Set(sender.ID, StepWithdrawGameID, &WithdrawDraft{PackID: pack.ID, Coins: pack.Coins})

	text := fmt.Sprintf("💸 Withdrawing: %s\n\n💰 Amount: %d coins\n\nSend your Steam ID or in-game nickname:",
		pack.Name, pack.Coins)
	return c.Edit(text, backMenu("menu_withdraw"))
}

// HandleGameIDText consumes the game identity and files the request. The
// coins leave the balance right here.
func (h *WithdrawHandler) HandleGameIDText(c tele.Context, draft Draft) error {
	sender := c.Sender()
	wd, ok := draft.(*WithdrawDraft)
	if !ok {
		h.state.Clear(sender.ID)
		return nil
	}

	gameID := strings.TrimSpace(c.Text())
	if len(gameID) < 2 {
		return c.Send("⚠️ Send a valid ID")
	}

	req, err := h.withdrawals.Request(context.Background(), sender.ID, wd.PackID, gameID)
	h.state.Clear(sender.ID)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return c.Send("❌ Not enough coins!")
		}
		return c.Send("❌ Could not file the request, try again later")
	}

	h.notifyReviewChannel(c, req)

	return c.Send(fmt.Sprintf(
		"✅ Request #%d filed!\n\n💰 %d coins\n🎮 ID: %s\n\n⏳ Wait for processing.",
		req.ID, req.Coins, req.GameID))
}

// notifyReviewChannel posts the request to the review channel with
// complete and reject buttons. Best effort.
func (h *WithdrawHandler) notifyReviewChannel(c tele.Context, req *model.Withdrawal) {
	if h.cfg.Bot.ReviewChannel == 0 {
		return
	}

	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(
		m.Data("✅ Complete", "adm_wd_ok", fmt.Sprint(req.ID)),
		m.Data("❌ Reject", "adm_wd_no", fmt.Sprint(req.ID)),
	))

	text := fmt.Sprintf("💸 Withdrawal #%d\n👤 User %d\n📦 %s (%d coins)\n🎮 %s",
		req.ID, req.UserID, req.PackID, req.Coins, req.GameID)
	_, _ = c.Bot().Send(tele.ChatID(h.cfg.Bot.ReviewChannel), text, m)
}
