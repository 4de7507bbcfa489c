package handler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	tele "gopkg.in/telebot.v3"

	"oxide-coins-bot/internal/config"
	"oxide-coins-bot/internal/service"
)

// captchaEmojis is the pool for the one anti-bot gate: pick the shown
// emoji out of five.
var captchaEmojis = []string{"🎯", "🎲", "🔥", "⚡", "🍀", "🚀", "🐢", "🌋", "🛢", "🪓"}

// AccountHandler handles onboarding, the main menu, the daily bonus and
// the leaderboard.
type AccountHandler struct {
	cfg      *config.Config
	accounts *service.AccountService
	state    *StateStore
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(cfg *config.Config, accounts *service.AccountService, state *StateStore) *AccountHandler {
	return &AccountHandler{cfg: cfg, accounts: accounts, state: state}
}

// HandleStart handles /start: creates the account on first contact and
// gates unregistered users behind the captcha.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	account, _, err := h.accounts.EnsureAccount(ctx, sender.ID, sender.Username, fullName(sender))
	if err != nil {
		return c.Send("❌ Something went wrong, try again later")
	}

	if !account.Registered {
		return h.sendCaptcha(c, "🤖 Quick check that you are human.\n\nTap this emoji: %s")
	}

	text := fmt.Sprintf(
		"🎮 Oxide Coins Bot\n\n"+
			"Hey, %s %s!\n\n"+
			"💰 Balance: %d coins\n"+
			"🪙 Demo: %d silver\n\n"+
			"Pick an action:",
		tierLabel(account.Tier), displayName(sender), account.RealBalance, account.DemoBalance,
	)
	return c.Send(text, mainMenu(h.cfg.IsAdmin(sender.ID)))
}

// HandleMainMenu handles the menu_main callback.
func (h *AccountHandler) HandleMainMenu(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	h.state.Clear(sender.ID)

	account, err := h.accounts.GetAccount(context.Background(), sender.ID)
	if err != nil {
		return c.Edit("❌ Something went wrong, try again later")
	}
	text := fmt.Sprintf(
		"🎮 Oxide Coins Bot\n\n💰 Balance: %d coins\n🪙 Demo: %d silver\n\nPick an action:",
		account.RealBalance, account.DemoBalance,
	)
	return c.Edit(text, mainMenu(h.cfg.IsAdmin(sender.ID)))
}

func (h *AccountHandler) sendCaptcha(c tele.Context, format string) error {
	sender := c.Sender()

	correct := captchaEmojis[rand.Intn(len(captchaEmojis))]
	options := []string{correct}
	for _, e := range rand.Perm(len(captchaEmojis)) {
		if len(options) == 5 {
			break
		}
		if captchaEmojis[e] != correct {
			options = append(options, captchaEmojis[e])
		}
	}
	rand.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	h.state.Set(sender.ID, StepCaptcha, &CaptchaDraft{Answer: correct})

	m := &tele.ReplyMarkup{}
	var btns []tele.Btn
	for _, e := range options {
		btns = append(btns, m.Data(e, "captcha", e))
	}
	m.Inline(m.Row(btns...))

	text := fmt.Sprintf(format, correct)
	if c.Callback() != nil {
		return c.Edit(text, m)
	}
	return c.Send(text, m)
}

// HandleCaptcha handles a captcha button press.
func (h *AccountHandler) HandleCaptcha(c tele.Context, picked string) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	step, draft := h.state.Get(sender.ID)
	cd, ok := draft.(*CaptchaDraft)
	if step != StepCaptcha || !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Send /start first"})
	}

	if picked != cd.Answer {
		return h.sendCaptcha(c, "❌ Wrong one, try again.\n\nTap this emoji: %s")
	}

	h.state.Set(sender.ID, StepRegServer, &RegistrationDraft{})
	return c.Edit("✅ Correct!\n\n📝 Let's fill in your profile.\n\n🌐 Which server do you usually play on?")
}

// HandleRegistrationText consumes the registration form answers.
func (h *AccountHandler) HandleRegistrationText(c tele.Context, step Step, draft Draft) error {
	sender := c.Sender()
	rd, ok := draft.(*RegistrationDraft)
	if !ok {
		h.state.Clear(sender.ID)
		return nil
	}

	text := strings.TrimSpace(c.Text())
	if text == "" {
		return c.Send("⚠️ Please answer with text")
	}

	switch step {
	case StepRegServer:
		rd.GameServer = text
		h.state.Advance(sender.ID, StepRegNickname)
		return c.Send("👤 Your in-game nickname?")

	case StepRegNickname:
		ctx := context.Background()
		if err := h.accounts.CompleteRegistration(ctx, sender.ID, rd.GameServer, text); err != nil {
			return c.Send("❌ Could not save your profile, try again later")
		}
		h.state.Clear(sender.ID)

		account, err := h.accounts.GetAccount(ctx, sender.ID)
		if err != nil {
			return c.Send("❌ Something went wrong, try again later")
		}
		welcome := fmt.Sprintf(
			"🎉 Registration complete!\n\n"+
				"💰 Balance: %d coins\n"+
				"🪙 Demo: %d silver\n\n"+
				"Pick an action:",
			account.RealBalance, account.DemoBalance,
		)
		return c.Send(welcome, mainMenu(h.cfg.IsAdmin(sender.ID)))
	}
	return nil
}

// HandleProfile shows the account card.
func (h *AccountHandler) HandleProfile(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	account, err := h.accounts.GetAccount(context.Background(), sender.ID)
	if err != nil {
		return c.Edit("❌ Something went wrong, try again later")
	}

	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data("📜 History", "history")),
		backRow(m, "menu_main"),
	)

	text := fmt.Sprintf(
		"👤 Profile\n"+
			"━━━━━━━━━━━━━━━\n"+
			"%s %s\n"+
			"🌐 Server: %s\n"+
			"🎮 Nickname: %s\n\n"+
			"💰 Balance: %d coins\n"+
			"🪙 Demo: %d silver\n"+
			"📈 Earned in total: %d\n"+
			"✅ Tasks completed: %d\n"+
			"🎟 Promo credits: %d\n"+
			"━━━━━━━━━━━━━━━",
		tierLabel(account.Tier), displayName(sender),
		account.GameServer, account.GameNickname,
		account.RealBalance, account.DemoBalance,
		account.TotalEarned, account.TasksCompleted, account.PromoCredits,
	)
	return c.Edit(text, m)
}

// HandleDaily handles the daily bonus claim.
func (h *AccountHandler) HandleDaily(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	account, remaining, err := h.accounts.ClaimDaily(context.Background(), sender.ID)
	if err != nil {
		if errors.Is(err, service.ErrDailyAlreadyClaimed) {
			hours := int(remaining.Hours())
			minutes := int(remaining.Minutes()) % 60
			return c.Respond(&tele.CallbackResponse{
				Text:      fmt.Sprintf("⏰ Come back in %dh %dm", hours, minutes),
				ShowAlert: true,
			})
		}
		return c.Respond(&tele.CallbackResponse{Text: "❌ Claim failed, try again later"})
	}

	return c.Respond(&tele.CallbackResponse{
		Text:      fmt.Sprintf("✅ +%d coins! Balance: %d", h.cfg.Economy.DailyBonus, account.RealBalance),
		ShowAlert: true,
	})
}

// HandleTop shows the lifetime earnings leaderboard.
func (h *AccountHandler) HandleTop(c tele.Context) error {
	accounts, err := h.accounts.Leaderboard(context.Background(), 10)
	if err != nil {
		return c.Edit("❌ Could not load the leaderboard")
	}

	if len(accounts) == 0 {
		return c.Edit("🏆 Nobody has earned anything yet", backMenu("menu_main"))
	}

	var b strings.Builder
	b.WriteString("🏆 Top earners\n━━━━━━━━━━━━━━━\n")
	medals := []string{"🥇", "🥈", "🥉"}
	for i, a := range accounts {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		name := a.Username
		if name == "" {
			name = a.GameNickname
		}
		if name == "" {
			name = fmt.Sprintf("player %d", a.UserID)
		}
		fmt.Fprintf(&b, "%s %s: %d\n", rank, name, a.TotalEarned)
	}
	b.WriteString("━━━━━━━━━━━━━━━")

	return c.Edit(b.String(), backMenu("menu_main"))
}

// HandleHistory shows the user's recent ledger entries.
func (h *AccountHandler) HandleHistory(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	entries, err := h.accounts.History(context.Background(), sender.ID, 15)
	if err != nil {
		return c.Edit("❌ Could not load your history")
	}
	if len(entries) == 0 {
		return c.Edit("📜 No transactions yet", backMenu("profile"))
	}

	var b strings.Builder
	b.WriteString("📜 Recent transactions\n━━━━━━━━━━━━━━━\n")
	for _, e := range entries {
		sign := ""
		if e.Amount > 0 {
			sign = "+"
		}
		fmt.Fprintf(&b, "%s %s%d %s (%s)\n",
			e.CreatedAt.Format("02.01 15:04"), sign, e.Amount, currencyLabel(e.Currency), e.Reason)
	}
	b.WriteString("━━━━━━━━━━━━━━━")

	return c.Edit(b.String(), backMenu("profile"))
}
