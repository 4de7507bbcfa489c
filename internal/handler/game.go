package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"oxide-coins-bot/internal/game"
	"oxide-coins-bot/internal/game/minefield"
	"oxide-coins-bot/internal/game/wheel"
	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/repository"
	"oxide-coins-bot/internal/service"
)

// GameHandler handles the mini-game flows: game pick, currency pick,
// stake entry, play and settlement.
type GameHandler struct {
	games *service.GameService
	state *StateStore
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(games *service.GameService, state *StateStore) *GameHandler {
	return &GameHandler{games: games, state: state}
}

// HandleMenu lists the registered games.
func (h *GameHandler) HandleMenu(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	h.state.Clear(sender.ID)

	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, g := range h.games.Games() {
		rows = append(rows, m.Row(m.Data(gameLabel(g), "game_pick", g.Command())))
	}
	rows = append(rows, backRow(m, "menu_main"))
	m.Inline(rows...)

	return c.Edit("🎮 Games\n\nStakes come off your balance up front, wins pay back in the same currency.", m)
}

func gameLabel(g game.Game) string {
	switch g.Command() {
	case "guess":
		return "🎲 " + g.Name()
	case "hoop":
		return "🏀 " + g.Name()
	case "darts":
		return "🎯 " + g.Name()
	case "wheel":
		return "🎡 " + g.Name()
	case "minefield":
		return "💣 " + g.Name()
	}
	return g.Name()
}

// HandlePick asks for the stake currency.
func (h *GameHandler) HandlePick(c tele.Context, payload string) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	g, ok := h.games.Get(payload)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown game"})
	}

	h.state.Set(sender.ID, StepGameStake, &GameDraft{Command: g.Command()})

	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(
			m.Data("💰 Coins", "game_cur", "real"),
			m.Data("🪙 Demo silver", "game_cur", "demo"),
		),
		backRow(m, "menu_games"),
	)
	return c.Edit(fmt.Sprintf("%s\n\n%s\n\nPlay for real coins or demo silver?", gameLabel(g), g.Description()), m)
}

// HandleCurrency stores the currency and asks for the stake.
func (h *GameHandler) HandleCurrency(c tele.Context, payload string) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	_, draft := h.state.Get(sender.ID)
	gd, ok := draft.(*GameDraft)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Start from the games menu"})
	}

	gd.Currency = model.CurrencyReal
	if payload == "demo" {
		gd.Currency = model.CurrencyDemo
	}
	h.state.Advance(sender.ID, StepGameStake)

	return c.Edit(fmt.Sprintf("💵 Your stake in %s?", currencyLabel(gd.Currency)), backMenu("menu_games"))
}

// HandleStakeText consumes the typed stake and either plays right away
// or asks for the game-specific pick.
func (h *GameHandler) HandleStakeText(c tele.Context, draft Draft) error {
	sender := c.Sender()
	gd, ok := draft.(*GameDraft)
	if !ok || gd.Currency == "" {
		h.state.Clear(sender.ID)
		return nil
	}

	stake, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil || stake <= 0 {
		return c.Send("⚠️ Send a positive number")
	}

	g, ok := h.games.Get(gd.Command)
	if !ok {
		h.state.Clear(sender.ID)
		return c.Send("❌ Something went wrong, open the games menu again")
	}
	if err := g.ValidateStake(stake); err != nil {
		switch {
		case errors.Is(err, game.ErrStakeTooSmall):
			return c.Send("⚠️ That stake is below the table minimum")
		case errors.Is(err, game.ErrStakeTooHigh):
			return c.Send("⚠️ That stake is above the table maximum")
		}
		return c.Send("⚠️ Invalid stake")
	}
	gd.Stake = stake

	ctx := context.Background()
	switch gd.Command {
	case "guess":
		h.state.Advance(sender.ID, StepGamePick)
		m := &tele.ReplyMarkup{}
		m.Inline(
			m.Row(m.Data("1", "guess_pick", "1"), m.Data("2", "guess_pick", "2"), m.Data("3", "guess_pick", "3")),
			m.Row(m.Data("4", "guess_pick", "4"), m.Data("5", "guess_pick", "5"), m.Data("6", "guess_pick", "6")),
			backRow(m, "menu_games"),
		)
		return c.Send("🎲 Call the die face:", m)

	case "wheel":
		wg, ok := g.(*wheel.Game)
		if !ok {
			h.state.Clear(sender.ID)
			return c.Send("❌ Something went wrong, open the games menu again")
		}
		h.state.Advance(sender.ID, StepGamePick)
		m := &tele.ReplyMarkup{}
		var rows []tele.Row
		for _, seg := range wg.Table() {
			label := fmt.Sprintf("x%g (%.0f%%)", seg.Mult, seg.Weight*100)
			rows = append(rows, m.Row(m.Data(label, "wheel_target", fmt.Sprintf("%g", seg.Mult))))
		}
		rows = append(rows, backRow(m, "menu_games"))
		m.Inline(rows...)
		return c.Send("🎡 Call the sector:", m)

	case "minefield":
		session, err := h.games.StartMinefield(ctx, sender.ID, stake, gd.Currency)
		if err != nil {
			h.state.Clear(sender.ID)
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return c.Send("❌ Not enough for that stake!")
			}
			return c.Send("❌ Could not start the game, try again later")
		}
		gd.Session = session
		h.state.Advance(sender.ID, StepMinefield)
		return c.Send(h.minefieldText(session), h.minefieldBoard(session))

	default:
		// Hoop and darts need no pick, the stake message plays the round.
		h.state.Clear(sender.ID)
		result, account, err := h.games.Play(ctx, sender.ID, gd.Command, stake, gd.Currency, nil)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return c.Send("❌ Not enough for that stake!")
			}
			return c.Send("❌ Could not play, try again later")
		}
		return c.Send(h.resultText(gd, result, account))
	}
}

// HandleGuessPick plays a guess round with the chosen face.
func (h *GameHandler) HandleGuessPick(c tele.Context, payload string) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	pick, err := strconv.Atoi(payload)
	if err != nil {
		return nil
	}

	step, draft := h.state.Take(sender.ID)
	gd, ok := draft.(*GameDraft)
	if step != StepGamePick || !ok {
		// A flow from another menu may be in progress; put it back.
		if step != StepNone {
			h.state.Set(sender.ID, step, draft)
		}
		return c.Respond(&tele.CallbackResponse{Text: "❌ Start from the games menu"})
	}

	result, account, playErr := h.games.Play(context.Background(), sender.ID, "guess", gd.Stake, gd.Currency,
		map[string]any{"guess": pick})
	if playErr != nil {
		if errors.Is(playErr, repository.ErrInsufficientFunds) {
			return c.Edit("❌ Not enough for that stake!", backMenu("menu_games"))
		}
		return c.Edit("❌ Could not play, try again later", backMenu("menu_games"))
	}

	text := h.resultText(gd, result, account)
	if draw, ok := result.Details["draw"].(int); ok {
		text = fmt.Sprintf("🎲 The die shows %d.\n\n%s", draw, text)
	}
	return c.Edit(text, backMenu("menu_games"))
}

// HandleWheelTarget plays a wheel round with the chosen sector.
func (h *GameHandler) HandleWheelTarget(c tele.Context, payload string) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	target, err := strconv.ParseFloat(payload, 64)
	if err != nil {
		return nil
	}

	step, draft := h.state.Take(sender.ID)
	gd, ok := draft.(*GameDraft)
	if step != StepGamePick || !ok {
		if step != StepNone {
			h.state.Set(sender.ID, step, draft)
		}
		return c.Respond(&tele.CallbackResponse{Text: "❌ Start from the games menu"})
	}

	result, account, playErr := h.games.Play(context.Background(), sender.ID, "wheel", gd.Stake, gd.Currency,
		map[string]any{"target": target})
	if playErr != nil {
		if errors.Is(playErr, repository.ErrInsufficientFunds) {
			return c.Edit("❌ Not enough for that stake!", backMenu("menu_games"))
		}
		return c.Edit("❌ Could not play, try again later", backMenu("menu_games"))
	}

	text := h.resultText(gd, result, account)
	if mult, ok := result.Details["result"].(float64); ok {
		text = fmt.Sprintf("🎡 The wheel lands on x%g.\n\n%s", mult, text)
	}
	return c.Edit(text, backMenu("menu_games"))
}

// HandleMineCell reveals one minefield cell.
func (h *GameHandler) HandleMineCell(c tele.Context, payload string) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	step, draft := h.state.Get(sender.ID)
	gd, ok := draft.(*GameDraft)
	if step != StepMinefield || !ok || gd.Session == nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ No game in progress"})
	}
	cell, err := strconv.Atoi(payload)
	if err != nil {
		return nil
	}

	out, err := gd.Session.Reveal(cell)
	if err != nil {
		if errors.Is(err, minefield.ErrCellRevealed) {
			return c.Respond(&tele.CallbackResponse{Text: "Already open"})
		}
		return c.Respond(&tele.CallbackResponse{Text: "❌ No game in progress"})
	}

	ctx := context.Background()
	switch {
	case out.Hit:
		h.state.Clear(sender.ID)
		return c.Edit(fmt.Sprintf(
			"💥 Boom! The stake of %d %s is gone.\n\n%s",
			gd.Stake, currencyLabel(gd.Currency), h.finalBoardText(gd.Session)),
			backMenu("menu_games"))

	case out.Cleared:
		h.state.Clear(sender.ID)
		payout, account, err := h.games.SettleMinefieldClear(ctx, sender.ID, gd.Session, gd.Currency)
		if err != nil {
			return c.Edit("❌ Could not pay out, contact support", backMenu("menu_games"))
		}
		return c.Edit(fmt.Sprintf(
			"🏆 Full clear! x%.1f pays %d %s.\n💰 Balance: %d\n\n%s",
			gd.Session.Multiplier(), payout, currencyLabel(gd.Currency),
			account.Balance(gd.Currency), h.finalBoardText(gd.Session)),
			backMenu("menu_games"))

	default:
		return c.Edit(h.minefieldText(gd.Session), h.minefieldBoard(gd.Session))
	}
}

// HandleMineCashOut settles the running board at its current multiplier.
func (h *GameHandler) HandleMineCashOut(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	// Atomic take: of two racing cash-out presses only one obtains the
	// draft, the other finds no game in progress.
	step, draft := h.state.Take(sender.ID)
	gd, ok := draft.(*GameDraft)
	if step != StepMinefield || !ok || gd.Session == nil {
		if step != StepNone {
			h.state.Set(sender.ID, step, draft)
		}
		return c.Respond(&tele.CallbackResponse{Text: "❌ No game in progress"})
	}

	payout, account, err := h.games.CashOutMinefield(context.Background(), sender.ID, gd.Session, gd.Currency)
	if err != nil {
		return c.Edit("❌ Could not cash out, contact support", backMenu("menu_games"))
	}
	return c.Edit(fmt.Sprintf(
		"💰 Cashed out %d %s at x%.1f.\n💰 Balance: %d\n\n%s",
		payout, currencyLabel(gd.Currency), gd.Session.Multiplier(),
		account.Balance(gd.Currency), h.finalBoardText(gd.Session)),
		backMenu("menu_games"))
}

func (h *GameHandler) minefieldText(s *minefield.Session) string {
	return fmt.Sprintf(
		"💣 Minefield\n\n3 hazards hide on the board.\n"+
			"📈 Multiplier: x%.1f\n💰 Cash-out now: %d",
		s.Multiplier(), minefield.Payout(s.Stake(), s.Multiplier()))
}

// minefieldBoard renders the 3x3 grid with a cash-out row.
func (h *GameHandler) minefieldBoard(s *minefield.Session) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	for r := 0; r < 3; r++ {
		var btns []tele.Btn
		for col := 0; col < 3; col++ {
			cell := r*3 + col
			label := "⬜"
			if s.Revealed(cell) {
				label = "🟩"
			}
			btns = append(btns, m.Data(label, "mine_cell", fmt.Sprint(cell)))
		}
		rows = append(rows, m.Row(btns...))
	}
	rows = append(rows, m.Row(m.Data("💰 Cash out", "mine_cashout")))
	m.Inline(rows...)
	return m
}

// finalBoardText renders the ended board with hazards shown.
func (h *GameHandler) finalBoardText(s *minefield.Session) string {
	var b strings.Builder
	for r := 0; r < 3; r++ {
		for col := 0; col < 3; col++ {
			cell := r*3 + col
			switch {
			case s.Hazard(cell):
				b.WriteString("💣")
			case s.Revealed(cell):
				b.WriteString("🟩")
			default:
				b.WriteString("⬜")
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// resultText renders an instant game outcome.
func (h *GameHandler) resultText(gd *GameDraft, result *game.Result, account *model.Account) string {
	if result.Win {
		return fmt.Sprintf("🎉 You win %d %s!\n💰 Balance: %d",
			result.Payout, currencyLabel(gd.Currency), account.Balance(gd.Currency))
	}
	return fmt.Sprintf("😔 You lose %d %s.\n💰 Balance: %d",
		gd.Stake, currencyLabel(gd.Currency), account.Balance(gd.Currency))
}
