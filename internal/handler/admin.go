package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"oxide-coins-bot/internal/config"
	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/repository"
	"oxide-coins-bot/internal/service"
)

// Resource task form, asked one field at a time.
var resourceTaskQuestions = []string{
	"Server name?",
	"Clan name?",
	"Resource category? (resources / components)",
	"Resource type? (e.g. stone, sulfur)",
	"Amount to gather?",
	"Reward in coins?",
	"Description? Send \"-\" to skip.",
}

// Card task form.
var cardTaskQuestions = []string{
	"Card or service name?",
	"Referral link?",
	"Reward in coins?",
	"Description? Send \"-\" to skip.",
}

// Market item form.
var itemQuestions = []string{
	"Item name?",
	"Price in coins?",
	"Description?",
	"Reward? Formats: \"coins 100\", \"privilege strong\", \"credits 3\".",
}

// AdminHandler handles the admin panel: review queues, content
// creation and user management. Every entry point sits behind the
// admin middleware.
type AdminHandler struct {
	cfg         *config.Config
	accounts    *service.AccountService
	tasks       *service.TaskService
	withdrawals *service.WithdrawalService
	promos      *service.PromoService
	market      *service.MarketService
	stats       *repository.StatsRepository
	state       *StateStore
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	cfg *config.Config,
	accounts *service.AccountService,
	tasks *service.TaskService,
	withdrawals *service.WithdrawalService,
	promos *service.PromoService,
	market *service.MarketService,
	stats *repository.StatsRepository,
	state *StateStore,
) *AdminHandler {
	return &AdminHandler{
		cfg:         cfg,
		accounts:    accounts,
		tasks:       tasks,
		withdrawals: withdrawals,
		promos:      promos,
		market:      market,
		stats:       stats,
		state:       state,
	}
}

// HandleMenu shows the admin panel.
func (h *AdminHandler) HandleMenu(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	h.state.Clear(sender.ID)

	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(
			m.Data("📋 Submissions", "adm_subs"),
			m.Data("📤 Withdrawals", "adm_wds"),
		),
		m.Row(
			m.Data("➕ New task", "adm_task_new"),
			m.Data("🏪 New item", "adm_item_new"),
		),
		m.Row(
			m.Data("🎟 New promo", "adm_promo_new"),
			m.Data("🎟 Promo list", "adm_promos"),
		),
		m.Row(
			m.Data("👤 Manage user", "adm_user"),
			m.Data("📊 Stats", "adm_stats"),
		),
		m.Row(m.Data("🔄 Reset leaderboard", "adm_reset")),
		backRow(m, "menu_main"),
	)
	return c.Edit("🛠 Admin panel", m)
}

// HandleSubs lists pending task submissions.
func (h *AdminHandler) HandleSubs(c tele.Context) error {
	subs, err := h.tasks.PendingSubmissions(context.Background(), 10)
	if err != nil {
		return c.Edit("❌ Could not load submissions", backMenu("adm_menu"))
	}
	if len(subs) == 0 {
		return c.Edit("📋 No pending submissions.", backMenu("adm_menu"))
	}

	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	var b strings.Builder
	b.WriteString("📋 Pending submissions\n\n")
	for _, s := range subs {
		fmt.Fprintf(&b, "#%d | user %d | task %d | %s\n",
			s.ID, s.UserID, s.TaskID, s.SubmittedAt.Format("02.01 15:04"))
		id := strconv.FormatInt(s.ID, 10)
		rows = append(rows, m.Row(
			m.Data(fmt.Sprintf("✅ #%d", s.ID), "adm_sub_ok", id),
			m.Data(fmt.Sprintf("❌ #%d", s.ID), "adm_sub_no", id),
			m.Data(fmt.Sprintf("🖼 #%d", s.ID), "adm_sub_proof", id),
		))
	}
	rows = append(rows, backRow(m, "adm_menu"))
	m.Inline(rows...)
	return c.Edit(b.String(), m)
}

// HandleSubProof resends the proof photo for a submission.
func (h *AdminHandler) HandleSubProof(c tele.Context, payload string) error {
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return nil
	}
	sub, err := h.tasks.GetSubmission(context.Background(), id)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Submission not found"})
	}
	photo := &tele.Photo{File: tele.File{FileID: sub.ProofFileID}}
	photo.Caption = fmt.Sprintf("Proof for submission #%d (user %d, task %d)", sub.ID, sub.UserID, sub.TaskID)
	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send(photo)
}

// HandleSubApprove approves a submission and pays its reward.
func (h *AdminHandler) HandleSubApprove(c tele.Context, payload string) error {
	sender := c.Sender()
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return nil
	}

	sub, err := h.tasks.Approve(context.Background(), id, sender.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSubmissionReviewed) {
			return c.Respond(&tele.CallbackResponse{Text: "Already reviewed"})
		}
		return c.Respond(&tele.CallbackResponse{Text: "❌ Approval failed"})
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("submission_id", sub.ID).
		Int64("user_id", sub.UserID).
		Msg("submission approved")

	if err := c.Respond(&tele.CallbackResponse{Text: "✅ Approved and paid"}); err != nil {
		return err
	}
	h.notifyUser(c, sub.UserID, "✅ Your task submission was approved, the reward is on your balance!")
	return h.HandleSubs(c)
}

// HandleSubReject asks for the rejection comment.
func (h *AdminHandler) HandleSubReject(c tele.Context, payload string) error {
	sender := c.Sender()
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return nil
	}
	h.state.Set(sender.ID, StepAdminReject, &AdminRejectDraft{SubmissionID: id})
	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send(fmt.Sprintf("✍️ Rejection comment for submission #%d?", id))
}

// HandleWds lists pending withdrawals.
func (h *AdminHandler) HandleWds(c tele.Context) error {
	wds, err := h.withdrawals.Pending(context.Background(), 10)
	if err != nil {
		return c.Edit("❌ Could not load withdrawals", backMenu("adm_menu"))
	}
	if len(wds) == 0 {
		return c.Edit("📤 No pending withdrawals.", backMenu("adm_menu"))
	}

	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	var b strings.Builder
	b.WriteString("📤 Pending withdrawals\n\n")
	for _, w := range wds {
		fmt.Fprintf(&b, "#%d | user %d | %d coins | game ID: %s\n",
			w.ID, w.UserID, w.Coins, w.GameID)
		id := strconv.FormatInt(w.ID, 10)
		rows = append(rows, m.Row(
			m.Data(fmt.Sprintf("✅ #%d", w.ID), "adm_wd_ok", id),
			m.Data(fmt.Sprintf("❌ #%d", w.ID), "adm_wd_no", id),
		))
	}
	rows = append(rows, backRow(m, "adm_menu"))
	m.Inline(rows...)
	return c.Edit(b.String(), m)
}

// HandleWdComplete marks a withdrawal as paid out in game.
func (h *AdminHandler) HandleWdComplete(c tele.Context, payload string) error {
	sender := c.Sender()
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return nil
	}

	wd, err := h.withdrawals.Complete(context.Background(), id, sender.ID)
	if err != nil {
		if errors.Is(err, repository.ErrWithdrawalReviewed) {
			return c.Respond(&tele.CallbackResponse{Text: "Already reviewed"})
		}
		return c.Respond(&tele.CallbackResponse{Text: "❌ Completion failed"})
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("withdrawal_id", wd.ID).
		Int64("user_id", wd.UserID).
		Int64("coins", wd.Coins).
		Msg("withdrawal completed")

	if err := c.Respond(&tele.CallbackResponse{Text: "✅ Marked as paid"}); err != nil {
		return err
	}
	h.notifyUser(c, wd.UserID, fmt.Sprintf("✅ Your withdrawal of %d coins was paid out, check the game!", wd.Coins))
	return h.HandleWds(c)
}

// HandleWdReject asks for the rejection comment.
func (h *AdminHandler) HandleWdReject(c tele.Context, payload string) error {
	sender := c.Sender()
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return nil
	}
	h.state.Set(sender.ID, StepAdminReject, &AdminRejectDraft{WithdrawalID: id})
	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send(fmt.Sprintf("✍️ Rejection comment for withdrawal #%d?", id))
}

// HandleRejectText consumes the rejection comment and applies it to the
// queued submission or withdrawal. Rejected withdrawals refund the
// escrowed coins.
func (h *AdminHandler) HandleRejectText(c tele.Context, draft Draft) error {
	sender := c.Sender()
	rd, ok := draft.(*AdminRejectDraft)
	if !ok {
		h.state.Clear(sender.ID)
		return nil
	}
	comment := strings.TrimSpace(c.Text())
	if comment == "" {
		return c.Send("⚠️ Send a non-empty comment")
	}
	h.state.Clear(sender.ID)
	ctx := context.Background()

	if rd.SubmissionID != 0 {
		sub, err := h.tasks.Reject(ctx, rd.SubmissionID, sender.ID, comment)
		if err != nil {
			return c.Send("❌ Rejection failed, the submission may already be reviewed")
		}
		log.Info().
			Int64("admin_id", sender.ID).
			Int64("submission_id", sub.ID).
			Msg("submission rejected")
		h.notifyUser(c, sub.UserID, fmt.Sprintf("❌ Your task submission was rejected.\n💬 %s", comment))
		return c.Send(fmt.Sprintf("✅ Submission #%d rejected.", sub.ID))
	}

	wd, err := h.withdrawals.Reject(ctx, rd.WithdrawalID, sender.ID, comment)
	if err != nil {
		return c.Send("❌ Rejection failed, the withdrawal may already be reviewed")
	}
	log.Info().
		Int64("admin_id", sender.ID).
		Int64("withdrawal_id", wd.ID).
		Msg("withdrawal rejected")
	h.notifyUser(c, wd.UserID,
		fmt.Sprintf("❌ Your withdrawal of %d coins was rejected, the coins are back on your balance.\n💬 %s", wd.Coins, comment))
	return c.Send(fmt.Sprintf("✅ Withdrawal #%d rejected and refunded.", wd.ID))
}

// HandleTaskNew asks for the task kind.
func (h *AdminHandler) HandleTaskNew(c tele.Context) error {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(
			m.Data("⛏ Resource", "adm_task_kind", "resource"),
			m.Data("💳 Card", "adm_task_kind", "card"),
		),
		backRow(m, "adm_menu"),
	)
	return c.Edit("➕ New task\n\nWhich kind?", m)
}

// HandleTaskKind starts the task creation form.
func (h *AdminHandler) HandleTaskKind(c tele.Context, payload string) error {
	sender := c.Sender()
	kind := model.TaskKindResource
	questions := resourceTaskQuestions
	if payload == "card" {
		kind = model.TaskKindCard
		questions = cardTaskQuestions
	}
	h.state.Set(sender.ID, StepAdminTaskForm, &AdminTaskDraft{Kind: kind})
	return c.Edit("➕ New task\n\n" + questions[0])
}

// HandleTaskFormText consumes one task form answer.
func (h *AdminHandler) HandleTaskFormText(c tele.Context, draft Draft) error {
	sender := c.Sender()
	td, ok := draft.(*AdminTaskDraft)
	if !ok {
		h.state.Clear(sender.ID)
		return nil
	}

	questions := resourceTaskQuestions
	if td.Kind == model.TaskKindCard {
		questions = cardTaskQuestions
	}

	answer := strings.TrimSpace(c.Text())
	if answer == "" {
		return c.Send("⚠️ Send a text answer")
	}
	if numericTaskField(td.Kind, td.Field) {
		if v, err := strconv.ParseInt(answer, 10, 64); err != nil || v <= 0 {
			return c.Send("⚠️ Send a positive number")
		}
	}
	td.Answers = append(td.Answers, answer)
	td.Field++

	if td.Field < len(questions) {
		return c.Send(questions[td.Field])
	}
	h.state.Clear(sender.ID)
	ctx := context.Background()

	var task *model.Task
	var err error
	if td.Kind == model.TaskKindResource {
		amount, _ := strconv.ParseInt(td.Answers[4], 10, 64)
		reward, _ := strconv.ParseInt(td.Answers[5], 10, 64)
		task, err = h.tasks.CreateResourceTask(ctx, sender.ID,
			td.Answers[0], td.Answers[1], td.Answers[2], td.Answers[3],
			amount, reward, skipDash(td.Answers[6]))
	} else {
		reward, _ := strconv.ParseInt(td.Answers[2], 10, 64)
		task, err = h.tasks.CreateCardTask(ctx, sender.ID,
			td.Answers[0], td.Answers[1], reward, skipDash(td.Answers[3]))
	}
	if err != nil {
		return c.Send("❌ Could not create the task")
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("task_id", task.ID).
		Str("kind", string(task.Kind)).
		Int64("reward", task.Reward).
		Msg("task created")
	return c.Send(fmt.Sprintf("✅ Task #%d created, reward %d coins.", task.ID, task.Reward))
}

// numericTaskField reports whether a form field must parse as a
// positive integer.
func numericTaskField(kind model.TaskKind, field int) bool {
	if kind == model.TaskKindResource {
		return field == 4 || field == 5
	}
	return field == 2
}

func skipDash(s string) string {
	if s == "-" {
		return ""
	}
	return s
}

// HandleItemNew starts the market item form.
func (h *AdminHandler) HandleItemNew(c tele.Context) error {
	sender := c.Sender()
	h.state.Set(sender.ID, StepAdminItemForm, &AdminItemDraft{})
	return c.Edit("🏪 New market item\n\n" + itemQuestions[0])
}

// HandleItemFormText consumes one market item form answer.
func (h *AdminHandler) HandleItemFormText(c tele.Context, draft Draft) error {
	sender := c.Sender()
	id, ok := draft.(*AdminItemDraft)
	if !ok {
		h.state.Clear(sender.ID)
		return nil
	}

	answer := strings.TrimSpace(c.Text())
	if answer == "" {
		return c.Send("⚠️ Send a text answer")
	}
	if id.Field == 1 {
		if v, err := strconv.ParseInt(answer, 10, 64); err != nil || v <= 0 {
			return c.Send("⚠️ Send the price as a positive number")
		}
	}
	if id.Field == len(itemQuestions)-1 {
		if _, err := parseRewardSpec(answer); err != nil {
			return c.Send("⚠️ Formats: \"coins 100\", \"privilege strong\", \"credits 3\"")
		}
	}
	id.Answers = append(id.Answers, answer)
	id.Field++

	if id.Field < len(itemQuestions) {
		return c.Send(itemQuestions[id.Field])
	}
	h.state.Clear(sender.ID)

	price, _ := strconv.ParseInt(id.Answers[1], 10, 64)
	reward, _ := parseRewardSpec(id.Answers[3])
	item, err := h.market.CreateItem(context.Background(), id.Answers[0], price, id.Answers[2], reward)
	if err != nil {
		return c.Send("❌ Could not create the item")
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("item_id", item.ID).
		Int64("price", item.Price).
		Msg("market item created")
	return c.Send(fmt.Sprintf("✅ Item \"%s\" created for %d coins.", item.Name, item.Price))
}

// parseRewardSpec parses the admin "kind value" reward shorthand.
func parseRewardSpec(spec string) (model.Reward, error) {
	parts := strings.Fields(spec)
	if len(parts) != 2 {
		return model.Reward{}, service.ErrInvalidRewardSpec
	}
	switch parts[0] {
	case "coins":
		coins, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return model.Reward{}, service.ErrInvalidRewardSpec
		}
		return service.ParseReward(model.RewardCoins, coins, "", 0)
	case "privilege":
		return service.ParseReward(model.RewardPrivilege, 0, model.Tier(parts[1]), 0)
	case "credits":
		credits, err := strconv.Atoi(parts[1])
		if err != nil {
			return model.Reward{}, service.ErrInvalidRewardSpec
		}
		return service.ParseReward(model.RewardPromoCredits, 0, "", credits)
	}
	return model.Reward{}, service.ErrInvalidRewardSpec
}

// HandlePromoNew starts the promocode form.
func (h *AdminHandler) HandlePromoNew(c tele.Context) error {
	sender := c.Sender()
	h.state.Set(sender.ID, StepAdminPromoForm, &AdminPromoDraft{})
	return c.Edit("🎟 New promocode\n\nCode? Letters and digits, stored upper-cased.")
}

// HandlePromoFormText walks the code, value, uses form.
func (h *AdminHandler) HandlePromoFormText(c tele.Context, draft Draft) error {
	sender := c.Sender()
	pd, ok := draft.(*AdminPromoDraft)
	if !ok {
		h.state.Clear(sender.ID)
		return nil
	}
	answer := strings.TrimSpace(c.Text())

	switch {
	case pd.Code == "":
		if answer == "" {
			return c.Send("⚠️ Send a non-empty code")
		}
		pd.Code = answer
		return c.Send("Coins per redemption?")

	case pd.Coins == 0:
		coins, err := strconv.ParseInt(answer, 10, 64)
		if err != nil || coins <= 0 {
			return c.Send("⚠️ Send a positive number")
		}
		pd.Coins = coins
		return c.Send("Maximum redemptions?")

	default:
		uses, err := strconv.Atoi(answer)
		if err != nil || uses <= 0 {
			return c.Send("⚠️ Send a positive number")
		}
		h.state.Clear(sender.ID)

		promo, err := h.promos.Create(context.Background(), pd.Code, pd.Coins, uses, sender.ID)
		if err != nil {
			if errors.Is(err, repository.ErrPromoCodeTaken) {
				return c.Send("❌ That code already exists")
			}
			return c.Send("❌ Could not create the promocode")
		}

		log.Info().
			Int64("admin_id", sender.ID).
			Str("code", promo.Code).
			Int64("coins", promo.Coins).
			Int("max_uses", promo.MaxUses).
			Msg("promocode created")
		return c.Send(fmt.Sprintf("✅ Promocode %s created: %d coins, %d uses.",
			promo.Code, promo.Coins, promo.MaxUses))
	}
}

// HandlePromos lists active promocodes with kill switches.
func (h *AdminHandler) HandlePromos(c tele.Context) error {
	promos, err := h.promos.ListActive(context.Background())
	if err != nil {
		return c.Edit("❌ Could not load promocodes", backMenu("adm_menu"))
	}
	if len(promos) == 0 {
		return c.Edit("🎟 No active promocodes.", backMenu("adm_menu"))
	}

	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	var b strings.Builder
	b.WriteString("🎟 Active promocodes\n\n")
	for _, p := range promos {
		fmt.Fprintf(&b, "%s | %d coins | %d/%d used\n", p.Code, p.Coins, p.CurrentUses, p.MaxUses)
		rows = append(rows, m.Row(m.Data("🚫 "+p.Code, "adm_promo_off", p.Code)))
	}
	rows = append(rows, backRow(m, "adm_menu"))
	m.Inline(rows...)
	return c.Edit(b.String(), m)
}

// HandlePromoOff deactivates a promocode.
func (h *AdminHandler) HandlePromoOff(c tele.Context, payload string) error {
	sender := c.Sender()
	if err := h.promos.Deactivate(context.Background(), payload); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Deactivation failed"})
	}
	log.Info().
		Int64("admin_id", sender.ID).
		Str("code", payload).
		Msg("promocode deactivated")
	if err := c.Respond(&tele.CallbackResponse{Text: "🚫 Deactivated"}); err != nil {
		return err
	}
	return h.HandlePromos(c)
}

// HandleUser asks for the lookup query.
func (h *AdminHandler) HandleUser(c tele.Context) error {
	sender := c.Sender()
	h.state.Set(sender.ID, StepAdminUserForm, &AdminUserDraft{})
	return c.Edit("👤 Manage user\n\nSend a user ID or a username fragment.")
}

// HandleUserText routes the user-management text input: first the
// lookup query, then the amount for the chosen action.
func (h *AdminHandler) HandleUserText(c tele.Context, draft Draft) error {
	sender := c.Sender()
	ud, ok := draft.(*AdminUserDraft)
	if !ok {
		h.state.Clear(sender.ID)
		return nil
	}
	if ud.Action == "" {
		return h.lookupUser(c, ud)
	}
	return h.applyUserAction(c, ud)
}

func (h *AdminHandler) lookupUser(c tele.Context, ud *AdminUserDraft) error {
	query := strings.TrimSpace(c.Text())
	ctx := context.Background()

	var target *model.Account
	if id, err := strconv.ParseInt(query, 10, 64); err == nil {
		if acc, err := h.accounts.GetAccount(ctx, id); err == nil {
			target = acc
		}
	}
	if target == nil {
		matches, err := h.accounts.Search(ctx, query, 5)
		if err != nil || len(matches) == 0 {
			return c.Send("❌ No account matches, try another query")
		}
		if len(matches) > 1 {
			var b strings.Builder
			b.WriteString("Several matches, send the exact ID:\n\n")
			for _, a := range matches {
				fmt.Fprintf(&b, "%d | @%s | %s\n", a.UserID, a.Username, a.FullName)
			}
			return c.Send(b.String())
		}
		target = matches[0]
	}
	ud.TargetID = target.UserID

	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(
			m.Data("➕ Add coins", "adm_u_act", "add"),
			m.Data("➖ Take coins", "adm_u_act", "sub"),
		),
		m.Row(
			m.Data("💰 Set balance", "adm_u_act", "set"),
			m.Data("🪙 Set demo", "adm_u_act", "setd"),
		),
		m.Row(
			m.Data("🔹 Trainee", "adm_u_tier", "trainee"),
			m.Data("🔷 Strong", "adm_u_tier", "strong"),
		),
		m.Row(
			m.Data("🎬 YouTuber", "adm_u_tier", "youtuber"),
			m.Data("🎟 Promo credits", "adm_u_act", "credits"),
		),
		backRow(m, "adm_menu"),
	)
	return c.Send(fmt.Sprintf(
		"👤 %s (@%s)\n🆔 %d\n💰 %d coins | 🪙 %d demo\n🏅 %s | earned %d\n\nPick an action:",
		target.FullName, target.Username, target.UserID,
		target.RealBalance, target.DemoBalance,
		tierLabel(target.Tier), target.TotalEarned), m)
}

// HandleUserAction stores the chosen balance action and asks for the
// amount.
func (h *AdminHandler) HandleUserAction(c tele.Context, payload string) error {
	sender := c.Sender()
	_, draft := h.state.Get(sender.ID)
	ud, ok := draft.(*AdminUserDraft)
	if !ok || ud.TargetID == 0 {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Look a user up first"})
	}

	ud.Action = payload
	ud.Currency = model.CurrencyReal
	if payload == "setd" {
		ud.Action = "set"
		ud.Currency = model.CurrencyDemo
	}
	if err := c.Respond(); err != nil {
		return err
	}

	switch ud.Action {
	case "credits":
		return c.Send("How many promo credits?")
	case "set":
		return c.Send("New balance value?")
	default:
		return c.Send("Amount of coins?")
	}
}

// HandleUserTier grants a sticky tier right away, no amount needed.
func (h *AdminHandler) HandleUserTier(c tele.Context, payload string) error {
	sender := c.Sender()
	_, draft := h.state.Get(sender.ID)
	ud, ok := draft.(*AdminUserDraft)
	if !ok || ud.TargetID == 0 {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Look a user up first"})
	}
	h.state.Clear(sender.ID)

	tier := model.Tier(payload)
	if err := h.accounts.GrantTier(context.Background(), ud.TargetID, tier); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Grant failed"})
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("target_id", ud.TargetID).
		Str("tier", payload).
		Msg("tier granted")
	return c.Respond(&tele.CallbackResponse{Text: "✅ Tier granted"})
}

func (h *AdminHandler) applyUserAction(c tele.Context, ud *AdminUserDraft) error {
	sender := c.Sender()
	amount, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil || amount < 0 {
		return c.Send("⚠️ Send a non-negative number")
	}
	h.state.Clear(sender.ID)
	ctx := context.Background()

	var account *model.Account
	switch ud.Action {
	case "add":
		account, err = h.accounts.AdminAdjust(ctx, ud.TargetID, amount, ud.Currency)
	case "sub":
		account, err = h.accounts.AdminAdjust(ctx, ud.TargetID, -amount, ud.Currency)
	case "set":
		account, err = h.accounts.AdminSet(ctx, ud.TargetID, amount, ud.Currency)
	case "credits":
		err = h.accounts.GrantPromoCredits(ctx, ud.TargetID, int(amount))
		if err == nil {
			account, err = h.accounts.GetAccount(ctx, ud.TargetID)
		}
	default:
		return nil
	}
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return c.Send("❌ The balance cannot go negative")
		}
		return c.Send("❌ Operation failed")
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("target_id", ud.TargetID).
		Str("action", ud.Action).
		Int64("amount", amount).
		Str("currency", string(ud.Currency)).
		Msg("admin balance operation")
	return c.Send(fmt.Sprintf(
		"✅ Done.\n💰 %d coins | 🪙 %d demo | 🎟 %d credits",
		account.RealBalance, account.DemoBalance, account.PromoCredits))
}

// HandleStats shows the platform snapshot.
func (h *AdminHandler) HandleStats(c tele.Context) error {
	stats, err := h.stats.Snapshot(context.Background())
	if err != nil {
		return c.Edit("❌ Could not load stats", backMenu("adm_menu"))
	}
	return c.Edit(fmt.Sprintf(
		"📊 Platform stats\n\n"+
			"👥 Users: %d (%d registered)\n"+
			"📋 Active tasks: %d\n"+
			"⏳ Pending submissions: %d\n"+
			"📤 Pending withdrawals: %d\n"+
			"✅ Completed submissions: %d\n"+
			"🎟 Active promos: %d\n"+
			"💰 Coins in circulation: %d",
		stats.TotalUsers, stats.RegisteredUsers,
		stats.ActiveTasks, stats.PendingSubmissions, stats.PendingWithdrawals,
		stats.CompletedSubmissions, stats.ActivePromos, stats.TotalRealBalance),
		backMenu("adm_menu"))
}

// HandleReset asks for confirmation before zeroing the leaderboard.
func (h *AdminHandler) HandleReset(c tele.Context) error {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data("⚠️ Yes, reset", "adm_reset_yes")),
		backRow(m, "adm_menu"),
	)
	return c.Edit("🔄 Reset the earnings leaderboard?\n\nBalances stay, only total earnings go to zero.", m)
}

// HandleResetConfirm zeroes total earnings for every account.
func (h *AdminHandler) HandleResetConfirm(c tele.Context) error {
	sender := c.Sender()
	affected, err := h.accounts.ResetLeaderboard(context.Background())
	if err != nil {
		return c.Edit("❌ Reset failed", backMenu("adm_menu"))
	}
	log.Info().
		Int64("admin_id", sender.ID).
		Int64("affected", affected).
		Msg("leaderboard reset")
	return c.Edit(fmt.Sprintf("✅ Leaderboard reset, %d accounts affected.", affected), backMenu("adm_menu"))
}

// notifyUser sends a best-effort direct message, review must not fail
// on blocked bots.
func (h *AdminHandler) notifyUser(c tele.Context, userID int64, text string) {
	if _, err := c.Bot().Send(tele.ChatID(userID), text); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("user notification failed")
	}
}
