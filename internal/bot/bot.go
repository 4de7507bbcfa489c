// Package bot provides the Telegram bot initialization and update routing.
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"oxide-coins-bot/internal/config"
	"oxide-coins-bot/internal/handler"
	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/pkg/lock"
	"oxide-coins-bot/internal/repository"
	"oxide-coins-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot   *tele.Bot
	cfg   *config.Config
	state *handler.StateStore

	accounts *handler.AccountHandler
	tasks    *handler.TaskHandler
	orders   *handler.OrderHandler
	games    *handler.GameHandler
	market   *handler.MarketHandler
	withdraw *handler.WithdrawHandler
	promo    *handler.PromoHandler
	profiles *handler.ProfileHandler
	payments *handler.PaymentHandler
	admin    *handler.AdminHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config      *config.Config
	Accounts    *service.AccountService
	Tasks       *service.TaskService
	Orders      *service.OrderService
	Games       *service.GameService
	Market      *service.MarketService
	Withdrawals *service.WithdrawalService
	Promos      *service.PromoService
	Profiles    *service.ProfileService
	Stats       *repository.StatsRepository
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	state := handler.NewStateStore()
	b := &Bot{
		bot:   teleBot,
		cfg:   deps.Config,
		state: state,

		accounts: handler.NewAccountHandler(deps.Config, deps.Accounts, state),
		tasks:    handler.NewTaskHandler(deps.Config, deps.Tasks, state),
		orders:   handler.NewOrderHandler(deps.Orders, state),
		games:    handler.NewGameHandler(deps.Games, state),
		market:   handler.NewMarketHandler(deps.Accounts, deps.Market),
		withdraw: handler.NewWithdrawHandler(deps.Config, deps.Accounts, deps.Withdrawals, state),
		promo:    handler.NewPromoHandler(deps.Accounts, deps.Promos, state),
		profiles: handler.NewProfileHandler(deps.Profiles, state),
		payments: handler.NewPaymentHandler(deps.Config, deps.Accounts),
		admin: handler.NewAdminHandler(deps.Config, deps.Accounts, deps.Tasks,
			deps.Withdrawals, deps.Promos, deps.Market, deps.Stats, state),
	}

	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(SequencingMiddleware(lock.NewKeyedLock()))
	b.bot.Use(LoggingMiddleware())

	b.registerHandlers()
	return b, nil
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.accounts.HandleStart)
	b.bot.Handle("/menu", b.accounts.HandleStart)

	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/admin", b.admin.HandleMenu)

	b.bot.Handle(tele.OnText, b.handleText)
	b.bot.Handle(tele.OnPhoto, b.handlePhoto)
	b.bot.Handle(tele.OnCallback, b.handleCallback)

	b.bot.Handle(tele.OnCheckout, b.payments.HandleCheckout)
	b.bot.Handle(tele.OnPayment, b.payments.HandlePayment)
}

// handleText routes free text by the sender's conversation step.
func (b *Bot) handleText(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	step, draft := b.state.Get(sender.ID)
	switch step {
	case handler.StepRegServer, handler.StepRegNickname:
		return b.accounts.HandleRegistrationText(c, step, draft)
	case handler.StepWithdrawGameID:
		return b.withdraw.HandleGameIDText(c, draft)
	case handler.StepPromoCode:
		return b.promo.HandleCodeText(c)
	case handler.StepPromoMintValue, handler.StepPromoMintUses:
		return b.promo.HandleMintText(c, step, draft)
	case handler.StepOrderResource, handler.StepOrderAmount,
		handler.StepOrderReward, handler.StepOrderDescription:
		return b.orders.HandleFormText(c, step, draft)
	case handler.StepGameStake:
		return b.games.HandleStakeText(c, draft)
	case handler.StepTaskProof:
		return c.Send("📷 Send the proof as a photo")
	case handler.StepPlayerProfile:
		return b.profiles.HandlePlayerText(c, draft)
	case handler.StepClanProfile:
		return b.profiles.HandleClanText(c, draft)
	case handler.StepAdminTaskForm, handler.StepAdminItemForm,
		handler.StepAdminPromoForm, handler.StepAdminReject,
		handler.StepAdminUserForm:
		if !b.cfg.IsAdmin(sender.ID) {
			b.state.Clear(sender.ID)
			return nil
		}
		switch step {
		case handler.StepAdminTaskForm:
			return b.admin.HandleTaskFormText(c, draft)
		case handler.StepAdminItemForm:
			return b.admin.HandleItemFormText(c, draft)
		case handler.StepAdminPromoForm:
			return b.admin.HandlePromoFormText(c, draft)
		case handler.StepAdminReject:
			return b.admin.HandleRejectText(c, draft)
		default:
			return b.admin.HandleUserText(c, draft)
		}
	}
	return nil
}

// handlePhoto routes photos, only the task proof step expects one.
func (b *Bot) handlePhoto(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	step, draft := b.state.Get(sender.ID)
	if step == handler.StepTaskProof {
		return b.tasks.HandleProofPhoto(c, draft)
	}
	return nil
}

// handleCallback dispatches inline button presses. Data arrives as
// "\f<unique>|<payload>".
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil || c.Sender() == nil {
		return nil
	}
	unique, payload := handler.SplitCallback(callback.Data)

	if strings.HasPrefix(unique, "adm_") && !b.cfg.IsAdmin(c.Sender().ID) {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Admins only"})
	}

	switch unique {
	// Account.
	case "menu_main":
		return b.accounts.HandleMainMenu(c)
	case "captcha":
		return b.accounts.HandleCaptcha(c, payload)
	case "profile":
		return b.accounts.HandleProfile(c)
	case "daily":
		return b.accounts.HandleDaily(c)
	case "top":
		return b.accounts.HandleTop(c)
	case "history":
		return b.accounts.HandleHistory(c)

	// Tasks.
	case "menu_tasks":
		return b.tasks.HandleMenu(c)
	case "tasks_resource":
		return b.tasks.HandleList(c, model.TaskKindResource, payload)
	case "tasks_card":
		return b.tasks.HandleList(c, model.TaskKindCard, payload)
	case "tasks_mine":
		return b.tasks.HandleMine(c)
	case "task_view":
		return b.tasks.HandleView(c, payload)
	case "task_submit":
		return b.tasks.HandleSubmit(c, payload)

	// Orders.
	case "menu_orders":
		return b.orders.HandleMenu(c)
	case "orders_board":
		return b.orders.HandleBoard(c, payload)
	case "orders_mine":
		return b.orders.HandleMine(c)
	case "order_view":
		return b.orders.HandleView(c, payload)
	case "order_create":
		return b.orders.HandleCreate(c)
	case "order_take":
		return b.orders.HandleTake(c, payload)
	case "order_proof":
		return b.orders.HandleProof(c, payload)
	case "order_confirm":
		return b.orders.HandleConfirm(c, payload)
	case "order_rework":
		return b.orders.HandleRework(c, payload)
	case "order_cancel":
		return b.orders.HandleCancel(c, payload)

	// Games.
	case "menu_games":
		return b.games.HandleMenu(c)
	case "game_pick":
		return b.games.HandlePick(c, payload)
	case "game_cur":
		return b.games.HandleCurrency(c, payload)
	case "guess_pick":
		return b.games.HandleGuessPick(c, payload)
	case "wheel_target":
		return b.games.HandleWheelTarget(c, payload)
	case "mine_cell":
		return b.games.HandleMineCell(c, payload)
	case "mine_cashout":
		return b.games.HandleMineCashOut(c)

	// Market.
	case "menu_market":
		return b.market.HandleMenu(c)
	case "market_view":
		return b.market.HandleView(c, payload)
	case "market_buy":
		return b.market.HandleBuy(c, payload)

	// Withdrawals and Stars purchases.
	case "menu_withdraw":
		return b.withdraw.HandleMenu(c)
	case "withdraw_pick":
		return b.withdraw.HandlePick(c, payload)
	case "not_enough":
		return b.withdraw.HandleNotEnough(c)
	case "buy_coins":
		return b.payments.HandleMenu(c)
	case "stars_buy":
		return b.payments.HandleBuy(c, payload)

	// Promocodes.
	case "menu_promo":
		return b.promo.HandleMenu(c)
	case "promo_enter":
		return b.promo.HandleEnter(c)
	case "promo_mint":
		return b.promo.HandleMint(c)

	// Recruitment board.
	case "menu_profiles":
		return b.profiles.HandleMenu(c)
	case "profiles_players":
		return b.profiles.HandlePlayers(c)
	case "profiles_clans":
		return b.profiles.HandleClans(c)
	case "profile_new_player":
		return b.profiles.HandleNewPlayer(c)
	case "profile_new_clan":
		return b.profiles.HandleNewClan(c)

	// Admin panel, gated above.
	case "adm_menu":
		return b.admin.HandleMenu(c)
	case "adm_subs":
		return b.admin.HandleSubs(c)
	case "adm_sub_ok":
		return b.admin.HandleSubApprove(c, payload)
	case "adm_sub_no":
		return b.admin.HandleSubReject(c, payload)
	case "adm_sub_proof":
		return b.admin.HandleSubProof(c, payload)
	case "adm_wds":
		return b.admin.HandleWds(c)
	case "adm_wd_ok":
		return b.admin.HandleWdComplete(c, payload)
	case "adm_wd_no":
		return b.admin.HandleWdReject(c, payload)
	case "adm_task_new":
		return b.admin.HandleTaskNew(c)
	case "adm_task_kind":
		return b.admin.HandleTaskKind(c, payload)
	case "adm_item_new":
		return b.admin.HandleItemNew(c)
	case "adm_promo_new":
		return b.admin.HandlePromoNew(c)
	case "adm_promos":
		return b.admin.HandlePromos(c)
	case "adm_promo_off":
		return b.admin.HandlePromoOff(c, payload)
	case "adm_user":
		return b.admin.HandleUser(c)
	case "adm_u_act":
		return b.admin.HandleUserAction(c, payload)
	case "adm_u_tier":
		return b.admin.HandleUserTier(c, payload)
	case "adm_stats":
		return b.admin.HandleStats(c)
	case "adm_reset":
		return b.admin.HandleReset(c)
	case "adm_reset_yes":
		return b.admin.HandleResetConfirm(c)
	}

	log.Debug().Str("unique", unique).Msg("unhandled callback")
	return c.Respond()
}

// Start starts the bot polling, blocking until Stop.
func (b *Bot) Start() {
	log.Info().Msg("starting bot")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("stopping bot")
	b.bot.Stop()
}
