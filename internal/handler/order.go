package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/repository"
	"oxide-coins-bot/internal/service"
)

const ordersPerPage = 6

// OrderHandler handles the peer-to-peer order board.
type OrderHandler struct {
	orders *service.OrderService
	state  *StateStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders *service.OrderService, state *StateStore) *OrderHandler {
	return &OrderHandler{orders: orders, state: state}
}

// HandleMenu shows the order board entry menu.
func (h *OrderHandler) HandleMenu(c tele.Context) error {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data("🔎 Open orders", "orders_board", "0")),
		m.Row(m.Data("➕ Create order", "order_create")),
		m.Row(m.Data("🗂 My orders", "orders_mine")),
		backRow(m, "menu_main"),
	)
	return c.Edit("📦 Orders\n\nPay other players to haul resources for you. "+
		"The full cost is held up front and the executor is paid when you confirm.", m)
}

// HandleBoard shows one page of open orders.
func (h *OrderHandler) HandleBoard(c tele.Context, payload string) error {
	page, _ := strconv.Atoi(payload)
	if page < 0 {
		page = 0
	}

	all, err := h.orders.ListOpen(context.Background(), 100)
	if err != nil {
		return c.Edit("❌ Could not load orders")
	}

	start := min(page*ordersPerPage, len(all))
	end := min(start+ordersPerPage, len(all))
	pageOrders := all[start:end]

	if len(pageOrders) == 0 {
		return c.Edit("📦 No open orders right now.", backMenu("menu_orders"))
	}

	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, o := range pageOrders {
		label := fmt.Sprintf("📦 %s x%d | 💰%d", o.ResourceType, o.ResourceAmount, o.ExecutorReward)
		rows = append(rows, m.Row(m.Data(label, "order_view", fmt.Sprint(o.ID))))
	}
	if nav := pager(m, "orders_board", page, len(pageOrders), ordersPerPage); len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, backRow(m, "menu_orders"))
	m.Inline(rows...)

	return c.Edit(fmt.Sprintf("🔎 Open orders (page %d)", page+1), m)
}

// HandleMine lists the caller's created and taken orders.
func (h *OrderHandler) HandleMine(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := context.Background()

	created, err := h.orders.ListByCreator(ctx, sender.ID, 10)
	if err != nil {
		return c.Edit("❌ Could not load your orders")
	}
	taken, err := h.orders.ListByExecutor(ctx, sender.ID, 10)
	if err != nil {
		return c.Edit("❌ Could not load your orders")
	}

	if len(created) == 0 && len(taken) == 0 {
		return c.Edit("🗂 You have no orders yet.", backMenu("menu_orders"))
	}

	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	var b strings.Builder
	b.WriteString("🗂 My orders\n")
	if len(created) > 0 {
		b.WriteString("\nCreated:\n")
		for _, o := range created {
			fmt.Fprintf(&b, "  #%d %s x%d | %s\n", o.ID, o.ResourceType, o.ResourceAmount, o.Status)
			rows = append(rows, m.Row(m.Data(fmt.Sprintf("#%d (%s)", o.ID, o.Status), "order_view", fmt.Sprint(o.ID))))
		}
	}
	if len(taken) > 0 {
		b.WriteString("\nTaken:\n")
		for _, o := range taken {
			fmt.Fprintf(&b, "  #%d %s x%d | %s\n", o.ID, o.ResourceType, o.ResourceAmount, o.Status)
			rows = append(rows, m.Row(m.Data(fmt.Sprintf("#%d (%s)", o.ID, o.Status), "order_view", fmt.Sprint(o.ID))))
		}
	}
	rows = append(rows, backRow(m, "menu_orders"))
	m.Inline(rows...)

	return c.Edit(b.String(), m)
}

// HandleView shows one order with the actions available to the caller.
func (h *OrderHandler) HandleView(c tele.Context, payload string) error {
	sender := c.Sender()
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil || sender == nil {
		return nil
	}

	order, err := h.orders.Get(context.Background(), id)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Order not found", ShowAlert: true})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📦 Order #%d\n━━━━━━━━━━━━━━━\n", order.ID)
	fmt.Fprintf(&b, "📦 %s / %s x%d\n", order.ResourceCategory, order.ResourceType, order.ResourceAmount)
	fmt.Fprintf(&b, "💰 Executor reward: %d coins\n", order.ExecutorReward)
	fmt.Fprintf(&b, "📊 Status: %s\n", order.Status)
	if order.Description != "" {
		fmt.Fprintf(&b, "📝 %s\n", order.Description)
	}

	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	isCreator := order.CreatorID == sender.ID
	isExecutor := order.ExecutorID != nil && *order.ExecutorID == sender.ID

	switch order.Status {
	case model.OrderOpen:
		if !isCreator {
			rows = append(rows, m.Row(m.Data("🤝 Take order", "order_take", payload)))
		} else {
			rows = append(rows, m.Row(m.Data("🚫 Cancel (refund)", "order_cancel", payload)))
		}
	case model.OrderInProgress:
		if isExecutor {
			rows = append(rows, m.Row(m.Data("📬 Mark as done", "order_proof", payload)))
		}
		if isCreator {
			rows = append(rows, m.Row(m.Data("🚫 Cancel (refund)", "order_cancel", payload)))
		}
	case model.OrderPendingConfirm:
		if isCreator {
			rows = append(rows,
				m.Row(m.Data("✅ Confirm and pay", "order_confirm", payload)),
				m.Row(m.Data("↩️ Send back to work", "order_rework", payload)),
			)
		}
	}
	rows = append(rows, backRow(m, "menu_orders"))
	m.Inline(rows...)

	return c.Edit(b.String(), m)
}

// HandleTake assigns an open order to the caller.
func (h *OrderHandler) HandleTake(c tele.Context, payload string) error {
	return h.transition(c, payload, func(ctx context.Context, id, userID int64) (*model.Order, error) {
		return h.orders.Take(ctx, id, userID)
	}, "🤝 Order taken! Mark it done once the resources are delivered.", nil)
}

// HandleProof moves the caller's taken order to pending confirmation.
func (h *OrderHandler) HandleProof(c tele.Context, payload string) error {
	return h.transition(c, payload, func(ctx context.Context, id, userID int64) (*model.Order, error) {
		return h.orders.SubmitProof(ctx, id, userID)
	}, "📬 Done! Waiting for the creator to confirm.", nil)
}

// HandleConfirm completes an order, pays the executor and tells them.
func (h *OrderHandler) HandleConfirm(c tele.Context, payload string) error {
	return h.transition(c, payload, func(ctx context.Context, id, userID int64) (*model.Order, error) {
		return h.orders.Confirm(ctx, id, userID)
	}, "✅ Confirmed, the executor has been paid.", confirmNote)
}

// HandleRework sends a pending-confirm order back to the executor.
func (h *OrderHandler) HandleRework(c tele.Context, payload string) error {
	return h.transition(c, payload, func(ctx context.Context, id, userID int64) (*model.Order, error) {
		return h.orders.RejectProof(ctx, id, userID)
	}, "↩️ Sent back to the executor.", reworkNote)
}

// HandleCancel cancels an order and refunds the escrow.
func (h *OrderHandler) HandleCancel(c tele.Context, payload string) error {
	return h.transition(c, payload, func(ctx context.Context, id, userID int64) (*model.Order, error) {
		return h.orders.Cancel(ctx, id, userID)
	}, "🚫 Cancelled, the escrow went back to your balance.", nil)
}

// confirmNote is what the executor reads when their work is accepted.
func confirmNote(order *model.Order) string {
	return fmt.Sprintf("✅ Order #%d confirmed! 💰 %d coins are on your balance.",
		order.ID, order.ExecutorReward)
}

// reworkNote is what the executor reads when their work is sent back.
func reworkNote(order *model.Order) string {
	return fmt.Sprintf("↩️ Order #%d was sent back, the creator wants more work done.", order.ID)
}

func (h *OrderHandler) transition(c tele.Context, payload string, fn func(context.Context, int64, int64) (*model.Order, error), success string, note func(*model.Order) string) error {
	sender := c.Sender()
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil || sender == nil {
		return nil
	}

	order, err := fn(context.Background(), id, sender.ID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: orderErrText(err), ShowAlert: true})
	}
	if note != nil {
		h.notifyExecutor(c, order, note(order))
	}
	if err := c.Respond(&tele.CallbackResponse{Text: success}); err != nil {
		return err
	}
	return h.HandleView(c, payload)
}

// notifyExecutor tells the executor about a review outcome. Best effort,
// the settlement has already committed.
func (h *OrderHandler) notifyExecutor(c tele.Context, order *model.Order, text string) {
	if order == nil || order.ExecutorID == nil {
		return
	}
	if _, err := c.Bot().Send(tele.ChatID(*order.ExecutorID), text); err != nil {
		log.Warn().Err(err).Int64("user_id", *order.ExecutorID).Msg("executor notification failed")
	}
}

func orderErrText(err error) string {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		return "❌ Order not found"
	case errors.Is(err, repository.ErrOrderNotOpen):
		return "❌ The order is no longer open"
	case errors.Is(err, repository.ErrOrderSelfTake):
		return "❌ You cannot take your own order"
	case errors.Is(err, repository.ErrOrderNotCreator):
		return "❌ Only the creator can do that"
	case errors.Is(err, repository.ErrOrderNotExecutor):
		return "❌ Only the executor can do that"
	case errors.Is(err, repository.ErrOrderBadState):
		return "❌ The order has moved on, refresh it"
	case errors.Is(err, repository.ErrInsufficientFunds):
		return "❌ Not enough coins"
	}
	return "❌ Something went wrong, try again later"
}

// HandleCreate starts the order creation form.
func (h *OrderHandler) HandleCreate(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	h.state.Set(sender.ID, StepOrderResource, &OrderDraft{})
	return c.Edit("➕ New order\n\nWhat do you need? Send it as `category, resource`, "+
		"for example: `ore, stone`.", backMenu("menu_orders"))
}

// HandleFormText consumes the order creation form answers.
func (h *OrderHandler) HandleFormText(c tele.Context, step Step, draft Draft) error {
	sender := c.Sender()
	od, ok := draft.(*OrderDraft)
	if !ok {
		h.state.Clear(sender.ID)
		return nil
	}

	text := strings.TrimSpace(c.Text())

	switch step {
	case StepOrderResource:
		category, resource := "resources", text
		if i := strings.IndexByte(text, ','); i >= 0 {
			category = strings.TrimSpace(text[:i])
			resource = strings.TrimSpace(text[i+1:])
		}
		if resource == "" {
			return c.Send("⚠️ Name the resource, e.g. `ore, stone`")
		}
		od.Category, od.ResourceType = category, resource
		h.state.Advance(sender.ID, StepOrderAmount)
		return c.Send("🔢 How much of it?")

	case StepOrderAmount:
		amount, err := strconv.ParseInt(text, 10, 64)
		if err != nil || amount <= 0 {
			return c.Send("⚠️ Send a positive number")
		}
		od.Amount = amount
		h.state.Advance(sender.ID, StepOrderReward)
		return c.Send("💰 Executor reward in coins?")

	case StepOrderReward:
		reward, err := strconv.ParseInt(text, 10, 64)
		if err != nil || reward <= 0 {
			return c.Send("⚠️ Send a positive number")
		}
		total, err := h.orders.Quote(reward)
		if err != nil {
			return c.Send("⚠️ Send a positive number")
		}
		od.Reward = reward
		h.state.Advance(sender.ID, StepOrderDescription)
		return c.Send(fmt.Sprintf(
			"📝 Total to hold: %d coins (reward %d + commission).\n\n"+
				"Add a note for the executor, or send `-` to skip.", total, reward))

	case StepOrderDescription:
		if text != "-" {
			od.Description = text
		}
		h.state.Clear(sender.ID)

		order, err := h.orders.Create(context.Background(), sender.ID,
			od.Category, od.ResourceType, od.Amount, od.Reward, od.Description)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return c.Send("❌ Not enough coins to cover the escrow.")
			}
			return c.Send("❌ Could not create the order, try again later")
		}
		return c.Send(fmt.Sprintf(
			"✅ Order #%d created!\n\n💰 Held: %d coins\n"+
				"You get a full refund if you cancel before confirmation.",
			order.ID, order.TotalReward))
	}
	return nil
}
