package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"oxide-coins-bot/internal/config"
	"oxide-coins-bot/internal/service"
)

// starsAmounts are the purchasable Star bundles.
var starsAmounts = []int{50, 100, 250, 500}

// PaymentHandler sells coins for Telegram Stars. Stars invoices carry
// the XTR currency and no provider token.
type PaymentHandler struct {
	cfg      *config.Config
	accounts *service.AccountService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(cfg *config.Config, accounts *service.AccountService) *PaymentHandler {
	return &PaymentHandler{cfg: cfg, accounts: accounts}
}

// HandleMenu shows the Star bundles.
func (h *PaymentHandler) HandleMenu(c tele.Context) error {
	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, stars := range starsAmounts {
		coins := int64(stars) * h.cfg.Economy.StarsRate
		label := fmt.Sprintf("⭐ %d → 💰 %d", stars, coins)
		rows = append(rows, m.Row(m.Data(label, "stars_buy", strconv.Itoa(stars))))
	}
	rows = append(rows, backRow(m, "menu_main"))
	m.Inline(rows...)

	return c.Edit(fmt.Sprintf(
		"⭐ Buy coins\n\nPay with Telegram Stars, %d coins per Star. Coins land on your balance the moment the payment clears.",
		h.cfg.Economy.StarsRate), m)
}

// HandleBuy sends a Stars invoice for the chosen bundle.
func (h *PaymentHandler) HandleBuy(c tele.Context, payload string) error {
	stars, err := strconv.Atoi(payload)
	if err != nil || !validStarsAmount(stars) {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown bundle"})
	}
	coins := int64(stars) * h.cfg.Economy.StarsRate

	invoice := &tele.Invoice{
		Title:       fmt.Sprintf("%d coins", coins),
		Description: fmt.Sprintf("%d coins for your Oxide Coins balance", coins),
		Payload:     fmt.Sprintf("coins:%d:%s", coins, uuid.NewString()),
		Currency:    "XTR",
		Prices: []tele.Price{
			{Label: fmt.Sprintf("%d coins", coins), Amount: stars},
		},
	}
	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send(invoice)
}

// HandleCheckout approves the pre-checkout query. Stars invoices never
// ship goods, so there is nothing to verify beyond the payload shape.
func (h *PaymentHandler) HandleCheckout(c tele.Context) error {
	q := c.PreCheckoutQuery()
	if q == nil {
		return nil
	}
	if _, ok := parsePaymentPayload(q.Payload); !ok {
		return c.Accept("This invoice has expired, open the shop again")
	}
	return c.Accept()
}

// HandlePayment credits the account after a successful payment.
func (h *PaymentHandler) HandlePayment(c tele.Context) error {
	sender := c.Sender()
	msg := c.Message()
	if sender == nil || msg == nil || msg.Payment == nil {
		return nil
	}

	coins, ok := parsePaymentPayload(msg.Payment.Payload)
	if !ok {
		log.Error().
			Int64("user_id", sender.ID).
			Str("payload", msg.Payment.Payload).
			Msg("payment with unparseable payload")
		return nil
	}

	account, err := h.accounts.CreditStarsPurchase(context.Background(), sender.ID, coins)
	if err != nil {
		log.Error().Err(err).
			Int64("user_id", sender.ID).
			Int64("coins", coins).
			Str("charge_id", msg.Payment.TelegramChargeID).
			Msg("failed to credit stars purchase")
		return c.Send("❌ Payment received but crediting failed, contact support")
	}

	log.Info().
		Int64("user_id", sender.ID).
		Int64("coins", coins).
		Int("stars", msg.Payment.Total).
		Str("charge_id", msg.Payment.TelegramChargeID).
		Msg("stars purchase credited")

	return c.Send(fmt.Sprintf("✅ Payment received! %d coins added.\n💰 Balance: %d", coins, account.RealBalance))
}

func validStarsAmount(stars int) bool {
	for _, a := range starsAmounts {
		if a == stars {
			return true
		}
	}
	return false
}

// parsePaymentPayload extracts the coin amount from a "coins:<n>:<uuid>"
// invoice payload.
func parsePaymentPayload(payload string) (int64, bool) {
	parts := strings.Split(payload, ":")
	if len(parts) != 3 || parts[0] != "coins" {
		return 0, false
	}
	coins, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || coins <= 0 {
		return 0, false
	}
	return coins, true
}
