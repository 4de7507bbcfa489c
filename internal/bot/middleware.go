package bot

import (
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"oxide-coins-bot/internal/config"
	"oxide-coins-bot/internal/pkg/lock"
)

// SequencingMiddleware runs one handler at a time per sender. Telebot
// dispatches every update in its own goroutine; without this, two quick
// presses from the same user race on conversation state.
func SequencingMiddleware(seq *lock.KeyedLock) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return next(c)
			}
			seq.Lock(sender.ID)
			defer seq.Unlock(sender.ID)
			return next(c)
		}
	}
}

// LoggingMiddleware logs every incoming update.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			chat := c.Chat()

			logEvent := log.Debug()
			if sender != nil {
				logEvent = logEvent.
					Int64("user_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat != nil {
				logEvent = logEvent.
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type))
			}
			if cb := c.Callback(); cb != nil {
				logEvent = logEvent.Str("callback", cb.Data)
			}
			logEvent.
				Str("text", c.Text()).
				Msg("update received")

			return next(c)
		}
	}
}

// AdminMiddleware drops updates from non-admin users.
func AdminMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}
			if !cfg.IsAdmin(sender.ID) {
				log.Warn().
					Int64("user_id", sender.ID).
					Msg("non-admin attempted admin action")
				if c.Callback() != nil {
					return c.Respond(&tele.CallbackResponse{Text: "❌ Admins only"})
				}
				return c.Reply("❌ Admins only")
			}
			return next(c)
		}
	}
}

// RecoveryMiddleware recovers from handler panics so a single bad
// update cannot take the poller down.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Msg("recovered from panic in handler")
					_ = c.Reply("❌ Internal error, try again later")
				}
			}()
			return next(c)
		}
	}
}
