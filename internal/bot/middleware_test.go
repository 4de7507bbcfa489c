package bot

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v3"
	"pgregory.net/rapid"

	"oxide-coins-bot/internal/config"
	"oxide-coins-bot/internal/pkg/lock"
)

// senderCtx overrides only Sender; the middleware under test touches
// nothing else on the context.
type senderCtx struct {
	tele.Context
	sender *tele.User
}

func (c senderCtx) Sender() *tele.User { return c.sender }

func TestSequencingMiddlewareSerializesPerSender(t *testing.T) {
	mw := SequencingMiddleware(lock.NewKeyedLock())

	var inside int32
	wrapped := mw(func(c tele.Context) error {
		if !atomic.CompareAndSwapInt32(&inside, 0, 1) {
			t.Error("two handlers ran at once for one sender")
		}
		time.Sleep(time.Millisecond)
		atomic.StoreInt32(&inside, 0)
		return nil
	})

	ctx := senderCtx{sender: &tele.User{ID: 7}}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, wrapped(ctx))
		}()
	}
	wg.Wait()
}

// The admin gate must admit exactly the configured IDs, nothing else.
func TestIsAdminProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numAdmins := rapid.IntRange(1, 10).Draw(t, "numAdmins")
		adminIDs := make([]int64, numAdmins)
		for i := range adminIDs {
			adminIDs[i] = rapid.Int64Range(1, 1_000_000_000).Draw(t, "adminID")
		}

		cfg := &config.Config{
			Admin: config.AdminConfig{IDs: adminIDs},
		}

		userID := rapid.Int64Range(1, 1_000_000_000).Draw(t, "userID")

		expected := false
		for _, id := range adminIDs {
			if id == userID {
				expected = true
				break
			}
		}
		if cfg.IsAdmin(userID) != expected {
			t.Fatalf("IsAdmin mismatch: userID=%d adminIDs=%v expected=%v",
				userID, adminIDs, expected)
		}
	})
}

func TestIsAdminKnownAdmin(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		adminID := rapid.Int64Range(1, 1_000_000_000).Draw(t, "adminID")
		cfg := &config.Config{
			Admin: config.AdminConfig{IDs: []int64{adminID}},
		}
		if !cfg.IsAdmin(adminID) {
			t.Fatalf("configured admin %d not recognized", adminID)
		}
	})
}

func TestIsAdminEmptyList(t *testing.T) {
	cfg := &config.Config{}
	assert.False(t, cfg.IsAdmin(1))
	assert.False(t, cfg.IsAdmin(123456789))
}
