package handler

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateStoreLifecycle(t *testing.T) {
	store := NewStateStore()

	step, draft := store.Get(1)
	assert.Equal(t, StepNone, step)
	assert.Nil(t, draft)

	store.Set(1, StepOrderAmount, &OrderDraft{Category: "ore", ResourceType: "stone"})

	step, draft = store.Get(1)
	assert.Equal(t, StepOrderAmount, step)
	od, ok := draft.(*OrderDraft)
	assert.True(t, ok)
	assert.Equal(t, "stone", od.ResourceType)

	// Advancing keeps the draft.
	store.Advance(1, StepOrderReward)
	step, draft = store.Get(1)
	assert.Equal(t, StepOrderReward, step)
	assert.Same(t, od, draft)

	store.Clear(1)
	step, draft = store.Get(1)
	assert.Equal(t, StepNone, step)
	assert.Nil(t, draft)
}

func TestStateStoreIsolatesUsers(t *testing.T) {
	store := NewStateStore()
	store.Set(1, StepCaptcha, &CaptchaDraft{Answer: "🎯"})
	store.Set(2, StepPromoCode, nil)

	step, draft := store.Get(1)
	assert.Equal(t, StepCaptcha, step)
	assert.Equal(t, &CaptchaDraft{Answer: "🎯"}, draft)

	step, _ = store.Get(2)
	assert.Equal(t, StepPromoCode, step)
}

func TestStateStoreTakeHandsDraftToOneCaller(t *testing.T) {
	store := NewStateStore()
	store.Set(1, StepMinefield, &GameDraft{Command: "minefield", Stake: 100})

	// Racing takers model a double-pressed settlement button; only one
	// may walk away with the draft.
	const takers = 8
	drafts := make(chan Draft, takers)
	var wg sync.WaitGroup
	for i := 0; i < takers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if step, draft := store.Take(1); step == StepMinefield {
				drafts <- draft
			}
		}()
	}
	wg.Wait()
	close(drafts)

	var got []Draft
	for d := range drafts {
		got = append(got, d)
	}
	assert.Len(t, got, 1)

	step, draft := store.Get(1)
	assert.Equal(t, StepNone, step)
	assert.Nil(t, draft)
}

func TestStateStoreConcurrentAccess(t *testing.T) {
	store := NewStateStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			store.Set(id, StepGameStake, &GameDraft{Command: "guess"})
			store.Advance(id, StepGamePick)
			store.Get(id)
			store.Clear(id)
		}(int64(i))
	}
	wg.Wait()

	for i := int64(0); i < 50; i++ {
		step, _ := store.Get(i)
		assert.Equal(t, StepNone, step)
	}
}
