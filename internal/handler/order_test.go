package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"oxide-coins-bot/internal/model"
)

func TestOrderTransitionNotes(t *testing.T) {
	executor := int64(42)
	order := &model.Order{ID: 7, ExecutorID: &executor, ExecutorReward: 50}

	assert.Contains(t, confirmNote(order), "#7")
	assert.Contains(t, confirmNote(order), "50 coins")
	assert.Contains(t, reworkNote(order), "#7")
	assert.Contains(t, reworkNote(order), "sent back")
}

func TestNotifyExecutorSkipsUnassignedOrders(t *testing.T) {
	h := &OrderHandler{}

	// An open order has no executor to tell; the nil context must never
	// be touched.
	assert.NotPanics(t, func() {
		h.notifyExecutor(nil, &model.Order{ID: 1}, "hi")
		h.notifyExecutor(nil, nil, "hi")
	})
}
