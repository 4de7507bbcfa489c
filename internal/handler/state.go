package handler

import (
	"sync"

	"oxide-coins-bot/internal/game/minefield"
	"oxide-coins-bot/internal/model"
)

// Step is the current node of a user's multi-step conversation. StepNone
// means no flow is in progress and plain text input is ignored.
type Step string

const (
	StepNone Step = ""

	// Onboarding.
	StepCaptcha     Step = "captcha"
	StepRegServer   Step = "reg_server"
	StepRegNickname Step = "reg_nickname"

	// Economy flows.
	StepWithdrawGameID Step = "withdraw_game_id"
	StepPromoCode      Step = "promo_code"
	StepPromoMintValue Step = "promo_mint_value"
	StepPromoMintUses  Step = "promo_mint_uses"

	// Order creation.
	StepOrderResource    Step = "order_resource"
	StepOrderAmount      Step = "order_amount"
	StepOrderReward      Step = "order_reward"
	StepOrderDescription Step = "order_description"

	// Task proof upload.
	StepTaskProof Step = "task_proof"

	// Game flows.
	StepGameStake Step = "game_stake"
	StepGamePick  Step = "game_pick"
	StepMinefield Step = "minefield"

	// Listing forms.
	StepPlayerProfile Step = "player_profile"
	StepClanProfile   Step = "clan_profile"

	// Admin forms.
	StepAdminTaskForm  Step = "admin_task_form"
	StepAdminItemForm  Step = "admin_item_form"
	StepAdminPromoForm Step = "admin_promo_form"
	StepAdminReject    Step = "admin_reject"
	StepAdminUserForm  Step = "admin_user_form"
)

// Draft is the flow-specific scratchpad accumulated across steps. Each
// flow owns one concrete draft type; handlers assert the one they expect
// and treat a mismatch as a stale conversation.
type Draft interface {
	isDraft()
}

// CaptchaDraft holds the emoji the user must echo back.
type CaptchaDraft struct {
	Answer string
}

// RegistrationDraft accumulates the onboarding questionnaire.
type RegistrationDraft struct {
	GameServer string
}

// OrderDraft accumulates the order creation form.
type OrderDraft struct {
	Category     string
	ResourceType string
	Amount       int64
	Reward       int64
	Description  string
}

// WithdrawDraft holds the chosen pack while the game ID is collected.
type WithdrawDraft struct {
	PackID string
	Coins  int64
}

// PromoMintDraft accumulates the self-funded promocode form.
type PromoMintDraft struct {
	Coins int64
}

// TaskSubmitDraft holds the task awaiting a photo proof.
type TaskSubmitDraft struct {
	TaskID int64
}

// GameDraft carries a game flow from stake entry to settlement. Session
// is set only for minefield play.
type GameDraft struct {
	Command  string
	Stake    int64
	Currency model.Currency
	Session  *minefield.Session
}

// ProfileDraft accumulates the player or clan listing form field by
// field; Field indexes the next question.
type ProfileDraft struct {
	Field   int
	Answers []string
}

// AdminTaskDraft accumulates the admin task creation form.
type AdminTaskDraft struct {
	Kind    model.TaskKind
	Field   int
	Answers []string
}

// AdminItemDraft accumulates the admin market item form.
type AdminItemDraft struct {
	Field   int
	Answers []string
}

// AdminPromoDraft accumulates the admin promocode form.
type AdminPromoDraft struct {
	Code  string
	Coins int64
}

// AdminRejectDraft holds the review target awaiting a rejection comment.
type AdminRejectDraft struct {
	SubmissionID int64
	WithdrawalID int64
}

// AdminUserDraft holds the admin balance-management target.
type AdminUserDraft struct {
	TargetID int64
	Action   string
	Currency model.Currency
}

func (CaptchaDraft) isDraft()      {}
func (RegistrationDraft) isDraft() {}
func (OrderDraft) isDraft()        {}
func (WithdrawDraft) isDraft()     {}
func (PromoMintDraft) isDraft()    {}
func (TaskSubmitDraft) isDraft()   {}
func (GameDraft) isDraft()         {}
func (ProfileDraft) isDraft()      {}
func (AdminTaskDraft) isDraft()    {}
func (AdminItemDraft) isDraft()    {}
func (AdminPromoDraft) isDraft()   {}
func (AdminRejectDraft) isDraft()  {}
func (AdminUserDraft) isDraft()    {}

type userState struct {
	step  Step
	draft Draft
}

// StateStore is the in-memory conversation state, one entry per user.
// Sessions are ephemeral: a restart drops every in-progress form.
type StateStore struct {
	mu     sync.RWMutex
	states map[int64]*userState
}

// NewStateStore creates an empty StateStore.
func NewStateStore() *StateStore {
	return &StateStore{states: make(map[int64]*userState)}
}

// Get returns the user's current step and draft, or StepNone and nil when
// no flow is in progress.
func (s *StateStore) Get(userID int64) (Step, Draft) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.states[userID]; ok {
		return st.step, st.draft
	}
	return StepNone, nil
}

// Take returns the user's current step and draft and ends the flow, all
// under one lock. Of two racing callers exactly one receives the draft;
// settlement handlers use this so a double-pressed button cannot settle
// twice.
func (s *StateStore) Take(userID int64) (Step, Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[userID]; ok {
		delete(s.states, userID)
		return st.step, st.draft
	}
	return StepNone, nil
}

// Set replaces the user's step and draft.
func (s *StateStore) Set(userID int64, step Step, draft Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = &userState{step: step, draft: draft}
}

// Advance moves to the next step keeping the current draft.
func (s *StateStore) Advance(userID int64, step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[userID]; ok {
		st.step = step
		return
	}
	s.states[userID] = &userState{step: step}
}

// Clear ends the user's flow.
func (s *StateStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}
