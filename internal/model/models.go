// Package model defines the data models for the coins economy bot.
package model

import "time"

// Tier is a user's privilege level. Newbie, trainee and strong are derived
// from account age; youtuber and admin are sticky grants.
type Tier string

const (
	TierNewbie   Tier = "newbie"
	TierTrainee  Tier = "trainee"
	TierStrong   Tier = "strong"
	TierYoutuber Tier = "youtuber"
	TierAdmin    Tier = "admin"
)

// Special reports whether the tier is a sticky grant that age-based
// recomputation must not overwrite.
func (t Tier) Special() bool {
	return t == TierYoutuber || t == TierAdmin
}

// Currency selects which of the two balances an operation touches.
type Currency string

const (
	CurrencyReal Currency = "real"
	CurrencyDemo Currency = "demo"
)

// Account represents a user account in the economy.
type Account struct {
	UserID         int64      `db:"user_id"`
	Username       string     `db:"username"`
	FullName       string     `db:"full_name"`
	RealBalance    int64      `db:"real_balance"`
	DemoBalance    int64      `db:"demo_balance"`
	TotalEarned    int64      `db:"total_earned"`
	TasksCompleted int        `db:"tasks_completed"`
	Tier           Tier       `db:"tier"`
	PromoCredits   int        `db:"promo_credits"`
	GameServer     string     `db:"game_server"`
	GameNickname   string     `db:"game_nickname"`
	Registered     bool       `db:"registered"`
	RegisteredAt   time.Time  `db:"registered_at"`
	LastDailyBonus *time.Time `db:"last_daily_bonus"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// Balance returns the balance for the given currency.
func (a *Account) Balance(c Currency) int64 {
	if c == CurrencyDemo {
		return a.DemoBalance
	}
	return a.RealBalance
}

// Transaction is an append-only ledger record. Every balance mutation
// writes exactly one row; balances are running totals, the log is audit.
type Transaction struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Amount    int64     `db:"amount"`
	Currency  Currency  `db:"currency"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

// TaskKind distinguishes the two admin-authored task flavors.
type TaskKind string

const (
	TaskKindResource TaskKind = "resource"
	TaskKindCard     TaskKind = "card"
)

// TaskStatus is the lifecycle state of an admin-authored task.
type TaskStatus string

const (
	TaskActive    TaskStatus = "active"
	TaskCompleted TaskStatus = "completed"
	TaskDeleted   TaskStatus = "deleted"
)

// Task is an admin-authored job. Resource tasks describe an in-game
// resource haul; card tasks carry a referral link.
type Task struct {
	ID       int64      `db:"id"`
	AuthorID int64      `db:"author_id"`
	Kind     TaskKind   `db:"kind"`
	Reward   int64      `db:"reward"`
	Status   TaskStatus `db:"status"`

	// Resource task payload.
	ServerName       string `db:"server_name"`
	ClanName         string `db:"clan_name"`
	ResourceCategory string `db:"resource_category"`
	ResourceType     string `db:"resource_type"`
	ResourceAmount   int64  `db:"resource_amount"`

	// Card task payload.
	CardName     string `db:"card_name"`
	ReferralLink string `db:"referral_link"`

	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// SubmissionStatus is the review state of a task submission.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionCompleted SubmissionStatus = "completed"
	SubmissionRejected  SubmissionStatus = "rejected"
)

// Submission is a user's claim of task completion with photo proof.
// At most one pending or completed submission may exist per
// (user, task, kind); the store enforces this with a partial unique
// index rather than a query-then-insert check.
type Submission struct {
	ID           int64            `db:"id"`
	UserID       int64            `db:"user_id"`
	TaskID       int64            `db:"task_id"`
	Kind         TaskKind         `db:"kind"`
	ProofFileID  string           `db:"proof_file_id"`
	Status       SubmissionStatus `db:"status"`
	AdminComment *string          `db:"admin_comment"`
	SubmittedAt  time.Time        `db:"submitted_at"`
	ReviewedAt   *time.Time       `db:"reviewed_at"`
	ReviewedBy   *int64           `db:"reviewed_by"`
}

// OrderStatus is the lifecycle state of a peer-to-peer order.
type OrderStatus string

const (
	OrderOpen           OrderStatus = "open"
	OrderInProgress     OrderStatus = "in_progress"
	OrderPendingConfirm OrderStatus = "pending_confirm"
	OrderCompleted      OrderStatus = "completed"
	OrderCancelled      OrderStatus = "cancelled"
)

// Order is a two-party job. The creator escrows TotalReward at creation,
// the executor is paid ExecutorReward on confirmation, and the difference
// is the platform commission, retained on completion and never charged on
// cancellation.
type Order struct {
	ID               int64       `db:"id"`
	CreatorID        int64       `db:"creator_id"`
	ExecutorID       *int64      `db:"executor_id"`
	ResourceCategory string      `db:"resource_category"`
	ResourceType     string      `db:"resource_type"`
	ResourceAmount   int64       `db:"resource_amount"`
	TotalReward      int64       `db:"total_reward"`
	ExecutorReward   int64       `db:"executor_reward"`
	Description      string      `db:"description"`
	Status           OrderStatus `db:"status"`
	CreatedAt        time.Time   `db:"created_at"`
	TakenAt          *time.Time  `db:"taken_at"`
	CompletedAt      *time.Time  `db:"completed_at"`
}

// WithdrawalStatus is the review state of a cash-out request.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalRejected  WithdrawalStatus = "rejected"
)

// Withdrawal is a cash-out request. Coins are escrowed at creation;
// completion has no further balance effect, rejection refunds in full.
type Withdrawal struct {
	ID           int64            `db:"id"`
	UserID       int64            `db:"user_id"`
	PackID       string           `db:"pack_id"`
	Coins        int64            `db:"coins"`
	GameID       string           `db:"game_id"`
	Status       WithdrawalStatus `db:"status"`
	AdminComment *string          `db:"admin_comment"`
	CreatedAt    time.Time        `db:"created_at"`
	ReviewedAt   *time.Time       `db:"reviewed_at"`
	ReviewedBy   *int64           `db:"reviewed_by"`
}

// Promocode is a redeemable coin grant with a usage cap. Codes are stored
// upper-cased.
type Promocode struct {
	ID          int64     `db:"id"`
	Code        string    `db:"code"`
	Coins       int64     `db:"coins"`
	MaxUses     int       `db:"max_uses"`
	CurrentUses int       `db:"current_uses"`
	CreatedBy   int64     `db:"created_by"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}

// RewardKind tags the market item reward variant.
type RewardKind string

const (
	RewardCoins        RewardKind = "coins"
	RewardPrivilege    RewardKind = "privilege"
	RewardPromoCredits RewardKind = "promo_credits"
)

// Reward is the tagged payout of a market item, parsed once at item
// creation time. Exactly one of the value fields is meaningful for a
// given Kind.
type Reward struct {
	Kind    RewardKind `db:"reward_kind"`
	Coins   int64      `db:"reward_coins"`
	Tier    Tier       `db:"reward_tier"`
	Credits int        `db:"reward_credits"`
}

// MarketItem is a one-time-per-user purchasable.
type MarketItem struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Price       int64  `db:"price"`
	Description string `db:"description"`
	Reward      Reward
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}

// PlayerProfile is a time-bounded recruitment listing. Expired rows are
// filtered at read time, never swept.
type PlayerProfile struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Age         int       `db:"age"`
	HoursPlayed string    `db:"hours_played"`
	RealName    string    `db:"real_name"`
	Nickname    string    `db:"nickname"`
	Server      string    `db:"server"`
	PrevClans   string    `db:"prev_clans"`
	ExpiresAt   time.Time `db:"expires_at"`
	CreatedAt   time.Time `db:"created_at"`
}

// ClanProfile is a time-bounded clan recruitment listing.
type ClanProfile struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	ClanName      string    `db:"clan_name"`
	ClanTag       string    `db:"clan_tag"`
	FoundedDate   string    `db:"founded_date"`
	Server        string    `db:"server"`
	HoursRequired int       `db:"hours_required"`
	ExpiresAt     time.Time `db:"expires_at"`
	CreatedAt     time.Time `db:"created_at"`
}

// Stats is the admin dashboard snapshot.
type Stats struct {
	TotalUsers           int
	RegisteredUsers      int
	ActiveTasks          int
	PendingSubmissions   int
	PendingWithdrawals   int
	CompletedSubmissions int
	ActivePromos         int
	TotalRealBalance     int64
}

// Ledger reasons for categorizing balance changes.
const (
	ReasonDailyBonus     = "daily_bonus"     // Daily bonus claim
	ReasonTaskReward     = "task_reward"     // Approved task submission payout
	ReasonOrderEscrow    = "order_escrow"    // Order creation hold
	ReasonOrderRefund    = "order_refund"    // Order cancellation refund
	ReasonOrderPayout    = "order_payout"    // Executor payout on confirmation
	ReasonWithdrawHold   = "withdraw_hold"   // Withdrawal request hold
	ReasonWithdrawRefund = "withdraw_refund" // Withdrawal rejection refund
	ReasonPromoRedeem    = "promo_redeem"    // Promocode redemption grant
	ReasonPromoMint      = "promo_mint"      // Self-funded promocode minting cost
	ReasonMarketPurchase = "market_purchase" // Market item price debit
	ReasonMarketReward   = "market_reward"   // Market item coin reward
	ReasonGameStake      = "game_stake"      // Mini-game stake debit
	ReasonGameWin        = "game_win"        // Mini-game payout
	ReasonGameRefund     = "game_refund"     // Stake returned after a voided play
	ReasonStarsPurchase  = "stars_purchase"  // Coins bought with Telegram Stars
	ReasonAdminAdjust    = "admin_adjust"    // Admin balance adjustment
	ReasonAdminSet       = "admin_set"       // Admin set balance
)
