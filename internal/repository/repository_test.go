// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/pkg/db"
)

// checkDockerAvailable checks if Docker is available and running.
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	return cmd.Run() == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection
// pool with the schema applied. Skips the test if Docker is not
// available.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, db.Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return pool, cleanup
}

// ============================================================================
// AccountRepository
// ============================================================================

func TestAccountRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	account, err := repo.Create(ctx, 12345, "testuser", "Test User", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), account.UserID)
	assert.Equal(t, int64(0), account.RealBalance)
	assert.Equal(t, int64(1000), account.DemoBalance)
	assert.Equal(t, model.TierNewbie, account.Tier)
	assert.False(t, account.Registered)

	got, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, account.UserID, got.UserID)

	_, err = repo.GetByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountRepository_GetOrCreate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	_, created, err := repo.GetOrCreate(ctx, 12345, "testuser", "Test User", 1000)
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = repo.GetOrCreate(ctx, 12345, "testuser", "Test User", 1000)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestAccountRepository_AdjustBalance(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 1, "u", "U", 1000)
	require.NoError(t, err)

	// Credit accrues total_earned.
	account, err := repo.AdjustBalance(ctx, 1, 500, model.CurrencyReal, model.ReasonTaskReward)
	require.NoError(t, err)
	assert.Equal(t, int64(500), account.RealBalance)
	assert.Equal(t, int64(500), account.TotalEarned)

	// Debit within balance.
	account, err = repo.AdjustBalance(ctx, 1, -300, model.CurrencyReal, model.ReasonGameStake)
	require.NoError(t, err)
	assert.Equal(t, int64(200), account.RealBalance)
	assert.Equal(t, int64(500), account.TotalEarned)

	// Overdraw fails and changes nothing.
	_, err = repo.AdjustBalance(ctx, 1, -201, model.CurrencyReal, model.ReasonGameStake)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	account, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(200), account.RealBalance)

	// Demo credits never touch total_earned.
	account, err = repo.AdjustBalance(ctx, 1, 400, model.CurrencyDemo, model.ReasonGameWin)
	require.NoError(t, err)
	assert.Equal(t, int64(1400), account.DemoBalance)
	assert.Equal(t, int64(500), account.TotalEarned)

	// Every mutation appended a ledger record; the failed one did not.
	txRepo := NewTransactionRepository(pool)
	txs, err := txRepo.GetByUserID(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}

func TestAccountRepository_AdminAdjustKeepsLedgerConsistent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 1, "u", "U", 0)
	require.NoError(t, err)
	_, err = repo.AdjustBalance(ctx, 1, 100, model.CurrencyReal, model.ReasonTaskReward)
	require.NoError(t, err)

	// An overdrawing debit is rejected whole; it must not half-apply and
	// must leave no ledger record.
	_, err = repo.AdminAdjust(ctx, 1, -250, model.CurrencyReal)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	account, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.RealBalance)

	// A debit within the balance applies and is ledgered as applied.
	account, err = repo.AdminAdjust(ctx, 1, -40, model.CurrencyReal)
	require.NoError(t, err)
	assert.Equal(t, int64(60), account.RealBalance)

	// The ledger sums to the live balance.
	var sum int64
	err = pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE user_id = 1 AND currency = 'real'
	`).Scan(&sum)
	require.NoError(t, err)
	assert.Equal(t, account.RealBalance, sum)
}

func TestAccountRepository_ClaimDailyBonus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 1, "u", "U", 0)
	require.NoError(t, err)

	// First claim succeeds.
	account, err := repo.ClaimDailyBonus(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), account.RealBalance)
	require.NotNil(t, account.LastDailyBonus)

	// Second claim on the same day is rejected.
	_, err = repo.ClaimDailyBonus(ctx, 1, 1)
	assert.ErrorIs(t, err, ErrDailyAlreadyClaimed)

	// Backdate the last claim by more than a whole day.
	_, err = pool.Exec(ctx,
		`UPDATE accounts SET last_daily_bonus = NOW() - INTERVAL '25 hours' WHERE user_id = 1`)
	require.NoError(t, err)

	account, err = repo.ClaimDailyBonus(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), account.RealBalance)
}

func TestAccountRepository_TopByEarned(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		_, err := repo.Create(ctx, id, "u", "U", 0)
		require.NoError(t, err)
	}
	_, err := repo.AdjustBalance(ctx, 1, 300, model.CurrencyReal, model.ReasonTaskReward)
	require.NoError(t, err)
	_, err = repo.AdjustBalance(ctx, 2, 500, model.CurrencyReal, model.ReasonTaskReward)
	require.NoError(t, err)
	// Account 3 earns only demo, so it stays off the board.
	_, err = repo.AdjustBalance(ctx, 3, 900, model.CurrencyDemo, model.ReasonGameWin)
	require.NoError(t, err)

	top, err := repo.TopByEarned(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(2), top[0].UserID)
	assert.Equal(t, int64(1), top[1].UserID)
}

// ============================================================================
// Order escrow settlement
// ============================================================================

// Creator with 100 coins posts an order paying the executor 50 at 20%
// commission: 62 is held, cancel refunds all 62, confirm pays exactly 50.
func TestOrderRepository_EscrowLifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accounts := NewAccountRepository(pool)
	orders := NewOrderRepository(pool)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 1, "creator", "Creator", 0)
	require.NoError(t, err)
	_, err = accounts.Create(ctx, 2, "executor", "Executor", 0)
	require.NoError(t, err)
	_, err = accounts.AdjustBalance(ctx, 1, 100, model.CurrencyReal, model.ReasonAdminAdjust)
	require.NoError(t, err)

	order, err := orders.CreateEscrowed(ctx, &model.Order{
		CreatorID:      1,
		ResourceType:   "wood",
		ResourceAmount: 5000,
		TotalReward:    62,
		ExecutorReward: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderOpen, order.Status)

	creator, err := accounts.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(38), creator.RealBalance)

	// Cancel refunds the full escrow.
	_, err = orders.Cancel(ctx, order.ID, 1)
	require.NoError(t, err)
	creator, err = accounts.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), creator.RealBalance)

	// Run the happy path on a fresh order.
	order, err = orders.CreateEscrowed(ctx, &model.Order{
		CreatorID:      1,
		ResourceType:   "wood",
		ResourceAmount: 5000,
		TotalReward:    62,
		ExecutorReward: 50,
	})
	require.NoError(t, err)

	// Creator cannot take their own order.
	_, err = orders.Take(ctx, order.ID, 1)
	assert.ErrorIs(t, err, ErrOrderSelfTake)

	order, err = orders.Take(ctx, order.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, model.OrderInProgress, order.Status)

	// Only the executor can submit proof.
	_, err = orders.SubmitProof(ctx, order.ID, 1)
	assert.ErrorIs(t, err, ErrOrderNotExecutor)

	order, err = orders.SubmitProof(ctx, order.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPendingConfirm, order.Status)

	// A pending-confirm order can no longer be cancelled.
	_, err = orders.Cancel(ctx, order.ID, 1)
	assert.ErrorIs(t, err, ErrOrderBadState)

	order, err = orders.Confirm(ctx, order.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCompleted, order.Status)

	executor, err := accounts.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(50), executor.RealBalance)
	assert.Equal(t, int64(50), executor.TotalEarned)

	// Creator paid 62 total; the 12 commission is retained.
	creator, err = accounts.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(38), creator.RealBalance)
}

func TestOrderRepository_CreateInsufficientFunds(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accounts := NewAccountRepository(pool)
	orders := NewOrderRepository(pool)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 1, "creator", "Creator", 0)
	require.NoError(t, err)
	_, err = accounts.AdjustBalance(ctx, 1, 10, model.CurrencyReal, model.ReasonAdminAdjust)
	require.NoError(t, err)

	_, err = orders.CreateEscrowed(ctx, &model.Order{
		CreatorID:      1,
		TotalReward:    62,
		ExecutorReward: 50,
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Nothing was persisted.
	open, err := orders.ListOpen(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, open)

	account, err := accounts.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), account.RealBalance)
}

func TestOrderRepository_RejectProofReturnsToInProgress(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accounts := NewAccountRepository(pool)
	orders := NewOrderRepository(pool)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 1, "creator", "Creator", 0)
	require.NoError(t, err)
	_, err = accounts.Create(ctx, 2, "executor", "Executor", 0)
	require.NoError(t, err)
	_, err = accounts.AdjustBalance(ctx, 1, 100, model.CurrencyReal, model.ReasonAdminAdjust)
	require.NoError(t, err)

	order, err := orders.CreateEscrowed(ctx, &model.Order{
		CreatorID: 1, TotalReward: 62, ExecutorReward: 50,
	})
	require.NoError(t, err)
	_, err = orders.Take(ctx, order.ID, 2)
	require.NoError(t, err)
	_, err = orders.SubmitProof(ctx, order.ID, 2)
	require.NoError(t, err)

	order, err = orders.RejectProof(ctx, order.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.OrderInProgress, order.Status)

	// Executor was not paid.
	executor, err := accounts.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), executor.RealBalance)

	// The executor may submit again after rework.
	order, err = orders.SubmitProof(ctx, order.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPendingConfirm, order.Status)
}

// ============================================================================
// Withdrawal settlement
// ============================================================================

// User with 25 coins requests a 20-coin pack: 5 remain. Rejection
// refunds to 25; completion leaves 5 untouched.
func TestWithdrawalRepository_EscrowLifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accounts := NewAccountRepository(pool)
	withdrawals := NewWithdrawalRepository(pool)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 1, "u", "U", 0)
	require.NoError(t, err)
	_, err = accounts.AdjustBalance(ctx, 1, 25, model.CurrencyReal, model.ReasonAdminAdjust)
	require.NoError(t, err)

	w, err := withdrawals.CreateEscrowed(ctx, 1, "pack20", 20, "player-77")
	require.NoError(t, err)
	assert.Equal(t, model.WithdrawalPending, w.Status)

	account, err := accounts.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), account.RealBalance)

	// Reject refunds in full.
	w, err = withdrawals.Reject(ctx, w.ID, 99, "wrong game id")
	require.NoError(t, err)
	assert.Equal(t, model.WithdrawalRejected, w.Status)

	account, err = accounts.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(25), account.RealBalance)

	// A reviewed request cannot be reviewed again.
	_, err = withdrawals.Complete(ctx, w.ID, 99)
	assert.ErrorIs(t, err, ErrWithdrawalReviewed)

	// New request, this time completed: no further balance change.
	w, err = withdrawals.CreateEscrowed(ctx, 1, "pack20", 20, "player-77")
	require.NoError(t, err)
	w, err = withdrawals.Complete(ctx, w.ID, 99)
	require.NoError(t, err)
	assert.Equal(t, model.WithdrawalCompleted, w.Status)

	account, err = accounts.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), account.RealBalance)
}

func TestWithdrawalRepository_InsufficientFunds(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accounts := NewAccountRepository(pool)
	withdrawals := NewWithdrawalRepository(pool)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 1, "u", "U", 0)
	require.NoError(t, err)

	_, err = withdrawals.CreateEscrowed(ctx, 1, "pack20", 20, "player-77")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	pending, err := withdrawals.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// ============================================================================
// Promocodes
// ============================================================================

// Promo ABC123 worth 10 coins with two uses: two distinct users redeem,
// a repeat redemption and a third user both fail.
func TestPromoRepository_RedeemLifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accounts := NewAccountRepository(pool)
	promos := NewPromoRepository(pool)
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		_, err := accounts.Create(ctx, id, "u", "U", 0)
		require.NoError(t, err)
	}

	promo, err := promos.Create(ctx, "abc123", 10, 2, 99)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", promo.Code)

	// Codes are unique however they are cased.
	_, err = promos.Create(ctx, "ABC123", 5, 1, 99)
	assert.ErrorIs(t, err, ErrPromoCodeTaken)

	// Redemption is case-insensitive on input.
	promo, err = promos.Redeem(ctx, "abc123", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, promo.CurrentUses)
	assert.True(t, promo.IsActive)

	account, err := accounts.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), account.RealBalance)
	assert.Equal(t, int64(10), account.TotalEarned)

	// Same user cannot redeem twice.
	_, err = promos.Redeem(ctx, "ABC123", 1)
	assert.ErrorIs(t, err, ErrPromoAlreadyUsed)

	// Second user exhausts the code and deactivates it.
	promo, err = promos.Redeem(ctx, "ABC123", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, promo.CurrentUses)
	assert.False(t, promo.IsActive)

	_, err = promos.Redeem(ctx, "ABC123", 3)
	assert.ErrorIs(t, err, ErrPromoInactive)
}

func TestPromoRepository_Mint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accounts := NewAccountRepository(pool)
	promos := NewPromoRepository(pool)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 1, "creator", "Creator", 0)
	require.NoError(t, err)
	_, err = accounts.AdjustBalance(ctx, 1, 100, model.CurrencyReal, model.ReasonAdminAdjust)
	require.NoError(t, err)

	// No issue credits yet.
	_, err = promos.Mint(ctx, "mycode", 10, 5, 1)
	assert.ErrorIs(t, err, ErrNoPromoCredits)

	require.NoError(t, accounts.AddPromoCredits(ctx, 1, 1))

	// Costs 10 x 5 = 50 coins plus the credit.
	promo, err := promos.Mint(ctx, "mycode", 10, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, "MYCODE", promo.Code)

	account, err := accounts.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), account.RealBalance)
	assert.Equal(t, 0, account.PromoCredits)
}

func TestPromoRepository_MintInsufficientCoinsKeepsCredit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accounts := NewAccountRepository(pool)
	promos := NewPromoRepository(pool)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 1, "creator", "Creator", 0)
	require.NoError(t, err)
	require.NoError(t, accounts.AddPromoCredits(ctx, 1, 1))

	_, err = promos.Mint(ctx, "mycode", 10, 5, 1)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// The whole mint rolled back, the credit is still there.
	account, err := accounts.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, account.PromoCredits)
}

// ============================================================================
// Submissions
// ============================================================================

func TestTaskRepository_SubmissionLifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accounts := NewAccountRepository(pool)
	tasks := NewTaskRepository(pool)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 1, "worker", "Worker", 0)
	require.NoError(t, err)

	task, err := tasks.CreateTask(ctx, &model.Task{
		AuthorID:       99,
		Kind:           model.TaskKindResource,
		Reward:         30,
		ServerName:     "main",
		ResourceType:   "stone",
		ResourceAmount: 10000,
	})
	require.NoError(t, err)

	sub, err := tasks.CreateSubmission(ctx, 1, task.ID, task.Kind, "photo-1")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionPending, sub.Status)

	// A second submission while one is pending is refused.
	_, err = tasks.CreateSubmission(ctx, 1, task.ID, task.Kind, "photo-2")
	assert.ErrorIs(t, err, ErrDuplicateSubmission)

	// Rejection frees the slot for a retry.
	sub, err = tasks.RejectSubmission(ctx, sub.ID, 99, "photo is blurry")
	require.NoError(t, err)
	require.NotNil(t, sub.AdminComment)
	assert.Equal(t, "photo is blurry", *sub.AdminComment)

	sub, err = tasks.CreateSubmission(ctx, 1, task.ID, task.Kind, "photo-3")
	require.NoError(t, err)

	// Approval pays the reward, bumps the counter, completes the task.
	sub, err = tasks.ApproveSubmission(ctx, sub.ID, 99)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionCompleted, sub.Status)

	account, err := accounts.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(30), account.RealBalance)
	assert.Equal(t, int64(30), account.TotalEarned)
	assert.Equal(t, 1, account.TasksCompleted)

	task, err = tasks.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, task.Status)

	// A completed submission blocks further submissions for the task.
	_, err = tasks.CreateSubmission(ctx, 1, task.ID, task.Kind, "photo-4")
	assert.ErrorIs(t, err, ErrDuplicateSubmission)

	// Double review is refused.
	_, err = tasks.ApproveSubmission(ctx, sub.ID, 99)
	assert.ErrorIs(t, err, ErrSubmissionReviewed)
}

// ============================================================================
// Market
// ============================================================================

func TestMarketRepository_PurchaseOnce(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accounts := NewAccountRepository(pool)
	market := NewMarketRepository(pool)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 1, "buyer", "Buyer", 0)
	require.NoError(t, err)
	_, err = accounts.AdjustBalance(ctx, 1, 100, model.CurrencyReal, model.ReasonAdminAdjust)
	require.NoError(t, err)

	item, err := market.CreateItem(ctx, &model.MarketItem{
		Name:  "Coin pack",
		Price: 40,
		Reward: model.Reward{
			Kind:  model.RewardCoins,
			Coins: 60,
		},
	})
	require.NoError(t, err)

	_, err = market.Purchase(ctx, 1, item.ID)
	require.NoError(t, err)

	// Net effect: -40 price, +60 reward.
	account, err := accounts.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(120), account.RealBalance)
	assert.Equal(t, int64(160), account.TotalEarned)

	// One-time purchase per user.
	_, err = market.Purchase(ctx, 1, item.ID)
	assert.ErrorIs(t, err, ErrAlreadyPurchased)

	has, err := market.HasPurchased(ctx, 1, item.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMarketRepository_PrivilegeAndCreditRewards(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accounts := NewAccountRepository(pool)
	market := NewMarketRepository(pool)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 1, "buyer", "Buyer", 0)
	require.NoError(t, err)
	_, err = accounts.AdjustBalance(ctx, 1, 100, model.CurrencyReal, model.ReasonAdminAdjust)
	require.NoError(t, err)

	tierItem, err := market.CreateItem(ctx, &model.MarketItem{
		Name:  "Youtuber badge",
		Price: 30,
		Reward: model.Reward{
			Kind: model.RewardPrivilege,
			Tier: model.TierYoutuber,
		},
	})
	require.NoError(t, err)

	creditItem, err := market.CreateItem(ctx, &model.MarketItem{
		Name:  "Promo pack",
		Price: 20,
		Reward: model.Reward{
			Kind:    model.RewardPromoCredits,
			Credits: 3,
		},
	})
	require.NoError(t, err)

	_, err = market.Purchase(ctx, 1, tierItem.ID)
	require.NoError(t, err)
	_, err = market.Purchase(ctx, 1, creditItem.ID)
	require.NoError(t, err)

	account, err := accounts.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), account.RealBalance)
	assert.Equal(t, model.TierYoutuber, account.Tier)
	assert.Equal(t, 3, account.PromoCredits)
}

func TestMarketRepository_PurchaseInsufficientFunds(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accounts := NewAccountRepository(pool)
	market := NewMarketRepository(pool)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 1, "buyer", "Buyer", 0)
	require.NoError(t, err)

	item, err := market.CreateItem(ctx, &model.MarketItem{
		Name:   "Coin pack",
		Price:  40,
		Reward: model.Reward{Kind: model.RewardCoins, Coins: 60},
	})
	require.NoError(t, err)

	_, err = market.Purchase(ctx, 1, item.ID)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// The purchase row rolled back with the debit, so a later buy works.
	has, err := market.HasPurchased(ctx, 1, item.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

// ============================================================================
// Profiles
// ============================================================================

func TestProfileRepository_ExpiryFiltering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accounts := NewAccountRepository(pool)
	profiles := NewProfileRepository(pool)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 1, "u", "U", 0)
	require.NoError(t, err)

	_, err = profiles.CreatePlayerProfile(ctx, &model.PlayerProfile{
		UserID: 1, Age: 20, Nickname: "nick", Server: "main",
	}, time.Hour)
	require.NoError(t, err)

	listed, err := profiles.ListPlayerProfiles(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	// Reposting replaces the user's previous listing instead of stacking.
	_, err = profiles.CreatePlayerProfile(ctx, &model.PlayerProfile{
		UserID: 1, Age: 21, Nickname: "nick2", Server: "main",
	}, time.Hour)
	require.NoError(t, err)

	listed, err = profiles.ListPlayerProfiles(ctx, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "nick2", listed[0].Nickname)

	// Expired rows disappear from reads without any sweeping.
	_, err = pool.Exec(ctx, `UPDATE player_profiles SET expires_at = NOW() - INTERVAL '1 minute'`)
	require.NoError(t, err)

	listed, err = profiles.ListPlayerProfiles(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

// ============================================================================
// Stats
// ============================================================================

func TestStatsRepository_Snapshot(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accounts := NewAccountRepository(pool)
	stats := NewStatsRepository(pool)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 1, "u", "U", 0)
	require.NoError(t, err)
	_, err = accounts.AdjustBalance(ctx, 1, 70, model.CurrencyReal, model.ReasonAdminAdjust)
	require.NoError(t, err)
	require.NoError(t, accounts.CompleteRegistration(ctx, 1, "main", "nick"))

	snap, err := stats.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.TotalUsers)
	assert.Equal(t, 1, snap.RegisteredUsers)
	assert.Equal(t, int64(70), snap.TotalRealBalance)
}
