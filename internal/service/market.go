package service

import (
	"context"
	"errors"
	"fmt"

	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/pkg/lock"
	"oxide-coins-bot/internal/repository"
)

// ErrInvalidRewardSpec is returned when a market item's reward cannot be
// parsed into one of the known variants.
var ErrInvalidRewardSpec = errors.New("invalid market reward")

// MarketService handles the marketplace: admin-curated items each user may
// buy once.
type MarketService struct {
	market   *repository.MarketRepository
	userLock *lock.KeyedLock
}

// NewMarketService creates a new MarketService instance.
func NewMarketService(market *repository.MarketRepository, userLock *lock.KeyedLock) *MarketService {
	return &MarketService{market: market, userLock: userLock}
}

// ParseReward validates a reward variant at item-creation time, so
// purchases never see a malformed reward.
func ParseReward(kind model.RewardKind, coins int64, tier model.Tier, credits int) (model.Reward, error) {
	switch kind {
	case model.RewardCoins:
		if coins <= 0 {
			return model.Reward{}, fmt.Errorf("%w: coin amount must be positive", ErrInvalidRewardSpec)
		}
		return model.Reward{Kind: kind, Coins: coins}, nil
	case model.RewardPrivilege:
		switch tier {
		case model.TierTrainee, model.TierStrong, model.TierYoutuber:
			return model.Reward{Kind: kind, Tier: tier}, nil
		}
		return model.Reward{}, fmt.Errorf("%w: tier %q is not grantable", ErrInvalidRewardSpec, tier)
	case model.RewardPromoCredits:
		if credits <= 0 {
			return model.Reward{}, fmt.Errorf("%w: credit count must be positive", ErrInvalidRewardSpec)
		}
		return model.Reward{Kind: kind, Credits: credits}, nil
	}
	return model.Reward{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidRewardSpec, kind)
}

// CreateItem lists a new market item with a pre-parsed reward.
func (s *MarketService) CreateItem(ctx context.Context, name string, price int64, description string, reward model.Reward) (*model.MarketItem, error) {
	if price <= 0 {
		return nil, ErrInvalidAmount
	}
	item := &model.MarketItem{
		Name:        name,
		Price:       price,
		Description: description,
		Reward:      reward,
	}
	return s.market.CreateItem(ctx, item)
}

// Get retrieves a market item by ID.
func (s *MarketService) Get(ctx context.Context, itemID int64) (*model.MarketItem, error) {
	return s.market.GetItem(ctx, itemID)
}

// ListActive retrieves purchasable items.
func (s *MarketService) ListActive(ctx context.Context) ([]*model.MarketItem, error) {
	return s.market.ListActive(ctx)
}

// DeactivateItem pulls an item from the market. Past purchases keep their
// rewards.
func (s *MarketService) DeactivateItem(ctx context.Context, itemID int64) error {
	return s.market.DeactivateItem(ctx, itemID)
}

// HasPurchased reports whether a user already bought an item.
func (s *MarketService) HasPurchased(ctx context.Context, userID, itemID int64) (bool, error) {
	return s.market.HasPurchased(ctx, userID, itemID)
}

// Purchase buys an item: the price debit, the once-per-user purchase
// record and the reward dispatch settle together.
func (s *MarketService) Purchase(ctx context.Context, userID, itemID int64) (*model.MarketItem, error) {
	s.userLock.Lock(userID)
	defer s.userLock.Unlock(userID)

	item, err := s.market.Purchase(ctx, userID, itemID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrItemNotFound),
			errors.Is(err, repository.ErrItemInactive),
			errors.Is(err, repository.ErrAlreadyPurchased),
			errors.Is(err, repository.ErrInsufficientFunds):
			return nil, err
		}
		return nil, fmt.Errorf("failed to purchase item: %w", err)
	}
	return item, nil
}
