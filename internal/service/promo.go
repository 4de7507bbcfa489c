package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/pkg/lock"
	"oxide-coins-bot/internal/repository"
)

// Promo validation errors.
var (
	ErrNotPrivileged  = errors.New("minting requires the youtuber or admin tier")
	ErrInvalidPromo   = errors.New("invalid promocode parameters")
	ErrEmptyPromoCode = errors.New("promocode must not be empty")
)

const (
	promoCodeLength  = 8
	promoCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// PromoService handles promocode creation, redemption and self-funded
// minting by privileged users.
type PromoService struct {
	promos   *repository.PromoRepository
	userLock *lock.KeyedLock
}

// NewPromoService creates a new PromoService instance.
func NewPromoService(promos *repository.PromoRepository, userLock *lock.KeyedLock) *PromoService {
	return &PromoService{promos: promos, userLock: userLock}
}

// Create registers an admin-issued promocode. Codes are stored upper-cased
// and must be unique.
func (s *PromoService) Create(ctx context.Context, code string, coins int64, maxUses int, createdBy int64) (*model.Promocode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrEmptyPromoCode
	}
	if coins <= 0 || maxUses <= 0 {
		return nil, ErrInvalidPromo
	}
	return s.promos.Create(ctx, code, coins, maxUses, createdBy)
}

// Redeem credits a promocode's coins to the user. Each user may redeem a
// given code once; the code deactivates when its usage cap is reached.
func (s *PromoService) Redeem(ctx context.Context, code string, userID int64) (*model.Promocode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrEmptyPromoCode
	}

	s.userLock.Lock(userID)
	defer s.userLock.Unlock(userID)

	promo, err := s.promos.Redeem(ctx, code, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPromoNotFound),
			errors.Is(err, repository.ErrPromoInactive),
			errors.Is(err, repository.ErrPromoExhausted),
			errors.Is(err, repository.ErrPromoAlreadyUsed):
			return nil, err
		}
		return nil, fmt.Errorf("failed to redeem promocode: %w", err)
	}
	return promo, nil
}

// Mint creates a self-funded promocode for a privileged user. One promo
// credit plus coins x maxUses is spent; the generated code is returned.
func (s *PromoService) Mint(ctx context.Context, minter *model.Account, coins int64, maxUses int) (*model.Promocode, error) {
	if !minter.Tier.Special() {
		return nil, ErrNotPrivileged
	}
	if coins <= 0 || maxUses <= 0 {
		return nil, ErrInvalidPromo
	}

	s.userLock.Lock(minter.UserID)
	defer s.userLock.Unlock(minter.UserID)

	// Retry on the unlucky chance the generated code collides.
	for attempt := 0; attempt < 3; attempt++ {
		code := GenerateCode()
		promo, err := s.promos.Mint(ctx, code, coins, maxUses, minter.UserID)
		if errors.Is(err, repository.ErrPromoCodeTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return promo, nil
	}
	return nil, fmt.Errorf("failed to generate a unique promocode")
}

// ListActive retrieves currently redeemable promocodes.
func (s *PromoService) ListActive(ctx context.Context) ([]*model.Promocode, error) {
	return s.promos.ListActive(ctx)
}

// Deactivate disables a promocode without refunding anything.
func (s *PromoService) Deactivate(ctx context.Context, code string) error {
	return s.promos.Deactivate(ctx, code)
}

// GenerateCode produces a random 8-character promocode. The charset skips
// easily confused characters.
func GenerateCode() string {
	var b strings.Builder
	b.Grow(promoCodeLength)
	for i := 0; i < promoCodeLength; i++ {
		b.WriteByte(promoCodeCharset[rand.Intn(len(promoCodeCharset))])
	}
	return b.String()
}
