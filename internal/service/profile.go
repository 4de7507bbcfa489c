package service

import (
	"context"
	"time"

	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/repository"
)

// ProfileService handles player and clan recruitment listings. Listings
// carry an expiry and disappear from reads once past it.
type ProfileService struct {
	profiles *repository.ProfileRepository
	ttl      time.Duration
}

// NewProfileService creates a new ProfileService instance.
func NewProfileService(profiles *repository.ProfileRepository, ttl time.Duration) *ProfileService {
	return &ProfileService{profiles: profiles, ttl: ttl}
}

// PublishPlayer creates a player listing valid for the configured TTL.
func (s *ProfileService) PublishPlayer(ctx context.Context, p *model.PlayerProfile) (*model.PlayerProfile, error) {
	return s.profiles.CreatePlayerProfile(ctx, p, s.ttl)
}

// PublishClan creates a clan listing valid for twice the player TTL.
func (s *ProfileService) PublishClan(ctx context.Context, c *model.ClanProfile) (*model.ClanProfile, error) {
	return s.profiles.CreateClanProfile(ctx, c, 2*s.ttl)
}

// Players retrieves unexpired player listings, newest first.
func (s *ProfileService) Players(ctx context.Context, limit int) ([]*model.PlayerProfile, error) {
	return s.profiles.ListPlayerProfiles(ctx, limit)
}

// Clans retrieves unexpired clan listings, newest first.
func (s *ProfileService) Clans(ctx context.Context, limit int) ([]*model.ClanProfile, error) {
	return s.profiles.ListClanProfiles(ctx, limit)
}
