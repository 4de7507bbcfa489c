package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oxide-coins-bot/internal/model"
)

func TestParseReward(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.RewardKind
		coins   int64
		tier    model.Tier
		credits int
		want    model.Reward
		wantErr bool
	}{
		{
			name:  "coins reward",
			kind:  model.RewardCoins,
			coins: 500,
			want:  model.Reward{Kind: model.RewardCoins, Coins: 500},
		},
		{
			name:    "coins require positive amount",
			kind:    model.RewardCoins,
			coins:   0,
			wantErr: true,
		},
		{
			name: "privilege reward",
			kind: model.RewardPrivilege,
			tier: model.TierYoutuber,
			want: model.Reward{Kind: model.RewardPrivilege, Tier: model.TierYoutuber},
		},
		{
			name:    "admin tier is not purchasable",
			kind:    model.RewardPrivilege,
			tier:    model.TierAdmin,
			wantErr: true,
		},
		{
			name:    "newbie tier is not grantable",
			kind:    model.RewardPrivilege,
			tier:    model.TierNewbie,
			wantErr: true,
		},
		{
			name:    "credits reward",
			kind:    model.RewardPromoCredits,
			credits: 3,
			want:    model.Reward{Kind: model.RewardPromoCredits, Credits: 3},
		},
		{
			name:    "credits require positive count",
			kind:    model.RewardPromoCredits,
			credits: -1,
			wantErr: true,
		},
		{
			name:    "unknown kind",
			kind:    model.RewardKind("sticker"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReward(tt.kind, tt.coins, tt.tier, tt.credits)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRewardSpec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
