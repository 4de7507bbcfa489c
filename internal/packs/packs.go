// Package packs defines the fixed catalog of withdrawable coin packs.
package packs

// Pack is a fixed-size withdrawal bundle. The coin amount is escrowed when
// a request is created and only moves again on rejection.
type Pack struct {
	ID    string
	Name  string
	Emoji string
	Coins int64
}

// Catalog contains all withdrawable packs keyed by ID.
var Catalog = map[string]Pack{
	"pack_small": {
		ID:    "pack_small",
		Name:  "Small pack",
		Emoji: "🪙",
		Coins: 100,
	},
	"pack_medium": {
		ID:    "pack_medium",
		Name:  "Medium pack",
		Emoji: "💰",
		Coins: 250,
	},
	"pack_large": {
		ID:    "pack_large",
		Name:  "Large pack",
		Emoji: "💎",
		Coins: 500,
	},
	"pack_huge": {
		ID:    "pack_huge",
		Name:  "Huge pack",
		Emoji: "👑",
		Coins: 1000,
	},
}

// All returns the packs in display order.
func All() []Pack {
	order := []string{"pack_small", "pack_medium", "pack_large", "pack_huge"}

	packs := make([]Pack, 0, len(order))
	for _, id := range order {
		if pack, ok := Catalog[id]; ok {
			packs = append(packs, pack)
		}
	}
	return packs
}

// Get returns the pack for a given ID.
func Get(id string) (Pack, bool) {
	pack, ok := Catalog[id]
	return pack, ok
}
