package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestGenerateCode checks the code shape: fixed length, charset only, and
// already upper-cased so redemption lookups need no normalization.
func TestGenerateCode(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := GenerateCode()

		if len(code) != promoCodeLength {
			t.Fatalf("code %q should be %d characters", code, promoCodeLength)
		}
		if code != strings.ToUpper(code) {
			t.Fatalf("code %q should be upper-cased", code)
		}
		for _, c := range code {
			if !strings.ContainsRune(promoCodeCharset, c) {
				t.Fatalf("code %q contains %q outside the charset", code, c)
			}
		}
	})
}

func TestGenerateCodeVariety(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[GenerateCode()] = true
	}
	// 100 draws from a 32^8 space colliding down to a handful would mean
	// the generator is broken.
	assert.Greater(t, len(seen), 90)
}
